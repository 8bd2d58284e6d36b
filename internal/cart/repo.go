package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
)

// Repository persists carts and their line items.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// FindByCustomer loads the customer's cart with its live items.
func (r *Repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("customer_id = ?", customerID).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.base.DB(ctx).First(&cart, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.base.DB(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// AdjustTotal applies an increment to the cart total.
func (r *Repository) AdjustTotal(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Cart{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total":   gorm.Expr("total + ?", delta),
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

// FindItem loads a live item that belongs to cartID.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.DB(ctx).First(&item, "id = ? AND cart_id = ?", itemID, cartID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.base.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// CompareAndSetCount writes newCount only while the stored count is oldCount.
func (r *Repository) CompareAndSetCount(ctx context.Context, itemID uuid.UUID, oldCount, newCount int) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND count = ?", itemID, oldCount).
		Update("count", newCount)
	return res.RowsAffected, res.Error
}

// DeleteItem soft-deletes the line item.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.CartItem{}, "id = ?", itemID)
	return res.RowsAffected, res.Error
}
