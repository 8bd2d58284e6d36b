package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
)

type repository struct {
	base repo.Base
}

// NewRepository returns a Repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.base.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with its live items.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByShipper(ctx context.Context, shipperID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	if err := r.base.DB(ctx).
		Where("shipper_id = ?", shipperID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	if err := r.base.DB(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CompareAndSetStatus moves the order to `to` only while it is still in `from`.
func (r *repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) AssignShipper(ctx context.Context, id, shipperID uuid.UUID, requiredStatus enums.OrderStatus) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, requiredStatus).
		Updates(map[string]any{
			"shipper_id": shipperID,
			"version":    gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) AdjustTotal(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total":   gorm.Expr("total + ?", delta),
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

// ClaimVersion bumps the order version only while it still equals version.
// The update holds the order row until commit, so item mutations on one order
// run one at a time.
func (r *repository) ClaimVersion(ctx context.Context, id uuid.UUID, version int64) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", id, version).
		Update("version", gorm.Expr("version + 1"))
	return res.RowsAffected, res.Error
}

// SumItemCounts totals the units across the order's live items.
func (r *repository) SumItemCounts(ctx context.Context, orderID uuid.UUID) (int, error) {
	var total int64
	if err := r.base.DB(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.base.DB(ctx).First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error) {
	if err := r.base.DB(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) CompareAndSetCount(ctx context.Context, itemID uuid.UUID, oldCount, newCount int) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND count = ?", itemID, oldCount).
		Update("count", newCount)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.OrderItem{}, "id = ?", itemID)
	return res.RowsAffected, res.Error
}
