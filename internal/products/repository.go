package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
)

// Repository persists catalog rows. Stock and price columns are only written
// through the conditional helpers below.
type Repository struct {
	base repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

// FindByID loads a live (not soft-deleted) product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDUnscoped loads a product even when it has been soft-deleted.
func (r *Repository) FindByIDUnscoped(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).Unscoped().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName returns the live product with the exact (case-insensitive) name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.base.DB(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.base.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateDetails writes the descriptive columns.
func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	res := r.base.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

// Delete soft-deletes the product.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// List returns live products ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.base.DB(ctx).Order("created_at ASC").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock removes qty units when at least qty remain. Zero rows
// affected means the product is missing or short.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity - ?", qty),
			"version":  gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

// IncrementStock returns qty units to the product, including soft-deleted rows.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.base.DB(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity + ?", qty),
			"version":  gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}

// SetPrice writes an absolute price.
func (r *Repository) SetPrice(ctx context.Context, id uuid.UUID, price int64) (int64, error) {
	res := r.base.DB(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"price":   price,
			"version": gorm.Expr("version + 1"),
		})
	return res.RowsAffected, res.Error
}
