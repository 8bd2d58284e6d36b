package shippers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
)

// Repository persists shipper rows.
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

func (r *Repository) Create(ctx context.Context, shipper *models.Shipper) (*models.Shipper, error) {
	if err := r.base.DB(ctx).Create(shipper).Error; err != nil {
		return nil, err
	}
	return shipper, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipper, error) {
	var shipper models.Shipper
	if err := r.base.DB(ctx).First(&shipper, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipper, nil
}

// FindByIDTx reads the shipper through tx.
func (r *Repository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Shipper, error) {
	return r.WithTx(tx).FindByID(ctx, id)
}

// UpdateStatus flips the shipper availability and reports affected rows.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ShipperStatus) (int64, error) {
	res := r.base.DB(ctx).Model(&models.Shipper{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *Repository) List(ctx context.Context) ([]models.Shipper, error) {
	var rows []models.Shipper
	if err := r.base.DB(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
