package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
)

// Repository defines persistence operations for orders and order items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByShipper(ctx context.Context, shipperID uuid.UUID) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (int64, error)
	AssignShipper(ctx context.Context, id, shipperID uuid.UUID, requiredStatus enums.OrderStatus) (int64, error)
	AdjustTotal(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	ClaimVersion(ctx context.Context, id uuid.UUID, version int64) (int64, error)
	SumItemCounts(ctx context.Context, orderID uuid.UUID) (int, error)
	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error)
	CompareAndSetCount(ctx context.Context, itemID uuid.UUID, oldCount, newCount int) (int64, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type shipperLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipper, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Shipper, error)
}
