package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/pkg/enums"
)

// Order is a customer purchase whose items hold stock.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	ShipperID  *uuid.UUID        `gorm:"column:shipper_id;type:uuid;index"`
	Total      int64             `gorm:"column:total;not null;default:0"`
	Status     enums.OrderStatus `gorm:"column:status;not null"`
	Version    int64             `gorm:"column:version;not null;default:0"`
	Items      []OrderItem       `gorm:"foreignKey:OrderID"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt    `gorm:"column:deleted_at;index"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusInStock
	}
	return nil
}

// AssignedTo reports whether the order is currently held by the shipper.
func (o *Order) AssignedTo(shipperID uuid.UUID) bool {
	return o.ShipperID != nil && *o.ShipperID == shipperID
}

// OrderItem decrements product stock for as long as it exists.
type OrderItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	Count     int            `gorm:"column:count;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
