package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. Price and Quantity only change through
// the inventory reconciler and the promotion scheduler.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Image       *string        `gorm:"column:image"`
	Description *string        `gorm:"column:description"`
	Price       int64          `gorm:"column:price;not null"`
	Quantity    int            `gorm:"column:quantity;not null;default:0"`
	Discount    int            `gorm:"column:discount;not null;default:0"`
	Version     int64          `gorm:"column:version;not null;default:0"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
