package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/pkg/enums"
)

type Customer struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"column:username;not null" json:"username"`
	Email     string         `gorm:"column:email;not null" json:"email"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Shipper delivers exported orders. Disabled shippers cannot take or move orders.
type Shipper struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username  string              `gorm:"column:username;not null" json:"username"`
	Email     string              `gorm:"column:email;not null" json:"email"`
	Phone     *string             `gorm:"column:phone" json:"phone,omitempty"`
	Status    enums.ShipperStatus `gorm:"column:status;not null" json:"status"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt      `gorm:"column:deleted_at;index" json:"-"`
}

func (s *Shipper) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	if s.Status == "" {
		s.Status = enums.ShipperStatusActive
	}
	return nil
}

// IsActive reports whether the shipper may take orders.
func (s *Shipper) IsActive() bool {
	return s.Status == enums.ShipperStatusActive
}
