package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/enums"
)

// Entry attaches one catalog service to an order.
type Entry struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	ServiceID uuid.UUID         `gorm:"column:service_id;type:uuid;not null"`
	Quantity  int               `gorm:"column:quantity;not null"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(19,2);not null;default:0"`
	Total     decimal.Decimal   `gorm:"column:total;type:numeric(19,2);not null;default:0"`
	Status    enums.EntryStatus `gorm:"column:status;not null;default:'new'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Service *Service `gorm:"foreignKey:ServiceID;references:ID"`
}

func (e *Entry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// StatusColor is the display color for the entry's status.
func (e Entry) StatusColor() string {
	return e.Status.Color()
}
