package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a repair order against one vehicle. Price is derived from the
// order's entries and only the aggregation engine writes it. Version is
// bumped on every price write.
type Order struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	VehicleID uuid.UUID       `gorm:"column:vehicle_id;type:uuid;not null"`
	Date      *time.Time      `gorm:"column:date;type:date"`
	DueBack   *time.Time      `gorm:"column:due_back;type:date"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(19,2);not null;default:0"`
	Version   int64           `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID;references:ID"`
	Entries []Entry  `gorm:"foreignKey:OrderID;references:ID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// ClientID reads through to the vehicle owner. It is nil when the vehicle
// was not loaded or has no owner.
func (o Order) ClientID() *uuid.UUID {
	if o.Vehicle == nil {
		return nil
	}
	return o.Vehicle.ClientID
}

// IsOverdue reports whether the due-back date is set and falls strictly
// before today. Only the calendar day is compared.
func (o Order) IsOverdue(today time.Time) bool {
	if o.DueBack == nil {
		return false
	}
	return calendarDay(*o.DueBack).Before(calendarDay(today))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
