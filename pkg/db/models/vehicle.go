package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle belongs to at most one client. Unassigned vehicles are allowed.
type Vehicle struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ClientID     *uuid.UUID `gorm:"column:client_id;type:uuid"`
	CarModelID   *uuid.UUID `gorm:"column:car_model_id;type:uuid"`
	LicensePlate string     `gorm:"column:license_plate;not null"`
	VIN          string     `gorm:"column:vin;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	CarModel *CarModel `gorm:"foreignKey:CarModelID;references:ID"`
}

func (v *Vehicle) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
