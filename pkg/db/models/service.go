package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog row. A null price means the service has not been
// priced yet.
type Service struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name      string              `gorm:"column:name;not null"`
	Price     decimal.NullDecimal `gorm:"column:price;type:numeric(19,2)"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// CarModel describes vehicle make/model metadata.
type CarModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Make      string    `gorm:"column:make;not null"`
	Model     string    `gorm:"column:model;not null"`
	Year      int       `gorm:"column:year;not null"`
	Engine    string    `gorm:"column:engine;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (m *CarModel) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
