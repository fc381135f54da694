package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is an append-only comment on an order. ReviewerID becomes nil
// when the reviewer's account is removed.
type Review struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ReviewerID *uuid.UUID `gorm:"column:reviewer_id;type:uuid"`
	ReviewedAt time.Time  `gorm:"column:reviewed_at;not null"`
	Content    string     `gorm:"column:content;not null"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
