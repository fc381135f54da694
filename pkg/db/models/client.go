package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is an account that owns vehicles and writes reviews.
type Client struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName string    `gorm:"column:display_name;not null"`
	Email       *string   `gorm:"column:email"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Client) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
