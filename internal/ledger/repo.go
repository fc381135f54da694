package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db/models"
)

// Repository persists ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.Entry) error
	Update(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Entry, error)
	FindService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	OrderExists(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.Entry) error {
	return r.db.WithContext(ctx).Omit("Service").Create(entry).Error
}

// Update writes every mutable column of entry.
func (r *repository) Update(ctx context.Context, entry *models.Entry) error {
	entry.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"service_id": entry.ServiceID,
			"quantity":   entry.Quantity,
			"price":      entry.Price,
			"total":      entry.Total,
			"status":     entry.Status,
			"updated_at": entry.UpdatedAt,
		}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Entry, error) {
	var entries []models.Entry
	err := r.db.WithContext(ctx).
		Preload("Service").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repository) OrderExists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
