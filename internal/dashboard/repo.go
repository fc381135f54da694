package dashboard

import (
	"context"

	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
)

// StatusCount is one row of the entries-by-status aggregate.
type StatusCount struct {
	Status enums.EntryStatus
	Count  int64
}

// Repository runs the dashboard aggregates.
type Repository interface {
	CountEntriesByStatus(ctx context.Context) ([]StatusCount, error)
	CountVehicles(ctx context.Context) (int64, error)
	ListServiceNames(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountEntriesByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountVehicles(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Vehicle{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ListServiceNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&models.Service{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
