package vehicles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/pagination"
)

// Repository persists vehicles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	UpdateOwner(ctx context.Context, id uuid.UUID, clientID *uuid.UUID) (int64, error)
	List(ctx context.Context, search string, cursor *pagination.Cursor, limit int) ([]models.Vehicle, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Vehicle, error)
	ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error)
	CarModelExists(ctx context.Context, carModelID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vehicles repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Preload("CarModel").
		Where("id = ?", id).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) UpdateOwner(ctx context.Context, id uuid.UUID, clientID *uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Vehicle{}).
		Where("id = ?", id).
		Update("client_id", clientID)
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context, search string, cursor *pagination.Cursor, limit int) ([]models.Vehicle, error) {
	query := r.db.WithContext(ctx).Model(&models.Vehicle{}).Preload("CarModel")

	if search != "" {
		prefix := db.LikePrefix(search)
		query = query.Where(
			"(LOWER(vehicles.license_plate) LIKE ? ESCAPE ? OR LOWER(vehicles.vin) LIKE ? ESCAPE ? OR EXISTS ("+
				"SELECT 1 FROM car_models cm WHERE cm.id = vehicles.car_model_id AND ("+
				"LOWER(cm.make) LIKE ? ESCAPE ? OR LOWER(cm.model) LIKE ? ESCAPE ? OR CAST(cm.year AS TEXT) LIKE ? ESCAPE ?)))",
			prefix, db.LikeEscape, prefix, db.LikeEscape,
			prefix, db.LikeEscape, prefix, db.LikeEscape, prefix, db.LikeEscape,
		)
	}
	if cursor != nil {
		query = query.Where(
			"(vehicles.created_at < ? OR (vehicles.created_at = ? AND vehicles.id < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Vehicle
	err := query.
		Order("vehicles.created_at DESC").
		Order("vehicles.id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	err := r.db.WithContext(ctx).
		Preload("CarModel").
		Where("client_id = ?", clientID).
		Order("license_plate ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.Client{}, clientID)
}

func (r *repository) CarModelExists(ctx context.Context, carModelID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.CarModel{}, carModelID)
}

func (r *repository) exists(ctx context.Context, model any, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
