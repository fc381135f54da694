package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/arnaszs/servizas/pkg/db/models"
)

// Repository persists catalog services and car models.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateService(ctx context.Context, service *models.Service) error
	FindService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	UpdateServicePrice(ctx context.Context, id uuid.UUID, price decimal.NullDecimal) (int64, error)
	CreateCarModel(ctx context.Context, model *models.CarModel) error
	FindCarModel(ctx context.Context, id uuid.UUID) (*models.CarModel, error)
	ListCarModels(ctx context.Context) ([]models.CarModel, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *repository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repository) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) UpdateServicePrice(ctx context.Context, id uuid.UUID, price decimal.NullDecimal) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("id = ?", id).
		Update("price", price)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateCarModel(ctx context.Context, model *models.CarModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *repository) FindCarModel(ctx context.Context, id uuid.UUID) (*models.CarModel, error) {
	var model models.CarModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *repository) ListCarModels(ctx context.Context) ([]models.CarModel, error) {
	var carModels []models.CarModel
	err := r.db.WithContext(ctx).
		Order("make ASC").
		Order("model ASC").
		Order("year DESC").
		Find(&carModels).Error
	if err != nil {
		return nil, err
	}
	return carModels, nil
}
