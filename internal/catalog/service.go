package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/types"
)

const (
	maxServiceNameLen = 99
	maxCarFieldLen    = 50
	minModelYear      = 1886
	maxModelYear      = 2100
)

// Service is the catalog registry. Price edits apply to future entries only;
// entries that already carry a price keep it.
type Service interface {
	CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	UpdateServicePrice(ctx context.Context, id uuid.UUID, price decimal.NullDecimal) (*models.Service, error)
	CreateCarModel(ctx context.Context, input CreateCarModelInput) (*models.CarModel, error)
	ListCarModels(ctx context.Context) ([]models.CarModel, error)
}

// CreateServiceInput describes a new catalog row. A nil price leaves the
// service unpriced.
type CreateServiceInput struct {
	Name  string
	Price *decimal.Decimal
}

// CreateCarModelInput describes vehicle model metadata.
type CreateCarModelInput struct {
	Make   string
	Model  string
	Year   int
	Engine string
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name is required")
	}
	if utf8.RuneCountInString(name) > maxServiceNameLen {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "service name must be at most %d characters", maxServiceNameLen)
	}

	row := &models.Service{Name: name}
	if input.Price != nil {
		price, err := normalizePrice(*input.Price)
		if err != nil {
			return nil, err
		}
		row.Price = decimal.NewNullDecimal(price)
	}

	if err := s.repo.CreateService(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service")
	}
	return row, nil
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	row, err := s.repo.FindService(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	return row, nil
}

func (s *service) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return rows, nil
}

func (s *service) UpdateServicePrice(ctx context.Context, id uuid.UUID, price decimal.NullDecimal) (*models.Service, error) {
	if price.Valid {
		normalized, err := normalizePrice(price.Decimal)
		if err != nil {
			return nil, err
		}
		price = decimal.NewNullDecimal(normalized)
	}

	affected, err := s.repo.UpdateServicePrice(ctx, id, price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update service price")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return s.GetService(ctx, id)
}

func (s *service) CreateCarModel(ctx context.Context, input CreateCarModelInput) (*models.CarModel, error) {
	row := &models.CarModel{
		Make:   strings.TrimSpace(input.Make),
		Model:  strings.TrimSpace(input.Model),
		Year:   input.Year,
		Engine: strings.TrimSpace(input.Engine),
	}
	for field, value := range map[string]string{"make": row.Make, "model": row.Model, "engine": row.Engine} {
		if value == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "car model %s is required", field)
		}
		if utf8.RuneCountInString(value) > maxCarFieldLen {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "car model %s must be at most %d characters", field, maxCarFieldLen)
		}
	}
	if row.Year < minModelYear || row.Year > maxModelYear {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "car model year must be between %d and %d", minModelYear, maxModelYear)
	}

	if err := s.repo.CreateCarModel(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create car model")
	}
	return row, nil
}

func (s *service) ListCarModels(ctx context.Context) ([]models.CarModel, error) {
	rows, err := s.repo.ListCarModels(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list car models")
	}
	return rows, nil
}

func normalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	price = types.Money(price)
	if !types.MoneyFits(price) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "service price must be a non-negative amount")
	}
	return price, nil
}
