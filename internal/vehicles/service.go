package vehicles

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/pagination"
)

const (
	maxPlateLen = 17
	maxVINLen   = 50
)

// Service is the vehicle registry.
type Service interface {
	RegisterVehicle(ctx context.Context, input RegisterVehicleInput) (*models.Vehicle, error)
	AssignOwner(ctx context.Context, vehicleID uuid.UUID, clientID *uuid.UUID) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, search string, params pagination.Params) (pagination.Page[models.Vehicle], error)
	ListClientVehicles(ctx context.Context, clientID uuid.UUID) ([]models.Vehicle, error)
}

// RegisterVehicleInput describes a new vehicle. Owner and model are optional.
type RegisterVehicleInput struct {
	LicensePlate string
	VIN          string
	ClientID     *uuid.UUID
	CarModelID   *uuid.UUID
}

type service struct {
	repo Repository
}

// NewService wires a vehicle service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RegisterVehicle(ctx context.Context, input RegisterVehicleInput) (*models.Vehicle, error) {
	plate := strings.ToUpper(strings.TrimSpace(input.LicensePlate))
	vin := strings.ToUpper(strings.TrimSpace(input.VIN))
	if err := validateIdentifier("license plate", plate, maxPlateLen); err != nil {
		return nil, err
	}
	if err := validateIdentifier("vin", vin, maxVINLen); err != nil {
		return nil, err
	}

	if input.ClientID != nil {
		if err := s.requireClient(ctx, *input.ClientID); err != nil {
			return nil, err
		}
	}
	if input.CarModelID != nil {
		ok, err := s.repo.CarModelExists(ctx, *input.CarModelID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check car model")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeReferenceNotFound, "car model not found").
				WithDetails(map[string]any{"carModelId": input.CarModelID.String()})
		}
	}

	vehicle := &models.Vehicle{
		LicensePlate: plate,
		VIN:          vin,
		ClientID:     input.ClientID,
		CarModelID:   input.CarModelID,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register vehicle")
	}
	return vehicle, nil
}

func (s *service) AssignOwner(ctx context.Context, vehicleID uuid.UUID, clientID *uuid.UUID) (*models.Vehicle, error) {
	if clientID != nil {
		if err := s.requireClient(ctx, *clientID); err != nil {
			return nil, err
		}
	}

	affected, err := s.repo.UpdateOwner(ctx, vehicleID, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign vehicle owner")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}
	return s.GetVehicle(ctx, vehicleID)
}

func (s *service) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	return vehicle, nil
}

func (s *service) ListVehicles(ctx context.Context, search string, params pagination.Params) (pagination.Page[models.Vehicle], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Vehicle]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, strings.TrimSpace(search), cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[models.Vehicle]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return pagination.BuildPage(rows, params.Limit, func(v models.Vehicle) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	}), nil
}

func (s *service) ListClientVehicles(ctx context.Context, clientID uuid.UUID) ([]models.Vehicle, error) {
	rows, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list client vehicles")
	}
	return rows, nil
}

func (s *service) requireClient(ctx context.Context, clientID uuid.UUID) error {
	ok, err := s.repo.ClientExists(ctx, clientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check client")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeReferenceNotFound, "client not found").
			WithDetails(map[string]any{"clientId": clientID.String()})
	}
	return nil
}

func validateIdentifier(field, value string, max int) error {
	if value == "" {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be at most %d characters", field, max)
	}
	return nil
}
