package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
)

// Service manages the accounts that own vehicles.
type Service interface {
	CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// CreateClientInput holds the client's profile fields.
type CreateClientInput struct {
	DisplayName string
	Email       string
}

type service struct {
	repo Repository
}

// NewService wires a client service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}

	client := &models.Client{DisplayName: name}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" {
		client.Email = &email
	}

	if err := s.repo.Create(ctx, client); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create client")
	}
	return client, nil
}

func (s *service) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}
	return client, nil
}
