package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/db/models"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/pagination"
)

// Service exposes order placement and the order query surface. Order prices
// are never written here; the aggregation engine owns them.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	ListOrders(ctx context.Context, filters OrderFilters, params pagination.Params) (pagination.Page[OrderSummary], error)
	ListClientOrders(ctx context.Context, clientID uuid.UUID, params pagination.Params) (pagination.Page[OrderSummary], error)
}

// PlaceOrderInput opens an order against a vehicle. When ActorClientID is
// set the vehicle must belong to that client. Date defaults to today.
type PlaceOrderInput struct {
	VehicleID     uuid.UUID
	Date          *time.Time
	DueBack       *time.Time
	ActorClientID *uuid.UUID
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires an order service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	vehicle, err := s.repo.FindVehicle(ctx, input.VehicleID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeReferenceNotFound, "vehicle not found").
				WithDetails(map[string]any{"vehicleId": input.VehicleID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	if input.ActorClientID != nil && (vehicle.ClientID == nil || *vehicle.ClientID != *input.ActorClientID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle does not belong to client")
	}

	date := dateOnly(s.now())
	if input.Date != nil {
		date = dateOnly(*input.Date)
	}
	var dueBack *time.Time
	if input.DueBack != nil {
		d := dateOnly(*input.DueBack)
		if d.Before(date) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "due back date cannot be before the order date")
		}
		dueBack = &d
	}

	order := &models.Order{
		VehicleID: vehicle.ID,
		Date:      &date,
		DueBack:   dueBack,
		Price:     decimal.Zero,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	order.Vehicle = vehicle
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindOrderDetail(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return detail(*order, s.now()), nil
}

func (s *service) ListOrders(ctx context.Context, filters OrderFilters, params pagination.Params) (pagination.Page[OrderSummary], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filters.Query = strings.TrimSpace(filters.Query)

	rows, err := s.repo.ListOrders(ctx, filters, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	return pagination.BuildPage(summarizeAll(rows, s.now()), params.Limit, func(o OrderSummary) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

// ListClientOrders pages through a client's orders by due date, soonest
// first.
func (s *service) ListClientOrders(ctx context.Context, clientID uuid.UUID, params pagination.Params) (pagination.Page[OrderSummary], error) {
	cursor, err := pagination.ParseDueCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListClientOrders(ctx, clientID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list client orders")
	}
	return pagination.BuildPageFunc(summarizeAll(rows, s.now()), params.Limit, func(o OrderSummary) string {
		return pagination.EncodeDueCursor(pagination.DueCursor{DueBack: o.DueBack, ID: o.ID})
	}), nil
}

func summarizeAll(rows []models.Order, today time.Time) []OrderSummary {
	summaries := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summarize(row, today))
	}
	return summaries
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
