package controllers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arnaszs/servizas/internal/catalog"
	"github.com/arnaszs/servizas/internal/dashboard"
	"github.com/arnaszs/servizas/internal/ledger"
	"github.com/arnaszs/servizas/internal/orders"
	"github.com/arnaszs/servizas/internal/reviews"
	"github.com/arnaszs/servizas/internal/vehicles"
	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/pagination"
)

type stubCatalog struct {
	createInput *catalog.CreateServiceInput
	priceUpdate *decimal.NullDecimal
}

func (s *stubCatalog) CreateService(_ context.Context, input catalog.CreateServiceInput) (*models.Service, error) {
	s.createInput = &input
	row := &models.Service{ID: uuid.New(), Name: input.Name}
	if input.Price != nil {
		row.Price = decimal.NewNullDecimal(*input.Price)
	}
	return row, nil
}

func (s *stubCatalog) GetService(context.Context, uuid.UUID) (*models.Service, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
}

func (s *stubCatalog) ListServices(context.Context) ([]models.Service, error) {
	return []models.Service{{ID: uuid.New(), Name: "Oil change", Price: decimal.NewNullDecimal(decimal.RequireFromString("49.99"))}}, nil
}

func (s *stubCatalog) UpdateServicePrice(_ context.Context, id uuid.UUID, price decimal.NullDecimal) (*models.Service, error) {
	s.priceUpdate = &price
	return &models.Service{ID: id, Name: "Oil change", Price: price}, nil
}

func (s *stubCatalog) CreateCarModel(_ context.Context, input catalog.CreateCarModelInput) (*models.CarModel, error) {
	return &models.CarModel{ID: uuid.New(), Make: input.Make, Model: input.Model, Year: input.Year, Engine: input.Engine}, nil
}

func (s *stubCatalog) ListCarModels(context.Context) ([]models.CarModel, error) {
	return nil, nil
}

type stubVehicles struct {
	vehicle  *models.Vehicle
	assigned *uuid.UUID
}

func (s *stubVehicles) RegisterVehicle(_ context.Context, input vehicles.RegisterVehicleInput) (*models.Vehicle, error) {
	return &models.Vehicle{ID: uuid.New(), LicensePlate: input.LicensePlate, VIN: input.VIN, ClientID: input.ClientID}, nil
}

func (s *stubVehicles) AssignOwner(_ context.Context, vehicleID uuid.UUID, clientID *uuid.UUID) (*models.Vehicle, error) {
	s.assigned = clientID
	return &models.Vehicle{ID: vehicleID, ClientID: clientID}, nil
}

func (s *stubVehicles) GetVehicle(context.Context, uuid.UUID) (*models.Vehicle, error) {
	if s.vehicle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}
	return s.vehicle, nil
}

func (s *stubVehicles) ListVehicles(context.Context, string, pagination.Params) (pagination.Page[models.Vehicle], error) {
	return pagination.Page[models.Vehicle]{}, nil
}

func (s *stubVehicles) ListClientVehicles(context.Context, uuid.UUID) ([]models.Vehicle, error) {
	return nil, nil
}

type stubOrders struct {
	detail     *orders.OrderDetail
	placeInput *orders.PlaceOrderInput
	getCalls   int
}

func (s *stubOrders) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*models.Order, error) {
	s.placeInput = &input
	return &models.Order{ID: uuid.New(), VehicleID: input.VehicleID, Date: input.Date, DueBack: input.DueBack}, nil
}

func (s *stubOrders) GetOrder(context.Context, uuid.UUID) (*orders.OrderDetail, error) {
	s.getCalls++
	if s.detail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.detail, nil
}

func (s *stubOrders) ListOrders(context.Context, orders.OrderFilters, pagination.Params) (pagination.Page[orders.OrderSummary], error) {
	return pagination.Page[orders.OrderSummary]{}, nil
}

func (s *stubOrders) ListClientOrders(context.Context, uuid.UUID, pagination.Params) (pagination.Page[orders.OrderSummary], error) {
	return pagination.Page[orders.OrderSummary]{}, nil
}

type stubLedger struct {
	entry       *models.Entry
	createInput *ledger.CreateEntryInput
	status      enums.EntryStatus
	statusErr   error
}

func (s *stubLedger) CreateEntry(_ context.Context, input ledger.CreateEntryInput) (*models.Entry, error) {
	s.createInput = &input
	return &models.Entry{ID: uuid.New(), OrderID: input.OrderID, ServiceID: input.ServiceID, Quantity: 1, Status: enums.EntryStatusNew}, nil
}

func (s *stubLedger) UpdateStatus(_ context.Context, entryID uuid.UUID, status enums.EntryStatus) (*models.Entry, error) {
	s.status = status
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &models.Entry{ID: entryID, Status: status}, nil
}

func (s *stubLedger) UpdateEntry(_ context.Context, entryID uuid.UUID, _ ledger.UpdateEntryInput) (*models.Entry, error) {
	return &models.Entry{ID: entryID, Status: enums.EntryStatusNew}, nil
}

func (s *stubLedger) SaveEntry(_ context.Context, entry *models.Entry) (*models.Entry, error) {
	return entry, nil
}

func (s *stubLedger) GetEntry(context.Context, uuid.UUID) (*models.Entry, error) {
	if s.entry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "entry not found")
	}
	return s.entry, nil
}

func (s *stubLedger) ListOrderEntries(context.Context, uuid.UUID) ([]models.Entry, error) {
	return nil, nil
}

type stubReviews struct {
	input *reviews.PostReviewInput
}

func (s *stubReviews) PostReview(_ context.Context, input reviews.PostReviewInput) (*models.Review, error) {
	s.input = &input
	return &models.Review{ID: uuid.New(), OrderID: input.OrderID, ReviewerID: input.ReviewerID, Content: input.Content}, nil
}

func (s *stubReviews) ListReviews(context.Context, uuid.UUID) ([]models.Review, error) {
	return nil, nil
}

type stubDashboard struct{}

func (stubDashboard) Summary(context.Context) (*dashboard.Summary, error) {
	return &dashboard.Summary{
		EntriesByStatus: map[enums.EntryStatus]int64{
			enums.EntryStatusNew:        2,
			enums.EntryStatusProcessing: 0,
			enums.EntryStatusComplete:   1,
			enums.EntryStatusCancelled:  0,
		},
		VehicleCount: 3,
		ServiceCount: 1,
		ServiceNames: []string{"Oil change"},
	}, nil
}
