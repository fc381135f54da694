package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
)

type serviceView struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	CreatedAt time.Time        `json:"created_at"`
}

func toServiceView(s models.Service) serviceView {
	view := serviceView{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
	if s.Price.Valid {
		price := s.Price.Decimal
		view.Price = &price
	}
	return view
}

type carModelView struct {
	ID     uuid.UUID `json:"id"`
	Make   string    `json:"make"`
	Model  string    `json:"model"`
	Year   int       `json:"year"`
	Engine string    `json:"engine"`
}

func toCarModelView(m models.CarModel) carModelView {
	return carModelView{ID: m.ID, Make: m.Make, Model: m.Model, Year: m.Year, Engine: m.Engine}
}

type clientView struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       *string   `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toClientView(c models.Client) clientView {
	return clientView{ID: c.ID, DisplayName: c.DisplayName, Email: c.Email, CreatedAt: c.CreatedAt}
}

type vehicleView struct {
	ID           uuid.UUID     `json:"id"`
	LicensePlate string        `json:"license_plate"`
	VIN          string        `json:"vin"`
	ClientID     *uuid.UUID    `json:"client_id,omitempty"`
	CarModel     *carModelView `json:"car_model,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

func toVehicleView(v models.Vehicle) vehicleView {
	view := vehicleView{
		ID:           v.ID,
		LicensePlate: v.LicensePlate,
		VIN:          v.VIN,
		ClientID:     v.ClientID,
		CreatedAt:    v.CreatedAt,
	}
	if v.CarModel != nil {
		model := toCarModelView(*v.CarModel)
		view.CarModel = &model
	}
	return view
}

type orderView struct {
	ID        uuid.UUID       `json:"id"`
	VehicleID uuid.UUID       `json:"vehicle_id"`
	Date      *time.Time      `json:"date,omitempty"`
	DueBack   *time.Time      `json:"due_back,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

func toOrderView(o models.Order) orderView {
	return orderView{
		ID:        o.ID,
		VehicleID: o.VehicleID,
		Date:      o.Date,
		DueBack:   o.DueBack,
		Price:     o.Price,
		Version:   o.Version,
		CreatedAt: o.CreatedAt,
	}
}

type entryView struct {
	ID          uuid.UUID         `json:"id"`
	OrderID     uuid.UUID         `json:"order_id"`
	ServiceID   uuid.UUID         `json:"service_id"`
	ServiceName string            `json:"service_name,omitempty"`
	Quantity    int               `json:"quantity"`
	Price       decimal.Decimal   `json:"price"`
	Total       decimal.Decimal   `json:"total"`
	Status      enums.EntryStatus `json:"status"`
	StatusColor string            `json:"status_color"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toEntryView(e models.Entry) entryView {
	view := entryView{
		ID:          e.ID,
		OrderID:     e.OrderID,
		ServiceID:   e.ServiceID,
		Quantity:    e.Quantity,
		Price:       e.Price,
		Total:       e.Total,
		Status:      e.Status,
		StatusColor: e.StatusColor(),
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Service != nil {
		view.ServiceName = e.Service.Name
	}
	return view
}

type reviewView struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty"`
	ReviewedAt time.Time  `json:"reviewed_at"`
	Content    string     `json:"content"`
}

func toReviewView(r models.Review) reviewView {
	return reviewView{
		ID:         r.ID,
		OrderID:    r.OrderID,
		ReviewerID: r.ReviewerID,
		ReviewedAt: r.ReviewedAt,
		Content:    r.Content,
	}
}

func mapViews[T any, V any](items []T, fn func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
