package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arnaszs/servizas/pkg/db/models"
	"github.com/arnaszs/servizas/pkg/enums"
)

// OrderFilters narrows order listings. Query matches plate or VIN prefixes,
// car model make prefixes and service name substrings, case-insensitively.
type OrderFilters struct {
	Query    string
	ClientID *uuid.UUID
}

// VehicleSummary is the vehicle slice shown alongside an order.
type VehicleSummary struct {
	ID           uuid.UUID  `json:"id"`
	LicensePlate string     `json:"license_plate"`
	VIN          string     `json:"vin"`
	ClientID     *uuid.UUID `json:"client_id,omitempty"`
}

// OrderSummary is one row of an order listing.
type OrderSummary struct {
	ID        uuid.UUID       `json:"id"`
	Date      *time.Time      `json:"date,omitempty"`
	DueBack   *time.Time      `json:"due_back,omitempty"`
	Price     decimal.Decimal `json:"price"`
	IsOverdue bool            `json:"is_overdue"`
	CreatedAt time.Time       `json:"created_at"`
	Vehicle   VehicleSummary  `json:"vehicle"`
}

// EntryView is an entry as shown inside an order detail.
type EntryView struct {
	ID          uuid.UUID         `json:"id"`
	ServiceID   uuid.UUID         `json:"service_id"`
	ServiceName string            `json:"service_name"`
	Quantity    int               `json:"quantity"`
	Price       decimal.Decimal   `json:"price"`
	Total       decimal.Decimal   `json:"total"`
	Status      enums.EntryStatus `json:"status"`
	StatusColor string            `json:"status_color"`
}

// OrderDetail is the full order view including entries.
type OrderDetail struct {
	OrderSummary
	ClientID *uuid.UUID  `json:"client_id,omitempty"`
	Version  int64       `json:"version"`
	Entries  []EntryView `json:"entries"`
}

func summarize(order models.Order, today time.Time) OrderSummary {
	summary := OrderSummary{
		ID:        order.ID,
		Date:      order.Date,
		DueBack:   order.DueBack,
		Price:     order.Price,
		IsOverdue: order.IsOverdue(today),
		CreatedAt: order.CreatedAt,
	}
	if order.Vehicle != nil {
		summary.Vehicle = VehicleSummary{
			ID:           order.Vehicle.ID,
			LicensePlate: order.Vehicle.LicensePlate,
			VIN:          order.Vehicle.VIN,
			ClientID:     order.Vehicle.ClientID,
		}
	}
	return summary
}

func detail(order models.Order, today time.Time) *OrderDetail {
	out := &OrderDetail{
		OrderSummary: summarize(order, today),
		ClientID:     order.ClientID(),
		Version:      order.Version,
		Entries:      make([]EntryView, 0, len(order.Entries)),
	}
	for _, entry := range order.Entries {
		view := EntryView{
			ID:          entry.ID,
			ServiceID:   entry.ServiceID,
			Quantity:    entry.Quantity,
			Price:       entry.Price,
			Total:       entry.Total,
			Status:      entry.Status,
			StatusColor: entry.StatusColor(),
		}
		if entry.Service != nil {
			view.ServiceName = entry.Service.Name
		}
		out.Entries = append(out.Entries, view)
	}
	return out
}
