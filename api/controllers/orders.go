package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/api/middleware"
	"github.com/arnaszs/servizas/api/responses"
	"github.com/arnaszs/servizas/api/validators"
	"github.com/arnaszs/servizas/internal/orders"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
)

type placeOrderRequest struct {
	VehicleID string  `json:"vehicle_id" validate:"required,uuid"`
	Date      *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueBack   *string `json:"due_back,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PlaceOrder opens an order. Clients may only open orders for their own
// vehicles.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicleID, err := uuid.Parse(payload.VehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle id"))
			return
		}
		date, err := parseDate(payload.Date, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dueBack, err := parseDate(payload.DueBack, "due_back")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.PlaceOrderInput{
			VehicleID: vehicleID,
			Date:      date,
			DueBack:   dueBack,
		}
		if !middleware.IsStaff(r.Context()) {
			input.ActorClientID = middleware.ClientIDFromContext(r.Context())
			if input.ActorClientID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "client context missing"))
				return
			}
		}

		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderView(*order))
	}
}

// ListOrders is the staff listing with optional ?q= search.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOrders(r.Context(), orders.OrderFilters{
			Query: strings.TrimSpace(r.URL.Query().Get("q")),
		}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		if clientID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "client context missing"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListClientOrders(r.Context(), *clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !canAccess(r, detail.ClientID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another client"))
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// authorizeOrder rejects clients that do not own the order's vehicle. Staff
// pass without a lookup.
func authorizeOrder(r *http.Request, svc orders.Service, orderID uuid.UUID) error {
	if middleware.IsStaff(r.Context()) {
		return nil
	}
	detail, err := svc.GetOrder(r.Context(), orderID)
	if err != nil {
		return err
	}
	if !canAccess(r, detail.ClientID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another client")
	}
	return nil
}

func parseDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date").WithDetails(map[string]any{"field": field})
	}
	return &parsed, nil
}
