package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/api/middleware"
	"github.com/arnaszs/servizas/api/responses"
	"github.com/arnaszs/servizas/api/validators"
	"github.com/arnaszs/servizas/internal/vehicles"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
	"github.com/arnaszs/servizas/pkg/pagination"
	"github.com/arnaszs/servizas/pkg/types"
)

// ListVehicles is the staff listing with optional ?q= prefix search.
func ListVehicles(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListVehicles(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pagination.Page[vehicleView]{
			Items:      mapViews(page.Items, toVehicleView),
			NextCursor: page.NextCursor,
		})
	}
}

// ListMyVehicles returns the vehicles owned by the calling client.
func ListMyVehicles(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		clientID := middleware.ClientIDFromContext(r.Context())
		if clientID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "client context missing"))
			return
		}

		items, err := svc.ListClientVehicles(r.Context(), *clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapViews(items, toVehicleView))
	}
}

type registerVehicleRequest struct {
	LicensePlate string  `json:"license_plate" validate:"required,max=17"`
	VIN          string  `json:"vin" validate:"required,max=50"`
	ClientID     *string `json:"client_id,omitempty" validate:"omitempty,uuid"`
	CarModelID   *string `json:"car_model_id,omitempty" validate:"omitempty,uuid"`
}

func RegisterVehicle(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		var payload registerVehicleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.RegisterVehicle(r.Context(), vehicles.RegisterVehicleInput{
			LicensePlate: payload.LicensePlate,
			VIN:          payload.VIN,
			ClientID:     parseOptionalUUID(payload.ClientID),
			CarModelID:   parseOptionalUUID(payload.CarModelID),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toVehicleView(*created))
	}
}

// GetVehicle lets clients read only their own vehicles.
func GetVehicle(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vehicleID, err := validators.ParseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.GetVehicle(r.Context(), vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !canAccess(r, vehicle.ClientID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle belongs to another client"))
			return
		}
		responses.WriteSuccess(w, toVehicleView(*vehicle))
	}
}

// assignOwnerRequest unassigns the vehicle when client_id is null. The field
// must be present.
type assignOwnerRequest struct {
	ClientID types.NullableUUID `json:"client_id"`
}

func AssignVehicleOwner(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		vehicleID, err := validators.ParseUUIDParam(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignOwnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !payload.ClientID.Valid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "client_id is required, use null to unassign"))
			return
		}

		updated, err := svc.AssignOwner(r.Context(), vehicleID, payload.ClientID.Ptr())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toVehicleView(*updated))
	}
}

// parseOptionalUUID expects a value already checked by the uuid validator.
func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil {
		return nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil
	}
	return &id
}

// canAccess reports whether the caller may read a resource owned by owner.
// Staff read everything; clients read only what they own.
func canAccess(r *http.Request, owner *uuid.UUID) bool {
	if middleware.IsStaff(r.Context()) {
		return true
	}
	clientID := middleware.ClientIDFromContext(r.Context())
	return clientID != nil && owner != nil && *clientID == *owner
}
