package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/arnaszs/servizas/api/responses"
	"github.com/arnaszs/servizas/api/validators"
	"github.com/arnaszs/servizas/internal/catalog"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
	"github.com/arnaszs/servizas/pkg/types"
)

// ListServices returns the catalog ordered by name.
func ListServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		items, err := svc.ListServices(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapViews(items, toServiceView))
	}
}

type createServiceRequest struct {
	Name  string           `json:"name" validate:"required,max=99"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

func CreateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createServiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateService(r.Context(), catalog.CreateServiceInput{
			Name:  payload.Name,
			Price: payload.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toServiceView(*created))
	}
}

// updateServicePriceRequest clears the price when price is null. The field
// must be present.
type updateServicePriceRequest struct {
	Price types.NullableDecimal `json:"price"`
}

// UpdateServicePrice changes the catalog price. Existing entries keep theirs.
func UpdateServicePrice(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateServicePriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !payload.Price.Valid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price is required, use null to clear"))
			return
		}

		updated, err := svc.UpdateServicePrice(r.Context(), serviceID, payload.Price.NullDecimal())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toServiceView(*updated))
	}
}

func ListCarModels(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		items, err := svc.ListCarModels(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapViews(items, toCarModelView))
	}
}

type createCarModelRequest struct {
	Make   string `json:"make" validate:"required,max=50"`
	Model  string `json:"model" validate:"required,max=50"`
	Year   int    `json:"year" validate:"required,gte=1886,lte=2100"`
	Engine string `json:"engine" validate:"required,max=50"`
}

func CreateCarModel(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createCarModelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateCarModel(r.Context(), catalog.CreateCarModelInput{
			Make:   payload.Make,
			Model:  payload.Model,
			Year:   payload.Year,
			Engine: payload.Engine,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toCarModelView(*created))
	}
}
