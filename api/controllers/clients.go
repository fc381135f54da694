package controllers

import (
	"net/http"

	"github.com/arnaszs/servizas/api/responses"
	"github.com/arnaszs/servizas/api/validators"
	"github.com/arnaszs/servizas/internal/clients"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
)

type createClientRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=200"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

func CreateClient(svc clients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client service unavailable"))
			return
		}

		var payload createClientRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateClient(r.Context(), clients.CreateClientInput{
			DisplayName: payload.DisplayName,
			Email:       payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toClientView(*created))
	}
}
