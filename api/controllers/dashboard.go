package controllers

import (
	"net/http"

	"github.com/arnaszs/servizas/api/responses"
	"github.com/arnaszs/servizas/internal/dashboard"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
)

func Dashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
