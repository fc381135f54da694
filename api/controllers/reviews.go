package controllers

import (
	"net/http"

	"github.com/arnaszs/servizas/api/middleware"
	"github.com/arnaszs/servizas/api/responses"
	"github.com/arnaszs/servizas/api/validators"
	"github.com/arnaszs/servizas/internal/orders"
	"github.com/arnaszs/servizas/internal/reviews"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
)

func ListReviews(svc reviews.Service, orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || orderSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := authorizeOrder(r, orderSvc, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListReviews(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapViews(items, toReviewView))
	}
}

type postReviewRequest struct {
	Content string `json:"content" validate:"required"`
}

// PostReview appends a review. The reviewer is the calling client, if any.
func PostReview(svc reviews.Service, orderSvc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || orderSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload postReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := authorizeOrder(r, orderSvc, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.PostReview(r.Context(), reviews.PostReviewInput{
			OrderID:    orderID,
			ReviewerID: middleware.ClientIDFromContext(r.Context()),
			Content:    payload.Content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toReviewView(*review))
	}
}
