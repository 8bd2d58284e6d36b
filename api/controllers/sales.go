package controllers

import (
	"net/http"

	"github.com/hoangdh1/eCommerce/api/responses"
	"github.com/hoangdh1/eCommerce/api/validators"
	"github.com/hoangdh1/eCommerce/internal/promotions"
	"github.com/hoangdh1/eCommerce/pkg/logger"
)

type scheduleSaleRequest struct {
	StartAtMs int64 `json:"start_at_ms" validate:"required"`
	EndAtMs   int64 `json:"end_at_ms" validate:"required"`
}

// AdminScheduleSale answers 202 once both sale jobs are queued; the price
// change itself happens later in the worker.
func AdminScheduleSale(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload scheduleSaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.ScheduleSale(r.Context(), promotions.ScheduleSaleInput{
			ProductID: id,
			StartAtMs: payload.StartAtMs,
			EndAtMs:   payload.EndAtMs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, schedule)
	}
}

func AdminCancelSale(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		schedule, err := svc.CancelSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, schedule)
	}
}
