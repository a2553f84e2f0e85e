package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/api/responses"
	"github.com/ecoscan-in/ecoscan-backend/api/validators"
	"github.com/ecoscan-in/ecoscan-backend/internal/recycle"
	"github.com/ecoscan-in/ecoscan-backend/internal/retailers"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
)

type startSessionPayload struct {
	LineIDs []uuid.UUID `json:"line_ids" validate:"required,min=1"`
}

type recycleScanPayload struct {
	Code      string  `json:"code" validate:"required"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
}

type confirmItemPayload struct {
	LineID uuid.UUID `json:"line_id" validate:"required"`
	Accept *bool     `json:"accept" validate:"required"`
}

// RecycleStart opens a session over the caller's chosen bought lines.
func RecycleStart(svc recycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recycle service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload startSessionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.Start(ctx, userID, payload.LineIDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// RecycleGet returns the session in progress, or an idle one.
func RecycleGet(svc recycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recycle service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// RecycleScan routes a decoded barcode or QR into the session.
func RecycleScan(svc recycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recycle service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload recycleScanPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Scan(ctx, userID, payload.Code, retailers.Location{
			Latitude:  payload.Latitude,
			Longitude: payload.Longitude,
			Accuracy:  payload.Accuracy,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RecycleConfirmItem resolves the pending add-to-bag prompt.
func RecycleConfirmItem(svc recycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recycle service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload confirmItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.ConfirmItem(ctx, userID, payload.LineID, *payload.Accept)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// RecycleSubmit executes the return mutation for the bagged lines.
func RecycleSubmit(svc recycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recycle service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := svc.Submit(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// RecycleCancel abandons the session in progress.
func RecycleCancel(svc recycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "recycle service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Cancel(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"canceled": true})
	}
}
