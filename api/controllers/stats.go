package controllers

import (
	"net/http"

	"github.com/ecoscan-in/ecoscan-backend/api/responses"
	"github.com/ecoscan-in/ecoscan-backend/api/validators"
	"github.com/ecoscan-in/ecoscan-backend/internal/history"
	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
	"github.com/ecoscan-in/ecoscan-backend/pkg/pagination"
)

// StatsScans returns the trailing daily scan counts for the caller.
func StatsScans(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		days, err := validators.ParseQueryInt(r, "days", history.DefaultSeriesDays, 1, 90)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		series, err := svc.ScanSeries(ctx, userID, days)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, series)
	}
}

// StatsRecyclingRate returns the caller's current-year recycling rate.
func StatsRecyclingRate(svc stats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stats service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rate, err := svc.RecyclingRate(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rate)
	}
}

// HistoryList returns the caller's scan history, newest first.
func HistoryList(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "history service unavailable"))
			return
		}

		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, userID, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
