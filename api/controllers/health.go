package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/ecoscan-in/ecoscan-backend/api/responses"
	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/config"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EcoScan-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the database and Redis round trips before reporting
// ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-EcoScan-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

type visionHealthResponse struct {
	Status        string                  `json:"status"`
	HasAPIKey     bool                    `json:"hasApiKey"`
	AvailableAPIs []string                `json:"availableApis"`
	Providers     []vision.ProviderHealth `json:"providers"`
}

// HealthVision probes the detection provider chain.
func HealthVision(gateway vision.Gateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vision gateway unavailable"))
			return
		}

		report := gateway.Health(r.Context())
		available := make([]string, 0, len(report.Providers))
		for _, p := range report.Providers {
			if p.Available {
				available = append(available, p.Name)
			}
		}

		responses.WriteSuccess(w, visionHealthResponse{
			Status:        report.Status,
			HasAPIKey:     report.HasPrimary,
			AvailableAPIs: available,
			Providers:     report.Providers,
		})
	}
}
