package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecoscan-in/ecoscan-backend/api/controllers"
	"github.com/ecoscan-in/ecoscan-backend/api/middleware"
	"github.com/ecoscan-in/ecoscan-backend/internal/cart"
	"github.com/ecoscan-in/ecoscan-backend/internal/catalog"
	"github.com/ecoscan-in/ecoscan-backend/internal/history"
	"github.com/ecoscan-in/ecoscan-backend/internal/recycle"
	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/config"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
	"github.com/ecoscan-in/ecoscan-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	DB             controllers.Pinger
	Redis          *redis.Client
	VisionGateway  vision.Gateway
	CatalogService catalog.Service
	CartService    cart.Service
	HistoryService history.Service
	StatsService   stats.Service
	RecycleService recycle.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
		r.Get("/vision", controllers.HealthVision(deps.VisionGateway, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/scan", func(r chi.Router) {
			r.Post("/frame", controllers.ScanFrame(deps.VisionGateway, logg))
			r.Post("/barcode", controllers.ScanBarcode(deps.CatalogService, deps.CartService, logg))
			r.Post("/detection", controllers.ScanDetection(deps.CatalogService, deps.CartService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(deps.CartService, logg))
			r.Get("/bought", controllers.CartBought(deps.CartService, logg))
			r.Get("/count", controllers.CartCount(deps.CartService, logg))
			r.Post("/deposit", controllers.CartDeposit(deps.CartService, logg))
			r.Patch("/{lineId}", controllers.CartUpdateQuantity(deps.CartService, logg))
			r.Delete("/{lineId}", controllers.CartRemove(deps.CartService, logg))
		})

		r.Route("/recycle", func(r chi.Router) {
			r.Post("/session", controllers.RecycleStart(deps.RecycleService, logg))
			r.Get("/session", controllers.RecycleGet(deps.RecycleService, logg))
			r.Delete("/session", controllers.RecycleCancel(deps.RecycleService, logg))
			r.Post("/scan", controllers.RecycleScan(deps.RecycleService, logg))
			r.Post("/confirm-item", controllers.RecycleConfirmItem(deps.RecycleService, logg))
			r.Post("/submit", controllers.RecycleSubmit(deps.RecycleService, logg))
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/scans", controllers.StatsScans(deps.HistoryService, logg))
			r.Get("/recycling-rate", controllers.StatsRecyclingRate(deps.StatsService, logg))
		})

		r.Get("/history", controllers.HistoryList(deps.HistoryService, logg))
	})

	return r
}
