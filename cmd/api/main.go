package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecoscan-in/ecoscan-backend/api/routes"
	"github.com/ecoscan-in/ecoscan-backend/internal/cart"
	"github.com/ecoscan-in/ecoscan-backend/internal/catalog"
	"github.com/ecoscan-in/ecoscan-backend/internal/history"
	"github.com/ecoscan-in/ecoscan-backend/internal/recycle"
	"github.com/ecoscan-in/ecoscan-backend/internal/retailers"
	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/config"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db"
	"github.com/ecoscan-in/ecoscan-backend/pkg/gs1"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
	"github.com/ecoscan-in/ecoscan-backend/pkg/maps"
	"github.com/ecoscan-in/ecoscan-backend/pkg/metrics"
	"github.com/ecoscan-in/ecoscan-backend/pkg/migrate"
	"github.com/ecoscan-in/ecoscan-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	providers, err := vision.BuildChain(cfg.Vision, cfg.Scanner)
	if err != nil {
		logg.Error(context.Background(), "failed to assemble vision chain", err)
		os.Exit(1)
	}
	visionGateway, err := vision.NewGateway(providers, cfg.Vision.MinConfidence, metrics.NewVisionMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logg.Error(context.Background(), "failed to create vision gateway", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	var catalogService catalog.Service
	if cfg.GS1.AuthToken == "" {
		logg.Warn(context.Background(), "gs1 auth token not set, barcode enrichment disabled")
		catalogService, err = catalog.NewService(catalogRepo, nil)
	} else {
		gs1Client, gs1Err := gs1.NewClient(cfg.GS1.AuthToken, gs1.WithBaseURL(cfg.GS1.BaseURL))
		if gs1Err != nil {
			logg.Error(context.Background(), "failed to create gs1 client", gs1Err)
			os.Exit(1)
		}
		catalogService, err = catalog.NewService(catalogRepo, gs1Client)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	historyRepo := history.NewRepository(dbClient.DB())
	historyService, err := history.NewService(historyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(dbClient, cartRepo, historyRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	retailerRepo := retailers.NewRepository(dbClient.DB())
	var retailerService retailers.Service
	if cfg.GoogleMaps.APIKey == "" {
		logg.Warn(context.Background(), "google maps api key not set, reverse geocoding disabled")
		retailerService, err = retailers.NewService(retailerRepo, nil)
	} else {
		mapsClient, mapsErr := maps.NewClient(cfg.GoogleMaps.APIKey)
		if mapsErr != nil {
			logg.Error(context.Background(), "failed to create maps client", mapsErr)
			os.Exit(1)
		}
		retailerService, err = retailers.NewService(retailerRepo, mapsClient)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create retailer service", err)
		os.Exit(1)
	}

	recycleService, err := recycle.NewService(redisClient, cartRepo, cartService, retailerService, cfg.Recycle.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create recycle service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(cartRepo, redisClient, cfg.Stats.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:             dbClient,
			Redis:          redisClient,
			VisionGateway:  visionGateway,
			CatalogService: catalogService,
			CartService:    cartService,
			HistoryService: historyService,
			StatsService:   statsService,
			RecycleService: recycleService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
