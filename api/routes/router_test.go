package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/internal/history"
	"github.com/ecoscan-in/ecoscan-backend/internal/recycle"
	"github.com/ecoscan-in/ecoscan-backend/internal/retailers"
	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	pkgAuth "github.com/ecoscan-in/ecoscan-backend/pkg/auth"
	"github.com/ecoscan-in/ecoscan-backend/pkg/config"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
	"github.com/ecoscan-in/ecoscan-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubGateway struct{}

func (stubGateway) Detect(context.Context, string, enums.ScanMode) (*vision.Detection, error) {
	return &vision.Detection{}, nil
}

func (stubGateway) Health(context.Context) vision.HealthReport {
	return vision.HealthReport{Status: "ok"}
}

type stubCatalogService struct{}

func (stubCatalogService) ResolveBarcode(context.Context, string, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) ResolveDetection(context.Context, vision.Detection, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return &models.Product{}, nil
}

type stubCartService struct{}

func (stubCartService) AddScan(context.Context, uuid.UUID, uuid.UUID) (*models.CartLine, error) {
	return &models.CartLine{}, nil
}

func (stubCartService) List(context.Context, uuid.UUID) ([]models.CartLine, error) {
	return nil, nil
}

func (stubCartService) ListBought(context.Context, uuid.UUID) ([]models.CartLine, error) {
	return nil, nil
}

func (stubCartService) UpdateQuantity(context.Context, uuid.UUID, uuid.UUID, int) error {
	return nil
}

func (stubCartService) Remove(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubCartService) Count(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

func (stubCartService) Deposit(context.Context, uuid.UUID, string) (int64, error) {
	return 0, nil
}

func (stubCartService) Return(context.Context, uuid.UUID, []uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}

type stubHistoryService struct{}

func (stubHistoryService) ScanSeries(context.Context, uuid.UUID, int) ([]history.DailyCount, error) {
	return nil, nil
}

func (stubHistoryService) List(context.Context, uuid.UUID, pagination.Params) (history.Page, error) {
	return history.Page{}, nil
}

type stubStatsService struct{}

func (stubStatsService) RecyclingRate(context.Context, uuid.UUID) (*stats.RecyclingRate, error) {
	return &stats.RecyclingRate{}, nil
}

func (stubStatsService) WarmCommunityRate(context.Context) (*stats.RecyclingRate, error) {
	return &stats.RecyclingRate{}, nil
}

type stubRecycleService struct{}

func (stubRecycleService) Start(context.Context, uuid.UUID, []uuid.UUID) (*recycle.Session, error) {
	return &recycle.Session{}, nil
}

func (stubRecycleService) Get(context.Context, uuid.UUID) (*recycle.Session, error) {
	return &recycle.Session{State: enums.RecycleStateIdle}, nil
}

func (stubRecycleService) Scan(context.Context, uuid.UUID, string, retailers.Location) (*recycle.ScanResult, error) {
	return &recycle.ScanResult{}, nil
}

func (stubRecycleService) ConfirmItem(context.Context, uuid.UUID, uuid.UUID, bool) (*recycle.Session, error) {
	return &recycle.Session{}, nil
}

func (stubRecycleService) Submit(context.Context, uuid.UUID) (*recycle.Session, error) {
	return &recycle.Session{}, nil
}

func (stubRecycleService) Cancel(context.Context, uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, Deps{
		DB:             stubPinger{},
		VisionGateway:  stubGateway{},
		CatalogService: stubCatalogService{},
		CartService:    stubCartService{},
		HistoryService: stubHistoryService{},
		StatsService:   stubStatsService{},
		RecycleService: stubRecycleService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "user@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health live got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, target := range []string{
		"/api/v1/cart",
		"/api/v1/recycle/session",
		"/api/v1/stats/recycling-rate",
		"/api/v1/history",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token got %d", target, resp.Code)
		}
	}
}

func TestAPIGroupAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	for _, target := range []string{
		"/api/v1/cart/count",
		"/api/v1/recycle/session",
		"/api/v1/stats/scans",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", target, resp.Code)
		}
	}
}

func TestVisionHealthIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/vision", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for vision health got %d", resp.Code)
	}
}
