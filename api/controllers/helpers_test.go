package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/api/middleware"
	"github.com/ecoscan-in/ecoscan-backend/internal/history"
	"github.com/ecoscan-in/ecoscan-backend/internal/recycle"
	"github.com/ecoscan-in/ecoscan-backend/internal/retailers"
	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
	"github.com/ecoscan-in/ecoscan-backend/internal/vision"
	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	"github.com/ecoscan-in/ecoscan-backend/pkg/logger"
	"github.com/ecoscan-in/ecoscan-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(t *testing.T, method, target string, body string, userID uuid.UUID) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

type testVisionGateway struct {
	detectFn func(ctx context.Context, frame string, mode enums.ScanMode) (*vision.Detection, error)
	healthFn func(ctx context.Context) vision.HealthReport
}

func (g *testVisionGateway) Detect(ctx context.Context, frame string, mode enums.ScanMode) (*vision.Detection, error) {
	if g.detectFn != nil {
		return g.detectFn(ctx, frame, mode)
	}
	return nil, nil
}

func (g *testVisionGateway) Health(ctx context.Context) vision.HealthReport {
	if g.healthFn != nil {
		return g.healthFn(ctx)
	}
	return vision.HealthReport{}
}

type testCatalogService struct {
	resolveBarcodeFn   func(ctx context.Context, gtin string, userID uuid.UUID) (*models.Product, error)
	resolveDetectionFn func(ctx context.Context, detection vision.Detection, userID uuid.UUID) (*models.Product, error)
}

func (s *testCatalogService) ResolveBarcode(ctx context.Context, gtin string, userID uuid.UUID) (*models.Product, error) {
	if s.resolveBarcodeFn != nil {
		return s.resolveBarcodeFn(ctx, gtin, userID)
	}
	return nil, nil
}

func (s *testCatalogService) ResolveDetection(ctx context.Context, detection vision.Detection, userID uuid.UUID) (*models.Product, error) {
	if s.resolveDetectionFn != nil {
		return s.resolveDetectionFn(ctx, detection, userID)
	}
	return nil, nil
}

func (s *testCatalogService) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, nil
}

type testCartService struct {
	addScanFn        func(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error)
	listFn           func(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	listBoughtFn     func(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	updateQuantityFn func(ctx context.Context, userID, lineID uuid.UUID, quantity int) error
	removeFn         func(ctx context.Context, userID, lineID uuid.UUID) error
	countFn          func(ctx context.Context, userID uuid.UUID) (int, error)
	depositFn        func(ctx context.Context, userID uuid.UUID, boughtFrom string) (int64, error)
	returnFn         func(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID, retailerID uuid.UUID) (int64, error)
}

func (s *testCartService) AddScan(ctx context.Context, userID, productID uuid.UUID) (*models.CartLine, error) {
	if s.addScanFn != nil {
		return s.addScanFn(ctx, userID, productID)
	}
	return nil, nil
}

func (s *testCartService) List(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

func (s *testCartService) ListBought(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	if s.listBoughtFn != nil {
		return s.listBoughtFn(ctx, userID)
	}
	return nil, nil
}

func (s *testCartService) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	if s.updateQuantityFn != nil {
		return s.updateQuantityFn(ctx, userID, lineID, quantity)
	}
	return nil
}

func (s *testCartService) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, userID, lineID)
	}
	return nil
}

func (s *testCartService) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.countFn != nil {
		return s.countFn(ctx, userID)
	}
	return 0, nil
}

func (s *testCartService) Deposit(ctx context.Context, userID uuid.UUID, boughtFrom string) (int64, error) {
	if s.depositFn != nil {
		return s.depositFn(ctx, userID, boughtFrom)
	}
	return 0, nil
}

func (s *testCartService) Return(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID, retailerID uuid.UUID) (int64, error) {
	if s.returnFn != nil {
		return s.returnFn(ctx, userID, lineIDs, retailerID)
	}
	return 0, nil
}

type testHistoryService struct {
	seriesFn func(ctx context.Context, userID uuid.UUID, days int) ([]history.DailyCount, error)
	listFn   func(ctx context.Context, userID uuid.UUID, params pagination.Params) (history.Page, error)
}

func (s *testHistoryService) ScanSeries(ctx context.Context, userID uuid.UUID, days int) ([]history.DailyCount, error) {
	if s.seriesFn != nil {
		return s.seriesFn(ctx, userID, days)
	}
	return nil, nil
}

func (s *testHistoryService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (history.Page, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID, params)
	}
	return history.Page{}, nil
}

type testStatsService struct {
	rateFn func(ctx context.Context, userID uuid.UUID) (*stats.RecyclingRate, error)
}

func (s *testStatsService) RecyclingRate(ctx context.Context, userID uuid.UUID) (*stats.RecyclingRate, error) {
	if s.rateFn != nil {
		return s.rateFn(ctx, userID)
	}
	return &stats.RecyclingRate{}, nil
}

func (s *testStatsService) WarmCommunityRate(context.Context) (*stats.RecyclingRate, error) {
	return &stats.RecyclingRate{}, nil
}

type testRecycleService struct {
	startFn   func(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (*recycle.Session, error)
	getFn     func(ctx context.Context, userID uuid.UUID) (*recycle.Session, error)
	scanFn    func(ctx context.Context, userID uuid.UUID, code string, location retailers.Location) (*recycle.ScanResult, error)
	confirmFn func(ctx context.Context, userID, lineID uuid.UUID, accept bool) (*recycle.Session, error)
	submitFn  func(ctx context.Context, userID uuid.UUID) (*recycle.Session, error)
	cancelFn  func(ctx context.Context, userID uuid.UUID) error
}

func (s *testRecycleService) Start(ctx context.Context, userID uuid.UUID, lineIDs []uuid.UUID) (*recycle.Session, error) {
	if s.startFn != nil {
		return s.startFn(ctx, userID, lineIDs)
	}
	return &recycle.Session{}, nil
}

func (s *testRecycleService) Get(ctx context.Context, userID uuid.UUID) (*recycle.Session, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return &recycle.Session{}, nil
}

func (s *testRecycleService) Scan(ctx context.Context, userID uuid.UUID, code string, location retailers.Location) (*recycle.ScanResult, error) {
	if s.scanFn != nil {
		return s.scanFn(ctx, userID, code, location)
	}
	return &recycle.ScanResult{}, nil
}

func (s *testRecycleService) ConfirmItem(ctx context.Context, userID, lineID uuid.UUID, accept bool) (*recycle.Session, error) {
	if s.confirmFn != nil {
		return s.confirmFn(ctx, userID, lineID, accept)
	}
	return &recycle.Session{}, nil
}

func (s *testRecycleService) Submit(ctx context.Context, userID uuid.UUID) (*recycle.Session, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, userID)
	}
	return &recycle.Session{}, nil
}

func (s *testRecycleService) Cancel(ctx context.Context, userID uuid.UUID) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, userID)
	}
	return nil
}
