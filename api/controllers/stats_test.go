package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecoscan-in/ecoscan-backend/internal/history"
	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
	"github.com/ecoscan-in/ecoscan-backend/pkg/pagination"
)

func TestStatsScans(t *testing.T) {
	var gotDays int
	svc := &testHistoryService{
		seriesFn: func(_ context.Context, _ uuid.UUID, days int) ([]history.DailyCount, error) {
			gotDays = days
			return []history.DailyCount{
				{Date: "2026-08-28", Scanned: 3},
				{Date: "2026-08-29", Scanned: 1},
			}, nil
		},
	}

	req := authedRequest(t, http.MethodGet, "/api/v1/stats/scans?days=14", "", uuid.New())
	resp := httptest.NewRecorder()
	StatsScans(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotDays != 14 {
		t.Fatalf("expected days=14, got %d", gotDays)
	}
	var envelope struct {
		Data []history.DailyCount `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].Scanned != 3 {
		t.Fatalf("unexpected series %+v", envelope.Data)
	}
}

func TestStatsScansRejectsOutOfRangeDays(t *testing.T) {
	req := authedRequest(t, http.MethodGet, "/api/v1/stats/scans?days=365", "", uuid.New())
	resp := httptest.NewRecorder()
	StatsScans(&testHistoryService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStatsRecyclingRate(t *testing.T) {
	userID := uuid.New()
	svc := &testStatsService{
		rateFn: func(_ context.Context, uid uuid.UUID) (*stats.RecyclingRate, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return &stats.RecyclingRate{
				Year:     time.Now().UTC().Year(),
				Bought:   4,
				Returned: 1,
				Rate:     decimal.RequireFromString("20"),
			}, nil
		},
	}

	req := authedRequest(t, http.MethodGet, "/api/v1/stats/recycling-rate", "", userID)
	resp := httptest.NewRecorder()
	StatsRecyclingRate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data stats.RecyclingRate `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Rate.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected rate %s", envelope.Data.Rate)
	}
}

func TestStatsRecyclingRateRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/recycling-rate", nil)
	resp := httptest.NewRecorder()
	StatsRecyclingRate(&testStatsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestHistoryListForwardsCursor(t *testing.T) {
	var gotParams pagination.Params
	svc := &testHistoryService{
		listFn: func(_ context.Context, _ uuid.UUID, params pagination.Params) (history.Page, error) {
			gotParams = params
			return history.Page{NextCursor: "abc"}, nil
		},
	}

	req := authedRequest(t, http.MethodGet, "/api/v1/history?cursor=xyz&limit=10", "", uuid.New())
	resp := httptest.NewRecorder()
	HistoryList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotParams.Cursor != "xyz" || gotParams.Limit != 10 {
		t.Fatalf("unexpected params %+v", gotParams)
	}
}
