// Package history serves the scan event feed and the daily scan counts
// behind the home screen chart.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan-in/ecoscan-backend/pkg/db/models"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/pagination"
)

// DefaultSeriesDays is the window for the daily scan chart, today included.
const DefaultSeriesDays = 7

// DailyCount is one zero-filled day of the scan series.
type DailyCount struct {
	Date    string `json:"date"`
	Scanned int    `json:"scanned"`
}

// Entry is one scan event with its product summary.
type Entry struct {
	ID        uuid.UUID       `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Product   *models.Product `json:"product,omitempty"`
}

// Page is a cursor-paginated slice of the scan feed.
type Page struct {
	Items      []Entry `json:"items"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// Service exposes scan history reads.
type Service interface {
	ScanSeries(ctx context.Context, userID uuid.UUID, days int) ([]DailyCount, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the history service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "history repo is required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// ScanSeries returns per-day scan counts for the trailing window in UTC,
// zero-filling days without scans.
func (s *service) ScanSeries(ctx context.Context, userID uuid.UUID, days int) ([]DailyCount, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if days <= 0 {
		days = DefaultSeriesDays
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := today.AddDate(0, 0, -(days - 1))
	windowEnd := today.AddDate(0, 0, 1)

	timestamps, err := s.repo.Timestamps(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load scan timestamps")
	}

	counts := make(map[string]int, days)
	order := make([]string, 0, days)
	for day := windowStart; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		counts[key] = 0
		order = append(order, key)
	}
	for _, ts := range timestamps {
		key := ts.UTC().Format("2006-01-02")
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}

	series := make([]DailyCount, 0, len(order))
	for _, key := range order {
		series = append(series, DailyCount{Date: key, Scanned: counts[key]})
	}
	return series, nil
}

// List returns a page of the user's scan feed.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (Page, error) {
	if userID == uuid.Nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	events, nextCursor, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list scan history")
	}

	items := make([]Entry, 0, len(events))
	for _, event := range events {
		items = append(items, Entry{
			ID:        event.ID,
			CreatedAt: event.CreatedAt,
			Product:   event.Product,
		})
	}
	return Page{Items: items, NextCursor: nextCursor}, nil
}
