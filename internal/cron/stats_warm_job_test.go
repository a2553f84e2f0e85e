package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
)

type stubWarmer struct {
	calls int
	err   error
}

func (s *stubWarmer) WarmCommunityRate(context.Context) (*stats.RecyclingRate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &stats.RecyclingRate{}, nil
}

func TestStatsWarmJobRequiresWarmer(t *testing.T) {
	if _, err := NewStatsWarmJob(nil); err == nil {
		t.Fatalf("expected error for nil warmer")
	}
}

func TestStatsWarmJobRun(t *testing.T) {
	warmer := &stubWarmer{}
	job, err := NewStatsWarmJob(warmer)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if got := job.Name(); got != "stats_warm" {
		t.Fatalf("unexpected job name %q", got)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if warmer.calls != 1 {
		t.Fatalf("expected 1 warm call, got %d", warmer.calls)
	}
}

func TestStatsWarmJobPropagatesError(t *testing.T) {
	warmer := &stubWarmer{err: errors.New("redis down")}
	job, err := NewStatsWarmJob(warmer)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
