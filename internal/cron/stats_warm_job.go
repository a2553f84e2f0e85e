package cron

import (
	"context"
	"fmt"

	"github.com/ecoscan-in/ecoscan-backend/internal/stats"
)

type rateWarmer interface {
	WarmCommunityRate(ctx context.Context) (*stats.RecyclingRate, error)
}

// StatsWarmJob refreshes the cached community recycling rate once per cycle
// so the stats endpoints stay warm across the daily cache expiry.
type StatsWarmJob struct {
	warmer rateWarmer
}

// NewStatsWarmJob builds the stats warm job.
func NewStatsWarmJob(warmer rateWarmer) (*StatsWarmJob, error) {
	if warmer == nil {
		return nil, fmt.Errorf("rate warmer required")
	}
	return &StatsWarmJob{warmer: warmer}, nil
}

// Name identifies the job in logs and metrics.
func (j *StatsWarmJob) Name() string { return "stats_warm" }

// Run recomputes and caches the community recycling rate.
func (j *StatsWarmJob) Run(ctx context.Context) error {
	if _, err := j.warmer.WarmCommunityRate(ctx); err != nil {
		return fmt.Errorf("warm community recycling rate: %w", err)
	}
	return nil
}
