// Package stats computes recycling statistics over a user's cart history,
// with a Redis cache in front of the aggregate queries.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecoscan-in/ecoscan-backend/pkg/enums"
	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
	"github.com/ecoscan-in/ecoscan-backend/pkg/redis"
)

// RecyclingRate summarizes purchases vs returns for one calendar year. Rate
// is the percentage of purchased quantity that came back, rounded to two
// decimal places.
type RecyclingRate struct {
	Year     int             `json:"year"`
	Bought   int             `json:"bought"`
	Returned int             `json:"returned"`
	Rate     decimal.Decimal `json:"rate"`
}

type quantitySummer interface {
	SumQuantitiesByStatus(ctx context.Context, userID uuid.UUID, from, to time.Time, statuses []enums.CartLineStatus) (map[enums.CartLineStatus]int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	StatsKey(name string) string
}

// Service exposes cached recycling statistics.
type Service interface {
	RecyclingRate(ctx context.Context, userID uuid.UUID) (*RecyclingRate, error)
	WarmCommunityRate(ctx context.Context) (*RecyclingRate, error)
}

type service struct {
	summer quantitySummer
	cache  statsCache
	ttl    time.Duration
	now    func() time.Time
}

// NewService builds the stats service.
func NewService(summer quantitySummer, cache statsCache, ttl time.Duration) (Service, error) {
	if summer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity summer is required")
	}
	if cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stats cache is required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cache ttl must be positive")
	}
	return &service{
		summer: summer,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// RecyclingRate returns the caller's current-year rate, computing and caching
// it on a miss.
func (s *service) RecyclingRate(ctx context.Context, userID uuid.UUID) (*RecyclingRate, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	year := s.now().UTC().Year()
	key := s.cache.StatsKey(fmt.Sprintf("recycling_rate:%d:%s", year, userID))
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var rate RecyclingRate
		if err := json.Unmarshal([]byte(cached), &rate); err == nil {
			return &rate, nil
		}
		// Corrupt cache entries fall through to a recompute.
	} else if !errors.Is(err, redis.Nil) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read stats cache")
	}

	rate, err := s.compute(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rate)
	return rate, nil
}

// WarmCommunityRate recomputes the all-users rate and refreshes its cache
// entry unconditionally. Run by the daily cron job.
func (s *service) WarmCommunityRate(ctx context.Context) (*RecyclingRate, error) {
	year := s.now().UTC().Year()
	rate, err := s.compute(ctx, uuid.Nil, year)
	if err != nil {
		return nil, err
	}
	s.store(ctx, s.cache.StatsKey(fmt.Sprintf("recycling_rate:%d:community", year)), rate)
	return rate, nil
}

func (s *service) compute(ctx context.Context, userID uuid.UUID, year int) (*RecyclingRate, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := s.now().UTC()
	sums, err := s.summer.SumQuantitiesByStatus(ctx, userID, from, to,
		[]enums.CartLineStatus{enums.CartLineStatusBought, enums.CartLineStatusReturned})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate cart quantities")
	}

	bought := sums[enums.CartLineStatusBought]
	returned := sums[enums.CartLineStatusReturned]
	return &RecyclingRate{
		Year:     year,
		Bought:   bought,
		Returned: returned,
		Rate:     computeRate(bought, returned),
	}, nil
}

func (s *service) store(ctx context.Context, key string, rate *RecyclingRate) {
	encoded, err := json.Marshal(rate)
	if err != nil {
		return
	}
	// Caching is best effort; a failed write just means the next read recomputes.
	_ = s.cache.Set(ctx, key, encoded, s.ttl)
}

// computeRate divides returned by total purchased quantity. Returned lines no
// longer count as bought, so the denominator is the sum of both statuses.
func computeRate(bought, returned int) decimal.Decimal {
	total := bought + returned
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(returned)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
