package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rateMaxAge is how long a fetched rate stays authoritative before the next
// GetCurrentRate call reaches out to the external source again.
const rateMaxAge = 24 * time.Hour

// ExchangeRate is an immutable, append-only record of the reference rates at
// a point in time. USDRate is EGP per 1 USD; GoldRate is EGP per gram of
// 21-carat gold. Once a snapshot references a rate record it is never edited
// or deleted, so historical reconstructions stay stable.
type ExchangeRate struct {
	ID        string          `json:"id"`
	USDRate   decimal.Decimal `json:"usdRate"`
	GoldRate  decimal.Decimal `json:"goldRate"`
	Timestamp time.Time       `json:"timestamp"`
}

// Fresh reports whether the record is recent enough, relative to now, to be
// served from cache.
func (r ExchangeRate) Fresh(now time.Time) bool {
	return !r.Timestamp.IsZero() && now.Sub(r.Timestamp) < rateMaxAge
}

// Validate checks that both rates are usable for conversions.
func (r ExchangeRate) Validate() error {
	if !r.USDRate.IsPositive() {
		return fmt.Errorf("%w: usd rate is %s", ErrInvalidRate, r.USDRate)
	}
	if !r.GoldRate.IsPositive() {
		return fmt.Errorf("%w: gold rate is %s", ErrInvalidRate, r.GoldRate)
	}
	return nil
}

// RateFetcher is the external rate source boundary. The core treats it as
// opaque: it may be a live web-grounded query or a stub.
type RateFetcher interface {
	// FetchRates returns the current USD→EGP and Gold(gram)→EGP rates.
	FetchRates(ctx context.Context) (usdRate, goldRate decimal.Decimal, err error)
}

// RateFetcherFunc adapts a function to the RateFetcher interface.
type RateFetcherFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)

func (f RateFetcherFunc) FetchRates(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return f(ctx)
}

// RateSource supplies current and historical exchange rates. Current rates
// are cached in the store for 24 hours; every fresh fetch is persisted as a
// new immutable record.
type RateSource struct {
	store   Store
	fetcher RateFetcher
	now     func() time.Time // test seam
}

// NewRateSource creates a RateSource backed by the given store and fetcher.
func NewRateSource(store Store, fetcher RateFetcher) *RateSource {
	return &RateSource{store: store, fetcher: fetcher, now: time.Now}
}

// GetCurrentRate returns the authoritative current rate. If the latest
// persisted record is younger than 24 hours and forceRefresh is false it is
// returned unchanged, with no external call. Otherwise the external source
// is queried and the result persisted as a new record.
//
// A failed fetch returns ErrRateFetchFailed; the stale record is never
// silently substituted, since that would corrupt subsequent metrics.
func (s *RateSource) GetCurrentRate(ctx context.Context, forceRefresh bool) (ExchangeRate, error) {
	if !forceRefresh {
		latest, err := s.store.LatestRate(ctx)
		if err == nil && latest.Fresh(s.now()) {
			return latest, nil
		}
	}

	if s.fetcher == nil {
		return ExchangeRate{}, fmt.Errorf("%w: no fetcher configured", ErrRateFetchFailed)
	}
	usd, gold, err := s.fetcher.FetchRates(ctx)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("%w: %v", ErrRateFetchFailed, err)
	}
	rate := ExchangeRate{
		ID:        uuid.NewString(),
		USDRate:   usd,
		GoldRate:  gold,
		Timestamp: s.now(),
	}
	if err := rate.Validate(); err != nil {
		return ExchangeRate{}, fmt.Errorf("%w: %v", ErrRateFetchFailed, err)
	}
	if err := s.store.SaveRate(ctx, rate); err != nil {
		return ExchangeRate{}, fmt.Errorf("persisting fetched rate: %w", err)
	}
	log.Printf("fetched rates: 1 USD = %s EGP, 1 g gold = %s EGP", rate.USDRate, rate.GoldRate)
	return rate, nil
}

// RecordManualRate persists a user-provided rate as a new record, making it
// the current rate. Useful when the external source is unreachable.
func (s *RateSource) RecordManualRate(ctx context.Context, usd, gold decimal.Decimal) (ExchangeRate, error) {
	rate := ExchangeRate{
		ID:        uuid.NewString(),
		USDRate:   usd,
		GoldRate:  gold,
		Timestamp: s.now(),
	}
	if err := rate.Validate(); err != nil {
		return ExchangeRate{}, err
	}
	if err := s.store.SaveRate(ctx, rate); err != nil {
		return ExchangeRate{}, fmt.Errorf("persisting manual rate: %w", err)
	}
	return rate, nil
}

// GetRateAsOf returns the rate frozen at the time a specific snapshot was
// captured. It fails with ErrRateNotFound if the referenced record is
// missing, which the immutability invariant should prevent.
func (s *RateSource) GetRateAsOf(ctx context.Context, userID, snapshotID string) (ExchangeRate, error) {
	snap, err := s.store.Snapshot(ctx, userID, snapshotID)
	if err != nil {
		return ExchangeRate{}, err
	}
	rate, err := s.store.Rate(ctx, snap.RateID)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("%w: snapshot %s references rate %s", ErrRateNotFound, snapshotID, snap.RateID)
	}
	return rate, nil
}
