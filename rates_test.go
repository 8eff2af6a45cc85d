package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type countingFetcher struct {
	calls int
	usd   decimal.Decimal
	gold  decimal.Decimal
	err   error
}

func (f *countingFetcher) FetchRates(context.Context) (decimal.Decimal, decimal.Decimal, error) {
	f.calls++
	return f.usd, f.gold, f.err
}

func TestGetCurrentRate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	newSource := func(f *countingFetcher) (*RateSource, *MemStore) {
		store := NewMemStore()
		s := NewRateSource(store, f)
		s.now = func() time.Time { return now }
		return s, store
	}

	t.Run("fetches and persists when empty", func(t *testing.T) {
		fetcher := &countingFetcher{usd: decimal.NewFromInt(50), gold: decimal.NewFromInt(4000)}
		s, store := newSource(fetcher)

		rate, err := s.GetCurrentRate(ctx, false)
		if err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		if fetcher.calls != 1 {
			t.Errorf("fetcher calls = %d, want 1", fetcher.calls)
		}
		if rate.ID == "" {
			t.Error("rate has no id")
		}

		saved, err := store.LatestRate(ctx)
		if err != nil {
			t.Fatalf("LatestRate() error = %v", err)
		}
		if saved.ID != rate.ID {
			t.Errorf("persisted rate id = %q, want %q", saved.ID, rate.ID)
		}
	})

	t.Run("serves fresh cache without fetching", func(t *testing.T) {
		fetcher := &countingFetcher{usd: decimal.NewFromInt(50), gold: decimal.NewFromInt(4000)}
		s, _ := newSource(fetcher)

		first, err := s.GetCurrentRate(ctx, false)
		if err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		second, err := s.GetCurrentRate(ctx, false)
		if err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		if fetcher.calls != 1 {
			t.Errorf("fetcher calls = %d, want 1", fetcher.calls)
		}
		if second.ID != first.ID {
			t.Errorf("second rate id = %q, want cached %q", second.ID, first.ID)
		}
	})

	t.Run("refetches once cache expires", func(t *testing.T) {
		fetcher := &countingFetcher{usd: decimal.NewFromInt(50), gold: decimal.NewFromInt(4000)}
		s, _ := newSource(fetcher)

		if _, err := s.GetCurrentRate(ctx, false); err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		s.now = func() time.Time { return now.Add(25 * time.Hour) }
		if _, err := s.GetCurrentRate(ctx, false); err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		if fetcher.calls != 2 {
			t.Errorf("fetcher calls = %d, want 2", fetcher.calls)
		}
	})

	t.Run("force refresh skips cache", func(t *testing.T) {
		fetcher := &countingFetcher{usd: decimal.NewFromInt(50), gold: decimal.NewFromInt(4000)}
		s, _ := newSource(fetcher)

		if _, err := s.GetCurrentRate(ctx, false); err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		if _, err := s.GetCurrentRate(ctx, true); err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		if fetcher.calls != 2 {
			t.Errorf("fetcher calls = %d, want 2", fetcher.calls)
		}
	})

	t.Run("fetch failure is not papered over with stale data", func(t *testing.T) {
		fetcher := &countingFetcher{usd: decimal.NewFromInt(50), gold: decimal.NewFromInt(4000)}
		s, _ := newSource(fetcher)

		if _, err := s.GetCurrentRate(ctx, false); err != nil {
			t.Fatalf("GetCurrentRate() error = %v", err)
		}
		fetcher.err = errors.New("network down")
		s.now = func() time.Time { return now.Add(25 * time.Hour) }

		_, err := s.GetCurrentRate(ctx, false)
		if !errors.Is(err, ErrRateFetchFailed) {
			t.Errorf("GetCurrentRate() error = %v, want ErrRateFetchFailed", err)
		}
	})

	t.Run("invalid fetched rate is rejected", func(t *testing.T) {
		fetcher := &countingFetcher{usd: decimal.Zero, gold: decimal.NewFromInt(4000)}
		s, store := newSource(fetcher)

		_, err := s.GetCurrentRate(ctx, false)
		if !errors.Is(err, ErrRateFetchFailed) {
			t.Errorf("GetCurrentRate() error = %v, want ErrRateFetchFailed", err)
		}
		if _, err := store.LatestRate(ctx); !errors.Is(err, ErrRateNotFound) {
			t.Errorf("invalid rate was persisted: %v", err)
		}
	})
}

func TestGetRateAsOf(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	s := NewRateSource(store, nil)

	rate := testRate(48, 3900)
	if err := store.SaveRate(ctx, rate); err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{ID: "snap-1", UserID: "u1", Date: MustParseDate("2026-08-01"), RateID: rate.ID}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRateAsOf(ctx, "u1", "snap-1")
	if err != nil {
		t.Fatalf("GetRateAsOf() error = %v", err)
	}
	if got.ID != rate.ID {
		t.Errorf("GetRateAsOf() id = %q, want %q", got.ID, rate.ID)
	}

	if _, err := s.GetRateAsOf(ctx, "u1", "missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetRateAsOf(missing) error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestParseRateAnswer(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		wantErr bool
		usd     string
	}{
		{"bare json", `{"usdRate": 50.5, "goldRate": 4100}`, false, "50.5"},
		{"fenced json", "```json\n{\"usdRate\": 49, \"goldRate\": 4000}\n```", false, "49"},
		{"prose around", `Here you go: {"usdRate": 48.2, "goldRate": 3950} as requested.`, false, "48.2"},
		{"no json", "I could not find the rates.", true, ""},
		{"negative rate", `{"usdRate": -1, "goldRate": 4000}`, true, ""},
		{"missing field", `{"usdRate": 50}`, true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			usd, gold, err := parseRateAnswer(tc.answer)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseRateAnswer() = %s/%s, want error", usd, gold)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRateAnswer() error = %v", err)
			}
			if got := usd.String(); got != tc.usd {
				t.Errorf("usd = %s, want %s", got, tc.usd)
			}
		})
	}
}
