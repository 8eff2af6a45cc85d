package tracker

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountEntry is a deep, point-in-time copy of one account inside a
// snapshot. Later mutation of the live account never alters a captured
// entry.
type AccountEntry struct {
	SnapshotID  string          `json:"snapshotId"`
	AccountID   string          `json:"accountId"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	Currency    Currency        `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	IsLiability bool            `json:"isLiability"`
}

// Snapshot is a dated, immutable capture of a user's accounts together with
// a reference to the exchange rate in effect at capture time. Its aggregate
// metrics are always re-derivable from Entries and the referenced rate; no
// separately cached aggregate is trusted.
type Snapshot struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Date      Date           `json:"date"`
	RateID    string         `json:"rateId"`
	CreatedAt time.Time      `json:"createdAt"`
	Entries   []AccountEntry `json:"entries,omitempty"`
}

// newEntry freezes an account into a snapshot entry.
func newEntry(snapshotID string, a Account) AccountEntry {
	return AccountEntry{
		SnapshotID:  snapshotID,
		AccountID:   a.ID,
		Name:        a.Name,
		Type:        a.Type,
		Currency:    a.Currency,
		Balance:     a.Balance,
		IsLiability: a.IsLiability,
	}
}

// Accounts rebuilds account values from the frozen entries, so that the one
// metrics calculator can run identically over live and historical data.
func (s Snapshot) Accounts() []Account {
	accounts := make([]Account, 0, len(s.Entries))
	for _, e := range s.Entries {
		accounts = append(accounts, Account{
			ID:          e.AccountID,
			UserID:      s.UserID,
			Name:        e.Name,
			Type:        e.Type,
			Currency:    e.Currency,
			Balance:     e.Balance,
			IsLiability: e.IsLiability,
		})
	}
	return accounts
}

// SnapshotMetrics are a snapshot's metrics recomputed from its frozen
// entries and frozen rate. The rate pair rides along so display logic can
// re-convert a historical base-currency figure into whatever currency the
// user currently has selected, using that snapshot's rate, not today's.
type SnapshotMetrics struct {
	Metrics
	USDRate  decimal.Decimal
	GoldRate decimal.Decimal
}

// ComputeMetrics replays the snapshot through the aggregation rules using
// its frozen rate record.
func (s Snapshot) ComputeMetrics(rate ExchangeRate) SnapshotMetrics {
	return SnapshotMetrics{
		Metrics:  CalculateMetrics(s.Accounts(), rate),
		USDRate:  rate.USDRate,
		GoldRate: rate.GoldRate,
	}
}

// HistorySnapshot is one entry of the paginated snapshot history list.
type HistorySnapshot struct {
	Snapshot
	Metrics SnapshotMetrics
}

// SnapshotPage is a page of the newest-first snapshot history.
type SnapshotPage struct {
	Snapshots  []HistorySnapshot
	HasMore    bool
	TotalCount int
}

// SnapshotPoint is one point of a time-ordered metric series for charting.
type SnapshotPoint struct {
	Date    Date
	Metrics SnapshotMetrics
}
