package tracker

import "context"

// TransactionFilter narrows transaction list queries. Zero-value fields are
// ignored.
type TransactionFilter struct {
	AccountID string
	Type      TransactionType
	From, To  Date // inclusive bounds on the transaction date
}

// Matches reports whether a transaction passes the filter.
func (f TransactionFilter) Matches(tx Transaction) bool {
	if f.AccountID != "" && tx.AccountID != f.AccountID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	return true
}

// Store is the persistence boundary. Implementations must make each single
// method call atomic: the multi-row writes (a transaction plus its balance
// effects, a transfer's four rows, a snapshot plus its entries) either fully
// land or leave no trace. No intermediate state is ever visible to a
// concurrent reader.
//
// Lookups scoped by userID return ErrAccountNotFound, ErrTransactionNotFound
// or ErrSnapshotNotFound when the record is missing or owned by another
// user; ErrRateNotFound for missing rate records.
type Store interface {
	// Accounts.
	CreateAccount(ctx context.Context, a Account) error
	Account(ctx context.Context, userID, id string) (Account, error)
	Accounts(ctx context.Context, userID string) ([]Account, error)
	UpdateAccount(ctx context.Context, a Account) error
	// DeleteAccount removes the account and all of its transactions in one
	// unit.
	DeleteAccount(ctx context.Context, userID, id string) error

	// Transactions. The trailing accounts carry the balance effects that
	// must land in the same atomic unit as the transaction write.
	SaveTransaction(ctx context.Context, tx Transaction, accounts ...Account) error
	Transaction(ctx context.Context, userID, id string) (Transaction, error)
	Transactions(ctx context.Context, userID string, f TransactionFilter) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, tx Transaction, accounts ...Account) error
	DeleteTransaction(ctx context.Context, userID, id string, accounts ...Account) error
	// SaveTransfer persists both legs of a transfer and both adjusted
	// accounts as one unit.
	SaveTransfer(ctx context.Context, withdrawal, deposit Transaction, source, destination Account) error

	// Exchange rates, append-only.
	SaveRate(ctx context.Context, r ExchangeRate) error
	LatestRate(ctx context.Context) (ExchangeRate, error)
	Rate(ctx context.Context, id string) (ExchangeRate, error)
	// RatesByIDs batch-fetches rate records; missing ids are simply absent
	// from the result.
	RatesByIDs(ctx context.Context, ids []string) (map[string]ExchangeRate, error)

	// Snapshots. SaveSnapshot persists the snapshot row and all its entries
	// atomically; a snapshot with partial entries is a data-integrity
	// failure.
	SaveSnapshot(ctx context.Context, s Snapshot) error
	Snapshot(ctx context.Context, userID, id string) (Snapshot, error)
	// Snapshots returns headers (no entries) newest-first.
	Snapshots(ctx context.Context, userID string, offset, limit int) ([]Snapshot, error)
	CountSnapshots(ctx context.Context, userID string) (int, error)
	// SnapshotsInRange returns headers date-ordered oldest-first, bounds
	// inclusive.
	SnapshotsInRange(ctx context.Context, userID string, from, to Date) ([]Snapshot, error)
	// LatestSnapshotBefore returns the newest snapshot dated on or before
	// the given date, or ErrSnapshotNotFound.
	LatestSnapshotBefore(ctx context.Context, userID string, on Date) (Snapshot, error)
	// EntriesBySnapshot batch-fetches frozen entries grouped by snapshot id.
	EntriesBySnapshot(ctx context.Context, snapshotIDs []string) (map[string][]AccountEntry, error)
	// DeleteSnapshotsOn removes a user's snapshots (and their entries) dated
	// exactly on the given day. Used only by capture with replaceExisting.
	DeleteSnapshotsOn(ctx context.Context, userID string, on Date) error
}
