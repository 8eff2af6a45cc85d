package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Store. It is safe for
// concurrent use; every method holds the store lock for its whole duration,
// which makes each call trivially atomic.
//
// It backs the tests and, wrapped by FileStore, the default CLI backend.
type MemStore struct {
	mu           sync.Mutex
	accounts     map[string]Account
	transactions map[string]Transaction
	rates        []ExchangeRate // append-only, chronological
	snapshots    map[string]Snapshot
	entries      map[string][]AccountEntry // by snapshot id
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		accounts:     make(map[string]Account),
		transactions: make(map[string]Transaction),
		snapshots:    make(map[string]Snapshot),
		entries:      make(map[string][]AccountEntry),
	}
}

var _ Store = (*MemStore)(nil)

// --- accounts ---

func (m *MemStore) CreateAccount(_ context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.ID]; exists {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *MemStore) Account(_ context.Context, userID, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account(userID, id)
}

// account is the lock-held lookup.
func (m *MemStore) account(userID, id string) (Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return a, nil
}

func (m *MemStore) Accounts(_ context.Context, userID string) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) UpdateAccount(_ context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateAccount(a)
}

func (m *MemStore) updateAccount(a Account) error {
	existing, ok := m.accounts[a.ID]
	if !ok || existing.UserID != a.UserID {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, a.ID)
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *MemStore) DeleteAccount(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.account(userID, id); err != nil {
		return err
	}
	delete(m.accounts, id)
	for txID, tx := range m.transactions {
		if tx.AccountID == id {
			delete(m.transactions, txID)
		}
	}
	return nil
}

// --- transactions ---

func (m *MemStore) SaveTransaction(_ context.Context, tx Transaction, accounts ...Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range accounts {
		if err := m.updateAccount(a); err != nil {
			return err
		}
	}
	m.transactions[tx.ID] = tx
	return nil
}

func (m *MemStore) Transaction(_ context.Context, userID, id string) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok || tx.UserID != userID {
		return Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return tx, nil
}

func (m *MemStore) Transactions(_ context.Context, userID string, f TransactionFilter) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for _, tx := range m.transactions {
		if tx.UserID == userID && f.Matches(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *MemStore) UpdateTransaction(_ context.Context, tx Transaction, accounts ...Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, tx.ID)
	}
	for _, a := range accounts {
		if err := m.updateAccount(a); err != nil {
			return err
		}
	}
	m.transactions[tx.ID] = tx
	return nil
}

func (m *MemStore) DeleteTransaction(_ context.Context, userID, id string, accounts ...Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.transactions[id]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	for _, a := range accounts {
		if err := m.updateAccount(a); err != nil {
			return err
		}
	}
	delete(m.transactions, id)
	return nil
}

func (m *MemStore) SaveTransfer(_ context.Context, withdrawal, deposit Transaction, source, destination Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateAccount(source); err != nil {
		return err
	}
	if err := m.updateAccount(destination); err != nil {
		return err
	}
	m.transactions[withdrawal.ID] = withdrawal
	m.transactions[deposit.ID] = deposit
	return nil
}

// --- rates ---

func (m *MemStore) SaveRate(_ context.Context, r ExchangeRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = append(m.rates, r)
	return nil
}

func (m *MemStore) LatestRate(_ context.Context) (ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rates) == 0 {
		return ExchangeRate{}, ErrRateNotFound
	}
	latest := m.rates[0]
	for _, r := range m.rates[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return latest, nil
}

func (m *MemStore) Rate(_ context.Context, id string) (ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rates {
		if r.ID == id {
			return r, nil
		}
	}
	return ExchangeRate{}, fmt.Errorf("%w: %s", ErrRateNotFound, id)
}

func (m *MemStore) RatesByIDs(_ context.Context, ids []string) (map[string]ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make(map[string]ExchangeRate)
	for _, r := range m.rates {
		if _, ok := wanted[r.ID]; ok {
			out[r.ID] = r
		}
	}
	return out, nil
}

// --- snapshots ---

func (m *MemStore) SaveSnapshot(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]AccountEntry, len(s.Entries))
	copy(entries, s.Entries)
	header := s
	header.Entries = nil
	m.snapshots[s.ID] = header
	m.entries[s.ID] = entries
	return nil
}

func (m *MemStore) Snapshot(_ context.Context, userID, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[id]
	if !ok || s.UserID != userID {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	s.Entries = append([]AccountEntry(nil), m.entries[id]...)
	return s, nil
}

// userSnapshots returns headers for a user, newest-first. Lock held.
func (m *MemStore) userSnapshots(userID string) []Snapshot {
	var out []Snapshot
	for _, s := range m.snapshots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (m *MemStore) Snapshots(_ context.Context, userID string, offset, limit int) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.userSnapshots(userID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MemStore) CountSnapshots(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.userSnapshots(userID)), nil
}

func (m *MemStore) SnapshotsInRange(_ context.Context, userID string, from, to Date) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Snapshot
	for _, s := range m.userSnapshots(userID) {
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	// newest-first from userSnapshots; the series wants oldest-first.
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemStore) LatestSnapshotBefore(_ context.Context, userID string, on Date) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.userSnapshots(userID) {
		if !s.Date.After(on) {
			return s, nil
		}
	}
	return Snapshot{}, fmt.Errorf("%w: none on or before %s", ErrSnapshotNotFound, on)
}

func (m *MemStore) EntriesBySnapshot(_ context.Context, snapshotIDs []string) (map[string][]AccountEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]AccountEntry)
	for _, id := range snapshotIDs {
		if entries, ok := m.entries[id]; ok && len(entries) > 0 {
			out[id] = append([]AccountEntry(nil), entries...)
		}
	}
	return out, nil
}

func (m *MemStore) DeleteSnapshotsOn(_ context.Context, userID string, on Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.snapshots {
		if s.UserID == userID && s.Date == on {
			delete(m.snapshots, id)
			delete(m.entries, id)
		}
	}
	return nil
}
