package tracker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file persists the whole tracker state as a single JSONL file, one
// record per line, each line carrying a "kind" discriminator. The format is
// human-readable and git-friendly, so a data file can live on a private repo
// and be reviewed line by line.

const (
	kindAccount     = "account"
	kindTransaction = "transaction"
	kindRate        = "rate"
	kindSnapshot    = "snapshot"
	kindEntry       = "entry"
)

// record is the on-disk envelope for a single line.
type record struct {
	Kind        string        `json:"kind"`
	Account     *Account      `json:"account,omitempty"`
	Transaction *Transaction  `json:"transaction,omitempty"`
	Rate        *ExchangeRate `json:"rate,omitempty"`
	Snapshot    *Snapshot     `json:"snapshot,omitempty"`
	Entry       *AccountEntry `json:"entry,omitempty"`
}

// Encode writes the full store state to w as JSONL, in a stable order so
// that two encodings of the same state produce identical bytes.
func (m *MemStore) Encode(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	enc := json.NewEncoder(w)
	write := func(r record) error {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("cannot encode %s record: %w", r.Kind, err)
		}
		return nil
	}

	for _, a := range sortedByID(m.accounts) {
		a := a
		if err := write(record{Kind: kindAccount, Account: &a}); err != nil {
			return err
		}
	}
	for _, tx := range sortedByID(m.transactions) {
		tx := tx
		if err := write(record{Kind: kindTransaction, Transaction: &tx}); err != nil {
			return err
		}
	}
	for i := range m.rates {
		if err := write(record{Kind: kindRate, Rate: &m.rates[i]}); err != nil {
			return err
		}
	}
	for _, s := range sortedByID(m.snapshots) {
		s := s
		if err := write(record{Kind: kindSnapshot, Snapshot: &s}); err != nil {
			return err
		}
		for _, e := range m.entries[s.ID] {
			e := e
			if err := write(record{Kind: kindEntry, Entry: &e}); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeStore reads a JSONL stream produced by Encode into a fresh MemStore.
func DecodeStore(r io.Reader) (*MemStore, error) {
	m := NewMemStore()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("format error on line %d: %w", line, err)
		}
		switch rec.Kind {
		case kindAccount:
			m.accounts[rec.Account.ID] = *rec.Account
		case kindTransaction:
			m.transactions[rec.Transaction.ID] = *rec.Transaction
		case kindRate:
			m.rates = append(m.rates, *rec.Rate)
		case kindSnapshot:
			s := *rec.Snapshot
			s.Entries = nil
			m.snapshots[s.ID] = s
		case kindEntry:
			e := *rec.Entry
			m.entries[e.SnapshotID] = append(m.entries[e.SnapshotID], e)
		default:
			return nil, fmt.Errorf("format error on line %d: unknown kind %q", line, rec.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read store data: %w", err)
	}
	return m, nil
}

// sortedByID returns map values ordered by key for stable encoding.
func sortedByID[T any](in map[string]T) []T {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, in[k])
	}
	return out
}

// FileStore is a Store backed by a single JSONL file. Every mutation rewrites
// the file through a temporary sibling and an atomic rename, so a crash never
// leaves a half-written file behind.
type FileStore struct {
	path string
	mem  *MemStore
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads the JSONL file at path, creating an empty store when
// the file does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &FileStore{path: path, mem: NewMemStore()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open store file %q: %w", path, err)
	}
	defer f.Close()
	mem, err := DecodeStore(f)
	if err != nil {
		return nil, fmt.Errorf("cannot load store file %q: %w", path, err)
	}
	return &FileStore{path: path, mem: mem}, nil
}

// flush writes the in-memory state back to disk.
func (fs *FileStore) flush() error {
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".ftrack-*.jsonl")
	if err != nil {
		return fmt.Errorf("cannot create temporary store file: %w", err)
	}
	if err := fs.mem.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot write store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cannot replace store file %q: %w", fs.path, err)
	}
	return nil
}

// mutate applies fn to the in-memory store and flushes on success.
func (fs *FileStore) mutate(fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	return fs.flush()
}

func (fs *FileStore) CreateAccount(ctx context.Context, a Account) error {
	return fs.mutate(func() error { return fs.mem.CreateAccount(ctx, a) })
}

func (fs *FileStore) Account(ctx context.Context, userID, id string) (Account, error) {
	return fs.mem.Account(ctx, userID, id)
}

func (fs *FileStore) Accounts(ctx context.Context, userID string) ([]Account, error) {
	return fs.mem.Accounts(ctx, userID)
}

func (fs *FileStore) UpdateAccount(ctx context.Context, a Account) error {
	return fs.mutate(func() error { return fs.mem.UpdateAccount(ctx, a) })
}

func (fs *FileStore) DeleteAccount(ctx context.Context, userID, id string) error {
	return fs.mutate(func() error { return fs.mem.DeleteAccount(ctx, userID, id) })
}

func (fs *FileStore) SaveTransaction(ctx context.Context, tx Transaction, accounts ...Account) error {
	return fs.mutate(func() error { return fs.mem.SaveTransaction(ctx, tx, accounts...) })
}

func (fs *FileStore) Transaction(ctx context.Context, userID, id string) (Transaction, error) {
	return fs.mem.Transaction(ctx, userID, id)
}

func (fs *FileStore) Transactions(ctx context.Context, userID string, f TransactionFilter) ([]Transaction, error) {
	return fs.mem.Transactions(ctx, userID, f)
}

func (fs *FileStore) UpdateTransaction(ctx context.Context, tx Transaction, accounts ...Account) error {
	return fs.mutate(func() error { return fs.mem.UpdateTransaction(ctx, tx, accounts...) })
}

func (fs *FileStore) DeleteTransaction(ctx context.Context, userID, id string, accounts ...Account) error {
	return fs.mutate(func() error { return fs.mem.DeleteTransaction(ctx, userID, id, accounts...) })
}

func (fs *FileStore) SaveTransfer(ctx context.Context, withdrawal, deposit Transaction, source, destination Account) error {
	return fs.mutate(func() error { return fs.mem.SaveTransfer(ctx, withdrawal, deposit, source, destination) })
}

func (fs *FileStore) SaveRate(ctx context.Context, r ExchangeRate) error {
	return fs.mutate(func() error { return fs.mem.SaveRate(ctx, r) })
}

func (fs *FileStore) LatestRate(ctx context.Context) (ExchangeRate, error) {
	return fs.mem.LatestRate(ctx)
}

func (fs *FileStore) Rate(ctx context.Context, id string) (ExchangeRate, error) {
	return fs.mem.Rate(ctx, id)
}

func (fs *FileStore) RatesByIDs(ctx context.Context, ids []string) (map[string]ExchangeRate, error) {
	return fs.mem.RatesByIDs(ctx, ids)
}

func (fs *FileStore) SaveSnapshot(ctx context.Context, s Snapshot) error {
	return fs.mutate(func() error { return fs.mem.SaveSnapshot(ctx, s) })
}

func (fs *FileStore) Snapshot(ctx context.Context, userID, id string) (Snapshot, error) {
	return fs.mem.Snapshot(ctx, userID, id)
}

func (fs *FileStore) Snapshots(ctx context.Context, userID string, offset, limit int) ([]Snapshot, error) {
	return fs.mem.Snapshots(ctx, userID, offset, limit)
}

func (fs *FileStore) CountSnapshots(ctx context.Context, userID string) (int, error) {
	return fs.mem.CountSnapshots(ctx, userID)
}

func (fs *FileStore) SnapshotsInRange(ctx context.Context, userID string, from, to Date) ([]Snapshot, error) {
	return fs.mem.SnapshotsInRange(ctx, userID, from, to)
}

func (fs *FileStore) LatestSnapshotBefore(ctx context.Context, userID string, on Date) (Snapshot, error) {
	return fs.mem.LatestSnapshotBefore(ctx, userID, on)
}

func (fs *FileStore) EntriesBySnapshot(ctx context.Context, snapshotIDs []string) (map[string][]AccountEntry, error) {
	return fs.mem.EntriesBySnapshot(ctx, snapshotIDs)
}

func (fs *FileStore) DeleteSnapshotsOn(ctx context.Context, userID string, on Date) error {
	return fs.mutate(func() error { return fs.mem.DeleteSnapshotsOn(ctx, userID, on) })
}
