// Package postgres implements the tracker store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	tracker "github.com/mohamedar97/finance-tracker"
)

// Store implements tracker.Store on a *sql.DB. Multi-row mutations run in a
// single database transaction.
type Store struct {
	db *sql.DB
}

var _ tracker.Store = (*Store)(nil)

// Open connects to the database at dsn and runs migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot reach database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool without migrating.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// inTx runs fn inside a database transaction.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()
	if err = fn(dbTx); err != nil {
		return err
	}
	return dbTx.Commit()
}

// --- accounts ---

const accountColumns = `id, user_id, name, type, currency, balance, is_liability, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (tracker.Account, error) {
	var a tracker.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &a.Balance, &a.IsLiability, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) CreateAccount(ctx context.Context, a tracker.Account) error {
	const query = `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Name, a.Type, a.Currency, a.Balance, a.IsLiability, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cannot create account %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) Account(ctx context.Context, userID, id string) (tracker.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`
	a, err := scanAccount(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Account{}, fmt.Errorf("%w: %s", tracker.ErrAccountNotFound, id)
	}
	if err != nil {
		return tracker.Account{}, fmt.Errorf("cannot read account %s: %w", id, err)
	}
	return a, nil
}

func (s *Store) Accounts(ctx context.Context, userID string) ([]tracker.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("cannot list accounts: %w", err)
	}
	defer rows.Close()
	var out []tracker.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func updateAccountTx(ctx context.Context, dbTx *sql.Tx, a tracker.Account) error {
	const query = `UPDATE accounts
		SET name = $3, type = $4, currency = $5, balance = $6, is_liability = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2`
	res, err := dbTx.ExecContext(ctx, query,
		a.ID, a.UserID, a.Name, a.Type, a.Currency, a.Balance, a.IsLiability, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cannot update account %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", tracker.ErrAccountNotFound, a.ID)
	}
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, a tracker.Account) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		return updateAccountTx(ctx, dbTx, a)
	})
}

func (s *Store) DeleteAccount(ctx context.Context, userID, id string) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		if _, err := dbTx.ExecContext(ctx,
			`DELETE FROM transactions WHERE account_id = $1 AND user_id = $2`, id, userID); err != nil {
			return fmt.Errorf("cannot delete transactions of account %s: %w", id, err)
		}
		res, err := dbTx.ExecContext(ctx,
			`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("cannot delete account %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", tracker.ErrAccountNotFound, id)
		}
		return nil
	})
}

// --- transactions ---

const transactionColumns = `id, user_id, account_id, payee, amount, currency, type, category, description, tx_date, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (tracker.Transaction, error) {
	var tx tracker.Transaction
	var day time.Time
	err := row.Scan(&tx.ID, &tx.UserID, &tx.AccountID, &tx.Payee, &tx.Amount, &tx.Currency,
		&tx.Type, &tx.Category, &tx.Description, &day, &tx.CreatedAt)
	if err != nil {
		return tracker.Transaction{}, err
	}
	tx.Date = tracker.DateOf(day)
	return tx, nil
}

func insertTransactionTx(ctx context.Context, dbTx *sql.Tx, tx tracker.Transaction) error {
	const query = `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := dbTx.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.AccountID, tx.Payee, tx.Amount, tx.Currency,
		tx.Type, tx.Category, tx.Description, tx.Date.Time(), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("cannot save transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx tracker.Transaction, accounts ...tracker.Account) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		for _, a := range accounts {
			if err := updateAccountTx(ctx, dbTx, a); err != nil {
				return err
			}
		}
		return insertTransactionTx(ctx, dbTx, tx)
	})
}

func (s *Store) Transaction(ctx context.Context, userID, id string) (tracker.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Transaction{}, fmt.Errorf("%w: %s", tracker.ErrTransactionNotFound, id)
	}
	if err != nil {
		return tracker.Transaction{}, fmt.Errorf("cannot read transaction %s: %w", id, err)
	}
	return tx, nil
}

func (s *Store) Transactions(ctx context.Context, userID string, f tracker.TransactionFilter) ([]tracker.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}
	if f.AccountID != "" {
		args = append(args, f.AccountID)
		query += fmt.Sprintf(` AND account_id = $%d`, len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.Time())
		query += fmt.Sprintf(` AND tx_date >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.Time())
		query += fmt.Sprintf(` AND tx_date <= $%d`, len(args))
	}
	query += ` ORDER BY tx_date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot list transactions: %w", err)
	}
	defer rows.Close()
	var out []tracker.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTransaction(ctx context.Context, tx tracker.Transaction, accounts ...tracker.Account) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		for _, a := range accounts {
			if err := updateAccountTx(ctx, dbTx, a); err != nil {
				return err
			}
		}
		const query = `UPDATE transactions
			SET account_id = $3, payee = $4, amount = $5, currency = $6, type = $7,
			    category = $8, description = $9, tx_date = $10
			WHERE id = $1 AND user_id = $2`
		res, err := dbTx.ExecContext(ctx, query,
			tx.ID, tx.UserID, tx.AccountID, tx.Payee, tx.Amount, tx.Currency,
			tx.Type, tx.Category, tx.Description, tx.Date.Time())
		if err != nil {
			return fmt.Errorf("cannot update transaction %s: %w", tx.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", tracker.ErrTransactionNotFound, tx.ID)
		}
		return nil
	})
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string, accounts ...tracker.Account) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		for _, a := range accounts {
			if err := updateAccountTx(ctx, dbTx, a); err != nil {
				return err
			}
		}
		res, err := dbTx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("cannot delete transaction %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", tracker.ErrTransactionNotFound, id)
		}
		return nil
	})
}

func (s *Store) SaveTransfer(ctx context.Context, withdrawal, deposit tracker.Transaction, source, destination tracker.Account) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		if err := updateAccountTx(ctx, dbTx, source); err != nil {
			return err
		}
		if err := updateAccountTx(ctx, dbTx, destination); err != nil {
			return err
		}
		if err := insertTransactionTx(ctx, dbTx, withdrawal); err != nil {
			return err
		}
		return insertTransactionTx(ctx, dbTx, deposit)
	})
}

// --- rates ---

func (s *Store) SaveRate(ctx context.Context, r tracker.ExchangeRate) error {
	const query = `INSERT INTO exchange_rates (id, usd_rate, gold_rate, fetched_at) VALUES ($1,$2,$3,$4)`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.USDRate, r.GoldRate, r.Timestamp)
	if err != nil {
		return fmt.Errorf("cannot save rate %s: %w", r.ID, err)
	}
	return nil
}

func scanRate(row interface{ Scan(...any) error }) (tracker.ExchangeRate, error) {
	var r tracker.ExchangeRate
	err := row.Scan(&r.ID, &r.USDRate, &r.GoldRate, &r.Timestamp)
	return r, err
}

func (s *Store) LatestRate(ctx context.Context) (tracker.ExchangeRate, error) {
	const query = `SELECT id, usd_rate, gold_rate, fetched_at FROM exchange_rates
		ORDER BY fetched_at DESC LIMIT 1`
	r, err := scanRate(s.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.ExchangeRate{}, tracker.ErrRateNotFound
	}
	if err != nil {
		return tracker.ExchangeRate{}, fmt.Errorf("cannot read latest rate: %w", err)
	}
	return r, nil
}

func (s *Store) Rate(ctx context.Context, id string) (tracker.ExchangeRate, error) {
	const query = `SELECT id, usd_rate, gold_rate, fetched_at FROM exchange_rates WHERE id = $1`
	r, err := scanRate(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.ExchangeRate{}, fmt.Errorf("%w: %s", tracker.ErrRateNotFound, id)
	}
	if err != nil {
		return tracker.ExchangeRate{}, fmt.Errorf("cannot read rate %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) RatesByIDs(ctx context.Context, ids []string) (map[string]tracker.ExchangeRate, error) {
	const query = `SELECT id, usd_rate, gold_rate, fetched_at FROM exchange_rates WHERE id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("cannot read rates: %w", err)
	}
	defer rows.Close()
	out := make(map[string]tracker.ExchangeRate)
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan rate: %w", err)
		}
		out[r.ID] = r
	}
	return out, rows.Err()
}

// --- snapshots ---

func scanSnapshotHeader(row interface{ Scan(...any) error }) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	var day time.Time
	err := row.Scan(&snap.ID, &snap.UserID, &day, &snap.RateID, &snap.CreatedAt)
	if err != nil {
		return tracker.Snapshot{}, err
	}
	snap.Date = tracker.DateOf(day)
	return snap, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snap tracker.Snapshot) error {
	return s.inTx(ctx, func(dbTx *sql.Tx) error {
		const header = `INSERT INTO snapshots (id, user_id, snap_date, rate_id, created_at)
			VALUES ($1,$2,$3,$4,$5)`
		if _, err := dbTx.ExecContext(ctx, header,
			snap.ID, snap.UserID, snap.Date.Time(), snap.RateID, snap.CreatedAt); err != nil {
			return fmt.Errorf("cannot save snapshot %s: %w", snap.ID, err)
		}
		const entry = `INSERT INTO snapshot_entries
			(snapshot_id, account_id, name, type, currency, balance, is_liability)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`
		for _, e := range snap.Entries {
			if _, err := dbTx.ExecContext(ctx, entry,
				e.SnapshotID, e.AccountID, e.Name, e.Type, e.Currency, e.Balance, e.IsLiability); err != nil {
				return fmt.Errorf("cannot save snapshot entry for account %s: %w", e.AccountID, err)
			}
		}
		return nil
	})
}

func (s *Store) Snapshot(ctx context.Context, userID, id string) (tracker.Snapshot, error) {
	const query = `SELECT id, user_id, snap_date, rate_id, created_at FROM snapshots
		WHERE id = $1 AND user_id = $2`
	snap, err := scanSnapshotHeader(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Snapshot{}, fmt.Errorf("%w: %s", tracker.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("cannot read snapshot %s: %w", id, err)
	}
	entries, err := s.EntriesBySnapshot(ctx, []string{id})
	if err != nil {
		return tracker.Snapshot{}, err
	}
	snap.Entries = entries[id]
	return snap, nil
}

func (s *Store) snapshotHeaders(ctx context.Context, query string, args ...any) ([]tracker.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot list snapshots: %w", err)
	}
	defer rows.Close()
	var out []tracker.Snapshot
	for rows.Next() {
		snap, err := scanSnapshotHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) Snapshots(ctx context.Context, userID string, offset, limit int) ([]tracker.Snapshot, error) {
	const query = `SELECT id, user_id, snap_date, rate_id, created_at FROM snapshots
		WHERE user_id = $1 ORDER BY snap_date DESC, created_at DESC OFFSET $2 LIMIT $3`
	return s.snapshotHeaders(ctx, query, userID, offset, limit)
}

func (s *Store) CountSnapshots(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM snapshots WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cannot count snapshots: %w", err)
	}
	return n, nil
}

func (s *Store) SnapshotsInRange(ctx context.Context, userID string, from, to tracker.Date) ([]tracker.Snapshot, error) {
	const query = `SELECT id, user_id, snap_date, rate_id, created_at FROM snapshots
		WHERE user_id = $1 AND snap_date >= $2 AND snap_date <= $3
		ORDER BY snap_date, created_at`
	return s.snapshotHeaders(ctx, query, userID, from.Time(), to.Time())
}

func (s *Store) LatestSnapshotBefore(ctx context.Context, userID string, on tracker.Date) (tracker.Snapshot, error) {
	const query = `SELECT id, user_id, snap_date, rate_id, created_at FROM snapshots
		WHERE user_id = $1 AND snap_date <= $2
		ORDER BY snap_date DESC, created_at DESC LIMIT 1`
	snap, err := scanSnapshotHeader(s.db.QueryRowContext(ctx, query, userID, on.Time()))
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Snapshot{}, fmt.Errorf("%w: none on or before %s", tracker.ErrSnapshotNotFound, on)
	}
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("cannot read snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) EntriesBySnapshot(ctx context.Context, snapshotIDs []string) (map[string][]tracker.AccountEntry, error) {
	const query = `SELECT snapshot_id, account_id, name, type, currency, balance, is_liability
		FROM snapshot_entries WHERE snapshot_id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(snapshotIDs))
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot entries: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]tracker.AccountEntry)
	for rows.Next() {
		var e tracker.AccountEntry
		if err := rows.Scan(&e.SnapshotID, &e.AccountID, &e.Name, &e.Type, &e.Currency, &e.Balance, &e.IsLiability); err != nil {
			return nil, fmt.Errorf("cannot scan snapshot entry: %w", err)
		}
		out[e.SnapshotID] = append(out[e.SnapshotID], e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSnapshotsOn(ctx context.Context, userID string, on tracker.Date) error {
	// entries cascade
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE user_id = $1 AND snap_date = $2`, userID, on.Time())
	if err != nil {
		return fmt.Errorf("cannot delete snapshots on %s: %w", on, err)
	}
	return nil
}
