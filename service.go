package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// defaultRangeMonths is the trailing window of SnapshotRange when no bounds
// are given.
const defaultRangeMonths = 6

// dashboardLookbackDays is how far back the dashboard looks for the
// comparison snapshot that change percentages are computed against.
const dashboardLookbackDays = 30

// Service exposes the core operations: account and transaction mutations,
// transfers, snapshot capture, and the snapshot query/aggregation paths.
// Every operation requires a resolved userID; the service performs no
// authentication itself.
//
// Rates are resolved once per operation from the RateSource and passed
// explicitly into every conversion and aggregation call.
type Service struct {
	store Store
	rates *RateSource
	pub   Publisher // may be nil
	now   func() time.Time
}

// NewService creates a Service. pub may be nil to disable event publishing.
func NewService(store Store, rates *RateSource, pub Publisher) *Service {
	return &Service{store: store, rates: rates, pub: pub, now: time.Now}
}

// Rates returns the service's rate source.
func (s *Service) Rates() *RateSource { return s.rates }

func requireUser(userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	return nil
}

// publish emits an event for a committed mutation. Best-effort: the write
// has already landed, so a publish failure is logged, not surfaced.
func (s *Service) publish(ctx context.Context, kind, userID string, payload any) {
	if s.pub == nil {
		return
	}
	e := Event{Kind: kind, UserID: userID, At: s.now(), Payload: payload}
	if err := s.pub.Publish(ctx, e); err != nil {
		log.Printf("publish %s: %v", kind, err)
	}
}

// --- accounts ---

// AccountParams describe a new or updated account.
type AccountParams struct {
	Name        string
	Type        AccountType
	Currency    Currency
	Balance     decimal.Decimal
	IsLiability bool
}

func (p AccountParams) validate() error {
	if p.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if _, err := ParseAccountType(string(p.Type)); err != nil {
		return err
	}
	if err := ValidateCurrency(p.Currency); err != nil {
		return err
	}
	if p.Balance.IsNegative() {
		return fmt.Errorf("balance must be a non-negative magnitude, got %s", p.Balance)
	}
	return nil
}

// CreateAccount creates an account with an initial balance.
func (s *Service) CreateAccount(ctx context.Context, userID string, p AccountParams) (Account, error) {
	if err := requireUser(userID); err != nil {
		return Account{}, err
	}
	if err := p.validate(); err != nil {
		return Account{}, fmt.Errorf("invalid account: %w", err)
	}
	now := s.now()
	a := Account{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        p.Name,
		Type:        p.Type,
		Currency:    p.Currency,
		Balance:     p.Balance,
		IsLiability: p.IsLiability,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// UpdateAccount replaces an account's mutable fields.
func (s *Service) UpdateAccount(ctx context.Context, userID, id string, p AccountParams) (Account, error) {
	if err := requireUser(userID); err != nil {
		return Account{}, err
	}
	if err := p.validate(); err != nil {
		return Account{}, fmt.Errorf("invalid account: %w", err)
	}
	a, err := s.store.Account(ctx, userID, id)
	if err != nil {
		return Account{}, err
	}
	a.Name = p.Name
	a.Type = p.Type
	a.Currency = p.Currency
	a.Balance = p.Balance
	a.IsLiability = p.IsLiability
	a.UpdatedAt = s.now()
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

// DeleteAccount removes an account together with its transactions.
func (s *Service) DeleteAccount(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.DeleteAccount(ctx, userID, id)
}

// Accounts lists the user's accounts.
func (s *Service) Accounts(ctx context.Context, userID string) ([]Account, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Accounts(ctx, userID)
}

// DisplayAccounts projects the user's accounts into a display currency at
// the current rate. The projection never mutates the underlying accounts.
func (s *Service) DisplayAccounts(ctx context.Context, userID string, target Currency) ([]DisplayAccount, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ValidateCurrency(target); err != nil {
		return nil, err
	}
	rate, err := s.rates.GetCurrentRate(ctx, false)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.Accounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	displays := make([]DisplayAccount, 0, len(accounts))
	for _, a := range accounts {
		displays = append(displays, a.Display(target, rate))
	}
	return displays, nil
}

// --- transactions ---

// TransactionParams describe a new transaction.
type TransactionParams struct {
	AccountID   string
	Payee       string
	Amount      decimal.Decimal
	Type        TransactionType
	Category    string
	Description string
	Date        Date
}

// RecordTransaction inserts a transaction and applies its single balance
// adjustment to the owning account in one atomic unit. The transaction is
// denominated in the account's own currency.
func (s *Service) RecordTransaction(ctx context.Context, userID string, p TransactionParams) (Transaction, error) {
	if err := requireUser(userID); err != nil {
		return Transaction{}, err
	}
	if _, err := ParseTransactionType(string(p.Type)); err != nil {
		return Transaction{}, err
	}
	if !p.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("invalid transaction amount %s", p.Amount)
	}
	account, err := s.store.Account(ctx, userID, p.AccountID)
	if err != nil {
		return Transaction{}, err
	}
	when := p.Date
	if when.IsZero() {
		when = DateOf(s.now())
	}
	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   account.ID,
		Payee:       p.Payee,
		Amount:      p.Amount,
		Currency:    account.Currency,
		Type:        p.Type,
		Category:    p.Category,
		Description: p.Description,
		Date:        when,
		CreatedAt:   s.now(),
	}
	account = applyTransaction(account, tx, false)
	if err := s.store.SaveTransaction(ctx, tx, account); err != nil {
		return Transaction{}, err
	}
	s.publish(ctx, EventTransactionRecorded, userID, tx)
	return tx, nil
}

// UpdateTransaction replaces a transaction, reversing the original's balance
// effect before applying the new one. When the account reference changed,
// the reversal lands on the old account and the new effect on the new one,
// all in a single atomic unit.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, p TransactionParams) (Transaction, error) {
	if err := requireUser(userID); err != nil {
		return Transaction{}, err
	}
	if _, err := ParseTransactionType(string(p.Type)); err != nil {
		return Transaction{}, err
	}
	if !p.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("invalid transaction amount %s", p.Amount)
	}
	original, err := s.store.Transaction(ctx, userID, id)
	if err != nil {
		return Transaction{}, err
	}
	oldAccount, err := s.store.Account(ctx, userID, original.AccountID)
	if err != nil {
		return Transaction{}, err
	}

	accountID := p.AccountID
	if accountID == "" {
		accountID = original.AccountID
	}
	when := p.Date
	if when.IsZero() {
		when = original.Date
	}

	oldAccount = applyTransaction(oldAccount, original, true)

	updated := original
	updated.AccountID = accountID
	updated.Payee = p.Payee
	updated.Amount = p.Amount
	updated.Type = p.Type
	updated.Category = p.Category
	updated.Description = p.Description
	updated.Date = when

	if accountID == original.AccountID {
		updated.Currency = oldAccount.Currency
		oldAccount = applyTransaction(oldAccount, updated, false)
		if err := s.store.UpdateTransaction(ctx, updated, oldAccount); err != nil {
			return Transaction{}, err
		}
	} else {
		newAccount, err := s.store.Account(ctx, userID, accountID)
		if err != nil {
			return Transaction{}, err
		}
		updated.Currency = newAccount.Currency
		newAccount = applyTransaction(newAccount, updated, false)
		if err := s.store.UpdateTransaction(ctx, updated, oldAccount, newAccount); err != nil {
			return Transaction{}, err
		}
	}
	s.publish(ctx, EventTransactionUpdated, userID, updated)
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect on
// the owning account in one atomic unit.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	tx, err := s.store.Transaction(ctx, userID, id)
	if err != nil {
		return err
	}
	account, err := s.store.Account(ctx, userID, tx.AccountID)
	if err != nil {
		return err
	}
	account = applyTransaction(account, tx, true)
	if err := s.store.DeleteTransaction(ctx, userID, id, account); err != nil {
		return err
	}
	s.publish(ctx, EventTransactionDeleted, userID, tx)
	return nil
}

// Transactions lists the user's transactions, newest-first, optionally
// filtered.
func (s *Service) Transactions(ctx context.Context, userID string, f TransactionFilter) ([]Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Transactions(ctx, userID, f)
}

// DisplayTransactions lists matching transactions projected into the target
// currency at the current rate.
func (s *Service) DisplayTransactions(ctx context.Context, userID string, f TransactionFilter, target Currency) ([]DisplayTransaction, error) {
	if err := ValidateCurrency(target); err != nil {
		return nil, err
	}
	transactions, err := s.Transactions(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	rate, err := s.rates.GetCurrentRate(ctx, false)
	if err != nil {
		return nil, err
	}
	displays := make([]DisplayTransaction, 0, len(transactions))
	for _, t := range transactions {
		displays = append(displays, t.Display(target, rate))
	}
	return displays, nil
}

// --- transfers ---

// TransferParams describe a transfer between two of the user's accounts.
// The amount is stated in Currency and converted independently to the
// source and destination account currencies. Rate, when zero, is resolved
// once from the rate source.
type TransferParams struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Currency      Currency
	Description   string
	Rate          ExchangeRate
}

// TransferResult reports both committed legs and the adjusted accounts.
type TransferResult struct {
	Withdrawal  Transaction
	Deposit     Transaction
	Source      Account
	Destination Account
	// DestinationFlipped is true when the deposit overpaid a liability and
	// converted the destination into an asset account holding the excess.
	DestinationFlipped bool
}

// Transfer moves value between two accounts: it converts the stated amount
// to the source currency (withdrawal) and to the destination currency
// (deposit) independently, then persists both legs and both balance updates
// as a single atomic unit.
//
// Rules: source and destination must differ (ErrSameAccountTransfer); the
// source balance, in its own currency, must cover the withdrawal
// (ErrInsufficientBalance); and when the destination is a liability whose
// debt the deposit overpays, the account flips to an asset holding the
// remainder. That flip is a deliberate business rule, not a side effect.
func (s *Service) Transfer(ctx context.Context, userID string, p TransferParams) (TransferResult, error) {
	if err := requireUser(userID); err != nil {
		return TransferResult{}, err
	}
	if p.FromAccountID == p.ToAccountID {
		return TransferResult{}, ErrSameAccountTransfer
	}
	if !p.Amount.IsPositive() {
		return TransferResult{}, fmt.Errorf("invalid transfer amount %s", p.Amount)
	}
	if err := ValidateCurrency(p.Currency); err != nil {
		return TransferResult{}, err
	}

	rate := p.Rate
	if rate.Timestamp.IsZero() {
		var err error
		rate, err = s.rates.GetCurrentRate(ctx, false)
		if err != nil {
			return TransferResult{}, err
		}
	}

	source, err := s.store.Account(ctx, userID, p.FromAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	destination, err := s.store.Account(ctx, userID, p.ToAccountID)
	if err != nil {
		return TransferResult{}, err
	}

	amount := M(p.Amount, p.Currency)
	withdrawn, err := Convert(amount, source.Currency, rate)
	if err != nil {
		return TransferResult{}, fmt.Errorf("converting withdrawal: %w", err)
	}
	deposited, err := Convert(amount, destination.Currency, rate)
	if err != nil {
		return TransferResult{}, fmt.Errorf("converting deposit: %w", err)
	}
	if source.Balance.LessThan(withdrawn.Amount()) {
		return TransferResult{}, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, source.Money(), withdrawn)
	}

	now := s.now()
	today := DateOf(now)
	withdrawal := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   source.ID,
		Payee:       "Transfer to " + destination.Name,
		Amount:      withdrawn.Amount(),
		Currency:    source.Currency,
		Type:        Expense,
		Category:    "Transfer",
		Description: transferDescription("Transfer to "+destination.Name, p.Description),
		Date:        today,
		CreatedAt:   now,
	}
	deposit := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   destination.ID,
		Payee:       "Transfer from " + source.Name,
		Amount:      deposited.Amount(),
		Currency:    destination.Currency,
		Type:        Income,
		Category:    "Transfer",
		Description: transferDescription("Transfer from "+source.Name, p.Description),
		Date:        today,
		CreatedAt:   now,
	}

	source = applyTransaction(source, withdrawal, false)
	destination = applyTransaction(destination, deposit, false)

	flipped := false
	if destination.IsLiability && destination.Balance.IsNegative() {
		// Deposit overpaid the debt: the account becomes an asset holding
		// the excess.
		destination.Balance = destination.Balance.Abs()
		destination.IsLiability = false
		flipped = true
	}

	if err := s.store.SaveTransfer(ctx, withdrawal, deposit, source, destination); err != nil {
		return TransferResult{}, err
	}
	result := TransferResult{
		Withdrawal:         withdrawal,
		Deposit:            deposit,
		Source:             source,
		Destination:        destination,
		DestinationFlipped: flipped,
	}
	s.publish(ctx, EventTransferCompleted, userID, result)
	return result, nil
}

func transferDescription(prefix, detail string) string {
	if detail == "" {
		return prefix
	}
	return prefix + ": " + detail
}

// --- snapshots ---

// CaptureSnapshot freezes the user's accounts together with the current
// rate into a new dated snapshot. The snapshot row and its per-account
// entries land atomically. Captures are append-only: calling twice the same
// day produces two snapshots, unless replaceExisting deletes the same-day
// snapshots first.
func (s *Service) CaptureSnapshot(ctx context.Context, userID string, replaceExisting bool) (Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return Snapshot{}, err
	}
	rate, err := s.rates.GetCurrentRate(ctx, false)
	if err != nil {
		return Snapshot{}, err
	}
	accounts, err := s.store.Accounts(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	now := s.now()
	today := DateOf(now)
	if replaceExisting {
		if err := s.store.DeleteSnapshotsOn(ctx, userID, today); err != nil {
			return Snapshot{}, err
		}
	}

	snap := Snapshot{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      today,
		RateID:    rate.ID,
		CreatedAt: now,
	}
	for _, a := range accounts {
		snap.Entries = append(snap.Entries, newEntry(snap.ID, a))
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	s.publish(ctx, EventSnapshotCaptured, userID, snap)
	return snap, nil
}

// ListSnapshots returns one page of the user's snapshot history, newest
// first, with metrics recomputed from each snapshot's frozen entries and
// frozen rate. Rates and entries are batch-fetched; a snapshot whose entries
// are missing is skipped rather than failing the page.
func (s *Service) ListSnapshots(ctx context.Context, userID string, page, pageSize int) (SnapshotPage, error) {
	if err := requireUser(userID); err != nil {
		return SnapshotPage{}, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total, err := s.store.CountSnapshots(ctx, userID)
	if err != nil {
		return SnapshotPage{}, err
	}
	offset := (page - 1) * pageSize
	headers, err := s.store.Snapshots(ctx, userID, offset, pageSize)
	if err != nil {
		return SnapshotPage{}, err
	}
	result := SnapshotPage{TotalCount: total, HasMore: total > offset+pageSize}
	if len(headers) == 0 {
		return result, nil
	}

	snaps, err := s.hydrate(ctx, headers)
	if err != nil {
		return SnapshotPage{}, err
	}
	result.Snapshots = snaps
	return result, nil
}

// SnapshotRange returns a date-ordered metric series for charting. Zero
// bounds default to the trailing six months. An empty range yields an empty
// series, not an error.
func (s *Service) SnapshotRange(ctx context.Context, userID string, from, to Date) ([]SnapshotPoint, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = DateOf(s.now())
	}
	if from.IsZero() {
		from = to.AddMonth(-defaultRangeMonths)
	}
	headers, err := s.store.SnapshotsInRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return []SnapshotPoint{}, nil
	}
	snaps, err := s.hydrate(ctx, headers)
	if err != nil {
		return nil, err
	}
	points := make([]SnapshotPoint, 0, len(snaps))
	for _, h := range snaps {
		points = append(points, SnapshotPoint{Date: h.Date, Metrics: h.Metrics})
	}
	return points, nil
}

// hydrate batch-fetches the rates and entries for a set of snapshot headers
// and replays each through the aggregation rules. Snapshots without entries
// are skipped; a missing rate record degrades that snapshot's non-base
// conversions to zero rather than failing the batch.
func (s *Service) hydrate(ctx context.Context, headers []Snapshot) ([]HistorySnapshot, error) {
	ids := make([]string, 0, len(headers))
	rateIDs := make([]string, 0, len(headers))
	for _, h := range headers {
		ids = append(ids, h.ID)
		rateIDs = append(rateIDs, h.RateID)
	}
	rates, err := s.store.RatesByIDs(ctx, rateIDs)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.EntriesBySnapshot(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]HistorySnapshot, 0, len(headers))
	for _, h := range headers {
		h.Entries = entries[h.ID]
		if len(h.Entries) == 0 {
			log.Printf("snapshot %s on %s has no entries, skipping", h.ID, h.Date)
			continue
		}
		rate, ok := rates[h.RateID]
		if !ok {
			log.Printf("snapshot %s on %s references missing rate %s", h.ID, h.Date, h.RateID)
		}
		out = append(out, HistorySnapshot{Snapshot: h, Metrics: h.ComputeMetrics(rate)})
	}
	return out, nil
}

// --- dashboard ---

// Dashboard carries the current metrics, the rate they were computed with,
// and the change percentages against the newest snapshot at least
// dashboardLookbackDays old.
type Dashboard struct {
	Metrics Metrics
	Rate    ExchangeRate

	LiquidChangePct   float64
	SavingsChangePct  float64
	NetWorthChangePct float64
}

// DashboardMetrics computes the user's current metrics at the latest rate
// and, when a comparison snapshot exists, the percentage changes of liquid
// balance, savings, and net worth since then.
func (s *Service) DashboardMetrics(ctx context.Context, userID string) (Dashboard, error) {
	if err := requireUser(userID); err != nil {
		return Dashboard{}, err
	}
	rate, err := s.rates.GetCurrentRate(ctx, false)
	if err != nil {
		return Dashboard{}, err
	}
	accounts, err := s.store.Accounts(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Metrics: CalculateMetrics(accounts, rate), Rate: rate}

	cutoff := DateOf(s.now()).Add(-dashboardLookbackDays)
	header, err := s.store.LatestSnapshotBefore(ctx, userID, cutoff)
	if errors.Is(err, ErrSnapshotNotFound) {
		return d, nil // no history yet, changes stay zero
	}
	if err != nil {
		return Dashboard{}, err
	}
	previous, err := s.hydrate(ctx, []Snapshot{header})
	if err != nil || len(previous) == 0 {
		return d, nil
	}
	prior := previous[0].Metrics
	d.LiquidChangePct = changePct(d.Metrics.LiquidBalance, prior.LiquidBalance)
	d.SavingsChangePct = changePct(d.Metrics.TotalSavings, prior.TotalSavings)
	d.NetWorthChangePct = changePct(d.Metrics.NetWorth, prior.NetWorth)
	return d, nil
}

// changePct is ((current-previous)/previous)*100 rounded to one decimal,
// zero when the previous value is not positive.
func changePct(current, previous Money) float64 {
	if !previous.IsPositive() {
		return 0
	}
	ratio := current.Sub(previous).Amount().Div(previous.Amount())
	return math.Round(ratio.InexactFloat64()*1000) / 10
}
