package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// newTestService wires a Service to an in-memory store and a fixed-rate
// fetcher, with the clock pinned.
func newTestService(t *testing.T, now time.Time) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore()
	fetcher := &countingFetcher{usd: decimal.NewFromInt(50), gold: decimal.NewFromInt(4000)}
	rates := NewRateSource(store, fetcher)
	rates.now = func() time.Time { return now }
	svc := NewService(store, rates, nil)
	svc.now = func() time.Time { return now }
	return svc, store
}

func mustCreateAccount(t *testing.T, svc *Service, name string, kind AccountType, c Currency, balance int64, liability bool) Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), "u1", AccountParams{
		Name:        name,
		Type:        kind,
		Currency:    c,
		Balance:     decimal.NewFromInt(balance),
		IsLiability: liability,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}
	return a
}

var testNow = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

func TestServiceRequiresUser(t *testing.T) {
	svc, _ := newTestService(t, testNow)
	ctx := context.Background()

	if _, err := svc.Accounts(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Accounts() error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.CaptureSnapshot(ctx, "", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("CaptureSnapshot() error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.DashboardMetrics(ctx, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("DashboardMetrics() error = %v, want ErrUnauthorized", err)
	}
}

func TestAccountIsolation(t *testing.T) {
	svc, _ := newTestService(t, testNow)
	ctx := context.Background()

	a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

	// another user must not see or touch it
	if _, err := svc.UpdateAccount(ctx, "u2", a.ID, AccountParams{
		Name: "hijack", Type: Current, Currency: EGP,
	}); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("UpdateAccount as other user error = %v, want ErrAccountNotFound", err)
	}
	accounts, err := svc.Accounts(ctx, "u2")
	if err != nil {
		t.Fatalf("Accounts() error = %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("other user sees %d accounts, want 0", len(accounts))
	}
}

func TestRecordTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("expense decreases asset", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		tx, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
			AccountID: a.ID, Payee: "Carrefour", Amount: decimal.NewFromInt(150), Type: Expense,
		})
		if err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}
		if tx.Currency != EGP {
			t.Errorf("tx currency = %s, want account currency EGP", tx.Currency)
		}
		got, _ := store.Account(ctx, "u1", a.ID)
		if want := decimal.NewFromInt(850); !got.Balance.Equal(want) {
			t.Errorf("balance = %s, want %s", got.Balance, want)
		}
	})

	t.Run("income increases asset", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
			AccountID: a.ID, Payee: "Salary", Amount: decimal.NewFromInt(500), Type: Income,
		}); err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}
		got, _ := store.Account(ctx, "u1", a.ID)
		if want := decimal.NewFromInt(1500); !got.Balance.Equal(want) {
			t.Errorf("balance = %s, want %s", got.Balance, want)
		}
	})

	t.Run("expense grows a debt", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		card := mustCreateAccount(t, svc, "card", Current, EGP, 200, true)

		if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
			AccountID: card.ID, Payee: "Store", Amount: decimal.NewFromInt(100), Type: Expense,
		}); err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}
		got, _ := store.Account(ctx, "u1", card.ID)
		if want := decimal.NewFromInt(300); !got.Balance.Equal(want) {
			t.Errorf("debt balance = %s, want %s", got.Balance, want)
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
			AccountID: a.ID, Payee: "x", Amount: decimal.NewFromInt(-5), Type: Expense,
		}); err == nil {
			t.Error("RecordTransaction() accepted a negative amount")
		}
	})
}

func TestUpdateTransactionReversesOriginal(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testNow)
	a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

	tx, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
		AccountID: a.ID, Payee: "Shop", Amount: decimal.NewFromInt(100), Type: Expense,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateTransaction(ctx, "u1", tx.ID, TransactionParams{
		AccountID: a.ID, Payee: "Shop", Amount: decimal.NewFromInt(40), Type: Expense,
	}); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}

	got, _ := store.Account(ctx, "u1", a.ID)
	if want := decimal.NewFromInt(960); !got.Balance.Equal(want) {
		t.Errorf("balance = %s, want %s", got.Balance, want)
	}
}

func TestUpdateTransactionAcrossAccounts(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testNow)
	a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)
	b := mustCreateAccount(t, svc, "wallet", Current, EGP, 500, false)

	tx, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
		AccountID: a.ID, Payee: "Shop", Amount: decimal.NewFromInt(100), Type: Expense,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateTransaction(ctx, "u1", tx.ID, TransactionParams{
		AccountID: b.ID, Payee: "Shop", Amount: decimal.NewFromInt(100), Type: Expense,
	}); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}

	gotA, _ := store.Account(ctx, "u1", a.ID)
	if want := decimal.NewFromInt(1000); !gotA.Balance.Equal(want) {
		t.Errorf("old account balance = %s, want restored %s", gotA.Balance, want)
	}
	gotB, _ := store.Account(ctx, "u1", b.ID)
	if want := decimal.NewFromInt(400); !gotB.Balance.Equal(want) {
		t.Errorf("new account balance = %s, want %s", gotB.Balance, want)
	}
}

func TestDeleteTransactionRestoresBalance(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, testNow)
	a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

	tx, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
		AccountID: a.ID, Payee: "Shop", Amount: decimal.NewFromInt(100), Type: Expense,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	got, _ := store.Account(ctx, "u1", a.ID)
	if want := decimal.NewFromInt(1000); !got.Balance.Equal(want) {
		t.Errorf("balance = %s, want %s", got.Balance, want)
	}
	if _, err := store.Transaction(ctx, "u1", tx.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("deleted transaction still readable: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("same account rejected", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		_, err := svc.Transfer(ctx, "u1", TransferParams{
			FromAccountID: a.ID, ToAccountID: a.ID, Amount: decimal.NewFromInt(10), Currency: EGP,
		})
		if !errors.Is(err, ErrSameAccountTransfer) {
			t.Errorf("Transfer() error = %v, want ErrSameAccountTransfer", err)
		}
	})

	t.Run("insufficient balance rejected", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 100, false)
		b := mustCreateAccount(t, svc, "wallet", Current, EGP, 0, false)

		_, err := svc.Transfer(ctx, "u1", TransferParams{
			FromAccountID: a.ID, ToAccountID: b.ID, Amount: decimal.NewFromInt(500), Currency: EGP,
		})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Transfer() error = %v, want ErrInsufficientBalance", err)
		}
	})

	t.Run("cross currency legs convert independently", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		usd := mustCreateAccount(t, svc, "usd", Savings, USD, 200, false)
		egp := mustCreateAccount(t, svc, "egp", Current, EGP, 1000, false)

		// 100 USD at 50 EGP/USD
		result, err := svc.Transfer(ctx, "u1", TransferParams{
			FromAccountID: usd.ID, ToAccountID: egp.ID,
			Amount: decimal.NewFromInt(100), Currency: USD,
		})
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}

		gotUSD, _ := store.Account(ctx, "u1", usd.ID)
		if want := decimal.NewFromInt(100); !gotUSD.Balance.Equal(want) {
			t.Errorf("source balance = %s, want %s", gotUSD.Balance, want)
		}
		gotEGP, _ := store.Account(ctx, "u1", egp.ID)
		if want := decimal.NewFromInt(6000); !gotEGP.Balance.Equal(want) {
			t.Errorf("destination balance = %s, want %s", gotEGP.Balance, want)
		}

		if result.Withdrawal.Type != Expense || result.Deposit.Type != Income {
			t.Errorf("leg types = %s/%s, want expense/income", result.Withdrawal.Type, result.Deposit.Type)
		}
		if want := "Transfer to egp"; result.Withdrawal.Payee != want {
			t.Errorf("withdrawal payee = %q, want %q", result.Withdrawal.Payee, want)
		}

		// both legs must appear in the listing
		transactions, err := svc.Transactions(ctx, "u1", TransactionFilter{})
		if err != nil {
			t.Fatal(err)
		}
		if len(transactions) != 2 {
			t.Errorf("transactions = %d, want 2", len(transactions))
		}
	})

	t.Run("overpaying a debt flips it to an asset", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		cash := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)
		loan := mustCreateAccount(t, svc, "loan", Current, EGP, 300, true)

		result, err := svc.Transfer(ctx, "u1", TransferParams{
			FromAccountID: cash.ID, ToAccountID: loan.ID,
			Amount: decimal.NewFromInt(500), Currency: EGP,
		})
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if !result.DestinationFlipped {
			t.Error("DestinationFlipped = false, want true")
		}
		got, _ := store.Account(ctx, "u1", loan.ID)
		if got.IsLiability {
			t.Error("destination still a liability after overpayment")
		}
		if want := decimal.NewFromInt(200); !got.Balance.Equal(want) {
			t.Errorf("flipped balance = %s, want %s", got.Balance, want)
		}
	})

	t.Run("exact payoff keeps liability at zero", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		cash := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)
		loan := mustCreateAccount(t, svc, "loan", Current, EGP, 300, true)

		result, err := svc.Transfer(ctx, "u1", TransferParams{
			FromAccountID: cash.ID, ToAccountID: loan.ID,
			Amount: decimal.NewFromInt(300), Currency: EGP,
		})
		if err != nil {
			t.Fatalf("Transfer() error = %v", err)
		}
		if result.DestinationFlipped {
			t.Error("DestinationFlipped = true for an exact payoff")
		}
		got, _ := store.Account(ctx, "u1", loan.ID)
		if !got.IsLiability || !got.Balance.IsZero() {
			t.Errorf("account = liability %v balance %s, want liability at 0", got.IsLiability, got.Balance)
		}
	})

	t.Run("net worth is conserved", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		usd := mustCreateAccount(t, svc, "usd", Savings, USD, 200, false)
		egp := mustCreateAccount(t, svc, "egp", Current, EGP, 1000, false)

		rate, err := svc.Rates().GetCurrentRate(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		before, err := svc.Accounts(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		worthBefore := CalculateMetrics(before, rate).NetWorth

		if _, err := svc.Transfer(ctx, "u1", TransferParams{
			FromAccountID: usd.ID, ToAccountID: egp.ID,
			Amount: decimal.NewFromInt(50), Currency: USD,
		}); err != nil {
			t.Fatal(err)
		}

		after, err := svc.Accounts(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		worthAfter := CalculateMetrics(after, rate).NetWorth
		if !worthAfter.Equal(worthBefore) {
			t.Errorf("net worth changed: %s -> %s", worthBefore, worthAfter)
		}
	})
}

func TestCaptureSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("freezes accounts and rate", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)
		mustCreateAccount(t, svc, "usd", Savings, USD, 100, false)

		snap, err := svc.CaptureSnapshot(ctx, "u1", false)
		if err != nil {
			t.Fatalf("CaptureSnapshot() error = %v", err)
		}
		if len(snap.Entries) != 2 {
			t.Fatalf("entries = %d, want 2", len(snap.Entries))
		}
		if snap.RateID == "" {
			t.Error("snapshot has no rate reference")
		}
		if _, err := store.Rate(ctx, snap.RateID); err != nil {
			t.Errorf("referenced rate not persisted: %v", err)
		}
	})

	t.Run("history is immune to later mutations", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
		// drain the account after the capture
		if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
			AccountID: a.ID, Payee: "Shop", Amount: decimal.NewFromInt(900), Type: Expense,
		}); err != nil {
			t.Fatal(err)
		}

		page, err := svc.ListSnapshots(ctx, "u1", 1, 10)
		if err != nil {
			t.Fatalf("ListSnapshots() error = %v", err)
		}
		if len(page.Snapshots) != 1 {
			t.Fatalf("snapshots = %d, want 1", len(page.Snapshots))
		}
		if want := M(1000, EGP); !page.Snapshots[0].Metrics.LiquidBalance.Equal(want) {
			t.Errorf("historical liquid = %s, want frozen %s", page.Snapshots[0].Metrics.LiquidBalance, want)
		}
	})

	t.Run("captures are append-only by default", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
		n, err := store.CountSnapshots(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("snapshots = %d, want 2", n)
		}
	})

	t.Run("replace deletes same-day snapshots first", func(t *testing.T) {
		svc, store := newTestService(t, testNow)
		mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
		snap, err := svc.CaptureSnapshot(ctx, "u1", true)
		if err != nil {
			t.Fatal(err)
		}
		n, err := store.CountSnapshots(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("snapshots = %d, want 1", n)
		}
		remaining, err := store.Snapshots(ctx, "u1", 0, 10)
		if err != nil {
			t.Fatal(err)
		}
		if remaining[0].ID != snap.ID {
			t.Errorf("remaining snapshot = %s, want the replacement %s", remaining[0].ID, snap.ID)
		}
	})
}

func TestListSnapshotsPagination(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, testNow)
	mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

	// five snapshots on distinct days
	for i := 0; i < 5; i++ {
		day := testNow.AddDate(0, 0, -i)
		svc.now = func() time.Time { return day }
		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
	}
	svc.now = func() time.Time { return testNow }

	page, err := svc.ListSnapshots(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if page.TotalCount != 5 {
		t.Errorf("TotalCount = %d, want 5", page.TotalCount)
	}
	if !page.HasMore {
		t.Error("HasMore = false, want true")
	}
	if len(page.Snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(page.Snapshots))
	}
	if !page.Snapshots[0].Date.After(page.Snapshots[1].Date) {
		t.Errorf("page not newest-first: %s then %s", page.Snapshots[0].Date, page.Snapshots[1].Date)
	}

	last, err := svc.ListSnapshots(ctx, "u1", 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if last.HasMore {
		t.Error("HasMore = true on the last page")
	}
	if len(last.Snapshots) != 1 {
		t.Errorf("last page snapshots = %d, want 1", len(last.Snapshots))
	}
}

func TestSnapshotRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, testNow)
	mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

	capture := func(at time.Time) {
		svc.now = func() time.Time { return at }
		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
	}
	capture(testNow.AddDate(0, -8, 0)) // outside the default window
	capture(testNow.AddDate(0, -2, 0))
	capture(testNow.AddDate(0, 0, -3))
	svc.now = func() time.Time { return testNow }

	t.Run("defaults to trailing six months", func(t *testing.T) {
		points, err := svc.SnapshotRange(ctx, "u1", Date{}, Date{})
		if err != nil {
			t.Fatalf("SnapshotRange() error = %v", err)
		}
		if len(points) != 2 {
			t.Fatalf("points = %d, want 2", len(points))
		}
		if !points[0].Date.Before(points[1].Date) {
			t.Errorf("series not oldest-first: %s then %s", points[0].Date, points[1].Date)
		}
	})

	t.Run("explicit bounds are inclusive", func(t *testing.T) {
		day := DateOf(testNow.AddDate(0, 0, -3))
		points, err := svc.SnapshotRange(ctx, "u1", day, day)
		if err != nil {
			t.Fatal(err)
		}
		if len(points) != 1 {
			t.Errorf("points = %d, want 1", len(points))
		}
	})

	t.Run("empty range yields empty series", func(t *testing.T) {
		from := MustParseDate("2020-01-01")
		to := MustParseDate("2020-02-01")
		points, err := svc.SnapshotRange(ctx, "u1", from, to)
		if err != nil {
			t.Fatalf("SnapshotRange() error = %v", err)
		}
		if len(points) != 0 {
			t.Errorf("points = %d, want 0", len(points))
		}
	})
}

func TestDashboardMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("no history leaves changes at zero", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		d, err := svc.DashboardMetrics(ctx, "u1")
		if err != nil {
			t.Fatalf("DashboardMetrics() error = %v", err)
		}
		if want := M(1000, EGP); !d.Metrics.LiquidBalance.Equal(want) {
			t.Errorf("LiquidBalance = %s, want %s", d.Metrics.LiquidBalance, want)
		}
		if d.LiquidChangePct != 0 || d.NetWorthChangePct != 0 {
			t.Errorf("changes = %v/%v, want zero without history", d.LiquidChangePct, d.NetWorthChangePct)
		}
	})

	t.Run("changes compare against a month-old snapshot", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		// snapshot captured 40 days ago at liquid 1000
		then := testNow.AddDate(0, 0, -40)
		svc.now = func() time.Time { return then }
		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
		svc.now = func() time.Time { return testNow }

		// liquid grows to 1500
		if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
			AccountID: a.ID, Payee: "Salary", Amount: decimal.NewFromInt(500), Type: Income,
		}); err != nil {
			t.Fatal(err)
		}

		d, err := svc.DashboardMetrics(ctx, "u1")
		if err != nil {
			t.Fatalf("DashboardMetrics() error = %v", err)
		}
		if want := 50.0; d.LiquidChangePct != want {
			t.Errorf("LiquidChangePct = %v, want %v", d.LiquidChangePct, want)
		}
		if want := 50.0; d.NetWorthChangePct != want {
			t.Errorf("NetWorthChangePct = %v, want %v", d.NetWorthChangePct, want)
		}
	})

	t.Run("recent snapshots are not used for comparison", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)
		mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)

		// only a snapshot from 5 days ago: too recent to compare against
		then := testNow.AddDate(0, 0, -5)
		svc.now = func() time.Time { return then }
		if _, err := svc.CaptureSnapshot(ctx, "u1", false); err != nil {
			t.Fatal(err)
		}
		svc.now = func() time.Time { return testNow }

		d, err := svc.DashboardMetrics(ctx, "u1")
		if err != nil {
			t.Fatalf("DashboardMetrics() error = %v", err)
		}
		if d.LiquidChangePct != 0 {
			t.Errorf("LiquidChangePct = %v, want 0", d.LiquidChangePct)
		}
	})
}

func TestDisplayAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, testNow)
	mustCreateAccount(t, svc, "usd", Savings, USD, 100, false)

	displays, err := svc.DisplayAccounts(ctx, "u1", EGP)
	if err != nil {
		t.Fatalf("DisplayAccounts() error = %v", err)
	}
	if len(displays) != 1 {
		t.Fatalf("displays = %d, want 1", len(displays))
	}
	d := displays[0]
	if want := M(5000, EGP); !d.ConvertedBalance.Equal(want) {
		t.Errorf("ConvertedBalance = %s, want %s", d.ConvertedBalance, want)
	}
	// projection must not touch the stored balance
	accounts, err := svc.Accounts(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if want := decimal.NewFromInt(100); !accounts[0].Balance.Equal(want) {
		t.Errorf("stored balance = %s, want untouched %s", accounts[0].Balance, want)
	}
}

func TestDisplayTransactions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, testNow)
	a := mustCreateAccount(t, svc, "usd", Savings, USD, 100, false)

	if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
		AccountID: a.ID, Payee: "Freelance", Amount: decimal.NewFromInt(20), Type: Income,
	}); err != nil {
		t.Fatal(err)
	}

	displays, err := svc.DisplayTransactions(ctx, "u1", TransactionFilter{}, EGP)
	if err != nil {
		t.Fatalf("DisplayTransactions() error = %v", err)
	}
	if len(displays) != 1 {
		t.Fatalf("displays = %d, want 1", len(displays))
	}
	d := displays[0]
	if want := M(1000, EGP); !d.ConvertedAmount.Equal(want) {
		t.Errorf("ConvertedAmount = %s, want %s", d.ConvertedAmount, want)
	}
	if want := M(20, USD); !d.Money().Equal(want) {
		t.Errorf("Amount = %s, want %s", d.Money(), want)
	}
}

func TestDeleteAccountRemovesTransactions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, testNow)
	a := mustCreateAccount(t, svc, "cash", Current, EGP, 1000, false)
	b := mustCreateAccount(t, svc, "wallet", Current, EGP, 500, false)

	if _, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
		AccountID: a.ID, Payee: "Shop", Amount: decimal.NewFromInt(10), Type: Expense,
	}); err != nil {
		t.Fatal(err)
	}
	keep, err := svc.RecordTransaction(ctx, "u1", TransactionParams{
		AccountID: b.ID, Payee: "Shop", Amount: decimal.NewFromInt(10), Type: Expense,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteAccount(ctx, "u1", a.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	transactions, err := svc.Transactions(ctx, "u1", TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 1 || transactions[0].ID != keep.ID {
		t.Errorf("transactions after delete = %d, want only the other account's", len(transactions))
	}
}
