package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	tracker "github.com/mohamedar97/finance-tracker"
	"github.com/mohamedar97/finance-tracker/renderer"
)

type txCmd struct {
	account     string
	payee       string
	amount      string
	kind        string
	category    string
	description string
	date        string
	remove      string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "record or delete a transaction" }
func (*txCmd) Usage() string {
	return `tx -a <account-id> -payee <payee> -amount <amount> [-type <income|expense>] [-category <cat>] [-d <date>]
tx -rm <id>

  Records an income or expense on an account, in the account's currency.
  The account balance is adjusted atomically with the record.

Usage Examples:
# 150 spent on groceries yesterday.
$ ftrack tx -a acc1 -payee "Carrefour" -amount 150 -type expense -category groceries -d 2026-08-28
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "account id")
	f.StringVar(&c.payee, "payee", "", "payee or source of the transaction")
	f.StringVar(&c.amount, "amount", "", "transaction amount, always positive")
	f.StringVar(&c.kind, "type", "expense", "transaction type: income or expense")
	f.StringVar(&c.category, "category", "", "free-form category")
	f.StringVar(&c.description, "desc", "", "optional description")
	f.StringVar(&c.date, "d", tracker.Today().String(), "transaction date (YYYY-MM-DD)")
	f.StringVar(&c.remove, "rm", "", "id of the transaction to delete")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.remove != "" {
		if err := svc.DeleteTransaction(ctx, User(), c.remove); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting transaction: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Deleted transaction %s\n", c.remove)
		return subcommands.ExitSuccess
	}

	kind, err := tracker.ParseTransactionType(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}
	day, err := tracker.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	tx, err := svc.RecordTransaction(ctx, User(), tracker.TransactionParams{
		AccountID:   c.account,
		Payee:       c.payee,
		Amount:      amount,
		Type:        kind,
		Category:    c.category,
		Description: c.description,
		Date:        day,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s of %s on %s (%s)\n", tx.Type, tracker.M(tx.Amount, tx.Currency), tx.Date, tx.ID)
	return subcommands.ExitSuccess
}

type transactionsCmd struct {
	account  string
	kind     string
	from     string
	to       string
	currency string
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list transactions" }
func (*transactionsCmd) Usage() string {
	return `transactions [-a <account-id>] [-type <income|expense>] [-from <date>] [-to <date>] [-c <currency>]

  Lists transactions, newest first, optionally filtered. With -c each
  amount is also shown converted into that currency at the current rate.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "only transactions of this account")
	f.StringVar(&c.kind, "type", "", "only income or expense")
	f.StringVar(&c.from, "from", "", "only transactions on or after this date")
	f.StringVar(&c.to, "to", "", "only transactions on or before this date")
	f.StringVar(&c.currency, "c", "", "also show amounts converted into this currency")
}

func (c *transactionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var filter tracker.TransactionFilter
	filter.AccountID = c.account
	if c.kind != "" {
		kind, err := tracker.ParseTransactionType(c.kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		filter.Type = kind
	}
	if c.from != "" {
		day, err := tracker.ParseDate(c.from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		filter.From = day
	}
	if c.to != "" {
		day, err := tracker.ParseDate(c.to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		filter.To = day
	}

	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.currency != "" {
		target, err := tracker.ParseCurrency(c.currency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		displays, err := svc.DisplayTransactions(ctx, User(), filter, target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
			return subcommands.ExitFailure
		}
		Render(renderer.DisplayTransactionsMarkdown(displays))
		return subcommands.ExitSuccess
	}

	transactions, err := svc.Transactions(ctx, User(), filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	Render(renderer.TransactionsMarkdown(transactions))
	return subcommands.ExitSuccess
}
