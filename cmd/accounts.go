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

type accountsCmd struct {
	currency string
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts with balances" }
func (*accountsCmd) Usage() string {
	return `accounts [-c <currency>]

  Lists all accounts. With -c, balances are also shown converted to the
  given currency at the latest exchange rate.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", string(tracker.BaseCurrency), "display currency for converted balances")
}

func (c *accountsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	target, err := tracker.ParseCurrency(c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	accounts, err := svc.DisplayAccounts(ctx, User(), target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	Render(renderer.AccountsMarkdown(accounts))
	return subcommands.ExitSuccess
}

// accountCmd creates, updates or deletes a single account.
type accountCmd struct {
	name      string
	kind      string
	currency  string
	balance   string
	liability bool
	update    string
	remove    string
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "create, update or delete an account" }
func (*accountCmd) Usage() string {
	return `account -name <name> -type <savings|current> [-c <currency>] [-balance <amount>] [-liability]
account -update <id> [-name <name>] [-type <type>] [-liability]
account -rm <id>

  Creates a new account, updates an existing one, or deletes one together
  with its transactions.

Usage Examples:
# A USD savings account starting at 2500.
$ ftrack account -name "USD Savings" -type savings -c USD -balance 2500

# A credit card is a current-type liability.
$ ftrack account -name "Credit Card" -type current -liability
`
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "account name")
	f.StringVar(&c.kind, "type", "current", "account type: savings or current")
	f.StringVar(&c.currency, "c", string(tracker.BaseCurrency), "account currency")
	f.StringVar(&c.balance, "balance", "0", "starting balance")
	f.BoolVar(&c.liability, "liability", false, "the account tracks a debt")
	f.StringVar(&c.update, "update", "", "id of the account to update")
	f.StringVar(&c.remove, "rm", "", "id of the account to delete")
}

func (c *accountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.remove != "" {
		if err := svc.DeleteAccount(ctx, User(), c.remove); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting account: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Deleted account %s and its transactions\n", c.remove)
		return subcommands.ExitSuccess
	}

	params, status := c.params(f)
	if status != subcommands.ExitSuccess {
		return status
	}

	if c.update != "" {
		a, err := svc.UpdateAccount(ctx, User(), c.update, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error updating account: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Updated account %s (%s)\n", a.Name, a.ID)
		return subcommands.ExitSuccess
	}

	a, err := svc.CreateAccount(ctx, User(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating account: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created account %s (%s) with balance %s\n", a.Name, a.ID, a.Money())
	return subcommands.ExitSuccess
}

func (c *accountCmd) params(f *flag.FlagSet) (tracker.AccountParams, subcommands.ExitStatus) {
	kind, err := tracker.ParseAccountType(c.kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return tracker.AccountParams{}, subcommands.ExitUsageError
	}
	currency, err := tracker.ParseCurrency(c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return tracker.AccountParams{}, subcommands.ExitUsageError
	}
	balance, err := decimal.NewFromString(c.balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid balance %q: %v\n", c.balance, err)
		return tracker.AccountParams{}, subcommands.ExitUsageError
	}
	return tracker.AccountParams{
		Name:        c.name,
		Type:        kind,
		Currency:    currency,
		Balance:     balance,
		IsLiability: c.liability,
	}, subcommands.ExitSuccess
}
