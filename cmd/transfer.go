package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	tracker "github.com/mohamedar97/finance-tracker"
)

type transferCmd struct {
	from        string
	to          string
	amount      string
	currency    string
	description string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move money between two accounts" }
func (*transferCmd) Usage() string {
	return `transfer -from <account-id> -to <account-id> -amount <amount> [-c <currency>]

  Moves money between two accounts, converting through the latest exchange
  rate when the accounts hold different currencies. Paying more than a debt's
  balance turns the remainder into an asset.

Usage Examples:
# Move 100 USD from the USD account into the EGP account.
$ ftrack transfer -from usd1 -to egp1 -amount 100 -c USD
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "source account id")
	f.StringVar(&c.to, "to", "", "destination account id")
	f.StringVar(&c.amount, "amount", "", "amount to transfer")
	f.StringVar(&c.currency, "c", string(tracker.BaseCurrency), "currency the amount is denominated in")
	f.StringVar(&c.description, "desc", "", "optional description")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}
	currency, err := tracker.ParseCurrency(c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	result, err := svc.Transfer(ctx, User(), tracker.TransferParams{
		FromAccountID: c.from,
		ToAccountID:   c.to,
		Amount:        amount,
		Currency:      currency,
		Description:   c.description,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error transferring: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Transferred %s from %s to %s\n",
		tracker.M(result.Withdrawal.Amount, result.Withdrawal.Currency),
		result.Source.Name, result.Destination.Name)
	if result.DestinationFlipped {
		fmt.Printf("%s is paid off; the remaining %s is now an asset\n",
			result.Destination.Name, result.Destination.Money())
	}
	return subcommands.ExitSuccess
}
