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

type dashboardCmd struct{}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "display current metrics and their recent change" }
func (*dashboardCmd) Usage() string {
	return `dashboard

  Displays the current financial position in the base currency, with change
  percentages against the most recent snapshot at least a month old.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {}

func (c *dashboardCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	d, err := svc.DashboardMetrics(ctx, User())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building dashboard: %v\n", err)
		return subcommands.ExitFailure
	}
	Render(renderer.DashboardMarkdown(tracker.Today(), &d))
	return subcommands.ExitSuccess
}

type ratesCmd struct {
	refresh bool
	usd     string
	gold    string
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "show, refresh or set exchange rates" }
func (*ratesCmd) Usage() string {
	return `rates [-refresh]
rates -usd <rate> -gold <rate>

  Shows the current exchange rates, fetching fresh ones when the cached
  rates are older than a day. With -refresh, fetches regardless of age.
  With -usd and -gold, records a manual rate instead of fetching.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "fetch fresh rates even when the cache is fresh")
	f.StringVar(&c.usd, "usd", "", "manual USD rate in base currency")
	f.StringVar(&c.gold, "gold", "", "manual gold rate per gram in base currency")
}

func (c *ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if (c.usd == "") != (c.gold == "") {
		fmt.Fprintln(os.Stderr, "both -usd and -gold must be provided for a manual rate")
		return subcommands.ExitUsageError
	}
	if c.usd != "" {
		usd, err := decimal.NewFromString(c.usd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid USD rate %q: %v\n", c.usd, err)
			return subcommands.ExitUsageError
		}
		gold, err := decimal.NewFromString(c.gold)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid gold rate %q: %v\n", c.gold, err)
			return subcommands.ExitUsageError
		}
		rate, err := svc.Rates().RecordManualRate(ctx, usd, gold)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recording rate: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Recorded rate %s: USD %s, Gold %s\n", rate.ID, rate.USDRate, rate.GoldRate)
		return subcommands.ExitSuccess
	}

	rate, err := svc.Rates().GetCurrentRate(ctx, c.refresh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting rates: %v\n", err)
		return subcommands.ExitFailure
	}
	Render(renderer.RatesMarkdown(rate))
	return subcommands.ExitSuccess
}
