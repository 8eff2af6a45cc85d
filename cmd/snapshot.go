package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	tracker "github.com/mohamedar97/finance-tracker"
	"github.com/mohamedar97/finance-tracker/renderer"
)

type snapshotCmd struct {
	replace bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "capture a snapshot of all account balances" }
func (*snapshotCmd) Usage() string {
	return `snapshot [-replace]

  Freezes every account balance together with the current exchange rate.
  With -replace, any snapshot already captured today is replaced.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.replace, "replace", false, "replace today's snapshot if one exists")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	snap, err := svc.CaptureSnapshot(ctx, User(), c.replace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error capturing snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Captured snapshot %s on %s with %d accounts\n", snap.ID, snap.Date, len(snap.Entries))
	return subcommands.ExitSuccess
}

type historyCmd struct {
	page     int
	pageSize int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display past snapshots with their metrics" }
func (*historyCmd) Usage() string {
	return `history [-page <n>] [-size <n>]

  Displays captured snapshots, newest first, with the metrics each snapshot
  had at capture time.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.page, "page", 1, "page number, starting at 1")
	f.IntVar(&c.pageSize, "size", 10, "snapshots per page")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	page, err := svc.ListSnapshots(ctx, User(), c.page, c.pageSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing snapshots: %v\n", err)
		return subcommands.ExitFailure
	}
	Render(renderer.HistoryMarkdown(&page))
	return subcommands.ExitSuccess
}

type seriesCmd struct {
	from string
	to   string
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "display metric series over a date range" }
func (*seriesCmd) Usage() string {
	return `series [-from <date>] [-to <date>]

  Displays the metric series derived from snapshots in the range, oldest
  first. Defaults to the trailing six months.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "range start (YYYY-MM-DD)")
	f.StringVar(&c.to, "to", "", "range end (YYYY-MM-DD)")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var from, to tracker.Date
	var err error
	if c.from != "" {
		if from, err = tracker.ParseDate(c.from); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.to != "" {
		if to, err = tracker.ParseDate(c.to); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	svc, err := NewService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	points, err := svc.SnapshotRange(ctx, User(), from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building series: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(points) == 0 {
		fmt.Println("No snapshots in range.")
		return subcommands.ExitSuccess
	}
	Render(renderer.SeriesMarkdown(points[0].Date, points[len(points)-1].Date, points))
	return subcommands.ExitSuccess
}
