// Package renderer turns tracker reports into markdown documents.
package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	tracker "github.com/mohamedar97/finance-tracker"
)

// DashboardMarkdown renders the current financial position and its change
// against the reference snapshot.
func DashboardMarkdown(on tracker.Date, d *tracker.Dashboard) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Dashboard on %s", on))
	doc.PlainText(fmt.Sprintf("Net Worth: %s", d.Metrics.NetWorth))

	doc.H2("Metrics")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Metric", "Value", "Change"},
		Rows: [][]string{
			{"Liquid Balance", d.Metrics.LiquidBalance.String(), formatPct(d.LiquidChangePct)},
			{"Total Savings", d.Metrics.TotalSavings.String(), formatPct(d.SavingsChangePct)},
			{"Total Assets", d.Metrics.TotalAssets.String(), ""},
			{"Total Liabilities", d.Metrics.TotalLiabilities.String(), ""},
			{"Net Worth", d.Metrics.NetWorth.String(), formatPct(d.NetWorthChangePct)},
		},
	})

	doc.H2("Rates")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Currency", "Rate"},
		Rows: [][]string{
			{"USD", d.Rate.USDRate.String()},
			{"Gold (g)", d.Rate.GoldRate.String()},
		},
	})

	return doc.String()
}

// AccountsMarkdown renders account balances, converted to the display
// currency when it differs from the account currency.
func AccountsMarkdown(accounts []tracker.DisplayAccount) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Accounts")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Account", "Type", "Balance", "Converted"},
		Rows:      [][]string{},
	}
	for _, a := range accounts {
		kind := string(a.Type)
		if a.IsLiability {
			kind += " (liability)"
		}
		table.Rows = append(table.Rows, []string{
			a.Name,
			kind,
			a.Money().String(),
			a.ConvertedBalance.String(),
		})
	}
	doc.Table(table)

	return doc.String()
}

// TransactionsMarkdown renders a transaction listing, newest first.
func TransactionsMarkdown(transactions []tracker.Transaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Transactions")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"Date", "Payee", "Category", "Amount"},
		Rows:      [][]string{},
	}
	for _, tx := range transactions {
		amount := tracker.M(tx.Amount, tx.Currency)
		if tx.Type == tracker.Expense {
			amount = amount.Neg()
		}
		table.Rows = append(table.Rows, []string{
			tx.Date.String(),
			tx.Payee,
			tx.Category,
			amount.SignedString(),
		})
	}
	doc.Table(table)

	return doc.String()
}

// DisplayTransactionsMarkdown renders transactions with both the native
// amount and its projection into the display currency.
func DisplayTransactionsMarkdown(transactions []tracker.DisplayTransaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Transactions")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Payee", "Category", "Amount", "Converted"},
		Rows:      [][]string{},
	}
	for _, tx := range transactions {
		amount, converted := tx.Money(), tx.ConvertedAmount
		if tx.Type == tracker.Expense {
			amount, converted = amount.Neg(), converted.Neg()
		}
		table.Rows = append(table.Rows, []string{
			tx.Date.String(),
			tx.Payee,
			tx.Category,
			amount.SignedString(),
			converted.SignedString(),
		})
	}
	doc.Table(table)

	return doc.String()
}

// HistoryMarkdown renders the paginated snapshot listing.
func HistoryMarkdown(page *tracker.SnapshotPage) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Snapshot History")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
		},
		Header: []string{"Date", "Liquid", "Savings", "Net Worth", "USD Rate"},
		Rows:   [][]string{},
	}
	for _, s := range page.Snapshots {
		table.Rows = append(table.Rows, []string{
			s.Date.String(),
			s.Metrics.LiquidBalance.String(),
			s.Metrics.TotalSavings.String(),
			s.Metrics.NetWorth.String(),
			s.Metrics.USDRate.String(),
		})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("%d snapshots total", page.TotalCount))
	if page.HasMore {
		doc.PlainText("More pages available.")
	}

	return doc.String()
}

// SeriesMarkdown renders the metric series over a date range, oldest first.
func SeriesMarkdown(from, to tracker.Date, points []tracker.SnapshotPoint) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Metrics from %s to %s", from, to))
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Liquid", "Savings", "Net Worth"},
		Rows:      [][]string{},
	}
	for _, p := range points {
		table.Rows = append(table.Rows, []string{
			p.Date.String(),
			p.Metrics.LiquidBalance.String(),
			p.Metrics.TotalSavings.String(),
			p.Metrics.NetWorth.String(),
		})
	}
	doc.Table(table)

	return doc.String()
}

// RatesMarkdown renders a single exchange rate record.
func RatesMarkdown(rate tracker.ExchangeRate) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Exchange Rates")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Currency", "Rate"},
		Rows: [][]string{
			{"USD", rate.USDRate.String()},
			{"Gold (g)", rate.GoldRate.String()},
		},
	})
	doc.PlainText(fmt.Sprintf("Fetched at %s", rate.Timestamp.Format("2006-01-02 15:04")))

	return doc.String()
}

func formatPct(pct float64) string {
	if pct == 0 {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}
