// Package tracker provides the core engine of a multi-currency personal
// finance tracker: accounts and transactions denominated in a small closed
// set of currencies, aggregate financial metrics derived from them, and
// dated snapshots that freeze balances together with the exchange rate in
// effect so that historical figures stay stable as live rates move.
//
// The core functionalities include:
//   - Currency Conversion: converting amounts between EGP (the base
//     currency), USD, and Gold grams through a pair of reference rates.
//   - Metrics Calculation: a single aggregation rule set producing total
//     assets, liabilities, net worth, savings, and liquid balance, applied
//     identically to live accounts and to replayed snapshots.
//   - Rate Sourcing: a 24-hour cached, append-only record of exchange rates
//     fetched from a web-grounded external source.
//   - Snapshot Capture and Replay: atomic point-in-time copies of all
//     account balances, later re-aggregated for history lists and trend
//     series.
//   - Balance Integrity: centralized sign rules for income, expense, and
//     transfers, including liability accounts where effects invert.
//
// Persistence is abstracted behind the Store interface; in-memory, JSONL
// file, and Postgres implementations are provided. This package serves as
// the foundational logic for the `ftrack` command-line tool.
package tracker
