package tracker

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is; the
// functions returning them wrap with additional context.
var (
	// ErrInvalidRate reports a missing or non-positive exchange rate where a
	// conversion actually needs one.
	ErrInvalidRate = errors.New("invalid exchange rate")

	// ErrUnknownCurrency reports a currency code outside the enumerated set.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrRateFetchFailed reports that the external rate source was
	// unreachable or its response unparsable. Callers must not fall back to
	// stale or zero rates.
	ErrRateFetchFailed = errors.New("rate fetch failed")

	// ErrRateNotFound reports a missing historical rate record.
	ErrRateNotFound = errors.New("rate not found")

	// ErrUnauthorized reports a core operation invoked without a resolved
	// user identity.
	ErrUnauthorized = errors.New("unauthorized")

	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSnapshotNotFound    = errors.New("snapshot not found")

	// ErrSameAccountTransfer rejects a transfer whose source and destination
	// are the same account.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// ErrInsufficientBalance rejects a withdrawal larger than the source
	// account's balance in its own currency.
	ErrInsufficientBalance = errors.New("insufficient balance in source account")
)
