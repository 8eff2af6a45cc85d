package tracker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a user's balance-holding record. Balance is stored in the
// account's own currency and is a magnitude: liability semantics invert the
// sign of effects during aggregation and transfers, never the stored value.
type Account struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	Currency    Currency        `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	IsLiability bool            `json:"isLiability"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Money returns the account balance as a Money value in its own currency.
func (a Account) Money() Money { return M(a.Balance, a.Currency) }

// Transaction records a single income or expense against an account. Every
// persisted transaction has already been reflected in its account's balance;
// the two are written in one atomic unit.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	AccountID   string          `json:"accountId"`
	Payee       string          `json:"payee"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Date        Date            `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Money returns the transaction amount as a Money value.
func (t Transaction) Money() Money { return M(t.Amount, t.Currency) }

// balanceDelta is the single place where a transaction's effect on its
// account's stored balance is decided. Income adds to an asset but reduces a
// debt; Expense mirrors that. Reversing a transaction negates the delta.
//
// This sign rule must never be duplicated at call sites.
func balanceDelta(txType TransactionType, amount decimal.Decimal, isLiability bool) decimal.Decimal {
	delta := amount
	if txType == Expense {
		delta = delta.Neg()
	}
	if isLiability {
		delta = delta.Neg()
	}
	return delta
}

// applyTransaction returns the account with the transaction's balance effect
// applied (reverse=false) or reversed (reverse=true).
func applyTransaction(a Account, tx Transaction, reverse bool) Account {
	delta := balanceDelta(tx.Type, tx.Amount, a.IsLiability)
	if reverse {
		delta = delta.Neg()
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	return a
}

// DisplayAccount is a pure projection of an Account into a display currency
// at a stated rate. The underlying Account is never mutated for display.
type DisplayAccount struct {
	Account
	DisplayCurrency  Currency
	ConvertedBalance Money
}

// Display projects the account into the target currency using the given
// rate. An account whose balance cannot be converted (unknown currency or
// unusable rate) projects to a zero converted balance rather than failing,
// so one malformed record cannot abort a whole listing.
func (a Account) Display(target Currency, rate ExchangeRate) DisplayAccount {
	converted, err := Convert(a.Money(), target, rate)
	if err != nil {
		converted = M(0, target)
	}
	return DisplayAccount{Account: a, DisplayCurrency: target, ConvertedBalance: converted}
}

// DisplayTransaction is the same projection for a transaction's amount.
type DisplayTransaction struct {
	Transaction
	DisplayCurrency Currency
	ConvertedAmount Money
}

// Display projects the transaction amount into the target currency using
// the given rate, absorbing conversion failures as zero like the account
// projection does.
func (t Transaction) Display(target Currency, rate ExchangeRate) DisplayTransaction {
	converted, err := Convert(t.Money(), target, rate)
	if err != nil {
		converted = M(0, target)
	}
	return DisplayTransaction{Transaction: t, DisplayCurrency: target, ConvertedAmount: converted}
}
