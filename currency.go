package tracker

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// Currency is one of the closed set of currencies the tracker supports.
// Balances are always stored in their account's currency; aggregation
// converts to the base currency EGP.
type Currency string

const (
	// EGP is the base currency. All metrics are expressed in it.
	EGP Currency = "EGP"
	// USD converts to base through ExchangeRate.USDRate.
	USD Currency = "USD"
	// Gold is denominated in grams of 21-carat gold and converts to base
	// through ExchangeRate.GoldRate (EGP per gram).
	Gold Currency = "Gold"
)

// BaseCurrency is the currency every aggregate metric is expressed in.
const BaseCurrency = EGP

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{EGP, USD, Gold}

func init() {
	// Gold is not an ISO currency; register it with go-money so formatting
	// works like any other code. Gram amounts keep three decimals.
	money.AddCurrency(string(Gold), "g", "1 $", ".", ",", 3)
}

func (c Currency) String() string { return string(c) }

// ParseCurrency returns the currency for a code, case-insensitively, or
// ErrUnknownCurrency.
func ParseCurrency(s string) (Currency, error) {
	for _, c := range Currencies {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
}

// ValidateCurrency checks that the code belongs to the enumerated set.
// Unknown codes are an error, never a silent pass-through.
func ValidateCurrency(c Currency) error {
	_, err := ParseCurrency(string(c))
	return err
}

// AccountType is the closed set of account types.
type AccountType string

const (
	// Savings accounts feed the savings metric.
	Savings AccountType = "Savings"
	// Current (checking) accounts feed the liquid balance metric.
	Current AccountType = "Current"
)

// AccountTypes lists the supported account types.
var AccountTypes = []AccountType{Savings, Current}

func (t AccountType) String() string { return string(t) }

// ParseAccountType parses a string into an AccountType, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	for _, t := range AccountTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown account type: %q", s)
}

// TransactionType is either Income or Expense.
type TransactionType string

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

func (t TransactionType) String() string { return string(t) }

// ParseTransactionType parses a string into a TransactionType,
// case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range []TransactionType{Income, Expense} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type: %q", s)
}
