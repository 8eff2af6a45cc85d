package tracker

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Convert converts an amount between two supported currencies using the
// given rate record. Conversion goes through the base currency: EGP amounts
// pass unchanged, USD multiplies by USDRate, Gold grams multiply by
// GoldRate, and the reverse leg divides.
//
// When the source and target currencies are equal the amount is returned
// exactly, whatever the rates. A conversion that needs a missing or
// non-positive rate fails with ErrInvalidRate; a currency outside the
// enumerated set fails with ErrUnknownCurrency.
func Convert(amount Money, to Currency, rate ExchangeRate) (Money, error) {
	from := amount.Currency()
	if err := ValidateCurrency(from); err != nil {
		return Money{}, err
	}
	if err := ValidateCurrency(to); err != nil {
		return Money{}, err
	}
	if from == to {
		return amount, nil
	}

	base := amount.Amount()
	if from != BaseCurrency {
		r, err := rate.For(from)
		if err != nil {
			return Money{}, err
		}
		base = base.Mul(r)
	}
	if to != BaseCurrency {
		r, err := rate.For(to)
		if err != nil {
			return Money{}, err
		}
		base = base.Div(r)
	}
	return M(base, to), nil
}

// For returns the base-units-per-unit rate for a non-base currency, or
// ErrInvalidRate if it is missing or non-positive.
func (r ExchangeRate) For(c Currency) (decimal.Decimal, error) {
	var v decimal.Decimal
	switch c {
	case USD:
		v = r.USDRate
	case Gold:
		v = r.GoldRate
	case EGP:
		return decimal.NewFromInt(1), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, c)
	}
	if !v.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s rate is %s", ErrInvalidRate, c, v)
	}
	return v, nil
}
