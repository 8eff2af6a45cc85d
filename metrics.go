package tracker

// Metrics are the aggregate financial figures derived from a set of
// accounts, all expressed in the base currency. The same calculation backs
// the live dashboard and the historical snapshot replay; there is exactly
// one definition of how metrics are computed.
type Metrics struct {
	// TotalAssets sums converted balances over non-liability accounts.
	TotalAssets Money
	// TotalLiabilities sums converted balances over liability accounts.
	TotalLiabilities Money
	// NetWorth is TotalAssets minus TotalLiabilities.
	NetWorth Money
	// TotalSavings is the signed sum over Savings-type accounts: assets add,
	// liabilities subtract.
	TotalSavings Money
	// LiquidBalance is the signed sum over Current-type accounts: assets
	// add, liabilities subtract.
	LiquidBalance Money
}

// CalculateMetrics derives aggregate metrics from accounts using the given
// rate record. An account whose balance cannot be converted (unknown
// currency, unusable rate) contributes zero instead of failing the whole
// aggregation: robustness over strictness on this read path, so one
// malformed record cannot abort a dashboard render. An empty account list
// yields all-zero metrics.
func CalculateMetrics(accounts []Account, rate ExchangeRate) Metrics {
	assets := M(0, BaseCurrency)
	liabilities := M(0, BaseCurrency)
	savings := M(0, BaseCurrency)
	liquid := M(0, BaseCurrency)

	for _, a := range accounts {
		converted, err := Convert(a.Money(), BaseCurrency, rate)
		if err != nil {
			continue // contributes zero
		}
		signed := converted
		if a.IsLiability {
			liabilities = liabilities.Add(converted)
			signed = converted.Neg()
		} else {
			assets = assets.Add(converted)
		}
		switch a.Type {
		case Savings:
			savings = savings.Add(signed)
		case Current:
			liquid = liquid.Add(signed)
		}
	}

	return Metrics{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		NetWorth:         assets.Sub(liabilities),
		TotalSavings:     savings,
		LiquidBalance:    liquid,
	}
}
