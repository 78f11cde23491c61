package tax

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Bracket applies Rate to the whole profit when profit <= UpTo. A zero UpTo
// marks the open-ended top bracket.
type Bracket struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// Policy holds the capital-gains constants in force from Year onwards.
type Policy struct {
	Year int

	SwingTradeExemption decimal.Decimal
	SwingTradeRate      decimal.Decimal

	DayTradeRate            decimal.Decimal
	DayTradeWithholdingRate decimal.Decimal

	REITFundRate decimal.Decimal

	CryptoExemption decimal.Decimal
	CryptoBrackets  []Bracket

	// MinimumPayable is the smallest DARF amount that can be paid; smaller
	// amounts carry over to the next month.
	MinimumPayable decimal.Decimal

	StockDarfCode  string
	CryptoDarfCode string
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var policies = []Policy{
	{
		Year:                    2025,
		SwingTradeExemption:     d("20000"),
		SwingTradeRate:          d("0.15"),
		DayTradeRate:            d("0.20"),
		DayTradeWithholdingRate: d("0.01"),
		REITFundRate:            d("0.20"),
		CryptoExemption:         d("35000"),
		CryptoBrackets: []Bracket{
			{UpTo: d("5000000"), Rate: d("0.15")},
			{UpTo: d("10000000"), Rate: d("0.175")},
			{UpTo: d("30000000"), Rate: d("0.20")},
			{Rate: d("0.225")},
		},
		MinimumPayable: d("10"),
		StockDarfCode:  "6015",
		CryptoDarfCode: "4600",
	},
}

// Register adds or replaces the policy for p.Year.
func Register(p Policy) {
	for i := range policies {
		if policies[i].Year == p.Year {
			policies[i] = p
			return
		}
	}
	policies = append(policies, p)
	sort.Slice(policies, func(i, j int) bool { return policies[i].Year < policies[j].Year })
}

// PolicyFor returns the newest policy effective in year. Years before the
// first registered policy use the oldest one.
func PolicyFor(year int) Policy {
	selected := policies[0]
	for _, p := range policies {
		if p.Year <= year {
			selected = p
		}
	}
	return selected
}

// CryptoRate returns the single bracket rate the whole profit falls into.
func (p Policy) CryptoRate(profit decimal.Decimal) decimal.Decimal {
	for _, b := range p.CryptoBrackets {
		if b.UpTo.IsZero() || profit.LessThanOrEqual(b.UpTo) {
			return b.Rate
		}
	}
	return p.CryptoBrackets[len(p.CryptoBrackets)-1].Rate
}
