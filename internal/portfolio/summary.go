package portfolio

import (
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize builds the portfolio overview. Only assets with a positive
// remaining quantity appear in the distribution.
func Summarize(ops []domain.Operation) domain.PortfolioSummary {
	summary := domain.PortfolioSummary{
		TotalInvested:        decimal.Zero,
		TotalCurrentValue:    decimal.Zero,
		TotalProfitLoss:      decimal.Zero,
		ProfitLossPercentage: decimal.Zero,
		AssetsDistribution:   map[string]decimal.Decimal{},
	}
	if len(ops) == 0 {
		return summary
	}

	for _, op := range ops {
		if op.IsBuy() {
			summary.TotalInvested = summary.TotalInvested.Add(op.TotalCost)
		}
	}

	realized := decimal.Zero
	for _, position := range Positions(ops) {
		realized = realized.Add(position.RealizedProfit)
		if position.RemainingQuantity.IsPositive() {
			summary.AssetsDistribution[position.AssetCode] = position.CurrentPositionValue
			summary.TotalCurrentValue = summary.TotalCurrentValue.Add(position.CurrentPositionValue)
		}
	}

	summary.TotalProfitLoss = realized.Add(summary.TotalCurrentValue.Sub(summary.TotalInvested))
	if summary.TotalInvested.IsPositive() {
		summary.ProfitLossPercentage = summary.TotalProfitLoss.Div(summary.TotalInvested).Mul(hundred)
	}

	return summary
}
