package portfolio

import (
	"sort"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
)

// Compute derives the cost basis of one asset from its operations.
//
// The average cost is global: total cost of every buy divided by total
// quantity bought, applied uniformly to every sale. It is not lot-by-lot
// FIFO. Oversold positions are not rejected; remaining quantity and position
// value simply go negative.
func Compute(assetCode string, ops []domain.Operation) domain.CostBasisResult {
	buys, sells := partition(ops)

	totalQuantity := decimal.Zero
	totalCost := decimal.Zero
	for _, op := range buys {
		totalQuantity = totalQuantity.Add(op.Quantity)
		totalCost = totalCost.Add(op.TotalCost)
	}

	averageCost := decimal.Zero
	if totalQuantity.IsPositive() {
		averageCost = totalCost.Div(totalQuantity)
	}

	result := domain.CostBasisResult{
		AssetCode:      assetCode,
		AverageCost:    averageCost,
		RealizedProfit: decimal.Zero,
	}
	if len(ops) > 0 {
		result.AssetType = ops[0].AssetType
	}

	remaining := totalQuantity
	for _, op := range sells {
		saleValue := op.Value()
		costBasis := op.Quantity.Mul(averageCost)
		profit := saleValue.Sub(costBasis)

		result.RealizedProfit = result.RealizedProfit.Add(profit)
		remaining = remaining.Sub(op.Quantity)

		result.Sales = append(result.Sales, domain.RealizedSale{
			OperationID:   op.ID,
			Date:          op.OperationDate,
			AssetType:     op.AssetType,
			TradeCategory: op.TradeCategory,
			Quantity:      op.Quantity,
			SaleValue:     saleValue,
			CostBasis:     costBasis,
			Profit:        profit,
		})
	}

	result.RemainingQuantity = remaining
	result.CurrentPositionValue = remaining.Mul(averageCost)

	return result
}

// partition splits ops into buys and sells, each stable-sorted by date so
// same-day operations keep their input order.
func partition(ops []domain.Operation) (buys, sells []domain.Operation) {
	for _, op := range ops {
		switch op.Kind {
		case domain.Buy:
			buys = append(buys, op)
		case domain.Sell:
			sells = append(sells, op)
		}
	}

	byDate := func(s []domain.Operation) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].OperationDate.Before(s[j].OperationDate)
		})
	}
	byDate(buys)
	byDate(sells)

	return buys, sells
}

// GroupByAsset splits ops by asset code, keeping input order inside each
// group.
func GroupByAsset(ops []domain.Operation) map[string][]domain.Operation {
	grouped := make(map[string][]domain.Operation)
	for _, op := range ops {
		grouped[op.AssetCode] = append(grouped[op.AssetCode], op)
	}
	return grouped
}

// Positions computes one cost basis per asset, ordered by asset code.
func Positions(ops []domain.Operation) []domain.CostBasisResult {
	grouped := GroupByAsset(ops)

	codes := make([]string, 0, len(grouped))
	for code := range grouped {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	positions := make([]domain.CostBasisResult, 0, len(codes))
	for _, code := range codes {
		positions = append(positions, Compute(code, grouped[code]))
	}
	return positions
}
