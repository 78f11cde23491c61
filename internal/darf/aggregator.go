package darf

import (
	"fmt"
	"sort"
	"time"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/portfolio"
	"github.com/jeovahfialho/b3-darf/internal/tax"
	"github.com/shopspring/decimal"
)

// Period returns the half-open interval [first day of month, first day of
// next month).
func Period(year, month int) (start, end time.Time, err error) {
	if year <= 0 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %04d-%02d", domain.ErrInvalidPeriod, year, month)
	}
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

func PeriodLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func inPeriod(date, start, end time.Time) bool {
	d := domain.Date(date)
	return !d.Before(start) && d.Before(end)
}

type group struct {
	totalSales decimal.Decimal
	profit     decimal.Decimal
}

// Aggregate builds one tax calculation per (asset type, trade category) group
// of the month's sales.
//
// ops may carry the whole operation history: sells outside the month only
// feed the average cost, and taxable profit comes from the cost basis of each
// asset restricted to the month's sales. Sales with an unknown group key are
// skipped. An invalid period or a month without sales yields an empty slice.
func Aggregate(year, month int, ops []domain.Operation) []domain.TaxCalculationResult {
	results := []domain.TaxCalculationResult{}

	start, end, err := Period(year, month)
	if err != nil {
		return results
	}

	groups := make(map[domain.GroupKey]*group)
	for _, op := range ops {
		if !op.IsSell() || !inPeriod(op.OperationDate, start, end) {
			continue
		}
		key := op.Key()
		if !key.Valid() {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{totalSales: decimal.Zero, profit: decimal.Zero}
			groups[key] = g
		}
		g.totalSales = g.totalSales.Add(op.Value())
	}
	if len(groups) == 0 {
		return results
	}

	for code, assetOps := range portfolio.GroupByAsset(ops) {
		basis := portfolio.Compute(code, assetOps)
		for _, sale := range basis.Sales {
			if !inPeriod(sale.Date, start, end) {
				continue
			}
			key := domain.GroupKey{AssetType: sale.AssetType, TradeCategory: sale.TradeCategory}
			if g, ok := groups[key]; ok {
				g.profit = g.profit.Add(sale.Profit)
			}
		}
	}

	keys := make([]domain.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	engine := tax.NewEngine(tax.PolicyFor(year))
	for _, key := range keys {
		g := groups[key]
		r := engine.Apply(key.AssetType, key.TradeCategory, g.totalSales, g.profit)

		results = append(results, domain.TaxCalculationResult{
			Period:           PeriodLabel(year, month),
			Year:             year,
			Month:            month,
			AssetType:        key.AssetType,
			TradeCategory:    key.TradeCategory,
			TotalSales:       g.totalSales,
			TaxableProfit:    g.profit,
			TaxRate:          r.TaxRate,
			TaxDue:           r.TaxDue,
			ExemptionApplied: r.ExemptionApplied,
			IRRetained:       r.IRRetained,
			NetTaxDue:        r.NetTaxDue,
			DarfCode:         r.DarfCode,
		})
	}

	return results
}
