package darf

import (
	"testing"
	"time"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

type opSpec struct {
	code     string
	asset    domain.AssetType
	category domain.TradeCategory
	kind     domain.OperationKind
	qty      string
	price    string
	total    string
	date     string
}

func build(specs ...opSpec) []domain.Operation {
	ops := make([]domain.Operation, 0, len(specs))
	for _, s := range specs {
		date, err := time.Parse("2006-01-02", s.date)
		if err != nil {
			panic(err)
		}
		ops = append(ops, domain.Operation{
			AssetCode:     s.code,
			AssetType:     s.asset,
			TradeCategory: s.category,
			Kind:          s.kind,
			Quantity:      dec(s.qty),
			UnitPrice:     dec(s.price),
			TotalCost:     dec(s.total),
			OperationDate: date,
		})
	}
	return ops
}

func TestPeriod(t *testing.T) {
	start, end, err := Period(2024, 12)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = Period(2025, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	_, _, err = Period(2025, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	assert.Equal(t, "2025-03", PeriodLabel(2025, 3))
}

func TestAggregate_NoSales(t *testing.T) {
	ops := build(
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "100", "30", "3000", "2025-03-10"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "10", "35", "350", "2025-04-10"},
	)

	results := Aggregate(2025, 3, ops)

	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, Aggregate(2025, 5, nil))
}

func TestAggregate_InvalidPeriod(t *testing.T) {
	ops := build(
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "10", "35", "350", "2025-04-10"},
	)

	assert.Empty(t, Aggregate(2025, 13, ops))
}

func TestAggregate_SwingTradeExempt(t *testing.T) {
	ops := build(
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "1000", "10", "10000", "2025-01-05"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "500", "20", "10000", "2025-02-03"},
		opSpec{"VALE3", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "50", "100", "5000", "2025-02-20"},
	)

	results := Aggregate(2025, 2, ops)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "2025-02", r.Period)
	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, 2, r.Month)
	assert.Equal(t, domain.AssetTypeStock, r.AssetType)
	assert.Equal(t, domain.SwingTrade, r.TradeCategory)
	assertDecimal(t, "15000", r.TotalSales)
	assert.True(t, r.ExemptionApplied)
	assertDecimal(t, "0", r.TaxDue)
	assertDecimal(t, "0", r.NetTaxDue)
	// PETR4: 10000 - 500*10; VALE3 has no buys so full value is profit.
	assertDecimal(t, "10000", r.TaxableProfit)
}

func TestAggregate_ProfitFromCostBasis(t *testing.T) {
	ops := build(
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "1000", "20", "20000", "2025-01-10"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "1000", "25", "24990", "2025-02-10"},
	)

	results := Aggregate(2025, 2, ops)

	require.Len(t, results, 1)
	r := results[0]
	// total sales is quantity * price, not the stored total cost
	assertDecimal(t, "25000", r.TotalSales)
	assertDecimal(t, "5000", r.TaxableProfit)
	assert.False(t, r.ExemptionApplied)
	assertDecimal(t, "0.15", r.TaxRate)
	assertDecimal(t, "750", r.TaxDue)
	assertDecimal(t, "750", r.NetTaxDue)
	assert.Equal(t, "6015", r.DarfCode)
}

func TestAggregate_LossIsNotTaxed(t *testing.T) {
	ops := build(
		opSpec{"MGLU3", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "10000", "5", "50000", "2025-01-10"},
		opSpec{"MGLU3", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "10000", "3", "30000", "2025-02-10"},
	)

	results := Aggregate(2025, 2, ops)

	require.Len(t, results, 1)
	assertDecimal(t, "-20000", results[0].TaxableProfit)
	assertDecimal(t, "0", results[0].TaxDue)
	assertDecimal(t, "0", results[0].NetTaxDue)
}

func TestAggregate_GroupsAndOrder(t *testing.T) {
	ops := build(
		opSpec{"BTC", domain.AssetTypeCrypto, domain.SwingTrade, domain.Buy, "1", "200000", "200000", "2025-01-02"},
		opSpec{"BTC", domain.AssetTypeCrypto, domain.SwingTrade, domain.Sell, "0.2", "200000", "40000", "2025-03-15"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.DayTrade, domain.Buy, "100", "12", "1200", "2025-03-04"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.DayTrade, domain.Sell, "100", "13", "1300", "2025-03-04"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "100", "10", "1000", "2025-02-01"},
		opSpec{"HGLG11", domain.AssetTypeREITFund, domain.SwingTrade, domain.Buy, "10", "150", "1500", "2025-01-20"},
		opSpec{"HGLG11", domain.AssetTypeREITFund, domain.SwingTrade, domain.Sell, "10", "160", "1600", "2025-03-20"},
	)

	results := Aggregate(2025, 3, ops)

	require.Len(t, results, 3)

	assert.Equal(t, domain.GroupKey{AssetType: domain.AssetTypeStock, TradeCategory: domain.DayTrade}, results[0].Key())
	assert.Equal(t, domain.GroupKey{AssetType: domain.AssetTypeREITFund, TradeCategory: domain.SwingTrade}, results[1].Key())
	assert.Equal(t, domain.GroupKey{AssetType: domain.AssetTypeCrypto, TradeCategory: domain.SwingTrade}, results[2].Key())

	// PETR4 average over every buy: 2200 / 200 = 11
	dayTrade := results[0]
	assertDecimal(t, "1300", dayTrade.TotalSales)
	assertDecimal(t, "200", dayTrade.TaxableProfit)
	assertDecimal(t, "40", dayTrade.TaxDue)
	assertDecimal(t, "2", dayTrade.IRRetained)
	assertDecimal(t, "38", dayTrade.NetTaxDue)

	fii := results[1]
	assertDecimal(t, "100", fii.TaxableProfit)
	assertDecimal(t, "20", fii.TaxDue)
	assert.False(t, fii.ExemptionApplied)

	crypto := results[2]
	assertDecimal(t, "40000", crypto.TotalSales)
	assertDecimal(t, "0", crypto.TaxableProfit)
	assert.False(t, crypto.ExemptionApplied)
	assertDecimal(t, "0.15", crypto.TaxRate)
	assertDecimal(t, "0", crypto.TaxDue)
	assert.Equal(t, "4600", crypto.DarfCode)
}

func TestAggregate_DecemberRollover(t *testing.T) {
	ops := build(
		opSpec{"ITSA4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "100", "10", "1000", "2024-11-30"},
		opSpec{"ITSA4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "100", "11", "1100", "2024-12-01"},
		opSpec{"ITSA4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "100", "12", "1200", "2024-12-31"},
		opSpec{"ITSA4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "100", "13", "1300", "2025-01-01"},
	)

	december := Aggregate(2024, 12, ops)
	require.Len(t, december, 1)
	assertDecimal(t, "2300", december[0].TotalSales)

	january := Aggregate(2025, 1, ops)
	require.Len(t, january, 1)
	assertDecimal(t, "1300", january[0].TotalSales)
}

func TestAggregate_SkipsUnknownGroupKey(t *testing.T) {
	ops := build(
		opSpec{"XPTO", domain.AssetType("tesouro"), domain.SwingTrade, domain.Sell, "10", "100", "1000", "2025-03-10"},
		opSpec{"XPTO2", domain.AssetTypeStock, domain.TradeCategory("position"), domain.Sell, "10", "100", "1000", "2025-03-10"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "10", "30", "300", "2025-03-11"},
	)

	results := Aggregate(2025, 3, ops)

	require.Len(t, results, 1)
	assert.Equal(t, domain.AssetTypeStock, results[0].AssetType)
	assertDecimal(t, "300", results[0].TotalSales)
}

func TestAggregate_CryptoBracket(t *testing.T) {
	ops := build(
		opSpec{"ETH", domain.AssetTypeCrypto, domain.SwingTrade, domain.Buy, "10", "1000", "10000", "2025-01-01"},
		opSpec{"ETH", domain.AssetTypeCrypto, domain.SwingTrade, domain.Sell, "10", "4000", "40000", "2025-06-15"},
	)

	results := Aggregate(2025, 6, ops)

	require.Len(t, results, 1)
	assertDecimal(t, "30000", results[0].TaxableProfit)
	assertDecimal(t, "4500", results[0].TaxDue)
}

func TestAggregate_Deterministic(t *testing.T) {
	ops := build(
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "300", "31.17", "9351.33", "2025-01-10"},
		opSpec{"VALE3", domain.AssetTypeStock, domain.SwingTrade, domain.Buy, "70", "61.03", "4272.11", "2025-01-11"},
		opSpec{"PETR4", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "299", "38.41", "11484.59", "2025-02-10"},
		opSpec{"VALE3", domain.AssetTypeStock, domain.SwingTrade, domain.Sell, "69", "70.07", "4834.83", "2025-02-11"},
		opSpec{"BOVA11", domain.AssetTypeETF, domain.DayTrade, domain.Sell, "3", "120", "360", "2025-02-11"},
	)

	first := Aggregate(2025, 2, ops)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Aggregate(2025, 2, ops))
	}
}
