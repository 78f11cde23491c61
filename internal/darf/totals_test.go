package darf

import (
	"testing"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals(t *testing.T) {
	results := []domain.TaxCalculationResult{
		{TotalSales: dec("25000"), TaxDue: dec("750"), IRRetained: dec("0"), NetTaxDue: dec("750"), DarfCode: "6015"},
		{TotalSales: dec("1300"), TaxDue: dec("40"), IRRetained: dec("2"), NetTaxDue: dec("38"), DarfCode: "6015"},
		{TotalSales: dec("40000"), TaxDue: dec("6"), IRRetained: dec("0"), NetTaxDue: dec("6"), DarfCode: "4600"},
		{TotalSales: dec("15000"), TaxDue: dec("0"), IRRetained: dec("0"), NetTaxDue: dec("0"), DarfCode: "6015", ExemptionApplied: true},
	}

	s := Totals(2025, results)

	assertDecimal(t, "81300", s.TotalSales)
	assertDecimal(t, "796", s.TaxDue)
	assertDecimal(t, "2", s.IRRetained)
	assertDecimal(t, "794", s.NetTaxDue)

	require.Len(t, s.ByCode, 2)
	assert.Equal(t, "4600", s.ByCode[0].DarfCode)
	assertDecimal(t, "6", s.ByCode[0].NetTaxDue)
	assert.False(t, s.ByCode[0].Payable)
	assert.Equal(t, "6015", s.ByCode[1].DarfCode)
	assertDecimal(t, "788", s.ByCode[1].NetTaxDue)
	assert.True(t, s.ByCode[1].Payable)
}

func TestTotals_Empty(t *testing.T) {
	s := Totals(2025, nil)

	assertDecimal(t, "0", s.NetTaxDue)
	assert.NotNil(t, s.ByCode)
	assert.Empty(t, s.ByCode)
}
