package darf

import (
	"sort"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/tax"
	"github.com/shopspring/decimal"
)

// CodeTotal is the amount owed under one DARF revenue code.
type CodeTotal struct {
	DarfCode  string          `json:"darf_code"`
	NetTaxDue decimal.Decimal `json:"net_tax_due"`
	Payable   bool            `json:"payable"`
}

// Summary totals a month's calculations. A code whose amount is below the
// policy minimum is not payable and carries over to the next month.
type Summary struct {
	TotalSales decimal.Decimal `json:"total_sales"`
	TaxDue     decimal.Decimal `json:"tax_due"`
	IRRetained decimal.Decimal `json:"ir_retained"`
	NetTaxDue  decimal.Decimal `json:"net_tax_due"`
	ByCode     []CodeTotal     `json:"by_code"`
}

func Totals(year int, results []domain.TaxCalculationResult) Summary {
	policy := tax.PolicyFor(year)

	s := Summary{
		TotalSales: decimal.Zero,
		TaxDue:     decimal.Zero,
		IRRetained: decimal.Zero,
		NetTaxDue:  decimal.Zero,
		ByCode:     []CodeTotal{},
	}

	byCode := make(map[string]decimal.Decimal)
	for _, r := range results {
		s.TotalSales = s.TotalSales.Add(r.TotalSales)
		s.TaxDue = s.TaxDue.Add(r.TaxDue)
		s.IRRetained = s.IRRetained.Add(r.IRRetained)
		s.NetTaxDue = s.NetTaxDue.Add(r.NetTaxDue)

		if r.NetTaxDue.IsPositive() {
			byCode[r.DarfCode] = byCode[r.DarfCode].Add(r.NetTaxDue)
		}
	}

	for code, amount := range byCode {
		s.ByCode = append(s.ByCode, CodeTotal{
			DarfCode:  code,
			NetTaxDue: amount,
			Payable:   amount.GreaterThanOrEqual(policy.MinimumPayable),
		})
	}
	sort.Slice(s.ByCode, func(i, j int) bool { return s.ByCode[i].DarfCode < s.ByCode[j].DarfCode })

	return s
}
