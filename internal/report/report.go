package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/jeovahfialho/b3-darf/internal/darf"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/service"
	"github.com/shopspring/decimal"
)

const currency = money.BRL

// BRL formats an amount as Brazilian reais, rounded to centavos.
func BRL(amount decimal.Decimal) string {
	cur := money.GetCurrency(currency)
	cents := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return money.New(cents.IntPart(), currency).Display()
}

// Percent formats a percentage with a decimal comma.
func Percent(p decimal.Decimal) string {
	return strings.Replace(p.StringFixed(2), ".", ",", 1) + "%"
}

// Quantity formats a quantity with a decimal comma, keeping fractional
// digits only when present.
func Quantity(q decimal.Decimal) string {
	return strings.Replace(q.String(), ".", ",", 1)
}

func WriteDarf(w io.Writer, r service.DarfReport) error {
	fmt.Fprintf(w, "DARF %s\n\n", r.Period)

	if len(r.Calculations) == 0 {
		fmt.Fprintln(w, r.Message)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Tipo\tCategoria\tVendas\tLucro\tAlíquota\tImposto\tIRRF\tA pagar\tCódigo")
	for _, c := range r.Calculations {
		rate := Percent(c.TaxRate.Mul(decimal.NewFromInt(100)))
		if c.ExemptionApplied {
			rate = "isento"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.AssetType, c.TradeCategory,
			BRL(c.TotalSales), BRL(c.TaxableProfit), rate,
			BRL(c.TaxDue), BRL(c.IRRetained), BRL(c.NetTaxDue), c.DarfCode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	return writeTotals(w, r.Totals)
}

func WriteAnnual(w io.Writer, r service.AnnualReport) error {
	fmt.Fprintf(w, "DARF %04d\n\n", r.Year)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Mês\tVendas\tImposto\tIRRF\tA pagar")
	for _, m := range r.Months {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.Period,
			BRL(m.Totals.TotalSales), BRL(m.Totals.TaxDue),
			BRL(m.Totals.IRRetained), BRL(m.Totals.NetTaxDue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	return writeTotals(w, r.Totals)
}

func writeTotals(w io.Writer, t darf.Summary) error {
	fmt.Fprintf(w, "\nTotal de vendas: %s\n", BRL(t.TotalSales))
	fmt.Fprintf(w, "Imposto devido:  %s\n", BRL(t.TaxDue))
	fmt.Fprintf(w, "IR retido:       %s\n", BRL(t.IRRetained))
	fmt.Fprintf(w, "Total a pagar:   %s\n", BRL(t.NetTaxDue))

	for _, c := range t.ByCode {
		status := "pagar"
		if !c.Payable {
			status = "abaixo do mínimo, acumular"
		}
		fmt.Fprintf(w, "  código %s: %s (%s)\n", c.DarfCode, BRL(c.NetTaxDue), status)
	}
	return nil
}

func WritePosition(w io.Writer, p domain.CostBasisResult) error {
	fmt.Fprintf(w, "%s (%s)\n", p.AssetCode, p.AssetType)
	fmt.Fprintf(w, "Quantidade:      %s\n", Quantity(p.RemainingQuantity))
	fmt.Fprintf(w, "Preço médio:     %s\n", BRL(p.AverageCost))
	fmt.Fprintf(w, "Valor na posição: %s\n", BRL(p.CurrentPositionValue))
	fmt.Fprintf(w, "Lucro realizado: %s\n", BRL(p.RealizedProfit))

	if len(p.Sales) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Data\tQuantidade\tVenda\tCusto\tLucro")
	for _, s := range p.Sales {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Date.Format("02/01/2006"), Quantity(s.Quantity),
			BRL(s.SaleValue), BRL(s.CostBasis), BRL(s.Profit))
	}
	return tw.Flush()
}

func WriteSummary(w io.Writer, s domain.PortfolioSummary) error {
	fmt.Fprintf(w, "Total investido: %s\n", BRL(s.TotalInvested))
	fmt.Fprintf(w, "Valor atual:     %s\n", BRL(s.TotalCurrentValue))
	fmt.Fprintf(w, "Resultado:       %s (%s)\n", BRL(s.TotalProfitLoss), Percent(s.ProfitLossPercentage))

	if len(s.AssetsDistribution) == 0 {
		return nil
	}

	codes := make([]string, 0, len(s.AssetsDistribution))
	for code := range s.AssetsDistribution {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Ativo\tValor")
	for _, code := range codes {
		fmt.Fprintf(tw, "%s\t%s\n", code, BRL(s.AssetsDistribution[code]))
	}
	return tw.Flush()
}
