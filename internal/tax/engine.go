package tax

import (
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
)

// Regime names the rule that produced a Result.
type Regime string

const (
	RegimeDayTrade   Regime = "day_trade"
	RegimeCrypto     Regime = "crypto"
	RegimeREITFund   Regime = "fii"
	RegimeSwingTrade Regime = "swing_trade"
)

// Result is the outcome of a single rule. All amounts are non-negative.
type Result struct {
	Regime           Regime
	TaxRate          decimal.Decimal
	TaxDue           decimal.Decimal
	ExemptionApplied bool
	IRRetained       decimal.Decimal
	NetTaxDue        decimal.Decimal
	DarfCode         string
}

type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Apply selects exactly one regime, in priority order: day trade, crypto,
// FII, then the common swing-trade rule.
func (e *Engine) Apply(assetType domain.AssetType, category domain.TradeCategory, totalSales, profit decimal.Decimal) Result {
	var r Result

	switch {
	case category == domain.DayTrade:
		r = e.dayTrade(profit)
	case assetType == domain.AssetTypeCrypto:
		r = e.crypto(totalSales, profit)
	case assetType == domain.AssetTypeREITFund:
		r = e.flat(RegimeREITFund, e.policy.REITFundRate, profit)
	default:
		r = e.swingTrade(totalSales, profit)
	}

	r.DarfCode = e.policy.StockDarfCode
	if assetType == domain.AssetTypeCrypto {
		r.DarfCode = e.policy.CryptoDarfCode
	}
	return r
}

func (e *Engine) dayTrade(profit decimal.Decimal) Result {
	due := nonNegative(profit.Mul(e.policy.DayTradeRate))
	retained := nonNegative(profit).Mul(e.policy.DayTradeWithholdingRate)

	return Result{
		Regime:     RegimeDayTrade,
		TaxRate:    e.policy.DayTradeRate,
		TaxDue:     due,
		IRRetained: retained,
		NetTaxDue:  nonNegative(due.Sub(retained)),
	}
}

func (e *Engine) crypto(totalSales, profit decimal.Decimal) Result {
	if totalSales.LessThanOrEqual(e.policy.CryptoExemption) {
		return exempt(RegimeCrypto)
	}
	return e.flat(RegimeCrypto, e.policy.CryptoRate(profit), profit)
}

func (e *Engine) swingTrade(totalSales, profit decimal.Decimal) Result {
	if totalSales.LessThanOrEqual(e.policy.SwingTradeExemption) {
		return exempt(RegimeSwingTrade)
	}
	return e.flat(RegimeSwingTrade, e.policy.SwingTradeRate, profit)
}

func (e *Engine) flat(regime Regime, rate, profit decimal.Decimal) Result {
	due := nonNegative(profit.Mul(rate))
	return Result{
		Regime:     regime,
		TaxRate:    rate,
		TaxDue:     due,
		IRRetained: decimal.Zero,
		NetTaxDue:  due,
	}
}

func exempt(regime Regime) Result {
	return Result{
		Regime:           regime,
		TaxRate:          decimal.Zero,
		TaxDue:           decimal.Zero,
		ExemptionApplied: true,
		IRRetained:       decimal.Zero,
		NetTaxDue:        decimal.Zero,
	}
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
