package tax

import (
	"testing"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestApply_DayTrade(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	r := engine.Apply(domain.AssetTypeStock, domain.DayTrade, dec("5000"), dec("1000"))

	assert.Equal(t, RegimeDayTrade, r.Regime)
	assert.False(t, r.ExemptionApplied)
	assertDecimal(t, "0.20", r.TaxRate)
	assertDecimal(t, "200", r.TaxDue)
	assertDecimal(t, "10", r.IRRetained)
	assertDecimal(t, "190", r.NetTaxDue)
	assert.Equal(t, "6015", r.DarfCode)
}

func TestApply_DayTradeIgnoresExemption(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	for _, assetType := range domain.AssetTypes {
		r := engine.Apply(assetType, domain.DayTrade, dec("100"), dec("50"))
		assert.False(t, r.ExemptionApplied, assetType)
		assert.Equal(t, RegimeDayTrade, r.Regime, assetType)
		assertDecimal(t, "10", r.TaxDue, assetType)
	}
}

func TestApply_DayTradeLoss(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	r := engine.Apply(domain.AssetTypeETF, domain.DayTrade, dec("50000"), dec("-800"))

	assertDecimal(t, "0", r.TaxDue)
	assertDecimal(t, "0", r.IRRetained)
	assertDecimal(t, "0", r.NetTaxDue)
}

func TestApply_SwingTradeExemptionBoundary(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	tests := []struct {
		name     string
		sales    string
		exempt   bool
		wantRate string
		wantDue  string
	}{
		{"below threshold", "15000", true, "0", "0"},
		{"exactly threshold", "20000.00", true, "0", "0"},
		{"one cent above", "20000.01", false, "0.15", "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := engine.Apply(domain.AssetTypeStock, domain.SwingTrade, dec(tt.sales), dec("1000"))

			assert.Equal(t, tt.exempt, r.ExemptionApplied)
			assertDecimal(t, tt.wantRate, r.TaxRate)
			assertDecimal(t, tt.wantDue, r.TaxDue)
			assertDecimal(t, tt.wantDue, r.NetTaxDue)
			assertDecimal(t, "0", r.IRRetained)
		})
	}
}

func TestApply_SwingTradeOtherTypes(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	for _, assetType := range []domain.AssetType{domain.AssetTypeETF, domain.AssetTypeBDR, domain.AssetTypeOption} {
		r := engine.Apply(assetType, domain.SwingTrade, dec("30000"), dec("2000"))
		assert.Equal(t, RegimeSwingTrade, r.Regime, assetType)
		assertDecimal(t, "300", r.TaxDue, assetType)
	}
}

func TestApply_ExemptionWithLoss(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	r := engine.Apply(domain.AssetTypeStock, domain.SwingTrade, dec("15000"), dec("-3000"))

	assert.True(t, r.ExemptionApplied)
	assertDecimal(t, "0", r.TaxRate)
	assertDecimal(t, "0", r.TaxDue)
	assertDecimal(t, "0", r.NetTaxDue)
}

func TestApply_REITFund(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	// FII never gets the exemption, even with tiny sales.
	r := engine.Apply(domain.AssetTypeREITFund, domain.SwingTrade, dec("500"), dec("100"))

	assert.Equal(t, RegimeREITFund, r.Regime)
	assert.False(t, r.ExemptionApplied)
	assertDecimal(t, "0.20", r.TaxRate)
	assertDecimal(t, "20", r.TaxDue)
	assertDecimal(t, "0", r.IRRetained)

	loss := engine.Apply(domain.AssetTypeREITFund, domain.SwingTrade, dec("500"), dec("-100"))
	assertDecimal(t, "0", loss.TaxDue)
}

func TestApply_Crypto(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))

	tests := []struct {
		name     string
		sales    string
		profit   string
		exempt   bool
		wantRate string
		wantDue  string
	}{
		{"exactly threshold", "35000.00", "9000", true, "0", "0"},
		{"one cent above", "35000.01", "9000", false, "0.15", "1350"},
		{"first bracket", "40000", "2000000", false, "0.15", "300000"},
		{"first bracket edge", "40000", "5000000", false, "0.15", "750000"},
		{"second bracket", "40000", "5000000.01", false, "0.175", "875000.00175"},
		{"third bracket", "40000", "30000000", false, "0.20", "6000000"},
		{"top bracket", "40000", "30000001", false, "0.225", "6750000.225"},
		{"loss", "40000", "-100", false, "0.15", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := engine.Apply(domain.AssetTypeCrypto, domain.SwingTrade, dec(tt.sales), dec(tt.profit))

			assert.Equal(t, RegimeCrypto, r.Regime)
			assert.Equal(t, tt.exempt, r.ExemptionApplied)
			assertDecimal(t, tt.wantRate, r.TaxRate)
			assertDecimal(t, tt.wantDue, r.TaxDue)
			assertDecimal(t, tt.wantDue, r.NetTaxDue)
			assertDecimal(t, "0", r.IRRetained)
			assert.Equal(t, "4600", r.DarfCode)
		})
	}
}

func TestApply_NeverNegative(t *testing.T) {
	engine := NewEngine(PolicyFor(2025))
	profits := []string{"-1000000", "-0.01", "0", "0.01", "1000", "50000000"}
	sales := []string{"0", "20000", "35000", "100000"}

	for _, assetType := range domain.AssetTypes {
		for _, category := range domain.TradeCategories {
			for _, p := range profits {
				for _, s := range sales {
					r := engine.Apply(assetType, category, dec(s), dec(p))
					assert.False(t, r.TaxDue.IsNegative())
					assert.False(t, r.NetTaxDue.IsNegative())
					assert.False(t, r.IRRetained.IsNegative())
					if r.ExemptionApplied {
						assert.True(t, r.TaxRate.IsZero())
						assert.True(t, r.TaxDue.IsZero())
						assert.True(t, r.NetTaxDue.IsZero())
					}
				}
			}
		}
	}
}

func TestPolicyFor(t *testing.T) {
	saved := append([]Policy(nil), policies...)
	t.Cleanup(func() { policies = saved })

	next := PolicyFor(2025)
	next.Year = 2027
	next.SwingTradeRate = dec("0.175")
	Register(next)

	assertDecimal(t, "0.15", PolicyFor(2020).SwingTradeRate)
	assertDecimal(t, "0.15", PolicyFor(2026).SwingTradeRate)
	assertDecimal(t, "0.175", PolicyFor(2027).SwingTradeRate)
	assertDecimal(t, "0.175", PolicyFor(2031).SwingTradeRate)

	r := NewEngine(PolicyFor(2027)).Apply(domain.AssetTypeStock, domain.SwingTrade, dec("30000"), dec("1000"))
	assertDecimal(t, "175", r.TaxDue)
}
