package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupKey is the composite key used to group a month's sales.
type GroupKey struct {
	AssetType     AssetType     `json:"asset_type"`
	TradeCategory TradeCategory `json:"trade_category"`
}

func (k GroupKey) Valid() bool {
	return k.AssetType.Valid() && k.TradeCategory.Valid()
}

// Less orders keys by asset type declaration order, then swing before day
// trade.
func (k GroupKey) Less(other GroupKey) bool {
	if k.AssetType != other.AssetType {
		return k.AssetType.index() < other.AssetType.index()
	}
	return k.TradeCategory.index() < other.TradeCategory.index()
}

func (k GroupKey) String() string {
	return string(k.AssetType) + "/" + string(k.TradeCategory)
}

// RealizedSale is the cost-basis outcome of a single sell.
type RealizedSale struct {
	OperationID   string          `json:"operation_id,omitempty"`
	Date          time.Time       `json:"date"`
	AssetType     AssetType       `json:"asset_type"`
	TradeCategory TradeCategory   `json:"trade_category"`
	Quantity      decimal.Decimal `json:"quantity"`
	SaleValue     decimal.Decimal `json:"sale_value"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
	Profit        decimal.Decimal `json:"profit"`
}

// CostBasisResult is derived on demand from an asset's operations.
type CostBasisResult struct {
	AssetCode            string          `json:"asset_code"`
	AssetType            AssetType       `json:"asset_type,omitempty"`
	RemainingQuantity    decimal.Decimal `json:"total_quantity"`
	AverageCost          decimal.Decimal `json:"average_cost"`
	CurrentPositionValue decimal.Decimal `json:"current_position_value"`
	RealizedProfit       decimal.Decimal `json:"realized_profit"`
	Sales                []RealizedSale  `json:"sales,omitempty"`
}

// TaxCalculationResult is one DARF line: a month x asset type x trade
// category group.
type TaxCalculationResult struct {
	Period           string          `json:"month"`
	Year             int             `json:"year"`
	Month            int             `json:"month_number"`
	AssetType        AssetType       `json:"asset_type"`
	TradeCategory    TradeCategory   `json:"trade_category"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TaxableProfit    decimal.Decimal `json:"taxable_profit"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	TaxDue           decimal.Decimal `json:"tax_due"`
	ExemptionApplied bool            `json:"exemption_applied"`
	IRRetained       decimal.Decimal `json:"ir_retained"`
	NetTaxDue        decimal.Decimal `json:"net_tax_due"`
	DarfCode         string          `json:"darf_code"`
}

func (r TaxCalculationResult) Key() GroupKey {
	return GroupKey{AssetType: r.AssetType, TradeCategory: r.TradeCategory}
}

// PortfolioSummary aggregates every position. Current value uses average cost
// as price.
type PortfolioSummary struct {
	TotalInvested        decimal.Decimal            `json:"total_invested"`
	TotalCurrentValue    decimal.Decimal            `json:"total_current_value"`
	TotalProfitLoss      decimal.Decimal            `json:"total_profit_loss"`
	ProfitLossPercentage decimal.Decimal            `json:"profit_loss_percentage"`
	AssetsDistribution   map[string]decimal.Decimal `json:"assets_distribution"`
}
