package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType identifica a classe do ativo negociado.
type AssetType string

const (
	AssetTypeStock    AssetType = "acao"
	AssetTypeETF      AssetType = "etf"
	AssetTypeREITFund AssetType = "fii"
	AssetTypeBDR      AssetType = "bdr"
	AssetTypeOption   AssetType = "opcao"
	AssetTypeCrypto   AssetType = "cripto"
)

// AssetTypes lists every asset type in declaration order.
var AssetTypes = []AssetType{
	AssetTypeStock,
	AssetTypeETF,
	AssetTypeREITFund,
	AssetTypeBDR,
	AssetTypeOption,
	AssetTypeCrypto,
}

func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAssetType, s)
	}
	return t, nil
}

func (t AssetType) Valid() bool {
	return t.index() >= 0
}

func (t AssetType) index() int {
	for i, known := range AssetTypes {
		if t == known {
			return i
		}
	}
	return -1
}

func (t AssetType) String() string { return string(t) }

func (t *AssetType) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TradeCategory separa operações comuns (swing trade) de day trade.
type TradeCategory string

const (
	SwingTrade TradeCategory = "swing_trade"
	DayTrade   TradeCategory = "day_trade"
)

var TradeCategories = []TradeCategory{SwingTrade, DayTrade}

func ParseTradeCategory(s string) (TradeCategory, error) {
	c := TradeCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTradeCategory, s)
	}
	return c, nil
}

func (c TradeCategory) Valid() bool {
	return c.index() >= 0
}

func (c TradeCategory) index() int {
	for i, known := range TradeCategories {
		if c == known {
			return i
		}
	}
	return -1
}

func (c TradeCategory) String() string { return string(c) }

func (c *TradeCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseTradeCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// OperationKind é compra ou venda.
type OperationKind string

const (
	Buy  OperationKind = "compra"
	Sell OperationKind = "venda"
)

var OperationKinds = []OperationKind{Buy, Sell}

func ParseOperationKind(s string) (OperationKind, error) {
	k := OperationKind(strings.ToLower(strings.TrimSpace(s)))
	if k != Buy && k != Sell {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperationKind, s)
	}
	return k, nil
}

func (k OperationKind) Valid() bool {
	return k == Buy || k == Sell
}

func (k OperationKind) String() string { return string(k) }

func (k *OperationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Operation is an immutable buy or sell record. TotalCost includes fees on
// buys; on sells it is informational only.
type Operation struct {
	ID            string          `json:"id,omitempty"`
	AssetCode     string          `json:"asset_code"`
	AssetType     AssetType       `json:"asset_type"`
	TradeCategory TradeCategory   `json:"trade_category"`
	Kind          OperationKind   `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	OperationDate time.Time       `json:"operation_date"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
}

func (o Operation) IsBuy() bool  { return o.Kind == Buy }
func (o Operation) IsSell() bool { return o.Kind == Sell }

// Value returns quantity * unit price.
func (o Operation) Value() decimal.Decimal {
	return o.Quantity.Mul(o.UnitPrice)
}

func (o Operation) Key() GroupKey {
	return GroupKey{AssetType: o.AssetType, TradeCategory: o.TradeCategory}
}

// Validate checks the ingestion invariants. Every failure wraps
// ErrInvalidOperation.
func (o Operation) Validate() error {
	var problems []string

	if strings.TrimSpace(o.AssetCode) == "" {
		problems = append(problems, "asset_code é obrigatório")
	}
	if !o.AssetType.Valid() {
		problems = append(problems, fmt.Sprintf("asset_type inválido: %q", o.AssetType))
	}
	if !o.TradeCategory.Valid() {
		problems = append(problems, fmt.Sprintf("trade_category inválida: %q", o.TradeCategory))
	}
	if !o.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("operation_type inválido: %q", o.Kind))
	}
	if !o.Quantity.IsPositive() {
		problems = append(problems, "quantity deve ser positiva")
	}
	if !o.UnitPrice.IsPositive() {
		problems = append(problems, "unit_price deve ser positivo")
	}
	if o.TotalCost.IsNegative() {
		problems = append(problems, "total_cost não pode ser negativo")
	}
	if o.OperationDate.IsZero() {
		problems = append(problems, "operation_date é obrigatória")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOperation, strings.Join(problems, "; "))
	}
	return nil
}

// Normalize trims the asset code, upper-cases it and truncates the date to a
// UTC calendar day.
func (o Operation) Normalize() Operation {
	o.AssetCode = strings.ToUpper(strings.TrimSpace(o.AssetCode))
	o.OperationDate = Date(o.OperationDate)
	return o
}

// Date drops the time component, keeping the calendar day as UTC midnight.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OperationFilter narrows listings. Zero values mean "no filter".
type OperationFilter struct {
	AssetCode string
	AssetType AssetType
	Limit     int
}
