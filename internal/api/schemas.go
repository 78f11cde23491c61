package api

import (
	"time"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOperationRequest struct {
	AssetCode     string           `json:"asset_code"`
	AssetType     string           `json:"asset_type"`
	TradeCategory string           `json:"trade_category"`
	OperationType string           `json:"operation_type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	TotalCost     *decimal.Decimal `json:"total_cost"`
	OperationDate string           `json:"operation_date" format:"date"`
}

type CreateOperationResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type OperationsResponse struct {
	Operations []domain.Operation `json:"operations"`
	Count      int                `json:"count"`
}

type PositionsResponse struct {
	Positions []domain.CostBasisResult `json:"positions"`
	Count     int                      `json:"count"`
}

type AssetTypesResponse struct {
	AssetTypes      []domain.AssetType     `json:"asset_types"`
	TradeCategories []domain.TradeCategory `json:"trade_categories"`
	OperationTypes  []domain.OperationKind `json:"operation_types"`
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Service   string                   `json:"service"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SystemStatsResponse struct {
	Database DatabaseStats `json:"database"`
	Runtime  RuntimeStats  `json:"runtime"`
}

type DatabaseStats struct {
	Available         bool   `json:"available"`
	ActiveConnections int32  `json:"active_connections"`
	IdleConnections   int32  `json:"idle_connections"`
	TotalConnections  int32  `json:"total_connections"`
	WaitCount         int64  `json:"wait_count"`
	WaitDuration      string `json:"wait_duration"`
}

type RuntimeStats struct {
	MemoryUsed       string `json:"memory_used"`
	ActiveGoroutines int    `json:"active_goroutines"`
}

type InvalidateCacheResponse struct {
	Pattern string `json:"pattern"`
	Removed int64  `json:"removed"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
