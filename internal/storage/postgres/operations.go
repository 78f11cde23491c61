package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const operationColumns = `
            id,
            asset_code,
            asset_type,
            trade_category,
            operation_type,
            quantity,
            unit_price,
            total_cost,
            operation_date,
            created_at`

// OperationRepository persists operations. Every listing is ordered by
// operation date and then insertion sequence.
type OperationRepository struct {
	pool *pgxpool.Pool
}

func NewOperationRepository(pool *pgxpool.Pool) *OperationRepository {
	return &OperationRepository{pool: pool}
}

func (r *OperationRepository) Create(ctx context.Context, op domain.Operation) error {
	start := time.Now()

	query := `
        INSERT INTO operations (
            id, asset_code, asset_type, trade_category, operation_type,
            quantity, unit_price, total_cost, operation_date, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err := r.pool.Exec(ctx, query,
		op.ID,
		op.AssetCode,
		string(op.AssetType),
		string(op.TradeCategory),
		string(op.Kind),
		op.Quantity,
		op.UnitPrice,
		op.TotalCost,
		op.OperationDate,
		op.CreatedAt,
	)
	metrics.RecordDatabaseQuery("create_operation", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("erro ao inserir operação: %w", err)
	}
	return nil
}

func (r *OperationRepository) Get(ctx context.Context, id string) (domain.Operation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Operation{}, domain.ErrOperationNotFound
	}

	start := time.Now()
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1`

	op, err := scanOperation(r.pool.QueryRow(ctx, query, id))
	metrics.RecordDatabaseQuery("get_operation", err, time.Since(start))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Operation{}, domain.ErrOperationNotFound
	}
	if err != nil {
		return domain.Operation{}, fmt.Errorf("erro ao buscar operação: %w", err)
	}
	return op, nil
}

func (r *OperationRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrOperationNotFound
	}

	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM operations WHERE id = $1`, id)
	metrics.RecordDatabaseQuery("delete_operation", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("erro ao remover operação: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}

func (r *OperationRepository) List(ctx context.Context, filter domain.OperationFilter) ([]domain.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE 1 = 1`

	var args []interface{}
	argCount := 0

	if filter.AssetCode != "" {
		argCount++
		query += fmt.Sprintf(" AND asset_code = $%d", argCount)
		args = append(args, filter.AssetCode)
	}

	if filter.AssetType != "" {
		argCount++
		query += fmt.Sprintf(" AND asset_type = $%d", argCount)
		args = append(args, string(filter.AssetType))
	}

	query += " ORDER BY operation_date, seq"

	if filter.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}

	return r.query(ctx, "list_operations", query, args...)
}

// ListHistoryForSales returns, for every asset sold in [start, end), all of
// its operations dated before end.
func (r *OperationRepository) ListHistoryForSales(ctx context.Context, start, end time.Time) ([]domain.Operation, error) {
	query := `SELECT ` + operationColumns + `
        FROM operations
        WHERE operation_date < $2
        AND asset_code IN (
            SELECT DISTINCT asset_code
            FROM operations
            WHERE operation_type = $3
            AND operation_date >= $1
            AND operation_date < $2
        )
        ORDER BY operation_date, seq
    `

	return r.query(ctx, "history_for_sales", query, start, end, string(domain.Sell))
}

func (r *OperationRepository) query(ctx context.Context, queryType, query string, args ...interface{}) ([]domain.Operation, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues(queryType))

	logger.Debug("executando query de operações",
		zap.String("query_type", queryType),
		zap.Int("args", len(args)))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues(queryType, "error").Inc()
		return nil, fmt.Errorf("erro ao buscar operações: %w", err)
	}
	defer rows.Close()

	operations := make([]domain.Operation, 0)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			metrics.DatabaseQueries.WithLabelValues(queryType, "error").Inc()
			return nil, fmt.Errorf("erro ao escanear operação: %w", err)
		}
		if !op.Key().Valid() || !op.Kind.Valid() {
			logger.Warn("operação com categoria desconhecida",
				zap.String("id", op.ID),
				zap.String("asset_type", string(op.AssetType)),
				zap.String("trade_category", string(op.TradeCategory)),
				zap.String("operation_type", string(op.Kind)))
		}
		operations = append(operations, op)
	}

	if err := rows.Err(); err != nil {
		metrics.DatabaseQueries.WithLabelValues(queryType, "error").Inc()
		return nil, fmt.Errorf("erro ao iterar resultados: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues(queryType, "success").Inc()
	return operations, nil
}

func scanOperation(row pgx.Row) (domain.Operation, error) {
	var (
		op                             domain.Operation
		id                             uuid.UUID
		assetType, category, kind      string
		quantity, unitPrice, totalCost decimal.Decimal
	)

	err := row.Scan(
		&id,
		&op.AssetCode,
		&assetType,
		&category,
		&kind,
		&quantity,
		&unitPrice,
		&totalCost,
		&op.OperationDate,
		&op.CreatedAt,
	)
	if err != nil {
		return domain.Operation{}, err
	}

	op.ID = id.String()
	op.AssetType = domain.AssetType(assetType)
	op.TradeCategory = domain.TradeCategory(category)
	op.Kind = domain.OperationKind(kind)
	op.Quantity = quantity
	op.UnitPrice = unitPrice
	op.TotalCost = totalCost
	op.OperationDate = domain.Date(op.OperationDate)

	return op, nil
}
