package ingestion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
	"go.uber.org/zap"
)

var operationColumns = []string{
	"id",
	"asset_code",
	"asset_type",
	"trade_category",
	"operation_type",
	"quantity",
	"unit_price",
	"total_cost",
	"operation_date",
	"created_at",
}

type BulkLoader struct {
	pool      *pgxpool.Pool
	batchSize int
}

func NewBulkLoader(pool *pgxpool.Pool, batchSize int) *BulkLoader {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &BulkLoader{
		pool:      pool,
		batchSize: batchSize,
	}
}

// Load copies operations in chunks inside a single transaction. Chunks are
// written one after the other so insertion sequence follows slice order.
func (l *BulkLoader) Load(ctx context.Context, operations []domain.Operation) (int64, error) {
	if len(operations) == 0 {
		return 0, nil
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ImportDuration.WithLabelValues("load"))

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	for i, chunk := range SplitIntoChunks(operations, l.batchSize) {
		count, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"operations"},
			operationColumns,
			&operationSource{operations: chunk},
		)
		if err != nil {
			return 0, fmt.Errorf("erro no COPY do lote %d: %w", i+1, err)
		}
		total += count

		logger.Debug("lote copiado",
			zap.Int("chunk", i+1),
			zap.Int64("rows", count))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("erro no commit: %w", err)
	}

	return total, nil
}

type operationSource struct {
	operations []domain.Operation
	index      int
}

func (s *operationSource) Next() bool {
	s.index++
	return s.index <= len(s.operations)
}

func (s *operationSource) Values() ([]interface{}, error) {
	if s.index > len(s.operations) {
		return nil, nil
	}

	op := s.operations[s.index-1]
	return []interface{}{
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
	}, nil
}

func (s *operationSource) Err() error {
	return nil
}

func SplitIntoChunks(operations []domain.Operation, size int) [][]domain.Operation {
	var chunks [][]domain.Operation

	for i := 0; i < len(operations); i += size {
		end := i + size
		if end > len(operations) {
			end = len(operations)
		}
		chunks = append(chunks, operations[i:end])
	}

	return chunks
}
