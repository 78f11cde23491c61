package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/ingestion"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
	"go.uber.org/zap"
)

type OperationService struct {
	store   OperationStore
	cache   Cache
	parser  *ingestion.Parser
	loader  ingestion.Loader
	workers int
	limit   int
}

func NewOperationService(store OperationStore, cache Cache, parser *ingestion.Parser,
	loader ingestion.Loader, workers, limit int) *OperationService {

	return &OperationService{
		store:   store,
		cache:   cache,
		parser:  parser,
		loader:  loader,
		workers: workers,
		limit:   limit,
	}
}

// Create validates and stores a new operation, returning it with its
// assigned id.
func (s *OperationService) Create(ctx context.Context, op domain.Operation) (domain.Operation, error) {
	op = op.Normalize()
	if err := op.Validate(); err != nil {
		metrics.RecordOperationsIngested("api", "rejected", 1)
		return domain.Operation{}, err
	}

	op.ID = uuid.NewString()
	op.CreatedAt = time.Now().UTC()

	if err := s.store.Create(ctx, op); err != nil {
		metrics.RecordOperationsIngested("api", "error", 1)
		return domain.Operation{}, err
	}

	metrics.RecordOperationsIngested("api", "success", 1)
	invalidate(ctx, s.cache)

	logger.WithContext(ctx).Info("operação registrada",
		zap.String("id", op.ID),
		zap.String("asset_code", op.AssetCode),
		zap.String("operation_type", string(op.Kind)))

	return op, nil
}

func (s *OperationService) Get(ctx context.Context, id string) (domain.Operation, error) {
	return s.store.Get(ctx, id)
}

// List returns operations in chronological order, capped at the configured
// limit when the filter sets none.
func (s *OperationService) List(ctx context.Context, filter domain.OperationFilter) ([]domain.Operation, error) {
	filter.AssetCode = strings.ToUpper(strings.TrimSpace(filter.AssetCode))
	if filter.AssetType != "" && !filter.AssetType.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAssetType, filter.AssetType)
	}
	if filter.Limit <= 0 || (s.limit > 0 && filter.Limit > s.limit) {
		filter.Limit = s.limit
	}
	return s.store.List(ctx, filter)
}

func (s *OperationService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	metrics.OperationsDeleted.Inc()
	invalidate(ctx, s.cache)

	logger.WithContext(ctx).Info("operação removida", zap.String("id", id))
	return nil
}

type ImportResult struct {
	Source   string   `json:"source"`
	Imported int64    `json:"imported"`
	Rejected []string `json:"rejected"`
}

// Import parses an export and bulk loads its valid rows. Rejected rows are
// reported, not fatal.
func (s *OperationService) Import(ctx context.Context, r io.Reader, source string) (ImportResult, error) {
	result := ImportResult{Source: source, Rejected: []string{}}

	timer := metrics.NewTimer()
	parsed, err := s.parser.ParseFile(ctx, r)
	timer.ObserveDuration(metrics.ImportDuration.WithLabelValues("parse"))
	if err != nil {
		return result, fmt.Errorf("erro no parse: %w", err)
	}

	for _, e := range parsed.Errors {
		result.Rejected = append(result.Rejected, e.Error())
	}
	metrics.RecordOperationsIngested(source, "rejected", len(parsed.Errors))

	count, err := s.loader.Load(ctx, parsed.Operations)
	if err != nil {
		metrics.RecordOperationsIngested(source, "error", len(parsed.Operations))
		return result, fmt.Errorf("erro ao carregar operações: %w", err)
	}
	result.Imported = count
	metrics.RecordOperationsIngested(source, "success", int(count))

	if count > 0 {
		invalidate(ctx, s.cache)
	}

	logger.WithContext(ctx).Info("importação concluída",
		zap.String("source", source),
		zap.Int64("imported", count),
		zap.Int("rejected", len(parsed.Errors)))

	return result, nil
}

// ImportFiles loads several export files concurrently, one transaction per
// file.
func (s *OperationService) ImportFiles(ctx context.Context, paths []string) []ingestion.JobResult {
	pool := ingestion.NewWorkerPool(s.workers, s.parser, s.loader)
	results := pool.ImportFiles(ctx, paths)

	for _, r := range results {
		if r.RecordsCount > 0 {
			invalidate(ctx, s.cache)
			break
		}
	}
	return results
}
