package service

import (
	"context"
	"strings"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/portfolio"
	"github.com/jeovahfialho/b3-darf/internal/storage/cache"
	"github.com/jeovahfialho/b3-darf/pkg/metrics"
)

type PortfolioService struct {
	store OperationStore
	cache Cache
}

func NewPortfolioService(store OperationStore, cache Cache) *PortfolioService {
	return &PortfolioService{store: store, cache: cache}
}

func (s *PortfolioService) Summary(ctx context.Context) (domain.PortfolioSummary, error) {
	var summary domain.PortfolioSummary
	if cacheGet(ctx, s.cache, cache.PortfolioSummaryKey, &summary) {
		return summary, nil
	}

	ops, err := s.store.List(ctx, domain.OperationFilter{})
	if err != nil {
		return domain.PortfolioSummary{}, err
	}

	summary = portfolio.Summarize(ops)
	metrics.CostBasisComputations.Add(float64(len(portfolio.GroupByAsset(ops))))

	cacheSet(ctx, s.cache, cache.PortfolioSummaryKey, summary)
	return summary, nil
}

// Position computes the cost basis of one asset. An asset without
// operations yields domain.ErrOperationNotFound.
func (s *PortfolioService) Position(ctx context.Context, assetCode string) (domain.CostBasisResult, error) {
	code := strings.ToUpper(strings.TrimSpace(assetCode))

	var result domain.CostBasisResult
	if cacheGet(ctx, s.cache, cache.PositionKey(code), &result) {
		return result, nil
	}

	ops, err := s.store.List(ctx, domain.OperationFilter{AssetCode: code})
	if err != nil {
		return domain.CostBasisResult{}, err
	}
	if len(ops) == 0 {
		return domain.CostBasisResult{}, domain.ErrOperationNotFound
	}

	result = portfolio.Compute(code, ops)
	metrics.CostBasisComputations.Inc()

	cacheSet(ctx, s.cache, cache.PositionKey(code), result)
	return result, nil
}

func (s *PortfolioService) Positions(ctx context.Context) ([]domain.CostBasisResult, error) {
	ops, err := s.store.List(ctx, domain.OperationFilter{})
	if err != nil {
		return nil, err
	}

	positions := portfolio.Positions(ops)
	metrics.CostBasisComputations.Add(float64(len(positions)))
	return positions, nil
}
