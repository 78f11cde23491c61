package service

import (
	"context"
	"errors"
	"time"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/storage/cache"
	"github.com/jeovahfialho/b3-darf/pkg/logger"
	"go.uber.org/zap"
)

// OperationStore is the persistence the services need.
type OperationStore interface {
	Create(ctx context.Context, op domain.Operation) error
	Get(ctx context.Context, id string) (domain.Operation, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.OperationFilter) ([]domain.Operation, error)
	ListHistoryForSales(ctx context.Context, start, end time.Time) ([]domain.Operation, error)
}

// Cache stores JSON encoded results. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) error
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}

// Cache failures never fail a request; they are logged and the value is
// computed again.
func cacheGet(ctx context.Context, c Cache, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	err := c.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("erro ao ler cache", zap.String("key", key), zap.Error(err))
	}
	return false
}

func cacheSet(ctx context.Context, c Cache, key string, value interface{}) {
	if c == nil {
		return
	}
	if err := c.Set(ctx, key, value); err != nil {
		logger.Warn("erro ao salvar cache", zap.String("key", key), zap.Error(err))
	}
}

// invalidate drops every derived result after the operation set changed.
func invalidate(ctx context.Context, c Cache) {
	if c == nil {
		return
	}
	for _, pattern := range []string{cache.DarfPattern, cache.PortfolioPattern} {
		if _, err := c.DeletePattern(ctx, pattern); err != nil {
			logger.Warn("erro ao invalidar cache", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
