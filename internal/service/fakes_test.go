package service

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/jeovahfialho/b3-darf/internal/domain"
	"github.com/jeovahfialho/b3-darf/internal/storage/cache"
	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu      sync.Mutex
	ops     []domain.Operation
	queries int
	err     error
}

func (m *memoryStore) Create(_ context.Context, op domain.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.ops = append(m.ops, op)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (domain.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.ops {
		if op.ID == id {
			return op, nil
		}
	}
	return domain.Operation{}, domain.ErrOperationNotFound
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, op := range m.ops {
		if op.ID == id {
			m.ops = append(m.ops[:i], m.ops[i+1:]...)
			return nil
		}
	}
	return domain.ErrOperationNotFound
}

func (m *memoryStore) sorted() []domain.Operation {
	out := make([]domain.Operation, len(m.ops))
	copy(out, m.ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OperationDate.Before(out[j].OperationDate) })
	return out
}

func (m *memoryStore) List(_ context.Context, filter domain.OperationFilter) ([]domain.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.err != nil {
		return nil, m.err
	}

	out := []domain.Operation{}
	for _, op := range m.sorted() {
		if filter.AssetCode != "" && op.AssetCode != filter.AssetCode {
			continue
		}
		if filter.AssetType != "" && op.AssetType != filter.AssetType {
			continue
		}
		out = append(out, op)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memoryStore) ListHistoryForSales(_ context.Context, start, end time.Time) ([]domain.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.err != nil {
		return nil, m.err
	}

	sold := map[string]bool{}
	for _, op := range m.ops {
		if op.IsSell() && !op.OperationDate.Before(start) && op.OperationDate.Before(end) {
			sold[op.AssetCode] = true
		}
	}

	out := []domain.Operation{}
	for _, op := range m.sorted() {
		if sold[op.AssetCode] && op.OperationDate.Before(end) {
			out = append(out, op)
		}
	}
	return out, nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ ...time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
			n++
		}
	}
	return n, nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// storeLoader appends bulk loads to a memoryStore.
type storeLoader struct {
	store *memoryStore
}

func (l *storeLoader) Load(ctx context.Context, ops []domain.Operation) (int64, error) {
	for _, op := range ops {
		if err := l.store.Create(ctx, op); err != nil {
			return 0, err
		}
	}
	return int64(len(ops)), nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newOp(id, code string, assetType domain.AssetType, category domain.TradeCategory,
	kind domain.OperationKind, qty, price, total, date string) domain.Operation {

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.Operation{
		ID:            id,
		AssetCode:     code,
		AssetType:     assetType,
		TradeCategory: category,
		Kind:          kind,
		Quantity:      dec(qty),
		UnitPrice:     dec(price),
		TotalCost:     dec(total),
		OperationDate: d,
	}
}
