package catalog

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[int64]Product
}

func NewMemStore(products ...Product) *MemStore {
	s := &MemStore{m: make(map[int64]Product, len(products))}
	for _, p := range products {
		s.m[p.ID] = p
	}
	return s
}

// SeedProducts is the demo catalog used when no database is configured.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Title: "Green Tea", Slug: "green-tea", Price: decimal.RequireFromString("9.99"), Available: true},
		{ID: 2, Title: "Red Tea", Slug: "red-tea", Price: decimal.RequireFromString("4.50"), Available: true},
		{ID: 3, Title: "Tea Powder", Slug: "tea-powder", Price: decimal.RequireFromString("21.20"), Available: true},
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
}

func (s *MemStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Product{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[n]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(ids))
	for _, id := range ParseIDs(ids) {
		if p, ok := s.m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
