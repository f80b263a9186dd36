package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	perrors "github.com/abgdnv/vending/internal/product/errors"
	"github.com/google/uuid"
)

// InMemoryStore implements ProductStore using an in-memory map keyed by product code.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewInMemoryStore creates a new, empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[string]Product),
	}
}

// FindByCode retrieves a product by its code.
func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[code]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

// FindAll retrieves all products ordered by code.
func (s *InMemoryStore) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b Product) int {
		return strings.Compare(a.Code, b.Code)
	})
	return list, nil
}

// Create creates a new product and returns it.
func (s *InMemoryStore) Create(_ context.Context, code, name string, price int64, available int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[code]; exists {
		return nil, perrors.ErrProductExists
	}
	p := Product{
		ID:        uuid.New(),
		Code:      code,
		Name:      name,
		Price:     price,
		Available: available,
	}
	s.products[code] = p
	return &p, nil
}

// AddItems increases the availability of a product.
func (s *InMemoryStore) AddItems(_ context.Context, code string, count int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[code]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	p.Available += count
	s.products[code] = p
	return &p, nil
}

// Dispense takes one item of a product out of stock.
func (s *InMemoryStore) Dispense(_ context.Context, code string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[code]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	if p.Available < 1 {
		return nil, perrors.ErrOutOfStock
	}
	p.Available--
	s.products[code] = p
	return &p, nil
}
