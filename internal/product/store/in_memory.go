package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/abgdnv/productapi/internal/product/errors"
)

// inMemory implements ProductStore using an ordered in-memory slice.
type inMemory struct {
	mu       sync.RWMutex
	products []Product
}

// NewInMemoryStore creates a new instance of ProductStore holding a copy of the given products.
func NewInMemoryStore(initial ...Product) ProductStore {
	s := &inMemory{products: make([]Product, 0, len(initial))}
	for _, p := range initial {
		s.products = append(s.products, p.Clone())
	}
	return s
}

// FindAll retrieves all products.
func (s *inMemory) FindAll() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, len(s.products))
	for i, p := range s.products {
		list[i] = p.Clone()
	}
	return list
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, false
	}
	return s.products[i].Clone(), true
}

// Create appends a new product.
func (s *inMemory) Create(p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return fmt.Errorf("create product %q: %w", p.ID, errors.ErrDuplicateID)
	}
	s.products = append(s.products, p.Clone())
	return nil
}

// Update replaces the product with the given ID in place.
func (s *inMemory) Update(id string, p Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	p = p.Clone()
	p.ID = id
	s.products[i] = p
	return true
}

// Remove deletes a product by its ID.
func (s *inMemory) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.products = slices.Delete(s.products, i, i+1)
	return true
}

func (s *inMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// indexOf must be called with the lock held.
func (s *inMemory) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}
