// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/productapi/internal/product/errors"
	"github.com/abgdnv/productapi/internal/product/query"
	"github.com/abgdnv/productapi/internal/product/store"
	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/messaging/events"
	"github.com/google/uuid"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// List returns one page of the products matching p.
	List(ctx context.Context, p query.Params) query.Page[ProductDto]

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Create adds a new product with a freshly generated ID.
	Create(ctx context.Context, in ProductCreateInput) (*ProductDto, error)

	// Update merges in into an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id string, in ProductInput) (*ProductDto, error)

	// DeleteByID removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id string) error

	// Stats counts the products per category.
	Stats(ctx context.Context) StatsDto
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	newID      func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithIDGenerator replaces the UUID generator used for new products.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// NewService creates a new instance of ProductService with the provided repository.
// Product changes are announced through publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List filters and paginates the current products.
func (s *Service) List(_ context.Context, p query.Params) query.Page[ProductDto] {
	page := query.Apply(s.repository.FindAll(), p)
	return query.Map(page, toDto)
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(_ context.Context, id string) (*ProductDto, error) {
	product, ok := s.repository.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, errors.ErrProductNotFound)
	}
	dto := toDto(product)
	return &dto, nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *Service) Create(ctx context.Context, in ProductCreateInput) (*ProductDto, error) {
	product := merge(store.Product{ID: s.newID()}, ProductInput(in))
	if err := s.repository.Create(product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.InfoContext(ctx, "Product created", "product_id", product.ID)

	dto := toDto(product)
	s.publish(ctx, events.ProductCreated(ctx, product.ID, dto))
	return &dto, nil
}

// Update merges the present fields of in into the product and returns the result.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*ProductDto, error) {
	existing, ok := s.repository.FindByID(id)
	if !ok {
		return nil, fmt.Errorf("failed to update product %s: %w", id, errors.ErrProductNotFound)
	}
	updated := merge(existing, in)
	if !s.repository.Update(id, updated) {
		return nil, fmt.Errorf("failed to update product %s: %w", id, errors.ErrProductNotFound)
	}
	s.logger.InfoContext(ctx, "Product updated", "product_id", id)

	dto := toDto(updated)
	s.publish(ctx, events.ProductUpdated(ctx, id, dto))
	return &dto, nil
}

// DeleteByID deletes a product by its ID.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if _, ok := s.repository.FindByID(id); !ok {
		return fmt.Errorf("failed to delete product %s: %w", id, errors.ErrProductNotFound)
	}
	if !s.repository.Remove(id) {
		return fmt.Errorf("failed to delete product %s: %w", id, errors.ErrProductNotFound)
	}
	s.logger.InfoContext(ctx, "Product deleted", "product_id", id)

	s.publish(ctx, events.ProductDeleted(ctx, id))
	return nil
}

// Stats returns the number of products and their count per category.
func (s *Service) Stats(_ context.Context) StatsDto {
	products := s.repository.FindAll()
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Category]++
	}
	return StatsDto{Total: len(products), Counts: counts}
}

// publish sends event and only logs failures, a lost event never fails the request.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}
