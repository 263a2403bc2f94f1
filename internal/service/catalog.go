// Package service implements the back-office operations on top of the
// gateway, the integrity guard, the aggregation functions and the mutation
// coordinator. Handlers call into this package only.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yosseffehabb/illusion-studios/internal/aggregate"
	"github.com/yosseffehabb/illusion-studios/internal/cache"
	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/event"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	"github.com/yosseffehabb/illusion-studios/internal/integrity"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
	"github.com/yosseffehabb/illusion-studios/pkg/slug"
)

// EventPublisher is the slice of the event producer the services need.
// Publishing is best effort; services log failures and move on.
type EventPublisher interface {
	PublishCategoryCreated(ctx context.Context, data event.CategoryData) error
	PublishCategoryDeleted(ctx context.Context, data event.CategoryData) error
	PublishProductCreated(ctx context.Context, data event.ProductData) error
	PublishProductUpdated(ctx context.Context, data event.ProductData) error
	PublishProductDeleted(ctx context.Context, data event.ProductData) error
	PublishOrderStatusChanged(ctx context.Context, data event.OrderStatusChangedData) error
}

// CatalogService owns category and product operations.
type CatalogService struct {
	categories gateway.CategoryStore
	products   gateway.ProductStore
	guard      *integrity.Guard
	cache      *cache.Coordinator
	events     EventPublisher
	logger     *slog.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(
	categories gateway.CategoryStore,
	products gateway.ProductStore,
	guard *integrity.Guard,
	coordinator *cache.Coordinator,
	events EventPublisher,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		products:   products,
		guard:      guard,
		cache:      coordinator,
		events:     events,
		logger:     logger,
	}
}

// ListCategories returns all categories with their product counts. Both
// source collections come from the cache; the counts are derived fresh on
// every call and never stored.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.CategoryWithCount, error) {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.loadProducts(ctx, gateway.ProductFilter{})
	if err != nil {
		return nil, err
	}

	return aggregate.CategoryProductCounts(categories, products), nil
}

// CreateCategory creates a category with a slug generated from its name.
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("category name must not be empty")
	}

	now := time.Now().UTC()
	c := &domain.Category{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      slug.Generate(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.cache.Mutate(ctx, c.ID, func(ctx context.Context) error {
		return s.categories.Create(ctx, c)
	}, cache.KeyCategories)
	if err != nil {
		return nil, err
	}

	s.publishCategoryEvent(ctx, s.events.PublishCategoryCreated, c)
	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", c.ID),
		slog.String("slug", c.Slug),
	)

	return c, nil
}

// RenameCategory renames a category and regenerates its slug.
func (s *CatalogService) RenameCategory(ctx context.Context, id, name string) (*domain.Category, error) {
	if name == "" {
		return nil, apperrors.InvalidInput("category name must not be empty")
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.Name = name
	c.Slug = slug.Generate(name)

	err = s.cache.Mutate(ctx, id, func(ctx context.Context) error {
		return s.categories.Update(ctx, c)
	}, cache.KeyCategories)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category renamed",
		slog.String("category_id", id),
		slog.String("slug", c.Slug),
	)

	return c, nil
}

// DeleteCategory deletes a category after the integrity guard clears it. The
// cached category list is edited optimistically so the row disappears right
// away; the edit is rolled back if the store delete fails.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	decision, err := s.guard.CanDeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperrors.IntegrityViolation(
			fmt.Sprintf("category is referenced by %d product(s)", decision.BlockingCount),
			decision.BlockingCount,
		)
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.cache.MutateOptimistic(ctx, id, cache.KeyCategories,
		func(v any) any {
			list, ok := v.([]domain.Category)
			if !ok {
				return v
			}
			kept := make([]domain.Category, 0, len(list))
			for i := range list {
				if list[i].ID != id {
					kept = append(kept, list[i])
				}
			}
			return kept
		},
		func(ctx context.Context) error {
			return s.categories.Delete(ctx, id)
		},
	)
	if err != nil {
		return err
	}

	s.publishCategoryEvent(ctx, s.events.PublishCategoryDeleted, c)
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))

	return nil
}

// ListProducts returns products matching the filter. Each filtered view is
// cached under its own key.
func (s *CatalogService) ListProducts(ctx context.Context, filter gateway.ProductFilter) ([]domain.Product, error) {
	return s.loadProducts(ctx, filter)
}

// GetProduct returns one product with its variants.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err := s.cache.GetOrLoad(ctx, cache.ProductKey(id), func(ctx context.Context) (any, error) {
		return s.products.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// CreateProduct validates the payload in full and creates the product with
// its variants. Identifiers, slug and timestamps are assigned here.
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}
	if violations := integrity.ValidateProduct(p, categories); len(violations) > 0 {
		return nil, apperrors.Validation(violations)
	}

	now := time.Now().UTC()
	p.ID = uuid.New().String()
	p.Slug = slug.Generate(p.Name)
	p.CreatedAt = now
	p.UpdatedAt = now
	for i := range p.Variants {
		p.Variants[i].ID = uuid.New().String()
		p.Variants[i].ProductID = p.ID
	}

	err = s.cache.Mutate(ctx, p.ID, func(ctx context.Context) error {
		return s.products.Create(ctx, p)
	}, cache.KeyAllProductViews, cache.KeyCategories)
	if err != nil {
		return nil, err
	}

	s.publishProductEvent(ctx, s.events.PublishProductCreated, p)
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
		slog.Int("variants", len(p.Variants)),
	)

	return p, nil
}

// UpdateProduct validates the payload in full and rewrites the product and
// its variant set.
func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		return nil, apperrors.InvalidInput("product id must not be empty")
	}

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}
	if violations := integrity.ValidateProduct(p, categories); len(violations) > 0 {
		return nil, apperrors.Validation(violations)
	}

	p.Slug = slug.Generate(p.Name)
	for i := range p.Variants {
		if p.Variants[i].ID == "" {
			p.Variants[i].ID = uuid.New().String()
		}
		p.Variants[i].ProductID = p.ID
	}

	err = s.cache.Mutate(ctx, p.ID, func(ctx context.Context) error {
		return s.products.Update(ctx, p)
	}, cache.KeyAllProductViews, cache.KeyCategories)
	if err != nil {
		return nil, err
	}

	s.publishProductEvent(ctx, s.events.PublishProductUpdated, p)
	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", p.ID))

	return p, nil
}

// DeleteProduct deletes a product. The cached unfiltered product list is
// edited optimistically; filtered views and the single record are dropped
// after the store confirms.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	err = s.cache.MutateOptimistic(ctx, id, cache.KeyProducts,
		func(v any) any {
			list, ok := v.([]domain.Product)
			if !ok {
				return v
			}
			kept := make([]domain.Product, 0, len(list))
			for i := range list {
				if list[i].ID != id {
					kept = append(kept, list[i])
				}
			}
			return kept
		},
		func(ctx context.Context) error {
			return s.products.Delete(ctx, id)
		},
	)
	if err != nil {
		return err
	}

	s.cache.Invalidate(cache.KeyFilteredProductViews, cache.ProductKey(id), cache.KeyCategories)

	s.publishProductEvent(ctx, s.events.PublishProductDeleted, p)
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))

	return nil
}

// SetVariantStock sets the stock of one variant. Writes against the same
// variant are serialized in submission order.
func (s *CatalogService) SetVariantStock(ctx context.Context, productID, variantID string, stock int) error {
	if stock < 0 {
		return apperrors.InvalidInput("stock must not be negative")
	}

	err := s.cache.Mutate(ctx, variantID, func(ctx context.Context) error {
		return s.products.UpdateVariantStock(ctx, variantID, stock)
	}, cache.KeyAllProductViews)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "variant stock updated",
		slog.String("product_id", productID),
		slog.String("variant_id", variantID),
		slog.Int("stock", stock),
	)

	return nil
}

func (s *CatalogService) loadCategories(ctx context.Context) ([]domain.Category, error) {
	v, err := s.cache.GetOrLoad(ctx, cache.KeyCategories, func(ctx context.Context) (any, error) {
		return s.categories.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Category), nil
}

func (s *CatalogService) loadProducts(ctx context.Context, filter gateway.ProductFilter) ([]domain.Product, error) {
	v, err := s.cache.GetOrLoad(ctx, cache.ProductListKey(filter), func(ctx context.Context) (any, error) {
		return s.products.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (s *CatalogService) publishCategoryEvent(ctx context.Context, publish func(context.Context, event.CategoryData) error, c *domain.Category) {
	err := publish(ctx, event.CategoryData{ID: c.ID, Name: c.Name, Slug: c.Slug})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish category event",
			slog.String("category_id", c.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}
}

func (s *CatalogService) publishProductEvent(ctx context.Context, publish func(context.Context, event.ProductData) error, p *domain.Product) {
	err := publish(ctx, event.ProductData{
		ID:         p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		CategoryID: p.CategoryID,
		Status:     p.Status,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}
}
