// Package gateway defines the boundary to the remote record store. All I/O
// against the store goes through these interfaces; everything above them
// (integrity checks, aggregation, caching) is pure or in-memory.
package gateway

import (
	"context"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
)

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	// Search matches a substring of name or slug, case-insensitively.
	Search     string
	CategoryID string
	Status     string
}

// OrderFilter narrows an order listing. Zero values mean "no constraint".
type OrderFilter struct {
	Status string
	// Search matches a substring of customer_name, order_number or
	// customer_phone, case-insensitively.
	Search string
	// Limit caps the result to the N most recent orders. Zero means all.
	Limit int
}

// CategoryStore is the record-store boundary for categories.
type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

// ProductStore is the record-store boundary for products and their variants.
// Variants are always loaded and persisted with their owning product.
type ProductStore interface {
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	// CountByCategory returns how many products reference the category.
	// It is a count-only query; no product rows are transferred.
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	UpdateVariantStock(ctx context.Context, variantID string, stock int) error
}

// OrderStore is the record-store boundary for orders. Orders are written by
// the storefront ordering flow; this side only reads them and updates status.
type OrderStore interface {
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// Stores bundles the three store interfaces so wiring code can pass one
// value around regardless of which adapter backs them.
type Stores struct {
	Categories CategoryStore
	Products   ProductStore
	Orders     OrderStore
}
