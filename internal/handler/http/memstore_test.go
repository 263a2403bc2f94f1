package http

import (
	"context"
	"strings"
	"sync"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/event"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// memStore is an in-memory record store implementing all three gateway
// interfaces for handler tests.
type memStore struct {
	mu         sync.Mutex
	categories []domain.Category
	products   []domain.Product
	orders     []domain.Order
}

func (m *memStore) List(ctx context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Category(nil), m.categories...), nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == id {
			c := m.categories[i]
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("category", id)
}

func (m *memStore) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].Slug == slug {
			c := m.categories[i]
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("category", slug)
}

func (m *memStore) Create(ctx context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].Slug == c.Slug {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
	}
	m.categories = append(m.categories, *c)
	return nil
}

func (m *memStore) Update(ctx context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == c.ID {
			m.categories[i] = *c
			return nil
		}
	}
	return apperrors.NotFound("category", c.ID)
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == id {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("category", id)
}

// memProducts implements gateway.ProductStore over the shared memStore.
type memProducts struct{ store *memStore }

func (m *memProducts) List(ctx context.Context, filter gateway.ProductFilter) ([]domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []domain.Product
	for _, p := range m.store.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) &&
			!strings.Contains(p.Slug, strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

func (m *memProducts) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.products {
		if m.store.products[i].ID == id {
			p := m.store.products[i]
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("product", id)
}

func (m *memProducts) Create(ctx context.Context, p *domain.Product) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.products = append(m.store.products, *p)
	return nil
}

func (m *memProducts) Update(ctx context.Context, p *domain.Product) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.products {
		if m.store.products[i].ID == p.ID {
			m.store.products[i] = *p
			return nil
		}
	}
	return apperrors.NotFound("product", p.ID)
}

func (m *memProducts) Delete(ctx context.Context, id string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.products {
		if m.store.products[i].ID == id {
			m.store.products = append(m.store.products[:i], m.store.products[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("product", id)
}

func (m *memProducts) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var count int
	for i := range m.store.products {
		if m.store.products[i].CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (m *memProducts) UpdateVariantStock(ctx context.Context, variantID string, stock int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.products {
		for j := range m.store.products[i].Variants {
			if m.store.products[i].Variants[j].ID == variantID {
				m.store.products[i].Variants[j].Stock = stock
				return nil
			}
		}
	}
	return apperrors.NotFound("variant", variantID)
}

// memOrders implements gateway.OrderStore over the shared memStore.
type memOrders struct{ store *memStore }

func (m *memOrders) List(ctx context.Context, filter gateway.OrderFilter) ([]domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []domain.Order
	for _, o := range m.store.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), strings.ToLower(filter.Search)) &&
			!strings.Contains(o.OrderNumber, filter.Search) &&
			!strings.Contains(o.CustomerPhone, filter.Search) {
			continue
		}
		out = append(out, o)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	if out == nil {
		out = []domain.Order{}
	}
	return out, nil
}

func (m *memOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.orders {
		if m.store.orders[i].ID == id {
			o := m.store.orders[i]
			return &o, nil
		}
	}
	return nil, apperrors.NotFound("order", id)
}

func (m *memOrders) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.orders {
		if m.store.orders[i].OrderNumber == number {
			o := m.store.orders[i]
			return &o, nil
		}
	}
	return nil, apperrors.NotFound("order", number)
}

func (m *memOrders) UpdateStatus(ctx context.Context, id, status string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for i := range m.store.orders {
		if m.store.orders[i].ID == id {
			m.store.orders[i].Status = status
			return nil
		}
	}
	return apperrors.NotFound("order", id)
}

// noopEvents satisfies service.EventPublisher without a broker.
type noopEvents struct{}

func (noopEvents) PublishCategoryCreated(context.Context, event.CategoryData) error    { return nil }
func (noopEvents) PublishCategoryDeleted(context.Context, event.CategoryData) error    { return nil }
func (noopEvents) PublishProductCreated(context.Context, event.ProductData) error      { return nil }
func (noopEvents) PublishProductUpdated(context.Context, event.ProductData) error      { return nil }
func (noopEvents) PublishProductDeleted(context.Context, event.ProductData) error      { return nil }
func (noopEvents) PublishOrderStatusChanged(context.Context, event.OrderStatusChangedData) error {
	return nil
}
