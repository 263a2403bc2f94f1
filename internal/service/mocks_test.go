package service

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/event"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
)

// --- Mock Stores ---

type mockCategoryStore struct {
	mock.Mock
}

func (m *mockCategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryStore) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryStore) Create(ctx context.Context, c *domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryStore) Update(ctx context.Context, c *domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockProductStore struct {
	mock.Mock
}

func (m *mockProductStore) List(ctx context.Context, filter gateway.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductStore) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductStore) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductStore) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	args := m.Called(ctx, categoryID)
	return args.Int(0), args.Error(1)
}

func (m *mockProductStore) UpdateVariantStock(ctx context.Context, variantID string, stock int) error {
	args := m.Called(ctx, variantID, stock)
	return args.Error(0)
}

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) List(ctx context.Context, filter gateway.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderStore) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// --- Stub Event Publisher ---

// stubEvents records published event types. Publishing must stay best effort,
// so it can also be told to fail.
type stubEvents struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (s *stubEvents) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, name)
	return s.err
}

func (s *stubEvents) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.published...)
}

func (s *stubEvents) PublishCategoryCreated(ctx context.Context, data event.CategoryData) error {
	return s.record(event.TopicCategoryCreated)
}

func (s *stubEvents) PublishCategoryDeleted(ctx context.Context, data event.CategoryData) error {
	return s.record(event.TopicCategoryDeleted)
}

func (s *stubEvents) PublishProductCreated(ctx context.Context, data event.ProductData) error {
	return s.record(event.TopicProductCreated)
}

func (s *stubEvents) PublishProductUpdated(ctx context.Context, data event.ProductData) error {
	return s.record(event.TopicProductUpdated)
}

func (s *stubEvents) PublishProductDeleted(ctx context.Context, data event.ProductData) error {
	return s.record(event.TopicProductDeleted)
}

func (s *stubEvents) PublishOrderStatusChanged(ctx context.Context, data event.OrderStatusChangedData) error {
	return s.record(event.TopicOrderStatusChanged)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
