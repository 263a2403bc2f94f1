package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yosseffehabb/illusion-studios/internal/cache"
	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/event"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	"github.com/yosseffehabb/illusion-studios/internal/integrity"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

func newCatalogService(categories *mockCategoryStore, products *mockProductStore) (*CatalogService, *stubEvents) {
	events := &stubEvents{}
	svc := NewCatalogService(
		categories,
		products,
		integrity.NewGuard(products),
		cache.New(0, nil),
		events,
		newTestLogger(),
	)
	return svc, events
}

func catalogFixtures() ([]domain.Category, []domain.Product) {
	categories := []domain.Category{
		{ID: "cat-001", Name: "Sneakers", Slug: "sneakers"},
		{ID: "cat-002", Name: "Boots", Slug: "boots"},
	}
	products := []domain.Product{
		{ID: "prod-001", Name: "Air Runner", CategoryID: "cat-001"},
		{ID: "prod-002", Name: "Trail Max", CategoryID: "cat-001"},
	}
	return categories, products
}

func TestListCategories_WithCounts(t *testing.T) {
	categories, products := catalogFixtures()
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	catStore.On("List", mock.Anything).Return(categories, nil).Once()
	prodStore.On("List", mock.Anything, gateway.ProductFilter{}).Return(products, nil).Once()

	svc, _ := newCatalogService(catStore, prodStore)

	got, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ProductCount)
	assert.Equal(t, 0, got[1].ProductCount)

	// Second call is served from the cache.
	_, err = svc.ListCategories(context.Background())
	require.NoError(t, err)
	catStore.AssertNumberOfCalls(t, "List", 1)
	prodStore.AssertNumberOfCalls(t, "List", 1)
}

func TestCreateCategory(t *testing.T) {
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	catStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Category")).Return(nil)

	svc, events := newCatalogService(catStore, prodStore)

	c, err := svc.CreateCategory(context.Background(), "Chaussures d'été")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "chaussures-d-ete", c.Slug)
	assert.Contains(t, events.topics(), event.TopicCategoryCreated)
}

func TestCreateCategory_EmptyName(t *testing.T) {
	svc, _ := newCatalogService(new(mockCategoryStore), new(mockProductStore))

	_, err := svc.CreateCategory(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCreateCategory_EventFailureDoesNotFailOperation(t *testing.T) {
	catStore := new(mockCategoryStore)
	catStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc, events := newCatalogService(catStore, new(mockProductStore))
	events.err = errors.New("broker down")

	_, err := svc.CreateCategory(context.Background(), "Sneakers")
	require.NoError(t, err)
}

func TestDeleteCategory_BlockedByProducts(t *testing.T) {
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	prodStore.On("CountByCategory", mock.Anything, "cat-001").Return(1, nil)

	svc, _ := newCatalogService(catStore, prodStore)

	err := svc.DeleteCategory(context.Background(), "cat-001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIntegrity))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 1, appErr.BlockingCount)
	catStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteCategory_CountFailurePropagates(t *testing.T) {
	prodStore := new(mockProductStore)
	prodStore.On("CountByCategory", mock.Anything, "cat-001").
		Return(0, apperrors.StoreUnavailable(errors.New("connection refused")))

	svc, _ := newCatalogService(new(mockCategoryStore), prodStore)

	err := svc.DeleteCategory(context.Background(), "cat-001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
}

func TestDeleteCategory_OptimisticRemovalAndRollback(t *testing.T) {
	categories, _ := catalogFixtures()
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	catStore.On("List", mock.Anything).Return(categories, nil).Once()
	prodStore.On("List", mock.Anything, gateway.ProductFilter{}).Return([]domain.Product{}, nil)
	prodStore.On("CountByCategory", mock.Anything, "cat-002").Return(0, nil)
	catStore.On("GetByID", mock.Anything, "cat-002").Return(&categories[1], nil)
	catStore.On("Delete", mock.Anything, "cat-002").
		Return(apperrors.StoreUnavailable(errors.New("timeout")))

	svc, _ := newCatalogService(catStore, prodStore)

	// Warm the cache so the optimistic edit has something to edit.
	_, err := svc.ListCategories(context.Background())
	require.NoError(t, err)

	err = svc.DeleteCategory(context.Background(), "cat-002")
	require.Error(t, err)

	// The rollback restored the cached list; no reload happens.
	got, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2, "the optimistic removal must be rolled back")
	catStore.AssertNumberOfCalls(t, "List", 1)
}

func TestDeleteCategory_Success(t *testing.T) {
	categories, _ := catalogFixtures()
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	catStore.On("List", mock.Anything).Return(categories, nil).Once()
	prodStore.On("List", mock.Anything, gateway.ProductFilter{}).Return([]domain.Product{}, nil)
	prodStore.On("CountByCategory", mock.Anything, "cat-002").Return(0, nil)
	catStore.On("GetByID", mock.Anything, "cat-002").Return(&categories[1], nil)
	catStore.On("Delete", mock.Anything, "cat-002").Return(nil)

	svc, events := newCatalogService(catStore, prodStore)

	_, err := svc.ListCategories(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(context.Background(), "cat-002"))

	// The optimistic edit stays; the list is served without another load.
	got, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	catStore.AssertNumberOfCalls(t, "List", 1)
	assert.Contains(t, events.topics(), event.TopicCategoryDeleted)
}

func validProductPayload() *domain.Product {
	return &domain.Product{
		Name:        "Air Runner",
		Description: "Lightweight running shoe",
		Color:       "white",
		Price:       12900,
		CategoryID:  "cat-001",
		SizeType:    domain.SizeTypeNumeric,
		Discount:    10,
		Status:      domain.ProductStatusActive,
		Variants:    []domain.Variant{{Size: "42", Stock: 5}},
	}
}

func TestCreateProduct(t *testing.T) {
	categories, _ := catalogFixtures()
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	catStore.On("List", mock.Anything).Return(categories, nil)
	prodStore.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	svc, events := newCatalogService(catStore, prodStore)

	p, err := svc.CreateProduct(context.Background(), validProductPayload())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "air-runner", p.Slug)
	require.Len(t, p.Variants, 1)
	assert.NotEmpty(t, p.Variants[0].ID)
	assert.Equal(t, p.ID, p.Variants[0].ProductID)
	assert.Contains(t, events.topics(), event.TopicProductCreated)
}

func TestCreateProduct_FullViolationSet(t *testing.T) {
	categories, _ := catalogFixtures()
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	catStore.On("List", mock.Anything).Return(categories, nil)

	svc, _ := newCatalogService(catStore, prodStore)

	_, err := svc.CreateProduct(context.Background(), &domain.Product{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Greater(t, len(appErr.Violations), 5, "every violation must be reported at once")
	prodStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSetVariantStock_Negative(t *testing.T) {
	svc, _ := newCatalogService(new(mockCategoryStore), new(mockProductStore))

	err := svc.SetVariantStock(context.Background(), "prod-001", "var-001", -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestSetVariantStock(t *testing.T) {
	prodStore := new(mockProductStore)
	prodStore.On("UpdateVariantStock", mock.Anything, "var-001", 7).Return(nil)

	svc, _ := newCatalogService(new(mockCategoryStore), prodStore)

	require.NoError(t, svc.SetVariantStock(context.Background(), "prod-001", "var-001", 7))
	prodStore.AssertExpectations(t)
}

func TestListProducts_FilteredViewsCachedSeparately(t *testing.T) {
	catStore := new(mockCategoryStore)
	prodStore := new(mockProductStore)
	all := []domain.Product{{ID: "prod-001"}, {ID: "prod-002"}}
	active := []domain.Product{{ID: "prod-001"}}
	prodStore.On("List", mock.Anything, gateway.ProductFilter{}).Return(all, nil).Once()
	prodStore.On("List", mock.Anything, gateway.ProductFilter{Status: "active"}).Return(active, nil).Once()

	svc, _ := newCatalogService(catStore, prodStore)

	got, err := svc.ListProducts(context.Background(), gateway.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ListProducts(context.Background(), gateway.ProductFilter{Status: "active"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Both views hit the cache now.
	_, err = svc.ListProducts(context.Background(), gateway.ProductFilter{})
	require.NoError(t, err)
	_, err = svc.ListProducts(context.Background(), gateway.ProductFilter{Status: "active"})
	require.NoError(t, err)
	prodStore.AssertNumberOfCalls(t, "List", 2)
}
