package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
	"github.com/yosseffehabb/illusion-studios/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, testLogger())
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestCategoryStore_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/categories", r.URL.Path)
		assert.Equal(t, "name.asc", r.URL.Query().Get("order"))
		writeJSON(t, w, []domain.Category{
			{ID: "cat-001", Name: "Sneakers", Slug: "sneakers"},
			{ID: "cat-002", Name: "Boots", Slug: "boots"},
		})
	})

	got, err := NewCategoryStore(client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sneakers", got[0].Slug)
}

func TestCategoryStore_GetByID_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		writeJSON(t, w, []domain.Category{})
	})

	_, err := NewCategoryStore(client).GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCategoryStore_Create_DuplicateSlug(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusConflict)
	})

	err := NewCategoryStore(client).Create(context.Background(), &domain.Category{Slug: "sneakers"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCategoryStore_Delete_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		writeJSON(t, w, []domain.Category{})
	})

	err := NewCategoryStore(client).Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductStore_List_Filters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "*,variants:product_variants(*)", q.Get("select"))
		assert.Equal(t, "(name.ilike.*runner*,slug.ilike.*runner*)", q.Get("or"))
		assert.Equal(t, "eq.cat-001", q.Get("category_id"))
		assert.Equal(t, "eq.active", q.Get("status"))
		writeJSON(t, w, []domain.Product{{
			ID:       "prod-001",
			Name:     "Air Runner",
			Variants: []domain.Variant{{ID: "var-001", Size: "42", Stock: 5}},
		}})
	})

	got, err := NewProductStore(client).List(context.Background(), gateway.ProductFilter{
		Search:     "runner",
		CategoryID: "cat-001",
		Status:     "active",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Variants, 1)
	assert.Equal(t, "42", got[0].Variants[0].Size)
}

func TestProductStore_CountByCategory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "count", q.Get("select"))
		assert.Equal(t, "eq.cat-001", q.Get("category_id"))
		writeJSON(t, w, []map[string]int{{"count": 4}})
	})

	count, err := NewProductStore(client).CountByCategory(context.Background(), "cat-001")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestProductStore_CountByCategory_StoreUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewProductStore(client).CountByCategory(context.Background(), "cat-001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
}

func TestProductStore_UpdateVariantStock_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/product_variants", r.URL.Path)
		writeJSON(t, w, []domain.Variant{})
	})

	err := NewProductStore(client).UpdateVariantStock(context.Background(), "missing", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestOrderStore_List_StatusAndLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.pending", q.Get("status"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		writeJSON(t, w, []domain.Order{{
			ID:          "order-001",
			OrderNumber: "ORD-20250615-A1B2C3",
			Status:      domain.OrderStatusPending,
			Items:       []domain.OrderItem{{ID: "item-001", Subtotal: 18000}},
		}})
	})

	got, err := NewOrderStore(client).List(context.Background(), gateway.OrderFilter{
		Status: domain.OrderStatusPending,
		Limit:  5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Items, 1)
}

func TestOrderStore_UpdateStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.order-001", r.URL.Query().Get("id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "confirmed", body["status"])

		writeJSON(t, w, []map[string]string{{"id": "order-001"}})
	})

	err := NewOrderStore(client).UpdateStatus(context.Background(), "order-001", "confirmed")
	require.NoError(t, err)
}

func TestOrderStore_UpdateStatus_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]string{})
	})

	err := NewOrderStore(client).UpdateStatus(context.Background(), "missing", "confirmed")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestClient_NoRetries(t *testing.T) {
	var hits int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := NewCategoryStore(client).List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.Equal(t, 1, hits, "a failing call must not be retried")
}

func TestClient_BreakerOpens(t *testing.T) {
	var hits int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})
	store := NewCategoryStore(client)

	// Default breaker settings trip at a 50% failure ratio after 5 requests.
	for i := 0; i < 5; i++ {
		_, err := store.List(context.Background())
		require.Error(t, err)
	}

	hitsBefore := hits
	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.True(t, errors.Is(err, httpclient.ErrCircuitOpen))
	assert.Equal(t, hitsBefore, hits, "an open breaker must short-circuit before the store")
}
