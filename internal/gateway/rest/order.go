package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// orderSelect embeds each order's items under the "items" key.
const orderSelect = "*,items:order_items(*)"

// OrderStore implements gateway.OrderStore over the record API. Orders are
// written by the storefront ordering flow; this store never inserts them.
type OrderStore struct {
	client *Client
}

// NewOrderStore creates a REST-backed order store.
func NewOrderStore(client *Client) *OrderStore {
	return &OrderStore{client: client}
}

// List returns orders matching the filter, newest first.
func (s *OrderStore) List(ctx context.Context, filter gateway.OrderFilter) ([]domain.Order, error) {
	query := url.Values{
		"select": {orderSelect},
		"order":  {"created_at.desc"},
	}
	if filter.Status != "" {
		query.Set("status", eq(filter.Status))
	}
	if filter.Search != "" {
		query.Set("or", fmt.Sprintf(
			"(customer_name.ilike.*%s*,order_number.ilike.*%s*,customer_phone.ilike.*%s*)",
			filter.Search, filter.Search, filter.Search))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var orders []domain.Order
	if err := s.client.do(ctx, http.MethodGet, "/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	for i := range orders {
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, nil
}

// GetByID retrieves an order with its items.
func (s *OrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOne(ctx, "id", id)
}

// GetByNumber retrieves an order by its human-readable order number.
func (s *OrderStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.getOne(ctx, "order_number", number)
}

func (s *OrderStore) getOne(ctx context.Context, column, value string) (*domain.Order, error) {
	query := url.Values{
		"select": {orderSelect},
		column:   {eq(value)},
	}

	var orders []domain.Order
	if err := s.client.do(ctx, http.MethodGet, "/orders", query, nil, &orders); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", value)
		}
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("order", value)
	}
	o := orders[0]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return &o, nil
}

// UpdateStatus persists a status change. Lifecycle validation happens above
// the gateway.
func (s *OrderStore) UpdateStatus(ctx context.Context, id, status string) error {
	query := url.Values{"id": {eq(id)}}
	body := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}

	var updated []json.RawMessage
	if err := s.client.do(ctx, http.MethodPatch, "/orders", query, body, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}
