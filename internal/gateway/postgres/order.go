package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// orderSelect fetches an order together with its items in a single query
// using LEFT JOIN + JSONB_AGG.
const orderSelect = `
	SELECT
		o.id, o.order_number, o.customer_name, o.customer_phone, o.status,
		o.total_price, o.created_at, o.updated_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'id', i.id,
					'order_id', i.order_id,
					'product_id', i.product_id,
					'product_name', i.product_name,
					'product_color', i.product_color,
					'product_sku', i.product_sku,
					'size', i.size,
					'quantity', i.quantity,
					'unit_price', i.unit_price,
					'discount', i.discount,
					'subtotal', i.subtotal
				) ORDER BY i.id
			) FILTER (WHERE i.id IS NOT NULL),
			'[]'::jsonb
		) AS items
	FROM orders o
	LEFT JOIN order_items i ON o.id = i.order_id`

const orderGroupBy = `
	GROUP BY o.id, o.order_number, o.customer_name, o.customer_phone, o.status,
		o.total_price, o.created_at, o.updated_at`

// OrderStore implements gateway.OrderStore against PostgreSQL. Orders are
// written by the storefront ordering flow; this store never inserts them.
type OrderStore struct {
	pool DBTX
}

// NewOrderStore creates a new PostgreSQL-backed order store.
func NewOrderStore(pool DBTX) *OrderStore {
	return &OrderStore{pool: pool}
}

// List returns orders matching the filter, newest first.
func (s *OrderStore) List(ctx context.Context, filter gateway.OrderFilter) ([]domain.Order, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(o.customer_name ILIKE $%d OR o.order_number ILIKE $%d OR o.customer_phone ILIKE $%d)",
			argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	query := orderSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderGroupBy + " ORDER BY o.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	defer rows.Close()

	var orders []domain.Order

	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate order rows", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, nil
}

// GetByID retrieves an order with its items.
func (s *OrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOne(ctx, "o.id", id)
}

// GetByNumber retrieves an order by its human-readable order number.
func (s *OrderStore) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.getOne(ctx, "o.order_number", number)
}

func (s *OrderStore) getOne(ctx context.Context, column, value string) (*domain.Order, error) {
	query := orderSelect + " WHERE " + column + " = $1" + orderGroupBy

	rows, err := s.pool.Query(ctx, query, value)
	if err != nil {
		return nil, storeErr("get order", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, storeErr("get order", err)
		}
		return nil, apperrors.NotFound("order", value)
	}

	o, err := scanOrderRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}

	return o, nil
}

// UpdateStatus persists a status change. Lifecycle validation happens above
// the gateway; this only writes the new value.
func (s *OrderStore) UpdateStatus(ctx context.Context, id, status string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return storeErr("update order status", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

func scanOrderRow(rows pgx.Rows) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)

	err := rows.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &o.Status,
		&o.TotalPrice, &o.CreatedAt, &o.UpdatedAt, &itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}

	return &o, nil
}
