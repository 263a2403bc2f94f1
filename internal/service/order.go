package service

import (
	"context"
	"log/slog"

	"github.com/yosseffehabb/illusion-studios/internal/aggregate"
	"github.com/yosseffehabb/illusion-studios/internal/cache"
	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/event"
	"github.com/yosseffehabb/illusion-studios/internal/export"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
)

// OrderService owns the read and transition operations on orders. Orders are
// created by the storefront ordering flow, never here.
type OrderService struct {
	orders gateway.OrderStore
	cache  *cache.Coordinator
	events EventPublisher
	logger *slog.Logger
}

// NewOrderService creates the order service.
func NewOrderService(orders gateway.OrderStore, coordinator *cache.Coordinator, events EventPublisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		cache:  coordinator,
		events: events,
		logger: logger,
	}
}

// ListOrders returns orders matching the filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter gateway.OrderFilter) ([]domain.Order, error) {
	v, err := s.cache.GetOrLoad(ctx, cache.OrderListKey(filter), func(ctx context.Context) (any, error) {
		return s.orders.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Order), nil
}

// SearchOrders finds orders whose customer name, order number or phone
// contains the query.
func (s *OrderService) SearchOrders(ctx context.Context, query string) ([]domain.Order, error) {
	return s.ListOrders(ctx, gateway.OrderFilter{Search: query})
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	v, err := s.cache.GetOrLoad(ctx, cache.OrderKey(id), func(ctx context.Context) (any, error) {
		return s.orders.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

// GetOrderByNumber returns one order by its human-readable number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	v, err := s.cache.GetOrLoad(ctx, "order:number:"+number, func(ctx context.Context) (any, error) {
		return s.orders.GetByNumber(ctx, number)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

// TransitionStatus advances an order along the lifecycle. The read and the
// lifecycle check run inside the order's mutation queue, so concurrent
// transitions on the same order validate against the status the previous one
// persisted, never against a stale cache or a stale earlier read. An illegal
// edge rejects before any write. Totals and items are untouched.
func (s *OrderService) TransitionStatus(ctx context.Context, id, target string) (*domain.Order, error) {
	var order *domain.Order
	var oldStatus string

	err := s.cache.Mutate(ctx, id, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}

		oldStatus = o.Status
		if err := o.Transition(target); err != nil {
			return err
		}

		order = o
		return s.orders.UpdateStatus(ctx, id, target)
	}, cache.KeyAllOrderViews, cache.KeyOrderStats)
	if err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, order, oldStatus, target)
	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", id),
		slog.String("from", oldStatus),
		slog.String("to", target),
	)

	return order, nil
}

// Stats returns the derived order statistics. The aggregate is recomputed
// from the order list on every cache refresh and never persisted.
func (s *OrderService) Stats(ctx context.Context) (aggregate.OrderStats, error) {
	v, err := s.cache.GetOrLoad(ctx, cache.KeyOrderStats, func(ctx context.Context) (any, error) {
		orders, err := s.orders.List(ctx, gateway.OrderFilter{})
		if err != nil {
			return nil, err
		}
		return aggregate.OrderStatistics(orders), nil
	})
	if err != nil {
		return aggregate.OrderStats{}, err
	}
	return v.(aggregate.OrderStats), nil
}

// ExportOrders renders the orders matching the filter as an xlsx workbook.
func (s *OrderService) ExportOrders(ctx context.Context, filter gateway.OrderFilter) ([]byte, error) {
	orders, err := s.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return export.OrdersWorkbook(orders)
}

func (s *OrderService) publishStatusChanged(ctx context.Context, order *domain.Order, oldStatus, newStatus string) {
	err := s.events.PublishOrderStatusChanged(ctx, event.OrderStatusChangedData{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}
}
