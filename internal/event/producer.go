// Package event publishes back-office domain events to Kafka. Publishing is
// best effort: callers log failures and never fail the operation over them.
package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/yosseffehabb/illusion-studios/pkg/kafka"
)

// Kafka topic constants for back-office domain events.
const (
	TopicCategoryCreated    = "backoffice.category.created"
	TopicCategoryDeleted    = "backoffice.category.deleted"
	TopicProductCreated     = "backoffice.product.created"
	TopicProductUpdated     = "backoffice.product.updated"
	TopicProductDeleted     = "backoffice.product.deleted"
	TopicOrderStatusChanged = "backoffice.order.status_changed"
)

// Aggregate type constants.
const (
	AggregateTypeCategory = "category"
	AggregateTypeProduct  = "product"
	AggregateTypeOrder    = "order"
)

// Source identifier for events originating from the back office.
const SourceBackOffice = "backoffice"

// CategoryData is the payload for category events.
type CategoryData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductData is the payload for product events.
type ProductData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	CategoryID string `json:"category_id"`
	Status     string `json:"status"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// Producer publishes back-office domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCategoryCreated publishes a category.created event.
func (p *Producer) PublishCategoryCreated(ctx context.Context, data CategoryData) error {
	return p.publish(ctx, TopicCategoryCreated, data.ID, AggregateTypeCategory, data)
}

// PublishCategoryDeleted publishes a category.deleted event.
func (p *Producer) PublishCategoryDeleted(ctx context.Context, data CategoryData) error {
	return p.publish(ctx, TopicCategoryDeleted, data.ID, AggregateTypeCategory, data)
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, data ProductData) error {
	return p.publish(ctx, TopicProductCreated, data.ID, AggregateTypeProduct, data)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, data ProductData) error {
	return p.publish(ctx, TopicProductUpdated, data.ID, AggregateTypeProduct, data)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, data ProductData) error {
	return p.publish(ctx, TopicProductDeleted, data.ID, AggregateTypeProduct, data)
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, data OrderStatusChangedData) error {
	return p.publish(ctx, TopicOrderStatusChanged, data.OrderID, AggregateTypeOrder, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceBackOffice, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
