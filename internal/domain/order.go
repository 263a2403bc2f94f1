package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// Order status constants. The lifecycle is a DAG: pending → confirmed →
// out_for_delivery → delivered, with pending|confirmed → cancelled.
// delivered and cancelled are terminal.
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Order represents a customer order. Orders are created by the storefront
// ordering flow; the back office only reads them and advances their status.
type Order struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"order_number"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Status        string      `json:"status"`
	TotalPrice    int64       `json:"total_price"` // derived: Σ item subtotals
	Items         []OrderItem `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderItem is an immutable snapshot of a purchased product variant.
type OrderItem struct {
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductColor string `json:"product_color"`
	ProductSKU   string `json:"product_sku"`
	Size         string `json:"size"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"` // minor units
	Discount     int    `json:"discount"`   // percent, 0..100
	Subtotal     int64  `json:"subtotal"`   // minor units
}

// ComputeSubtotal returns unit_price × quantity × (100 − discount) / 100 in
// minor units, truncating fractional sub-units.
func (i *OrderItem) ComputeSubtotal() int64 {
	return i.UnitPrice * int64(i.Quantity) * int64(100-i.Discount) / 100
}

// ComputeTotal returns the sum of the order's item subtotals. The stored
// TotalPrice must always equal this value.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for i := range o.Items {
		total += o.Items[i].ComputeSubtotal()
	}
	return total
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. Terminal
// states map to an empty successor set.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:      {OrderStatusOutForDelivery, OrderStatusCancelled},
		OrderStatusOutForDelivery: {OrderStatusDelivered},
		OrderStatusDelivered:      {},
		OrderStatusCancelled:      {},
	}
}

// IsTerminal reports whether the order is in a state that permits no further
// transitions.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// Transition applies the status change after validating it against the
// lifecycle DAG. It never touches TotalPrice or Items.
func (o *Order) Transition(target string) error {
	if !IsValidStatus(target) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s", target, strings.Join(ValidStatuses(), ", ")))
	}
	if !o.CanTransitionTo(target) {
		return apperrors.Transition(o.Status, target)
	}
	o.Status = target
	return nil
}

// NewOrderNumber generates a unique human-readable order number.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
