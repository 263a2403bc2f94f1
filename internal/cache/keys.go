package cache

import (
	"net/url"
	"strconv"

	"github.com/yosseffehabb/illusion-studios/internal/gateway"
)

// Well-known cache keys. Filtered list views get their own derived keys so an
// unfiltered view and a filtered one never shadow each other.
const (
	KeyCategories = "categories"
	KeyProducts   = "products"
	KeyOrders     = "orders"
	KeyOrderStats = "stats:orders"

	// Prefix keys for Invalidate: every product view, every order view.
	KeyAllProductViews = "product*"
	KeyAllOrderViews   = "order*"
	// Filtered list views only, leaving the unfiltered list alone.
	KeyFilteredProductViews = "products?*"
)

// ProductKey is the cache key of a single product record.
func ProductKey(id string) string {
	return "product:" + id
}

// OrderKey is the cache key of a single order record.
func OrderKey(id string) string {
	return "order:" + id
}

// ProductListKey derives the cache key of a filtered product view.
func ProductListKey(f gateway.ProductFilter) string {
	if f == (gateway.ProductFilter{}) {
		return KeyProducts
	}
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryID != "" {
		q.Set("category_id", f.CategoryID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return KeyProducts + "?" + q.Encode()
}

// OrderListKey derives the cache key of a filtered order view.
func OrderListKey(f gateway.OrderFilter) string {
	if f == (gateway.OrderFilter{}) {
		return KeyOrders
	}
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return KeyOrders + "?" + q.Encode()
}
