// Package aggregate derives read-side views from source collections. Every
// function here is pure: derived values are recomputed from their sources on
// each refresh and never written back to the record store.
package aggregate

import "github.com/yosseffehabb/illusion-studios/internal/domain"

// OrderStats summarizes the order book.
type OrderStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	// Revenue is the sum of total_price over non-cancelled orders, in minor
	// units. Cancelled orders never count toward revenue.
	Revenue int64 `json:"revenue"`
}

// CategoryProductCounts pairs each category with the number of products that
// reference it. Products pointing at an unknown category are ignored.
func CategoryProductCounts(categories []domain.Category, products []domain.Product) []domain.CategoryWithCount {
	counts := make(map[string]int, len(categories))
	for i := range products {
		counts[products[i].CategoryID]++
	}

	result := make([]domain.CategoryWithCount, len(categories))
	for i, c := range categories {
		result[i] = domain.CategoryWithCount{
			Category:     c,
			ProductCount: counts[c.ID],
		}
	}
	return result
}

// ProductTotalStock sums the stock of all variants of a product.
func ProductTotalStock(p *domain.Product) int {
	var total int
	for i := range p.Variants {
		total += p.Variants[i].Stock
	}
	return total
}

// OrderStatistics computes per-status counts, the overall total and revenue.
// Every valid status appears in ByStatus, with zero when no order holds it.
func OrderStatistics(orders []domain.Order) OrderStats {
	stats := OrderStats{
		Total:    len(orders),
		ByStatus: make(map[string]int, len(domain.ValidStatuses())),
	}
	for _, s := range domain.ValidStatuses() {
		stats.ByStatus[s] = 0
	}

	for i := range orders {
		stats.ByStatus[orders[i].Status]++
		if orders[i].Status != domain.OrderStatusCancelled {
			stats.Revenue += orders[i].TotalPrice
		}
	}

	return stats
}
