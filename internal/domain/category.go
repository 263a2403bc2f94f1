package domain

import "time"

// Category represents a product category in the catalog.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryWithCount pairs a category with the number of products that
// reference it. The count is derived, never stored.
type CategoryWithCount struct {
	Category
	ProductCount int `json:"product_count"`
}
