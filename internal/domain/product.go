package domain

import "time"

// Size type constants. The size type determines the shape of a product's
// variant sizes (numeric like "38", or letter like "M").
const (
	SizeTypeNumeric = "numeric"
	SizeTypeLetter  = "letter"
)

// Product status constants.
const (
	ProductStatusActive  = "active"
	ProductStatusOffline = "offline"
)

// Product represents a product in the catalog. Every product belongs to
// exactly one category and owns at least one variant.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // minor units, > 0
	Color       string    `json:"color"`
	CategoryID  string    `json:"category_id"`
	SizeType    string    `json:"size_type"`
	Discount    int       `json:"discount"` // percent, 0..100
	Status      string    `json:"status"`
	Images      []string  `json:"images,omitempty"`
	Variants    []Variant `json:"variants"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Variant represents a size/stock entry of a product. Sizes are unique
// within their product.
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Stock     int    `json:"stock"` // >= 0
}

// IsValidSizeType checks whether the given string is a valid size type.
func IsValidSizeType(s string) bool {
	return s == SizeTypeNumeric || s == SizeTypeLetter
}

// IsValidProductStatus checks whether the given string is a valid product
// status.
func IsValidProductStatus(s string) bool {
	return s == ProductStatusActive || s == ProductStatusOffline
}
