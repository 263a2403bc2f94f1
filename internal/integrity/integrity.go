// Package integrity enforces referential rules the remote record store does
// not: category deletion is blocked while products reference the category,
// and product payloads are checked in full before any write is attempted.
package integrity

import (
	"context"
	"fmt"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// Decision is the outcome of a referential check.
type Decision struct {
	Allowed bool
	// BlockingCount is the number of records that reference the entity. It is
	// reported even when zero so callers can surface it verbatim.
	BlockingCount int
}

// Guard answers referential questions by issuing count-only queries through
// the gateway.
type Guard struct {
	products gateway.ProductStore
}

// NewGuard creates a referential integrity guard.
func NewGuard(products gateway.ProductStore) *Guard {
	return &Guard{products: products}
}

// CanDeleteCategory checks whether any products still reference the category.
// A count failure propagates as an error; it is never silently treated as
// zero, since that would let a populated category be deleted.
func (g *Guard) CanDeleteCategory(ctx context.Context, categoryID string) (Decision, error) {
	count, err := g.products.CountByCategory(ctx, categoryID)
	if err != nil {
		return Decision{}, apperrors.Wrap(err, "count products referencing category")
	}

	return Decision{Allowed: count == 0, BlockingCount: count}, nil
}

// ValidateProduct checks every rule of a product payload and returns the
// complete violation set. It never stops at the first failure, so one round
// trip surfaces everything the operator must fix. The category list must be
// the currently loaded set; no I/O happens here.
func ValidateProduct(p *domain.Product, categories []domain.Category) []apperrors.FieldViolation {
	var violations []apperrors.FieldViolation

	add := func(field, message string) {
		violations = append(violations, apperrors.FieldViolation{Field: field, Message: message})
	}

	if p.Name == "" {
		add("name", "must not be empty")
	}
	if p.Description == "" {
		add("description", "must not be empty")
	}
	if p.Color == "" {
		add("color", "must not be empty")
	}
	if p.Price <= 0 {
		add("price", "must be greater than zero")
	}
	if p.Discount < 0 || p.Discount > 100 {
		add("discount", "must be between 0 and 100")
	}
	if !domain.IsValidSizeType(p.SizeType) {
		add("size_type", fmt.Sprintf("must be %q or %q", domain.SizeTypeNumeric, domain.SizeTypeLetter))
	}
	if !domain.IsValidProductStatus(p.Status) {
		add("status", fmt.Sprintf("must be %q or %q", domain.ProductStatusActive, domain.ProductStatusOffline))
	}

	if p.CategoryID == "" {
		add("category_id", "must not be empty")
	} else if !categoryExists(p.CategoryID, categories) {
		add("category_id", fmt.Sprintf("category %s does not exist", p.CategoryID))
	}

	if len(p.Variants) == 0 {
		add("variants", "at least one variant is required")
	}

	seen := make(map[string]bool, len(p.Variants))
	for i, v := range p.Variants {
		field := fmt.Sprintf("variants[%d]", i)
		if v.Size == "" {
			add(field+".size", "must not be empty")
		} else if seen[v.Size] {
			add(field+".size", fmt.Sprintf("duplicate size %q", v.Size))
		}
		seen[v.Size] = true
		if v.Stock < 0 {
			add(field+".stock", "must not be negative")
		}
	}

	return violations
}

func categoryExists(id string, categories []domain.Category) bool {
	for i := range categories {
		if categories[i].ID == id {
			return true
		}
	}
	return false
}
