package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	"github.com/yosseffehabb/illusion-studios/internal/gateway"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// productSelect embeds each product's variants under the "variants" key.
const productSelect = "*,variants:product_variants(*)"

// ProductStore implements gateway.ProductStore over the record API.
type ProductStore struct {
	client *Client
}

// NewProductStore creates a REST-backed product store.
func NewProductStore(client *Client) *ProductStore {
	return &ProductStore{client: client}
}

// List returns products matching the filter, newest first, with variants
// embedded.
func (s *ProductStore) List(ctx context.Context, filter gateway.ProductFilter) ([]domain.Product, error) {
	query := url.Values{
		"select": {productSelect},
		"order":  {"created_at.desc"},
	}
	if filter.Search != "" {
		query.Set("or", fmt.Sprintf("(name.ilike.*%s*,slug.ilike.*%s*)", filter.Search, filter.Search))
	}
	if filter.CategoryID != "" {
		query.Set("category_id", eq(filter.CategoryID))
	}
	if filter.Status != "" {
		query.Set("status", eq(filter.Status))
	}

	var products []domain.Product
	if err := s.client.do(ctx, http.MethodGet, "/products", query, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	for i := range products {
		if products[i].Variants == nil {
			products[i].Variants = []domain.Variant{}
		}
	}
	return products, nil
}

// GetByID retrieves a product with its variants.
func (s *ProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := url.Values{
		"select": {productSelect},
		"id":     {eq(id)},
	}

	var products []domain.Product
	if err := s.client.do(ctx, http.MethodGet, "/products", query, nil, &products); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperrors.NotFound("product", id)
	}
	p := products[0]
	if p.Variants == nil {
		p.Variants = []domain.Variant{}
	}
	return &p, nil
}

// Create inserts a product, then its variants as a batch. The record API has
// no transactions; a variant insert failure leaves the product row behind and
// surfaces the error to the caller.
func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	row := productRow(p)
	if err := s.client.do(ctx, http.MethodPost, "/products", nil, row, nil); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return err
	}
	if len(p.Variants) == 0 {
		return nil
	}
	return s.client.do(ctx, http.MethodPost, "/product_variants", nil, p.Variants, nil)
}

// Update rewrites a product and replaces its variant set.
func (s *ProductStore) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	query := url.Values{"id": {eq(p.ID)}}

	var updated []json.RawMessage
	err := s.client.do(ctx, http.MethodPatch, "/products", query, productRow(p), &updated)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return err
	}
	if len(updated) == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	variantQuery := url.Values{"product_id": {eq(p.ID)}}
	if err := s.client.do(ctx, http.MethodDelete, "/product_variants", variantQuery, nil, nil); err != nil {
		return err
	}
	if len(p.Variants) == 0 {
		return nil
	}
	return s.client.do(ctx, http.MethodPost, "/product_variants", nil, p.Variants, nil)
}

// Delete removes a product and its variants.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	query := url.Values{"id": {eq(id)}}

	var deleted []json.RawMessage
	if err := s.client.do(ctx, http.MethodDelete, "/products", query, nil, &deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// CountByCategory returns how many products reference the category. Only the
// count travels over the wire.
func (s *ProductStore) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	query := url.Values{
		"select":      {"count"},
		"category_id": {eq(categoryID)},
	}

	var result []struct {
		Count int `json:"count"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/products", query, nil, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Count, nil
}

// UpdateVariantStock sets the stock level of a single variant.
func (s *ProductStore) UpdateVariantStock(ctx context.Context, variantID string, stock int) error {
	query := url.Values{"id": {eq(variantID)}}
	body := map[string]int{"stock": stock}

	var updated []domain.Variant
	if err := s.client.do(ctx, http.MethodPatch, "/product_variants", query, body, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return apperrors.NotFound("variant", variantID)
	}
	return nil
}

// productRow is the product payload without the embedded variants, which live
// in their own table.
func productRow(p *domain.Product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"price":       p.Price,
		"color":       p.Color,
		"category_id": p.CategoryID,
		"size_type":   p.SizeType,
		"discount":    p.Discount,
		"status":      p.Status,
		"images":      p.Images,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}
