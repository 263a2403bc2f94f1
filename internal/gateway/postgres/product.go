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

// productSelect fetches a product together with its variants in a single
// query using LEFT JOIN + JSONB_AGG, avoiding an N+1 round trip per product.
const productSelect = `
	SELECT
		p.id, p.name, p.slug, p.description, p.price, p.color, p.category_id,
		p.size_type, p.discount, p.status, p.images, p.created_at, p.updated_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'id', v.id,
					'product_id', v.product_id,
					'size', v.size,
					'stock', v.stock
				) ORDER BY v.size
			) FILTER (WHERE v.id IS NOT NULL),
			'[]'::jsonb
		) AS variants
	FROM products p
	LEFT JOIN product_variants v ON p.id = v.product_id`

const productGroupBy = `
	GROUP BY p.id, p.name, p.slug, p.description, p.price, p.color, p.category_id,
		p.size_type, p.discount, p.status, p.images, p.created_at, p.updated_at`

// ProductStore implements gateway.ProductStore against PostgreSQL.
type ProductStore struct {
	pool DBTX
}

// NewProductStore creates a new PostgreSQL-backed product store.
func NewProductStore(pool DBTX) *ProductStore {
	return &ProductStore{pool: pool}
}

// List returns products matching the filter, newest first, with variants
// eagerly loaded.
func (s *ProductStore) List(ctx context.Context, filter gateway.ProductFilter) ([]domain.Product, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(p.name ILIKE $%d OR p.slug ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, filter.CategoryID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	query := productSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += productGroupBy + " ORDER BY p.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list products", err)
	}
	defer rows.Close()

	var products []domain.Product

	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate product rows", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// GetByID retrieves a product with its variants.
func (s *ProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := productSelect + " WHERE p.id = $1" + productGroupBy

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, storeErr("get product", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, storeErr("get product", err)
		}
		return nil, apperrors.NotFound("product", id)
	}

	p, err := scanProductRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}

	return p, nil
}

// Create inserts a product and its variants atomically.
func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	query := `
		INSERT INTO products (id, name, slug, description, price, color, category_id,
			size_type, discount, status, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Color, p.CategoryID,
		p.SizeType, p.Discount, p.Status, imagesJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return storeErr("insert product", err)
	}

	if err := insertVariants(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}

	return nil
}

// Update rewrites a product and replaces its variant set atomically.
func (s *ProductStore) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price = $4, color = $5,
		    category_id = $6, size_type = $7, discount = $8, status = $9,
		    images = $10, updated_at = $11
		WHERE id = $12`

	ct, err := tx.Exec(ctx, query,
		p.Name, p.Slug, p.Description, p.Price, p.Color,
		p.CategoryID, p.SizeType, p.Discount, p.Status,
		imagesJSON, p.UpdatedAt, p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return storeErr("update product", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
		return storeErr("delete product variants", err)
	}

	if err := insertVariants(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}

	return nil
}

// Delete removes a product. Variants go with it via ON DELETE CASCADE.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete product", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// CountByCategory returns how many products reference the category. Only the
// count travels over the wire.
func (s *ProductStore) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE category_id = $1`, categoryID,
	).Scan(&count)
	if err != nil {
		return 0, storeErr("count products by category", err)
	}
	return count, nil
}

// UpdateVariantStock sets the stock level of a single variant.
func (s *ProductStore) UpdateVariantStock(ctx context.Context, variantID string, stock int) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE product_variants SET stock = $1 WHERE id = $2`, stock, variantID)
	if err != nil {
		return storeErr("update variant stock", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("variant", variantID)
	}

	return nil
}

func insertVariants(ctx context.Context, tx pgx.Tx, p *domain.Product) error {
	query := `
		INSERT INTO product_variants (id, product_id, size, stock)
		VALUES ($1, $2, $3, $4)`

	for _, v := range p.Variants {
		if _, err := tx.Exec(ctx, query, v.ID, p.ID, v.Size, v.Stock); err != nil {
			return storeErr("insert product variant", err)
		}
	}

	return nil
}

func scanProductRow(rows pgx.Rows) (*domain.Product, error) {
	var (
		p            domain.Product
		imagesJSON   []byte
		variantsJSON []byte
	)

	err := rows.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Color, &p.CategoryID,
		&p.SizeType, &p.Discount, &p.Status, &imagesJSON, &p.CreatedAt, &p.UpdatedAt,
		&variantsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	if len(imagesJSON) > 0 && string(imagesJSON) != "null" {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
	}

	if len(variantsJSON) > 0 && string(variantsJSON) != "null" {
		if err := json.Unmarshal(variantsJSON, &p.Variants); err != nil {
			return nil, fmt.Errorf("unmarshal variants: %w", err)
		}
	}
	if p.Variants == nil {
		p.Variants = []domain.Variant{}
	}

	return &p, nil
}
