package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

const categoryColumns = `id, name, slug, created_at, updated_at`

// CategoryStore implements gateway.CategoryStore against PostgreSQL.
type CategoryStore struct {
	pool DBTX
}

// NewCategoryStore creates a new PostgreSQL-backed category store.
func NewCategoryStore(pool DBTX) *CategoryStore {
	return &CategoryStore{pool: pool}
}

// List returns all categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories ORDER BY name`, categoryColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var categories []domain.Category

	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate category rows", err)
	}

	if categories == nil {
		categories = []domain.Category{}
	}

	return categories, nil
}

// GetByID retrieves a category by its unique identifier.
func (s *CategoryStore) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)
	return s.scanCategory(ctx, query, id)
}

// GetBySlug retrieves a category by its URL-friendly slug.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE slug = $1`, categoryColumns)
	return s.scanCategory(ctx, query, slug)
}

func (s *CategoryStore) scanCategory(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var c domain.Category
	err := s.pool.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", fmt.Sprintf("%v", arg))
		}
		return nil, storeErr("get category", err)
	}
	return &c, nil
}

// Create inserts a new category.
func (s *CategoryStore) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return storeErr("insert category", err)
	}

	return nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categories
		SET name = $1, slug = $2, updated_at = $3
		WHERE id = $4`

	ct, err := s.pool.Exec(ctx, query, c.Name, c.Slug, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return storeErr("update category", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID)
	}

	return nil
}

// Delete removes a category by its ID. Referential checks happen above the
// gateway; this only removes the row.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete category", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", id)
	}

	return nil
}
