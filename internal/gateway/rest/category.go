package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

// CategoryStore implements gateway.CategoryStore over the record API.
type CategoryStore struct {
	client *Client
}

// NewCategoryStore creates a REST-backed category store.
func NewCategoryStore(client *Client) *CategoryStore {
	return &CategoryStore{client: client}
}

// List returns all categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	query := url.Values{"order": {"name.asc"}}

	var categories []domain.Category
	if err := s.client.do(ctx, http.MethodGet, "/categories", query, nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// GetByID retrieves a category by its unique identifier.
func (s *CategoryStore) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return s.getOne(ctx, "id", id)
}

// GetBySlug retrieves a category by its URL-friendly slug.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.getOne(ctx, "slug", slug)
}

func (s *CategoryStore) getOne(ctx context.Context, column, value string) (*domain.Category, error) {
	query := url.Values{column: {eq(value)}}

	var categories []domain.Category
	if err := s.client.do(ctx, http.MethodGet, "/categories", query, nil, &categories); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("category", value)
		}
		return nil, err
	}
	if len(categories) == 0 {
		return nil, apperrors.NotFound("category", value)
	}
	return &categories[0], nil
}

// Create inserts a new category.
func (s *CategoryStore) Create(ctx context.Context, c *domain.Category) error {
	err := s.client.do(ctx, http.MethodPost, "/categories", nil, c, nil)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return apperrors.AlreadyExists("category", "slug", c.Slug)
	}
	return err
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now().UTC()
	query := url.Values{"id": {eq(c.ID)}}

	var updated []domain.Category
	err := s.client.do(ctx, http.MethodPatch, "/categories", query, c, &updated)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return apperrors.AlreadyExists("category", "slug", c.Slug)
		}
		return err
	}
	if len(updated) == 0 {
		return apperrors.NotFound("category", c.ID)
	}
	return nil
}

// Delete removes a category by its ID.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	query := url.Values{"id": {eq(id)}}

	var deleted []domain.Category
	if err := s.client.do(ctx, http.MethodDelete, "/categories", query, nil, &deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return apperrors.NotFound("category", id)
	}
	return nil
}
