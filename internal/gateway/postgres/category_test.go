package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yosseffehabb/illusion-studios/internal/domain"
	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

func newCategoryStore(t *testing.T) (*CategoryStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewCategoryStore(mock), mock
}

func sampleCategory() *domain.Category {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Category{
		ID:        "cat-001",
		Name:      "Sneakers",
		Slug:      "sneakers",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCategoryStore_List(t *testing.T) {
	store, mock := newCategoryStore(t)

	c := sampleCategory()
	rows := pgxmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at"}).
		AddRow(c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt).
		AddRow("cat-002", "Boots", "boots", c.CreatedAt, c.UpdatedAt)

	mock.ExpectQuery("FROM categories").WillReturnRows(rows)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sneakers", got[0].Name)
	assert.Equal(t, "boots", got[1].Slug)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryStore_List_Empty(t *testing.T) {
	store, mock := newCategoryStore(t)

	mock.ExpectQuery("FROM categories").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at"}))

	got, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCategoryStore_List_StoreUnavailable(t *testing.T) {
	store, mock := newCategoryStore(t)

	mock.ExpectQuery("FROM categories").WillReturnError(errors.New("connection refused"))

	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
}

func TestCategoryStore_GetByID(t *testing.T) {
	store, mock := newCategoryStore(t)

	c := sampleCategory()
	mock.ExpectQuery("FROM categories").
		WithArgs(c.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at"}).
			AddRow(c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt))

	got, err := store.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Slug, got.Slug)
}

func TestCategoryStore_GetByID_NotFound(t *testing.T) {
	store, mock := newCategoryStore(t)

	mock.ExpectQuery("FROM categories").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCategoryStore_Create(t *testing.T) {
	store, mock := newCategoryStore(t)

	c := sampleCategory()
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryStore_Create_DuplicateSlug(t *testing.T) {
	store, mock := newCategoryStore(t)

	c := sampleCategory()
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := store.Create(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestCategoryStore_Update_NotFound(t *testing.T) {
	store, mock := newCategoryStore(t)

	c := sampleCategory()
	mock.ExpectExec("UPDATE categories").
		WithArgs(c.Name, c.Slug, pgxmock.AnyArg(), c.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Update(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCategoryStore_Delete(t *testing.T) {
	store, mock := newCategoryStore(t)

	mock.ExpectExec("DELETE FROM categories").
		WithArgs("cat-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "cat-001"))
}

func TestCategoryStore_Delete_NotFound(t *testing.T) {
	store, mock := newCategoryStore(t)

	mock.ExpectExec("DELETE FROM categories").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := store.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
