package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yosseffehabb/illusion-studios/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError_AppErrorWithViolations(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", nil)

	err := apperrors.Validation([]apperrors.FieldViolation{
		{Field: "name", Message: "is required"},
		{Field: "price", Message: "must be greater than 0"},
	})

	WriteError(rec, req, err, testLogger())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["name"])
	assert.Equal(t, "must be greater than 0", resp.Error.Fields["price"])
}

func TestWriteError_IntegrityBlockingCount(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/categories/1", nil)

	WriteError(rec, req, apperrors.IntegrityViolation("cannot delete category: 2 product(s) are using it", 2), testLogger())

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTEGRITY_VIOLATION", resp.Error.Code)
	assert.Equal(t, 2, resp.Error.BlockingCount)
}

func TestWriteError_WrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/x", nil)

	WriteError(rec, req, fmt.Errorf("get order: %w", apperrors.ErrNotFound), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestWriteError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, errors.New("boom"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Equal(t, "an internal error occurred", resp.Error.Message)
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := ParseUUID(rec, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	id, ok := ParseUUID(rec, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.True(t, ok)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", id.String())
}
