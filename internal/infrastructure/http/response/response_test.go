package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/infrastructure/http/response"
)

// unencodable fails during JSON encoding.
type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) {
	return nil, errors.New("cannot encode")
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestOK_EncodingFailure_Returns500WithErrorJSON(t *testing.T) {
	for name, send := range map[string]func(http.ResponseWriter, any){
		"OK":      response.OK,
		"Created": response.Created,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			send(rec, unencodable{})

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
			assert.Equal(t, "failed to encode response", body.Error.Message)
		})
	}
}

func TestOK_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	response.OK(rec, map[string]any{"id": "123", "items": []string{"a", "b"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"123","items":["a","b"]}`, rec.Body.String())
}

func TestCreated_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Created(rec, map[string]string{"id": "new-resource-123"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"new-resource-123"}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	response.NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Error(rec, "INVALID_INPUT", "missing required field", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
	assert.Equal(t, "missing required field", body.Error.Message)
	assert.Empty(t, body.Error.Details)
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ValidationError(rec, "name", "required field missing")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "validation failed", body.Error.Message)
	assert.Equal(t, []response.ErrorField{{Field: "name", Issue: "required field missing"}}, body.Error.Details)
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"name too short", domain.ErrNameTooShort, http.StatusBadRequest, "VALIDATION_ERROR", "name"},
		{"wrapped due date", fmt.Errorf("create: %w", domain.ErrDueDateInPast), http.StatusBadRequest, "VALIDATION_ERROR", "due_date"},
		{"unknown mask field", fmt.Errorf("%w: priority", domain.ErrUnknownField), http.StatusBadRequest, "VALIDATION_ERROR", "update_mask"},
		{"bad timezone", domain.ErrInvalidTimezone, http.StatusBadRequest, "VALIDATION_ERROR", "timezone"},
		{"bad sort", domain.ErrInvalidSortOption, http.StatusBadRequest, "VALIDATION_ERROR", "sort"},
		{"inverted range", domain.ErrInvalidDateRange, http.StatusBadRequest, "VALIDATION_ERROR", "start"},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"generic not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"conflict", domain.ErrAlreadyExists, http.StatusConflict, "CONFLICT", ""},
		{"unknown", errors.New("database exploded"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			response.FromDomainError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "exploded", "internal details must not leak")
			if tt.wantField != "" {
				require.Len(t, body.Error.Details, 1)
				assert.Equal(t, tt.wantField, body.Error.Details[0].Field)
			}
		})
	}
}
