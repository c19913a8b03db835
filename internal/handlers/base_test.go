package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
	"github.com/munificent-school/backoffice/internal/validator"
)

func TestHandleServiceError(t *testing.T) {
	h := NewBaseHandler(utils.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", fmt.Errorf("%w: %w", services.ErrValidationFailed, validator.Field("title", "title is required", "required")), http.StatusBadRequest, "Validation failed"},
		{"bad request with details", fmt.Errorf("%w: %w", services.ErrBadRequest, validator.Field("course_ids", "not a list", "list")), http.StatusBadRequest, "Bad request"},
		{"permission", services.NewPermissionError("course", "reassign", "only admins may change the teacher"), http.StatusForbidden, "Access denied"},
		{"invalid login", services.ErrInvalidLogin, http.StatusUnauthorized, services.ErrInvalidLogin.Error()},
		{"unauthorized", fmt.Errorf("%w: token expired", services.ErrUnauthorized), http.StatusUnauthorized, "Authentication credentials were not provided or are invalid"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "Access denied"},
		{"conflict", fmt.Errorf("%w: email taken", services.ErrConflict), http.StatusConflict, "Resource conflict"},
		{"not found", fmt.Errorf("course: %w", services.ErrNotFound), http.StatusNotFound, "Not found"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)

			h.handleServiceError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestHandleServiceError_ValidationDetails(t *testing.T) {
	h := NewBaseHandler(utils.NewSlogLogger(nil))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/test", nil)

	h.handleServiceError(c, fmt.Errorf("%w: %w", services.ErrBadRequest, validator.Field("course_ids", "course_ids must be a list of course ids", "list")))

	var body struct {
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Details, 1)
	assert.Equal(t, "course_ids", body.Details[0].Field)
}

func TestParseIDParam(t *testing.T) {
	h := NewBaseHandler(utils.NewSlogLogger(nil))

	tests := []struct {
		value  string
		want   uint
		status int
	}{
		{"42", 42, http.StatusOK},
		{"0", 0, http.StatusBadRequest},
		{"-1", 0, http.StatusBadRequest},
		{"abc", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			assert.Equal(t, tt.want, h.parseIDParam(c, "id"))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
