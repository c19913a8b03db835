package utils

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestContextLoggerAndLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-42")
		c.Next()
	})
	router.Use(ContextLogger(logger), LoggerMiddleware(logger))

	var fromCtx Logger
	router.GET("/missing", func(c *gin.Context) {
		fromCtx = FromContext(c.Request.Context(), nil)
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotNil(t, fromCtx)
	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"path":"/missing?x=1"`)
	assert.Contains(t, out, `"level":"WARN"`)
}
