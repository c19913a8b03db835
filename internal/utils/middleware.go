package utils

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	RequestIDKey = "request_id"
	LoggerKey    = "logger"
)

// ContextLogger attaches a logger tagged with the request id to both the gin
// context and the request context. It must run after the request id middleware.
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := logger
		if requestID := c.GetString(RequestIDKey); requestID != "" {
			reqLogger = logger.With(RequestIDKey, requestID)
		}
		c.Set(LoggerKey, reqLogger)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), reqLogger))
		c.Next()
	}
}

// LoggerMiddleware logs one line per request once the handler chain returns.
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		reqLogger := GetLogger(c, logger)
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLogger.Error("Request failed", args...)
		case status >= 400:
			reqLogger.Warn("Request rejected", args...)
		default:
			reqLogger.Info("Request handled", args...)
		}
	}
}

// GetLogger returns the request logger set by ContextLogger.
func GetLogger(c *gin.Context, fallback Logger) Logger {
	if value, ok := c.Get(LoggerKey); ok {
		if logger, ok := value.(Logger); ok {
			return logger
		}
	}
	return fallback
}
