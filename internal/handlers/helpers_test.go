package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/config"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories/memory"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
	"github.com/munificent-school/backoffice/internal/validator"
)

const testPassword = "Correct-Horse-42"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	repo   *memory.Repository
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T, rateLimit config.RateLimitConfig) *testServer {
	t.Helper()

	slogger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	repo := memory.NewRepository(memory.Open())
	tokens := auth.NewTokenIssuer("test-secret", "backoffice-test", 5*time.Minute, time.Hour)

	sm := services.NewServiceManager(repo, slogger, validator.New(), services.ServiceManagerConfig{
		Tokens:          tokens,
		DefaultPassword: "235689qW#",
	})
	require.NoError(t, sm.Initialize(context.Background()))

	router := gin.New()
	SetupMiddleware(router, logger)
	NewHandlerManager(sm, logger, rateLimit).SetupRoutes(router)

	return &testServer{t: t, router: router, repo: repo, tokens: tokens}
}

func defaultRateLimit() config.RateLimitConfig {
	return config.RateLimitConfig{ApplicationsPerMinute: 60, Burst: 10}
}

// user stores an active user and returns it with a valid access token.
func (s *testServer) user(role models.UserRole, email string) (*models.User, string) {
	s.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(s.t, err)

	u := &models.User{
		Username:     email,
		Email:        email,
		FirstName:    "First",
		LastName:     string(role),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		Profile:      &models.Profile{},
	}
	require.NoError(s.t, s.repo.User().Create(context.Background(), u))

	token, err := s.tokens.NewAccessToken(u.ID, string(u.Role))
	require.NoError(s.t, err)
	return u, token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}


