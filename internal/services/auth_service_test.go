package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munificent-school/backoffice/internal/models"
)

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(models.RoleTeacher, "teacher@example.com")
	svc := NewAuthService(f.repo, testLogger(), f.validator, f.tokens)

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{name: "by username", req: LoginRequest{Username: "teacher@example.com", Password: testPassword}},
		{name: "by email", req: LoginRequest{Email: "TEACHER@example.com", Password: testPassword}},
		{name: "wrong password", req: LoginRequest{Username: "teacher@example.com", Password: "nope"}, wantErr: ErrInvalidLogin},
		{name: "unknown user", req: LoginRequest{Username: "ghost@example.com", Password: testPassword}, wantErr: ErrInvalidLogin},
		{name: "missing login", req: LoginRequest{Password: testPassword}, wantErr: ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := svc.Login(f.ctx, &tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pair.Access)
			assert.NotEmpty(t, pair.Refresh)

			got, err := svc.Authenticate(f.ctx, pair.Access)
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}

	stored, err := f.repo.User().GetByID(f.ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestAuthService_RefreshAndDeactivation(t *testing.T) {
	f := newFixture(t)
	user, _ := f.user(models.RoleStudent, "s@example.com")
	svc := NewAuthService(f.repo, testLogger(), f.validator, f.tokens)

	pair, err := svc.Login(f.ctx, &LoginRequest{Username: user.Username, Password: testPassword})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(f.ctx, &RefreshRequest{Refresh: pair.Refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)

	_, err = svc.Refresh(f.ctx, &RefreshRequest{Refresh: pair.Access})
	assert.ErrorIs(t, err, ErrUnauthorized, "access tokens cannot refresh")

	_, err = svc.Authenticate(f.ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrUnauthorized, "refresh tokens cannot authenticate")

	user.IsActive = false
	user.Profile = nil
	require.NoError(t, f.repo.User().Update(f.ctx, user))

	_, err = svc.Authenticate(f.ctx, pair.Access)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(f.ctx, &LoginRequest{Username: user.Username, Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}
