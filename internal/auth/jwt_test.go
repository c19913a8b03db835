package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "backoffice", time.Minute, time.Hour)

	token, err := issuer.NewAccessToken(42, "teacher")
	require.NoError(t, err)

	claims, err := issuer.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "backoffice", claims.Issuer)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer("secret", "backoffice", time.Minute, time.Hour)

	refresh, err := issuer.NewRefreshToken(7, "student")
	require.NoError(t, err)
	_, err = issuer.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	access, err := issuer.NewAccessToken(7, "student")
	require.NoError(t, err)
	_, err = issuer.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := issuer.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestParseTokenRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "backoffice", -time.Minute, time.Hour)
	expired, err := issuer.NewAccessToken(1, "admin")
	require.NoError(t, err)

	other := NewTokenIssuer("other-secret", "backoffice", time.Minute, time.Hour)
	foreign, err := other.NewAccessToken(1, "admin")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "expired", token: expired, want: jwt.ErrTokenExpired},
		{name: "wrong secret", token: foreign, want: jwt.ErrTokenSignatureInvalid},
		{name: "garbage", token: "not-a-token", want: jwt.ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken("secret", tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
