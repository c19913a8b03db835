package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a refresh token is presented as an
// access token or the other way round.
var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 tokens with one shared secret.
type TokenIssuer struct {
	secret     string
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (t *TokenIssuer) NewAccessToken(userID uint, role string) (string, error) {
	return newToken(t.secret, t.issuer, t.accessTTL, Claims{UserID: userID, Role: role, TokenType: TokenTypeAccess})
}

func (t *TokenIssuer) NewRefreshToken(userID uint, role string) (string, error) {
	return newToken(t.secret, t.issuer, t.refreshTTL, Claims{UserID: userID, Role: role, TokenType: TokenTypeRefresh})
}

// ParseAccess parses a token and requires it to be an access token.
func (t *TokenIssuer) ParseAccess(tokenString string) (*Claims, error) {
	return t.parseTyped(tokenString, TokenTypeAccess)
}

// ParseRefresh parses a token and requires it to be a refresh token.
func (t *TokenIssuer) ParseRefresh(tokenString string) (*Claims, error) {
	return t.parseTyped(tokenString, TokenTypeRefresh)
}

func (t *TokenIssuer) parseTyped(tokenString, tokenType string) (*Claims, error) {
	claims, err := ParseToken(t.secret, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func newToken(secret, issuer string, ttl time.Duration, claims Claims) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
