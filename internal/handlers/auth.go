package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/config"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/utils"
)

const (
	contextUserKey  = "user"
	contextIDKey    = "user_id"
	contextRoleKey  = "user_role"
	contextActorKey = "actor"
)

// Authenticator resolves a bearer token to an active local user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware tries each authenticator in order until one accepts the token.
type AuthMiddleware struct {
	authenticators []Authenticator
	logger         utils.Logger
}

func NewAuthMiddleware(logger utils.Logger, authenticators ...Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		authenticators: authenticators,
		logger:         logger,
	}
}

// Authenticate attaches the caller when a bearer token is present. Requests
// without an Authorization header continue anonymously; a malformed or
// rejected token is a 401 even on public routes.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenParts := strings.Fields(header)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := m.resolve(c.Request.Context(), tokenParts[1])
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				utils.GetLogger(c, m.logger).Error("Failed to authenticate request", "error", err)
			}
			abortUnauthorized(c, "token is invalid or expired")
			return
		}

		c.Set(contextIDKey, user.ID)
		c.Set(contextUserKey, user)
		c.Set(contextRoleKey, user.Role)
		c.Set(contextActorKey, access.NewActor(user))
		c.Next()
	}
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*models.User, error) {
	err := services.ErrUnauthorized
	for _, authenticator := range m.authenticators {
		user, authErr := authenticator.Authenticate(ctx, token)
		if authErr == nil {
			return user, nil
		}
		if !errors.Is(authErr, services.ErrUnauthorized) {
			return nil, authErr
		}
		err = authErr
	}
	return nil, err
}

// RequireAuth rejects anonymous callers.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFromContext(c).Authenticated() {
			abortUnauthorized(c, "authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// RequireRole lets through callers holding one of roles. Admins always pass.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFromContext(c)
		if !actor.Authenticated() {
			abortUnauthorized(c, "authentication credentials were not provided")
			return
		}
		if actor.IsAdmin() {
			c.Next()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: fmt.Sprintf("required role: %v", roles),
		})
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Message: "Authentication failed",
		Details: reason,
	})
}

// actorFromContext returns the authenticated actor, or nil for anonymous requests.
func actorFromContext(c *gin.Context) *access.Actor {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return nil
	}
	actor, _ := value.(*access.Actor)
	return actor
}

// CasdoorAuthenticator accepts tokens minted by a Casdoor instance and maps
// them onto local users by email, provisioning unknown users on first sight.
type CasdoorAuthenticator struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	logger   utils.Logger
}

func NewCasdoorAuthenticator(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthenticator {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorAuthenticator{
		client:   client,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (a *CasdoorAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrUnauthorized, err)
	}
	if claims.User.IsForbidden {
		return nil, fmt.Errorf("%w: account is disabled upstream", services.ErrUnauthorized)
	}
	email := strings.TrimSpace(claims.User.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: token carries no email", services.ErrUnauthorized)
	}

	user, err := a.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case repositories.IsNotFoundError(err):
		user, err = a.provision(ctx, claims)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up casdoor user: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", services.ErrUnauthorized)
	}
	return user, nil
}

func (a *CasdoorAuthenticator) provision(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	// Local login stays impossible until an admin sets a password.
	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	username := claims.User.Name
	if username == "" {
		username = claims.User.Email
	}
	taken, err := a.userRepo.ExistsByUsername(ctx, username, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		username = claims.User.Email
	}

	firstName, lastName := splitDisplayName(claims.User.DisplayName)
	user := &models.User{
		Username:     username,
		Email:        claims.User.Email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         mapCasdoorRole(claims.User.Type),
		PasswordHash: hash,
		IsActive:     true,
		Profile:      &models.Profile{},
	}
	if avatar := claims.User.Avatar; avatar != "" {
		user.Avatar = &avatar
	}
	if err := a.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to provision casdoor user: %w", err)
	}

	a.logger.Info("Provisioned user from casdoor", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func mapCasdoorRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "tutor":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}

func splitDisplayName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}
