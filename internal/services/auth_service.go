package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	tokens    *auth.TokenIssuer
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, tokens *auth.TokenIssuer) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		tokens:    tokens,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	login := req.Username
	if login == "" {
		login = req.Email
	}

	user, err := s.repo.User().GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidLogin
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("Rejected login", "user_id", user.ID, "active", user.IsActive)
		return nil, ErrInvalidLogin
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.User().TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to stamp last login", "user_id", user.ID, "error", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, req *RefreshRequest) (*AccessToken, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	claims, err := s.tokens.ParseRefresh(req.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.NewAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return &AccessToken{Access: access}, nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return s.activeUser(ctx, claims.UserID)
}

// activeUser reloads the token subject so that deactivation and role
// changes apply to tokens that are already issued.
func (s *authService) activeUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: token subject no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}
	return user, nil
}

func (s *authService) issue(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.NewAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.tokens.NewRefreshToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
