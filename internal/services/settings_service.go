package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

type settingsService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
	guard     guard
}

func NewSettingsService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) SettingsService {
	return &settingsService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		guard:     newGuard(),
	}
}

// Get returns the singleton row; the first read creates it with defaults.
func (s *settingsService) Get(ctx context.Context, actor *access.Actor) (*models.SystemSettings, error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindSettings)); err != nil {
		return nil, err
	}
	settings, err := s.repo.Settings().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, actor *access.Actor, req *UpdateSettingsRequest) (*models.SystemSettings, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.On(access.KindSettings)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	settings, err := s.repo.Settings().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	setString(&settings.SchoolName, req.SchoolName)
	setString(&settings.Address, req.Address)
	setString(&settings.Phone, req.Phone)
	setString(&settings.Email, req.Email)
	setString(&settings.Timezone, req.Timezone)
	setString(&settings.Language, req.Language)
	setString(&settings.Currency, req.Currency)
	setBool(&settings.EmailNotifications, req.EmailNotifications)
	setBool(&settings.SMSNotifications, req.SMSNotifications)
	setBool(&settings.PaymentReminders, req.PaymentReminders)
	setBool(&settings.ClassReminders, req.ClassReminders)

	if err := s.repo.Settings().Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.logger.Info("Settings updated", "actor_id", actor.ID)
	events.PublishSafe(ctx, s.publisher, s.logger, events.TopicSettingsUpdated, events.SettingsUpdated{
		ActorID:   actor.ID,
		UpdatedAt: settings.UpdatedAt,
	})
	return settings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
