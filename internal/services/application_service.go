package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

const applicationsSheet = "Applications"

type applicationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
	guard     guard
}

func NewApplicationService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.Publisher) ApplicationService {
	return &applicationService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		guard:     newGuard(),
	}
}

// Create accepts a lead from anyone, including anonymous visitors.
func (s *applicationService) Create(ctx context.Context, actor *access.Actor, req *CreateApplicationRequest) (*models.Application, error) {
	if err := s.guard.require(actor, access.OpCreate, access.On(access.KindApplication)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	app := &models.Application{
		Name:         strings.TrimSpace(req.Name),
		Phone:        req.Phone,
		StudentClass: req.StudentClass,
		Subject:      req.Subject,
		Comment:      req.Comment,
		Status:       models.ApplicationNew,
	}
	if err := s.repo.Application().Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.logger.Info("Application received", "application_id", app.ID, "subject", app.Subject)
	events.PublishSafe(ctx, s.publisher, s.logger, events.TopicApplicationCreated, events.ApplicationCreated{
		ApplicationID: app.ID,
		Name:          app.Name,
		Phone:         app.Phone,
		Subject:       app.Subject,
		CreatedAt:     app.CreatedAt,
	})
	return app, nil
}

func (s *applicationService) List(ctx context.Context, actor *access.Actor, params ApplicationListParams) (*ListResponse[*models.Application], error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindApplication)); err != nil {
		return nil, err
	}

	limit, offset := params.Normalize()
	apps, total, err := s.repo.Application().List(ctx, repositories.ApplicationFilters{
		Status: params.Status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return newListResponse(apps, total, params.Pagination), nil
}

func (s *applicationService) Get(ctx context.Context, actor *access.Actor, id uint) (*models.Application, error) {
	if err := s.guard.canSee(actor, access.On(access.KindApplication), "application"); err != nil {
		return nil, err
	}
	app, err := s.repo.Application().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "application")
	}
	return app, nil
}

func (s *applicationService) Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateApplicationRequest) (*models.Application, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.On(access.KindApplication)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	app, err := s.repo.Application().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "application")
	}

	if req.Name != nil {
		app.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		app.Phone = *req.Phone
	}
	if req.StudentClass != nil {
		app.StudentClass = *req.StudentClass
	}
	if req.Subject != nil {
		app.Subject = *req.Subject
	}
	if req.Comment != nil {
		app.Comment = *req.Comment
	}
	if req.Status != nil {
		app.Status = *req.Status
	}

	if err := s.repo.Application().Update(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	s.logger.Info("Application updated", "application_id", app.ID, "status", app.Status, "actor_id", actor.ID)
	return app, nil
}

func (s *applicationService) Delete(ctx context.Context, actor *access.Actor, id uint) error {
	if err := s.guard.require(actor, access.OpDelete, access.On(access.KindApplication)); err != nil {
		return err
	}
	if err := s.repo.Application().Delete(ctx, id); err != nil {
		return notFoundOr(err, "application")
	}
	s.logger.Info("Application deleted", "application_id", id, "actor_id", actor.ID)
	return nil
}

// Export writes every matching application, newest first, to a single sheet.
func (s *applicationService) Export(ctx context.Context, actor *access.Actor, status *models.ApplicationStatus) ([]byte, error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindApplication)); err != nil {
		return nil, err
	}
	if status != nil && !status.Valid() {
		return nil, invalidField("status", fmt.Sprintf("unknown application status %q", *status), "application_status")
	}

	apps, _, err := s.repo.Application().List(ctx, repositories.ApplicationFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", applicationsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	header := []interface{}{"ID", "Name", "Phone", "Class", "Subject", "Comment", "Status", "Created at"}
	if err := f.SetSheetRow(applicationsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, app := range apps {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			app.ID,
			app.Name,
			app.Phone,
			app.StudentClass,
			app.Subject,
			app.Comment,
			string(app.Status),
			app.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(applicationsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(applicationsSheet, "B", "F", 24); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Applications exported", "rows", len(apps), "actor_id", actor.ID)
	return buf.Bytes(), nil
}
