package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

// lessonService only reaches lessons through their course.
type lessonService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	guard     guard
}

func NewLessonService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) LessonService {
	return &lessonService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		guard:     newGuard(),
	}
}

// course resolves the scoping course and checks the caller against it. Reads
// by outsiders see a missing course. Writes by non-admins get a permission
// error whether or not the course exists.
func (s *lessonService) course(ctx context.Context, actor *access.Actor, courseID uint, op access.Operation) (*models.Course, error) {
	if op == access.OpRead {
		if err := s.guard.authenticated(actor); err != nil {
			return nil, err
		}
		course, err := s.repo.Course().GetByID(ctx, courseID)
		if err != nil {
			return nil, notFoundOr(err, "course")
		}
		if err := s.guard.canSee(actor, access.LessonResource(course.TeacherID), "course"); err != nil {
			return nil, err
		}
		return course, nil
	}

	if err := s.guard.preflight(actor, op, access.KindLesson); err != nil {
		return nil, err
	}
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		return nil, s.guard.missingTarget(actor, err, op, access.KindLesson, "course")
	}
	if err := s.guard.require(actor, op, access.LessonResource(course.TeacherID)); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *lessonService) List(ctx context.Context, actor *access.Actor, courseID uint, params LessonListParams) (*ListResponse[*models.Lesson], error) {
	if _, err := s.course(ctx, actor, courseID, access.OpRead); err != nil {
		return nil, err
	}

	limit, offset := params.Normalize()
	lessons, total, err := s.repo.Lesson().List(ctx, repositories.LessonFilters{
		CourseID: courseID,
		Status:   params.Status,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return newListResponse(lessons, total, params.Pagination), nil
}

func (s *lessonService) Get(ctx context.Context, actor *access.Actor, courseID, id uint) (*models.Lesson, error) {
	if _, err := s.course(ctx, actor, courseID, access.OpRead); err != nil {
		return nil, err
	}
	lesson, err := s.repo.Lesson().GetByID(ctx, courseID, id)
	if err != nil {
		return nil, notFoundOr(err, "lesson")
	}
	return lesson, nil
}

func (s *lessonService) Create(ctx context.Context, actor *access.Actor, courseID uint, req *CreateLessonRequest) (*models.Lesson, error) {
	if _, err := s.course(ctx, actor, courseID, access.OpCreate); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	lesson := &models.Lesson{
		CourseID:     courseID,
		Title:        req.Title,
		Content:      req.Content,
		Status:       req.Status,
		RecordingURL: req.RecordingURL,
		HomeworkURL:  req.HomeworkURL,
	}
	if lesson.Status == "" {
		lesson.Status = models.LessonPlanned
	}
	if err := setSchedule(lesson, &req.Date, optionalString(req.Time)); err != nil {
		return nil, err
	}

	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.logger.Info("Lesson created", "lesson_id", lesson.ID, "course_id", courseID, "actor_id", actor.ID)
	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, actor *access.Actor, courseID, id uint, req *UpdateLessonRequest) (*models.Lesson, error) {
	if _, err := s.course(ctx, actor, courseID, access.OpUpdate); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	lesson, err := s.repo.Lesson().GetByID(ctx, courseID, id)
	if err != nil {
		return nil, notFoundOr(err, "lesson")
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.Status != nil {
		lesson.Status = *req.Status
	}
	if req.RecordingURL != nil {
		lesson.RecordingURL = emptyToNil(req.RecordingURL)
	}
	if req.HomeworkURL != nil {
		lesson.HomeworkURL = emptyToNil(req.HomeworkURL)
	}
	if err := setSchedule(lesson, req.Date, req.Time); err != nil {
		return nil, err
	}

	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.logger.Info("Lesson updated", "lesson_id", lesson.ID, "course_id", courseID, "actor_id", actor.ID)
	return lesson, nil
}

func (s *lessonService) Delete(ctx context.Context, actor *access.Actor, courseID, id uint) error {
	if _, err := s.course(ctx, actor, courseID, access.OpDelete); err != nil {
		return err
	}
	if err := s.repo.Lesson().Delete(ctx, courseID, id); err != nil {
		return notFoundOr(err, "lesson")
	}
	s.logger.Info("Lesson deleted", "lesson_id", id, "course_id", courseID, "actor_id", actor.ID)
	return nil
}

// setSchedule parses "2006-01-02" and "15:04" into the lesson's columns.
func setSchedule(lesson *models.Lesson, date, clock *string) error {
	if date != nil {
		d, err := time.Parse(time.DateOnly, *date)
		if err != nil {
			return invalidField("date", "date must look like 2006-01-02", "datetime")
		}
		lesson.Date = datatypes.Date(d)
	}
	if clock != nil {
		t, err := time.Parse("15:04", *clock)
		if err != nil {
			return invalidField("time", "time must look like 15:04", "datetime")
		}
		lesson.Time = datatypes.NewTime(t.Hour(), t.Minute(), 0, 0)
	}
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
