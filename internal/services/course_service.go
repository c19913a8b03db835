package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	guard     guard
	now       func() time.Time
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		guard:     newGuard(),
		now:       time.Now,
	}
}

func (s *courseService) List(ctx context.Context, actor *access.Actor, params CourseListParams) (*ListResponse[*models.Course], error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindCourse)); err != nil {
		return nil, err
	}

	limit, offset := params.Normalize()
	courses, total, err := s.repo.Course().List(ctx, repositories.CourseFilters{
		Search:    strings.TrimSpace(params.Search),
		Limit:     limit,
		Offset:    offset,
		SortBy:    params.SortBy,
		SortOrder: params.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return newListResponse(courses, total, params.Pagination), nil
}

func (s *courseService) Get(ctx context.Context, actor *access.Actor, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course")
	}
	if err := s.guard.canSee(actor, access.CourseResource(course.TeacherID), "course"); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) Create(ctx context.Context, actor *access.Actor, req *CreateCourseRequest) (*models.Course, error) {
	if err := s.guard.require(actor, access.OpCreate, access.CourseResource(nil)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}
	if req.Price.IsNegative() {
		return nil, invalidField("price", "price must not be negative", "min")
	}
	if err := s.checkTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Price:       req.Price,
		TeacherID:   req.TeacherID,
	}
	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "actor_id", actor.ID)
	return s.repo.Course().GetByID(ctx, course.ID)
}

func (s *courseService) Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateCourseRequest) (*models.Course, error) {
	if err := s.guard.preflight(actor, access.OpUpdate, access.KindCourse); err != nil {
		return nil, err
	}
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return nil, s.guard.missingTarget(actor, err, access.OpUpdate, access.KindCourse, "course")
	}
	if err := s.guard.require(actor, access.OpUpdate, access.CourseResource(course.TeacherID)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Subject != nil {
		course.Subject = *req.Subject
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, invalidField("price", "price must not be negative", "min")
		}
		course.Price = *req.Price
	}
	if req.TeacherID.Set {
		if !actor.IsAdmin() {
			return nil, NewPermissionError("course", "reassign", "only admins change the teacher of a course")
		}
		if err := s.checkTeacher(ctx, req.TeacherID.ID); err != nil {
			return nil, err
		}
		course.TeacherID = req.TeacherID.ID
	}

	course.Teacher = nil
	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", course.ID, "actor_id", actor.ID)
	return s.repo.Course().GetByID(ctx, course.ID)
}

// Delete removes the course; its lessons and enrollment rows go with it.
func (s *courseService) Delete(ctx context.Context, actor *access.Actor, id uint) error {
	if err := s.guard.preflight(actor, access.OpDelete, access.KindCourse); err != nil {
		return err
	}
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		return s.guard.missingTarget(actor, err, access.OpDelete, access.KindCourse, "course")
	}
	if err := s.guard.require(actor, access.OpDelete, access.CourseResource(course.TeacherID)); err != nil {
		return err
	}
	if err := s.repo.Course().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	s.logger.Info("Course deleted", "course_id", id, "actor_id", actor.ID)
	return nil
}

func (s *courseService) My(ctx context.Context, actor *access.Actor) ([]*models.Course, error) {
	if err := s.guard.authenticated(actor); err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
		courses, _, err := s.repo.Course().List(ctx, repositories.CourseFilters{})
		if err != nil {
			return nil, fmt.Errorf("failed to list courses: %w", err)
		}
		return courses, nil
	case actor.IsTeacher():
		courses, _, err := s.repo.Course().List(ctx, repositories.CourseFilters{TeacherID: &actor.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to list taught courses: %w", err)
		}
		return courses, nil
	}

	profile, err := s.repo.User().GetProfile(ctx, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return []*models.Course{}, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	courses, err := s.repo.Course().ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) UpcomingLessons(ctx context.Context, actor *access.Actor) ([]*models.Lesson, error) {
	if err := s.guard.authenticated(actor); err != nil {
		return nil, err
	}

	profile, err := s.repo.User().GetProfile(ctx, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return []*models.Lesson{}, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	lessons, err := s.repo.Lesson().ListUpcomingForProfile(ctx, profile.ID, s.now(), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming lessons: %w", err)
	}
	return lessons, nil
}

func (s *courseService) checkTeacher(ctx context.Context, teacherID *uint) error {
	if teacherID == nil {
		return nil
	}
	teacher, err := s.repo.User().GetByID(ctx, *teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return invalidField("teacher", fmt.Sprintf("user %d does not exist", *teacherID), "exists")
		}
		return fmt.Errorf("failed to load teacher: %w", err)
	}
	if teacher.Role != models.RoleTeacher {
		return invalidField("teacher", fmt.Sprintf("user %d is not a teacher", *teacherID), "role")
	}
	return nil
}
