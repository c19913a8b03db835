package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

const (
	recentApplicationsLimit = 5
	upcomingLessonsLimit    = 5
)

// dashboardService computes role summaries straight from the store on every
// call. Sub-counts are read independently and nothing is cached.
type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
	guard  guard
	now    func() time.Time
}

func NewDashboardService(repo repositories.Repository, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		logger: logger,
		guard:  newGuard(),
		now:    time.Now,
	}
}

func (s *dashboardService) Admin(ctx context.Context, actor *access.Actor) (*AdminDashboard, error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindAdminDashboard)); err != nil {
		return nil, err
	}

	dash := s.repo.Dashboard()
	var (
		stats AdminStats
		err   error
	)
	if stats.StudentsCount, err = dash.CountUsersByRole(ctx, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	if stats.TeachersCount, err = dash.CountUsersByRole(ctx, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("failed to count teachers: %w", err)
	}
	if stats.CoursesCount, err = dash.CountCourses(ctx); err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	if stats.NewApplicationsCount, err = dash.CountApplicationsByStatus(ctx, models.ApplicationNew); err != nil {
		return nil, fmt.Errorf("failed to count new applications: %w", err)
	}

	recent, err := dash.RecentApplications(ctx, recentApplicationsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent applications: %w", err)
	}
	if recent == nil {
		recent = []*models.Application{}
	}

	return &AdminDashboard{Stats: stats, RecentApplications: recent}, nil
}

// Student summarises the caller's own enrollment. A caller without a
// profile gets zero counts.
func (s *dashboardService) Student(ctx context.Context, actor *access.Actor) (*StudentDashboard, error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindStudentDashboard)); err != nil {
		return nil, err
	}

	result := &StudentDashboard{UpcomingLessons: []*models.Lesson{}}
	profile, err := s.repo.User().GetProfile(ctx, actor.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if result.EnrolledCoursesCount, err = s.repo.Dashboard().CountEnrolledCourses(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("failed to count enrolled courses: %w", err)
	}
	lessons, err := s.repo.Lesson().ListUpcomingForProfile(ctx, profile.ID, s.now(), upcomingLessonsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming lessons: %w", err)
	}
	if lessons != nil {
		result.UpcomingLessons = lessons
	}
	return result, nil
}

func (s *dashboardService) Teacher(ctx context.Context, actor *access.Actor) (*TeacherDashboard, error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindTeacherDashboard)); err != nil {
		return nil, err
	}

	var (
		result TeacherDashboard
		err    error
	)
	if result.CoursesCount, err = s.repo.Dashboard().CountTeacherCourses(ctx, actor.ID); err != nil {
		return nil, fmt.Errorf("failed to count taught courses: %w", err)
	}
	if result.StudentsCount, err = s.repo.Dashboard().CountDistinctStudents(ctx, actor.ID); err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}
	return &result, nil
}
