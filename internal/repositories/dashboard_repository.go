package repositories

import (
	"context"

	"github.com/munificent-school/backoffice/internal/models"
)

// DashboardRepository holds the aggregation queries behind the role
// summaries. Each method is an independent read.
type DashboardRepository interface {
	// Admin summary
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	CountCourses(ctx context.Context) (int64, error)
	CountApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) (int64, error)
	RecentApplications(ctx context.Context, limit int) ([]*models.Application, error)

	// Student summary
	CountEnrolledCourses(ctx context.Context, profileID uint) (int64, error)

	// Teacher summary
	CountTeacherCourses(ctx context.Context, teacherID uint) (int64, error)
	CountDistinctStudents(ctx context.Context, teacherID uint) (int64, error)
}
