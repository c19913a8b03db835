package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

// ===== ADMIN SUMMARY =====

func (r *dashboardRepository) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s users: %w", role, err)
	}
	return count, nil
}

func (r *dashboardRepository) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) CountApplicationsByStatus(ctx context.Context, status models.ApplicationStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) RecentApplications(ctx context.Context, limit int) ([]*models.Application, error) {
	var apps []*models.Application
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent applications: %w", err)
	}
	return apps, nil
}

// ===== STUDENT SUMMARY =====

func (r *dashboardRepository) CountEnrolledCourses(ctx context.Context, profileID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CourseEnrollment{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count enrolled courses: %w", err)
	}
	return count, nil
}

// ===== TEACHER SUMMARY =====

func (r *dashboardRepository) CountTeacherCourses(ctx context.Context, teacherID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("teacher_id = ?", teacherID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count teacher courses: %w", err)
	}
	return count, nil
}

// CountDistinctStudents counts profiles enrolled in any of the teacher's
// courses; a profile in two of them counts once.
func (r *dashboardRepository) CountDistinctStudents(ctx context.Context, teacherID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("course_enrollments").
		Joins("JOIN courses ON courses.id = course_enrollments.course_id").
		Where("courses.teacher_id = ?", teacherID).
		Distinct("course_enrollments.profile_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count distinct students: %w", err)
	}
	return count, nil
}
