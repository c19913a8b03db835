package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

var courseSortColumns = map[string]string{
	"title":      "courses.title",
	"created_at": "courses.created_at",
	"price":      "courses.price",
	"subject":    "courses.subject",
}

type CoursePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&course, id).Error; err != nil {
		return nil, notFound(err, "course", id)
	}
	return &course, nil
}

// List searches title, subject and the teacher's first/last name (OR-combined, case-insensitive).
func (r *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filters.TeacherID != nil {
		query = query.Where("courses.teacher_id = ?", *filters.TeacherID)
	}
	if filters.Search != "" {
		pattern := LikePattern(filters.Search)
		query = query.Joins("LEFT JOIN users AS teacher ON teacher.id = courses.teacher_id").
			Where("courses.title ILIKE ? OR courses.subject ILIKE ? OR teacher.first_name ILIKE ? OR teacher.last_name ILIKE ?",
				pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = r.helpers.ApplySort(query, filters.SortBy, filters.SortOrder, courseSortColumns, "courses.id ASC")
	query = r.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var courses []*models.Course
	if err := query.Preload("Teacher").Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

func (r *CoursePostgreSQL) ListByProfile(ctx context.Context, profileID uint) ([]*models.Course, error) {
	var courses []*models.Course
	if err := r.db.WithContext(ctx).
		Joins("JOIN course_enrollments ON course_enrollments.course_id = courses.id").
		Where("course_enrollments.profile_id = ?", profileID).
		Preload("Teacher").
		Order("courses.title ASC").
		Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list enrolled courses: %w", err)
	}
	return courses, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", course.ID).
		Select("title", "description", "subject", "price", "teacher_id").
		Updates(course)
	if err := requireAffected(result, "course", course.ID); err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

// Delete removes the course together with its lessons and enrollment rows.
func (r *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
			return fmt.Errorf("failed to delete course lessons: %w", err)
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.CourseEnrollment{}).Error; err != nil {
			return fmt.Errorf("failed to delete course enrollments: %w", err)
		}
		result := tx.Delete(&models.Course{}, id)
		if err := requireAffected(result, "course", id); err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
		return nil
	})
}

func (r *CoursePostgreSQL) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	found := make([]uint, 0, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id IN ?", ids).
		Order("id ASC").
		Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve course ids: %w", err)
	}
	return found, nil
}

// ===== LESSONS =====

type LessonPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if err := r.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) GetByID(ctx context.Context, courseID, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", courseID, id).
		First(&lesson).Error; err != nil {
		return nil, notFound(err, "lesson", id)
	}
	return &lesson, nil
}

func (r *LessonPostgreSQL) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", filters.CourseID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count lessons: %w", err)
	}

	query = r.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var lessons []*models.Lesson
	if err := query.Order("date ASC, time ASC, id ASC").Find(&lessons).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, total, nil
}

func (r *LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	result := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("id = ? AND course_id = ?", lesson.ID, lesson.CourseID).
		Select("title", "content", "date", "time", "status", "recording_url", "homework_url").
		Updates(lesson)
	if err := requireAffected(result, "lesson", lesson.ID); err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) Delete(ctx context.Context, courseID, id uint) error {
	result := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&models.Lesson{}, id)
	if err := requireAffected(result, "lesson", id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

func (r *LessonPostgreSQL) ListUpcomingForProfile(ctx context.Context, profileID uint, from time.Time, limit int) ([]*models.Lesson, error) {
	query := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Select("lessons.*, courses.title AS course_title").
		Joins("JOIN courses ON courses.id = lessons.course_id").
		Joins("JOIN course_enrollments ON course_enrollments.course_id = lessons.course_id").
		Where("course_enrollments.profile_id = ? AND lessons.date >= ?", profileID, from.Format(time.DateOnly)).
		Order("lessons.date ASC, lessons.time ASC, lessons.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var lessons []*models.Lesson
	if err := query.Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming lessons: %w", err)
	}
	return lessons, nil
}

// ===== ENROLLMENT =====

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

// Replace clears and rewrites the profile's rows in one transaction. When
// called inside WithTransaction gorm nests it as a savepoint.
func (r *EnrollmentPostgreSQL) Replace(ctx context.Context, profileID uint, courseIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.CourseEnrollment{}).Error; err != nil {
			return fmt.Errorf("failed to clear enrollments: %w", err)
		}
		if len(courseIDs) == 0 {
			return nil
		}

		now := time.Now()
		rows := make([]models.CourseEnrollment, 0, len(courseIDs))
		for _, courseID := range courseIDs {
			rows = append(rows, models.CourseEnrollment{ProfileID: profileID, CourseID: courseID, CreatedAt: now})
		}
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write enrollments: %w", err)
		}
		return nil
	})
}

func (r *EnrollmentPostgreSQL) CourseIDsForProfile(ctx context.Context, profileID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.CourseEnrollment{}).
		Where("profile_id = ?", profileID).
		Order("course_id ASC").
		Pluck("course_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrolled course ids: %w", err)
	}
	return ids, nil
}

func (r *EnrollmentPostgreSQL) ProfileIDsForCourse(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.CourseEnrollment{}).
		Where("course_id = ?", courseID).
		Order("profile_id ASC").
		Pluck("profile_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get course profile ids: %w", err)
	}
	return ids, nil
}
