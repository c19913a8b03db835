package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/munificent-school/backoffice/internal/models"
)

// ErrNotFound is wrapped by every repository lookup that finds no row.
var ErrNotFound = errors.New("record not found")

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Search    string `json:"search"` // title, subject, teacher first/last name
	TeacherID *uint  `json:"teacher_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "title", "created_at", "price"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type LessonFilters struct {
	CourseID uint                 `json:"course_id"`
	Status   *models.LessonStatus `json:"status"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

type ApplicationFilters struct {
	Status *models.ApplicationStatus `json:"status"`
	Limit  int                       `json:"limit"`
	Offset int                       `json:"offset"`
}

type PostFilters struct {
	PublishedOnly bool   `json:"published_only"`
	CategorySlug  string `json:"category"`
	Search        string `json:"search"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

type ReviewFilters struct {
	PublishedOnly bool `json:"published_only"`
	Limit         int  `json:"limit"`
	Offset        int  `json:"offset"`
}

// ===== CATALOG =====

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	ListByProfile(ctx context.Context, profileID uint) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error

	// ExistingIDs returns the subset of ids that resolve to a course.
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	// GetByID only finds the lesson when it belongs to courseID.
	GetByID(ctx context.Context, courseID, id uint) (*models.Lesson, error)
	List(ctx context.Context, filters LessonFilters) ([]*models.Lesson, int64, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, courseID, id uint) error

	// ListUpcomingForProfile returns lessons dated on or after from in the
	// profile's enrolled courses, ordered by date then time. limit <= 0 means all.
	ListUpcomingForProfile(ctx context.Context, profileID uint, from time.Time, limit int) ([]*models.Lesson, error)
}

// EnrollmentRepository is the only writer of course_enrollments.
type EnrollmentRepository interface {
	// Replace makes courseIDs the complete enrollment set of the profile.
	Replace(ctx context.Context, profileID uint, courseIDs []uint) error
	CourseIDsForProfile(ctx context.Context, profileID uint) ([]uint, error)
	ProfileIDsForCourse(ctx context.Context, courseID uint) ([]uint, error)
}

// ===== CONTENT =====

type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	List(ctx context.Context, filters ApplicationFilters) ([]*models.Application, int64, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, id uint) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, filters PostFilters) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	List(ctx context.Context, filters ReviewFilters) ([]*models.Review, int64, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uint) error
}

// SettingsRepository manages the single system_settings row.
type SettingsRepository interface {
	// Get returns the settings row, creating it with defaults on first read.
	Get(ctx context.Context) (*models.SystemSettings, error)
	Update(ctx context.Context, settings *models.SystemSettings) error
}
