// Package memory is a map-backed Repository used by service and handler
// tests. It applies the same filters and orderings as the postgres
// implementation but provides no transaction isolation.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

type enrollmentKey struct {
	profileID uint
	courseID  uint
}

// DB holds every table behind a single lock.
type DB struct {
	mutex sync.RWMutex
	seq   map[string]uint

	users        map[uint]*models.User
	profiles     map[uint]*models.Profile
	courses      map[uint]*models.Course
	lessons      map[uint]*models.Lesson
	enrollments  map[enrollmentKey]models.CourseEnrollment
	applications map[uint]*models.Application
	categories   map[uint]*models.Category
	posts        map[uint]*models.Post
	reviews      map[uint]*models.Review
	settings     *models.SystemSettings
}

func Open() *DB {
	return &DB{
		seq:          make(map[string]uint),
		users:        make(map[uint]*models.User),
		profiles:     make(map[uint]*models.Profile),
		courses:      make(map[uint]*models.Course),
		lessons:      make(map[uint]*models.Lesson),
		enrollments:  make(map[enrollmentKey]models.CourseEnrollment),
		applications: make(map[uint]*models.Application),
		categories:   make(map[uint]*models.Category),
		posts:        make(map[uint]*models.Post),
		reviews:      make(map[uint]*models.Review),
	}
}

func (db *DB) nextID(table string) uint {
	db.seq[table]++
	return db.seq[table]
}

func notFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
}

func containsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(strings.TrimSpace(term)))
}

func sortByID[T any](items []T, id func(T) uint) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}

// paginate slices items the way ApplyPagination does in SQL.
func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Repository implements repositories.Repository on top of DB.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) User() repositories.UserRepository { return &userRepository{db: r.db} }

func (r *Repository) Course() repositories.CourseRepository { return &courseRepository{db: r.db} }

func (r *Repository) Lesson() repositories.LessonRepository { return &lessonRepository{db: r.db} }

func (r *Repository) Enrollment() repositories.EnrollmentRepository {
	return &enrollmentRepository{db: r.db}
}

func (r *Repository) Application() repositories.ApplicationRepository {
	return &applicationRepository{db: r.db}
}

func (r *Repository) Category() repositories.CategoryRepository {
	return &categoryRepository{db: r.db}
}

func (r *Repository) Post() repositories.PostRepository { return &postRepository{db: r.db} }

func (r *Repository) Review() repositories.ReviewRepository { return &reviewRepository{db: r.db} }

func (r *Repository) Settings() repositories.SettingsRepository {
	return &settingsRepository{db: r.db}
}

func (r *Repository) Dashboard() repositories.DashboardRepository {
	return &dashboardRepository{db: r.db}
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *Repository) Ping(ctx context.Context) error { return nil }

func (r *Repository) Close() error { return nil }
