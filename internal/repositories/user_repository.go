package repositories

import (
	"context"
	"time"

	"github.com/munificent-school/backoffice/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Role     *models.UserRole // exact match
	Search   string           // username, email, first or last name
	IsActive *bool
	Limit    int
	Offset   int
}

type UserRepository interface {
	// Create stores the user together with its profile, if set.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error

	// Validation and checks
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error)

	// Profiles
	GetProfile(ctx context.Context, userID uint) (*models.Profile, error)
	EnsureProfile(ctx context.Context, userID uint) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	// Public and role-scoped listings
	ListPublicTeachers(ctx context.Context) ([]*models.User, error)
	// ListStudentsOfTeacher returns each student enrolled in any of the
	// teacher's courses exactly once.
	ListStudentsOfTeacher(ctx context.Context, teacherID uint, search string) ([]*models.User, error)
}
