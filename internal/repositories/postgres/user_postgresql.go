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

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error; err != nil {
		return nil, notFound(err, "user", email)
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").
		Where("username = ? OR LOWER(email) = LOWER(?)", login, login).
		First(&user).Error; err != nil {
		return nil, notFound(err, "user", login)
	}
	return &user, nil
}

func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Search != "" {
		pattern := LikePattern(filters.Search)
		query = query.Where(
			"username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = r.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var users []*models.User
	if err := query.Preload("Profile").Order("id ASC").Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Select("username", "email", "first_name", "last_name", "role", "is_active", "is_staff", "avatar").
		Updates(user)
	if err := requireAffected(result, "user", user.ID); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if user.Profile != nil {
		user.Profile.UserID = user.ID
		return r.UpdateProfile(ctx, user.Profile)
	}
	return nil
}

func (r *UserPostgreSQL) UpdatePassword(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if err := requireAffected(result, "user", id); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *UserPostgreSQL) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_login", at).Error; err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Delete removes the user; the profile and its enrollments cascade.
func (r *UserPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if err := requireAffected(result, "user", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ===== VALIDATION AND CHECKS =====

func (r *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?) AND id <> ?", email, excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (r *UserPostgreSQL) ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// ===== PROFILES =====

func (r *UserPostgreSQL) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err, "profile of user", userID)
	}
	return &profile, nil
}

// EnsureProfile returns the user's profile, creating an empty one if missing.
func (r *UserPostgreSQL) EnsureProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile := models.Profile{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	existing, err := r.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *UserPostgreSQL) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", profile.UserID).
		Select("avatar", "public_description", "public_subjects", "phone", "school",
			"student_class", "parent_name", "parent_phone").
		Updates(profile).Error
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ===== LISTINGS =====

func (r *UserPostgreSQL) ListPublicTeachers(ctx context.Context) ([]*models.User, error) {
	var teachers []*models.User
	if err := r.db.WithContext(ctx).Preload("Profile").
		Where("role = ? AND is_active = ?", models.RoleTeacher, true).
		Order("last_name ASC, first_name ASC").
		Find(&teachers).Error; err != nil {
		return nil, fmt.Errorf("failed to list public teachers: %w", err)
	}
	return teachers, nil
}

func (r *UserPostgreSQL) ListStudentsOfTeacher(ctx context.Context, teacherID uint, search string) ([]*models.User, error) {
	sub := r.db.WithContext(ctx).Table("course_enrollments").
		Select("profiles.user_id").
		Joins("JOIN courses ON courses.id = course_enrollments.course_id").
		Joins("JOIN profiles ON profiles.id = course_enrollments.profile_id").
		Where("courses.teacher_id = ?", teacherID)

	query := r.db.WithContext(ctx).Model(&models.User{}).
		Where("users.id IN (?)", sub).
		Where("users.role = ?", models.RoleStudent)

	if search != "" {
		pattern := LikePattern(search)
		query = query.Joins("LEFT JOIN profiles p ON p.user_id = users.id").
			Where("users.first_name ILIKE ? OR users.last_name ILIKE ? OR users.email ILIKE ? OR p.phone ILIKE ?",
				pattern, pattern, pattern, pattern)
	}

	var students []*models.User
	if err := query.Preload("Profile").Order("users.last_name ASC, users.first_name ASC").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list teacher students: %w", err)
	}
	return students, nil
}
