package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/validator"
)

type userService struct {
	repo            repositories.Repository
	logger          *slog.Logger
	validator       *validator.Validator
	guard           guard
	defaultPassword string
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, defaultPassword string) UserService {
	return &userService{
		repo:            repo,
		logger:          logger,
		validator:       validator,
		guard:           newGuard(),
		defaultPassword: defaultPassword,
	}
}

// ===== ADMIN CRUD =====

func (s *userService) List(ctx context.Context, actor *access.Actor, params UserListParams) (*ListResponse[*models.User], error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindUser)); err != nil {
		return nil, err
	}

	limit, offset := params.Normalize()
	users, total, err := s.repo.User().List(ctx, repositories.UserFilters{
		Role:   params.Role,
		Search: strings.TrimSpace(params.Search),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return newListResponse(users, total, params.Pagination), nil
}

func (s *userService) Get(ctx context.Context, actor *access.Actor, id uint) (*models.User, error) {
	if err := s.guard.canSee(actor, access.On(access.KindUser), "user"); err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor *access.Actor, req *CreateUserRequest) (*models.User, error) {
	if err := s.guard.require(actor, access.OpCreate, access.On(access.KindUser)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	email := strings.TrimSpace(req.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	password := req.Password
	if password == "" {
		password = s.defaultPassword
	} else if err := s.validator.ValidatePassword("password", password, email, req.FirstName, req.LastName); err != nil {
		return nil, validationFailed(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     email,
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      req.Role == models.RoleAdmin,
		Profile:      &models.Profile{},
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	applyProfile(user.Profile, req.Profile)

	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role, "actor_id", actor.ID)
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor *access.Actor, id uint, req *UpdateUserRequest) (*models.User, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.On(access.KindUser)); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}

	if req.Email != nil {
		if err := s.changeEmail(ctx, user, strings.TrimSpace(*req.Email)); err != nil {
			return nil, err
		}
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
		user.IsStaff = *req.Role == models.RoleAdmin
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if req.Password != nil && *req.Password != "" {
		if err := s.setPassword(ctx, user, "password", *req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, user, req.Profile); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", "user_id", user.ID, "actor_id", actor.ID)
	return s.repo.User().GetByID(ctx, user.ID)
}

func (s *userService) Delete(ctx context.Context, actor *access.Actor, id uint) error {
	if err := s.guard.require(actor, access.OpDelete, access.On(access.KindUser)); err != nil {
		return err
	}
	if id == actor.ID {
		return invalidField("id", "you cannot delete your own account", "self")
	}
	if err := s.repo.User().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("User deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

// ===== SELF SERVICE =====

func (s *userService) Me(ctx context.Context, actor *access.Actor) (*models.User, error) {
	if err := s.guard.require(actor, access.OpRead, access.Self(actorID(actor))); err != nil {
		return nil, err
	}
	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

func (s *userService) UpdateMe(ctx context.Context, actor *access.Actor, req *UpdateMeRequest) (*models.User, error) {
	if err := s.guard.require(actor, access.OpUpdate, access.Self(actorID(actor))); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validationFailed(err)
	}

	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if req.Email != nil {
		if err := s.changeEmail(ctx, user, strings.TrimSpace(*req.Email)); err != nil {
			return nil, err
		}
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if err := s.save(ctx, user, req.Profile); err != nil {
		return nil, err
	}
	return s.repo.User().GetByID(ctx, user.ID)
}

func (s *userService) ChangePassword(ctx context.Context, actor *access.Actor, req *ChangePasswordRequest) error {
	if err := s.guard.require(actor, access.OpUpdate, access.Self(actorID(actor))); err != nil {
		return err
	}
	if err := s.validator.Validate(req); err != nil {
		return validationFailed(err)
	}

	user, err := s.repo.User().GetByID(ctx, actor.ID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		return invalidField("old_password", "wrong password", "password")
	}
	if err := s.setPassword(ctx, user, "new_password", req.NewPassword); err != nil {
		return err
	}

	s.logger.Info("Password changed", "user_id", user.ID)
	return nil
}

// ===== PUBLIC AND ROLE-SCOPED LISTINGS =====

func (s *userService) ListPublicTeachers(ctx context.Context) ([]PublicTeacher, error) {
	teachers, err := s.repo.User().ListPublicTeachers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}

	out := make([]PublicTeacher, 0, len(teachers))
	for _, t := range teachers {
		pt := PublicTeacher{
			ID:        t.ID,
			FirstName: t.FirstName,
			LastName:  t.LastName,
			Avatar:    t.Avatar,
		}
		if t.Profile != nil {
			pt.PublicDescription = t.Profile.PublicDescription
			pt.PublicSubjects = t.Profile.PublicSubjects
			if t.Profile.Avatar != nil {
				pt.Avatar = t.Profile.Avatar
			}
		}
		out = append(out, pt)
	}
	return out, nil
}

func (s *userService) TeacherStudents(ctx context.Context, actor *access.Actor, search string) ([]*models.User, error) {
	if err := s.guard.require(actor, access.OpRead, access.On(access.KindTeacherRoster)); err != nil {
		return nil, err
	}
	students, err := s.repo.User().ListStudentsOfTeacher(ctx, actor.ID, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// ===== HELPERS =====

func actorID(actor *access.Actor) uint {
	if actor == nil {
		return 0
	}
	return actor.ID
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, excludeID uint) error {
	taken, err := s.repo.User().ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if !taken {
		taken, err = s.repo.User().ExistsByUsername(ctx, email, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
	}
	if taken {
		return invalidField("email", "a user with this email already exists", "unique")
	}
	return nil
}

// changeEmail keeps the username in step when it still mirrors the email.
func (s *userService) changeEmail(ctx context.Context, user *models.User, email string) error {
	if strings.EqualFold(email, user.Email) {
		return nil
	}
	if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
		return err
	}
	if user.Username == user.Email {
		user.Username = email
	}
	user.Email = email
	return nil
}

func (s *userService) setPassword(ctx context.Context, user *models.User, field, password string) error {
	if err := s.validator.ValidatePassword(field, password, user.Username, user.Email, user.FirstName, user.LastName); err != nil {
		return validationFailed(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.User().UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// save writes the user row and, when given, merges the profile fields.
func (s *userService) save(ctx context.Context, user *models.User, in *ProfileInput) error {
	user.Profile = nil
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if in == nil {
		return nil
	}

	profile, err := s.repo.User().EnsureProfile(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	applyProfile(profile, in)
	profile.EnrolledCourses = nil
	if err := s.repo.User().UpdateProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func applyProfile(p *models.Profile, in *ProfileInput) {
	if in == nil {
		return
	}
	if in.Avatar != nil {
		p.Avatar = in.Avatar
	}
	if in.PublicDescription != nil {
		p.PublicDescription = *in.PublicDescription
	}
	if in.PublicSubjects != nil {
		p.PublicSubjects = *in.PublicSubjects
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.School != nil {
		p.School = *in.School
	}
	if in.StudentClass != nil {
		p.StudentClass = *in.StudentClass
	}
	if in.ParentName != nil {
		p.ParentName = *in.ParentName
	}
	if in.ParentPhone != nil {
		p.ParentPhone = *in.ParentPhone
	}
}
