package memory

import (
	"context"
	"strings"
	"time"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

type userRepository struct {
	db *DB
}

// withProfile returns a copy of the user carrying a copy of its profile.
func (repo *userRepository) withProfile(usr *models.User) *models.User {
	out := *usr
	out.Profile = nil
	for _, p := range repo.db.profiles {
		if p.UserID == usr.ID {
			profile := *p
			out.Profile = &profile
			break
		}
	}
	return &out
}

func (repo *userRepository) Create(ctx context.Context, user *models.User) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	user.ID = repo.db.nextID("users")
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	stored.Profile = nil
	repo.db.users[user.ID] = &stored

	if user.Profile != nil {
		user.Profile.ID = repo.db.nextID("profiles")
		user.Profile.UserID = user.ID
		profile := *user.Profile
		profile.EnrolledCourses = nil
		repo.db.profiles[profile.ID] = &profile
	}
	return nil
}

func (repo *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return repo.withProfile(usr), nil
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) {
			return repo.withProfile(usr), nil
		}
	}
	return nil, notFound("user", email)
}

func (repo *userRepository) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == login || strings.EqualFold(usr.Email, login) {
			return repo.withProfile(usr), nil
		}
	}
	return nil, notFound("user", login)
}

func (repo *userRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]*models.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filters.Role != nil && usr.Role != *filters.Role {
			continue
		}
		if filters.IsActive != nil && usr.IsActive != *filters.IsActive {
			continue
		}
		if filters.Search != "" && !containsFold(usr.Username, filters.Search) &&
			!containsFold(usr.Email, filters.Search) &&
			!containsFold(usr.FirstName, filters.Search) &&
			!containsFold(usr.LastName, filters.Search) {
			continue
		}
		users = append(users, repo.withProfile(usr))
	}
	sortByID(users, func(u *models.User) uint { return u.ID })
	return paginate(users, filters.Limit, filters.Offset), int64(len(users)), nil
}

func (repo *userRepository) Update(ctx context.Context, user *models.User) error {
	repo.db.mutex.Lock()
	existing, ok := repo.db.users[user.ID]
	if !ok {
		repo.db.mutex.Unlock()
		return notFound("user", user.ID)
	}
	existing.Username = user.Username
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Role = user.Role
	existing.IsActive = user.IsActive
	existing.IsStaff = user.IsStaff
	existing.Avatar = user.Avatar
	existing.UpdatedAt = time.Now()
	repo.db.mutex.Unlock()

	if user.Profile != nil {
		user.Profile.UserID = user.ID
		return repo.UpdateProfile(ctx, user.Profile)
	}
	return nil
}

func (repo *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return notFound("user", id)
	}
	usr.PasswordHash = hash
	return nil
}

func (repo *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return notFound("user", id)
	}
	usr.LastLogin = &at
	return nil
}

// Delete removes the user, its profile with enrollments, and detaches taught courses.
func (repo *userRepository) Delete(ctx context.Context, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return notFound("user", id)
	}
	delete(repo.db.users, id)
	for pid, p := range repo.db.profiles {
		if p.UserID != id {
			continue
		}
		for key := range repo.db.enrollments {
			if key.profileID == pid {
				delete(repo.db.enrollments, key)
			}
		}
		delete(repo.db.profiles, pid)
	}
	for _, c := range repo.db.courses {
		if c.TeacherID != nil && *c.TeacherID == id {
			c.TeacherID = nil
		}
	}
	for pid, p := range repo.db.posts {
		if p.AuthorID == id {
			delete(repo.db.posts, pid)
		}
	}
	return nil
}

func (repo *userRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.ID != excludeID && strings.EqualFold(usr.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *userRepository) ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.ID != excludeID && usr.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (repo *userRepository) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.profiles {
		if p.UserID == userID {
			profile := *p
			return &profile, nil
		}
	}
	return nil, notFound("profile of user", userID)
}

func (repo *userRepository) EnsureProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	repo.db.mutex.Lock()
	for _, p := range repo.db.profiles {
		if p.UserID == userID {
			profile := *p
			repo.db.mutex.Unlock()
			return &profile, nil
		}
	}
	if _, ok := repo.db.users[userID]; !ok {
		repo.db.mutex.Unlock()
		return nil, notFound("user", userID)
	}
	profile := &models.Profile{ID: repo.db.nextID("profiles"), UserID: userID}
	repo.db.profiles[profile.ID] = profile
	repo.db.mutex.Unlock()

	out := *profile
	return &out, nil
}

func (repo *userRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, p := range repo.db.profiles {
		if p.UserID == profile.UserID {
			updated := *profile
			updated.ID = id
			updated.EnrolledCourses = nil
			repo.db.profiles[id] = &updated
			profile.ID = id
			return nil
		}
	}
	profile.ID = repo.db.nextID("profiles")
	stored := *profile
	stored.EnrolledCourses = nil
	repo.db.profiles[profile.ID] = &stored
	return nil
}

func (repo *userRepository) ListPublicTeachers(ctx context.Context) ([]*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]*models.User, 0)
	for _, usr := range repo.db.users {
		if usr.Role == models.RoleTeacher && usr.IsActive {
			teachers = append(teachers, repo.withProfile(usr))
		}
	}
	sortByID(teachers, func(u *models.User) uint { return u.ID })
	return teachers, nil
}

func (repo *userRepository) ListStudentsOfTeacher(ctx context.Context, teacherID uint, search string) ([]*models.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[uint]bool)
	students := make([]*models.User, 0)
	for key := range repo.db.enrollments {
		course, ok := repo.db.courses[key.courseID]
		if !ok || course.TeacherID == nil || *course.TeacherID != teacherID {
			continue
		}
		profile, ok := repo.db.profiles[key.profileID]
		if !ok || seen[profile.UserID] {
			continue
		}
		usr, ok := repo.db.users[profile.UserID]
		if !ok || usr.Role != models.RoleStudent {
			continue
		}
		if search != "" && !containsFold(usr.FirstName, search) &&
			!containsFold(usr.LastName, search) &&
			!containsFold(usr.Email, search) &&
			!containsFold(profile.Phone, search) {
			continue
		}
		seen[profile.UserID] = true
		students = append(students, repo.withProfile(usr))
	}
	sortByID(students, func(u *models.User) uint { return u.ID })
	return students, nil
}
