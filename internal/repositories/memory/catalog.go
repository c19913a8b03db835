package memory

import (
	"context"
	"sort"
	"time"

	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

// ===== COURSES =====

type courseRepository struct {
	db *DB
}

func (repo *courseRepository) withTeacher(c *models.Course) *models.Course {
	out := *c
	out.Teacher = nil
	out.Lessons = nil
	out.Students = nil
	if c.TeacherID != nil {
		if t, ok := repo.db.users[*c.TeacherID]; ok {
			teacher := *t
			teacher.Profile = nil
			out.Teacher = &teacher
		}
	}
	return &out
}

func (repo *courseRepository) Create(ctx context.Context, course *models.Course) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	course.ID = repo.db.nextID("courses")
	now := time.Now()
	course.CreatedAt, course.UpdatedAt = now, now
	stored := *course
	stored.Teacher = nil
	repo.db.courses[course.ID] = &stored
	return nil
}

func (repo *courseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	c, ok := repo.db.courses[id]
	if !ok {
		return nil, notFound("course", id)
	}
	return repo.withTeacher(c), nil
}

func (repo *courseRepository) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]*models.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filters.TeacherID != nil && (c.TeacherID == nil || *c.TeacherID != *filters.TeacherID) {
			continue
		}
		course := repo.withTeacher(c)
		if filters.Search != "" && !courseMatches(course, filters.Search) {
			continue
		}
		courses = append(courses, course)
	}
	sortByID(courses, func(c *models.Course) uint { return c.ID })
	return paginate(courses, filters.Limit, filters.Offset), int64(len(courses)), nil
}

func courseMatches(c *models.Course, term string) bool {
	if containsFold(c.Title, term) || containsFold(c.Subject, term) {
		return true
	}
	return c.Teacher != nil && (containsFold(c.Teacher.FirstName, term) || containsFold(c.Teacher.LastName, term))
}

func (repo *courseRepository) ListByProfile(ctx context.Context, profileID uint) ([]*models.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]*models.Course, 0)
	for key := range repo.db.enrollments {
		if key.profileID != profileID {
			continue
		}
		if c, ok := repo.db.courses[key.courseID]; ok {
			courses = append(courses, repo.withTeacher(c))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses, nil
}

func (repo *courseRepository) Update(ctx context.Context, course *models.Course) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.courses[course.ID]
	if !ok {
		return notFound("course", course.ID)
	}
	existing.Title = course.Title
	existing.Description = course.Description
	existing.Subject = course.Subject
	existing.Price = course.Price
	existing.TeacherID = course.TeacherID
	existing.UpdatedAt = time.Now()
	return nil
}

func (repo *courseRepository) Delete(ctx context.Context, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return notFound("course", id)
	}
	for lid, l := range repo.db.lessons {
		if l.CourseID == id {
			delete(repo.db.lessons, lid)
		}
	}
	for key := range repo.db.enrollments {
		if key.courseID == id {
			delete(repo.db.enrollments, key)
		}
	}
	delete(repo.db.courses, id)
	return nil
}

func (repo *courseRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	found := make([]uint, 0, len(ids))
	seen := make(map[uint]bool)
	for _, id := range ids {
		if _, ok := repo.db.courses[id]; ok && !seen[id] {
			seen[id] = true
			found = append(found, id)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found, nil
}

// ===== LESSONS =====

type lessonRepository struct {
	db *DB
}

func lessonLess(a, b *models.Lesson) bool {
	left, right := time.Time(a.Date), time.Time(b.Date)
	if !left.Equal(right) {
		return left.Before(right)
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}

func (repo *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lesson.ID = repo.db.nextID("lessons")
	now := time.Now()
	lesson.CreatedAt, lesson.UpdatedAt = now, now
	stored := *lesson
	repo.db.lessons[lesson.ID] = &stored
	return nil
}

func (repo *lessonRepository) GetByID(ctx context.Context, courseID, id uint) (*models.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	l, ok := repo.db.lessons[id]
	if !ok || l.CourseID != courseID {
		return nil, notFound("lesson", id)
	}
	out := *l
	return &out, nil
}

func (repo *lessonRepository) List(ctx context.Context, filters repositories.LessonFilters) ([]*models.Lesson, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lessons := make([]*models.Lesson, 0)
	for _, l := range repo.db.lessons {
		if l.CourseID != filters.CourseID {
			continue
		}
		if filters.Status != nil && l.Status != *filters.Status {
			continue
		}
		out := *l
		lessons = append(lessons, &out)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessonLess(lessons[i], lessons[j]) })
	return paginate(lessons, filters.Limit, filters.Offset), int64(len(lessons)), nil
}

func (repo *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.lessons[lesson.ID]
	if !ok || existing.CourseID != lesson.CourseID {
		return notFound("lesson", lesson.ID)
	}
	existing.Title = lesson.Title
	existing.Content = lesson.Content
	existing.Date = lesson.Date
	existing.Time = lesson.Time
	existing.Status = lesson.Status
	existing.RecordingURL = lesson.RecordingURL
	existing.HomeworkURL = lesson.HomeworkURL
	existing.UpdatedAt = time.Now()
	return nil
}

func (repo *lessonRepository) Delete(ctx context.Context, courseID, id uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	l, ok := repo.db.lessons[id]
	if !ok || l.CourseID != courseID {
		return notFound("lesson", id)
	}
	delete(repo.db.lessons, id)
	return nil
}

func (repo *lessonRepository) ListUpcomingForProfile(ctx context.Context, profileID uint, from time.Time, limit int) ([]*models.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	lessons := make([]*models.Lesson, 0)
	for _, l := range repo.db.lessons {
		if _, enrolled := repo.db.enrollments[enrollmentKey{profileID: profileID, courseID: l.CourseID}]; !enrolled {
			continue
		}
		d := time.Time(l.Date)
		lessonDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if lessonDay.Before(day) {
			continue
		}
		out := *l
		if c, ok := repo.db.courses[l.CourseID]; ok {
			out.CourseTitle = c.Title
		}
		lessons = append(lessons, &out)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessonLess(lessons[i], lessons[j]) })
	return paginate(lessons, limit, 0), nil
}

// ===== ENROLLMENT =====

type enrollmentRepository struct {
	db *DB
}

// Replace swaps the whole set under the write lock so readers never see it half-cleared.
func (repo *enrollmentRepository) Replace(ctx context.Context, profileID uint, courseIDs []uint) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for key := range repo.db.enrollments {
		if key.profileID == profileID {
			delete(repo.db.enrollments, key)
		}
	}
	now := time.Now()
	for _, courseID := range courseIDs {
		key := enrollmentKey{profileID: profileID, courseID: courseID}
		repo.db.enrollments[key] = models.CourseEnrollment{ProfileID: profileID, CourseID: courseID, CreatedAt: now}
	}
	return nil
}

func (repo *enrollmentRepository) CourseIDsForProfile(ctx context.Context, profileID uint) ([]uint, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]uint, 0)
	for key := range repo.db.enrollments {
		if key.profileID == profileID {
			ids = append(ids, key.courseID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (repo *enrollmentRepository) ProfileIDsForCourse(ctx context.Context, courseID uint) ([]uint, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]uint, 0)
	for key := range repo.db.enrollments {
		if key.courseID == courseID {
			ids = append(ids, key.profileID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
