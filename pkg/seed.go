package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
	"github.com/munificent-school/backoffice/internal/services"
)

const SeedAdminEmail = "admin@munificent.school"

// Seed fills an empty database with demo data. It is a no-op once the seed
// admin exists.
func Seed(ctx context.Context, repo repositories.Repository, sm services.ServiceManager, logger *slog.Logger, password string) error {
	if _, err := repo.User().GetByEmail(ctx, SeedAdminEmail); err == nil {
		logger.Info("Seed data already present, skipping")
		return nil
	} else if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to check seed admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     "admin",
		Email:        SeedAdminEmail,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         models.RoleAdmin,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		Profile:      &models.Profile{},
	}
	if err := repo.User().Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}
	s := seeder{ctx: ctx, sm: sm, actor: access.NewActor(admin)}

	if _, err := sm.Settings().Get(ctx, s.actor); err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}

	math := s.teacher("anna.smirnova@munificent.school", "Anna", "Smirnova", "Mathematics, Physics", "Olympiad coach with ten years of exam preparation.")
	history := s.teacher("pavel.orlov@munificent.school", "Pavel", "Orlov", "History, Social studies", "Makes dates and causes stick.")

	students := []*models.User{
		s.student("masha.ivanova@example.com", "Masha", "Ivanova", "9A"),
		s.student("petya.kuznetsov@example.com", "Petya", "Kuznetsov", "10B"),
		s.student("lena.sokolova@example.com", "Lena", "Sokolova", "11A"),
	}

	algebra := s.course("Algebra 9", "Mathematics", 12000, math)
	physics := s.course("Physics 10", "Physics", 14000, math)
	historyCourse := s.course("History 101", "History", 10000, history)

	start := time.Now().AddDate(0, 0, 1)
	for i, course := range []*models.Course{algebra, physics, historyCourse} {
		for week := 0; week < 3; week++ {
			day := start.AddDate(0, 0, 7*week+i)
			s.lesson(course, fmt.Sprintf("Lesson %d", week+1), day, fmt.Sprintf("%02d:00", 15+i))
		}
	}

	s.enroll(students[0], algebra, historyCourse)
	s.enroll(students[1], algebra, physics)
	s.enroll(students[2], physics, historyCourse)

	general := s.category("General")
	news := s.category("News")
	s.post("Welcome to our blog!", "This is our first blog post.", general, true)
	s.post("New course available!", "Physics 10 starts next week.", news, true)
	s.post("Exam schedule", "Draft of the spring exam schedule.", news, false)

	s.review("Olga, Masha's mother", "Masha finally enjoys algebra.", "OGE: 5", true)
	s.review("Ivan", "Great teachers, flexible schedule.", "EGE: 86", true)
	s.review("Anonymous", "Waiting for moderation.", "", false)

	s.application("Sergey", "+7 900 111-22-33", "8", "Mathematics", "Evening classes please")
	s.application("Irina", "+7 900 444-55-66", "11", "History", "")

	if s.err != nil {
		return s.err
	}
	logger.Info("Seeded database", "admin", SeedAdminEmail, "students", len(students))
	return nil
}

// seeder records the first failure and turns later steps into no-ops.
type seeder struct {
	ctx   context.Context
	sm    services.ServiceManager
	actor *access.Actor
	err   error
}

func (s *seeder) fail(what string, err error) {
	if s.err == nil && err != nil {
		s.err = fmt.Errorf("seed %s: %w", what, err)
	}
}

func (s *seeder) user(req *services.CreateUserRequest) *models.User {
	if s.err != nil {
		return nil
	}
	u, err := s.sm.User().Create(s.ctx, s.actor, req)
	s.fail(req.Email, err)
	return u
}

func (s *seeder) teacher(email, first, last, subjects, description string) *models.User {
	return s.user(&services.CreateUserRequest{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      models.RoleTeacher,
		Profile: &services.ProfileInput{
			PublicSubjects:    &subjects,
			PublicDescription: &description,
		},
	})
}

func (s *seeder) student(email, first, last, class string) *models.User {
	return s.user(&services.CreateUserRequest{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      models.RoleStudent,
		Profile:   &services.ProfileInput{StudentClass: &class},
	})
}

func (s *seeder) course(title, subject string, price int64, teacher *models.User) *models.Course {
	if s.err != nil {
		return nil
	}
	c, err := s.sm.Course().Create(s.ctx, s.actor, &services.CreateCourseRequest{
		Title:       title,
		Description: "An introductory course to " + subject + ".",
		Subject:     subject,
		Price:       decimal.NewFromInt(price),
		TeacherID:   &teacher.ID,
	})
	s.fail(title, err)
	return c
}

func (s *seeder) lesson(course *models.Course, title string, day time.Time, clock string) {
	if s.err != nil {
		return
	}
	_, err := s.sm.Lesson().Create(s.ctx, s.actor, course.ID, &services.CreateLessonRequest{
		Title:   title,
		Content: "Lesson plan for " + course.Title + ".",
		Date:    day.Format(time.DateOnly),
		Time:    clock,
	})
	s.fail(course.Title+" "+title, err)
}

func (s *seeder) enroll(student *models.User, courses ...*models.Course) {
	if s.err != nil {
		return
	}
	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		s.fail("enrollment", err)
		return
	}
	_, err = s.sm.Enrollment().SetEnrollment(s.ctx, s.actor, student.ID, raw)
	s.fail("enrollment of "+student.Email, err)
}

func (s *seeder) category(name string) *models.Category {
	if s.err != nil {
		return nil
	}
	c, err := s.sm.Blog().CreateCategory(s.ctx, s.actor, &services.CategoryRequest{Name: name})
	s.fail("category "+name, err)
	return c
}

func (s *seeder) post(title, content string, category *models.Category, published bool) {
	if s.err != nil {
		return
	}
	_, err := s.sm.Blog().CreatePost(s.ctx, s.actor, &services.CreatePostRequest{
		Title:       title,
		Content:     content,
		Excerpt:     content,
		CategoryID:  &category.ID,
		IsPublished: published,
	})
	s.fail("post "+title, err)
}

func (s *seeder) review(author, text, score string, published bool) {
	if s.err != nil {
		return
	}
	_, err := s.sm.Review().Create(s.ctx, s.actor, &services.CreateReviewRequest{
		Author:      author,
		Text:        text,
		ScoreInfo:   score,
		IsPublished: published,
	})
	s.fail("review by "+author, err)
}

func (s *seeder) application(name, phone, class, subject, comment string) {
	if s.err != nil {
		return
	}
	_, err := s.sm.Application().Create(s.ctx, nil, &services.CreateApplicationRequest{
		Name:         name,
		Phone:        phone,
		StudentClass: class,
		Subject:      subject,
		Comment:      comment,
	})
	s.fail("application from "+name, err)
}
