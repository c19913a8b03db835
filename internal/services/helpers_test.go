package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories/memory"
	"github.com/munificent-school/backoffice/internal/validator"
)

const testPassword = "Correct-Horse-42"

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// recordingPublisher keeps every published payload in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	repo      *memory.Repository
	validator *validator.Validator
	publisher *recordingPublisher
	tokens    *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:         t,
		ctx:       context.Background(),
		repo:      memory.NewRepository(memory.Open()),
		validator: validator.New(),
		publisher: &recordingPublisher{},
		tokens:    auth.NewTokenIssuer("test-secret", "backoffice-test", 5*time.Minute, time.Hour),
	}
}

func (f *fixture) user(role models.UserRole, email string) (*models.User, *access.Actor) {
	f.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(f.t, err)

	u := &models.User{
		Username:     email,
		Email:        email,
		FirstName:    "First",
		LastName:     string(role),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      role == models.RoleAdmin,
		Profile:      &models.Profile{},
	}
	require.NoError(f.t, f.repo.User().Create(f.ctx, u))
	return u, access.NewActor(u)
}

func (f *fixture) course(title string, teacherID *uint) *models.Course {
	f.t.Helper()
	c := &models.Course{Title: title, Subject: "Math", Price: decimal.NewFromInt(10000), TeacherID: teacherID}
	require.NoError(f.t, f.repo.Course().Create(f.ctx, c))
	return c
}

func (f *fixture) lesson(courseID uint, day time.Time, hour, minute int) *models.Lesson {
	f.t.Helper()
	l := &models.Lesson{
		CourseID: courseID,
		Title:    day.Format(time.DateOnly),
		Date:     datatypes.Date(day),
		Time:     datatypes.NewTime(hour, minute, 0, 0),
		Status:   models.LessonPlanned,
	}
	require.NoError(f.t, f.repo.Lesson().Create(f.ctx, l))
	return l
}

func (f *fixture) enroll(student *models.User, courseIDs ...uint) {
	f.t.Helper()
	profile, err := f.repo.User().EnsureProfile(f.ctx, student.ID)
	require.NoError(f.t, err)
	require.NoError(f.t, f.repo.Enrollment().Replace(f.ctx, profile.ID, courseIDs))
}

func (f *fixture) profileID(u *models.User) uint {
	f.t.Helper()
	profile, err := f.repo.User().GetProfile(f.ctx, u.ID)
	require.NoError(f.t, err)
	return profile.ID
}

func ptr[T any](v T) *T {
	return &v
}
