package pkg

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/auth"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories/memory"
	"github.com/munificent-school/backoffice/internal/services"
	"github.com/munificent-school/backoffice/internal/validator"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	repo := memory.NewRepository(memory.Open())

	sm := services.NewServiceManager(repo, logger, validator.New(), services.ServiceManagerConfig{
		Tokens:          auth.NewTokenIssuer("secret", "test", time.Minute, time.Hour),
		DefaultPassword: "235689qW#",
	})
	require.NoError(t, sm.Initialize(ctx))

	require.NoError(t, Seed(ctx, repo, sm, logger, "admin-Pa55word"))
	require.NoError(t, Seed(ctx, repo, sm, logger, "admin-Pa55word"))

	admin, err := repo.User().GetByEmail(ctx, SeedAdminEmail)
	require.NoError(t, err)
	actor := access.NewActor(admin)

	dashboard, err := sm.Dashboard().Admin(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dashboard.Stats.StudentsCount)
	assert.Equal(t, int64(2), dashboard.Stats.TeachersCount)
	assert.Equal(t, int64(3), dashboard.Stats.CoursesCount)
	assert.Equal(t, int64(2), dashboard.Stats.NewApplicationsCount)

	student, err := repo.User().GetByEmail(ctx, "masha.ivanova@example.com")
	require.NoError(t, err)
	summary, err := sm.Dashboard().Student(ctx, access.NewActor(student))
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.EnrolledCoursesCount)
	assert.NotEmpty(t, summary.UpcomingLessons)

	teacher, err := repo.User().GetByEmail(ctx, "anna.smirnova@munificent.school")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, teacher.Role)
	teacherSummary, err := sm.Dashboard().Teacher(ctx, access.NewActor(teacher))
	require.NoError(t, err)
	assert.Equal(t, int64(2), teacherSummary.CoursesCount)
	assert.Equal(t, int64(3), teacherSummary.StudentsCount)

	pair, err := sm.Auth().Login(ctx, &services.LoginRequest{Email: SeedAdminEmail, Password: "admin-Pa55word"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
}
