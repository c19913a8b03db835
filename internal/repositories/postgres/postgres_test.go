package postgres

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/munificent-school/backoffice/internal/cache"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestEnrollmentReplace_RewritesRowsInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEnrollmentPostgreSQL(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "course_enrollments" WHERE profile_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "course_enrollments"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Replace(context.Background(), 7, []uint{1, 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentReplace_EmptySetOnlyClears(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEnrollmentPostgreSQL(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "course_enrollments"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Replace(context.Background(), 7, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		notFound bool
	}{
		{"cascades lessons and enrollments", 1, false},
		{"missing course rolls back", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewCoursePostgreSQL(db)

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "lessons" WHERE course_id = $1`)).
				WithArgs(5).
				WillReturnResult(sqlmock.NewResult(0, 2))
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "course_enrollments" WHERE course_id = $1`)).
				WithArgs(5).
				WillReturnResult(sqlmock.NewResult(0, 4))
			mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "courses" WHERE "courses"."id" = $1`)).
				WithArgs(5).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.notFound {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			err := repo.Delete(context.Background(), 5)
			if tt.notFound {
				assert.True(t, repositories.IsNotFoundError(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCourseExistingIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCoursePostgreSQL(db)

	ids, err := repo.ExistingIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "courses" WHERE id IN ($1,$2)`)).
		WithArgs(1, 99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	ids, err = repo.ExistingIDs(context.Background(), []uint{1, 99})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardCountUsersByRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE role = $1`)).
		WithArgs("student").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountUsersByRole(context.Background(), models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardCountDistinctStudents(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`COUNT\(DISTINCT\("course_enrollments"\."profile_id"\)\) FROM "course_enrollments" ` +
		`JOIN courses ON courses\.id = course_enrollments\.course_id WHERE courses\.teacher_id = \$1`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountDistinctStudents(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonListUpcomingForProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLessonPostgreSQL(db)
	from := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT lessons\.\*, courses\.title AS course_title FROM "lessons" ` +
		`JOIN courses ON courses\.id = lessons\.course_id ` +
		`JOIN course_enrollments ON course_enrollments\.course_id = lessons\.course_id ` +
		`WHERE course_enrollments\.profile_id = \$1 AND lessons\.date >= \$2 ` +
		`ORDER BY lessons\.date ASC, lessons\.time ASC, lessons\.id ASC`).
		WithArgs(8, "2026-10-16").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "title", "course_title"}).
			AddRow(1, 2, "Fractions", "Algebra 9").
			AddRow(5, 3, "Optics", "Physics 10"))

	lessons, err := repo.ListUpcomingForProfile(context.Background(), 8, from, 0)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Algebra 9", lessons[0].CourseTitle)
	assert.Equal(t, "Optics", lessons[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCoursePostgreSQL(db)
	const pattern = "%smirnova%"

	mock.ExpectQuery(`SELECT count\(\*\) FROM "courses" LEFT JOIN users AS teacher ON teacher\.id = courses\.teacher_id ` +
		`WHERE \(?courses\.title ILIKE \$1 OR courses\.subject ILIKE \$2 OR teacher\.first_name ILIKE \$3 OR teacher\.last_name ILIKE \$4\)?`).
		WithArgs(pattern, pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM "courses" LEFT JOIN users AS teacher ON teacher\.id = courses\.teacher_id ` +
		`WHERE .*teacher\.last_name ILIKE \$4.* ORDER BY courses\.price DESC`).
		WithArgs(pattern, pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	courses, total, err := repo.List(context.Background(), repositories.CourseFilters{
		Search:    " Smirnova ",
		SortBy:    "price",
		SortOrder: "desc",
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListRoleAndSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserPostgreSQL(db)
	role := models.RoleTeacher
	const pattern = "%anna%"

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE role = \$1 AND ` +
		`\(username ILIKE \$2 OR email ILIKE \$3 OR first_name ILIKE \$4 OR last_name ILIKE \$5\)`).
		WithArgs("teacher", pattern, pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM "users" WHERE role = \$1 AND \(username ILIKE .*\) ORDER BY id ASC`).
		WithArgs("teacher", pattern, pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	users, total, err := repo.List(context.Background(), repositories.UserFilters{Role: &role, Search: "anna"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListStudentsOfTeacher(t *testing.T) {
	roster := `WHERE users\.id IN \(SELECT profiles\.user_id FROM "course_enrollments" ` +
		`JOIN courses ON courses\.id = course_enrollments\.course_id ` +
		`JOIN profiles ON profiles\.id = course_enrollments\.profile_id ` +
		`WHERE courses\.teacher_id = \$1\) AND users\.role = \$2`

	tests := []struct {
		name   string
		search string
		query  string
		args   []driver.Value
	}{
		{
			name:  "whole roster",
			query: `FROM "users" ` + roster + ` ORDER BY users\.last_name ASC, users\.first_name ASC`,
			args:  []driver.Value{6, "student"},
		},
		{
			name:   "search by phone",
			search: "+7 900",
			query: `FROM "users" LEFT JOIN profiles p ON p\.user_id = users\.id ` + roster +
				` AND \(users\.first_name ILIKE \$3 OR users\.last_name ILIKE \$4 OR users\.email ILIKE \$5 OR p\.phone ILIKE \$6\)` +
				` ORDER BY users\.last_name ASC, users\.first_name ASC`,
			args: []driver.Value{6, "student", "%+7 900%", "%+7 900%", "%+7 900%", "%+7 900%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserPostgreSQL(db)

			mock.ExpectQuery(tt.query).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			students, err := repo.ListStudentsOfTeacher(context.Background(), 6, tt.search)
			require.NoError(t, err)
			assert.Empty(t, students)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func settingsRow() *sqlmock.Rows {
	d := models.DefaultSystemSettings()
	return sqlmock.NewRows([]string{
		"id", "school_name", "address", "phone", "email",
		"email_notifications", "sms_notifications", "payment_reminders", "class_reminders",
		"timezone", "language", "currency", "updated_at",
	}).AddRow(
		d.ID, d.SchoolName, "", "", "",
		true, true, true, true,
		d.Timezone, d.Language, d.Currency, time.Now(),
	)
}

func TestSettings_CachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db, mock := newMockDB(t)
	repo := NewSettingsPostgreSQL(db, cache.NewCacheManager(client))
	ctx := context.Background()

	// Only the first read reaches postgres.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "system_settings" WHERE "system_settings"."id" = $1`)).
		WillReturnRows(settingsRow())

	first, err := repo.Get(ctx)
	require.NoError(t, err)
	second, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.SchoolName, second.SchoolName)
	assert.True(t, mr.Exists(cache.SettingsCacheConfig.Prefix+cache.SettingsKey))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "system_settings" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	first.SchoolName = "Renamed"
	require.NoError(t, repo.Update(ctx, first))
	assert.False(t, mr.Exists(cache.SettingsCacheConfig.Prefix+cache.SettingsKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_CreatesDefaultsOnFirstRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSettingsPostgreSQL(db, cache.NewCacheManager(nil))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "system_settings"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "system_settings"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "system_settings"`)).
		WillReturnRows(settingsRow())

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Munificent School", settings.SchoolName)
	assert.Equal(t, models.SystemSettingsID, settings.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, LikePattern(" 50%_off "))
}
