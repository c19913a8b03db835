package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munificent-school/backoffice/internal/config"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/services"
)

func TestAPI_Health(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPI_Login(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	s.user(models.RoleStudent, "ann@example.com")

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"by email", map[string]string{"email": "ann@example.com", "password": testPassword}, http.StatusOK},
		{"by username", map[string]string{"username": "ann@example.com", "password": testPassword}, http.StatusOK},
		{"wrong password", map[string]string{"email": "ann@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "bob@example.com", "password": testPassword}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "ann@example.com"}, http.StatusBadRequest},
		{"malformed body", "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/token", "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestAPI_TokenRoundTrip(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	u, _ := s.user(models.RoleTeacher, "tess@example.com")

	w := s.do(http.MethodPost, "/api/token", "", map[string]string{"email": u.Email, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	pair := decode[services.TokenPair](t, w)

	w = s.do(http.MethodPost, "/api/token/refresh", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, w.Code)
	access := decode[services.AccessToken](t, w)

	w = s.do(http.MethodGet, "/api/users/me", access.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, u.ID, decode[models.User](t, w).ID)

	// A refresh token is not an access token.
	w = s.do(http.MethodGet, "/api/users/me", pair.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_Authentication(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/courses", "", nil).Code)
	// A bad token fails even where anonymous access is allowed.
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/courses", "garbage", nil).Code)
}

func TestAPI_RoleGates(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	_, admin := s.user(models.RoleAdmin, "admin@example.com")
	_, teacher := s.user(models.RoleTeacher, "teacher@example.com")
	_, student := s.user(models.RoleStudent, "student@example.com")

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/system-settings", "", http.StatusUnauthorized},
		{"/api/system-settings", student, http.StatusForbidden},
		{"/api/system-settings", teacher, http.StatusForbidden},
		{"/api/system-settings", admin, http.StatusOK},
		{"/api/admin-dashboard-summary", teacher, http.StatusForbidden},
		{"/api/admin-dashboard-summary", admin, http.StatusOK},
		{"/api/teacher-dashboard-summary", student, http.StatusForbidden},
		{"/api/teacher-dashboard-summary", teacher, http.StatusOK},
		{"/api/teacher-dashboard-summary", admin, http.StatusOK},
		{"/api/student-dashboard-summary", "", http.StatusUnauthorized},
		{"/api/student-dashboard-summary", student, http.StatusOK},
		{"/api/teacher-students", teacher, http.StatusOK},
		{"/api/teacher-students", student, http.StatusForbidden},
		{"/api/users", teacher, http.StatusForbidden},
		{"/api/users", admin, http.StatusOK},
		{"/api/applications", "", http.StatusUnauthorized},
		{"/api/public-teachers", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAPI_Enrollment(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	_, admin := s.user(models.RoleAdmin, "admin@example.com")
	student, studentToken := s.user(models.RoleStudent, "student@example.com")

	w := s.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"title": "Algebra", "price": 12000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)

	path := fmt.Sprintf("/api/users/students/%d/enroll", student.ID)

	t.Run("replaces and drops unknown ids", func(t *testing.T) {
		w := s.do(http.MethodPost, path, admin, fmt.Sprintf(`{"course_ids": [%d, 999, %d]}`, course.ID, course.ID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[services.EnrollmentResponse](t, w)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, []uint{course.ID}, resp.CourseIDs)

		w = s.do(http.MethodGet, "/api/courses/my", studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.Course](t, w), 1)
	})

	t.Run("non-list payloads are rejected", func(t *testing.T) {
		for _, body := range []string{`{"course_ids": 5}`, `{"course_ids": "1,2"}`, `{}`} {
			w := s.do(http.MethodPost, path, admin, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})

	t.Run("empty list clears", func(t *testing.T) {
		w := s.do(http.MethodPost, path, admin, `{"course_ids": []}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[services.EnrollmentResponse](t, w).CourseIDs)
	})

	t.Run("unknown student", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/users/students/9999/enroll", admin, `{"course_ids": []}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("students cannot enroll themselves", func(t *testing.T) {
		w := s.do(http.MethodPost, path, studentToken, `{"course_ids": []}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAPI_ReviewVisibility(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	_, admin := s.user(models.RoleAdmin, "admin@example.com")
	_, student := s.user(models.RoleStudent, "student@example.com")

	w := s.do(http.MethodPost, "/api/reviews", admin, map[string]interface{}{"author": "Parent", "text": "Great school"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[models.Review](t, w)
	draftPath := fmt.Sprintf("/api/reviews/%d", draft.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, draftPath, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, draftPath, student, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, draftPath, admin, nil).Code)

	w = s.do(http.MethodGet, "/api/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[services.ListResponse[models.Review]](t, w).Total)

	w = s.do(http.MethodPost, draftPath+"/publish", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.Review](t, w).IsPublished)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, draftPath, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, draftPath, student, nil).Code)
}

func TestAPI_LessonScoping(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	_, admin := s.user(models.RoleAdmin, "admin@example.com")
	owner, ownerToken := s.user(models.RoleTeacher, "owner@example.com")
	_, strangerToken := s.user(models.RoleTeacher, "stranger@example.com")

	w := s.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"title": "Physics", "teacher": owner.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)
	lessons := fmt.Sprintf("/api/courses/%d/lessons", course.ID)

	w = s.do(http.MethodPost, lessons, ownerToken, map[string]string{"title": "Intro", "date": "2030-09-01", "time": "16:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, lessons, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, lessons, strangerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, lessons, strangerToken, map[string]string{"title": "X", "date": "2030-09-02"}).Code)

	// The owner may edit but not reassign the course.
	path := fmt.Sprintf("/api/courses/%d", course.ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPatch, path, ownerToken, map[string]string{"title": "Physics I"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, path, ownerToken, `{"teacher": null}`).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, ownerToken, nil).Code)
}

func TestAPI_CourseWritesHideExistence(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	_, admin := s.user(models.RoleAdmin, "admin@example.com")
	_, student := s.user(models.RoleStudent, "student@example.com")

	w := s.do(http.MethodPost, "/api/courses", admin, map[string]interface{}{"title": "Algebra"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)

	for _, id := range []uint{course.ID, 9999} {
		path := fmt.Sprintf("/api/courses/%d", id)
		assert.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, path, student, map[string]string{"title": "X"}).Code, path)
		assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, path+"/lessons", student, map[string]string{"title": "X", "date": "2030-09-02"}).Code, path)
	}

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/api/courses/9999", admin, map[string]string{"title": "X"}).Code)
}

func TestAPI_ApplicationsExport(t *testing.T) {
	s := newTestServer(t, defaultRateLimit())
	_, admin := s.user(models.RoleAdmin, "admin@example.com")

	w := s.do(http.MethodPost, "/api/applications", "", map[string]string{"name": "  Maria  ", "phone": "+7 900 123-45-67"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Maria", decode[models.Application](t, w).Name)

	w = s.do(http.MethodGet, "/api/applications/export?status=new", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.NotEmpty(t, w.Body.Bytes())

	w = s.do(http.MethodGet, "/api/applications/export?status=bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_ApplicationsRateLimited(t *testing.T) {
	s := newTestServer(t, config.RateLimitConfig{ApplicationsPerMinute: 1, Burst: 2})
	body := map[string]string{"name": "Lead", "phone": "+7 900 123-45-67"}

	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/applications", "", body).Code)
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/applications", "", body).Code)
	w := s.do(http.MethodPost, "/api/applications", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
