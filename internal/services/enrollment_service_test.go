package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munificent-school/backoffice/internal/events"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/validator"
)

func TestSetEnrollment_ReplacesWholeSet(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	student, _ := f.user(models.RoleStudent, "student@example.com")
	c1 := f.course("Algebra", nil)
	c2 := f.course("Geometry", nil)
	svc := NewEnrollmentService(f.repo, testLogger(), f.publisher)

	resp, err := svc.SetEnrollment(f.ctx, admin, student.ID, json.RawMessage(`[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.ElementsMatch(t, []uint{c1.ID, c2.ID}, resp.CourseIDs)

	_, err = svc.SetEnrollment(f.ctx, admin, student.ID, json.RawMessage(`[2]`))
	require.NoError(t, err)

	profileID := f.profileID(student)
	courses, err := f.repo.Enrollment().CourseIDsForProfile(f.ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c2.ID}, courses)

	students, err := f.repo.Enrollment().ProfileIDsForCourse(f.ctx, c1.ID)
	require.NoError(t, err)
	assert.Empty(t, students)

	students, err = f.repo.Enrollment().ProfileIDsForCourse(f.ctx, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{profileID}, students)

	assert.Equal(t, []string{events.TopicEnrollmentUpdated, events.TopicEnrollmentUpdated}, f.publisher.Topics())
}

func TestSetEnrollment_DropsUnknownAndDuplicateIDs(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	student, _ := f.user(models.RoleStudent, "student@example.com")
	c1 := f.course("Algebra", nil)
	svc := NewEnrollmentService(f.repo, testLogger(), nil)

	resp, err := svc.SetEnrollment(f.ctx, admin, student.ID, json.RawMessage(`[1, 1, 999]`))
	require.NoError(t, err)
	assert.Equal(t, []uint{c1.ID}, resp.CourseIDs)

	resp, err = svc.SetEnrollment(f.ctx, admin, student.ID, json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.Empty(t, resp.CourseIDs)

	courses, err := f.repo.Enrollment().CourseIDsForProfile(f.ctx, f.profileID(student))
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestSetEnrollment_KeepsRequestOrder(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	student, _ := f.user(models.RoleStudent, "student@example.com")
	c1 := f.course("Algebra", nil)
	c2 := f.course("History", nil)
	c3 := f.course("Physics", nil)
	svc := NewEnrollmentService(f.repo, testLogger(), nil)

	payload := fmt.Sprintf(`[%d, 999, %d, %d, %d]`, c3.ID, c1.ID, c3.ID, c2.ID)
	resp, err := svc.SetEnrollment(f.ctx, admin, student.ID, json.RawMessage(payload))
	require.NoError(t, err)
	assert.Equal(t, []uint{c3.ID, c1.ID, c2.ID}, resp.CourseIDs)

	courses, err := f.repo.Enrollment().CourseIDsForProfile(f.ctx, f.profileID(student))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{c1.ID, c2.ID, c3.ID}, courses)
}

func TestSetEnrollment_RejectsNonListPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "single id", payload: `2`},
		{name: "string", payload: `"1,2"`},
		{name: "object", payload: `{"id": 2}`},
		{name: "null", payload: `null`},
		{name: "missing", payload: ``},
		{name: "mixed list", payload: `[1, "two"]`},
		{name: "negative id", payload: `[-1]`},
		{name: "fraction", payload: `[1.5]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, admin := f.user(models.RoleAdmin, "admin@example.com")
			student, _ := f.user(models.RoleStudent, "student@example.com")
			c1 := f.course("Algebra", nil)
			f.enroll(student, c1.ID)
			svc := NewEnrollmentService(f.repo, testLogger(), f.publisher)

			_, err := svc.SetEnrollment(f.ctx, admin, student.ID, json.RawMessage(tt.payload))
			require.ErrorIs(t, err, ErrBadRequest)

			var details validator.ValidationErrors
			require.ErrorAs(t, err, &details)
			assert.Equal(t, "course_ids", details[0].Field)

			courses, err := f.repo.Enrollment().CourseIDsForProfile(f.ctx, f.profileID(student))
			require.NoError(t, err)
			assert.Equal(t, []uint{c1.ID}, courses, "enrollment must be untouched")
			assert.Empty(t, f.publisher.Topics())
		})
	}
}

func TestSetEnrollment_Access(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(models.RoleAdmin, "admin@example.com")
	teacher, teacherActor := f.user(models.RoleTeacher, "teacher@example.com")
	student, studentActor := f.user(models.RoleStudent, "student@example.com")
	svc := NewEnrollmentService(f.repo, testLogger(), nil)
	payload := json.RawMessage(`[]`)

	_, err := svc.SetEnrollment(f.ctx, nil, student.ID, payload)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.SetEnrollment(f.ctx, teacherActor, student.ID, payload)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SetEnrollment(f.ctx, studentActor, student.ID, payload)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SetEnrollment(f.ctx, admin, 4242, payload)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SetEnrollment(f.ctx, admin, teacher.ID, payload)
	assert.ErrorIs(t, err, ErrNotFound, "only students can be enrolled")
}

func TestParseCourseIDs(t *testing.T) {
	ids, err := parseCourseIDs(json.RawMessage(` [3, 1, 3, 2] `))
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, ids)
}
