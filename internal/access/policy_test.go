package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/munificent-school/backoffice/internal/models"
)

func uintPtr(v uint) *uint { return &v }

var (
	admin      = &Actor{ID: 1, Role: models.RoleAdmin, IsActive: true, IsStaff: true}
	teacher    = &Actor{ID: 2, Role: models.RoleTeacher, IsActive: true}
	otherTeach = &Actor{ID: 3, Role: models.RoleTeacher, IsActive: true}
	student    = &Actor{ID: 4, Role: models.RoleStudent, IsActive: true}
	inactive   = &Actor{ID: 5, Role: models.RoleAdmin, IsActive: false, IsStaff: true}
	unknown    = &Actor{ID: 6, Role: models.UserRole("janitor"), IsActive: true}
)

func TestPolicy_CanPerform(t *testing.T) {
	p := NewPolicy()
	ownCourse := CourseResource(uintPtr(teacher.ID))
	ownLesson := LessonResource(uintPtr(teacher.ID))

	tests := []struct {
		name  string
		actor *Actor
		op    Operation
		res   Resource
		want  bool
	}{
		{"anonymous creates application", nil, OpCreate, On(KindApplication), true},
		{"anonymous cannot list applications", nil, OpRead, On(KindApplication), false},
		{"anonymous reads courses", nil, OpRead, On(KindCourse), true},
		{"anonymous reads published post", nil, OpRead, PostResource(true), true},
		{"anonymous cannot read draft post", nil, OpRead, PostResource(false), false},
		{"anonymous reads published review", nil, OpRead, ReviewResource(true), true},
		{"anonymous cannot read hidden review", nil, OpRead, ReviewResource(false), false},
		{"anonymous reads categories", nil, OpRead, On(KindCategory), true},
		{"anonymous reads public teachers", nil, OpRead, On(KindPublicTeacher), true},
		{"anonymous cannot read self", nil, OpRead, Self(1), false},
		{"anonymous cannot read student dashboard", nil, OpRead, On(KindStudentDashboard), false},
		{"inactive admin is anonymous", inactive, OpUpdate, On(KindSettings), false},

		{"admin writes settings", admin, OpUpdate, On(KindSettings), true},
		{"admin deletes any course", admin, OpDelete, CourseResource(uintPtr(teacher.ID)), true},
		{"admin reads hidden review", admin, OpRead, ReviewResource(false), true},
		{"admin enrolls", admin, OpUpdate, On(KindEnrollment), true},

		{"user reads self", student, OpRead, Self(student.ID), true},
		{"user updates self", student, OpUpdate, Self(student.ID), true},
		{"user cannot update someone else", student, OpUpdate, Self(teacher.ID), false},
		{"user cannot delete self", student, OpDelete, Self(student.ID), false},
		{"student reads own dashboard", student, OpRead, On(KindStudentDashboard), true},
		{"teacher reads student dashboard", teacher, OpRead, On(KindStudentDashboard), true},

		{"teacher reads own lessons", teacher, OpRead, ownLesson, true},
		{"teacher creates lesson in own course", teacher, OpCreate, ownLesson, true},
		{"teacher cannot touch other lessons", otherTeach, OpUpdate, ownLesson, false},
		{"teacher cannot read other lessons", otherTeach, OpRead, ownLesson, false},
		{"teacher lesson without course teacher", teacher, OpRead, LessonResource(nil), false},
		{"teacher updates own course", teacher, OpUpdate, ownCourse, true},
		{"teacher cannot delete own course", teacher, OpDelete, ownCourse, false},
		{"teacher cannot create course", teacher, OpCreate, CourseResource(nil), false},
		{"teacher cannot update other course", otherTeach, OpUpdate, ownCourse, false},
		{"teacher reads roster", teacher, OpRead, On(KindTeacherRoster), true},
		{"teacher reads teacher dashboard", teacher, OpRead, On(KindTeacherDashboard), true},
		{"teacher cannot read admin dashboard", teacher, OpRead, On(KindAdminDashboard), false},
		{"teacher cannot write settings", teacher, OpUpdate, On(KindSettings), false},
		{"teacher cannot enroll", teacher, OpUpdate, On(KindEnrollment), false},
		{"teacher cannot edit users", teacher, OpUpdate, On(KindUser), false},
		{"teacher cannot update application", teacher, OpUpdate, On(KindApplication), false},
		{"teacher creates application like anyone", teacher, OpCreate, On(KindApplication), true},

		{"student cannot read lessons", student, OpRead, ownLesson, false},
		{"student cannot read roster", student, OpRead, On(KindTeacherRoster), false},
		{"student cannot read teacher dashboard", student, OpRead, On(KindTeacherDashboard), false},
		{"student cannot update course", student, OpUpdate, ownCourse, false},
		{"student reads courses", student, OpRead, On(KindCourse), true},

		{"unknown role falls through to deny", unknown, OpRead, On(KindCourse), false},
		{"unknown role reads self", unknown, OpRead, Self(unknown.ID), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanPerform(tt.actor, tt.op, tt.res))
		})
	}
}

func TestPolicy_NonOwnerMutationsDenied(t *testing.T) {
	p := NewPolicy()
	kinds := []Resource{
		CourseResource(uintPtr(teacher.ID)),
		LessonResource(uintPtr(teacher.ID)),
		On(KindUser),
		On(KindApplication),
		On(KindSettings),
	}
	for _, actor := range []*Actor{otherTeach, student, nil} {
		for _, res := range kinds {
			for _, op := range []Operation{OpUpdate, OpDelete} {
				assert.False(t, p.CanPerform(actor, op, res), "actor=%v op=%s kind=%s", actor, op, res.Kind)
			}
		}
	}
}

func TestOwnsOrAdmin(t *testing.T) {
	assert.True(t, OwnsOrAdmin(admin, Resource{}))
	assert.True(t, OwnsOrAdmin(teacher, Resource{CourseTeacherID: uintPtr(teacher.ID)}))
	assert.True(t, OwnsOrAdmin(teacher, Resource{TeacherID: uintPtr(teacher.ID)}))
	assert.False(t, OwnsOrAdmin(otherTeach, Resource{TeacherID: uintPtr(teacher.ID)}))
	assert.False(t, OwnsOrAdmin(nil, Resource{TeacherID: uintPtr(1)}))
}
