// Package access holds the authorization rules of the back office. Every
// rule is a pure function of (actor, operation, resource); nothing here
// touches storage.
package access

import "github.com/munificent-school/backoffice/internal/models"

type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// CanPerform reports whether actor may perform op on res.
func (p *Policy) CanPerform(actor *Actor, op Operation, res Resource) bool {
	if !actor.Authenticated() {
		return p.public(op, res)
	}
	if actor.IsAdmin() {
		return true
	}

	// Rules shared by every authenticated role.
	switch res.Kind {
	case KindSelf:
		return op != OpCreate && op != OpDelete && res.OwnerID != nil && *res.OwnerID == actor.ID
	case KindStudentDashboard:
		return op == OpRead
	}

	switch actor.Role {
	case models.RoleTeacher:
		return p.teacher(actor, op, res)
	case models.RoleStudent:
		return p.public(op, res)
	case models.RoleAdmin:
		// IsAdmin already returned; an inactive admin never gets here.
		return false
	default:
		return false
	}
}

func (p *Policy) public(op Operation, res Resource) bool {
	switch res.Kind {
	case KindApplication:
		return op == OpCreate
	case KindCourse, KindCategory, KindPublicTeacher:
		return op == OpRead
	case KindPost, KindReview:
		return op == OpRead && res.Published
	}
	return false
}

func (p *Policy) teacher(actor *Actor, op Operation, res Resource) bool {
	switch res.Kind {
	case KindLesson:
		return OwnsOrAdmin(actor, res)
	case KindCourse:
		if op == OpRead {
			return true
		}
		// Teachers edit the courses they teach but never create or remove them.
		return op == OpUpdate && OwnsOrAdmin(actor, res)
	case KindTeacherRoster, KindTeacherDashboard:
		return op == OpRead
	}
	return p.public(op, res)
}

// OwnsOrAdmin is the object-level rule: admin, or the teacher of the
// resource's course, or the resource's direct teacher.
func OwnsOrAdmin(actor *Actor, res Resource) bool {
	if !actor.Authenticated() {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if res.CourseTeacherID != nil && *res.CourseTeacherID == actor.ID {
		return true
	}
	return res.TeacherID != nil && *res.TeacherID == actor.ID
}
