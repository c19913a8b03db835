package services

import (
	"fmt"

	"github.com/munificent-school/backoffice/internal/access"
	"github.com/munificent-school/backoffice/internal/repositories"
)

// guard turns policy decisions into service errors.
type guard struct {
	policy *access.Policy
}

func newGuard() guard {
	return guard{policy: access.NewPolicy()}
}

// require is used for writes and collection reads: anonymous callers get
// ErrUnauthorized and authenticated ones a PermissionError.
func (g guard) require(actor *access.Actor, op access.Operation, res access.Resource) error {
	if g.policy.CanPerform(actor, op, res) {
		return nil
	}
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	return NewPermissionError(string(res.Kind), string(op), "insufficient role or not the owner")
}

// canSee is used for single-object reads: a denied object is reported as
// missing so that its existence does not leak.
func (g guard) canSee(actor *access.Actor, res access.Resource, what string) error {
	if g.policy.CanPerform(actor, access.OpRead, res) {
		return nil
	}
	if !actor.Authenticated() && res.Kind != access.KindPost && res.Kind != access.KindReview {
		return ErrUnauthorized
	}
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

// authenticated rejects anonymous callers.
func (g guard) authenticated(actor *access.Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

// preflight runs before a write loads its target. It rejects actors whose
// role could not perform op even on an object they own, so the lookup that
// follows never tells them whether the object exists.
func (g guard) preflight(actor *access.Actor, op access.Operation, kind access.Kind) error {
	if !actor.Authenticated() {
		return ErrUnauthorized
	}
	if actor.IsAdmin() {
		return nil
	}
	owned := access.Resource{Kind: kind, TeacherID: &actor.ID, CourseTeacherID: &actor.ID}
	if g.policy.CanPerform(actor, op, owned) {
		return nil
	}
	return NewPermissionError(string(kind), string(op), "insufficient role")
}

// missingTarget reports a failed lookup for a write. Only admins learn that
// the object is missing.
func (g guard) missingTarget(actor *access.Actor, err error, op access.Operation, kind access.Kind, what string) error {
	if !repositories.IsNotFoundError(err) || actor.IsAdmin() {
		return notFoundOr(err, what)
	}
	return NewPermissionError(string(kind), string(op), "insufficient role or not the owner")
}
