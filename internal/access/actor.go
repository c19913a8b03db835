package access

import "github.com/munificent-school/backoffice/internal/models"

// Actor is the identity making a request. A nil *Actor is anonymous.
type Actor struct {
	ID       uint
	Role     models.UserRole
	IsActive bool
	IsStaff  bool
}

// NewActor builds an actor from a stored user.
func NewActor(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{
		ID:       u.ID,
		Role:     u.Role,
		IsActive: u.IsActive,
		IsStaff:  u.IsStaff,
	}
}

// Authenticated reports whether the actor is a known, active identity.
func (a *Actor) Authenticated() bool {
	return a != nil && a.IsActive
}

func (a *Actor) IsAdmin() bool {
	return a.Authenticated() && (a.Role == models.RoleAdmin || a.IsStaff)
}

func (a *Actor) IsTeacher() bool {
	return a.Authenticated() && a.Role == models.RoleTeacher
}

func (a *Actor) IsStudent() bool {
	return a.Authenticated() && a.Role == models.RoleStudent
}
