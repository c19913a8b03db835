package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// AllRoles lists every role a user may hold.
var AllRoles = []UserRole{RoleStudent, RoleTeacher, RoleAdmin}

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:254"`
	FirstName    string     `json:"first_name" gorm:"size:150"`
	LastName     string     `json:"last_name" gorm:"size:150"`
	Role         UserRole   `json:"role" gorm:"not null;default:student;size:10;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:128"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	IsStaff      bool       `json:"is_staff" gorm:"not null;default:false"`
	Avatar       *string    `json:"avatar" gorm:"size:500"`
	LastLogin    *time.Time `json:"last_login"`

	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`

	// Relations
	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

// FullName returns "first last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type Profile struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	UserID            uint    `json:"user_id" gorm:"uniqueIndex;not null"`
	Avatar            *string `json:"avatar" gorm:"size:500"`
	PublicDescription string  `json:"public_description" gorm:"type:text"`
	PublicSubjects    string  `json:"public_subjects" gorm:"size:255"`
	Phone             string  `json:"phone" gorm:"size:20"`
	School            string  `json:"school" gorm:"size:255"`
	StudentClass      string  `json:"student_class" gorm:"size:50"`
	ParentName        string  `json:"parent_name" gorm:"size:255"`
	ParentPhone       string  `json:"parent_phone" gorm:"size:20"`

	// Read projection of course_enrollments; written only by the enrollment repository.
	EnrolledCourses []Course `json:"enrolled_courses,omitempty" gorm:"many2many:course_enrollments;joinForeignKey:ProfileID;joinReferences:CourseID"`
}

func (Profile) TableName() string {
	return "profiles"
}
