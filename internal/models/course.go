package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type LessonStatus string

const (
	LessonPlanned   LessonStatus = "planned"
	LessonCompleted LessonStatus = "completed"
	LessonCancelled LessonStatus = "cancelled"
)

func (s LessonStatus) Valid() bool {
	switch s {
	case LessonPlanned, LessonCompleted, LessonCancelled:
		return true
	}
	return false
}

type Course struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"not null;size:200;index"`
	Description string          `json:"description" gorm:"type:text"`
	Subject     string          `json:"subject" gorm:"size:100;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	TeacherID   *uint           `json:"teacher" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Teacher  *User     `json:"teacher_details,omitempty" gorm:"foreignKey:TeacherID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Lessons  []Lesson  `json:"lessons,omitempty" gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Students []Profile `json:"-" gorm:"many2many:course_enrollments;joinForeignKey:CourseID;joinReferences:ProfileID"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseEnrollment is the single join table behind Profile.EnrolledCourses
// and Course.Students.
type CourseEnrollment struct {
	ProfileID uint      `json:"profile_id" gorm:"primaryKey"`
	CourseID  uint      `json:"course_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`

	Profile Profile `json:"-" gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Course  Course  `json:"-" gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}

type Lesson struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CourseID     uint           `json:"course" gorm:"not null;index"`
	Title        string         `json:"title" gorm:"not null;size:200"`
	Content      string         `json:"content" gorm:"type:text"`
	Date         datatypes.Date `json:"date" gorm:"index"`
	Time         datatypes.Time `json:"time"`
	Status       LessonStatus   `json:"status" gorm:"not null;default:planned;size:20"`
	RecordingURL *string        `json:"recording_url" gorm:"size:500"`
	HomeworkURL  *string        `json:"homework_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated by dashboard queries only
	CourseTitle string `json:"course_title,omitempty" gorm:"->;-:migration"`
}

func (Lesson) TableName() string {
	return "lessons"
}
