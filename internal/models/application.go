package models

import "time"

type ApplicationStatus string

const (
	ApplicationNew        ApplicationStatus = "new"
	ApplicationContacted  ApplicationStatus = "contacted"
	ApplicationRegistered ApplicationStatus = "registered"
	ApplicationArchived   ApplicationStatus = "archived"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationNew, ApplicationContacted, ApplicationRegistered, ApplicationArchived:
		return true
	}
	return false
}

// Application is a lead submitted from the public site.
type Application struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	Name         string            `json:"name" gorm:"not null;size:255"`
	Phone        string            `json:"phone" gorm:"not null;size:20"`
	StudentClass string            `json:"student_class" gorm:"size:50"`
	Subject      string            `json:"subject" gorm:"size:100"`
	Comment      string            `json:"comment" gorm:"type:text"`
	Status       ApplicationStatus `json:"status" gorm:"not null;default:new;size:20;index"`
	CreatedAt    time.Time         `json:"created_at" gorm:"index"`
}

func (Application) TableName() string {
	return "applications"
}
