package models

import "time"

// SystemSettingsID is the fixed primary key of the settings row.
const SystemSettingsID uint = 1

type SystemSettings struct {
	ID                 uint      `json:"-" gorm:"primaryKey;autoIncrement:false"`
	SchoolName         string    `json:"school_name" gorm:"not null;size:255"`
	Address            string    `json:"address" gorm:"size:255"`
	Phone              string    `json:"phone" gorm:"size:20"`
	Email              string    `json:"email" gorm:"size:254"`
	EmailNotifications bool      `json:"email_notifications" gorm:"not null"`
	SMSNotifications   bool      `json:"sms_notifications" gorm:"not null"`
	PaymentReminders   bool      `json:"payment_reminders" gorm:"not null"`
	ClassReminders     bool      `json:"class_reminders" gorm:"not null"`
	Timezone           string    `json:"timezone" gorm:"not null;size:50"`
	Language           string    `json:"language" gorm:"not null;size:50"`
	Currency           string    `json:"currency" gorm:"not null;size:10"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}

// DefaultSystemSettings returns the row created on first read.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		ID:                 SystemSettingsID,
		SchoolName:         "Munificent School",
		EmailNotifications: true,
		SMSNotifications:   true,
		PaymentReminders:   true,
		ClassReminders:     true,
		Timezone:           "Asia/Almaty",
		Language:           "Русский",
		Currency:           "KZT",
	}
}
