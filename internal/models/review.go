package models

import "time"

type Review struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Author      string    `json:"author" gorm:"not null;size:255"`
	Text        string    `json:"text" gorm:"type:text;not null"`
	ScoreInfo   string    `json:"score_info" gorm:"size:255"`
	IsPublished bool      `json:"is_published" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
