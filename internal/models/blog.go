package models

import "time"

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null;size:100"`
}

func (Category) TableName() string {
	return "blog_categories"
}

type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null;size:200"`
	Content     string    `json:"content" gorm:"type:text"`
	Excerpt     string    `json:"excerpt" gorm:"type:text"`
	AuthorID    uint      `json:"author" gorm:"not null;index"`
	CategoryID  *uint     `json:"category" gorm:"index"`
	Image       *string   `json:"image" gorm:"size:500"`
	IsPublished bool      `json:"is_published" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	Author   *User     `json:"-" gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Category *Category `json:"-" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`

	// Computed fields (not stored)
	CategoryName string `json:"category_name" gorm:"-"`
	AuthorName   string `json:"author_name" gorm:"-"`
}

func (Post) TableName() string {
	return "blog_posts"
}

// FillNames copies related display names into the computed fields.
func (p *Post) FillNames() {
	if p.Category != nil {
		p.CategoryName = p.Category.Name
	}
	if p.Author != nil {
		p.AuthorName = p.Author.FullName()
	}
}
