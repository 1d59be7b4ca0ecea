package models

import "time"

type BlogPost struct {
	ID            int       `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Slug          string    `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Excerpt       string    `gorm:"type:text" json:"excerpt"`
	FeaturedImage string    `gorm:"size:500" json:"featured_image"`
	Published     bool      `gorm:"index;default:false" json:"published"`
	UserID        int       `gorm:"index;not null" json:"user_id"`
	Author        User      `gorm:"foreignKey:UserID" json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BlogPostRequest struct {
	Title         string `json:"title" form:"title" binding:"required,max=200"`
	Content       string `json:"content" form:"content" binding:"required"`
	Excerpt       string `json:"excerpt" form:"excerpt"`
	FeaturedImage string `json:"featured_image" form:"featured_image" binding:"omitempty,url,max=500"`
	Published     bool   `json:"published" form:"published"`
}
