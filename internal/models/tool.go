package models

import "time"

type Tool struct {
	ID          int        `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:200;not null;index" json:"name"`
	Description string     `gorm:"type:text;not null" json:"description"`
	URL         string     `gorm:"size:500;not null" json:"url"`
	ImageURL    string     `gorm:"size:500" json:"image_url"`
	YoutubeURL  string     `gorm:"size:500" json:"youtube_url"`
	Resources   string     `gorm:"type:text" json:"resources"`
	IsApproved  bool       `gorm:"index;default:false" json:"is_approved"`
	UserID      int        `gorm:"index;not null" json:"user_id"`
	Author      User       `gorm:"foreignKey:UserID" json:"author"`
	Categories  []Category `gorm:"many2many:tool_categories;" json:"categories"`
	VoteCount   int        `gorm:"-" json:"votes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryIDs lists the ids of the loaded categories.
func (t Tool) CategoryIDs() []int {
	ids := make([]int, 0, len(t.Categories))
	for _, c := range t.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// HasCategory reports whether the tool is filed under the category.
func (t Tool) HasCategory(id int) bool {
	for _, c := range t.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

type SubmitToolRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=200"`
	Description string `json:"description" form:"description" binding:"required"`
	URL         string `json:"url" form:"url" binding:"required,url,max=500"`
	ImageURL    string `json:"image_url" form:"image_url" binding:"omitempty,url,max=500"`
	YoutubeURL  string `json:"youtube_url" form:"youtube_url" binding:"omitempty,url,max=500"`
	Resources   string `json:"resources" form:"resources"`
	CategoryIDs []int  `json:"categories" form:"categories" binding:"required,min=1"`
}
