package models

import "time"

type Category struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ToolCount   int       `gorm:"-" json:"tool_count"` // approved tools only
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=100"`
	Description string `json:"description" form:"description"`
}
