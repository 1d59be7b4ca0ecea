package models

import "time"

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ToolID    int       `gorm:"index;not null" json:"tool_id"`
	UserID    int       `gorm:"index;not null" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID" json:"author"`
	VoteCount int       `gorm:"-" json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content" form:"content" binding:"required"`
}
