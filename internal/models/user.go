package models

import "time"

type User struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string `gorm:"size:256;not null" json:"-"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`
	IsModerator  bool   `gorm:"default:false" json:"is_moderator"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanModerate reports whether the user may approve or reject submissions.
func (u User) CanModerate() bool {
	return u.IsAdmin || u.IsModerator
}

type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=80"`
	Email    string `json:"email" form:"email" binding:"required,email,max=120"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
}

// LoginRequest accepts either the username or the email in Username.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}

type UpdateRolesRequest struct {
	IsAdmin     *bool `json:"is_admin"`
	IsModerator *bool `json:"is_moderator"`
}
