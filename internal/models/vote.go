package models

import "time"

// Vote values.
const (
	Upvote   = 1
	Downvote = -1
)

// ToolVote tracks one user's vote on a tool.
type ToolVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_tool_votes_user_tool;not null" json:"user_id"`
	ToolID    int       `gorm:"uniqueIndex:idx_tool_votes_user_tool;index;not null" json:"tool_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentVote tracks one user's vote on a comment.
type CommentVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_comment_votes_user_comment;not null" json:"user_id"`
	CommentID int       `gorm:"uniqueIndex:idx_comment_votes_user_comment;index;not null" json:"comment_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Value int `json:"value" form:"value" binding:"required,oneof=-1 1"`
}

// VoteResult is the target's score after a vote and the caller's vote
// on it (0 when the vote was withdrawn).
type VoteResult struct {
	Score    int `json:"votes"`
	UserVote int `json:"user_vote"`
}

// ValidVote reports whether v is an upvote or a downvote.
func ValidVote(v int) bool {
	return v == Upvote || v == Downvote
}
