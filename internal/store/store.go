// Package store defines the data-access layer shared by the relational
// backend (gormstore) and the in-memory fallback (memory).
package store

import (
	"context"
	"errors"

	"github.com/choosemyai/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrInvalid  = errors.New("invalid value")
)

// Sort orders for tools and comments.
const (
	SortVotes  = "votes"
	SortNewest = "newest"
)

// NormalizeSort maps user input onto a known sort order; votes is the default.
func NormalizeSort(s string) string {
	switch s {
	case SortNewest, "date", "new":
		return SortNewest
	default:
		return SortVotes
	}
}

// ToolFilter narrows ListTools. Zero values mean "no constraint".
type ToolFilter struct {
	Approved   *bool
	UserID     int
	CategoryID int
	Search     string
	Sort       string
	Limit      int
}

// Approved and Pending are convenience filters.
func Approved() *bool { v := true; return &v }
func Pending() *bool  { v := false; return &v }

type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountUsers(ctx context.Context) (int64, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int) error
	CountCategories(ctx context.Context) (int64, error)

	ListTools(ctx context.Context, filter ToolFilter) ([]models.Tool, error)
	GetTool(ctx context.Context, id int) (*models.Tool, error)
	GetToolByName(ctx context.Context, name string) (*models.Tool, error)
	CreateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error
	UpdateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error
	SetToolApproval(ctx context.Context, id int, approved bool) error
	DeleteTool(ctx context.Context, id int) error
	SimilarTools(ctx context.Context, toolID, limit int) ([]models.Tool, error)
	CountTools(ctx context.Context, approved *bool) (int64, error)

	ListComments(ctx context.Context, toolID int, sort string) ([]models.Comment, error)
	GetComment(ctx context.Context, id int) (*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int) error

	VoteTool(ctx context.Context, userID, toolID, value int) (models.VoteResult, error)
	VoteComment(ctx context.Context, userID, commentID, value int) (models.VoteResult, error)

	ListBlogPosts(ctx context.Context, publishedOnly bool) ([]models.BlogPost, error)
	GetBlogPost(ctx context.Context, id int) (*models.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	CreateBlogPost(ctx context.Context, post *models.BlogPost) error
	UpdateBlogPost(ctx context.Context, post *models.BlogPost) error
	DeleteBlogPost(ctx context.Context, id int) error
	CountBlogPosts(ctx context.Context) (int64, error)

	GetAppearance(ctx context.Context) (*models.AppearanceSettings, error)
	UpdateAppearance(ctx context.Context, settings *models.AppearanceSettings) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Name identifies the backend in logs and health output.
	Name() string
	Close() error
}

// NextVote applies the toggle rule: repeating the current vote withdraws it
// (0), anything else replaces it.
func NextVote(current, requested int) int {
	if current == requested {
		return 0
	}
	return requested
}

// Stats gathers the admin dashboard counters.
func Stats(ctx context.Context, s Store) (models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	if stats.Users, err = s.CountUsers(ctx); err != nil {
		return stats, err
	}
	if stats.Tools, err = s.CountTools(ctx, nil); err != nil {
		return stats, err
	}
	if stats.PendingTools, err = s.CountTools(ctx, Pending()); err != nil {
		return stats, err
	}
	if stats.Categories, err = s.CountCategories(ctx); err != nil {
		return stats, err
	}
	if stats.BlogPosts, err = s.CountBlogPosts(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}
