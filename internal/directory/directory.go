// Package directory holds the rules shared by the JSON API and the HTML
// pages: who may see what, what gets sanitised, how submissions and blog
// posts are created.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/auth"
	"github.com/choosemyai/backend/internal/content"
	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("permission denied")
	ErrEmptyContent       = errors.New("content is required")
	ErrSelfDemotion       = errors.New("you cannot remove your own admin rights")
)

// SimilarLimit is how many related tools a tool page shows.
const SimilarLimit = 4

type Service struct {
	store store.Store
	log   *logrus.Logger
}

func New(s store.Store, log *logrus.Logger) *Service {
	return &Service{store: s, log: log}
}

func (s *Service) Store() store.Store { return s.store }

// Users

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a race with another registration.
			return nil, s.takenError(ctx, username)
		}
		return nil, err
	}

	s.log.WithField("username", user.Username).Info("New user registered")
	return user, nil
}

// takenError reports which unique field a conflicting insert collided on.
func (s *Service) takenError(ctx context.Context, username string) error {
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

// Authenticate checks a username (or email) and password.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	user, err := s.store.GetUserByUsername(ctx, login)
	if errors.Is(err, store.ErrNotFound) && strings.Contains(login, "@") {
		user, err = s.store.GetUserByEmail(ctx, login)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.log.WithField("username", login).Info("Password incorrect")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetRoles updates a user's flags. Admins cannot revoke their own admin flag.
func (s *Service) SetRoles(ctx context.Context, actor *models.User, userID int, req models.UpdateRolesRequest) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.IsAdmin != nil {
		if !*req.IsAdmin && actor != nil && actor.ID == user.ID {
			return nil, ErrSelfDemotion
		}
		user.IsAdmin = *req.IsAdmin
	}
	if req.IsModerator != nil {
		user.IsModerator = *req.IsModerator
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword replaces a user's password.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.store.UpdateUser(ctx, user)
}

// CreateAdmin registers a new administrator and moderator.
func (s *Service) CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	user, err := s.Register(ctx, models.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	user.IsAdmin = true
	user.IsModerator = true
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Tools

// ViewTool returns a tool the viewer may see. Pending tools are visible to
// their owner and to moderators only; others get store.ErrNotFound.
func (s *Service) ViewTool(ctx context.Context, viewer *models.User, id int) (*models.Tool, error) {
	tool, err := s.store.GetTool(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tool.IsApproved && !canSeePending(viewer, tool.UserID) {
		return nil, store.ErrNotFound
	}
	return tool, nil
}

// ViewComment returns a comment whose tool the viewer may see.
func (s *Service) ViewComment(ctx context.Context, viewer *models.User, id int) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ViewTool(ctx, viewer, comment.ToolID); err != nil {
		return nil, err
	}
	return comment, nil
}

func canSeePending(viewer *models.User, ownerID int) bool {
	return viewer != nil && (viewer.CanModerate() || viewer.ID == ownerID)
}

// ToolPage gathers everything the tool detail view shows.
type ToolPage struct {
	Tool     *models.Tool     `json:"tool"`
	Comments []models.Comment `json:"comments"`
	Similar  []models.Tool    `json:"similar"`
}

func (s *Service) ToolPage(ctx context.Context, viewer *models.User, id int, commentSort string) (*ToolPage, error) {
	tool, err := s.ViewTool(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, id, commentSort)
	if err != nil {
		return nil, err
	}
	similar, err := s.store.SimilarTools(ctx, id, SimilarLimit)
	if err != nil {
		return nil, err
	}
	return &ToolPage{Tool: tool, Comments: comments, Similar: similar}, nil
}

// SubmitTool records a new tool from a user. It waits for moderation.
func (s *Service) SubmitTool(ctx context.Context, author *models.User, req models.SubmitToolRequest) (*models.Tool, error) {
	tool := toolFromRequest(req)
	tool.UserID = author.ID
	tool.IsApproved = false

	if err := s.store.CreateTool(ctx, tool, req.CategoryIDs); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"tool": tool.Name, "user": author.Username}).Info("Tool submitted for review")
	return tool, nil
}

// EditTool replaces a tool's fields, keeping its owner and approval state.
func (s *Service) EditTool(ctx context.Context, id int, req models.SubmitToolRequest) (*models.Tool, error) {
	existing, err := s.store.GetTool(ctx, id)
	if err != nil {
		return nil, err
	}

	tool := toolFromRequest(req)
	tool.ID = existing.ID
	tool.UserID = existing.UserID
	tool.IsApproved = existing.IsApproved

	if err := s.store.UpdateTool(ctx, tool, req.CategoryIDs); err != nil {
		return nil, err
	}
	return tool, nil
}

func toolFromRequest(req models.SubmitToolRequest) *models.Tool {
	return &models.Tool{
		Name:        content.PlainText(req.Name),
		Description: content.SanitizeHTML(req.Description),
		URL:         strings.TrimSpace(req.URL),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		YoutubeURL:  strings.TrimSpace(req.YoutubeURL),
		Resources:   content.SanitizeHTML(req.Resources),
	}
}

// Approve publishes a pending tool.
func (s *Service) Approve(ctx context.Context, moderator *models.User, id int) error {
	if err := s.store.SetToolApproval(ctx, id, true); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tool_id": id, "moderator": moderator.Username}).Info("Tool approved")
	return nil
}

// Reject deletes a submission along with its comments and votes.
func (s *Service) Reject(ctx context.Context, moderator *models.User, id int) error {
	if err := s.store.DeleteTool(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tool_id": id, "moderator": moderator.Username}).Info("Tool rejected")
	return nil
}

// Comments

func (s *Service) AddComment(ctx context.Context, author *models.User, toolID int, text string) (*models.Comment, error) {
	if _, err := s.ViewTool(ctx, author, toolID); err != nil {
		return nil, err
	}

	body := content.SanitizeHTML(text)
	if content.PlainText(body) == "" {
		return nil, ErrEmptyContent
	}

	comment := &models.Comment{Content: body, ToolID: toolID, UserID: author.ID}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment if the actor wrote it or may moderate.
func (s *Service) DeleteComment(ctx context.Context, actor *models.User, id int) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID && !actor.CanModerate() {
		return nil, ErrForbidden
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return nil, err
	}
	return comment, nil
}

// Categories

func (s *Service) SaveCategory(ctx context.Context, id int, req models.CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		ID:          id,
		Name:        content.PlainText(req.Name),
		Description: content.PlainText(req.Description),
	}
	if category.Name == "" {
		return nil, store.ErrInvalid
	}

	var err error
	if id == 0 {
		err = s.store.CreateCategory(ctx, category)
	} else {
		err = s.store.UpdateCategory(ctx, category)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Blog

// ViewBlogPost returns a post by slug. Drafts are visible to admins only.
func (s *Service) ViewBlogPost(ctx context.Context, viewer *models.User, slug string) (*models.BlogPost, error) {
	post, err := s.store.GetBlogPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !post.Published && (viewer == nil || !viewer.IsAdmin) {
		return nil, store.ErrNotFound
	}
	return post, nil
}

func (s *Service) CreateBlogPost(ctx context.Context, author *models.User, req models.BlogPostRequest) (*models.BlogPost, error) {
	post := &models.BlogPost{UserID: author.ID}
	if err := s.fillBlogPost(ctx, post, req); err != nil {
		return nil, err
	}
	if err := s.store.CreateBlogPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdateBlogPost saves an edit. The slug follows the title when it changes.
func (s *Service) UpdateBlogPost(ctx context.Context, id int, req models.BlogPostRequest) (*models.BlogPost, error) {
	post, err := s.store.GetBlogPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fillBlogPost(ctx, post, req); err != nil {
		return nil, err
	}
	if err := s.store.UpdateBlogPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) fillBlogPost(ctx context.Context, post *models.BlogPost, req models.BlogPostRequest) error {
	title := content.PlainText(req.Title)
	body := content.SanitizeHTML(req.Content)
	if title == "" || content.PlainText(body) == "" {
		return ErrEmptyContent
	}

	if post.ID == 0 || title != post.Title {
		slug, err := content.UniqueSlug(ctx, s.store, title, post.ID)
		if err != nil {
			return err
		}
		post.Slug = slug
	}

	post.Title = title
	post.Content = body
	post.Excerpt = content.PlainText(req.Excerpt)
	if post.Excerpt == "" {
		post.Excerpt = content.Excerpt(body)
	}
	post.FeaturedImage = strings.TrimSpace(req.FeaturedImage)
	post.Published = req.Published
	return nil
}

// TogglePublished flips a post between draft and published.
func (s *Service) TogglePublished(ctx context.Context, id int) (*models.BlogPost, error) {
	post, err := s.store.GetBlogPost(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Published = !post.Published
	if err := s.store.UpdateBlogPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Appearance

func (s *Service) UpdateAppearance(ctx context.Context, req models.AppearanceRequest) (*models.AppearanceSettings, error) {
	settings, err := s.store.GetAppearance(ctx)
	if err != nil {
		return nil, err
	}
	req.FontFamily = content.PlainText(req.FontFamily)
	req.Apply(settings)
	if err := s.store.UpdateAppearance(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
