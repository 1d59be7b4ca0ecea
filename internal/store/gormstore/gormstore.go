// Package gormstore implements store.Store on a relational database via gorm.
package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

type Store struct {
	db   *gorm.DB
	name string
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm connection. name labels the backend (the driver).
func New(db *gorm.DB, name string) *Store {
	return &Store{db: db, name: name}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tool{},
		&models.Comment{},
		&models.ToolVote{},
		&models.CommentVote{},
		&models.BlogPost{},
		&models.AppearanceSettings{},
	)
}

func (s *Store) DB() *gorm.DB { return s.db }
func (s *Store) Name() string { return s.name }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps driver and gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return store.ErrInvalid
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return store.ErrConflict
		case "23503":
			return store.ErrInvalid
		}
	}

	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrConflict
	}
	return err
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Find(&users).Error
	return users, translate(err)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"is_admin":      user.IsAdmin,
		"is_moderator":  user.IsModerator,
		"updated_at":    time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, translate(err)
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		return nil, translate(err)
	}

	var rows []struct {
		CategoryID int
		N          int
	}
	err := s.db.WithContext(ctx).
		Table("tool_categories").
		Select("tool_categories.category_id, COUNT(*) AS n").
		Joins("JOIN tools ON tools.id = tool_categories.tool_id").
		Where("tools.is_approved = ?", true).
		Group("tool_categories.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[int]int, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.N
	}
	for i := range categories {
		categories[i].ToolCount = counts[categories[i].ID]
	}
	return categories, nil
}

func (s *Store) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return translate(s.db.WithContext(ctx).Create(category).Error)
}

func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]any{
		"name":        category.Name,
		"description": category.Description,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM tool_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	}))
}

func (s *Store) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).Count(&n).Error
	return n, translate(err)
}

// Tools

// likeEscaper makes search input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// toolQuery applies the filter; callers add conditions and call findTools.
func (s *Store) toolQuery(ctx context.Context, filter store.ToolFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Tool{}).Select("tools.*")

	if filter.Approved != nil {
		q = q.Where("tools.is_approved = ?", *filter.Approved)
	}
	if filter.UserID != 0 {
		q = q.Where("tools.user_id = ?", filter.UserID)
	}
	if filter.CategoryID != 0 {
		q = q.Where("tools.id IN (?)",
			s.db.Table("tool_categories").Select("tool_id").Where("category_id = ?", filter.CategoryID))
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		q = q.Where(`(LOWER(tools.name) LIKE ? ESCAPE '\' OR LOWER(tools.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	if store.NormalizeSort(filter.Sort) == store.SortVotes {
		q = q.Joins("LEFT JOIN (SELECT tool_id, SUM(value) AS score FROM tool_votes GROUP BY tool_id) AS tv ON tv.tool_id = tools.id").
			Order("COALESCE(tv.score, 0) DESC")
	}
	q = q.Order("tools.created_at DESC").Order("tools.id DESC")

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return q
}

func (s *Store) findTools(ctx context.Context, q *gorm.DB) ([]models.Tool, error) {
	tools := []models.Tool{}
	err := q.Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") }).
		Find(&tools).Error
	if err != nil {
		return nil, translate(err)
	}
	if err := s.attachToolScores(ctx, tools); err != nil {
		return nil, err
	}
	return tools, nil
}

func (s *Store) attachToolScores(ctx context.Context, tools []models.Tool) error {
	if len(tools) == 0 {
		return nil
	}
	ids := make([]int, len(tools))
	for i, t := range tools {
		ids[i] = t.ID
	}

	var rows []struct {
		ToolID int
		Score  int
	}
	err := s.db.WithContext(ctx).Model(&models.ToolVote{}).
		Select("tool_id, COALESCE(SUM(value), 0) AS score").
		Where("tool_id IN ?", ids).
		Group("tool_id").
		Scan(&rows).Error
	if err != nil {
		return translate(err)
	}

	scores := make(map[int]int, len(rows))
	for _, r := range rows {
		scores[r.ToolID] = r.Score
	}
	for i := range tools {
		tools[i].VoteCount = scores[tools[i].ID]
	}
	return nil
}

func (s *Store) ListTools(ctx context.Context, filter store.ToolFilter) ([]models.Tool, error) {
	return s.findTools(ctx, s.toolQuery(ctx, filter))
}

func (s *Store) loadTool(ctx context.Context, q *gorm.DB) (*models.Tool, error) {
	var tool models.Tool
	err := q.Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") }).
		First(&tool).Error
	if err != nil {
		return nil, translate(err)
	}

	tools := []models.Tool{tool}
	if err := s.attachToolScores(ctx, tools); err != nil {
		return nil, err
	}
	return &tools[0], nil
}

func (s *Store) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	return s.loadTool(ctx, s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *Store) GetToolByName(ctx context.Context, name string) (*models.Tool, error) {
	return s.loadTool(ctx, s.db.WithContext(ctx).Where("name = ?", name))
}

func userExists(tx *gorm.DB, id int) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrInvalid
	}
	return nil
}

// loadCategories fetches the categories for ids, failing if any is missing.
func loadCategories(tx *gorm.DB, ids []int) ([]models.Category, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	var categories []models.Category
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, store.ErrInvalid
	}
	return categories, nil
}

func (s *Store) CreateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, tool.UserID); err != nil {
			return err
		}
		categories, err := loadCategories(tx, categoryIDs)
		if err != nil {
			return err
		}

		tool.Author = models.User{}
		tool.Categories = nil
		if err := tx.Omit(clause.Associations).Create(tool).Error; err != nil {
			return err
		}
		if len(categories) > 0 {
			return tx.Model(tool).Association("Categories").Append(categories)
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}

	saved, err := s.GetTool(ctx, tool.ID)
	if err != nil {
		return err
	}
	*tool = *saved
	return nil
}

// UpdateTool saves the editable fields. A nil categoryIDs keeps the current
// categories.
func (s *Store) UpdateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Tool
		if err := tx.First(&existing, tool.ID).Error; err != nil {
			return err
		}
		if err := userExists(tx, tool.UserID); err != nil {
			return err
		}

		err := tx.Model(&existing).Updates(map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"url":         tool.URL,
			"image_url":   tool.ImageURL,
			"youtube_url": tool.YoutubeURL,
			"resources":   tool.Resources,
			"is_approved": tool.IsApproved,
			"user_id":     tool.UserID,
			"updated_at":  time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}

		if categoryIDs == nil {
			return nil
		}
		categories, err := loadCategories(tx, categoryIDs)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			return tx.Model(&existing).Association("Categories").Clear()
		}
		return tx.Model(&existing).Association("Categories").Replace(categories)
	})
	if err != nil {
		return translate(err)
	}

	saved, err := s.GetTool(ctx, tool.ID)
	if err != nil {
		return err
	}
	*tool = *saved
	return nil
}

func (s *Store) SetToolApproval(ctx context.Context, id int, approved bool) error {
	res := s.db.WithContext(ctx).Model(&models.Tool{}).Where("id = ?", id).Updates(map[string]any{
		"is_approved": approved,
		"updated_at":  time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTool(ctx context.Context, id int) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tool models.Tool
		if err := tx.First(&tool, id).Error; err != nil {
			return err
		}

		comments := tx.Model(&models.Comment{}).Select("id").Where("tool_id = ?", id)
		if err := tx.Where("comment_id IN (?)", comments).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", id).Delete(&models.ToolVote{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&tool).Association("Categories").Clear(); err != nil {
			return err
		}
		return tx.Delete(&tool).Error
	}))
}

// SimilarTools returns approved tools sharing a category with the given one,
// best scored first.
func (s *Store) SimilarTools(ctx context.Context, toolID, limit int) ([]models.Tool, error) {
	if _, err := s.GetTool(ctx, toolID); err != nil {
		return nil, err
	}

	var categoryIDs []int
	err := s.db.WithContext(ctx).Table("tool_categories").
		Where("tool_id = ?", toolID).
		Pluck("category_id", &categoryIDs).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(categoryIDs) == 0 {
		return []models.Tool{}, nil
	}

	q := s.toolQuery(ctx, store.ToolFilter{Approved: store.Approved(), Sort: store.SortVotes, Limit: limit}).
		Where("tools.id <> ?", toolID).
		Where("tools.id IN (?)",
			s.db.Table("tool_categories").Select("tool_id").Where("category_id IN ?", categoryIDs))
	return s.findTools(ctx, q)
}

func (s *Store) CountTools(ctx context.Context, approved *bool) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Tool{})
	if approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	var n int64
	err := q.Count(&n).Error
	return n, translate(err)
}

// Comments

func (s *Store) ListComments(ctx context.Context, toolID int, order string) ([]models.Comment, error) {
	q := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("comments.*").
		Preload("Author").
		Where("comments.tool_id = ?", toolID)

	if store.NormalizeSort(order) == store.SortVotes {
		q = q.Joins("LEFT JOIN (SELECT comment_id, SUM(value) AS score FROM comment_votes GROUP BY comment_id) AS cv ON cv.comment_id = comments.id").
			Order("COALESCE(cv.score, 0) DESC")
	}

	comments := []models.Comment{}
	if err := q.Order("comments.created_at DESC").Order("comments.id DESC").Find(&comments).Error; err != nil {
		return nil, translate(err)
	}
	if err := s.attachCommentScores(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) attachCommentScores(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]int, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	var rows []struct {
		CommentID int
		Score     int
	}
	err := s.db.WithContext(ctx).Model(&models.CommentVote{}).
		Select("comment_id, COALESCE(SUM(value), 0) AS score").
		Where("comment_id IN ?", ids).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return translate(err)
	}

	scores := make(map[int]int, len(rows))
	for _, r := range rows {
		scores[r.CommentID] = r.Score
	}
	for i := range comments {
		comments[i].VoteCount = scores[comments[i].ID]
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	comments := []models.Comment{comment}
	if err := s.attachCommentScores(ctx, comments); err != nil {
		return nil, err
	}
	return &comments[0], nil
}

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tool models.Tool
		if err := tx.Select("id").First(&tool, comment.ToolID).Error; err != nil {
			return err
		}
		if err := userExists(tx, comment.UserID); err != nil {
			return err
		}
		comment.Author = models.User{}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if err != nil {
		return translate(err)
	}

	saved, err := s.GetComment(ctx, comment.ID)
	if err != nil {
		return err
	}
	*comment = *saved
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id int) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentVote{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	}))
}

// Votes

func (s *Store) VoteTool(ctx context.Context, userID, toolID, value int) (models.VoteResult, error) {
	if !models.ValidVote(value) {
		return models.VoteResult{}, store.ErrInvalid
	}

	var result models.VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tool models.Tool
		if err := tx.Select("id").First(&tool, toolID).Error; err != nil {
			return err
		}

		var existing models.ToolVote
		err := tx.Where("user_id = ? AND tool_id = ?", userID, toolID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vote := models.ToolVote{UserID: userID, ToolID: toolID, Value: value}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				result.UserVote = value
				return scanToolScore(tx, toolID, &result.Score)
			}
			// A concurrent request from the same user inserted first.
			err = tx.Where("user_id = ? AND tool_id = ?", userID, toolID).First(&existing).Error
		}
		if err != nil {
			return err
		}

		result.UserVote = store.NextVote(existing.Value, value)
		if err := applyVote(tx, &existing, result.UserVote); err != nil {
			return err
		}

		return scanToolScore(tx, toolID, &result.Score)
	})
	return result, translate(err)
}

func (s *Store) VoteComment(ctx context.Context, userID, commentID, value int) (models.VoteResult, error) {
	if !models.ValidVote(value) {
		return models.VoteResult{}, store.ErrInvalid
	}

	var result models.VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id").First(&comment, commentID).Error; err != nil {
			return err
		}

		var existing models.CommentVote
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vote := models.CommentVote{UserID: userID, CommentID: commentID, Value: value}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				result.UserVote = value
				return scanCommentScore(tx, commentID, &result.Score)
			}
			// A concurrent request from the same user inserted first.
			err = tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&existing).Error
		}
		if err != nil {
			return err
		}

		result.UserVote = store.NextVote(existing.Value, value)
		if err := applyVote(tx, &existing, result.UserVote); err != nil {
			return err
		}

		return scanCommentScore(tx, commentID, &result.Score)
	})
	return result, translate(err)
}

func scanToolScore(tx *gorm.DB, toolID int, score *int) error {
	return tx.Model(&models.ToolVote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("tool_id = ?", toolID).
		Row().Scan(score)
}

func scanCommentScore(tx *gorm.DB, commentID int, score *int) error {
	return tx.Model(&models.CommentVote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("comment_id = ?", commentID).
		Row().Scan(score)
}

// applyVote deletes the vote row when next is 0 and updates it otherwise.
func applyVote(tx *gorm.DB, vote any, next int) error {
	if next == 0 {
		return tx.Delete(vote).Error
	}
	return tx.Model(vote).Update("value", next).Error
}

// Blog

func (s *Store) ListBlogPosts(ctx context.Context, publishedOnly bool) ([]models.BlogPost, error) {
	q := s.db.WithContext(ctx).Preload("Author")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	posts := []models.BlogPost{}
	err := q.Order("created_at desc").Order("id desc").Find(&posts).Error
	return posts, translate(err)
}

func (s *Store) GetBlogPost(ctx context.Context, id int) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.db.WithContext(ctx).Preload("Author").Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *Store) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := userExists(tx, post.UserID); err != nil {
			return err
		}
		post.Author = models.User{}
		return tx.Omit(clause.Associations).Create(post).Error
	})
	if err != nil {
		return translate(err)
	}

	saved, err := s.GetBlogPost(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *saved
	return nil
}

func (s *Store) UpdateBlogPost(ctx context.Context, post *models.BlogPost) error {
	res := s.db.WithContext(ctx).Model(&models.BlogPost{}).Where("id = ?", post.ID).Updates(map[string]any{
		"title":          post.Title,
		"slug":           post.Slug,
		"content":        post.Content,
		"excerpt":        post.Excerpt,
		"featured_image": post.FeaturedImage,
		"published":      post.Published,
		"updated_at":     time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}

	saved, err := s.GetBlogPost(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *saved
	return nil
}

func (s *Store) DeleteBlogPost(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&models.BlogPost{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountBlogPosts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.BlogPost{}).Count(&n).Error
	return n, translate(err)
}

// Appearance

func (s *Store) GetAppearance(ctx context.Context) (*models.AppearanceSettings, error) {
	var settings models.AppearanceSettings
	err := s.db.WithContext(ctx).
		Where(models.AppearanceSettings{ID: 1}).
		Attrs(models.DefaultAppearance()).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (s *Store) UpdateAppearance(ctx context.Context, settings *models.AppearanceSettings) error {
	if _, err := s.GetAppearance(ctx); err != nil {
		return err
	}
	settings.ID = 1
	return translate(s.db.WithContext(ctx).Save(settings).Error)
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
