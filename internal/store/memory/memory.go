// Package memory is the in-process fallback store used when no database is
// configured. Data lives for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

type voteKey struct {
	userID   int
	targetID int
}

type Store struct {
	mu sync.RWMutex

	users      map[int]models.User
	categories map[int]models.Category
	tools      map[int]models.Tool
	comments   map[int]models.Comment
	blogPosts  map[int]models.BlogPost
	appearance *models.AppearanceSettings

	toolCategories map[int][]int // tool id -> category ids
	toolVotes      map[voteKey]int
	commentVotes   map[voteKey]int

	nextID map[string]int
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:          make(map[int]models.User),
		categories:     make(map[int]models.Category),
		tools:          make(map[int]models.Tool),
		comments:       make(map[int]models.Comment),
		blogPosts:      make(map[int]models.BlogPost),
		toolCategories: make(map[int][]int),
		toolVotes:      make(map[voteKey]int),
		commentVotes:   make(map[voteKey]int),
		nextID:         make(map[string]int),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Name() string                   { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

func (s *Store) allocID(table string) int {
	s.nextID[table]++
	return s.nextID[table]
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userTaken(user.Username, user.Email, 0) {
		return store.ErrConflict
	}

	now := s.now()
	user.ID = s.allocID("users")
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) userTaken(username, email string, exceptID int) bool {
	for _, u := range s.users {
		if u.ID == exceptID {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) GetUser(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return newerFirst(users[i].CreatedAt, users[i].ID, users[j].CreatedAt, users[j].ID)
	})
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.userTaken(user.Username, user.Email, user.ID) {
		return store.ErrConflict
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int)
	for toolID, ids := range s.toolCategories {
		if !s.tools[toolID].IsApproved {
			continue
		}
		for _, id := range ids {
			counts[id]++
		}
	}

	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		c.ToolCount = counts[c.ID]
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (s *Store) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) categoryNameTaken(name string, exceptID int) bool {
	for _, c := range s.categories {
		if c.ID != exceptID && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryNameTaken(category.Name, 0) {
		return store.ErrConflict
	}

	category.ID = s.allocID("categories")
	category.CreatedAt = s.now()
	category.ToolCount = 0
	s.categories[category.ID] = *category
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[category.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.categoryNameTaken(category.Name, category.ID) {
		return store.ErrConflict
	}

	existing.Name = category.Name
	existing.Description = category.Description
	s.categories[category.ID] = existing
	*category = existing
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)

	for toolID, ids := range s.toolCategories {
		s.toolCategories[toolID] = without(ids, id)
	}
	return nil
}

func (s *Store) CountCategories(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.categories)), nil
}

// Tools

func (s *Store) ListTools(ctx context.Context, filter store.ToolFilter) ([]models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))

	tools := make([]models.Tool, 0)
	for _, t := range s.tools {
		if filter.Approved != nil && t.IsApproved != *filter.Approved {
			continue
		}
		if filter.UserID != 0 && t.UserID != filter.UserID {
			continue
		}
		if filter.CategoryID != 0 && !contains(s.toolCategories[t.ID], filter.CategoryID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		tools = append(tools, s.hydrateTool(t))
	}

	sortTools(tools, store.NormalizeSort(filter.Sort))

	if filter.Limit > 0 && len(tools) > filter.Limit {
		tools = tools[:filter.Limit]
	}
	return tools, nil
}

func sortTools(tools []models.Tool, order string) {
	sort.Slice(tools, func(i, j int) bool {
		a, b := tools[i], tools[j]
		if order == store.SortVotes && a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		return newerFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
}

// hydrateTool attaches author, categories and score. Caller holds the lock.
func (s *Store) hydrateTool(t models.Tool) models.Tool {
	t.Author = s.users[t.UserID]

	t.Categories = make([]models.Category, 0, len(s.toolCategories[t.ID]))
	for _, id := range s.toolCategories[t.ID] {
		if c, ok := s.categories[id]; ok {
			t.Categories = append(t.Categories, c)
		}
	}
	sort.Slice(t.Categories, func(i, j int) bool {
		return t.Categories[i].Name < t.Categories[j].Name
	})

	t.VoteCount = s.toolScore(t.ID)
	return t
}

func (s *Store) toolScore(toolID int) int {
	score := 0
	for key, value := range s.toolVotes {
		if key.targetID == toolID {
			score += value
		}
	}
	return score
}

func (s *Store) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	hydrated := s.hydrateTool(t)
	return &hydrated, nil
}

func (s *Store) GetToolByName(ctx context.Context, name string) (*models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tools {
		if t.Name == name {
			hydrated := s.hydrateTool(t)
			return &hydrated, nil
		}
	}
	return nil, store.ErrNotFound
}

// checkRefs validates the owner and category ids. Caller holds the lock.
func (s *Store) checkRefs(userID int, categoryIDs []int) error {
	if _, ok := s.users[userID]; !ok {
		return store.ErrInvalid
	}
	for _, id := range categoryIDs {
		if _, ok := s.categories[id]; !ok {
			return store.ErrInvalid
		}
	}
	return nil
}

func (s *Store) CreateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRefs(tool.UserID, categoryIDs); err != nil {
		return err
	}

	now := s.now()
	tool.ID = s.allocID("tools")
	tool.CreatedAt = now
	tool.UpdatedAt = now

	stored := *tool
	stored.Author = models.User{}
	stored.Categories = nil
	stored.VoteCount = 0
	s.tools[tool.ID] = stored
	s.toolCategories[tool.ID] = dedupe(categoryIDs)

	*tool = s.hydrateTool(stored)
	return nil
}

// UpdateTool saves the editable fields. A nil categoryIDs keeps the current
// categories.
func (s *Store) UpdateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tools[tool.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.checkRefs(tool.UserID, categoryIDs); err != nil {
		return err
	}

	existing.Name = tool.Name
	existing.Description = tool.Description
	existing.URL = tool.URL
	existing.ImageURL = tool.ImageURL
	existing.YoutubeURL = tool.YoutubeURL
	existing.Resources = tool.Resources
	existing.IsApproved = tool.IsApproved
	existing.UserID = tool.UserID
	existing.UpdatedAt = s.now()
	s.tools[tool.ID] = existing

	if categoryIDs != nil {
		s.toolCategories[tool.ID] = dedupe(categoryIDs)
	}

	*tool = s.hydrateTool(existing)
	return nil
}

func (s *Store) SetToolApproval(ctx context.Context, id int, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tools[id]
	if !ok {
		return store.ErrNotFound
	}
	t.IsApproved = approved
	t.UpdatedAt = s.now()
	s.tools[id] = t
	return nil
}

func (s *Store) DeleteTool(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tools[id]; !ok {
		return store.ErrNotFound
	}

	for commentID, c := range s.comments {
		if c.ToolID == id {
			s.deleteCommentLocked(commentID)
		}
	}
	for key := range s.toolVotes {
		if key.targetID == id {
			delete(s.toolVotes, key)
		}
	}
	delete(s.toolCategories, id)
	delete(s.tools, id)
	return nil
}

// SimilarTools returns approved tools sharing a category with the given one,
// best scored first.
func (s *Store) SimilarTools(ctx context.Context, toolID, limit int) ([]models.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tools[toolID]; !ok {
		return nil, store.ErrNotFound
	}
	wanted := s.toolCategories[toolID]

	similar := make([]models.Tool, 0)
	for _, t := range s.tools {
		if t.ID == toolID || !t.IsApproved {
			continue
		}
		if !overlaps(wanted, s.toolCategories[t.ID]) {
			continue
		}
		similar = append(similar, s.hydrateTool(t))
	}

	sortTools(similar, store.SortVotes)
	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

func (s *Store) CountTools(ctx context.Context, approved *bool) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if approved == nil {
		return int64(len(s.tools)), nil
	}
	var n int64
	for _, t := range s.tools {
		if t.IsApproved == *approved {
			n++
		}
	}
	return n, nil
}

// Comments

func (s *Store) ListComments(ctx context.Context, toolID int, order string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.ToolID == toolID {
			comments = append(comments, s.hydrateComment(c))
		}
	}

	byVotes := store.NormalizeSort(order) == store.SortVotes
	sort.Slice(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if byVotes && a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		return newerFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return comments, nil
}

func (s *Store) hydrateComment(c models.Comment) models.Comment {
	c.Author = s.users[c.UserID]
	c.VoteCount = 0
	for key, value := range s.commentVotes {
		if key.targetID == c.ID {
			c.VoteCount += value
		}
	}
	return c
}

func (s *Store) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	hydrated := s.hydrateComment(c)
	return &hydrated, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tools[comment.ToolID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.users[comment.UserID]; !ok {
		return store.ErrInvalid
	}

	comment.ID = s.allocID("comments")
	comment.CreatedAt = s.now()

	stored := *comment
	stored.Author = models.User{}
	stored.VoteCount = 0
	s.comments[comment.ID] = stored

	*comment = s.hydrateComment(stored)
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteCommentLocked(id)
	return nil
}

func (s *Store) deleteCommentLocked(id int) {
	for key := range s.commentVotes {
		if key.targetID == id {
			delete(s.commentVotes, key)
		}
	}
	delete(s.comments, id)
}

// Votes

func (s *Store) VoteTool(ctx context.Context, userID, toolID, value int) (models.VoteResult, error) {
	if !models.ValidVote(value) {
		return models.VoteResult{}, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tools[toolID]; !ok {
		return models.VoteResult{}, store.ErrNotFound
	}

	key := voteKey{userID: userID, targetID: toolID}
	next := store.NextVote(s.toolVotes[key], value)
	if next == 0 {
		delete(s.toolVotes, key)
	} else {
		s.toolVotes[key] = next
	}

	return models.VoteResult{Score: s.toolScore(toolID), UserVote: next}, nil
}

func (s *Store) VoteComment(ctx context.Context, userID, commentID, value int) (models.VoteResult, error) {
	if !models.ValidVote(value) {
		return models.VoteResult{}, store.ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return models.VoteResult{}, store.ErrNotFound
	}

	key := voteKey{userID: userID, targetID: commentID}
	next := store.NextVote(s.commentVotes[key], value)
	if next == 0 {
		delete(s.commentVotes, key)
	} else {
		s.commentVotes[key] = next
	}

	return models.VoteResult{Score: s.hydrateComment(c).VoteCount, UserVote: next}, nil
}

// Blog

func (s *Store) ListBlogPosts(ctx context.Context, publishedOnly bool) ([]models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.BlogPost, 0, len(s.blogPosts))
	for _, p := range s.blogPosts {
		if publishedOnly && !p.Published {
			continue
		}
		p.Author = s.users[p.UserID]
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		return newerFirst(posts[i].CreatedAt, posts[i].ID, posts[j].CreatedAt, posts[j].ID)
	})
	return posts, nil
}

func (s *Store) GetBlogPost(ctx context.Context, id int) (*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.blogPosts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Author = s.users[p.UserID]
	return &p, nil
}

func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.blogPosts {
		if p.Slug == slug {
			p.Author = s.users[p.UserID]
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) slugTaken(slug string, exceptID int) bool {
	for _, p := range s.blogPosts {
		if p.ID != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Store) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slugTaken(post.Slug, 0) {
		return store.ErrConflict
	}
	if _, ok := s.users[post.UserID]; !ok {
		return store.ErrInvalid
	}

	now := s.now()
	post.ID = s.allocID("blog_posts")
	post.CreatedAt = now
	post.UpdatedAt = now

	stored := *post
	stored.Author = models.User{}
	s.blogPosts[post.ID] = stored

	post.Author = s.users[post.UserID]
	return nil
}

func (s *Store) UpdateBlogPost(ctx context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.blogPosts[post.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.slugTaken(post.Slug, post.ID) {
		return store.ErrConflict
	}

	post.UserID = existing.UserID
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = s.now()

	stored := *post
	stored.Author = models.User{}
	s.blogPosts[post.ID] = stored

	post.Author = s.users[post.UserID]
	return nil
}

func (s *Store) DeleteBlogPost(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogPosts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.blogPosts, id)
	return nil
}

func (s *Store) CountBlogPosts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.blogPosts)), nil
}

// Appearance

func (s *Store) GetAppearance(ctx context.Context) (*models.AppearanceSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appearance == nil {
		settings := models.DefaultAppearance()
		settings.ID = 1
		settings.UpdatedAt = s.now()
		s.appearance = &settings
	}
	settings := *s.appearance
	return &settings, nil
}

func (s *Store) UpdateAppearance(ctx context.Context, settings *models.AppearanceSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.ID = 1
	settings.UpdatedAt = s.now()
	stored := *settings
	s.appearance = &stored
	return nil
}

// helpers

func newerFirst(aTime time.Time, aID int, bTime time.Time, bID int) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func overlaps(a, b []int) bool {
	for _, id := range a {
		if contains(b, id) {
			return true
		}
	}
	return false
}

func without(ids []int, id int) []int {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
