// Package storetest holds the behaviour every store.Store backend must share.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run executes the contract suite against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"users", testUsers},
		{"categories", testCategories},
		{"tool filters", testToolFilters},
		{"search is literal", testLiteralSearch},
		{"tool updates", testToolUpdates},
		{"tool delete cascades", testToolDelete},
		{"similar tools", testSimilarTools},
		{"tool votes", testToolVotes},
		{"comments", testComments},
		{"blog posts", testBlogPosts},
		{"appearance", testAppearance},
		{"seed", testSeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var seq int

// CreateUser inserts a user with unique credentials.
func CreateUser(t *testing.T, s store.Store, opts ...func(*models.User)) *models.User {
	t.Helper()
	seq++
	user := &models.User{
		Username:     fmt.Sprintf("user%d", seq),
		Email:        fmt.Sprintf("user%d@example.com", seq),
		PasswordHash: "hash",
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func AsAdmin(u *models.User)     { u.IsAdmin = true }
func AsModerator(u *models.User) { u.IsModerator = true }

func CreateCategory(t *testing.T, s store.Store, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Description: name + " tools"}
	require.NoError(t, s.CreateCategory(context.Background(), category))
	return category
}

// CreateTool inserts an approved tool owned by owner.
func CreateTool(t *testing.T, s store.Store, owner *models.User, name string, categories ...*models.Category) *models.Tool {
	t.Helper()
	ids := make([]int, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	tool := &models.Tool{
		Name:        name,
		Description: "Description of " + name,
		URL:         "https://example.com/" + name,
		IsApproved:  true,
		UserID:      owner.ID,
	}
	require.NoError(t, s.CreateTool(context.Background(), tool, ids))
	return tool
}

func names(tools []models.Tool) []string {
	out := make([]string, len(tools))
	for i, tool := range tools {
		out[i] = tool.Name
	}
	return out
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	alice := CreateUser(t, s, func(u *models.User) { u.Username = "alice"; u.Email = "alice@example.com" })
	assert.NotZero(t, alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	err := s.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrConflict)
	err = s.CreateUser(ctx, &models.User{Username: "other", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got.IsModerator = true
	got.PasswordHash = "new-hash"
	require.NoError(t, s.UpdateUser(ctx, got))

	got, err = s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.IsModerator)
	assert.True(t, got.CanModerate())
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{ID: 9999, Username: "ghost", Email: "ghost@example.com"}), store.ErrNotFound)

	bob := CreateUser(t, s)
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, bob.ID, users[0].ID, "newest first")

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)

	writing := CreateCategory(t, s, "Writing")
	art := CreateCategory(t, s, "Art")
	assert.ErrorIs(t, s.CreateCategory(ctx, &models.Category{Name: "Writing"}), store.ErrConflict)

	CreateTool(t, s, owner, "Scribe", writing)
	pending := CreateTool(t, s, owner, "Drafty", writing, art)
	require.NoError(t, s.SetToolApproval(ctx, pending.ID, false))

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Art", categories[0].Name, "sorted by name")
	assert.Equal(t, 0, categories[0].ToolCount)
	assert.Equal(t, 1, categories[1].ToolCount, "pending tools are not counted")

	art.Description = "Images"
	require.NoError(t, s.UpdateCategory(ctx, art))
	got, err := s.GetCategoryByName(ctx, "Art")
	require.NoError(t, err)
	assert.Equal(t, "Images", got.Description)

	art.Name = "Writing"
	assert.ErrorIs(t, s.UpdateCategory(ctx, art), store.ErrConflict)

	require.NoError(t, s.DeleteCategory(ctx, writing.ID))
	assert.ErrorIs(t, s.DeleteCategory(ctx, writing.ID), store.ErrNotFound)

	tool, err := s.GetTool(ctx, pending.ID)
	require.NoError(t, err, "tools survive category deletion")
	assert.Equal(t, []int{art.ID}, tool.CategoryIDs())

	n, err := s.CountCategories(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testToolFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	other := CreateUser(t, s)
	voter := CreateUser(t, s)
	writing := CreateCategory(t, s, "Writing")
	code := CreateCategory(t, s, "Code")

	first := CreateTool(t, s, owner, "Alpha", writing)
	second := CreateTool(t, s, owner, "Beta", code)
	third := CreateTool(t, s, other, "Gamma Writer", writing, code)

	hidden := &models.Tool{Name: "Hidden", Description: "pending alpha", URL: "https://hidden.example", UserID: other.ID}
	require.NoError(t, s.CreateTool(ctx, hidden, []int{writing.ID}))
	assert.False(t, hidden.IsApproved)

	_, err := s.VoteTool(ctx, voter.ID, second.ID, models.Upvote)
	require.NoError(t, err)
	_, err = s.VoteTool(ctx, voter.ID, third.ID, models.Downvote)
	require.NoError(t, err)

	tools, err := s.ListTools(ctx, store.ToolFilter{Approved: store.Approved()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "Alpha", "Gamma Writer"}, names(tools), "votes, then newest")
	assert.Equal(t, 1, tools[0].VoteCount)

	tools, err = s.ListTools(ctx, store.ToolFilter{Approved: store.Approved(), Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma Writer", "Beta", "Alpha"}, names(tools))

	tools, err = s.ListTools(ctx, store.ToolFilter{Approved: store.Approved(), CategoryID: writing.ID, Sort: "newest"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma Writer", "Alpha"}, names(tools))

	tools, err = s.ListTools(ctx, store.ToolFilter{Search: "WRITER"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma Writer"}, names(tools))

	tools, err = s.ListTools(ctx, store.ToolFilter{Search: "alpha", Sort: store.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hidden", "Alpha"}, names(tools), "search covers descriptions")

	tools, err = s.ListTools(ctx, store.ToolFilter{Approved: store.Pending()})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hidden"}, names(tools))

	tools, err = s.ListTools(ctx, store.ToolFilter{UserID: owner.ID, Sort: store.SortNewest, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, names(tools))

	got, err := s.GetTool(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, other.Username, got.Author.Username)
	assert.Equal(t, []string{"Code", "Writing"}, []string{got.Categories[0].Name, got.Categories[1].Name})
	assert.Equal(t, -1, got.VoteCount)

	got, err = s.GetToolByName(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	all, err := s.CountTools(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, all)
	pendingCount, err := s.CountTools(ctx, store.Pending())
	require.NoError(t, err)
	assert.EqualValues(t, 1, pendingCount)
}

func testLiteralSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	CreateTool(t, s, owner, "Quill")
	CreateTool(t, s, owner, "Brush")
	CreateTool(t, s, owner, "100% Pure")
	CreateTool(t, s, owner, "snake_case")
	CreateTool(t, s, owner, `Back\slash`)

	tests := []struct {
		search string
		want   []string
	}{
		{"%", []string{"100% Pure"}},
		{"0% p", []string{"100% Pure"}},
		{"_", []string{"snake_case"}},
		{"q_ill", nil},
		{"QUILL", []string{"Quill"}},
		{`\`, []string{`Back\slash`}},
		{`k\s`, []string{`Back\slash`}},
	}
	for _, tt := range tests {
		tools, err := s.ListTools(ctx, store.ToolFilter{Search: tt.search})
		require.NoError(t, err, tt.search)
		if tt.want == nil {
			assert.Empty(t, tools, tt.search)
			continue
		}
		assert.Equal(t, tt.want, names(tools), tt.search)
	}
}

func testToolUpdates(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	writing := CreateCategory(t, s, "Writing")
	code := CreateCategory(t, s, "Code")

	err := s.CreateTool(ctx, &models.Tool{Name: "Orphan", URL: "https://x.example", UserID: 9999}, nil)
	assert.ErrorIs(t, err, store.ErrInvalid)
	err = s.CreateTool(ctx, &models.Tool{Name: "Lost", URL: "https://x.example", UserID: owner.ID}, []int{9999})
	assert.ErrorIs(t, err, store.ErrInvalid)

	tool := CreateTool(t, s, owner, "Editor", writing)

	tool.Description = "Updated"
	require.NoError(t, s.UpdateTool(ctx, tool, nil))
	assert.Equal(t, "Updated", tool.Description)
	assert.Equal(t, []int{writing.ID}, tool.CategoryIDs(), "nil keeps categories")

	require.NoError(t, s.UpdateTool(ctx, tool, []int{code.ID}))
	assert.Equal(t, []int{code.ID}, tool.CategoryIDs())

	require.NoError(t, s.UpdateTool(ctx, tool, []int{}))
	assert.Empty(t, tool.Categories)

	require.NoError(t, s.SetToolApproval(ctx, tool.ID, false))
	got, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.False(t, got.IsApproved)

	assert.ErrorIs(t, s.SetToolApproval(ctx, 9999, true), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTool(ctx, &models.Tool{ID: 9999, UserID: owner.ID}, nil), store.ErrNotFound)
}

func testToolDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	writing := CreateCategory(t, s, "Writing")
	tool := CreateTool(t, s, owner, "Doomed", writing)

	comment := &models.Comment{Content: "nice", ToolID: tool.ID, UserID: owner.ID}
	require.NoError(t, s.CreateComment(ctx, comment))
	_, err := s.VoteComment(ctx, owner.ID, comment.ID, models.Upvote)
	require.NoError(t, err)
	_, err = s.VoteTool(ctx, owner.ID, tool.ID, models.Upvote)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTool(ctx, tool.ID))

	_, err = s.GetTool(ctx, tool.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTool(ctx, tool.ID), store.ErrNotFound)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 0, categories[0].ToolCount)

	// A new tool must not inherit the old votes.
	fresh := CreateTool(t, s, owner, "Fresh", writing)
	assert.Equal(t, 0, fresh.VoteCount)
}

func testSimilarTools(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	voter := CreateUser(t, s)
	writing := CreateCategory(t, s, "Writing")
	code := CreateCategory(t, s, "Code")

	base := CreateTool(t, s, owner, "Base", writing)
	CreateTool(t, s, owner, "Low", writing)
	high := CreateTool(t, s, owner, "High", writing, code)
	CreateTool(t, s, owner, "Unrelated", code)
	pending := CreateTool(t, s, owner, "Pending", writing)
	require.NoError(t, s.SetToolApproval(ctx, pending.ID, false))

	_, err := s.VoteTool(ctx, voter.ID, high.ID, models.Upvote)
	require.NoError(t, err)

	similar, err := s.SimilarTools(ctx, base.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "Low"}, names(similar))

	similar, err = s.SimilarTools(ctx, base.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"High"}, names(similar))

	lonely := CreateTool(t, s, owner, "Lonely")
	similar, err = s.SimilarTools(ctx, lonely.ID, 4)
	require.NoError(t, err)
	assert.Empty(t, similar)

	_, err = s.SimilarTools(ctx, 9999, 4)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testToolVotes(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	alice := CreateUser(t, s)
	tool := CreateTool(t, s, owner, "Votable")

	tests := []struct {
		name      string
		user      *models.User
		value     int
		wantScore int
		wantVote  int
	}{
		{"first upvote", alice, models.Upvote, 1, 1},
		{"owner upvote", owner, models.Upvote, 2, 1},
		{"repeat withdraws", alice, models.Upvote, 1, 0},
		{"downvote after withdraw", alice, models.Downvote, 0, -1},
		{"switch to upvote", alice, models.Upvote, 2, 1},
		{"switch to downvote", alice, models.Downvote, 0, -1},
	}
	for _, tt := range tests {
		result, err := s.VoteTool(ctx, tt.user.ID, tool.ID, tt.value)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.wantScore, result.Score, tt.name)
		assert.Equal(t, tt.wantVote, result.UserVote, tt.name)
	}

	_, err := s.VoteTool(ctx, alice.ID, tool.ID, 2)
	assert.ErrorIs(t, err, store.ErrInvalid)
	_, err = s.VoteTool(ctx, alice.ID, 9999, models.Upvote)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.VoteCount)
}

func testComments(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := CreateUser(t, s)
	alice := CreateUser(t, s)
	tool := CreateTool(t, s, owner, "Talked About")

	assert.ErrorIs(t, s.CreateComment(ctx, &models.Comment{Content: "x", ToolID: 9999, UserID: owner.ID}), store.ErrNotFound)
	assert.ErrorIs(t, s.CreateComment(ctx, &models.Comment{Content: "x", ToolID: tool.ID, UserID: 9999}), store.ErrInvalid)

	older := &models.Comment{Content: "first", ToolID: tool.ID, UserID: owner.ID}
	require.NoError(t, s.CreateComment(ctx, older))
	newer := &models.Comment{Content: "second", ToolID: tool.ID, UserID: alice.ID}
	require.NoError(t, s.CreateComment(ctx, newer))
	assert.Equal(t, alice.Username, newer.Author.Username)

	result, err := s.VoteComment(ctx, alice.ID, older.ID, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, models.VoteResult{Score: 1, UserVote: 1}, result)

	comments, err := s.ListComments(ctx, tool.ID, store.SortVotes)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, older.ID, comments[0].ID)
	assert.Equal(t, 1, comments[0].VoteCount)
	assert.Equal(t, owner.Username, comments[0].Author.Username)

	comments, err = s.ListComments(ctx, tool.ID, store.SortNewest)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, comments[0].ID)

	require.NoError(t, s.DeleteComment(ctx, older.ID))
	assert.ErrorIs(t, s.DeleteComment(ctx, older.ID), store.ErrNotFound)
	_, err = s.VoteComment(ctx, alice.ID, older.ID, models.Upvote)
	assert.ErrorIs(t, err, store.ErrNotFound)

	comments, err = s.ListComments(ctx, tool.ID, "")
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func testBlogPosts(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := CreateUser(t, s, AsAdmin)

	draft := &models.BlogPost{Title: "Draft", Slug: "draft", Content: "<p>wip</p>", UserID: admin.ID}
	require.NoError(t, s.CreateBlogPost(ctx, draft))
	live := &models.BlogPost{Title: "Live", Slug: "live", Content: "<p>hi</p>", Published: true, UserID: admin.ID}
	require.NoError(t, s.CreateBlogPost(ctx, live))
	assert.Equal(t, admin.Username, live.Author.Username)

	assert.ErrorIs(t, s.CreateBlogPost(ctx, &models.BlogPost{Title: "Dup", Slug: "live", Content: "x", UserID: admin.ID}), store.ErrConflict)
	assert.ErrorIs(t, s.CreateBlogPost(ctx, &models.BlogPost{Title: "Nobody", Slug: "nobody", Content: "x", UserID: 9999}), store.ErrInvalid)

	posts, err := s.ListBlogPosts(ctx, true)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "live", posts[0].Slug)

	posts, err = s.ListBlogPosts(ctx, false)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "live", posts[0].Slug, "newest first")

	got, err := s.GetBlogPostBySlug(ctx, "draft")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	got.Published = true
	got.Title = "Draft no more"
	got.Slug = "draft-no-more"
	require.NoError(t, s.UpdateBlogPost(ctx, got))
	assert.Equal(t, admin.ID, got.UserID)

	_, err = s.GetBlogPostBySlug(ctx, "draft")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got.Slug = "live"
	assert.ErrorIs(t, s.UpdateBlogPost(ctx, got), store.ErrConflict)

	require.NoError(t, s.DeleteBlogPost(ctx, live.ID))
	assert.ErrorIs(t, s.DeleteBlogPost(ctx, live.ID), store.ErrNotFound)

	n, err := s.CountBlogPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testAppearance(t *testing.T, s store.Store) {
	ctx := context.Background()

	settings, err := s.GetAppearance(ctx)
	require.NoError(t, err)
	defaults := models.DefaultAppearance()
	assert.Equal(t, defaults.PrimaryColor, settings.PrimaryColor)
	assert.Equal(t, defaults.FontFamily, settings.FontFamily)

	settings.PrimaryColor = "#ff0000"
	require.NoError(t, s.UpdateAppearance(ctx, settings))

	again, err := s.GetAppearance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", again.PrimaryColor)
	assert.Equal(t, settings.ID, again.ID)
}

func testSeed(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := store.SeedAdmin{Username: "admin", Email: "admin@example.com", PasswordHash: "hash"}

	require.NoError(t, store.Seed(ctx, s, admin))
	require.NoError(t, store.Seed(ctx, s, admin), "seeding twice is a no-op")

	stats, err := store.Stats(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardStats{Users: 1, Tools: 3, PendingTools: 0, Categories: 8, BlogPosts: 1}, stats)

	user, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	tool, err := s.GetToolByName(ctx, "ChatGPT")
	require.NoError(t, err)
	assert.Len(t, tool.Categories, 2)

	post, err := s.GetBlogPostBySlug(ctx, "welcome-to-choosemyai")
	require.NoError(t, err)
	assert.True(t, post.Published)
}
