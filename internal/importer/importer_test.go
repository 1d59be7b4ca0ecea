package importer

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/store"
	"github.com/choosemyai/backend/internal/store/memory"
	"github.com/choosemyai/backend/internal/store/storetest"
)

func newImporter(s store.Store) *Importer {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(s, store.SeedAdmin{Username: "admin", Email: "admin@example.com", PasswordHash: "hash"}, log)
}

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"array", `[{"name":"A"},{"name":"B"}]`, []string{"A", "B"}},
		{"tools key", `{"tools":[{"name":"A"}]}`, []string{"A"}},
		{"data key", `{"data":[{"name":"A"}]}`, []string{"A"}},
		{"items key", `{"items":[{"name":"A"}]}`, []string{"A"}},
		{"single object", `{"name":"Solo"}`, []string{"Solo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			names := make([]string, len(records))
			for i, r := range records {
				names[i] = r.Name
			}
			assert.Equal(t, tt.want, names)
		})
	}

	_, err := Parse([]byte(`"just a string"`))
	assert.Error(t, err)
	_, err = Parse([]byte(`[{"name":`))
	assert.Error(t, err)
}

func TestParse_Aliases(t *testing.T) {
	records, err := Parse([]byte(`{
		"name": "Aliased",
		"website": "https://aliased.example",
		"logo": "https://aliased.example/logo.png",
		"video": "https://youtube.com/watch?v=1",
		"additional_info": "docs",
		"category": "AI Writing",
		"is_approved": false
	}`))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "https://aliased.example", r.URL)
	assert.Equal(t, "https://aliased.example/logo.png", r.ImageURL)
	assert.Equal(t, "https://youtube.com/watch?v=1", r.YoutubeURL)
	assert.Equal(t, "docs", r.Resources)
	assert.Equal(t, []string{"AI Writing"}, r.Categories)
	assert.False(t, r.IsApproved)

	records, err = Parse([]byte(`[{"name":"Default","icon":"i.png","url":"u","website":"w"}]`))
	require.NoError(t, err)
	assert.True(t, records[0].IsApproved, "approved by default")
	assert.Equal(t, "i.png", records[0].ImageURL)
	assert.Equal(t, "u", records[0].URL, "url wins over website")
}

func TestImport(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	owner := storetest.CreateUser(t, s)
	storetest.CreateTool(t, s, owner, "Existing")
	storetest.CreateCategory(t, s, "AI Writing")

	input := `{"tools": [
		{"name": "Existing"},
		{"name": "Writer", "description": "<p>Writes</p><script>x</script>", "url": "https://writer.example",
		 "categories": ["AI Writing", "New Category"]},
		{"name": "Bare"},
		{"name": "Broken", "categories": 42}
	]}`

	_, err := newImporter(s).Import(ctx, strings.NewReader(input))
	require.Error(t, err, "a malformed record fails the parse")

	input = strings.Replace(input, `, "categories": 42`, ``, 1)
	result, err := newImporter(s).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 3, Skipped: 1}, result)

	writer, err := s.GetToolByName(ctx, "Writer")
	require.NoError(t, err)
	assert.Equal(t, "<p>Writes</p>", writer.Description)
	assert.True(t, writer.IsApproved)
	assert.Len(t, writer.Categories, 2)
	assert.True(t, writer.Author.IsAdmin, "owned by an admin")

	bare, err := s.GetToolByName(ctx, "Bare")
	require.NoError(t, err)
	assert.Equal(t, "No description provided", bare.Description)

	_, err = s.GetCategoryByName(ctx, "New Category")
	assert.NoError(t, err)

	// Second run skips everything and reuses the admin.
	result, err = newImporter(s).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 4}, result)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestImport_NoOwner(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := memory.New()

	im := New(s, store.SeedAdmin{Username: "admin", Email: "admin@example.com"}, log)
	_, err := im.Import(context.Background(), strings.NewReader(`{"tools": [{"name": "Writer"}]}`))
	assert.ErrorIs(t, err, ErrNoOwner)

	count, err := s.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSample(t *testing.T) {
	records, err := Parse(Sample())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Example AI Tool", records[0].Name)
	assert.Len(t, records[0].Categories, 2)
}
