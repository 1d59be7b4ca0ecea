package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
	"github.com/choosemyai/backend/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := storetest.CreateUser(t, s)
	category := storetest.CreateCategory(t, s, "Writing")
	tool := storetest.CreateTool(t, s, owner, "Copyable", category)

	got, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	got.Name = "Mutated"
	got.Categories[0].Name = "Mutated"

	again, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, "Copyable", again.Name)
	assert.Equal(t, "Writing", again.Categories[0].Name)
}

func TestStore_NewestUsesClock(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(-tick) * time.Hour)
	}

	owner := storetest.CreateUser(t, s)
	storetest.CreateTool(t, s, owner, "Older")  // clock moves backwards,
	storetest.CreateTool(t, s, owner, "Oldest") // so creation order is reversed

	tools, err := s.ListTools(ctx, store.ToolFilter{Sort: store.SortNewest})
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "Older", tools[0].Name)
}

func TestStore_PingHonoursContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
	assert.Equal(t, "memory", s.Name())
	assert.NoError(t, s.Close())
}

func TestStore_VoteWithdrawKeepsOtherVotes(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := storetest.CreateUser(t, s)
	tool := storetest.CreateTool(t, s, owner, "Shared")
	comment := &models.Comment{Content: "hi", ToolID: tool.ID, UserID: owner.ID}
	require.NoError(t, s.CreateComment(ctx, comment))

	// Tool and comment votes with the same target id must not collide.
	_, err := s.VoteTool(ctx, owner.ID, tool.ID, models.Upvote)
	require.NoError(t, err)
	result, err := s.VoteComment(ctx, owner.ID, comment.ID, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, -1, result.Score)

	got, err := s.GetTool(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VoteCount)
}
