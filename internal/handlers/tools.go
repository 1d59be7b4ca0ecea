package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

type ToolHandler struct {
	base
}

// GetTools lists approved tools, filtered by q and category and ordered by
// sort (votes or newest).
func (h *ToolHandler) GetTools(c *gin.Context) {
	filter := store.ToolFilter{
		Approved:   store.Approved(),
		CategoryID: queryInt(c, "category"),
		Search:     strings.TrimSpace(c.Query("q")),
		Sort:       store.NormalizeSort(c.Query("sort")),
		Limit:      queryInt(c, "limit"),
	}

	tools, err := h.store.ListTools(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "Tools not found")
		return
	}

	c.JSON(http.StatusOK, tools)
}

// Search is GetTools with a required query.
func (h *ToolHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	tools, err := h.store.ListTools(c.Request.Context(), store.ToolFilter{
		Approved: store.Approved(),
		Search:   q,
		Sort:     store.NormalizeSort(c.Query("sort")),
	})
	if err != nil {
		h.fail(c, err, "Tools not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": q, "tools": tools, "count": len(tools)})
}

// GetMyTools lists the caller's own submissions, pending ones included,
// newest first.
func (h *ToolHandler) GetMyTools(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tools, err := h.store.ListTools(c.Request.Context(), store.ToolFilter{
		UserID: userID,
		Sort:   store.SortNewest,
	})
	if err != nil {
		h.fail(c, err, "Tools not found")
		return
	}

	c.JSON(http.StatusOK, tools)
}

// GetTool returns a tool with its comments and similar tools. Pending tools
// are only visible to their owner and moderators.
func (h *ToolHandler) GetTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	page, err := h.svc.ToolPage(c.Request.Context(), currentUser(c), id, c.Query("sort"))
	if err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreateTool submits a tool for moderation.
func (h *ToolHandler) CreateTool(c *gin.Context) {
	var input models.SubmitToolRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tool, err := h.svc.SubmitTool(c.Request.Context(), currentUser(c), input)
	if err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tool submitted successfully! It will be reviewed by our moderators.",
		"tool":    tool,
	})
}

// VoteTool toggles the caller's vote on an approved tool.
func (h *ToolHandler) VoteTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be -1 or 1"})
		return
	}

	userID, _ := extractUserID(c)
	if _, err := h.svc.ViewTool(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	result, err := h.store.VoteTool(c.Request.Context(), userID, id, input.Value)
	if err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	c.JSON(http.StatusOK, result)
}
