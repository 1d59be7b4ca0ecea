package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

type AdminHandler struct {
	base
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := store.Stats(c.Request.Context(), h.store)
	if err != nil {
		h.fail(c, err, "Stats not available")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTools lists every tool, or only the moderation queue with pending=true.
func (h *AdminHandler) GetTools(c *gin.Context) {
	filter := store.ToolFilter{Sort: store.SortNewest}
	if c.Query("pending") == "true" {
		filter.Approved = store.Pending()
	}

	tools, err := h.store.ListTools(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err, "Tools not found")
		return
	}
	c.JSON(http.StatusOK, tools)
}

func (h *AdminHandler) ApproveTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Approve(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "Tool not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tool approved successfully"})
}

// RejectTool deletes a submission.
func (h *AdminHandler) RejectTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Reject(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "Tool not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tool rejected and deleted"})
}

// UpdateTool edits a tool's listing.
func (h *AdminHandler) UpdateTool(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.SubmitToolRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tool, err := h.svc.EditTool(c.Request.Context(), id, input)
	if err != nil {
		h.fail(c, err, "Tool not found")
		return
	}
	c.JSON(http.StatusOK, tool)
}
