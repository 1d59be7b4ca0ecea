package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
)

type CommentHandler struct {
	base
}

// GetComments returns the comments on a tool, best first unless sort=newest.
func (h *CommentHandler) GetComments(c *gin.Context) {
	toolID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.svc.ViewTool(c.Request.Context(), currentUser(c), toolID); err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	comments, err := h.store.ListComments(c.Request.Context(), toolID, c.Query("sort"))
	if err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on a tool
func (h *CommentHandler) CreateComment(c *gin.Context) {
	toolID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), currentUser(c), toolID, input.Content)
	if err != nil {
		h.fail(c, err, "Tool not found")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) VoteComment(c *gin.Context) {
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
	if _, err := h.svc.ViewComment(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "Comment not found")
		return
	}

	result, err := h.store.VoteComment(c.Request.Context(), userID, id, input.Value)
	if err != nil {
		h.fail(c, err, "Comment not found")
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteComment deletes a comment (author or moderator)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.svc.DeleteComment(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "Comment not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
