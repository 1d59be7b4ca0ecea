package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
)

type BlogHandler struct {
	base
}

// GetPosts lists published posts, newest first.
func (h *BlogHandler) GetPosts(c *gin.Context) {
	h.list(c, true)
}

// GetAllPosts includes drafts, for admins.
func (h *BlogHandler) GetAllPosts(c *gin.Context) {
	h.list(c, false)
}

func (h *BlogHandler) list(c *gin.Context, publishedOnly bool) {
	posts, err := h.store.ListBlogPosts(c.Request.Context(), publishedOnly)
	if err != nil {
		h.fail(c, err, "Blog posts not found")
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *BlogHandler) GetPost(c *gin.Context) {
	post, err := h.svc.ViewBlogPost(c.Request.Context(), currentUser(c), c.Param("slug"))
	if err != nil {
		h.fail(c, err, "Blog post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *BlogHandler) CreatePost(c *gin.Context) {
	var input models.BlogPostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.svc.CreateBlogPost(c.Request.Context(), currentUser(c), input)
	if err != nil {
		h.fail(c, err, "Blog post not found")
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *BlogHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.BlogPostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.svc.UpdateBlogPost(c.Request.Context(), id, input)
	if err != nil {
		h.fail(c, err, "Blog post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *BlogHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteBlogPost(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Blog post not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog post deleted successfully"})
}

// TogglePost publishes a draft or unpublishes a post.
func (h *BlogHandler) TogglePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	post, err := h.svc.TogglePublished(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Blog post not found")
		return
	}
	c.JSON(http.StatusOK, post)
}
