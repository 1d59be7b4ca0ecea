package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

type CategoryHandler struct {
	base
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Categories not found")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategoryTools(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	category, err := h.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Category not found")
		return
	}

	tools, err := h.store.ListTools(c.Request.Context(), store.ToolFilter{
		Approved:   store.Approved(),
		CategoryID: id,
		Sort:       store.NormalizeSort(c.Query("sort")),
	})
	if err != nil {
		h.fail(c, err, "Category not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category, "tools": tools})
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	h.save(c, 0, http.StatusCreated)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.save(c, id, http.StatusOK)
}

func (h *CategoryHandler) save(c *gin.Context, id, status int) {
	var input models.CategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.svc.SaveCategory(c.Request.Context(), id, input)
	if err != nil {
		h.fail(c, err, "Category not found")
		return
	}
	c.JSON(status, category)
}

// DeleteCategory removes the category; its tools stay listed elsewhere.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Category not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
