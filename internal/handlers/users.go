package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
)

type UserHandler struct {
	base
}

// GetUsers lists every account, newest first.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Users not found")
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateRoles grants or revokes the admin and moderator flags.
func (h *UserHandler) UpdateRoles(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.UpdateRolesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.SetRoles(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		h.fail(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}
