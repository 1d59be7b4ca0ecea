package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosemyai/backend/internal/models"
)

type AppearanceHandler struct {
	base
}

func (h *AppearanceHandler) GetAppearance(c *gin.Context) {
	settings, err := h.store.GetAppearance(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Appearance settings not found")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateAppearance changes only the fields present in the request.
func (h *AppearanceHandler) UpdateAppearance(c *gin.Context) {
	var input models.AppearanceRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.svc.UpdateAppearance(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err, "Appearance settings not found")
		return
	}
	c.JSON(http.StatusOK, settings)
}
