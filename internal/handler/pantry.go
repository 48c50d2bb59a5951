package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"kitchen_sync/internal/service"
	"kitchen_sync/pkg/logger"
)

type PantryHandler struct {
	pantryService service.PantryService
	log           logger.Logger
}

func NewPantryHandler(pantryService service.PantryService, log logger.Logger) *PantryHandler {
	return &PantryHandler{
		pantryService: pantryService,
		log:           log,
	}
}

func (h *PantryHandler) GetSnapshot(c *gin.Context) {
	subjectID := c.GetString("subject_id")

	snapshot, err := h.pantryService.GetSnapshot(c.Request.Context(), subjectID)
	if err != nil {
		h.log.Error("Failed to load snapshot", "subject_id", subjectID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pantry snapshot"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *PantryHandler) GetExpiring(c *gin.Context) {
	subjectID := c.GetString("subject_id")

	alerts, err := h.pantryService.ListExpiringAlerts(c.Request.Context(), subjectID)
	if err != nil {
		h.log.Error("Failed to list expiring items", "subject_id", subjectID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list expiring items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
