package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/service"
)

type HealthHandler struct {
	registry   service.ConnectionRegistry
	rooms      service.RoomRouter
	dispatcher service.NotificationDispatcher
	startedAt  time.Time
}

func NewHealthHandler(services *service.Services) *HealthHandler {
	return &HealthHandler{
		registry:   services.Registry,
		rooms:      services.Rooms,
		dispatcher: services.Dispatcher,
		startedAt:  time.Now(),
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	delivered, failed := h.dispatcher.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "kitchen-sync",
		"uptime_seconds": time.Since(h.startedAt).Seconds(),
		"stats": domain.HubStats{
			ConnectedClients: h.registry.Count(),
			ActiveRooms:      h.rooms.RoomCount(),
			Delivered:        delivered,
			Failed:           failed,
		},
	})
}
