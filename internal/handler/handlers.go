package handler

import (
	"kitchen_sync/internal/service"
	"kitchen_sync/pkg/logger"
)

type Handlers struct {
	Health *HealthHandler
	Sync   *WebSocketHandler
	Pantry *PantryHandler
	Recipe *RecipeHandler
}

func NewHandlers(services *service.Services, log logger.Logger) *Handlers {
	events := NewEventHandlers(services, log)

	return &Handlers{
		Health: NewHealthHandler(services),
		Sync:   NewWebSocketHandler(services, events, log),
		Pantry: NewPantryHandler(services.Pantry, log),
		Recipe: NewRecipeHandler(services.Recipe, log),
	}
}
