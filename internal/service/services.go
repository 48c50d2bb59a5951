package service

import (
	"kitchen_sync/internal/config"
	"kitchen_sync/internal/repository"
	"kitchen_sync/pkg/logger"
)

type Services struct {
	Auth       AuthService
	Rooms      RoomRouter
	Registry   ConnectionRegistry
	RateLimit  RateLimitService
	Push       PushSender
	Dispatcher NotificationDispatcher
	Pantry     PantryService
	Recipe     RecipeService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	rooms := NewRoomRouter(log)
	registry := NewConnectionRegistry(rooms, log)
	push := NewPushSender(cfg.Push, log)

	return &Services{
		Auth:       NewAuthService(cfg.JWT, log),
		Rooms:      rooms,
		Registry:   registry,
		RateLimit:  NewRateLimitService(repos.RateLimit, cfg.RateLimit, log),
		Push:       push,
		Dispatcher: NewNotificationDispatcher(registry, rooms, push, log),
		Pantry:     NewPantryService(repos.Pantry, log),
		Recipe:     NewRecipeService(repos.Recipe, log),
	}
}
