package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"kitchen_sync/pkg/logger"
)

type Repositories struct {
	Pantry    PantryRepository
	Recipe    RecipeRepository
	RateLimit RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		Pantry:    NewPantryRepository(db, log),
		Recipe:    NewRecipeRepository(db, log),
		RateLimit: NewRateLimitRepository(redis, log),
	}
}
