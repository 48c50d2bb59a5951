package service

import (
	"context"
	"fmt"

	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/repository"
	apperrors "kitchen_sync/pkg/errors"
	"kitchen_sync/pkg/logger"
)

type RecipeService interface {
	MatchByIngredients(ctx context.Context, ingredientIDs []string) ([]domain.RecipeMatch, error)
	Search(ctx context.Context, query string, filters map[string]string) ([]domain.Recipe, error)
}

type recipeService struct {
	recipeRepo repository.RecipeRepository
	log        logger.Logger
}

func NewRecipeService(recipeRepo repository.RecipeRepository, log logger.Logger) RecipeService {
	return &recipeService{
		recipeRepo: recipeRepo,
		log:        log,
	}
}

func (s *recipeService) MatchByIngredients(ctx context.Context, ingredientIDs []string) ([]domain.RecipeMatch, error) {
	if len(ingredientIDs) == 0 {
		return nil, fmt.Errorf("%w: ingredientIds is required", apperrors.ErrBadRequest)
	}

	return s.recipeRepo.MatchByIngredients(ctx, ingredientIDs)
}

func (s *recipeService) Search(ctx context.Context, query string, filters map[string]string) ([]domain.Recipe, error) {
	if filters == nil {
		filters = map[string]string{}
	}

	return s.recipeRepo.Search(ctx, query, filters)
}
