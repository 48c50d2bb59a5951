package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"kitchen_sync/internal/domain"
	"kitchen_sync/pkg/logger"
)

type RecipeRepository interface {
	MatchByIngredients(ctx context.Context, ingredientIDs []string) ([]domain.RecipeMatch, error)
	Search(ctx context.Context, query string, filters map[string]string) ([]domain.Recipe, error)
}

type recipeRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewRecipeRepository(db *pgxpool.Pool, log logger.Logger) RecipeRepository {
	return &recipeRepository{db: db, log: log}
}

func (r *recipeRepository) MatchByIngredients(ctx context.Context, ingredientIDs []string) ([]domain.RecipeMatch, error) {
	query := `
		SELECT r.id, r.title, r.ingredients, r.cook_time_minutes, r.created_at,
		       (SELECT count(*) FROM unnest(r.ingredients) ing WHERE ing = ANY($1)) AS matched
		FROM recipes r
		WHERE r.ingredients && $1
		ORDER BY matched DESC, r.title
		LIMIT 50
	`

	rows, err := r.db.Query(ctx, query, ingredientIDs)
	if err != nil {
		r.log.Error("Failed to match recipes", "error", err)
		return nil, err
	}
	defer rows.Close()

	var matches []domain.RecipeMatch
	for rows.Next() {
		var m domain.RecipeMatch
		err := rows.Scan(&m.Recipe.ID, &m.Recipe.Title, &m.Recipe.Ingredients,
			&m.Recipe.CookTime, &m.Recipe.CreatedAt, &m.MatchedCount)
		if err != nil {
			r.log.Error("Failed to scan recipe match", "error", err)
			return nil, err
		}
		m.TotalCount = len(m.Recipe.Ingredients)
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func (r *recipeRepository) Search(ctx context.Context, query string, filters map[string]string) ([]domain.Recipe, error) {
	sqlQuery := `
		SELECT id, title, ingredients, cook_time_minutes, created_at
		FROM recipes
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT 50
	`

	rows, err := r.db.Query(ctx, sqlQuery, query, filters["category"])
	if err != nil {
		r.log.Error("Failed to search recipes", "error", err)
		return nil, err
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		var recipe domain.Recipe
		err := rows.Scan(&recipe.ID, &recipe.Title, &recipe.Ingredients, &recipe.CookTime, &recipe.CreatedAt)
		if err != nil {
			r.log.Error("Failed to scan recipe", "error", err)
			return nil, err
		}
		recipes = append(recipes, recipe)
	}

	return recipes, rows.Err()
}
