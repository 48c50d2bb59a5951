package domain

import "time"

type Recipe struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Ingredients []string  `json:"ingredients"`
	CookTime    int       `json:"cook_time_minutes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeMatch — рецепт с числом совпавших ингредиентов из кладовой.
type RecipeMatch struct {
	Recipe       Recipe `json:"recipe"`
	MatchedCount int    `json:"matched_count"`
	TotalCount   int    `json:"total_count"`
}
