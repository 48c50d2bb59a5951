package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"kitchen_sync/internal/service"
	"kitchen_sync/pkg/logger"
)

type RecipeHandler struct {
	recipeService service.RecipeService
	log           logger.Logger
}

func NewRecipeHandler(recipeService service.RecipeService, log logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		log:           log,
	}
}

func (h *RecipeHandler) Search(c *gin.Context) {
	filters := map[string]string{}
	if category := c.Query("category"); category != "" {
		filters["category"] = category
	}

	recipes, err := h.recipeService.Search(c.Request.Context(), c.Query("q"), filters)
	if err != nil {
		h.log.Error("Recipe search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recipe search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}
