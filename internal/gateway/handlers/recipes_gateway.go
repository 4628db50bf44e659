package handlers

import (
	"context"
	"net/http"

	"whisk-system/internal/api"

	"github.com/gin-gonic/gin"
)

type RecipeService interface {
	CreateRecipe(ctx context.Context, req *api.RecipeInput) (*api.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, req *api.RecipeInput) (*api.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*api.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	ListRecipes(ctx context.Context, req *api.ListRecipesRequest) (*api.ListResult[api.Recipe], error)
}

type RecipeHTTPHandler struct {
	recipes RecipeService
}

func NewRecipeHTTPHandler(recipes RecipeService) *RecipeHTTPHandler {
	return &RecipeHTTPHandler{recipes: recipes}
}

func (h *RecipeHTTPHandler) CreateRecipe(c *gin.Context) {
	var req api.RecipeInput
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHTTPHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req api.RecipeInput
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHTTPHandler) GetRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHTTPHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondDeleted(c, "Recipe")
}

func (h *RecipeHTTPHandler) ListRecipes(c *gin.Context) {
	resp, err := h.recipes.ListRecipes(c.Request.Context(), &api.ListRecipesRequest{
		Page:   buildPage(c),
		Search: c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
