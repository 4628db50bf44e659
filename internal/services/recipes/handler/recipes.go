package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"whisk-system/internal/api"
	"whisk-system/internal/cache"
	"whisk-system/internal/database/models"
	"whisk-system/internal/pricing"

	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

type RecipeHandler struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewRecipeHandler(db *gorm.DB, redisClient *redis.Client) *RecipeHandler {
	return &RecipeHandler{
		db:    db,
		cache: cache.New(redisClient),
	}
}

func orderedIngredients(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func stockKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// costCatalogue reads the live unit cost of every stock item.
func (s *RecipeHandler) costCatalogue(ctx context.Context) (map[string]float64, error) {
	var items []models.StockItem
	if err := s.db.WithContext(ctx).Select("id", "cost_per_unit").Find(&items).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to load stock costs: %v", err)
	}
	entries := make([]pricing.CostEntry, len(items))
	for i, item := range items {
		entries[i] = pricing.CostEntry{ID: stockKey(item.ID), CostPerUnit: item.CostPerUnit}
	}
	return pricing.Catalogue(entries), nil
}

func recipeToAPI(recipe models.Recipe, costs map[string]float64) api.Recipe {
	out := api.Recipe{
		ID:           recipe.ID,
		Name:         recipe.Name,
		SellingPrice: recipe.SellingPrice,
		Ingredients:  make([]api.RecipeIngredient, len(recipe.Ingredients)),
	}
	lines := make([]pricing.RecipeLine, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		out.Ingredients[i] = api.RecipeIngredient{StockItemID: api.ID(ing.StockItemID), Quantity: api.Number(ing.Quantity)}
		lines[i] = pricing.RecipeLine{StockItemID: stockKey(ing.StockItemID), Quantity: ing.Quantity}
	}

	cost := pricing.RecipeCostFor(lines, costs, recipe.SellingPrice)
	out.ManufacturingCost = pricing.Float64(cost.Cost)
	out.Profit = pricing.Float64(cost.Profit)
	out.Margin = pricing.Float64(cost.Margin)
	return out
}

// validate checks the draft against the stock table and returns the
// ingredient rows to store.
func (s *RecipeHandler) validate(ctx context.Context, req *api.RecipeInput) ([]models.RecipeIngredient, error) {
	ids := make([]int64, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if ing.StockItemID > 0 {
			ids = append(ids, int64(ing.StockItemID))
		}
	}

	known := map[string]bool{}
	if len(ids) > 0 {
		var found []int64
		if err := s.db.WithContext(ctx).Model(&models.StockItem{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return nil, status.Errorf(codes.Internal, "Failed to check stock items: %v", err)
		}
		for _, id := range found {
			known[stockKey(id)] = true
		}
	}

	draft := pricing.RecipeDraft{Name: req.Name, Lines: make([]pricing.RecipeLine, len(req.Ingredients))}
	rows := make([]models.RecipeIngredient, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		key := ""
		if ing.StockItemID > 0 {
			key = ing.StockItemID.String()
		}
		draft.Lines[i] = pricing.RecipeLine{StockItemID: key, Quantity: ing.Quantity.Float64()}
		rows[i] = models.RecipeIngredient{Position: i, StockItemID: int64(ing.StockItemID), Quantity: ing.Quantity.Float64()}
	}

	if err := pricing.ValidateRecipeDraft(draft, func(id string) bool { return known[id] }); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.SellingPrice < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "sellingPrice: selling price cannot be negative")
	}
	return rows, nil
}

func (s *RecipeHandler) loadRecipe(ctx context.Context, id int64) (models.Recipe, error) {
	var recipe models.Recipe
	if id <= 0 {
		return recipe, status.Errorf(codes.InvalidArgument, "Recipe ID is required")
	}
	err := s.db.WithContext(ctx).Preload("Ingredients", orderedIngredients).First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return recipe, status.Errorf(codes.NotFound, "Recipe not found")
		}
		return recipe, status.Errorf(codes.Internal, "Failed to get recipe: %v", err)
	}
	return recipe, nil
}

func (s *RecipeHandler) respond(ctx context.Context, recipe models.Recipe) (*api.Recipe, error) {
	costs, err := s.costCatalogue(ctx)
	if err != nil {
		return nil, err
	}
	out := recipeToAPI(recipe, costs)
	return &out, nil
}

// -- Recipes --

func (s *RecipeHandler) CreateRecipe(ctx context.Context, req *api.RecipeInput) (*api.Recipe, error) {
	rows, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:         strings.TrimSpace(req.Name),
		SellingPrice: req.SellingPrice.Float64(),
		Ingredients:  rows,
	}
	if err := s.db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to create recipe: %v", err)
	}

	s.cache.Invalidate(ctx, cache.NamespaceRecipes)
	return s.respond(ctx, recipe)
}

// UpdateRecipe replaces the name, price and the whole ingredient list.
func (s *RecipeHandler) UpdateRecipe(ctx context.Context, id int64, req *api.RecipeInput) (*api.Recipe, error) {
	recipe, err := s.loadRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(map[string]interface{}{
			"name":          strings.TrimSpace(req.Name),
			"selling_price": req.SellingPrice.Float64(),
		}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].RecipeID = recipe.ID
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to update recipe: %v", err)
	}

	s.cache.Invalidate(ctx, cache.NamespaceRecipes)

	recipe, err = s.loadRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, recipe)
}

func (s *RecipeHandler) GetRecipe(ctx context.Context, id int64) (*api.Recipe, error) {
	recipe, err := s.loadRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, recipe)
}

func (s *RecipeHandler) DeleteRecipe(ctx context.Context, id int64) error {
	if id <= 0 {
		return status.Errorf(codes.InvalidArgument, "Recipe ID is required")
	}

	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return status.Errorf(codes.Internal, "Failed to delete recipe: %v", err)
	}
	if affected == 0 {
		return status.Errorf(codes.NotFound, "Recipe not found")
	}

	s.cache.Invalidate(ctx, cache.NamespaceRecipes)
	return nil
}

func (s *RecipeHandler) ListRecipes(ctx context.Context, req *api.ListRecipesRequest) (*api.ListResult[api.Recipe], error) {
	page := req.Page.Normalize(defaultPageSize, maxPageSize)
	search := strings.ToLower(strings.TrimSpace(req.Search))

	cacheKey := s.cache.Key(ctx, cache.NamespaceRecipes, "list", page.Skip, page.Limit, search)
	var cached api.ListResult[api.Recipe]
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	query := s.db.WithContext(ctx).Model(&models.Recipe{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to count recipes: %v", err)
	}

	var recipes []models.Recipe
	err := query.Preload("Ingredients", orderedIngredients).
		Order("name ASC, id ASC").Offset(page.Skip).Limit(page.Limit).Find(&recipes).Error
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to list recipes: %v", err)
	}

	costs, err := s.costCatalogue(ctx)
	if err != nil {
		return nil, err
	}

	result := &api.ListResult[api.Recipe]{
		Results: make([]api.Recipe, len(recipes)),
		Total:   total,
	}
	for i, recipe := range recipes {
		result.Results[i] = recipeToAPI(recipe, costs)
	}

	s.cache.Set(ctx, cacheKey, result, cache.TTLShort)
	return result, nil
}
