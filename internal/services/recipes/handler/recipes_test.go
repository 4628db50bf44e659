package handler

import (
	"context"
	"strings"
	"testing"

	"whisk-system/internal/api"
	"whisk-system/internal/database"
	"whisk-system/internal/database/models"
	inventory "whisk-system/internal/services/inventory/handler"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	recipes *RecipeHandler
	stock   *inventory.InventoryHandler
	a, b    int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := models.StockItem{Name: "A", Category: models.CategoryIngredient, Quantity: 10, CostPerUnit: 50}
	b := models.StockItem{Name: "B", Category: models.CategoryIngredient, Quantity: 10, CostPerUnit: 10}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	return &fixture{
		db:      db,
		recipes: NewRecipeHandler(db, rdb),
		stock:   inventory.NewInventoryHandler(db, rdb),
		a:       a.ID,
		b:       b.ID,
	}
}

func (f *fixture) input(name string, price float64) *api.RecipeInput {
	return &api.RecipeInput{
		Name: name,
		Ingredients: []api.RecipeIngredient{
			{StockItemID: api.ID(f.a), Quantity: 2},
			{StockItemID: api.ID(f.b), Quantity: 5},
		},
		SellingPrice: api.Number(price),
	}
}

func TestCreateRecipeCosts(t *testing.T) {
	f := setup(t)

	got, err := f.recipes.CreateRecipe(context.Background(), f.input("Brownie", 200))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ManufacturingCost != 150 || got.Profit != 50 || got.Margin != 25 {
		t.Errorf("cost=%v profit=%v margin=%v", got.ManufacturingCost, got.Profit, got.Margin)
	}
	if len(got.Ingredients) != 2 || int64(got.Ingredients[0].StockItemID) != f.a {
		t.Errorf("ingredients = %+v", got.Ingredients)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := map[string]*api.RecipeInput{
		"no name":  {Ingredients: []api.RecipeIngredient{{StockItemID: api.ID(f.a), Quantity: 1}}},
		"empty":    {Name: "Empty"},
		"unknown":  {Name: "Ghost", Ingredients: []api.RecipeIngredient{{StockItemID: 999, Quantity: 1}}},
		"zero qty": {Name: "Zero", Ingredients: []api.RecipeIngredient{{StockItemID: api.ID(f.a), Quantity: 0}}},
		"unset":    {Name: "Unset", Ingredients: []api.RecipeIngredient{{Quantity: 1}}},
	}
	for name, in := range cases {
		if _, err := f.recipes.CreateRecipe(ctx, in); status.Code(err) != codes.InvalidArgument {
			t.Errorf("%s: code = %v (%v)", name, status.Code(err), err)
		}
	}

	var count int64
	f.db.Model(&models.Recipe{}).Count(&count)
	if count != 0 {
		t.Errorf("%d invalid recipes stored", count)
	}
}

func TestUpdateRecipeReplacesIngredients(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.recipes.CreateRecipe(ctx, f.input("Brownie", 200))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.recipes.UpdateRecipe(ctx, created.ID, &api.RecipeInput{
		Name:         "Blondie",
		Ingredients:  []api.RecipeIngredient{{StockItemID: api.ID(f.b), Quantity: 3}},
		SellingPrice: 60,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Blondie" || len(updated.Ingredients) != 1 || updated.ManufacturingCost != 30 {
		t.Errorf("updated = %+v", updated)
	}

	var rows int64
	f.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("%d ingredient rows after update", rows)
	}

	reloaded, err := f.recipes.GetRecipe(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(reloaded.Ingredients) != 1 || reloaded.ManufacturingCost != 30 || reloaded.Margin != 50 {
		t.Errorf("reloaded = %+v", reloaded)
	}

	if _, err := f.recipes.UpdateRecipe(ctx, 999, f.input("x", 1)); status.Code(err) != codes.NotFound {
		t.Errorf("missing recipe code = %v", status.Code(err))
	}
}

func TestRecipeCostFollowsStockPrices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.recipes.CreateRecipe(ctx, f.input("Brownie", 200)); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := f.recipes.ListRecipes(ctx, &api.ListRecipesRequest{})
	if err != nil || len(list.Results) != 1 || list.Results[0].ManufacturingCost != 150 {
		t.Fatalf("first list: %v %+v", err, list)
	}

	// 10 on hand at 50 plus 10 bought at 70 averages to 60.
	if _, err := f.stock.RecordPurchase(ctx, f.a, &api.StockPurchase{QuantityAdded: 10, CostPerUnitOfPurchase: 70}); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	list, err = f.recipes.ListRecipes(ctx, &api.ListRecipesRequest{})
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if got := list.Results[0].ManufacturingCost; got != 170 {
		t.Errorf("cost after price change = %v, want 170", got)
	}
}

func TestListRecipesSearchAndPaging(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, name := range []string{"Croissant", "Brownie", "Cheesecake"} {
		if _, err := f.recipes.CreateRecipe(ctx, f.input(name, 100)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	res, err := f.recipes.ListRecipes(ctx, &api.ListRecipesRequest{Search: "c"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 2 || res.Results[0].Name != "Cheesecake" || res.Results[1].Name != "Croissant" {
		t.Errorf("search results = %+v", res)
	}

	res, _ = f.recipes.ListRecipes(ctx, &api.ListRecipesRequest{Page: api.Page{Skip: 2, Limit: 5}})
	if res.Total != 3 || len(res.Results) != 1 || res.Results[0].Name != "Croissant" {
		t.Errorf("page = %+v", res)
	}
}

func TestDeleteRecipe(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.recipes.CreateRecipe(ctx, f.input("Brownie", 200))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.recipes.DeleteRecipe(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.recipes.DeleteRecipe(ctx, created.ID); status.Code(err) != codes.NotFound {
		t.Errorf("second delete code = %v", status.Code(err))
	}

	var rows int64
	f.db.Model(&models.RecipeIngredient{}).Count(&rows)
	if rows != 0 {
		t.Errorf("%d orphaned ingredient rows", rows)
	}
}
