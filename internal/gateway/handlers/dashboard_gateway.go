package handlers

import (
	"context"
	"net/http"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/dashboard"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const dashboardPageSize = 100

type DashboardHTTPHandler struct {
	inventory  InventoryService
	recipes    RecipeService
	billing    BillingService
	customers  CustomerService
	windowDays int
	now        func() time.Time
}

func NewDashboardHTTPHandler(inventory InventoryService, recipes RecipeService, billing BillingService, customers CustomerService, windowDays int) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{
		inventory:  inventory,
		recipes:    recipes,
		billing:    billing,
		customers:  customers,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// snapshot loads the four collections concurrently.
func (h *DashboardHTTPHandler) snapshot(ctx context.Context) (dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := api.CollectAll(func(p api.Page) (*api.ListResult[api.Invoice], error) {
			return h.billing.ListInvoices(ctx, &api.ListInvoicesRequest{Page: p})
		}, dashboardPageSize)
		snap.Invoices = items
		return err
	})
	g.Go(func() error {
		items, err := api.CollectAll(func(p api.Page) (*api.ListResult[api.StockItem], error) {
			return h.inventory.ListStockItems(ctx, &api.ListStockItemsRequest{Page: p})
		}, dashboardPageSize)
		snap.StockItems = items
		return err
	})
	g.Go(func() error {
		items, err := api.CollectAll(func(p api.Page) (*api.ListResult[api.Customer], error) {
			return h.customers.ListCustomers(ctx, &api.ListCustomersRequest{Page: p})
		}, dashboardPageSize)
		snap.Customers = items
		return err
	})
	g.Go(func() error {
		items, err := api.CollectAll(func(p api.Page) (*api.ListResult[api.Recipe], error) {
			return h.recipes.ListRecipes(ctx, &api.ListRecipesRequest{Page: p})
		}, dashboardPageSize)
		snap.Recipes = items
		return err
	})

	return snap, g.Wait()
}

func (h *DashboardHTTPHandler) GetDashboard(c *gin.Context) {
	snap, err := h.snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard.Summarize(snap, h.now(), h.windowDays))
}
