// Package gateway assembles the HTTP API: middleware, routes and health
// endpoints.
package gateway

import (
	"context"
	"net/http"
	"time"

	"whisk-system/internal/gateway/clients"
	"whisk-system/internal/gateway/handlers"
	"whisk-system/internal/gateway/middleware"
	"whisk-system/internal/health"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthService issues tokens at login and checks them on protected routes.
type AuthService interface {
	handlers.AuthService
	middleware.Authenticator
}

type Services struct {
	Auth      AuthService
	Inventory handlers.InventoryService
	Recipes   handlers.RecipeService
	Billing   handlers.BillingService
	Customers handlers.CustomerService
}

type Options struct {
	RateLimit          string
	ShopName           string
	UpcomingWindowDays int
	// Health may be nil; the detailed check then reports every dependency
	// as unavailable.
	Health *clients.HealthClient
}

func NewRouter(svc Services, opts Options) (*gin.Engine, error) {
	limit, err := middleware.RateLimit(opts.RateLimit)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())
	r.Use(limit)
	r.Use(middleware.Metrics())
	r.Use(gin.Logger())

	userHandler := handlers.NewUserHTTPHandler(svc.Auth)
	inventoryHandler := handlers.NewInventoryHTTPHandler(svc.Inventory)
	recipeHandler := handlers.NewRecipeHTTPHandler(svc.Recipes)
	billingHandler := handlers.NewBillingHTTPHandler(svc.Billing)
	customerHandler := handlers.NewCustomerHTTPHandler(svc.Customers)
	dashboardHandler := handlers.NewDashboardHTTPHandler(svc.Inventory, svc.Recipes, svc.Billing, svc.Customers, opts.UpcomingWindowDays)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to " + opts.ShopName + " Pastry Shop API"})
	})

	// --- Public API Group ---
	public := r.Group("/api")
	{
		public.POST("/token", userHandler.Login)
		public.GET("/stock_items_public", inventoryHandler.ListPublicStockItems)
	}

	// --- Protected API Group ---
	protected := r.Group("/api")
	protected.Use(middleware.JWTAuth(svc.Auth))
	{
		protected.GET("/users/me", userHandler.Me)

		stock := protected.Group("/stock_items")
		{
			stock.GET("", inventoryHandler.ListStockItems)
			stock.POST("", inventoryHandler.CreateStockItem)
			stock.GET("/:id", inventoryHandler.GetStockItem)
			stock.PUT("/:id", inventoryHandler.UpdateStockItem)
			stock.DELETE("/:id", inventoryHandler.DeleteStockItem)
			stock.POST("/:id/purchases", inventoryHandler.RecordPurchase)
		}

		recipes := protected.Group("/recipes")
		{
			recipes.GET("", recipeHandler.ListRecipes)
			recipes.POST("", recipeHandler.CreateRecipe)
			recipes.GET("/:id", recipeHandler.GetRecipe)
			recipes.PUT("/:id", recipeHandler.UpdateRecipe)
			recipes.DELETE("/:id", recipeHandler.DeleteRecipe)
		}

		invoices := protected.Group("/invoices")
		{
			invoices.GET("", billingHandler.ListInvoices)
			invoices.POST("", billingHandler.CreateInvoice)
			invoices.GET("/export", billingHandler.ExportInvoices)
			invoices.GET("/:id", billingHandler.GetInvoice)
			invoices.PUT("/:id", billingHandler.UpdateInvoice)
			invoices.DELETE("/:id", billingHandler.DeleteInvoice)
		}

		customers := protected.Group("/customers")
		{
			customers.GET("", customerHandler.ListCustomers)
			customers.POST("", customerHandler.CreateCustomer)
			customers.GET("/upcoming", customerHandler.Upcoming)
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.PUT("/:id", customerHandler.UpdateCustomer)
			customers.DELETE("/:id", customerHandler.DeleteCustomer)
		}

		protected.GET("/dashboard", dashboardHandler.GetDashboard)
	}

	r.GET("/health", healthCheckHandler())
	r.GET("/health/detailed", detailedHealthCheckHandler(opts.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	}
}

func detailedHealthCheckHandler(hc *clients.HealthClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		services := map[string]string{}
		overallStatus := "healthy"
		for _, name := range health.Services {
			st := hc.Status(ctx, name)
			services[name] = st
			if st != "SERVING" {
				overallStatus = "degraded"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"overall_status": overallStatus,
			"services":       services,
			"timestamp":      time.Now(),
		})
	}
}
