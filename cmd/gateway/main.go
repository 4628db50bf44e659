package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"whisk-system/config"
	"whisk-system/internal/database"
	"whisk-system/internal/gateway"
	"whisk-system/internal/gateway/clients"
	"whisk-system/internal/health"
	billing "whisk-system/internal/services/billing/handler"
	customers "whisk-system/internal/services/customers/handler"
	inventory "whisk-system/internal/services/inventory/handler"
	recipes "whisk-system/internal/services/recipes/handler"
	user "whisk-system/internal/services/user/handler"
	sysutils "whisk-system/internal/utils"
)

const healthInterval = 15 * time.Second

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.Seed(db, cfg.DB.AdminPassword); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	redisClient, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Warning: running without cache until Redis is reachable: %v", err)
	}
	defer redisClient.Close()

	checker := health.NewChecker(db, redisClient)
	go checker.Run(ctx, healthInterval)

	grpcServer, err := startGRPC(cfg.Server.GRPCPort, checker)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	defer grpcServer.GracefulStop()

	healthClient, err := clients.NewHealthClient("localhost:" + cfg.Server.GRPCPort)
	if err != nil {
		log.Printf("Warning: detailed health will report unavailable: %v", err)
	}
	defer healthClient.Close()

	tokens := sysutils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	r, err := gateway.NewRouter(gateway.Services{
		Auth:      user.NewUserHandler(db, tokens),
		Inventory: inventory.NewInventoryHandler(db, redisClient),
		Recipes:   recipes.NewRecipeHandler(db, redisClient),
		Billing:   billing.NewBillingHandler(db, redisClient, cfg.Shop.InvoicePrefix),
		Customers: customers.NewCustomerHandler(db, redisClient, cfg.Shop.UpcomingWindowDays),
	}, gateway.Options{
		RateLimit:          cfg.Server.RateLimit,
		ShopName:           cfg.Shop.Name,
		UpcomingWindowDays: cfg.Shop.UpcomingWindowDays,
		Health:             healthClient,
	})
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("%s API listening on :%s", cfg.Shop.Name, cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start gateway: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Gateway shutdown: %v", err)
	}
}
