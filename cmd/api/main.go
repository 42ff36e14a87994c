package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/salesdeskhq/salesdesk-backend/api/routes"
	"github.com/salesdeskhq/salesdesk-backend/internal/checkout"
	"github.com/salesdeskhq/salesdesk-backend/internal/commission"
	"github.com/salesdeskhq/salesdesk-backend/internal/inventory"
	"github.com/salesdeskhq/salesdesk-backend/internal/payouts"
	"github.com/salesdeskhq/salesdesk-backend/internal/products"
	"github.com/salesdeskhq/salesdesk-backend/internal/sales"
	"github.com/salesdeskhq/salesdesk-backend/internal/wallet"
	"github.com/salesdeskhq/salesdesk-backend/pkg/config"
	"github.com/salesdeskhq/salesdesk-backend/pkg/db"
	"github.com/salesdeskhq/salesdesk-backend/pkg/logger"
	"github.com/salesdeskhq/salesdesk-backend/pkg/metrics"
	"github.com/salesdeskhq/salesdesk-backend/pkg/migrate"
	"github.com/salesdeskhq/salesdesk-backend/pkg/outbox"
	"github.com/salesdeskhq/salesdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	payoutMetrics := metrics.NewPayoutMetrics(registry)

	gormDB := dbClient.DB()
	inventoryRepo := inventory.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	salesRepo := sales.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	tierRepo := commission.NewRepository(gormDB)
	payoutRepo := payouts.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	checkoutSvc, err := checkout.NewService(
		dbClient,
		productsRepo,
		inventoryRepo,
		salesRepo,
		walletRepo,
		tierRepo,
		outboxSvc,
		cfg.Checkout,
		cfg.Commission,
		checkoutMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	salesSvc, err := sales.NewService(salesRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}
	walletSvc, err := wallet.NewService(walletRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}
	commissionSvc, err := commission.NewService(tierRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create commission service", err)
		os.Exit(1)
	}
	payoutsSvc, err := payouts.NewService(dbClient, payoutRepo, walletRepo, outboxSvc, payoutMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}
	productsSvc, err := products.NewService(productsRepo, inventoryRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Registry:   registry,
			Checkout:   checkoutSvc,
			Sales:      salesSvc,
			Wallets:    walletSvc,
			Commission: commissionSvc,
			Payouts:    payoutsSvc,
			Products:   productsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
