package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harborline/cruisebook-backend/api/controllers"
	webhookcontrollers "github.com/harborline/cruisebook-backend/api/controllers/webhooks"
	"github.com/harborline/cruisebook-backend/api/routes"
	"github.com/harborline/cruisebook-backend/internal/bookings"
	"github.com/harborline/cruisebook-backend/internal/cruises"
	"github.com/harborline/cruisebook-backend/internal/payments"
	"github.com/harborline/cruisebook-backend/internal/promotions"
	"github.com/harborline/cruisebook-backend/pkg/config"
	"github.com/harborline/cruisebook-backend/pkg/db"
	"github.com/harborline/cruisebook-backend/pkg/logger"
	"github.com/harborline/cruisebook-backend/pkg/metrics"
	"github.com/harborline/cruisebook-backend/pkg/migrate"
	"github.com/harborline/cruisebook-backend/pkg/redis"
	"github.com/harborline/cruisebook-backend/pkg/stripe"
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
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pricingMetrics := metrics.NewPricingMetrics(registry)

	promotionService := promotions.NewService(promotions.ServiceParams{
		Repo:     promotions.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Cache:    redisClient,
		CacheTTL: cfg.Promotions.CacheTTL,
		Logger:   logg,
	})
	cruiseService := cruises.NewService(cruises.ServiceParams{
		Repo:   cruises.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	bookingService := bookings.NewService(bookings.ServiceParams{
		Repo:       bookings.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Catalog:    cruiseService,
		Promotions: promotionService,
		Metrics:    pricingMetrics,
		Logger:     logg,
	})

	var stripeVerifier routes.StripeVerifier
	var paymentIntents controllers.PaymentIntentService
	var webhookService webhookcontrollers.StripeWebhookService
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}
		paymentService := payments.NewService(payments.ServiceParams{
			Intents:  stripeClient,
			Bookings: bookingService,
			Marker:   redisClient,
			Logger:   logg,
		})
		stripeVerifier = stripeClient
		paymentIntents = paymentService
		webhookService = paymentService
	} else {
		logg.Warn(context.Background(), "stripe not configured; payment endpoints disabled")
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

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, readiness, registry, stripeVerifier, routes.Services{
			Cruises:    cruiseService,
			Quotes:     bookingService,
			Bookings:   bookingService,
			Promotions: promotionService,
			Payments:   paymentIntents,
			Webhooks:   webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
