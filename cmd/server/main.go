package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/vanir/internal"
	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/events"
	"github.com/dukerupert/vanir/internal/handler"
	"github.com/dukerupert/vanir/internal/middleware"
	"github.com/dukerupert/vanir/internal/postgres"
	"github.com/dukerupert/vanir/internal/service"
	"github.com/dukerupert/vanir/internal/shipping"
	"github.com/dukerupert/vanir/internal/telemetry"
	"github.com/dukerupert/vanir/internal/vat"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewDiscountStore(pool)

	// VAT components for the configured jurisdiction
	resolver := vat.NewStatusResolver(cfg.Vat.HomeCountry)
	calculator := vat.NewCalculator(vat.RateTable{
		domain.VatRateStandard:      cfg.Vat.StandardRate,
		domain.VatRateReduced:       cfg.Vat.ReducedRate,
		domain.VatRateSecondReduced: cfg.Vat.SecondReducedRate,
		domain.VatRateZero:          decimal.Zero,
	})
	logger.Info("VAT calculator initialized",
		"home_country", cfg.Vat.HomeCountry,
		"standard_rate", cfg.Vat.StandardRate.String(),
	)

	// Event publisher: NATS when enabled, no-op otherwise
	var publisher events.Publisher = events.Noop{}
	if cfg.Nats.Enabled {
		natsPublisher, err := events.NewNATSPublisher(cfg.Nats.URL, cfg.Nats.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS event publisher connected", "url", cfg.Nats.URL)
	}

	// Metrics
	httpMetrics := middleware.NewMetrics(cfg.Metrics.Namespace)
	businessMetrics := telemetry.NewBusinessMetrics(cfg.Metrics.Namespace)

	// Services
	pricingService := service.NewPricingService(store, resolver, calculator, logger)
	redemptionService := service.NewRedemptionService(store, publisher, businessMetrics, logger)

	// Shipping provider (flat rate)
	shippingProvider := shipping.NewFlatRateProvider([]shipping.FlatRate{
		{ServiceName: "Standard Shipping", ServiceCode: "standard", CostCents: cfg.Shipping.StandardCostCents, DaysMin: 3, DaysMax: 5},
		{ServiceName: "Express Shipping", ServiceCode: "express", CostCents: cfg.Shipping.ExpressCostCents, DaysMin: 1, DaysMax: 2},
	})

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(httpMetrics.Middleware())

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "database unreachable")
		}
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	handler.NewPricingHandler(pricingService, shippingProvider, businessMetrics, logger).Register(api)
	handler.NewDiscountHandler(redemptionService, logger).Register(api)

	// Start server with graceful shutdown
	addr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		logger.Info("Starting pricing server", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
