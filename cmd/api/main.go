package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnaszs/servizas/api/controllers"
	"github.com/arnaszs/servizas/api/routes"
	"github.com/arnaszs/servizas/internal/aggregation"
	"github.com/arnaszs/servizas/internal/catalog"
	"github.com/arnaszs/servizas/internal/clients"
	"github.com/arnaszs/servizas/internal/dashboard"
	"github.com/arnaszs/servizas/internal/ledger"
	"github.com/arnaszs/servizas/internal/orders"
	"github.com/arnaszs/servizas/internal/reviews"
	"github.com/arnaszs/servizas/internal/vehicles"
	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/db"
	"github.com/arnaszs/servizas/pkg/logger"
	"github.com/arnaszs/servizas/pkg/metrics"
	"github.com/arnaszs/servizas/pkg/migrate"
	"github.com/arnaszs/servizas/pkg/redis"
	"github.com/arnaszs/servizas/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

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

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing, "servizas-api", cfg.App.Env, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to init tracing", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logg.Error(ctx, "error flushing traces", err)
		}
	}()

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

	readyChecks := []controllers.ReadyCheck{{Name: "database", Check: dbClient.Ping}}

	deps := routes.Dependencies{}
	if cfg.Redis.Enabled() {
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
		deps.Idempotency = redisClient
		readyChecks = append(readyChecks, controllers.ReadyCheck{Name: "redis", Check: redisClient.Ping})
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency keys are not enforced")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine, err := aggregation.NewEngine(aggregation.EngineParams{
		TxRunner: dbClient,
		Config:   cfg.Aggregation,
		Metrics:  metrics.NewAggregationMetrics(registry),
		Logger:   logg,
	})
	mustBuild(logg, "aggregation engine", err)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	mustBuild(logg, "catalog service", err)
	clientService, err := clients.NewService(clients.NewRepository(dbClient.DB()))
	mustBuild(logg, "client service", err)
	vehicleService, err := vehicles.NewService(vehicles.NewRepository(dbClient.DB()))
	mustBuild(logg, "vehicle service", err)
	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	mustBuild(logg, "order service", err)
	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:     ledger.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Engine:   engine,
		Logger:   logg,
	})
	mustBuild(logg, "ledger service", err)
	reviewService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()))
	mustBuild(logg, "review service", err)
	dashboardService, err := dashboard.NewService(dashboard.NewRepository(dbClient.DB()))
	mustBuild(logg, "dashboard service", err)

	deps.Catalog = catalogService
	deps.Clients = clientService
	deps.Vehicles = vehicleService
	deps.Orders = orderService
	deps.Ledger = ledgerService
	deps.Reviews = reviewService
	deps.Dashboard = dashboardService
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	deps.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	deps.ReadyChecks = readyChecks

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}

func mustBuild(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to build "+component, err)
	os.Exit(1)
}
