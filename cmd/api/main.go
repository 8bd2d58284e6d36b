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

	"github.com/hoangdh1/eCommerce/api/routes"
	"github.com/hoangdh1/eCommerce/internal/cart"
	"github.com/hoangdh1/eCommerce/internal/customers"
	"github.com/hoangdh1/eCommerce/internal/inventory"
	"github.com/hoangdh1/eCommerce/internal/orders"
	product "github.com/hoangdh1/eCommerce/internal/products"
	"github.com/hoangdh1/eCommerce/internal/promotions"
	"github.com/hoangdh1/eCommerce/internal/shippers"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/config"
	"github.com/hoangdh1/eCommerce/pkg/db"
	"github.com/hoangdh1/eCommerce/pkg/env"
	"github.com/hoangdh1/eCommerce/pkg/instance"
	"github.com/hoangdh1/eCommerce/pkg/jobqueue"
	"github.com/hoangdh1/eCommerce/pkg/logger"
	"github.com/hoangdh1/eCommerce/pkg/metrics"
	"github.com/hoangdh1/eCommerce/pkg/migrate"
	"github.com/hoangdh1/eCommerce/pkg/redis"
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

	handler, err := buildRouter(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID("api"),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func buildRouter(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	conn := dbClient.DB()

	entityCache, err := cache.New(redisClient, cfg.Cache.TTL, logg)
	if err != nil {
		return nil, err
	}
	queue, err := jobqueue.NewQueue(jobqueue.QueueParams{
		Store:             redisClient,
		Metrics:           metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		DefaultAttempts:   cfg.Jobs.DefaultAttempts,
		VisibilityTimeout: cfg.Jobs.VisibilityTimeout,
		RetryBackoff:      cfg.Jobs.RetryBackoff,
	})
	if err != nil {
		return nil, err
	}

	productRepo := product.NewRepository(conn)
	productService, err := product.NewService(productRepo, dbClient, entityCache)
	if err != nil {
		return nil, err
	}
	reconciler, err := inventory.NewReconciler(product.NewStockStore(productRepo))
	if err != nil {
		return nil, err
	}

	customerRepo := customers.NewRepository(conn)
	customerService, err := customers.NewService(customerRepo)
	if err != nil {
		return nil, err
	}
	shipperRepo := shippers.NewRepository(conn)
	shipperService, err := shippers.NewService(shipperRepo)
	if err != nil {
		return nil, err
	}

	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, customerRepo, reconciler)
	if err != nil {
		return nil, err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:             orders.NewRepository(conn),
		Tx:               dbClient,
		Customers:        customerRepo,
		Shippers:         shipperRepo,
		Reconciler:       reconciler,
		Cache:            entityCache,
		Logger:           logg,
		MaxUnitsPerOrder: cfg.Limits.MaxUnitsPerOrder,
	})
	if err != nil {
		return nil, err
	}
	promotionService, err := promotions.NewService(promotions.ServiceParams{
		Products: productRepo,
		Queue:    queue,
		Cache:    entityCache,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(routes.RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Redis:      redisClient,
		Gatherer:   prometheus.DefaultGatherer,
		Products:   productService,
		Promotions: promotionService,
		Customers:  customerService,
		Shippers:   shipperService,
		Cart:       cartService,
		Orders:     orderService,
	}), nil
}
