package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoangdh1/eCommerce/internal/cron"
	product "github.com/hoangdh1/eCommerce/internal/products"
	"github.com/hoangdh1/eCommerce/internal/promotions"
	"github.com/hoangdh1/eCommerce/pkg/cache"
	"github.com/hoangdh1/eCommerce/pkg/config"
	"github.com/hoangdh1/eCommerce/pkg/db"
	"github.com/hoangdh1/eCommerce/pkg/instance"
	"github.com/hoangdh1/eCommerce/pkg/jobqueue"
	"github.com/hoangdh1/eCommerce/pkg/logger"
	"github.com/hoangdh1/eCommerce/pkg/metrics"
	"github.com/hoangdh1/eCommerce/pkg/migrate"
	"github.com/hoangdh1/eCommerce/pkg/redis"
)

const maintenanceLock = "maintenance"

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID("worker"),
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*Service, error) {
	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	queue, err := jobqueue.NewQueue(jobqueue.QueueParams{
		Store:             redisClient,
		Metrics:           jobMetrics,
		DefaultAttempts:   cfg.Jobs.DefaultAttempts,
		VisibilityTimeout: cfg.Jobs.VisibilityTimeout,
		RetryBackoff:      cfg.Jobs.RetryBackoff,
	})
	if err != nil {
		return nil, err
	}
	entityCache, err := cache.New(redisClient, cfg.Cache.TTL, logg)
	if err != nil {
		return nil, err
	}
	promotionService, err := promotions.NewService(promotions.ServiceParams{
		Products: product.NewRepository(dbClient.DB()),
		Queue:    queue,
		Cache:    entityCache,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	handlers := jobqueue.NewRegistry()
	if err := promotions.RegisterHandlers(handlers, promotionService); err != nil {
		return nil, err
	}
	worker, err := jobqueue.NewWorker(jobqueue.WorkerParams{
		Queue:        queue,
		Registry:     handlers,
		Logger:       logg,
		Metrics:      jobMetrics,
		BatchSize:    cfg.Jobs.BatchSize,
		PollInterval: cfg.Jobs.PollInterval(),
	})
	if err != nil {
		return nil, err
	}

	requeue, err := cron.NewRequeueStaleJob(cron.RequeueStaleJobParams{
		Logger: logg,
		Queue:  queue,
		Batch:  cfg.Jobs.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	stats, err := cron.NewQueueStatsJob(logg, queue)
	if err != nil {
		return nil, err
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(maintenanceLock), 0)
	if err != nil {
		return nil, err
	}
	registry, err := cron.NewRegistry(requeue, stats)
	if err != nil {
		return nil, err
	}
	maintenance, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Jobs.ReaperInterval,
	})
	if err != nil {
		return nil, err
	}

	return NewService(ServiceParams{
		Logger: logg,
		DB:     dbClient,
		Redis:  redisClient,
		Worker: worker,
		Cron:   maintenance,
	})
}
