package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/hoangdh1/eCommerce/pkg/logger"
)

type runner interface {
	Run(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type ServiceParams struct {
	Logger *logger.Logger
	DB     pinger
	Redis  pinger
	Worker runner
	Cron   runner
}

// Service runs the job worker and the maintenance loop side by side. When
// either stops with an error the other is canceled.
type Service struct {
	logg   *logger.Logger
	db     pinger
	redis  pinger
	worker runner
	cron   runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.Worker == nil {
		return nil, errors.New("job worker is required")
	}
	if params.Cron == nil {
		return nil, errors.New("cron service is required")
	}
	return &Service{
		logg:   params.Logger,
		db:     params.DB,
		redis:  params.Redis,
		worker: params.Worker,
		cron:   params.Cron,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run blocks until ctx is canceled or a component fails. Cancellation is not
// reported as an error.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	start := func(name string, r runner) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Run(runCtx)
			if err == nil || errors.Is(err, context.Canceled) {
				return
			}
			s.logg.Error(runCtx, name+" stopped unexpectedly", err)
			mu.Lock()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			mu.Unlock()
			cancel()
		}()
	}
	start("job worker", s.worker)
	start("cron", s.cron)
	wg.Wait()

	if errs == nil && ctx.Err() != nil {
		s.logg.Info(ctx, "worker context canceled")
	}
	return errs
}
