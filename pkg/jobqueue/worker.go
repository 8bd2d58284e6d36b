package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/multierr"

	"github.com/hoangdh1/eCommerce/pkg/logger"
	"github.com/hoangdh1/eCommerce/pkg/metrics"
)

const (
	defaultBatchSize = 20
	defaultPollMs    = 500
	maxBackoff       = 10 * time.Second
	jitterWindow     = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type jobSource interface {
	Claim(ctx context.Context, limit int) ([]Job, error)
	Complete(ctx context.Context, job Job) error
	Fail(ctx context.Context, job Job, cause error) (bool, error)
}

// WorkerParams configure a Worker.
type WorkerParams struct {
	Queue        jobSource
	Registry     *Registry
	Logger       *logger.Logger
	Metrics      *metrics.JobMetrics
	BatchSize    int
	PollInterval time.Duration
}

// Worker polls the queue and dispatches due jobs to their handlers.
type Worker struct {
	queue        jobSource
	registry     *Registry
	logg         *logger.Logger
	metrics      *metrics.JobMetrics
	batchSize    int
	pollInterval time.Duration
}

func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Queue == nil {
		return nil, errors.New("job queue is required")
	}
	if params.Registry == nil {
		return nil, errors.New("handler registry is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := params.PollInterval
	if interval <= 0 {
		interval = time.Duration(defaultPollMs) * time.Millisecond
	}
	return &Worker{
		queue:        params.Queue,
		registry:     params.Registry,
		logg:         params.Logger,
		metrics:      params.Metrics,
		batchSize:    batch,
		pollInterval: interval,
	}, nil
}

// Run polls until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w.logg.Info(w.logg.WithField(ctx, "handlers", w.registry.Names()), "job worker started")

	backoff := w.pollInterval
	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "job worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := w.processBatch(ctx)
		if err != nil {
			w.logg.Error(ctx, "job worker batch error", err)
			backoff = nextBackoff(backoff, w.pollInterval, maxBackoff)
			if err := sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = w.pollInterval
		if processed {
			continue
		}
		if err := sleep(ctx, withJitter(w.pollInterval)); err != nil {
			return err
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) (bool, error) {
	jobs, err := w.queue.Claim(ctx, w.batchSize)
	if len(jobs) == 0 {
		return false, err
	}
	var settleErr error
	for _, job := range jobs {
		settleErr = multierr.Append(settleErr, w.execute(ctx, job))
	}
	return true, multierr.Append(err, settleErr)
}

func (w *Worker) execute(ctx context.Context, job Job) error {
	jobCtx := w.logg.WithJob(ctx, job.Name, job.ID, job.Attempt)
	w.logg.Info(jobCtx, "job start")

	start := time.Now()
	runErr := w.invoke(jobCtx, job)
	duration := time.Since(start)
	w.metrics.ObserveDuration(job.Name, duration)
	jobCtx = w.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	if runErr == nil {
		w.metrics.IncSuccess(job.Name)
		w.logg.Info(jobCtx, "job completed")
		return w.queue.Complete(ctx, job)
	}

	w.metrics.IncFailure(job.Name)
	dead, err := w.queue.Fail(ctx, job, runErr)
	if err != nil {
		return err
	}
	if dead {
		w.logg.Error(jobCtx, "job exhausted attempts; moved to dead set", runErr)
		return nil
	}
	w.logg.Warn(w.logg.WithField(jobCtx, "error", runErr.Error()), "job failed; retry scheduled")
	return nil
}

func (w *Worker) invoke(ctx context.Context, job Job) (err error) {
	handler, ok := w.registry.Handler(job.Name)
	if !ok {
		return fmt.Errorf("no handler registered for %s", job.Name)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, job)
}

func nextBackoff(current, base, limit time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
