package cron

import (
	"context"
	"fmt"

	"github.com/hoangdh1/eCommerce/pkg/logger"
)

const defaultRequeueBatch = 100

type expiredRequeuer interface {
	RequeueExpired(ctx context.Context, limit int) (int, error)
}

// RequeueStaleJobParams configure the visibility reaper.
type RequeueStaleJobParams struct {
	Logger *logger.Logger
	Queue  expiredRequeuer
	Batch  int
}

type requeueStaleJob struct {
	logg  *logger.Logger
	queue expiredRequeuer
	batch int
}

// NewRequeueStaleJob returns the job that hands jobs abandoned by a crashed
// worker back to the ready set once their visibility deadline passes.
func NewRequeueStaleJob(params RequeueStaleJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Queue == nil {
		return nil, fmt.Errorf("job queue required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultRequeueBatch
	}
	return &requeueStaleJob{logg: params.Logger, queue: params.Queue, batch: batch}, nil
}

func (j *requeueStaleJob) Name() string { return "requeue-stale-jobs" }

// Run drains expired inflight entries batch by batch until none remain.
func (j *requeueStaleJob) Run(ctx context.Context) error {
	total := 0
	for {
		n, err := j.queue.RequeueExpired(ctx, j.batch)
		total += n
		if err != nil {
			return fmt.Errorf("requeue expired jobs: %w", err)
		}
		if n < j.batch {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if total > 0 {
		j.logg.Warn(j.logg.WithField(ctx, "requeued", total), "requeued jobs past their visibility deadline")
	}
	return nil
}
