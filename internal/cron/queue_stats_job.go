package cron

import (
	"context"
	"fmt"

	"github.com/hoangdh1/eCommerce/pkg/jobqueue"
	"github.com/hoangdh1/eCommerce/pkg/logger"
)

type statsReader interface {
	Stats(ctx context.Context) (jobqueue.Stats, error)
}

type queueStatsJob struct {
	logg  *logger.Logger
	queue statsReader
}

// NewQueueStatsJob logs queue depth every cycle and warns when jobs were
// dead-lettered.
func NewQueueStatsJob(logg *logger.Logger, queue statsReader) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if queue == nil {
		return nil, fmt.Errorf("job queue required")
	}
	return &queueStatsJob{logg: logg, queue: queue}, nil
}

func (j *queueStatsJob) Name() string { return "queue-stats" }

func (j *queueStatsJob) Run(ctx context.Context) error {
	stats, err := j.queue.Stats(ctx)
	if err != nil {
		return fmt.Errorf("read queue stats: %w", err)
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"ready":    stats.Ready,
		"inflight": stats.Inflight,
		"dead":     stats.Dead,
	})
	if stats.Dead > 0 {
		j.logg.Warn(ctx, "dead-lettered jobs present")
		return nil
	}
	j.logg.Debug(ctx, "job queue depth")
	return nil
}
