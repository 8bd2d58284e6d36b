package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/pkg/metrics"
	"github.com/hoangdh1/eCommerce/pkg/redis"
)

const (
	defaultAttempts      = 2
	defaultVisibility    = time.Minute
	defaultRetryBackoff  = 5 * time.Second
	errVisibilityExpired = "visibility timeout expired before completion"
)

// Store is the subset of the Redis client the queue relies on.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRangeByScore(ctx context.Context, key string, max float64, limit int64) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)
	JobsKey(parts ...string) string
}

// QueueParams configure a Queue.
type QueueParams struct {
	Store             Store
	Metrics           *metrics.JobMetrics
	DefaultAttempts   int
	VisibilityTimeout time.Duration
	RetryBackoff      time.Duration
	Clock             func() time.Time
}

// Queue enqueues, claims and settles jobs.
type Queue struct {
	store        Store
	metrics      *metrics.JobMetrics
	attempts     int
	visibility   time.Duration
	retryBackoff time.Duration
	now          func() time.Time
}

// Stats reports the size of each queue state.
type Stats struct {
	Ready    int64 `json:"ready"`
	Inflight int64 `json:"inflight"`
	Dead     int64 `json:"dead"`
}

func NewQueue(params QueueParams) (*Queue, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("job store required")
	}
	q := &Queue{
		store:        params.Store,
		metrics:      params.Metrics,
		attempts:     params.DefaultAttempts,
		visibility:   params.VisibilityTimeout,
		retryBackoff: params.RetryBackoff,
		now:          params.Clock,
	}
	if q.attempts <= 0 {
		q.attempts = defaultAttempts
	}
	if q.visibility <= 0 {
		q.visibility = defaultVisibility
	}
	if q.retryBackoff <= 0 {
		q.retryBackoff = defaultRetryBackoff
	}
	if q.now == nil {
		q.now = time.Now
	}
	return q, nil
}

// Enqueue stores a job that becomes due after opts.Delay and returns its id.
// A negative delay is treated as zero.
func (q *Queue) Enqueue(ctx context.Context, name string, payload any, opts Options) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("job name required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", name, err)
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = q.attempts
	}
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}

	now := q.now()
	job := Job{
		ID:          uuid.NewString(),
		Name:        name,
		Payload:     raw,
		MaxAttempts: attempts,
		RunAt:       now.Add(delay),
		EnqueuedAt:  now,
	}
	if err := q.save(ctx, job); err != nil {
		return "", err
	}
	if err := q.store.ZAdd(ctx, q.readyKey(), score(job.RunAt), job.ID); err != nil {
		_ = q.store.Del(ctx, q.jobKey(job.ID))
		return "", fmt.Errorf("schedule job %s: %w", job.ID, err)
	}
	q.metrics.IncEnqueued(name)
	return job.ID, nil
}

// Cancel removes a job that has not been claimed yet. It reports false when
// the job already ran, is running, or never existed.
func (q *Queue) Cancel(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	removed, err := q.store.ZRem(ctx, q.readyKey(), id)
	if err != nil {
		return false, fmt.Errorf("cancel job %s: %w", id, err)
	}
	if removed == 0 {
		return false, nil
	}
	if err := q.store.Del(ctx, q.jobKey(id)); err != nil {
		return true, fmt.Errorf("delete canceled job %s: %w", id, err)
	}
	return true, nil
}

// Lookup returns the stored job body, or nil when it no longer exists.
func (q *Queue) Lookup(ctx context.Context, id string) (*Job, error) {
	raw, err := q.store.Get(ctx, q.jobKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Claim moves up to limit due jobs to the inflight set and returns them with
// their attempt counter advanced. Jobs claimed by another worker are skipped.
func (q *Queue) Claim(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 1
	}
	now := q.now()
	ids, err := q.store.ZRangeByScore(ctx, q.readyKey(), score(now), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	claimed := make([]Job, 0, len(ids))
	for _, id := range ids {
		if err := q.store.ZAdd(ctx, q.inflightKey(), score(now.Add(q.visibility)), id); err != nil {
			return claimed, fmt.Errorf("mark job %s inflight: %w", id, err)
		}
		removed, err := q.store.ZRem(ctx, q.readyKey(), id)
		if err != nil {
			return claimed, fmt.Errorf("claim job %s: %w", id, err)
		}
		if removed == 0 {
			continue
		}

		job, err := q.Lookup(ctx, id)
		if err != nil {
			return claimed, err
		}
		if job == nil {
			_, _ = q.store.ZRem(ctx, q.inflightKey(), id)
			continue
		}
		if job.Exhausted() {
			if _, err := q.bury(ctx, *job, errVisibilityExpired); err != nil {
				return claimed, err
			}
			continue
		}

		job.Attempt++
		if err := q.save(ctx, *job); err != nil {
			return claimed, err
		}
		claimed = append(claimed, *job)
	}
	return claimed, nil
}

// Complete settles a successfully handled job.
func (q *Queue) Complete(ctx context.Context, job Job) error {
	if _, err := q.store.ZRem(ctx, q.inflightKey(), job.ID); err != nil {
		return fmt.Errorf("settle job %s: %w", job.ID, err)
	}
	if err := q.store.Del(ctx, q.jobKey(job.ID)); err != nil {
		return fmt.Errorf("delete job %s: %w", job.ID, err)
	}
	return nil
}

// Fail records a failed attempt. The job is rescheduled with a linear backoff
// while attempts remain; otherwise it moves to the dead set and Fail reports true.
func (q *Queue) Fail(ctx context.Context, job Job, cause error) (bool, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	if job.Exhausted() {
		return q.bury(ctx, job, msg)
	}

	job.LastError = msg
	job.RunAt = q.now().Add(q.retryBackoff * time.Duration(job.Attempt))
	if err := q.save(ctx, job); err != nil {
		return false, err
	}
	if err := q.store.ZAdd(ctx, q.readyKey(), score(job.RunAt), job.ID); err != nil {
		return false, fmt.Errorf("reschedule job %s: %w", job.ID, err)
	}
	if _, err := q.store.ZRem(ctx, q.inflightKey(), job.ID); err != nil {
		return false, fmt.Errorf("release job %s: %w", job.ID, err)
	}
	return false, nil
}

// RequeueExpired returns inflight jobs whose visibility deadline passed to the
// ready set so another worker can pick them up.
func (q *Queue) RequeueExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	now := q.now()
	ids, err := q.store.ZRangeByScore(ctx, q.inflightKey(), score(now), int64(limit))
	if err != nil {
		return 0, fmt.Errorf("list expired jobs: %w", err)
	}
	requeued := 0
	for _, id := range ids {
		if err := q.store.ZAdd(ctx, q.readyKey(), score(now), id); err != nil {
			return requeued, fmt.Errorf("requeue job %s: %w", id, err)
		}
		if _, err := q.store.ZRem(ctx, q.inflightKey(), id); err != nil {
			return requeued, fmt.Errorf("release job %s: %w", id, err)
		}
		requeued++
	}
	return requeued, nil
}

// Stats returns the current size of each state.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error
	if stats.Ready, err = q.store.ZCard(ctx, q.readyKey()); err != nil {
		return stats, fmt.Errorf("count ready: %w", err)
	}
	if stats.Inflight, err = q.store.ZCard(ctx, q.inflightKey()); err != nil {
		return stats, fmt.Errorf("count inflight: %w", err)
	}
	if stats.Dead, err = q.store.ZCard(ctx, q.deadKey()); err != nil {
		return stats, fmt.Errorf("count dead: %w", err)
	}
	return stats, nil
}

func (q *Queue) bury(ctx context.Context, job Job, msg string) (bool, error) {
	job.LastError = msg
	if err := q.save(ctx, job); err != nil {
		return false, err
	}
	if err := q.store.ZAdd(ctx, q.deadKey(), score(q.now()), job.ID); err != nil {
		return false, fmt.Errorf("bury job %s: %w", job.ID, err)
	}
	if _, err := q.store.ZRem(ctx, q.inflightKey(), job.ID); err != nil {
		return true, fmt.Errorf("release buried job %s: %w", job.ID, err)
	}
	q.metrics.IncDeadLettered(job.Name)
	return true, nil
}

func (q *Queue) save(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := q.store.Set(ctx, q.jobKey(job.ID), string(body), 0); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

func (q *Queue) jobKey(id string) string { return q.store.JobsKey("job", id) }
func (q *Queue) readyKey() string        { return q.store.JobsKey("ready") }
func (q *Queue) inflightKey() string     { return q.store.JobsKey("inflight") }
func (q *Queue) deadKey() string         { return q.store.JobsKey("dead") }
