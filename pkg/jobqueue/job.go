// Package jobqueue is a Redis-backed delayed job queue with at-least-once
// delivery.
//
// Layout under the jobs namespace:
//
//	job:<id>  JSON job body
//	ready     sorted set of job ids scored by due time (unix ms)
//	inflight  sorted set of claimed job ids scored by visibility deadline
//	dead      sorted set of job ids that exhausted their attempts
package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Handler executes one delivery of a job. Handlers must tolerate redelivery.
type Handler func(ctx context.Context, job Job) error

// Options tune a single enqueue.
type Options struct {
	Delay    time.Duration
	Attempts int
}

// Job is the persisted unit of work.
type Job struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	RunAt       time.Time       `json:"run_at"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	LastError   string          `json:"last_error,omitempty"`
}

// Decode unmarshals the payload into dest.
func (j Job) Decode(dest any) error {
	if len(j.Payload) == 0 {
		return fmt.Errorf("job %s has empty payload", j.ID)
	}
	if err := json.Unmarshal(j.Payload, dest); err != nil {
		return fmt.Errorf("decode job %s payload: %w", j.ID, err)
	}
	return nil
}

// Exhausted reports whether no attempts remain after the current one.
func (j Job) Exhausted() bool {
	return j.Attempt >= j.MaxAttempts
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
