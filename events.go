package pgqueue

import "time"

// EventKind identifies a job lifecycle transition observed by the runner.
type EventKind string

const (
	// EventClaimed fires when a worker slot locks a row for execution.
	EventClaimed EventKind = "claimed"

	// EventSucceeded fires after the job's row is deleted and committed.
	EventSucceeded EventKind = "succeeded"

	// EventFailedWillRetry fires when a failed job is rescheduled.
	EventFailedWillRetry EventKind = "failed_will_retry"

	// EventFailedPermanently fires when a job exhausts its retries or
	// fails with a non-retryable error.
	EventFailedPermanently EventKind = "failed_permanently"
)

// Event describes one lifecycle transition. The queue core defines the
// event; the sink (metrics, logging, tracing) is the caller's concern.
type Event struct {
	Kind       EventKind
	JobID      int64
	JobType    string
	RetryCount int32

	// Err is set on failure events.
	Err error

	// RetryAt is set on EventFailedWillRetry.
	RetryAt time.Time
}

// EventHandler receives lifecycle events. Called synchronously from worker
// slots, so implementations should be fast and must be safe for concurrent
// use; hand off to a channel or a metrics client for anything heavier.
type EventHandler func(Event)
