package pgqueue

import (
	"encoding/json"
	"time"
)

// Status is the persisted state of a job row. There is no "running" status:
// an in-flight job is represented by its row being lock-held, so a crashed
// worker cannot leave a stale marker behind.
type Status string

const (
	// StatusPending marks a job waiting to be claimed (or rescheduled
	// after a failed attempt).
	StatusPending Status = "pending"

	// StatusFailed marks a job that exhausted its retries (or failed
	// permanently on first occurrence). Failed rows are inert until
	// requeued or purged by an operator.
	StatusFailed Status = "failed"
)

// Job is one durable queue row. Payload stays opaque to the queue core;
// the registered handler decodes it at execution time.
type Job struct {
	ID          int64
	JobType     string
	Payload     json.RawMessage
	RetryCount  int32
	Status      Status
	NextRetryAt *time.Time
	LastRetryAt *time.Time
	CreatedAt   time.Time
	ErrorInfo   *string
}
