package pgqueue

import "time"

// enqueueConfig holds options for enqueueing a job.
type enqueueConfig struct {
	scheduledAt *time.Time
}

// EnqueueOption configures job enqueueing.
type EnqueueOption func(*enqueueConfig)

// ScheduledAt delays the job's first eligibility until t. The row is
// inserted immediately but no worker claims it before then.
//
// Example:
//
//	enqueuer.Enqueue(ctx, "send_reminder", payload, pgqueue.ScheduledAt(tomorrow))
func ScheduledAt(t time.Time) EnqueueOption {
	return func(c *enqueueConfig) {
		c.scheduledAt = &t
	}
}

// ScheduledIn delays the job's first eligibility by d from now.
//
// Example:
//
//	enqueuer.Enqueue(ctx, "send_reminder", payload, pgqueue.ScheduledIn(24*time.Hour))
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		t := time.Now().Add(d)
		c.scheduledAt = &t
	}
}
