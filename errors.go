package pgqueue

import "errors"

// Queue errors.
var (
	// ErrPoolRequired is returned when attempting to create a runner
	// or enqueuer without providing a database pool.
	ErrPoolRequired = errors.New("pgqueue: pool is required")

	// ErrUnknownJobType is returned when a claimed job names a job type
	// that has no registered handler. This is a permanent failure: no
	// amount of retrying fixes a missing handler.
	ErrUnknownJobType = errors.New("pgqueue: unknown job type")

	// ErrInvalidPayload is returned when a job payload cannot be
	// unmarshaled into the handler's payload type. Treated as permanent
	// by the default retry policy.
	ErrInvalidPayload = errors.New("pgqueue: invalid payload")

	// ErrEncodePayload is returned by Enqueue when the payload cannot be
	// serialized. Nothing is written to the database in this case.
	ErrEncodePayload = errors.New("pgqueue: encode payload")

	// ErrEnqueueFailed is returned when the insert itself fails
	// (constraint violation, connection loss).
	ErrEnqueueFailed = errors.New("pgqueue: enqueue failed")

	// ErrJobPanicked wraps a panic recovered from a job handler. The
	// panic is converted into an ordinary failure and drives the retry
	// policy like any returned error.
	ErrJobPanicked = errors.New("pgqueue: job panicked")

	// ErrAlreadyStarted is returned when attempting to start a runner
	// that is already running.
	ErrAlreadyStarted = errors.New("pgqueue: already started")

	// ErrNotStarted is returned when attempting to stop a runner
	// that is not running.
	ErrNotStarted = errors.New("pgqueue: not started")

	// ErrShutdownTimeout is returned by Stop when the deadline expires
	// before all in-flight jobs finish. Their row locks are released by
	// transaction teardown, so the jobs become claimable again.
	ErrShutdownTimeout = errors.New("pgqueue: shutdown deadline exceeded")

	// ErrJobNotFound is returned by operator actions that reference a
	// job id that does not exist or is not in the expected status.
	ErrJobNotFound = errors.New("pgqueue: job not found")
)
