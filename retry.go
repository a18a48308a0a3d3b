package pgqueue

import (
	"errors"
	"math"
	"time"
)

// Decision is the retry policy's verdict on a failed attempt: either
// schedule another attempt after Delay, or give up permanently.
type Decision struct {
	Delay     time.Duration
	Permanent bool
}

// RetryAfter schedules another attempt after d.
func RetryAfter(d time.Duration) Decision {
	return Decision{Delay: d}
}

// PermanentFailure gives up on the job; the row is marked failed and kept
// for inspection.
func PermanentFailure() Decision {
	return Decision{Permanent: true}
}

// RetryPolicy decides what happens after a failed attempt. retryCount is
// the attempt number that just failed, 1-indexed: the first failure of a
// row calls Decide(1, err). Implementations must be pure and safe for
// concurrent use from every worker slot.
type RetryPolicy interface {
	Decide(retryCount int, err error) Decision
}

// ExponentialBackoff is the default retry policy: delay doubles with each
// attempt up to MaxDelay, and the job fails permanently once retryCount
// reaches MaxAttempts. Decode failures and unregistered job types are
// permanent on the first occurrence, since retrying cannot fix a schema
// mismatch or a missing handler.
type ExponentialBackoff struct {
	// Base is the delay before the first retry.
	Base time.Duration

	// MaxDelay caps the computed delay. Zero means no cap.
	MaxDelay time.Duration

	// MaxAttempts is the number of failed attempts after which the job
	// is marked failed permanently.
	MaxAttempts int
}

// Decide returns min(MaxDelay, Base * 2^(retryCount-1)) until MaxAttempts
// is reached.
func (p ExponentialBackoff) Decide(retryCount int, err error) Decision {
	if errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrUnknownJobType) {
		return PermanentFailure()
	}
	if retryCount >= p.MaxAttempts {
		return PermanentFailure()
	}

	d := time.Duration(float64(p.Base) * math.Pow(2, float64(retryCount-1)))
	if d < 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	return RetryAfter(d)
}

// ConstantBackoff retries after a fixed interval until MaxAttempts.
// Useful for workloads where the failure cause clears on its own schedule
// (rate limits, upstream maintenance windows).
type ConstantBackoff struct {
	Interval    time.Duration
	MaxAttempts int
}

// Decide returns the fixed interval until MaxAttempts is reached.
func (p ConstantBackoff) Decide(retryCount int, err error) Decision {
	if errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrUnknownJobType) {
		return PermanentFailure()
	}
	if retryCount >= p.MaxAttempts {
		return PermanentFailure()
	}
	return RetryAfter(p.Interval)
}
