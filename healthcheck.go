package pgqueue

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the runner health check fails.
var ErrHealthcheckFailed = errors.New("pgqueue: healthcheck failed")

var (
	errRunnerNil        = errors.New("runner is nil")
	errRunnerNotStarted = errors.New("runner not started")
)

// Healthcheck returns a health check function for the runner, suitable for
// readiness probes. The check verifies that the runner is started and the
// database is reachable.
func Healthcheck(r *Runner) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if r == nil {
			return errors.Join(ErrHealthcheckFailed, errRunnerNil)
		}

		r.mu.Lock()
		started := r.started
		r.mu.Unlock()

		if !started {
			return errors.Join(ErrHealthcheckFailed, errRunnerNotStarted)
		}

		if err := r.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
