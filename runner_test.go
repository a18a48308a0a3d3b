package pgqueue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_PoolRequired(t *testing.T) {
	t.Parallel()

	runner, err := NewRunner(nil)
	assert.ErrorIs(t, err, ErrPoolRequired)
	assert.Nil(t, runner)
}

func TestRunner_StopBeforeStart(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t)
	assert.ErrorIs(t, runner.Stop(context.Background()), ErrNotStarted)
}

func TestRunner_ExecuteJob(t *testing.T) {
	t.Parallel()

	t.Run("dispatches to registered handler", func(t *testing.T) {
		t.Parallel()

		handler := &emailHandler{jobType: "send_email"}
		runner := newTestRunner(t, WithHandler(handler))

		payload, err := json.Marshal(emailPayload{To: "x@example.com"})
		require.NoError(t, err)

		err = runner.executeJob(context.Background(), &Job{
			ID:      1,
			JobType: "send_email",
			Payload: payload,
		})
		require.NoError(t, err)
		assert.True(t, handler.performed)
		assert.Equal(t, "x@example.com", handler.payload.To)
	})

	t.Run("unregistered job type", func(t *testing.T) {
		t.Parallel()

		runner := newTestRunner(t)

		err := runner.executeJob(context.Background(), &Job{ID: 1, JobType: "ghost"})
		assert.ErrorIs(t, err, ErrUnknownJobType)
		assert.ErrorContains(t, err, "ghost")
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		t.Parallel()

		runner := newTestRunner(t, WithHandler(&panicHandler{}))

		var err error
		require.NotPanics(t, func() {
			err = runner.executeJob(context.Background(), &Job{ID: 1, JobType: "explode"})
		})
		assert.ErrorIs(t, err, ErrJobPanicked)
		assert.ErrorContains(t, err, "kaboom")
	})

	t.Run("handler error is returned, not raised", func(t *testing.T) {
		t.Parallel()

		performErr := errors.New("downstream timeout")
		runner := newTestRunner(t, WithHandler(&emailHandler{jobType: "send_email", err: performErr}))

		err := runner.executeJob(context.Background(), &Job{ID: 1, JobType: "send_email"})
		assert.ErrorIs(t, err, performErr)
	})
}

func TestRunner_Defaults(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t)
	assert.Equal(t, defaultPoolSize, runner.poolSize)
	assert.Equal(t, defaultPollInterval, runner.pollInterval)
	assert.Equal(t, defaultRetryPolicy, runner.policy)
	assert.NotEmpty(t, runner.workerID)
}

func TestRunner_Options(t *testing.T) {
	t.Parallel()

	policy := ConstantBackoff{Interval: time.Minute, MaxAttempts: 1}
	runner := newTestRunner(t,
		WithPoolSize(12),
		WithPollInterval(50*time.Millisecond),
		WithRetryPolicy(policy),
	)

	assert.Equal(t, 12, runner.poolSize)
	assert.Equal(t, 50*time.Millisecond, runner.pollInterval)
	assert.Equal(t, policy, runner.policy)
}

func TestRunner_EmitWithoutHandler(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t)
	assert.NotPanics(t, func() {
		runner.emit(Event{Kind: EventSucceeded, JobID: 1})
	})
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	t.Run("nil runner", func(t *testing.T) {
		t.Parallel()

		err := Healthcheck(nil)(context.Background())
		assert.ErrorIs(t, err, ErrHealthcheckFailed)
	})

	t.Run("not started", func(t *testing.T) {
		t.Parallel()

		runner := newTestRunner(t)
		err := Healthcheck(runner)(context.Background())
		assert.ErrorIs(t, err, ErrHealthcheckFailed)
	})
}

// panicHandler panics on every execution.
type panicHandler struct{}

func (h *panicHandler) JobType() string { return "explode" }

func (h *panicHandler) Perform(ctx context.Context, _ struct{}) error {
	panic("kaboom")
}

// newTestRunner builds a runner without a live pool for exercising the
// pure parts of the dispatch pipeline. Tests that claim real rows live in
// queue_integration_test.go.
func newTestRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()

	cfg := newRunnerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.poolSize == 0 {
		cfg.poolSize = defaultPoolSize
	}
	if cfg.pollInterval == 0 {
		cfg.pollInterval = defaultPollInterval
	}
	if cfg.policy == nil {
		cfg.policy = defaultRetryPolicy
	}

	return &Runner{
		Enqueuer:     &Enqueuer{logger: cfg.logger},
		registry:     cfg.registry,
		policy:       cfg.policy,
		logger:       cfg.logger,
		events:       cfg.events,
		workerID:     "test-worker",
		poolSize:     cfg.poolSize,
		pollInterval: cfg.pollInterval,
	}
}
