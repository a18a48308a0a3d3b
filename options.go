package pgqueue

import (
	"context"
	"log/slog"
	"time"
)

// runnerConfig holds runner configuration assembled from options.
type runnerConfig struct {
	registry     *jobRegistry
	policy       RetryPolicy
	logger       *slog.Logger
	events       EventHandler
	poolSize     int
	pollInterval time.Duration
}

func newRunnerConfig() *runnerConfig {
	return &runnerConfig{
		registry: newJobRegistry(),
	}
}

// Option configures the runner.
type Option func(*runnerConfig)

// WithHandler registers a job handler using structural typing. The handler
// must implement JobType() and Perform(ctx, P) methods; the payload type P
// is inferred from the Perform signature.
//
// Example:
//
//	type SendEmail struct {
//	    mailer *mail.Client
//	}
//
//	func (h *SendEmail) JobType() string { return "send_email" }
//	func (h *SendEmail) Perform(ctx context.Context, p SendEmailPayload) error {
//	    return h.mailer.Send(ctx, p.To, p.Subject, p.Body)
//	}
//
//	pgqueue.WithHandler(&SendEmail{mailer: mailer})
func WithHandler[P any, H interface {
	JobType() string
	Perform(context.Context, P) error
}](handler H) Option {
	return func(c *runnerConfig) {
		c.registry.register(handler.JobType(), newHandlerWrapper[P, H](handler))
	}
}

// WithPoolSize sets the number of concurrent worker slots. This bounds
// resource use regardless of queue depth: a burst of enqueued jobs queues
// in the store, not in process memory. Defaults to 4.
//
// Example:
//
//	pgqueue.WithPoolSize(8)
func WithPoolSize(n int) Option {
	return func(c *runnerConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithPollInterval sets how long an idle slot waits before checking for
// work again. Defaults to 1s.
//
// Example:
//
//	pgqueue.WithPollInterval(250 * time.Millisecond)
func WithPollInterval(d time.Duration) Option {
	return func(c *runnerConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithRetryPolicy replaces the default exponential backoff policy.
// Backoff tuning is workload-specific, so deployments are expected to
// swap this.
//
// Example:
//
//	pgqueue.WithRetryPolicy(pgqueue.ConstantBackoff{
//	    Interval:    time.Minute,
//	    MaxAttempts: 10,
//	})
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *runnerConfig) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
//
// Example:
//
//	pgqueue.WithLogger(slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(c *runnerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEventHandler installs a sink for job lifecycle events (claimed,
// succeeded, failed-will-retry, failed-permanently). Without it, events
// surface only as log lines.
//
// Example:
//
//	pgqueue.WithEventHandler(func(ev pgqueue.Event) {
//	    metrics.Count("jobs." + string(ev.Kind))
//	})
func WithEventHandler(h EventHandler) Option {
	return func(c *runnerConfig) {
		if h != nil {
			c.events = h
		}
	}
}

// WithConfig applies a Config (typically parsed from the environment) in
// one call. Individual options may still override specific fields.
//
// Example:
//
//	cfg, _ := pgqueue.LoadConfig()
//	runner, err := pgqueue.NewRunner(pool, pgqueue.WithConfig(cfg), ...)
func WithConfig(cfg Config) Option {
	return func(c *runnerConfig) {
		if cfg.PoolSize > 0 {
			c.poolSize = cfg.PoolSize
		}
		if cfg.PollInterval > 0 {
			c.pollInterval = cfg.PollInterval
		}
		if cfg.MaxAttempts > 0 {
			c.policy = ExponentialBackoff{
				Base:        cfg.BackoffBase,
				MaxDelay:    cfg.BackoffMaxDelay,
				MaxAttempts: cfg.MaxAttempts,
			}
		}
	}
}
