package pgqueue

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runner settings sourced from environment variables for
// deployment convenience. Pass it to NewRunner via WithConfig.
type Config struct {
	// Number of concurrent worker slots. This is the backpressure knob:
	// it bounds DB connections, CPU, and memory regardless of queue depth.
	PoolSize int `env:"PGQUEUE_POOL_SIZE" envDefault:"4"`

	// How long an idle slot waits before polling for work again.
	PollInterval time.Duration `env:"PGQUEUE_POLL_INTERVAL" envDefault:"1s"`

	// Failed attempts after which a job is marked failed permanently.
	MaxAttempts int `env:"PGQUEUE_MAX_ATTEMPTS" envDefault:"5"`

	// Exponential backoff parameters: first retry waits BackoffBase,
	// doubling each attempt up to BackoffMaxDelay.
	BackoffBase     time.Duration `env:"PGQUEUE_BACKOFF_BASE" envDefault:"10s"`
	BackoffMaxDelay time.Duration `env:"PGQUEUE_BACKOFF_MAX_DELAY" envDefault:"10m"`

	// How long Stop waits for in-flight jobs before giving up and leaving
	// their locks to connection teardown.
	ShutdownTimeout time.Duration `env:"PGQUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// LoadConfig parses Config from environment variables.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
