package pgqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.BackoffBase)
	assert.Equal(t, 10*time.Minute, cfg.BackoffMaxDelay)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PGQUEUE_POOL_SIZE", "16")
	t.Setenv("PGQUEUE_POLL_INTERVAL", "250ms")
	t.Setenv("PGQUEUE_MAX_ATTEMPTS", "2")
	t.Setenv("PGQUEUE_BACKOFF_BASE", "1s")
	t.Setenv("PGQUEUE_BACKOFF_MAX_DELAY", "1m")
	t.Setenv("PGQUEUE_SHUTDOWN_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.PoolSize)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.BackoffBase)
	assert.Equal(t, time.Minute, cfg.BackoffMaxDelay)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestWithConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{
		PoolSize:        9,
		PollInterval:    100 * time.Millisecond,
		MaxAttempts:     3,
		BackoffBase:     2 * time.Second,
		BackoffMaxDelay: time.Minute,
	}

	rc := newRunnerConfig()
	WithConfig(cfg)(rc)

	assert.Equal(t, 9, rc.poolSize)
	assert.Equal(t, 100*time.Millisecond, rc.pollInterval)

	policy, ok := rc.policy.(ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, policy.Base)
	assert.Equal(t, time.Minute, policy.MaxDelay)
	assert.Equal(t, 3, policy.MaxAttempts)
}
