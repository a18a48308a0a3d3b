package pgqueue

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := &enqueueConfig{}
		assert.Nil(t, cfg.scheduledAt)
	})

	t.Run("scheduled at", func(t *testing.T) {
		t.Parallel()

		at := time.Now().Add(time.Hour)
		cfg := &enqueueConfig{}
		ScheduledAt(at)(cfg)
		require.NotNil(t, cfg.scheduledAt)
		assert.Equal(t, at, *cfg.scheduledAt)
	})

	t.Run("scheduled in", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		cfg := &enqueueConfig{}
		ScheduledIn(time.Hour)(cfg)
		require.NotNil(t, cfg.scheduledAt)
		assert.WithinDuration(t, before.Add(time.Hour), *cfg.scheduledAt, time.Second)
	})
}

func TestNewEnqueuer_PoolRequired(t *testing.T) {
	t.Parallel()

	enqueuer, err := NewEnqueuer(nil)
	assert.ErrorIs(t, err, ErrPoolRequired)
	assert.Nil(t, enqueuer)
}

func TestEnqueue_SerializationError(t *testing.T) {
	t.Parallel()

	// A channel is not JSON-serializable; the error must surface before
	// any database write, so a nil pool is never touched.
	enqueuer := &Enqueuer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	id, err := enqueuer.Enqueue(context.Background(), "send_email", make(chan int))
	assert.ErrorIs(t, err, ErrEncodePayload)
	assert.Zero(t, id)
}
