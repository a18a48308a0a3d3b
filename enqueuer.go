package pgqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowQuerier is the subset of pgx execution methods the enqueuer needs.
// Both *pgxpool.Pool and pgx.Tx satisfy it, which is what lets Enqueue run
// standalone or as part of a caller's transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Enqueuer inserts jobs without processing them. Use it directly in
// producer-only processes; Runner embeds it so worker processes get the
// same surface. It also carries the operator actions on the jobs table
// (requeue, purge, stats).
type Enqueuer struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// EnqueuerOption configures the enqueuer.
type EnqueuerOption func(*enqueuerConfig)

type enqueuerConfig struct {
	logger *slog.Logger
}

// WithEnqueuerLogger sets the logger for the enqueuer.
func WithEnqueuerLogger(l *slog.Logger) EnqueuerOption {
	return func(c *enqueuerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewEnqueuer creates an enqueue-only client backed by pool.
func NewEnqueuer(pool *pgxpool.Pool, opts ...EnqueuerOption) (*Enqueuer, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &enqueuerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Enqueuer{pool: pool, logger: cfg.logger}, nil
}

// Enqueue inserts one pending job and returns its id. The payload is
// serialized with encoding/json; a serialization failure returns
// ErrEncodePayload before anything is written.
func (e *Enqueuer) Enqueue(ctx context.Context, jobType string, payload any, opts ...EnqueueOption) (int64, error) {
	return e.insert(ctx, e.pool, jobType, payload, opts...)
}

// EnqueueTx inserts a job on the caller's transaction. The row only
// becomes visible — and claimable — when tx commits, so enqueueing can be
// part of a larger atomic unit of work.
func (e *Enqueuer) EnqueueTx(ctx context.Context, tx pgx.Tx, jobType string, payload any, opts ...EnqueueOption) (int64, error) {
	return e.insert(ctx, tx, jobType, payload, opts...)
}

func (e *Enqueuer) insert(ctx context.Context, q rowQuerier, jobType string, payload any, opts ...EnqueueOption) (int64, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return 0, errors.Join(ErrEncodePayload, err)
		}
	}

	cfg := &enqueueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	const sql = `
		INSERT INTO pgqueue_jobs (job_type, payload, next_retry_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	if err := q.QueryRow(ctx, sql, jobType, payloadBytes, cfg.scheduledAt).Scan(&id); err != nil {
		return 0, errors.Join(ErrEnqueueFailed, err)
	}

	e.logger.DebugContext(ctx, "job enqueued",
		slog.Int64("job_id", id),
		slog.String("job_type", jobType),
	)
	return id, nil
}

// RequeueFailed puts a permanently failed job back into the pending set
// with a fresh retry budget. error_info is kept as a record of the last
// failure. This is the operator escape hatch for jobs dead-ended by a bug
// that has since been fixed.
func (e *Enqueuer) RequeueFailed(ctx context.Context, id int64) error {
	const sql = `
		UPDATE pgqueue_jobs
		SET status = 'pending', retry_count = 0, next_retry_at = NULL
		WHERE id = $1 AND status = 'failed'`

	tag, err := e.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("requeue job %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d with status failed", ErrJobNotFound, id)
	}

	e.logger.InfoContext(ctx, "failed job requeued", slog.Int64("job_id", id))
	return nil
}

// PurgeFailed deletes permanently failed jobs older than olderThan and
// returns the number of rows removed.
func (e *Enqueuer) PurgeFailed(ctx context.Context, olderThan time.Duration) (int64, error) {
	const sql = `
		DELETE FROM pgqueue_jobs
		WHERE status = 'failed' AND created_at < now() - ($1 * interval '1 second')`

	tag, err := e.pool.Exec(ctx, sql, int64(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("purge failed jobs: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		e.logger.InfoContext(ctx, "purged failed jobs", slog.Int64("count", n))
		return n, nil
	}
	return 0, nil
}

// Stats is a point-in-time snapshot of the jobs table.
type Stats struct {
	// Pending counts rows waiting for or currently under execution.
	Pending int64

	// Due counts the subset of pending rows eligible to be claimed now.
	Due int64

	// Failed counts permanently failed rows awaiting operator action.
	Failed int64
}

// Stats reports queue depth for dashboards and alerting.
func (e *Enqueuer) Stats(ctx context.Context) (Stats, error) {
	const sql = `
		SELECT
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'pending'
				AND (next_retry_at IS NULL OR next_retry_at <= now())),
			count(*) FILTER (WHERE status = 'failed')
		FROM pgqueue_jobs`

	var s Stats
	if err := e.pool.QueryRow(ctx, sql).Scan(&s.Pending, &s.Due, &s.Failed); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	return s, nil
}
