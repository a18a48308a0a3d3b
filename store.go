package pgqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// store holds the SQL for the claim protocol and retry bookkeeping. Every
// method runs on a caller-supplied transaction: the claim lock lives for
// the transaction's lifetime, and marking the outcome must happen on the
// same transaction that holds the lock.
type store struct{}

// claimNext selects the oldest eligible pending row and locks it for the
// duration of tx. SKIP LOCKED makes concurrent workers pass over rows
// already claimed by another transaction instead of blocking on them —
// this is the whole cross-process coordination mechanism. Returns
// (nil, nil) when no eligible row exists.
func (store) claimNext(ctx context.Context, tx pgx.Tx) (*Job, error) {
	const q = `
		SELECT id, job_type, payload, retry_count, status,
		       next_retry_at, last_retry_at, created_at, error_info
		FROM pgqueue_jobs
		WHERE status = 'pending'
		  AND (next_retry_at IS NULL OR next_retry_at <= now())
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	var job Job
	err := tx.QueryRow(ctx, q).Scan(
		&job.ID, &job.JobType, &job.Payload, &job.RetryCount, &job.Status,
		&job.NextRetryAt, &job.LastRetryAt, &job.CreatedAt, &job.ErrorInfo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	return &job, nil
}

// markSucceeded deletes the row. Deletion is the only terminal state for
// success; the job is truly retired when the caller commits tx.
func (store) markSucceeded(ctx context.Context, tx pgx.Tx, id int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM pgqueue_jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark job %d succeeded: %w", id, err)
	}
	return nil
}

// markFailed records a failed attempt: increments retry_count, stores the
// error detail, and either reschedules the row at retryAt or, when the
// retry policy gave up, flips it to 'failed'. error_info is overwritten on
// each failure and never cleared, for forensic inspection of dead rows.
func (store) markFailed(ctx context.Context, tx pgx.Tx, id int64, errInfo string, retryAt *time.Time, permanent bool) error {
	status := StatusPending
	if permanent {
		status = StatusFailed
		retryAt = nil
	}

	const q = `
		UPDATE pgqueue_jobs
		SET retry_count = retry_count + 1,
		    status = $2,
		    error_info = $3,
		    last_retry_at = now(),
		    next_retry_at = $4
		WHERE id = $1`

	if _, err := tx.Exec(ctx, q, id, status, errInfo, retryAt); err != nil {
		return fmt.Errorf("mark job %d failed: %w", id, err)
	}
	return nil
}
