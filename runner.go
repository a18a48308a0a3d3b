package pgqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPoolSize     = 4
	defaultPollInterval = time.Second
)

// defaultRetryPolicy matches the Config env defaults.
var defaultRetryPolicy = ExponentialBackoff{
	Base:        10 * time.Second,
	MaxDelay:    10 * time.Minute,
	MaxAttempts: 5,
}

// Runner owns a fixed pool of worker slots that claim, execute, and retire
// jobs. All cross-slot and cross-process coordination goes through the
// database's row locks; the runner holds no in-process lock shared between
// slots, so any number of processes may run against the same table.
// Runner embeds Enqueuer for job enqueueing methods.
type Runner struct {
	*Enqueuer
	pool     *pgxpool.Pool
	store    store
	registry *jobRegistry
	policy   RetryPolicy
	logger   *slog.Logger
	events   EventHandler

	// workerID distinguishes this process in logs and events when
	// several runners share one table.
	workerID string

	poolSize     int
	pollInterval time.Duration

	mu          sync.Mutex
	started     bool
	slots       *errgroup.Group
	claimCancel context.CancelFunc
	jobCancel   context.CancelFunc
}

// NewRunner creates a runner with the given options. Handlers must be
// registered here, before Start; a claimed row whose job type has no
// handler is a deployment error and fails permanently.
func NewRunner(pool *pgxpool.Pool, opts ...Option) (*Runner, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

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
		Enqueuer: &Enqueuer{
			pool:   pool,
			logger: cfg.logger,
		},
		pool:         pool,
		registry:     cfg.registry,
		policy:       cfg.policy,
		logger:       cfg.logger,
		events:       cfg.events,
		workerID:     uuid.NewString(),
		poolSize:     cfg.poolSize,
		pollInterval: cfg.pollInterval,
	}, nil
}

// Start launches the worker slots and returns. Jobs enqueued before Start
// are processed once it is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}

	// Two cancellation scopes: claimCtx stops slots from picking up new
	// work; jobCtx is the cooperative signal handlers may observe, and is
	// only cancelled when Stop's deadline expires. Both are detached from
	// the caller's ctx so that cancelling the context passed to Start does
	// not tear down in-flight work without the Stop protocol.
	jobCtx, jobCancel := context.WithCancel(context.WithoutCancel(ctx))
	claimCtx, claimCancel := context.WithCancel(jobCtx)

	var g errgroup.Group
	for slot := range r.poolSize {
		g.Go(func() error {
			r.runSlot(claimCtx, jobCtx, slot)
			return nil
		})
	}

	r.slots = &g
	r.claimCancel = claimCancel
	r.jobCancel = jobCancel
	r.started = true

	r.logger.Info("runner started",
		slog.String("worker_id", r.workerID),
		slog.Int("pool_size", r.poolSize),
		slog.Int("job_types", len(r.registry.jobTypes())),
	)
	return nil
}

// Stop shuts the runner down: no new claims are issued, and Stop blocks
// until every executing slot finishes its current job. If ctx expires
// first, Stop returns ErrShutdownTimeout and cancels the context running
// handlers; the abandoned rows' locks are released by transaction
// teardown, so a surviving process can claim them again.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return ErrNotStarted
	}
	r.started = false
	slots, claimCancel, jobCancel := r.slots, r.claimCancel, r.jobCancel
	r.mu.Unlock()

	claimCancel()

	done := make(chan struct{})
	go func() {
		_ = slots.Wait()
		close(done)
	}()

	select {
	case <-done:
		jobCancel()
		r.logger.Info("runner stopped", slog.String("worker_id", r.workerID))
		return nil
	case <-ctx.Done():
		jobCancel()
		r.logger.Warn("runner shutdown deadline exceeded, abandoning in-flight jobs",
			slog.String("worker_id", r.workerID),
		)
		return errors.Join(ErrShutdownTimeout, ctx.Err())
	}
}

// runSlot is one worker slot's claim loop. After a successful cycle the
// slot immediately tries again to drain bursts; an empty queue or a
// transient infrastructure error parks the slot on the poll ticker — the
// loop never busy-spins.
func (r *Runner) runSlot(claimCtx, jobCtx context.Context, slot int) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		processed, err := r.processOne(claimCtx, jobCtx)
		if err != nil {
			// Transient infrastructure failure: never fatal to the slot.
			r.logger.Error("claim cycle failed",
				slog.Int("slot", slot),
				slog.String("worker_id", r.workerID),
				slog.Any("error", err),
			)
		}

		if processed && err == nil {
			select {
			case <-claimCtx.Done():
				return
			default:
				continue
			}
		}

		select {
		case <-claimCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processOne runs one claim-execute-retire cycle. The claim transaction
// stays open across execution: its row lock is what marks the job as
// running, and committing it is what retires the job. Reports whether a
// job was processed.
func (r *Runner) processOne(claimCtx, jobCtx context.Context) (bool, error) {
	tx, err := r.pool.Begin(claimCtx)
	if err != nil {
		return false, fmt.Errorf("begin claim tx: %w", err)
	}
	// Rollback after commit is a no-op; the detached context keeps the
	// rollback deliverable when jobCtx itself was cancelled.
	defer tx.Rollback(context.WithoutCancel(jobCtx)) //nolint:errcheck

	job, err := r.store.claimNext(claimCtx, tx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	r.logger.InfoContext(jobCtx, "job claimed",
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.JobType),
		slog.Int("retry_count", int(job.RetryCount)),
		slog.String("worker_id", r.workerID),
	)
	r.emit(Event{Kind: EventClaimed, JobID: job.ID, JobType: job.JobType, RetryCount: job.RetryCount})

	// Once the row is locked the cycle runs to completion on jobCtx, even
	// if shutdown begins: abandoning here would only delay the job until
	// lock release.
	if perr := r.executeJob(jobCtx, job); perr != nil {
		return true, r.finalizeFailure(jobCtx, tx, job, perr)
	}

	if err := r.store.markSucceeded(jobCtx, tx, job.ID); err != nil {
		return true, err
	}
	if err := tx.Commit(jobCtx); err != nil {
		return true, fmt.Errorf("commit job %d: %w", job.ID, err)
	}

	r.logger.InfoContext(jobCtx, "job succeeded",
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.JobType),
	)
	r.emit(Event{Kind: EventSucceeded, JobID: job.ID, JobType: job.JobType, RetryCount: job.RetryCount})
	return true, nil
}

// executeJob resolves the handler and runs it. A panic inside the handler
// is converted into an ordinary failure at this boundary — one bad job
// must never take down the slot or the process.
func (r *Runner) executeJob(ctx context.Context, job *Job) (err error) {
	executor, ok := r.registry.get(job.JobType)
	if !ok || executor == nil {
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.JobType)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, p)
		}
	}()

	return executor.Execute(ctx, job.Payload)
}

// finalizeFailure records the failed attempt on the claim transaction and
// commits it. The commit must happen even though the job failed — losing
// the bookkeeping would leave the row lock-orphaned until tx timeout.
func (r *Runner) finalizeFailure(ctx context.Context, tx pgx.Tx, job *Job, perr error) error {
	retryCount := job.RetryCount + 1
	decision := r.policy.Decide(int(retryCount), perr)

	var retryAt *time.Time
	if !decision.Permanent {
		t := time.Now().Add(decision.Delay)
		retryAt = &t
	}

	if err := r.store.markFailed(ctx, tx, job.ID, perr.Error(), retryAt, decision.Permanent); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit failure of job %d: %w", job.ID, err)
	}

	if decision.Permanent {
		r.logger.ErrorContext(ctx, "job failed permanently",
			slog.Int64("job_id", job.ID),
			slog.String("job_type", job.JobType),
			slog.Int("retry_count", int(retryCount)),
			slog.Any("error", perr),
		)
		r.emit(Event{Kind: EventFailedPermanently, JobID: job.ID, JobType: job.JobType, RetryCount: retryCount, Err: perr})
		return nil
	}

	r.logger.WarnContext(ctx, "job failed, will retry",
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.JobType),
		slog.Int("retry_count", int(retryCount)),
		slog.Time("retry_at", *retryAt),
		slog.Any("error", perr),
	)
	r.emit(Event{Kind: EventFailedWillRetry, JobID: job.ID, JobType: job.JobType, RetryCount: retryCount, Err: perr, RetryAt: *retryAt})
	return nil
}

func (r *Runner) emit(ev Event) {
	if r.events != nil {
		r.events(ev)
	}
}
