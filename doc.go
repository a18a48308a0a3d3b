// Package pgqueue provides a durable background-job queue backed by PostgreSQL.
//
// Producers enqueue typed jobs as rows in a single table; a fixed pool of
// worker goroutines claims rows with FOR UPDATE SKIP LOCKED, executes the
// registered handler, and retires the row. The row lock is held for the
// whole execution, so a worker that dies mid-job releases the row on
// connection teardown and another worker picks it up — delivery is
// at-least-once and handlers are expected to be idempotent.
//
// # Features
//
//   - Type-safe handler registration with structural typing (no interface imports needed)
//   - Transactional enqueueing (job only visible after the caller's commit)
//   - FIFO claiming among eligible rows, safe across multiple processes
//   - Pluggable retry policy with exponential backoff by default
//   - Panic containment: a misbehaving job never takes down a worker slot
//   - Graceful shutdown with a configurable deadline
//   - Observable lifecycle events for external metrics/logging sinks
//   - Health check integration
//
// # Handler Definition
//
// Handlers are structs with JobType() and Perform() methods. No interface
// import is required — the package uses structural typing. Dependencies
// (connection pools, API clients, configuration) live on the struct and are
// shared read-only across all worker slots:
//
//	type SendEmail struct {
//	    mailer *mail.Client
//	}
//
//	func (h *SendEmail) JobType() string { return "send_email" }
//
//	func (h *SendEmail) Perform(ctx context.Context, p SendEmailPayload) error {
//	    return h.mailer.Send(ctx, p.To, p.Subject, p.Body)
//	}
//
//	type SendEmailPayload struct {
//	    To      string `json:"to"`
//	    Subject string `json:"subject"`
//	    Body    string `json:"body"`
//	}
//
// # Running Workers
//
//	runner, err := pgqueue.NewRunner(pool,
//	    pgqueue.WithHandler(&SendEmail{mailer: mailer}),
//	    pgqueue.WithPoolSize(8),
//	    pgqueue.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := runner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer func() {
//	    stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	    defer cancel()
//	    _ = runner.Stop(stopCtx)
//	}()
//
// # Enqueueing Jobs
//
//	id, err := runner.Enqueue(ctx, "send_email", SendEmailPayload{To: "x@example.com"})
//
// Enqueue-only processes use [NewEnqueuer] and skip the worker pool
// entirely. To make a job part of a larger atomic unit of work, use
// [Enqueuer.EnqueueTx] — the job row only exists if the caller's
// transaction commits:
//
//	err := pool.BeginFunc(ctx, func(tx pgx.Tx) error {
//	    if err := createUser(ctx, tx, user); err != nil {
//	        return err
//	    }
//	    _, err := enqueuer.EnqueueTx(ctx, tx, "send_email", payload)
//	    return err
//	})
//
// # Retry Behavior
//
// A failed job is rescheduled with exponential backoff until the policy's
// attempt ceiling, then marked failed permanently and kept for inspection.
// Decode failures and unregistered job types are permanent on first
// occurrence — retrying cannot fix a schema mismatch or a missing handler.
// Swap the policy with [WithRetryPolicy].
//
// # Database Migrations
//
// The jobs table schema ships embedded in the package. Run [Migrate] once
// at startup, before starting the runner:
//
//	if err := pgqueue.Migrate(ctx, pool, slog.Default()); err != nil {
//	    log.Fatal(err)
//	}
package pgqueue
