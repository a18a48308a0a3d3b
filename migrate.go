package pgqueue

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration errors.
var (
	ErrSetDialect      = errors.New("pgqueue migrator: failed to set dialect")
	ErrApplyMigrations = errors.New("pgqueue migrator: failed to apply migrations")
)

// Migrate creates the pgqueue_jobs table (and future schema revisions)
// using the SQL files embedded in this package. Run it once at startup,
// before starting the runner.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	// Bridge the pgx pool to the database/sql interface goose expects.
	// The wrapper shares the pool's connections, so it must not be closed
	// here — closing would disrupt the shared pool.
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLoggerAdapter{log})
	goose.SetTableName("pgqueue_schema_migrations")

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	// Error level only - goose returns an error that propagates up.
	// os.Exit here would skip shutdown and cleanup.
	g.log.Error(fmt.Sprintf(format, args...))
}
