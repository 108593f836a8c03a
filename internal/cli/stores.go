package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiztaker/internal/app"
	"quiztaker/internal/config"
	"quiztaker/internal/domain"
	"quiztaker/internal/infra/memory"
	"quiztaker/internal/infra/postgres"
	"quiztaker/internal/infra/sqlite"
)

// recordStore is implemented by every record store driver.
type recordStore interface {
	app.QuizStore
	app.SessionWriter
	app.CatalogStore
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteAnonymousSessions(ctx context.Context) (int64, error)
}

// openRecordStore connects the configured driver. The returned close func is never nil.
func openRecordStore(ctx context.Context, cfg config.Config) (recordStore, func(), error) {
	driver := cfg.StoreDriver()
	switch driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		slog.InfoContext(ctx, "store: using postgres")
		return postgres.NewStore(pool), pool.Close, nil
	case config.DriverSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = "quiztaker.db"
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		slog.InfoContext(ctx, "store: using sqlite", "path", path)
		return store, func() { _ = store.Close() }, nil
	case config.DriverMemory:
		slog.InfoContext(ctx, "store: using in-memory store with sample quizzes")
		return memory.NewSampleStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
