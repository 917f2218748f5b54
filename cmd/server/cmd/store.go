package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/config"
	"github.com/simple-event-calendar/server/internal/metrics"
	"github.com/simple-event-calendar/server/internal/storage"
	"github.com/simple-event-calendar/server/internal/storage/backend"
	"github.com/simple-event-calendar/server/internal/storage/postgres"
	"github.com/simple-event-calendar/server/internal/storage/sqlite"
)

// openStore applies pending migrations and connects to the configured database.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (storage.Repository, error) {
	logger.Info().
		Str("backend", string(backend.Detect(cfg.URL))).
		Str("database", backend.Redacted(cfg.URL)).
		Msg("applying migrations")
	if err := backend.MigrateUp(cfg); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	repo, err := backend.Open(openCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return repo, nil
}

// dbStatsSource returns the connection pool statistics of repo, or nil when
// the backend exposes none.
func dbStatsSource(repo storage.Repository) func() metrics.PoolStats {
	switch r := repo.(type) {
	case *sqlite.Repository:
		return metrics.SQLStats(r.DB())
	case *postgres.Repository:
		return metrics.PgxStats(r.Pool())
	default:
		return nil
	}
}
