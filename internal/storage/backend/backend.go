// Package backend selects the storage implementation from the database URL.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/simple-event-calendar/server/internal/config"
	"github.com/simple-event-calendar/server/internal/storage"
	"github.com/simple-event-calendar/server/internal/storage/postgres"
	"github.com/simple-event-calendar/server/internal/storage/sqlite"
)

type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Detect reports which backend serves databaseURL.
func Detect(databaseURL string) Kind {
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return KindPostgres
	}
	return KindSQLite
}

// Open connects to the configured database. Migrations are not applied.
func Open(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if Detect(cfg.URL) == KindPostgres {
		repo, err := postgres.Open(ctx, cfg.URL, cfg.MaxConnections)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	repo, err := sqlite.Open(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func MigrateUp(cfg config.DatabaseConfig) error {
	switch Detect(cfg.URL) {
	case KindPostgres:
		return postgres.MigrateUp(cfg.URL)
	default:
		return sqlite.MigrateUp(cfg.URL)
	}
}

func MigrateDown(cfg config.DatabaseConfig, steps int) error {
	switch Detect(cfg.URL) {
	case KindPostgres:
		return postgres.MigrateDown(cfg.URL, steps)
	default:
		return sqlite.MigrateDown(cfg.URL, steps)
	}
}

func SchemaVersion(cfg config.DatabaseConfig) (uint, bool, error) {
	switch Detect(cfg.URL) {
	case KindPostgres:
		return postgres.SchemaVersion(cfg.URL)
	default:
		return sqlite.SchemaVersion(cfg.URL)
	}
}

// Redacted returns the URL with any password removed, for logging.
func Redacted(databaseURL string) string {
	if Detect(databaseURL) != KindPostgres {
		return databaseURL
	}
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return databaseURL
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return databaseURL
	}
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return databaseURL
	}
	return fmt.Sprintf("%s://%s:***@%s", scheme, user, host)
}
