package infrastructure

import (
	"context"
	"fmt"

	"supportbot/internal/config"
	"supportbot/internal/repository"
)

// Database is whichever backend the configuration selects.
type Database interface {
	Migrate(ctx context.Context) error
	Close()
}

// OpenDatabase connects to the configured backend and returns its store.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (Database, *repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := NewPostgresClient(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Store, nil
	case "sqlite", "":
		lite, err := NewSQLiteClient(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return lite, lite.Store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
