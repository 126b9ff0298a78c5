package infrastructure

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"supportbot/internal/repository"
)

type SQLiteClient struct {
	Store *repository.Store
}

// NewSQLiteClient opens (or creates) the database at path. ":memory:" is
// accepted for tests.
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps sqlite free of SQLITE_BUSY and makes :memory: a
	// single shared database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLiteClient{Store: repository.NewStore(db, repository.DialectSQLite)}, nil
}

func (s *SQLiteClient) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.Store)
}

func (s *SQLiteClient) Close() {
	_ = s.Store.Close()
}
