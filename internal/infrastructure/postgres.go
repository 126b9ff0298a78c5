package infrastructure

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"supportbot/internal/config"
	"supportbot/internal/repository"
)

type PostgresClient struct {
	Pool  *pgxpool.Pool
	Store *repository.Store
}

func NewPostgresClient(ctx context.Context, cfg config.PostgresConfig) (*PostgresClient, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresClient{
		Pool:  pool,
		Store: repository.NewStore(stdlib.OpenDBFromPool(pool), repository.DialectPostgres),
	}, nil
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	return Migrate(ctx, p.Store)
}

func (p *PostgresClient) Close() {
	_ = p.Store.Close()
	p.Pool.Close()
}
