package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// openPool builds a pgx pool from config, applies customize (may be nil)
// and pings it under the retry executor.
func openPool(
	ctx context.Context,
	executor *retry.Executor,
	config *pgingest.ConnectionConfig,
	logger pgingest.Logger,
	customize func(*pgxpool.Config),
) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(config)

	err := executor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection config: %w", pgingest.ErrInvalidConfig, err)
		}

		configurePool(poolConfig, logger)
		if customize != nil {
			customize(poolConfig)
		}

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, config.Host, config.Port, config.Database)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return wrapConnectionError(err, config.Host, config.Port, config.Database)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// openSQL opens a database/sql pool over connector and pings it under the
// retry executor.
func openSQL(
	ctx context.Context,
	executor *retry.Executor,
	config *pgingest.ConnectionConfig,
	connector driver.Connector,
) (*SQLSource, error) {
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(DefaultMaxConns)
	db.SetMaxIdleConns(DefaultMinConns)
	db.SetConnMaxIdleTime(DefaultMaxConnIdleTime)

	err := executor.Execute(ctx, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return wrapConnectionError(err, config.Host, config.Port, config.Database)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return NewSQLSource(db), nil
}
