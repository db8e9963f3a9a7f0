package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the pool. Jobs run sequentially, so one
	// connection is in use at a time; the rest absorb retries and provisioning.
	DefaultMaxConns = 4

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps connections alive between jobs of a long run.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger pgingest.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

// StandardConnector implements the Connector interface for
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *pgingest.ConnectionConfig
	driver        pgingest.Driver
	logger        pgingest.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector for the given driver.
// Retry behavior uses the pgingest defaults.
func NewStandardConnector(config *pgingest.ConnectionConfig, driver pgingest.Driver, logger pgingest.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StandardConnector{
		config:        config,
		driver:        driver,
		logger:        logger,
		retryExecutor: retry.NewConnectExecutor(logger),
	}
}

// Connect opens a pool with the configured driver and verifies it with a ping.
func (c *StandardConnector) Connect(ctx context.Context) (pgingest.ConnSource, error) {
	if c.driver == pgingest.DriverPq {
		connector, err := newPqConnector(c.config, c.logger)
		if err != nil {
			return nil, err
		}
		return openSQL(ctx, c.retryExecutor, c.config, connector)
	}

	pool, err := openPool(ctx, c.retryExecutor, c.config, c.logger, nil)
	if err != nil {
		return nil, err
	}
	return NewPoolSource(pool), nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod and the selected driver.
func NewConnector(config *pgingest.ConnectionConfig, driver pgingest.Driver, logger pgingest.Logger) (pgingest.Connector, error) {
	if driver != pgingest.DriverPgx && driver != pgingest.DriverPq {
		return nil, fmt.Errorf("driver %q: %w", driver, pgingest.ErrUnsupportedDriver)
	}

	switch config.AuthMethod {
	case pgingest.AuthMethodStandard:
		return NewStandardConnector(config, driver, logger), nil
	case pgingest.AuthMethodAWSIAM:
		return newAWSConnector(config, driver, logger)
	case pgingest.AuthMethodGoogleIAM:
		if driver != pgingest.DriverPgx {
			return nil, fmt.Errorf("%v requires the pgx driver: %w", config.AuthMethod, pgingest.ErrUnsupportedAuthMethod)
		}
		return newGoogleConnector(config, logger)
	case pgingest.AuthMethodAzureEntraID:
		return newAzureConnector(config, driver, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgingest.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port

Original error: %w`, pgingest.ErrConnectionFailed, addr, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host "%s"

Check the hostname and your DNS configuration.

Original error: %w`, pgingest.ErrConnectionFailed, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for database "%s"

Check $PGPASSWORD, ~/.pgpass or the password in the connection string.

Original error: %w`, pgingest.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database "%s" does not exist

Create it with: createdb %s
Or pass --create-database to let pgingest create it.

Original error: %w`, pgingest.ErrConnectionFailed, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`%w: connection timed out to %s

The server is unreachable, overloaded, or not listening on that port.

Original error: %w`, pgingest.ErrConnectionFailed, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`%w: SSL/TLS connection error

Check --sslmode against the server configuration. The pq driver does not
support sslmode=prefer against SSL-only servers; use --sslmode=require.

Original error: %w`, pgingest.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections to database "%s"

The server's max_connections limit is reached.

Original error: %w`, pgingest.ErrConnectionFailed, database, err)

	default:
		return fmt.Errorf("%w: %w", pgingest.ErrConnectionFailed, err)
	}
}
