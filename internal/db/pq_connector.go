package db

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// pqConnectionString builds a lib/pq DSN. lib/pq rejects the libpq
// negotiation modes, so "prefer" and "allow" fall back to "disable".
func pqConnectionString(config *pgingest.ConnectionConfig, logger pgingest.Logger) string {
	cfg := *config
	switch cfg.SSLMode {
	case "prefer", "allow":
		logger.Verbose("pq driver: sslmode=%s is not supported, using sslmode=disable", cfg.SSLMode)
		cfg.SSLMode = "disable"
	}
	return BuildConnectionString(&cfg)
}

func newPqConnector(config *pgingest.ConnectionConfig, logger pgingest.Logger) (driver.Connector, error) {
	connector, err := pq.NewConnector(pqConnectionString(config, logger))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse connection config: %w", pgingest.ErrInvalidConfig, err)
	}
	return connector, nil
}

// tokenPqConnector is a driver.Connector that fetches a fresh token for every
// physical connection database/sql opens.
type tokenPqConnector struct {
	config       *pgingest.ConnectionConfig
	tokens       TokenProvider
	providerName string
	logger       pgingest.Logger
}

func (c *tokenPqConnector) Connect(ctx context.Context) (driver.Conn, error) {
	token, err := acquireToken(ctx, c.tokens, c.providerName, c.logger)
	if err != nil {
		return nil, err
	}

	withToken := *c.config
	withToken.Password = token

	connector, err := newPqConnector(&withToken, c.logger)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx)
}

func (c *tokenPqConnector) Driver() driver.Driver {
	return &pq.Driver{}
}

var _ driver.Connector = (*tokenPqConnector)(nil)
