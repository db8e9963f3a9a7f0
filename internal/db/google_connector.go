package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// GoogleCloudSQLConnector connects to Cloud SQL with IAM database
// authentication through the Cloud SQL Go Connector. pgx only.
type GoogleCloudSQLConnector struct {
	config        *pgingest.ConnectionConfig
	instance      string
	logger        pgingest.Logger
	retryExecutor *retry.Executor
}

// NewGoogleCloudSQLConnector creates a connector for the instance connection
// name project:region:instance.
func NewGoogleCloudSQLConnector(config *pgingest.ConnectionConfig, instance string, logger pgingest.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:        config,
		instance:      instance,
		logger:        logger,
		retryExecutor: retry.NewConnectExecutor(logger),
	}
}

// Connect dials through the Cloud SQL dialer. The dialer is closed together
// with the returned source.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (pgingest.ConnSource, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Cloud SQL dialer: %w", pgingest.ErrConnectionFailed, err)
	}

	cfg := *c.config
	cfg.Password = ""
	cfg.SSLMode = "disable" // the dialer provides TLS

	pool, err := openPool(ctx, c.retryExecutor, &cfg, c.logger, func(pc *pgxpool.Config) {
		pc.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, c.instance)
		}
	})
	if err != nil {
		dialer.Close()
		return nil, err
	}

	source := NewPoolSource(pool)
	source.onClose = func() { dialer.Close() }
	return source, nil
}

func newGoogleConnector(config *pgingest.ConnectionConfig, logger pgingest.Logger) (pgingest.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgingest.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", pgingest.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}
