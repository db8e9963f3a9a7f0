package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// tokenExpiryWarning is the remaining lifetime below which a token is reported.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// A token is requested for each new physical connection and used as the password.
type TokenBasedConnector struct {
	config        *pgingest.ConnectionConfig
	driver        pgingest.Driver
	tokenProvider TokenProvider
	providerName  string
	logger        pgingest.Logger
	retryExecutor *retry.Executor
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and log messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(
	config *pgingest.ConnectionConfig,
	driver pgingest.Driver,
	tokenProvider TokenProvider,
	providerName string,
	logger pgingest.Logger,
) *TokenBasedConnector {
	if tokenProvider == nil {
		panic("tokenProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &TokenBasedConnector{
		config:        config,
		driver:        driver,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
		retryExecutor: retry.NewConnectExecutor(logger),
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (pgingest.ConnSource, error) {
	if c.driver == pgingest.DriverPq {
		return openSQL(ctx, c.retryExecutor, c.config, &tokenPqConnector{
			config:       c.config,
			tokens:       c.tokenProvider,
			providerName: c.providerName,
			logger:       c.logger,
		})
	}

	pool, err := openPool(ctx, c.retryExecutor, c.config, c.logger, func(pc *pgxpool.Config) {
		pc.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, err := acquireToken(ctx, c.tokenProvider, c.providerName, c.logger)
			if err != nil {
				return err
			}
			cc.Password = token
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return NewPoolSource(pool), nil
}

func acquireToken(ctx context.Context, provider TokenProvider, providerName string, logger pgingest.Logger) (string, error) {
	token, expiresOn, err := provider.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: failed to acquire %s token: %w", pgingest.ErrConnectionFailed, providerName, err)
	}

	if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
		logger.Info("Warning: %s token expires in %v", providerName, remaining.Round(time.Second))
	}
	logger.Verbose("Acquired %s token from %s", providerName, provider)

	return token, nil
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *pgingest.ConnectionConfig, driver pgingest.Driver, logger pgingest.Logger) (pgingest.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgingest.ErrInvalidConfig, err)
	}

	return NewTokenBasedConnector(config, driver, tokenProvider, "AWS IAM", logger), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and secret
// are all set, and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *pgingest.ConnectionConfig, driver pgingest.Driver, logger pgingest.Logger) (pgingest.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgingest.ErrInvalidConfig, err)
	}

	return NewTokenBasedConnector(config, driver, tokenProvider, "Azure", logger), nil
}
