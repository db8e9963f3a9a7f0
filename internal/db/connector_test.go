package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		host         string
		database     string
		wantContains string
	}{
		{"connection refused", "dial tcp 127.0.0.1:5432: connection refused", "127.0.0.1", "db", "connection refused to 127.0.0.1:5432"},
		{"actively refused", "No connection could be made because the target machine actively refused it", "127.0.0.1", "db", "connection refused to 127.0.0.1:5432"},
		{"no such host", "lookup badhost: no such host", "badhost", "db", `cannot resolve host "badhost"`},
		{"password", `password authentication failed for user "postgres"`, "localhost", "lake", `password authentication failed for database "lake"`},
		{"missing database", `database "nope" does not exist`, "localhost", "nope", "--create-database"},
		{"timeout", "dial tcp 10.0.0.1:5432: i/o timeout", "10.0.0.1", "db", "connection timed out to 10.0.0.1:5432"},
		{"tls", "tls: handshake failure", "localhost", "db", "SSL/TLS connection error"},
		{"too many connections", "FATAL: too many connections for role", "localhost", "busy", `too many connections to database "busy"`},
		{"case insensitive", "CONNECTION REFUSED by firewall", "fw", "db", "connection refused to fw:5432"},
		{"fallthrough", "something unexpected", "localhost", "db", "connection failed: something unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := errors.New(tt.errMsg)
			wrapped := wrapConnectionError(original, tt.host, 5432, tt.database)

			if !strings.Contains(wrapped.Error(), tt.wantContains) {
				t.Errorf("wrapConnectionError() = %q, want it to contain %q", wrapped.Error(), tt.wantContains)
			}
			assert.True(t, errors.Is(wrapped, original), "original error must stay in the chain")
			assert.True(t, errors.Is(wrapped, pgingest.ErrConnectionFailed))
		})
	}
}

func TestNewConnector_Factory(t *testing.T) {
	logger := logging.NewNullLogger()

	tests := []struct {
		name    string
		config  pgingest.ConnectionConfig
		driver  pgingest.Driver
		wantErr error
		check   func(t *testing.T, c pgingest.Connector)
	}{
		{
			name:   "standard pgx",
			config: pgingest.ConnectionConfig{Host: "localhost", Port: 5432},
			driver: pgingest.DriverPgx,
			check: func(t *testing.T, c pgingest.Connector) {
				sc, ok := c.(*StandardConnector)
				require.True(t, ok, "got %T", c)
				assert.Equal(t, pgingest.DriverPgx, sc.driver)
			},
		},
		{
			name:   "standard pq",
			config: pgingest.ConnectionConfig{Host: "localhost", Port: 5432},
			driver: pgingest.DriverPq,
			check: func(t *testing.T, c pgingest.Connector) {
				assert.IsType(t, &StandardConnector{}, c)
			},
		},
		{
			name:    "unknown driver",
			config:  pgingest.ConnectionConfig{},
			driver:  "mysql",
			wantErr: pgingest.ErrUnsupportedDriver,
		},
		{
			name:   "aws",
			config: pgingest.ConnectionConfig{Host: "rds", Port: 5432, Username: "iam", AWSRegion: "us-east-1", AuthMethod: pgingest.AuthMethodAWSIAM},
			driver: pgingest.DriverPq,
			check: func(t *testing.T, c pgingest.Connector) {
				tc, ok := c.(*TokenBasedConnector)
				require.True(t, ok, "got %T", c)
				assert.Equal(t, "AWS IAM", tc.providerName)
			},
		},
		{
			name:    "aws without region",
			config:  pgingest.ConnectionConfig{Host: "rds", Port: 5432, Username: "iam", AuthMethod: pgingest.AuthMethodAWSIAM},
			driver:  pgingest.DriverPgx,
			wantErr: pgingest.ErrInvalidConfig,
		},
		{
			name:   "google",
			config: pgingest.ConnectionConfig{Username: "sa@proj.iam", GoogleInstance: "p:r:i", AuthMethod: pgingest.AuthMethodGoogleIAM},
			driver: pgingest.DriverPgx,
			check: func(t *testing.T, c pgingest.Connector) {
				assert.IsType(t, &GoogleCloudSQLConnector{}, c)
			},
		},
		{
			name:    "google requires pgx",
			config:  pgingest.ConnectionConfig{Username: "sa", GoogleInstance: "p:r:i", AuthMethod: pgingest.AuthMethodGoogleIAM},
			driver:  pgingest.DriverPq,
			wantErr: pgingest.ErrUnsupportedAuthMethod,
		},
		{
			name:    "google without instance",
			config:  pgingest.ConnectionConfig{Username: "sa", AuthMethod: pgingest.AuthMethodGoogleIAM},
			driver:  pgingest.DriverPgx,
			wantErr: pgingest.ErrInvalidConfig,
		},
		{
			name:   "azure service principal",
			config: pgingest.ConnectionConfig{AzureTenantID: "t", AzureClientID: "c", AzureClientSecret: "s", AuthMethod: pgingest.AuthMethodAzureEntraID},
			driver: pgingest.DriverPgx,
			check: func(t *testing.T, c pgingest.Connector) {
				tc, ok := c.(*TokenBasedConnector)
				require.True(t, ok, "got %T", c)
				assert.Contains(t, tc.tokenProvider.String(), "AzureServicePrincipal")
			},
		},
		{
			name:    "invalid auth method",
			config:  pgingest.ConnectionConfig{AuthMethod: pgingest.AuthMethod(99)},
			driver:  pgingest.DriverPgx,
			wantErr: pgingest.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			c, err := NewConnector(&cfg, tt.driver, logger)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

type mockTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
	calls     int
}

func (m *mockTokenProvider) GetToken(_ context.Context) (string, time.Time, error) {
	m.calls++
	return m.token, m.expiresOn, m.err
}

func (m *mockTokenProvider) String() string { return "mockTokenProvider" }

func TestAcquireToken(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := &mockTokenProvider{token: "tok", expiresOn: time.Now().Add(time.Hour)}
		token, err := acquireToken(context.Background(), p, "Test", logging.NewNullLogger())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})

	t.Run("provider failure", func(t *testing.T) {
		p := &mockTokenProvider{err: errors.New("denied")}
		_, err := acquireToken(context.Background(), p, "Test", logging.NewNullLogger())
		require.Error(t, err)
		assert.True(t, errors.Is(err, pgingest.ErrConnectionFailed))
		assert.Contains(t, err.Error(), "Test token")
	})
}

func TestTokenPqConnector_FetchesTokenPerConnection(t *testing.T) {
	p := &mockTokenProvider{err: errors.New("no credentials")}
	c := &tokenPqConnector{
		config:       &pgingest.ConnectionConfig{Host: "localhost", Port: 5432},
		tokens:       p,
		providerName: "Test",
		logger:       logging.NewNullLogger(),
	}

	_, err := c.Connect(context.Background())
	require.Error(t, err)
	_, err = c.Connect(context.Background())
	require.Error(t, err)

	assert.Equal(t, 2, p.calls)
	assert.NotNil(t, c.Driver())
}

func TestPqConnectionString_DowngradesPrefer(t *testing.T) {
	cfg := &pgingest.ConnectionConfig{Host: "h", Port: 5432, Database: "d", SSLMode: "prefer"}

	dsn := pqConnectionString(cfg, logging.NewNullLogger())

	assert.Contains(t, dsn, "sslmode=disable")
	assert.Equal(t, "prefer", cfg.SSLMode, "caller config is not modified")
}

func TestAWSIAMTokenProvider_Validation(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
	assert.Contains(t, err.Error(), "region")
	assert.Contains(t, err.Error(), "username")

	p, err := NewAWSIAMTokenProvider("rds:5432", "us-east-1", "iam")
	require.NoError(t, err)
	assert.Contains(t, p.String(), "region=us-east-1")
}

func TestNewAzureServicePrincipalProvider_RequiresAllParams(t *testing.T) {
	for _, args := range [][3]string{{"", "c", "s"}, {"t", "", "s"}, {"t", "c", ""}} {
		_, err := NewAzureServicePrincipalProvider(args[0], args[1], args[2])
		assert.Error(t, err, "args %v", args)
	}
}
