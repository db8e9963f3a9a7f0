package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// GranularConnFlags holds the libpq-style CLI flags (-h, -p, -U, -d).
// Passwords never come from flags: use $PGPASSWORD or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no server-addressing flag was given. Database is
// excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags holds cloud authentication flags. Secrets are read from the
// environment only.
type CloudFlags struct {
	AuthMethod     string
	AWSRegion      string
	GoogleInstance string
	AzureTenantID  string
	AzureClientID  string
}

// EnvVars is a snapshot of the environment variables taking part in resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	DATABASE_URL               string
	PGINGEST_CONNECTION_STRING string

	AWS_REGION          string
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                     os.Getenv("PGHOST"),
		PGPORT:                     os.Getenv("PGPORT"),
		PGUSER:                     os.Getenv("PGUSER"),
		PGPASSWORD:                 os.Getenv("PGPASSWORD"),
		PGDATABASE:                 os.Getenv("PGDATABASE"),
		PGSSLMODE:                  os.Getenv("PGSSLMODE"),
		DATABASE_URL:               os.Getenv("DATABASE_URL"),
		PGINGEST_CONNECTION_STRING: os.Getenv("PGINGEST_CONNECTION_STRING"),
		AWS_REGION:                 os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:            os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:            os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:        os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// connectionURL returns the first connection string set in the environment.
func (e *EnvVars) connectionURL() string {
	if e.PGINGEST_CONNECTION_STRING != "" {
		return e.PGINGEST_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. --connection flag
//  2. $PGINGEST_CONNECTION_STRING or $DATABASE_URL, unless granular flags are given
//  3. granular flags, then PG* variables, then pgingest.yaml, then defaults
//
// With a connection string, -d still selects the target database and the
// string's own database becomes the maintenance database. With granular
// parameters the maintenance database is "postgres".
//
// Giving both --connection and granular flags is an error.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgingest.ConnectionConfig, string, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	if projectConfig == nil {
		projectConfig = &config.ProjectConfig{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, "", fmt.Errorf("cannot specify both --connection and granular flags (-h, -p, -U, --sslmode): %w",
			pgingest.ErrInvalidConfig)
	}

	var cfg *pgingest.ConnectionConfig
	var maintenanceDB string
	var err error

	switch {
	case connStringFlag != "":
		cfg, maintenanceDB, err = resolveFromConnectionString(connStringFlag, granularFlags, envVars)
	case granularFlags.IsEmpty() && envVars.connectionURL() != "":
		cfg, maintenanceDB, err = resolveFromConnectionString(envVars.connectionURL(), granularFlags, envVars)
	default:
		cfg, maintenanceDB, err = resolveFromGranularParams(granularFlags, envVars, &projectConfig.Connection)
	}
	if err != nil {
		return nil, "", err
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, &projectConfig.Connection); err != nil {
		return nil, "", err
	}

	return cfg, maintenanceDB, nil
}

func resolveFromConnectionString(connStr string, flags *GranularConnFlags, envVars *EnvVars) (*pgingest.ConnectionConfig, string, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid connection string: %w", err)
	}

	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}

	maintenanceDB := cfg.Database
	if maintenanceDB == "" {
		maintenanceDB = pgingest.DefaultManagementDB
	}
	if flags.Database != "" {
		cfg.Database = flags.Database
	}

	return cfg, maintenanceDB, nil
}

func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc *config.ConnectionConfig) (*pgingest.ConnectionConfig, string, error) {
	cfg := &pgingest.ConnectionConfig{
		AuthMethod:       pgingest.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
		Host:             firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost"),
		Username:         firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME")),
		Password:         envVars.PGPASSWORD,
		Database:         firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, pgingest.DefaultManagementDB),
		SSLMode:          firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer"),
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, "", fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, pgingest.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	return cfg, pgingest.DefaultManagementDB, nil
}

// applyCloudAuth selects the auth method (flag > pgingest.yaml > inferred
// from Azure variables) and attaches provider settings.
func applyCloudAuth(cfg *pgingest.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc *config.ConnectionConfig) error {
	tenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)

	method := firstNonEmpty(flags.AuthMethod, pc.AuthMethod)
	if method == "" && (tenantID != "" || clientID != "") {
		method = "azure"
	}

	authMethod, err := pgingest.ParseAuthMethod(method)
	if err != nil {
		return err
	}
	cfg.AuthMethod = authMethod

	switch authMethod {
	case pgingest.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case pgingest.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	case pgingest.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
