package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	authMethod     string
	awsRegion      string
	googleInstance string
	azureTenantID  string
	azureClientID  string
}

// resolvedConnection holds the resolved connection configuration.
type resolvedConnection struct {
	ConnConfig    *pgingest.ConnectionConfig
	MaintenanceDB string
}

// resolveConnectionFromFlags resolves connection configuration from flags,
// the environment and the project config.
func resolveConnectionFromFlags(flags connectionFlags, projectCfg *config.ProjectConfig) (*resolvedConnection, error) {
	granularFlags := &db.GranularConnFlags{
		Host:     flags.host,
		Port:     flags.port,
		Username: flags.username,
		Database: flags.database,
		SSLMode:  flags.sslMode,
	}

	cloudFlags := &db.CloudFlags{
		AuthMethod:     flags.authMethod,
		AWSRegion:      flags.awsRegion,
		GoogleInstance: flags.googleInstance,
		AzureTenantID:  flags.azureTenantID,
		AzureClientID:  flags.azureClientID,
	}

	connConfig, maintenanceDB, err := resolveConnection(flags.connection, granularFlags, cloudFlags, projectCfg)
	if err != nil {
		return nil, err
	}

	return &resolvedConnection{
		ConnConfig:    connConfig,
		MaintenanceDB: maintenanceDB,
	}, nil
}

// loadProjectConfig loads godotenv and the project configuration, either
// from an explicit --config path or from pgingest.yaml in the source
// directory. A missing pgingest.yaml is not an error; a missing --config is.
func loadProjectConfig(sourcePath, explicitPath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if explicitPath != "" {
		projectCfg, err := config.LoadFile(explicitPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w: %w", explicitPath, pgingest.ErrInvalidConfig, err)
		}
		return projectCfg, nil
	}

	projectCfg, err := config.Load(sourcePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil // Config file not found is not an error
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, pgingest.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// stringSetting returns the flag value when the flag was set explicitly,
// else the project config value when present, else the flag default.
func stringSetting(cmd *cobra.Command, name, flagValue, fileValue string) string {
	if cmd.Flags().Changed(name) || fileValue == "" {
		return flagValue
	}
	return fileValue
}

// boolSetting is stringSetting for switches: an explicit flag wins, then
// the project config.
func boolSetting(cmd *cobra.Command, name string, flagValue, fileValue bool) bool {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return flagValue || fileValue
}

// durationSetting returns the effective duration, preferring the project
// config when the flag wasn't set.
func durationSetting(cmd *cobra.Command, name string, flagValue time.Duration, fileValue func() (time.Duration, error)) (time.Duration, error) {
	if cmd.Flags().Changed(name) {
		return flagValue, nil
	}
	parsed, err := fileValue()
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", config.ConfigFileName, pgingest.ErrInvalidConfig, err)
	}
	if parsed == 0 {
		return flagValue, nil
	}
	return parsed, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger pgingest.Logger, connConfig *pgingest.ConnectionConfig, maintenanceDB string) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Target Database: %s", connConfig.Database)
	logger.Verbose("  Maintenance Database: %s", maintenanceDB)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
}
