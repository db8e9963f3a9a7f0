package cli

import (
	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// resolveConnection resolves the connection from the --connection flag,
// granular and cloud flags, environment variables and the project config.
//
// Returns:
//   - ConnectionConfig with all parameters resolved
//   - Maintenance database name (for CREATE DATABASE operations)
//   - Error if configuration is invalid or conflicting
func resolveConnection(
	connStringFlag string,
	granularFlags *db.GranularConnFlags,
	cloudFlags *db.CloudFlags,
	projectConfig *config.ProjectConfig,
) (*pgingest.ConnectionConfig, string, error) {
	connConfig, maintenanceDB, err := db.ResolveConnectionParams(
		connStringFlag,
		granularFlags,
		cloudFlags,
		db.LoadFromEnvironment(),
		projectConfig,
	)
	if err != nil {
		return nil, "", err
	}

	return connConfig, determineMaintenanceDB(connConfig.Database, maintenanceDB), nil
}

// determineMaintenanceDB determines the maintenance database for CREATE DATABASE operations.
// A database cannot create itself, so when the maintenance database would
// be the target we fall back to 'postgres'.
func determineMaintenanceDB(targetDatabase, currentMaintenanceDB string) string {
	if currentMaintenanceDB == "" || currentMaintenanceDB == targetDatabase {
		return pgingest.DefaultManagementDB
	}
	return currentMaintenanceDB
}
