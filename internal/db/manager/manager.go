package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// Manager checks and creates databases through a maintenance-database connection.
// Stateless and safe for concurrent use.
type Manager struct{}

// New creates a new DatabaseManager instance.
func New() pgingest.DatabaseManager {
	return &Manager{}
}

// Exists checks if a database exists.
func (m *Manager) Exists(ctx context.Context, conn pgingest.Conn, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create runs CREATE DATABASE. It must not be called inside a transaction.
func (m *Manager) Create(ctx context.Context, conn pgingest.Conn, dbName string) error {
	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// EnsureDatabase creates dbName when it is missing and reports whether it did.
func EnsureDatabase(ctx context.Context, m pgingest.DatabaseManager, conn pgingest.Conn, dbName string) (bool, error) {
	exists, err := m.Exists(ctx, conn, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := m.Create(ctx, conn, dbName); err != nil {
		return false, err
	}
	return true, nil
}

var _ pgingest.DatabaseManager = (*Manager)(nil)
