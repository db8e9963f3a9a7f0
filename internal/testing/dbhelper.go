package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/internal/testinfra"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// TestConnEnvVar overrides the auto-started container.
const TestConnEnvVar = "PGINGEST_TEST_CONN"

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartSimplePostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: PGINGEST_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(TestConnEnvVar); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", TestConnEnvVar, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// CreateTestDB creates a uniquely named database and drops it when the test ends.
// It returns the database name.
func CreateTestDB(t *testing.T, connString string) string {
	t.Helper()

	dbName := "pgingest_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() { CleanupTestDB(t, connString, dbName) })
	return dbName
}

// CleanupTestDB terminates sessions on dbName and drops it.
// Safe to call multiple times.
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	const terminate = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`
	if _, err := pool.Exec(ctx, terminate, dbName); err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}

	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	}
}

// TargetConfig returns connString's configuration pointed at dbName.
func TargetConfig(t *testing.T, connString, dbName string) *pgingest.ConnectionConfig {
	t.Helper()

	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	return db.WithDatabase(cfg, dbName)
}

// GetTestPool opens a pgx pool on dbName, closed when the test completes.
// Use it to inspect what an ingestion wrote.
func GetTestPool(t *testing.T, connString, dbName string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), db.BuildConnectionString(TargetConfig(t, connString, dbName)))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTestSource connects to dbName with the given driver through the
// production connector, closed when the test completes.
func NewTestSource(t *testing.T, connString, dbName string, driver pgingest.Driver) pgingest.ConnSource {
	t.Helper()

	connector, err := db.NewConnector(TargetConfig(t, connString, dbName), driver, logging.NewNullLogger())
	if err != nil {
		t.Fatalf("Failed to create connector: %v", err)
	}

	source, err := connector.Connect(context.Background())
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", dbName, err)
	}
	t.Cleanup(source.Close)
	return source
}

// CountRows returns the row count of a table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table pgingest.TableIdentity) int64 {
	t.Helper()

	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", table.Sanitize())
	if err := pool.QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}

// TableExists reports whether a table exists.
func TableExists(t *testing.T, pool *pgxpool.Pool, table pgingest.TableIdentity) bool {
	t.Helper()

	var exists bool
	const query = `SELECT EXISTS (
		SELECT 1 FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2)`
	if err := pool.QueryRow(context.Background(), query, table.Namespace, table.Table).Scan(&exists); err != nil {
		t.Fatalf("Failed to check table %s: %v", table, err)
	}
	return exists
}
