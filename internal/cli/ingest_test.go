package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgingest/internal/db"
	testhelpers "github.com/vvka-141/pgingest/internal/testing"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func resetIngestFlags() {
	ingestFlags = ingestFlagValues{
		driver:   string(pgingest.DriverPgx),
		strategy: string(pgingest.TransferAuto),
	}
}

// newTestCmd returns a command carrying the settings flags, with the named
// flags marked as explicitly set. Values are read from ingestFlags.
func newTestCmd(t *testing.T, changed ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "ingest <directory>"}
	cmd.Flags().Bool("verbose", false, "")
	for _, name := range []string{"driver", "strategy", "namespace", "timeout", "job-timeout", "create-database", "normalize-columns"} {
		cmd.Flags().String(name, "", "")
	}
	for _, name := range changed {
		if err := cmd.Flags().Set(name, "set"); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	return cmd
}

func clearConnectionEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PGINGEST_CONNECTION_STRING", "DATABASE_URL",
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET", "AWS_REGION",
	} {
		t.Setenv(name, "")
	}
}

func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "pgingest.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIngestCmd_ArgsValidation(t *testing.T) {
	err := ingestCmd.Args(ingestCmd, []string{})
	if err == nil {
		t.Fatal("Expected error for missing args")
	}
	if code := pgingest.ExitCodeForError(err); code != pgingest.ExitUsageError {
		t.Errorf("Expected exit code %d (usage), got %d for: %v", pgingest.ExitUsageError, code, err)
	}

	if err := ingestCmd.Args(ingestCmd, []string{"a", "b"}); err == nil {
		t.Fatal("Expected error for too many args")
	}
}

func TestBuildIngestOptions_Defaults(t *testing.T) {
	clearConnectionEnv(t)
	resetIngestFlags()
	ingestFlags.connection = "postgresql://etl@db.internal:5433/warehouse"

	opts, err := buildIngestOptions(newTestCmd(t), t.TempDir(), false)
	if err != nil {
		t.Fatalf("buildIngestOptions() error = %v", err)
	}

	if opts.Driver != pgingest.DriverPgx {
		t.Errorf("Driver = %q, want pgx", opts.Driver)
	}
	if opts.Mode != pgingest.TransferAuto {
		t.Errorf("Mode = %q, want auto", opts.Mode)
	}
	if got := opts.Config.EffectiveNamespace(); got != "public" {
		t.Errorf("EffectiveNamespace() = %q, want public", got)
	}
	if opts.Connection.Host != "db.internal" || opts.Connection.Port != 5433 {
		t.Errorf("Connection = %s:%d, want db.internal:5433", opts.Connection.Host, opts.Connection.Port)
	}
	if opts.Config.DatabaseName != "warehouse" {
		t.Errorf("DatabaseName = %q, want warehouse", opts.Config.DatabaseName)
	}
	if opts.MaintenanceDB != "postgres" {
		t.Errorf("MaintenanceDB = %q, want postgres", opts.MaintenanceDB)
	}
	if opts.Config.Timeout != 0 || opts.Config.JobTimeout != 0 {
		t.Errorf("timeouts = %v/%v, want none", opts.Config.Timeout, opts.Config.JobTimeout)
	}
	if opts.CreateDatabase || opts.NormalizeColumns {
		t.Error("switches should default to off")
	}
}

func TestBuildIngestOptions_ProjectConfig(t *testing.T) {
	clearConnectionEnv(t)
	resetIngestFlags()
	dir := t.TempDir()
	writeProjectConfig(t, dir, `
connection:
  host: pg.example.com
  port: 6432
  username: loader
  database: analytics
namespace: raw
driver: pq
strategy: insert
timeout: 5m
job_timeout: 30s
normalize_columns: true
create_database: true
`)

	opts, err := buildIngestOptions(newTestCmd(t), dir, false)
	if err != nil {
		t.Fatalf("buildIngestOptions() error = %v", err)
	}

	if opts.Connection.Host != "pg.example.com" || opts.Connection.Port != 6432 || opts.Connection.Username != "loader" {
		t.Errorf("Connection = %+v, want values from pgingest.yaml", opts.Connection)
	}
	if opts.Config.DatabaseName != "analytics" {
		t.Errorf("DatabaseName = %q, want analytics", opts.Config.DatabaseName)
	}
	if opts.Config.Namespace != "raw" {
		t.Errorf("Namespace = %q, want raw", opts.Config.Namespace)
	}
	if opts.Driver != pgingest.DriverPq {
		t.Errorf("Driver = %q, want pq", opts.Driver)
	}
	if opts.Mode != pgingest.TransferInsert {
		t.Errorf("Mode = %q, want insert", opts.Mode)
	}
	if opts.Config.Timeout != 5*time.Minute || opts.Config.JobTimeout != 30*time.Second {
		t.Errorf("timeouts = %v/%v, want 5m/30s", opts.Config.Timeout, opts.Config.JobTimeout)
	}
	if !opts.CreateDatabase || !opts.NormalizeColumns {
		t.Error("switches from pgingest.yaml should be on")
	}
}

func TestBuildIngestOptions_FlagsOverrideProjectConfig(t *testing.T) {
	clearConnectionEnv(t)
	resetIngestFlags()
	dir := t.TempDir()
	writeProjectConfig(t, dir, "namespace: raw\ndriver: pq\nstrategy: insert\ntimeout: 5m\ncreate_database: true\n")

	ingestFlags.namespace = "staging"
	ingestFlags.driver = "pgx"
	ingestFlags.strategy = "copy"
	ingestFlags.timeout = time.Minute
	ingestFlags.createDatabase = false

	cmd := newTestCmd(t, "namespace", "driver", "strategy", "timeout", "create-database")
	opts, err := buildIngestOptions(cmd, dir, false)
	if err != nil {
		t.Fatalf("buildIngestOptions() error = %v", err)
	}

	if opts.Config.Namespace != "staging" {
		t.Errorf("Namespace = %q, want staging", opts.Config.Namespace)
	}
	if opts.Driver != pgingest.DriverPgx {
		t.Errorf("Driver = %q, want pgx", opts.Driver)
	}
	if opts.Mode != pgingest.TransferCopy {
		t.Errorf("Mode = %q, want copy", opts.Mode)
	}
	if opts.Config.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", opts.Config.Timeout)
	}
	if opts.CreateDatabase {
		t.Error("explicit --create-database=false should win over pgingest.yaml")
	}
}

func TestBuildIngestOptions_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, dir string) string
		wantErr  error
		wantExit int
	}{
		{
			name: "missing directory",
			setup: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "does-not-exist")
			},
			wantErr:  pgingest.ErrNotFound,
			wantExit: pgingest.ExitSourceNotFound,
		},
		{
			name: "path is a file",
			setup: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "data.csv")
				if err := os.WriteFile(path, []byte("id\n1\n"), 0644); err != nil {
					t.Fatal(err)
				}
				return path
			},
			wantErr:  pgingest.ErrNotFound,
			wantExit: pgingest.ExitSourceNotFound,
		},
		{
			name: "unknown driver",
			setup: func(t *testing.T, dir string) string {
				ingestFlags.driver = "odbc"
				return dir
			},
			wantErr:  pgingest.ErrUnsupportedDriver,
			wantExit: pgingest.ExitConfigError,
		},
		{
			name: "unknown strategy",
			setup: func(t *testing.T, dir string) string {
				ingestFlags.strategy = "bulk"
				return dir
			},
			wantErr:  pgingest.ErrInvalidConfig,
			wantExit: pgingest.ExitConfigError,
		},
		{
			name: "invalid timeout in pgingest.yaml",
			setup: func(t *testing.T, dir string) string {
				writeProjectConfig(t, dir, "timeout: soon\n")
				return dir
			},
			wantErr:  pgingest.ErrInvalidConfig,
			wantExit: pgingest.ExitConfigError,
		},
		{
			name: "malformed pgingest.yaml",
			setup: func(t *testing.T, dir string) string {
				writeProjectConfig(t, dir, "namespace: [raw\n")
				return dir
			},
			wantErr:  pgingest.ErrInvalidConfig,
			wantExit: pgingest.ExitConfigError,
		},
		{
			name: "explicit config file missing",
			setup: func(t *testing.T, dir string) string {
				ingestFlags.configPath = filepath.Join(dir, "missing.yaml")
				return dir
			},
			wantErr:  pgingest.ErrInvalidConfig,
			wantExit: pgingest.ExitConfigError,
		},
		{
			name: "connection string with granular flags",
			setup: func(t *testing.T, dir string) string {
				ingestFlags.connection = "postgresql://localhost/warehouse"
				ingestFlags.host = "other"
				return dir
			},
			wantErr:  pgingest.ErrInvalidConfig,
			wantExit: pgingest.ExitConfigError,
		},
		{
			name: "negative job timeout",
			setup: func(t *testing.T, dir string) string {
				writeProjectConfig(t, dir, "job_timeout: -1s\n")
				return dir
			},
			wantErr:  pgingest.ErrInvalidConfig,
			wantExit: pgingest.ExitConfigError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConnectionEnv(t)
			resetIngestFlags()

			path := tt.setup(t, t.TempDir())
			_, err := buildIngestOptions(newTestCmd(t), path, false)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if code := pgingest.ExitCodeForError(err); code != tt.wantExit {
				t.Errorf("exit code = %d, want %d", code, tt.wantExit)
			}
		})
	}
}

func TestRunIngest_MissingDirectory(t *testing.T) {
	clearConnectionEnv(t)
	resetIngestFlags()

	err := runIngest(newTestCmd(t), []string{"/nonexistent/path/abc123"})
	if !errors.Is(err, pgingest.ErrNotFound) {
		t.Fatalf("runIngest() error = %v, want ErrNotFound", err)
	}
}

func TestRunIngest_EndToEnd(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	clearConnectionEnv(t)
	resetIngestFlags()

	dbName := testhelpers.CreateTestDB(t, connString)
	ingestFlags.connection = db.BuildConnectionString(testhelpers.TargetConfig(t, connString, dbName))
	ingestFlags.namespace = "raw"

	dir := t.TempDir()
	files := map[string]string{
		"customers.csv": "id,name\n1,Ann\n2,Bob\n",
		"orders.tsv":    "id\tcustomer\ttotal\n1\t1\t9.99\n",
		"broken.csv":    "id,name\n1\n",
		"notes.txt":     "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cmd := newTestCmd(t, "namespace")
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := runIngest(cmd, []string{dir})
	if !errors.Is(err, pgingest.ErrJobsFailed) {
		t.Fatalf("runIngest() error = %v, want ErrJobsFailed", err)
	}
	if code := pgingest.ExitCodeForError(err); code != pgingest.ExitJobsFailed {
		t.Errorf("exit code = %d, want %d", code, pgingest.ExitJobsFailed)
	}

	summary := out.String()
	for _, want := range []string{"raw.customers", "raw.orders", "DecodeError", "2 succeeded, 1 failed, 3 rows"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	pool := testhelpers.GetTestPool(t, connString, dbName)
	if n := testhelpers.CountRows(t, pool, pgingest.TableIdentity{Namespace: "raw", Table: "customers"}); n != 2 {
		t.Errorf("customers rows = %d, want 2", n)
	}
	if n := testhelpers.CountRows(t, pool, pgingest.TableIdentity{Namespace: "raw", Table: "orders"}); n != 1 {
		t.Errorf("orders rows = %d, want 1", n)
	}
}
