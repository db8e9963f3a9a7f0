package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

const (
	querySchemaExists = "SELECT EXISTS(SELECT 1 FROM pg_catalog.pg_namespace WHERE nspname = $1)"
	queryTableExists  = `
		SELECT EXISTS(
			SELECT 1
			FROM pg_catalog.pg_class c
			JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			WHERE n.nspname = $1 AND c.relname = $2
		)`
)

// TextProvisioner creates destination tables with one unconstrained TEXT
// column per source column. Existing tables are left exactly as they are.
// Stateless and safe for concurrent use.
type TextProvisioner struct {
	logger pgingest.Logger
}

// NewTextProvisioner creates a provisioner.
// Panics if logger is nil.
func NewTextProvisioner(logger pgingest.Logger) *TextProvisioner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &TextProvisioner{logger: logger}
}

// Ensure creates the namespace and table when they do not exist, in a
// transaction of its own that is committed before returning. The column set
// of an existing table is never compared or altered.
func (p *TextProvisioner) Ensure(ctx context.Context, conn pgingest.Conn, table pgingest.TableIdentity, columns pgingest.ColumnSet) (pgingest.ProvisionResult, error) {
	var result pgingest.ProvisionResult

	if len(columns) == 0 {
		return result, fmt.Errorf("%w: %s: no columns", pgingest.ErrProvisioning, table)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: %s: begin: %w", pgingest.ErrProvisioning, table, err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				p.logger.Verbose("Rollback of provisioning for %s failed: %v", table, rbErr)
			}
		}
	}()

	// Checked first so an existing namespace needs no CREATE privilege on the database.
	var schemaExists bool
	if err := tx.QueryRow(ctx, querySchemaExists, table.Namespace).Scan(&schemaExists); err != nil {
		return result, fmt.Errorf("%w: %s: check namespace: %w", pgingest.ErrProvisioning, table, err)
	}
	if !schemaExists {
		if _, err := tx.Exec(ctx, CreateSchemaSQL(table.Namespace)); err != nil {
			return result, fmt.Errorf("%w: %s: create namespace: %w", pgingest.ErrProvisioning, table, err)
		}
		result.NamespaceCreated = true
		p.logger.Verbose("Created namespace %s", table.Namespace)
	}

	var tableExists bool
	if err := tx.QueryRow(ctx, queryTableExists, table.Namespace, table.Table).Scan(&tableExists); err != nil {
		return result, fmt.Errorf("%w: %s: check table: %w", pgingest.ErrProvisioning, table, err)
	}
	if !tableExists {
		if _, err := tx.Exec(ctx, CreateTableSQL(table, columns)); err != nil {
			return result, fmt.Errorf("%w: %s: create table: %w", pgingest.ErrProvisioning, table, err)
		}
		result.TableCreated = true
		p.logger.Verbose("Created table %s (%d columns)", table, len(columns))
	} else {
		p.logger.Verbose("Table %s already exists, leaving it unchanged", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return pgingest.ProvisionResult{}, fmt.Errorf("%w: %s: commit: %w", pgingest.ErrProvisioning, table, err)
	}
	committed = true

	return result, nil
}

// CreateSchemaSQL returns the idempotent namespace DDL.
func CreateSchemaSQL(namespace string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{namespace}.Sanitize()
}

// CreateTableSQL returns the idempotent all-text table DDL.
func CreateTableSQL(table pgingest.TableIdentity, columns pgingest.ColumnSet) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pgx.Identifier{col}.Sanitize() + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Sanitize(), strings.Join(defs, ", "))
}

var _ pgingest.Provisioner = (*TextProvisioner)(nil)
