package provision

import (
	"context"
	"errors"
	"strings"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

type mockRow struct {
	value bool
	err   error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.value
	return nil
}

// mockTx answers existence queries from the schemas/tables maps and records DDL.
type mockTx struct {
	schemas     map[string]bool
	tables      map[string]bool
	execErr     error
	queryErr    error
	commitErr   error
	rollbackErr error

	execs      []string
	committed  bool
	rolledBack bool
}

func (m *mockTx) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	if m.execErr != nil {
		return 0, m.execErr
	}
	m.execs = append(m.execs, sql)
	return 0, nil
}

func (m *mockTx) QueryRow(_ context.Context, sql string, args ...any) pgingest.Row {
	if m.queryErr != nil {
		return mockRow{err: m.queryErr}
	}
	if strings.Contains(sql, "pg_class") {
		return mockRow{value: m.tables[args[0].(string)+"."+args[1].(string)]}
	}
	return mockRow{value: m.schemas[args[0].(string)]}
}

func (m *mockTx) Commit(_ context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(_ context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return m.rollbackErr
}

type mockConn struct {
	tx       *mockTx
	beginErr error
}

func (m *mockConn) Exec(_ context.Context, _ string, _ ...any) (int64, error) {
	return 0, errors.New("provisioning must run inside a transaction")
}

func (m *mockConn) QueryRow(_ context.Context, _ string, _ ...any) pgingest.Row {
	return mockRow{err: errors.New("provisioning must run inside a transaction")}
}

func (m *mockConn) Begin(_ context.Context) (pgingest.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

func (m *mockConn) Release() {}
