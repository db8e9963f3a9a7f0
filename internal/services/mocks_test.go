package services

import (
	"context"
	"errors"
	"iter"
	"slices"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

type mockRow struct{}

func (mockRow) Scan(_ ...any) error { return errors.New("mockRow: no rows") }

type mockTx struct{}

func (mockTx) Exec(_ context.Context, _ string, _ ...any) (int64, error) { return 0, nil }
func (mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgingest.Row {
	return mockRow{}
}
func (mockTx) Commit(_ context.Context) error   { return nil }
func (mockTx) Rollback(_ context.Context) error { return nil }

type mockConn struct {
	source *mockConnSource
}

func (c *mockConn) Exec(_ context.Context, _ string, _ ...any) (int64, error) { return 0, nil }
func (c *mockConn) QueryRow(_ context.Context, _ string, _ ...any) pgingest.Row {
	return mockRow{}
}
func (c *mockConn) Begin(_ context.Context) (pgingest.Tx, error) { return mockTx{}, nil }
func (c *mockConn) Release()                                     { c.source.released++ }

type mockConnSource struct {
	acquireErr error
	acquired   int
	released   int
}

func (m *mockConnSource) Acquire(_ context.Context) (pgingest.Conn, error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired++
	return &mockConn{source: m}, nil
}

func (m *mockConnSource) Driver() string { return "mock" }
func (m *mockConnSource) Close()         {}

type mockEnumerator struct {
	files []pgingest.SourceFile
	err   error
}

func (m *mockEnumerator) Enumerate(_ string) (iter.Seq[pgingest.SourceFile], error) {
	if m.err != nil {
		return nil, m.err
	}
	return slices.Values(m.files), nil
}

// mockProvisioner records ensured tables and reports each one as created the first time.
type mockProvisioner struct {
	tables map[pgingest.TableIdentity]pgingest.ColumnSet
	err    error
}

func (m *mockProvisioner) Ensure(_ context.Context, _ pgingest.Conn, table pgingest.TableIdentity, columns pgingest.ColumnSet) (pgingest.ProvisionResult, error) {
	if m.err != nil {
		return pgingest.ProvisionResult{}, m.err
	}
	if m.tables == nil {
		m.tables = make(map[pgingest.TableIdentity]pgingest.ColumnSet)
	}
	if _, ok := m.tables[table]; ok {
		return pgingest.ProvisionResult{}, nil
	}
	m.tables[table] = columns
	return pgingest.ProvisionResult{TableCreated: true}, nil
}

// mockTransferer drains the row source like the real engine and keeps the
// rows per table only when the source ends cleanly.
type mockTransferer struct {
	rows map[pgingest.TableIdentity][][]string
	err  error
}

func (m *mockTransferer) Transfer(_ context.Context, _ pgingest.Conn, table pgingest.TableIdentity, _ pgingest.ColumnSet, rows pgingest.RowSource) (pgingest.TransferResult, error) {
	if m.err != nil {
		return pgingest.TransferResult{}, m.err
	}

	var staged [][]string
	for rows.Next() {
		staged = append(staged, slices.Clone(rows.Values()))
	}
	if err := rows.Err(); err != nil {
		return pgingest.TransferResult{}, err
	}

	if m.rows == nil {
		m.rows = make(map[pgingest.TableIdentity][][]string)
	}
	m.rows[table] = append(m.rows[table], staged...)
	return pgingest.TransferResult{Rows: int64(len(staged)), Strategy: "mock"}, nil
}
