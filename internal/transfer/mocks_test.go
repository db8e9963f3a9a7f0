package transfer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// sliceRows is a RowSource over fixed rows, optionally failing after failAfter rows.
type sliceRows struct {
	rows      [][]string
	failAfter int
	failErr   error

	pos int
	err error
}

func (s *sliceRows) Next() bool {
	if s.err != nil {
		return false
	}
	if s.failErr != nil && s.pos == s.failAfter {
		s.err = s.failErr
		return false
	}
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceRows) Values() []string { return s.rows[s.pos-1] }
func (s *sliceRows) Err() error       { return s.err }

type noRow struct{}

func (noRow) Scan(...any) error { return errors.New("no rows") }

// columnsRow answers the column list query with a JSON array.
type columnsRow struct {
	cols []string
	err  error
}

func (r columnsRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	raw, err := json.Marshal(r.cols)
	if err != nil {
		return err
	}
	*dest[0].(*string) = string(raw)
	return nil
}

// mockTx stages inserted rows and publishes them to its table only on commit.
// The destination has tableColumns, or id and value when unset.
type mockTx struct {
	table        *[][]any
	tableColumns []string
	columnsErr   error
	failOnRow    int
	execErr      error
	commitErr    error

	staged     [][]any
	statements []string
	committed  bool
	rolledBack bool
}

func (m *mockTx) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	if m.execErr != nil && len(m.staged)+1 == m.failOnRow {
		return 0, m.execErr
	}
	m.statements = append(m.statements, sql)
	m.staged = append(m.staged, append([]any(nil), args...))
	return 1, nil
}

func (m *mockTx) QueryRow(context.Context, string, ...any) pgingest.Row {
	cols := m.tableColumns
	if cols == nil {
		cols = []string{"id", "value"}
	}
	return columnsRow{cols: cols, err: m.columnsErr}
}

func (m *mockTx) Commit(context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	*m.table = append(*m.table, m.staged...)
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(context.Context) error {
	if !m.committed {
		m.rolledBack = true
		m.staged = nil
	}
	return nil
}

// mockCopyTx adds bulk copy support that drains the row source.
type mockCopyTx struct {
	*mockTx
	copyErr error
	copies  int
}

func (m *mockCopyTx) CopyFrom(_ context.Context, _ pgingest.TableIdentity, _ pgingest.ColumnSet, rows pgingest.RowSource) (int64, error) {
	m.copies++
	var n int64
	for rows.Next() {
		vals := rows.Values()
		row := make([]any, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		m.staged = append(m.staged, row)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, errors.New("driver: copy aborted by source")
	}
	if m.copyErr != nil {
		return n, m.copyErr
	}
	return n, nil
}

type mockConn struct {
	tx       pgingest.Tx
	beginErr error
}

func (m *mockConn) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (m *mockConn) QueryRow(context.Context, string, ...any) pgingest.Row {
	return noRow{}
}
func (m *mockConn) Begin(context.Context) (pgingest.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}
func (m *mockConn) Release() {}
