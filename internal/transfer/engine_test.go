package transfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgingest/internal/logging"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

var (
	labs    = pgingest.TableIdentity{Namespace: "public", Table: "labs"}
	columns = pgingest.ColumnSet{"id", "value"}
)

func threeRows() *sliceRows {
	return &sliceRows{rows: [][]string{{"1", "a"}, {"2", ""}, {"3", "c"}}}
}

func newEngine(mode pgingest.TransferMode) *Engine {
	return NewEngine(mode, logging.NewNullLogger())
}

func TestNewEngine_NilLogger(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for nil logger")
		}
	}()
	NewEngine(pgingest.TransferAuto, nil)
}

func TestTransfer_AutoPrefersCopy(t *testing.T) {
	var table [][]any
	tx := &mockCopyTx{mockTx: &mockTx{table: &table}}

	res, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, StrategyCopy, res.Strategy)
	assert.Equal(t, 1, tx.copies)
	assert.Len(t, table, 3)
	assert.True(t, tx.committed)
}

func TestTransfer_AutoFallsBackToInsert(t *testing.T) {
	var table [][]any
	tx := &mockTx{table: &table}

	res, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, StrategyInsert, res.Strategy)
	require.Len(t, tx.statements, 3)
	assert.Equal(t, `INSERT INTO "public"."labs" ("id", "value") VALUES ($1, $2)`, tx.statements[0])
	assert.Equal(t, []any{"2", ""}, table[1], "empty fields stay empty strings")
}

func TestTransfer_InsertModeIgnoresCopy(t *testing.T) {
	var table [][]any
	tx := &mockCopyTx{mockTx: &mockTx{table: &table}}

	res, err := newEngine(pgingest.TransferInsert).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	require.NoError(t, err)

	assert.Equal(t, StrategyInsert, res.Strategy)
	assert.Zero(t, tx.copies)
}

func TestTransfer_CopyModeRequiresSupport(t *testing.T) {
	var table [][]any
	tx := &mockTx{table: &table}

	_, err := newEngine(pgingest.TransferCopy).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	require.Error(t, err)
	assert.ErrorIs(t, err, pgingest.ErrTransfer)
	assert.True(t, tx.rolledBack)
}

func TestTransfer_EmptySource(t *testing.T) {
	var table [][]any
	tx := &mockTx{table: &table}

	res, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, &sliceRows{})
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
	assert.True(t, tx.committed)
}

func TestTransfer_AtomicOnExecFailure(t *testing.T) {
	var table [][]any
	tx := &mockTx{table: &table, execErr: errors.New("column \"value\" does not exist"), failOnRow: 2}

	_, err := newEngine(pgingest.TransferInsert).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	require.Error(t, err)
	assert.ErrorIs(t, err, pgingest.ErrTransfer)
	assert.Contains(t, err.Error(), "row 2")
	assert.True(t, tx.rolledBack)
	assert.Empty(t, table, "no rows may be visible after a failed transfer")
}

func TestTransfer_SourceFailureIsDecodeError(t *testing.T) {
	decodeErr := fmt.Errorf("%w: broken.csv: row 2: wrong number of fields", pgingest.ErrDecode)

	for _, tc := range []struct {
		name string
		tx   func(*[][]any) pgingest.Tx
	}{
		{"copy", func(tb *[][]any) pgingest.Tx { return &mockCopyTx{mockTx: &mockTx{table: tb}} }},
		{"insert", func(tb *[][]any) pgingest.Tx { return &mockTx{table: tb} }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var table [][]any
			rows := threeRows()
			rows.failAfter, rows.failErr = 1, decodeErr

			_, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tc.tx(&table)}, labs, columns, rows)
			require.Error(t, err)
			assert.ErrorIs(t, err, pgingest.ErrDecode)
			assert.NotErrorIs(t, err, pgingest.ErrTransfer)
			assert.Empty(t, table)
		})
	}
}

func TestTransfer_CopyDriverError(t *testing.T) {
	var table [][]any
	tx := &mockCopyTx{mockTx: &mockTx{table: &table}, copyErr: errors.New("ERROR: invalid byte sequence")}

	_, err := newEngine(pgingest.TransferCopy).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	assert.ErrorIs(t, err, pgingest.ErrTransfer)
	assert.Empty(t, table)
	assert.True(t, tx.rolledBack)
}

func TestTransfer_BeginAndCommitFailures(t *testing.T) {
	boom := errors.New("boom")

	_, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{beginErr: boom}, labs, columns, threeRows())
	assert.ErrorIs(t, err, pgingest.ErrTransfer)
	assert.ErrorIs(t, err, boom)

	var table [][]any
	tx := &mockTx{table: &table, commitErr: boom}
	_, err = newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	assert.ErrorIs(t, err, pgingest.ErrTransfer)
	assert.True(t, tx.rolledBack)
	assert.Empty(t, table)
}

func TestInsertSQL(t *testing.T) {
	sql := InsertSQL(pgingest.TableIdentity{Namespace: "raw", Table: `odd"name`}, pgingest.ColumnSet{"a", "B c"})
	assert.Equal(t, `INSERT INTO "raw"."odd""name" ("a", "B c") VALUES ($1, $2)`, sql)
}

func TestTransfer_ColumnMismatchRejected(t *testing.T) {
	for _, tc := range []struct {
		name     string
		existing []string
	}{
		{"extra table column", []string{"id", "value", "extra"}},
		{"missing table column", []string{"id"}},
		{"different name", []string{"id", "unit"}},
		{"different order", []string{"value", "id"}},
		{"table missing", []string{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var table [][]any
			tx := &mockCopyTx{mockTx: &mockTx{table: &table, tableColumns: tc.existing}}

			_, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
			require.Error(t, err)
			assert.ErrorIs(t, err, pgingest.ErrTransfer)
			assert.Zero(t, tx.copies, "no rows may be sent to a mismatched table")
			assert.Empty(t, tx.statements)
			assert.Empty(t, table)
			assert.True(t, tx.rolledBack)
		})
	}
}

func TestTransfer_ColumnMismatchMessage(t *testing.T) {
	var table [][]any
	tx := &mockTx{table: &table, tableColumns: []string{"id", "value", "extra"}}

	_, err := newEngine(pgingest.TransferInsert).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column mismatch: table has (id, value, extra), source has (id, value)")
}

func TestTransfer_ColumnLookupFailure(t *testing.T) {
	var table [][]any
	boom := errors.New("permission denied for table pg_attribute")
	tx := &mockTx{table: &table, columnsErr: boom}

	_, err := newEngine(pgingest.TransferAuto).Transfer(context.Background(), &mockConn{tx: tx}, labs, columns, threeRows())
	assert.ErrorIs(t, err, pgingest.ErrTransfer)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, tx.statements)
}
