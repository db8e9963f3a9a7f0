package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Strategy names reported in transfer results.
const (
	StrategyCopy   = "copy"
	StrategyInsert = "insert"
)

// errBulkUnsupported marks a transaction without pgingest.BulkCopier.
var errBulkUnsupported = errors.New("connection does not support bulk copy")

// Strategy loads every row of a source into a table within an open transaction.
// It neither commits nor rolls back.
type Strategy interface {
	Name() string
	Load(ctx context.Context, tx pgingest.Tx, table pgingest.TableIdentity, columns pgingest.ColumnSet, rows pgingest.RowSource) (int64, error)
}

// CopyStrategy streams rows through the driver's COPY FROM STDIN support.
type CopyStrategy struct{}

func (CopyStrategy) Name() string { return StrategyCopy }

// Supports reports whether tx can run a bulk copy.
func (CopyStrategy) Supports(tx pgingest.Tx) bool {
	_, ok := tx.(pgingest.BulkCopier)
	return ok
}

func (CopyStrategy) Load(ctx context.Context, tx pgingest.Tx, table pgingest.TableIdentity, columns pgingest.ColumnSet, rows pgingest.RowSource) (int64, error) {
	copier, ok := tx.(pgingest.BulkCopier)
	if !ok {
		return 0, errBulkUnsupported
	}
	return copier.CopyFrom(ctx, table, columns, rows)
}

// InsertStrategy issues one parameterized INSERT per row.
type InsertStrategy struct{}

func (InsertStrategy) Name() string { return StrategyInsert }

func (InsertStrategy) Load(ctx context.Context, tx pgingest.Tx, table pgingest.TableIdentity, columns pgingest.ColumnSet, rows pgingest.RowSource) (int64, error) {
	stmt := InsertSQL(table, columns)
	args := make([]any, len(columns))

	var n int64
	for rows.Next() {
		values := rows.Values()
		if len(values) != len(columns) {
			return n, fmt.Errorf("row %d has %d fields, want %d", n+1, len(values), len(columns))
		}
		for i, v := range values {
			args[i] = v
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}
		n++
	}
	return n, rows.Err()
}

// InsertSQL builds the parameterized row statement with an explicit column list.
func InsertSQL(table pgingest.TableIdentity, columns pgingest.ColumnSet) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Sanitize(), columns.QuoteColumns(), strings.Join(placeholders, ", "))
}

var (
	_ Strategy = CopyStrategy{}
	_ Strategy = InsertStrategy{}
)
