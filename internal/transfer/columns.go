package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// The list is aggregated to a single JSON text value so both drivers can scan
// it into a string.
const queryTableColumns = `
	SELECT coalesce(json_agg(a.attname ORDER BY a.attnum), '[]')::text
	FROM pg_catalog.pg_attribute a
	JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = $1 AND c.relname = $2 AND a.attnum > 0 AND NOT a.attisdropped`

// TableColumns returns the live columns of table in ordinal order.
// A missing table yields an empty set.
func TableColumns(ctx context.Context, tx pgingest.Tx, table pgingest.TableIdentity) (pgingest.ColumnSet, error) {
	var raw string
	if err := tx.QueryRow(ctx, queryTableColumns, table.Namespace, table.Table).Scan(&raw); err != nil {
		return nil, err
	}

	var cols pgingest.ColumnSet
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		return nil, fmt.Errorf("decode column list: %w", err)
	}
	return cols, nil
}

// checkColumns requires the destination to have exactly the source columns,
// in the same order. Rows are never loaded into a partial column list.
func checkColumns(ctx context.Context, tx pgingest.Tx, table pgingest.TableIdentity, columns pgingest.ColumnSet) error {
	existing, err := TableColumns(ctx, tx, table)
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}
	if len(existing) == 0 {
		return errors.New("table does not exist")
	}
	if !slices.Equal(existing, columns) {
		return fmt.Errorf("column mismatch: table has (%s), source has (%s)",
			strings.Join(existing, ", "), strings.Join(columns, ", "))
	}
	return nil
}
