package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// SQLSource adapts a database/sql pool opened with lib/pq to pgingest.ConnSource.
// Its transactions support COPY through pq.CopyInSchema.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource wraps db. The source owns db.
func NewSQLSource(db *sql.DB) *SQLSource {
	if db == nil {
		panic("db cannot be nil")
	}
	return &SQLSource{db: db}
}

func (s *SQLSource) Acquire(ctx context.Context) (pgingest.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

func (s *SQLSource) Driver() string { return string(pgingest.DriverPq) }

// DB exposes the underlying pool.
func (s *SQLSource) DB() *sql.DB { return s.db }

func (s *SQLSource) Close() {
	_ = s.db.Close()
}

type sqlConn struct {
	conn     *sql.Conn
	released bool
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return rowsAffected(c.conn.ExecContext(ctx, query, args...))
}

func (c *sqlConn) QueryRow(ctx context.Context, query string, args ...any) pgingest.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (c *sqlConn) Begin(ctx context.Context) (pgingest.Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (c *sqlConn) Release() {
	if c.released {
		return
	}
	c.released = true
	_ = c.conn.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return rowsAffected(t.tx.ExecContext(ctx, query, args...))
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) pgingest.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *sqlTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// CopyFrom runs COPY FROM STDIN through a prepared pq.CopyInSchema statement:
// one Exec per row, then an argument-less Exec to flush.
func (t *sqlTx) CopyFrom(ctx context.Context, table pgingest.TableIdentity, columns pgingest.ColumnSet, rows pgingest.RowSource) (int64, error) {
	stmt, err := t.tx.PrepareContext(ctx, pq.CopyInSchema(table.Namespace, table.Table, columns...))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	var n int64
	for rows.Next() {
		values := rows.Values()
		if len(values) != len(columns) {
			return n, fmt.Errorf("row %d: has %d fields, want %d", n+1, len(values), len(columns))
		}
		for i, v := range values {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, fmt.Errorf("row %d: %w", n+1, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, err
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return n, err
	}
	return n, stmt.Close()
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

var (
	_ pgingest.ConnSource = (*SQLSource)(nil)
	_ pgingest.Conn       = (*sqlConn)(nil)
	_ pgingest.Tx         = (*sqlTx)(nil)
	_ pgingest.BulkCopier = (*sqlTx)(nil)
)
