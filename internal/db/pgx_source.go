package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// PoolSource adapts *pgxpool.Pool to pgingest.ConnSource.
// Transactions it hands out support the COPY protocol.
type PoolSource struct {
	pool    *pgxpool.Pool
	onClose func()
}

// NewPoolSource wraps an established pool. The source owns the pool.
func NewPoolSource(pool *pgxpool.Pool) *PoolSource {
	if pool == nil {
		panic("pool cannot be nil")
	}
	return &PoolSource{pool: pool}
}

func (s *PoolSource) Acquire(ctx context.Context) (pgingest.Conn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

func (s *PoolSource) Driver() string { return string(pgingest.DriverPgx) }

// Pool exposes the underlying pool.
func (s *PoolSource) Pool() *pgxpool.Pool { return s.pool }

func (s *PoolSource) Close() {
	s.pool.Close()
	if s.onClose != nil {
		s.onClose()
		s.onClose = nil
	}
}

type pgxConn struct {
	conn     *pgxpool.Conn
	released bool
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgingest.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgxConn) Begin(ctx context.Context) (pgingest.Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

func (c *pgxConn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.conn.Release()
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgxTx) QueryRow(ctx context.Context, sql string, args ...any) pgingest.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// CopyFrom streams rows with the binary COPY protocol.
func (t *pgxTx) CopyFrom(ctx context.Context, table pgingest.TableIdentity, columns pgingest.ColumnSet, rows pgingest.RowSource) (int64, error) {
	return t.tx.CopyFrom(ctx,
		pgx.Identifier{table.Namespace, table.Table},
		[]string(columns),
		&copySource{rows: rows, width: len(columns)},
	)
}

// copySource adapts a RowSource to pgx.CopyFromSource.
type copySource struct {
	rows  pgingest.RowSource
	width int
	buf   []any
}

func (s *copySource) Next() bool { return s.rows.Next() }

func (s *copySource) Values() ([]any, error) {
	values := s.rows.Values()
	if len(values) != s.width {
		return nil, fmt.Errorf("row has %d fields, want %d", len(values), s.width)
	}
	if s.buf == nil {
		s.buf = make([]any, s.width)
	}
	for i, v := range values {
		s.buf[i] = v
	}
	return s.buf, nil
}

func (s *copySource) Err() error { return s.rows.Err() }

var (
	_ pgingest.ConnSource = (*PoolSource)(nil)
	_ pgingest.Conn       = (*pgxConn)(nil)
	_ pgingest.Tx         = (*pgxTx)(nil)
	_ pgingest.BulkCopier = (*pgxTx)(nil)
	_ pgx.CopyFromSource  = (*copySource)(nil)
)
