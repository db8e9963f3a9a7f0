package pgingest

import "context"

// Row is a single-row query result.
type Row interface {
	Scan(dest ...any) error
}

// Executor runs statements against a connection or transaction.
type Executor interface {
	// Exec runs a statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// Tx is an open transaction. Rollback after Commit is a no-op.
type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is a single dedicated database connection, held for the duration of one LoadJob.
// Implementations are NOT safe for concurrent use.
type Conn interface {
	Executor
	Begin(ctx context.Context) (Tx, error)

	// Release returns the connection to its source. Safe to call more than once.
	Release()
}

// BulkCopier is implemented by transactions whose driver supports the
// store-native bulk ingest protocol (COPY ... FROM STDIN).
type BulkCopier interface {
	CopyFrom(ctx context.Context, table TableIdentity, columns ColumnSet, rows RowSource) (int64, error)
}

// ConnSource hands out connections from an established pool.
type ConnSource interface {
	Acquire(ctx context.Context) (Conn, error)

	// Driver names the underlying driver ("pgx" or "pq").
	Driver() string

	Close()
}
