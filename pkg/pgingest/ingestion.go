package pgingest

import (
	"context"
	"iter"
)

// RowSource streams decoded data rows. Values is only valid until the next
// call to Next. Err reports the error that stopped iteration, if any.
type RowSource interface {
	Next() bool
	Values() []string
	Err() error
}

// TabularReader is an opened source file positioned after its header row.
type TabularReader interface {
	RowSource
	Columns() ColumnSet
	Close() error
}

// SourceEnumerator lists candidate source files in a directory.
type SourceEnumerator interface {
	// Enumerate returns recognized files in directory-listing order.
	// It does not open file contents. It fails with ErrNotFound when the
	// directory is missing or unreadable.
	Enumerate(dir string) (iter.Seq[SourceFile], error)
}

// IdentityResolver derives the destination table of a source file.
type IdentityResolver interface {
	// Resolve is deterministic: equal inputs always give equal identities.
	Resolve(src SourceFile, namespace string) (TableIdentity, error)
}

// Decoder opens source files for reading.
type Decoder interface {
	// Open reads and validates the header row. Failures wrap ErrDecode.
	Open(src SourceFile) (TabularReader, error)
}

// ProvisionResult reports what Ensure changed.
type ProvisionResult struct {
	NamespaceCreated bool
	TableCreated     bool
}

// Provisioner makes sure a destination table exists.
type Provisioner interface {
	// Ensure creates the namespace and table when absent and never alters
	// existing structure. It commits its own unit of work. Failures wrap ErrProvisioning.
	Ensure(ctx context.Context, conn Conn, table TableIdentity, columns ColumnSet) (ProvisionResult, error)
}

// TransferResult reports a committed transfer.
type TransferResult struct {
	Rows     int64
	Strategy string
}

// Transferer moves rows into an existing table inside one transaction.
type Transferer interface {
	// Transfer commits all rows or none. Failures wrap ErrTransfer, or
	// ErrDecode when the row source itself failed.
	Transfer(ctx context.Context, conn Conn, table TableIdentity, columns ColumnSet, rows RowSource) (TransferResult, error)
}

// Ingestor runs a whole directory ingestion.
type Ingestor interface {
	// Run processes every enumerated file sequentially. Per-file failures are
	// recorded in the summary; only run-fatal errors are returned.
	Run(ctx context.Context, cfg IngestConfig) (*RunSummary, error)
}
