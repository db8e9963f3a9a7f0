package transfer

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Engine owns the transaction boundary of a transfer and picks the strategy.
// Safe for concurrent use; all state lives in the arguments of Transfer.
type Engine struct {
	mode   pgingest.TransferMode
	logger pgingest.Logger
	copy   CopyStrategy
	insert InsertStrategy
}

// NewEngine creates a transfer engine.
// Panics if logger is nil.
func NewEngine(mode pgingest.TransferMode, logger pgingest.Logger) *Engine {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if mode == "" {
		mode = pgingest.TransferAuto
	}
	return &Engine{mode: mode, logger: logger}
}

// Transfer loads rows into table inside a single transaction: either every
// row is committed or none is. The table's columns must equal columns in
// name and order. When the row source fails the error keeps
// its pgingest.ErrDecode classification; every other failure wraps
// pgingest.ErrTransfer.
func (e *Engine) Transfer(ctx context.Context, conn pgingest.Conn, table pgingest.TableIdentity, columns pgingest.ColumnSet, rows pgingest.RowSource) (pgingest.TransferResult, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return pgingest.TransferResult{}, fmt.Errorf("%w: %s: begin: %w", pgingest.ErrTransfer, table, err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				e.logger.Verbose("Rollback of %s failed: %v", table, rbErr)
			}
		}
	}()

	if err := checkColumns(ctx, tx, table, columns); err != nil {
		return pgingest.TransferResult{}, fmt.Errorf("%w: %s: %w", pgingest.ErrTransfer, table, err)
	}

	strategy, err := e.pick(tx)
	if err != nil {
		return pgingest.TransferResult{}, fmt.Errorf("%w: %s: %w", pgingest.ErrTransfer, table, err)
	}
	e.logger.Verbose("Transferring into %s using %s", table, strategy.Name())

	n, err := strategy.Load(ctx, tx, table, columns, rows)
	if err != nil {
		// The driver may report a failing source as its own error.
		if srcErr := rows.Err(); srcErr != nil {
			return pgingest.TransferResult{}, srcErr
		}
		return pgingest.TransferResult{}, fmt.Errorf("%w: %s: %w", pgingest.ErrTransfer, table, err)
	}
	if srcErr := rows.Err(); srcErr != nil {
		return pgingest.TransferResult{}, srcErr
	}

	if err := tx.Commit(ctx); err != nil {
		return pgingest.TransferResult{}, fmt.Errorf("%w: %s: commit: %w", pgingest.ErrTransfer, table, err)
	}
	committed = true

	return pgingest.TransferResult{Rows: n, Strategy: strategy.Name()}, nil
}

func (e *Engine) pick(tx pgingest.Tx) (Strategy, error) {
	switch e.mode {
	case pgingest.TransferInsert:
		return e.insert, nil
	case pgingest.TransferCopy:
		if !e.copy.Supports(tx) {
			return nil, errBulkUnsupported
		}
		return e.copy, nil
	default:
		if e.copy.Supports(tx) {
			return e.copy, nil
		}
		return e.insert, nil
	}
}

var _ pgingest.Transferer = (*Engine)(nil)
