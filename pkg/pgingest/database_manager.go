package pgingest

import "context"

// DatabaseManager checks and creates the target database through a
// connection to the maintenance database.
type DatabaseManager interface {
	Exists(ctx context.Context, conn Conn, dbName string) (bool, error)
	Create(ctx context.Context, conn Conn, dbName string) error
}
