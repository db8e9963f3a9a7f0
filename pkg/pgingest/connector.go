package pgingest

import "context"

// Connector is a unified interface for establishing database connections.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM, etc.) and drivers.
type Connector interface {
	// Connect establishes a connection source for the database.
	// The returned source should be closed by the caller when done.
	Connect(ctx context.Context) (ConnSource, error)
}
