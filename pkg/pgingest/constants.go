package pgingest

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Every job succeeded
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitSourceNotFound  = 15 // Source directory missing or unreadable
	ExitJobsFailed      = 16 // Run completed but at least one job failed
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	// Applies to connection establishment only; load jobs are never retried.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the default database to connect to for management operations.
	DefaultManagementDB = "postgres"

	// DefaultNamespace is the store's default schema.
	DefaultNamespace = "public"

	// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1. Longer names are
	// silently truncated by the server, so they are handled client-side.
	MaxIdentifierLength = 63
)
