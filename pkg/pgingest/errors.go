package pgingest

import (
	"errors"
	"strings"
)

// Sentinel errors for the ingestion error taxonomy.
// Component errors wrap exactly one of these so callers can classify them with errors.Is().
//
// Example usage:
//
//	summary, err := ingestor.Run(ctx, cfg)
//	if errors.Is(err, pgingest.ErrNotFound) {
//	    // the source directory is missing
//	}
var (
	// ErrNotFound indicates the source directory is missing or unreadable.
	// It is the only error that aborts a whole run.
	ErrNotFound = errors.New("source directory not found")

	// ErrInvalidIdentifier indicates a file name or namespace normalized to
	// an empty or reserved identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrIdentityCollision indicates two source files resolved to the same table.
	ErrIdentityCollision = errors.New("identity collision")

	// ErrDecode indicates a file could not be decoded (bad header, wrong arity, corrupt compression).
	ErrDecode = errors.New("decode error")

	// ErrProvisioning indicates the namespace or table could not be ensured.
	ErrProvisioning = errors.New("provisioning failed")

	// ErrTransfer indicates the row transfer failed and was rolled back.
	ErrTransfer = errors.New("transfer failed")

	// ErrJobsFailed indicates a run completed with at least one failed job.
	ErrJobsFailed = errors.New("one or more jobs failed")

	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrUnsupportedDriver indicates the requested database driver is unknown.
	ErrUnsupportedDriver = errors.New("unsupported driver")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// ErrorKind names an error's place in the taxonomy, as shown in run summaries.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindNotFound          ErrorKind = "NotFoundError"
	KindInvalidIdentifier ErrorKind = "InvalidIdentifierError"
	KindIdentityCollision ErrorKind = "IdentityCollisionError"
	KindDecode            ErrorKind = "DecodeError"
	KindProvisioning      ErrorKind = "ProvisioningError"
	KindTransfer          ErrorKind = "TransferError"
	KindUnknown           ErrorKind = "Error"
)

// KindOf classifies err. The first matching sentinel wins, so a decode
// failure surfaced during transfer is still reported as a DecodeError.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidIdentifier):
		return KindInvalidIdentifier
	case errors.Is(err, ErrIdentityCollision):
		return KindIdentityCollision
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrProvisioning):
		return KindProvisioning
	case errors.Is(err, ErrTransfer):
		return KindTransfer
	default:
		return KindUnknown
	}
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedDriver):
		return ExitConfigError
	case errors.Is(err, ErrNotFound):
		return ExitSourceNotFound
	case errors.Is(err, ErrJobsFailed):
		return ExitJobsFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError matches the messages cobra produces for command-line misuse.
func isUsageError(msg string) bool {
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
