// Package logging provides concrete implementations of the pgingest.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes formatted lines to stderr (or any writer), with
//     optional colored [VERBOSE]/[ERROR] prefixes
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
