// Package filesystem provides the filesystem abstraction used to list and
// read ingestion sources.
//
// Implementations:
//   - OSFileSystem: Production implementation using the OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing, including
//     injected read failures via FailOn
package filesystem
