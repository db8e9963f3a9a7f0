// Package scanner enumerates the source files of an ingestion run.
//
// Only the top level of the source directory is listed. A file is selected
// when its name ends in a recognized format extension (.csv, .tsv),
// optionally followed by a compression extension (.gz, .zst). Everything
// else is skipped without notice.
//
// The scanner is filesystem-agnostic through the filesystem.FileSystemProvider
// interface, enabling both production use with the OS filesystem and testing
// with in-memory filesystems.
package scanner
