package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
// This provides compatibility with the fs.FS ecosystem while maintaining
// a stable local type for our abstraction layer.
type FileInfo = fs.FileInfo

// FileSystemProvider abstracts the directory listing and file reads the
// ingestion pipeline performs, so tests can run against memory.
type FileSystemProvider interface {
	// ReadDir returns the entries of a single directory sorted by name.
	// It does not descend into subdirectories.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)

	// OpenFile opens a file for streaming reads. The caller closes it.
	OpenFile(path string) (io.ReadCloser, error)

	// Join builds a child path in the provider's path convention.
	Join(elem ...string) string
}
