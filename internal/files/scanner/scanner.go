package scanner

import (
	"fmt"
	"iter"

	"github.com/vvka-141/pgingest/internal/files/filesystem"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Scanner enumerates ingestion sources in a single directory.
// Scanner is safe for concurrent use by multiple goroutines as long as
// the provided fsProvider is also thread-safe.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a new scanner with a custom filesystem provider.
// This is primarily useful for testing with in-memory filesystems.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// Enumerate lists the directory once and returns a sequence over its
// recognized source files in listing order. Subdirectories and files without
// a recognized extension are skipped. File contents are never opened.
//
// Returns an error wrapping pgingest.ErrNotFound if dir is missing, is not a
// directory, or cannot be listed.
func (s *Scanner) Enumerate(dir string) (iter.Seq[pgingest.SourceFile], error) {
	info, err := s.fsProvider.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pgingest.ErrNotFound, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", pgingest.ErrNotFound, dir)
	}

	entries, err := s.fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pgingest.ErrNotFound, dir, err)
	}

	return func(yield func(pgingest.SourceFile) bool) {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			logical, format, compression, ok := pgingest.ClassifyName(entry.Name())
			if !ok {
				continue
			}

			src := pgingest.SourceFile{
				Path:        s.fsProvider.Join(dir, entry.Name()),
				Name:        entry.Name(),
				LogicalName: logical,
				Format:      format,
				Compression: compression,
				Size:        entry.Size(),
			}
			if !yield(src) {
				return
			}
		}
	}, nil
}

var _ pgingest.SourceEnumerator = (*Scanner)(nil)
