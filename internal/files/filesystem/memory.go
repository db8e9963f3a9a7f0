package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	content []byte
	info    *memoryFileInfo
}

// MemoryFileSystem implements FileSystemProvider for in-memory testing
type MemoryFileSystem struct {
	entries    map[string]*memoryEntry // absolute path -> entry
	root       string
	unreadable map[string]error
}

// NewMemoryFileSystem creates a new in-memory filesystem.
// The root path is normalized to use forward slashes for virtual filesystem consistency.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))

	mfs := &MemoryFileSystem{
		entries:    make(map[string]*memoryEntry),
		root:       root,
		unreadable: make(map[string]error),
	}
	mfs.entries[root] = newDirEntry(root)

	return mfs
}

// Root returns the filesystem root path.
func (mfs *MemoryFileSystem) Root() string {
	return mfs.root
}

// AddFile adds a text file to the in-memory filesystem
func (mfs *MemoryFileSystem) AddFile(filePath string, content string) {
	mfs.AddBytes(filePath, []byte(content))
}

// AddBytes adds a file with raw (possibly binary) content.
func (mfs *MemoryFileSystem) AddBytes(filePath string, content []byte) {
	absPath := mfs.abs(filePath)

	mfs.entries[absPath] = &memoryEntry{
		content: content,
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			size:    int64(len(content)),
			mode:    0644,
			modTime: time.Now(),
		},
	}

	mfs.ensureDirectoriesExist(absPath)
}

// AddDir adds an empty directory.
func (mfs *MemoryFileSystem) AddDir(dirPath string) {
	absPath := mfs.abs(dirPath)
	if _, exists := mfs.entries[absPath]; !exists {
		mfs.entries[absPath] = newDirEntry(absPath)
	}
	mfs.ensureDirectoriesExist(absPath)
}

// FailOn makes every read of the given path return err.
func (mfs *MemoryFileSystem) FailOn(p string, err error) {
	mfs.unreadable[mfs.abs(p)] = err
}

func newDirEntry(absPath string) *memoryEntry {
	return &memoryEntry{
		info: &memoryFileInfo{
			name:    path.Base(absPath),
			mode:    0755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
}

func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mfs.root
	}
	if !path.IsAbs(p) {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

// ensureDirectoriesExist creates directory entries for all parent directories
func (mfs *MemoryFileSystem) ensureDirectoriesExist(filePath string) {
	dir := path.Dir(filePath)
	if dir == "." || dir == filePath {
		return
	}
	if _, exists := mfs.entries[dir]; exists {
		return
	}
	mfs.entries[dir] = newDirEntry(dir)
	mfs.ensureDirectoriesExist(dir)
}

// ReadDir implements FileSystemProvider.ReadDir
func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	absPath := mfs.abs(dirPath)
	if err, failing := mfs.unreadable[absPath]; failing {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	entry, exists := mfs.entries[absPath]
	if !exists {
		return nil, fmt.Errorf("failed to read directory: %s: %w", dirPath, fs.ErrNotExist)
	}
	if !entry.info.IsDir() {
		return nil, fmt.Errorf("failed to read directory: %s is not a directory", dirPath)
	}

	var result []FileInfo
	for p, e := range mfs.entries {
		if p != absPath && path.Dir(p) == absPath {
			result = append(result, e.info)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})

	return result, nil
}

// Stat implements FileSystemProvider.Stat
func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	entry, exists := mfs.entries[mfs.abs(statPath)]
	if !exists {
		return nil, fmt.Errorf("path not found: %s: %w", statPath, fs.ErrNotExist)
	}
	return entry.info, nil
}

// OpenFile implements FileSystemProvider.OpenFile
func (mfs *MemoryFileSystem) OpenFile(filePath string) (io.ReadCloser, error) {
	absPath := mfs.abs(filePath)
	if err, failing := mfs.unreadable[absPath]; failing {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	entry, exists := mfs.entries[absPath]
	if !exists {
		return nil, fmt.Errorf("file not found: %s: %w", filePath, fs.ErrNotExist)
	}
	if entry.info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	return io.NopCloser(bytes.NewReader(entry.content)), nil
}

// Join implements FileSystemProvider.Join
func (mfs *MemoryFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

var _ FileSystemProvider = (*MemoryFileSystem)(nil)
