package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/vvka-141/pgingest/internal/files/filesystem"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

const (
	utf8BOM        = "\uFEFF"
	readBufferSize = 64 * 1024
)

// ColumnNormalizer rewrites a header name. Errors fail the file.
type ColumnNormalizer func(name string) (string, error)

// Decoder opens delimited text sources, unwrapping compression on the fly.
// Safe for concurrent use; each Open returns an independent reader.
type Decoder struct {
	fsProvider filesystem.FileSystemProvider
	normalize  ColumnNormalizer
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithColumnNormalizer rewrites every header name before validation.
func WithColumnNormalizer(fn ColumnNormalizer) Option {
	return func(d *Decoder) {
		d.normalize = fn
	}
}

// NewDecoder creates a decoder reading through fsProvider.
// Panics if fsProvider is nil.
func NewDecoder(fsProvider filesystem.FileSystemProvider, opts ...Option) *Decoder {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	d := &Decoder{fsProvider: fsProvider}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open reads and validates the header row of src and returns a reader
// positioned at the first data row. Every failure wraps pgingest.ErrDecode.
func (d *Decoder) Open(src pgingest.SourceFile) (pgingest.TabularReader, error) {
	raw, err := d.fsProvider.OpenFile(src.Path)
	if err != nil {
		return nil, decodeErr(src, "open", err)
	}

	body, err := decompress(raw, src.Compression)
	if err != nil {
		raw.Close()
		return nil, decodeErr(src, "decompress", err)
	}

	r := csv.NewReader(bufio.NewReaderSize(body, readBufferSize))
	r.Comma = src.Format.Delimiter()
	// TSV has no quoting convention; a bare quote is ordinary field content.
	r.LazyQuotes = src.Format == pgingest.FormatTSV
	// Zero locks the expected field count to the header's width.
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		body.Close()
		return nil, decodeErr(src, "header", errors.New("missing header row"))
	}
	if err != nil {
		body.Close()
		return nil, decodeErr(src, "header", err)
	}

	columns, err := d.columns(header)
	if err != nil {
		body.Close()
		return nil, decodeErr(src, "header", err)
	}

	return &reader{src: src, csv: r, body: body, columns: columns}, nil
}

func (d *Decoder) columns(header []string) (pgingest.ColumnSet, error) {
	columns := make(pgingest.ColumnSet, len(header))
	seen := make(map[string]int, len(header))

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)

		if d.normalize != nil && name != "" {
			normalized, err := d.normalize(name)
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", i+1, err)
			}
			name = normalized
		}

		switch {
		case name == "":
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		case len(name) > pgingest.MaxIdentifierLength:
			return nil, fmt.Errorf("column %d name exceeds %d bytes", i+1, pgingest.MaxIdentifierLength)
		}

		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column %q (columns %d and %d)", name, prev+1, i+1)
		}
		seen[name] = i
		columns[i] = name
	}

	return columns, nil
}

// decompress wraps raw according to the source's compression. The returned
// closer releases both the decompressor and the underlying file.
func decompress(raw io.ReadCloser, c pgingest.Compression) (io.ReadCloser, error) {
	switch c {
	case pgingest.CompressionNone:
		return raw, nil
	case pgingest.CompressionGzip:
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, raw}}, nil
	case pgingest.CompressionZstd:
		zr, err := zstd.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), raw}}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func decodeErr(src pgingest.SourceFile, stage string, err error) error {
	return fmt.Errorf("%w: %s: %s: %w", pgingest.ErrDecode, src.Name, stage, err)
}

var _ pgingest.Decoder = (*Decoder)(nil)
