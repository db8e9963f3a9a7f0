package tabular

import (
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// reader streams data rows after the header. Not safe for concurrent use.
type reader struct {
	src     pgingest.SourceFile
	csv     interface{ Read() ([]string, error) }
	body    io.Closer
	columns pgingest.ColumnSet

	current []string
	rows    int64
	err     error
	closed  bool
}

func (r *reader) Columns() pgingest.ColumnSet {
	return r.columns
}

func (r *reader) Next() bool {
	if r.err != nil || r.closed {
		return false
	}

	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		r.current = nil
		return false
	}
	if err != nil {
		r.current = nil
		r.err = fmt.Errorf("%w: %s: row %d: %w", pgingest.ErrDecode, r.src.Name, r.rows+1, err)
		return false
	}

	r.current = record
	r.rows++
	return true
}

func (r *reader) Values() []string {
	return r.current
}

func (r *reader) Err() error {
	return r.err
}

// Rows returns the number of data rows read so far.
func (r *reader) Rows() int64 {
	return r.rows
}

func (r *reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.body.Close()
}

var _ pgingest.TabularReader = (*reader)(nil)
