package pgingest

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ColumnSet is the ordered list of column names taken from a header row.
// All columns are untyped text.
type ColumnSet []string

// TableIdentity is the destination (namespace, table) pair of a load job.
type TableIdentity struct {
	Namespace string
	Table     string
}

// String returns the unquoted dotted form, for display only.
func (t TableIdentity) String() string {
	return t.Namespace + "." + t.Table
}

// Sanitize returns the quoted, schema-qualified identifier for use in SQL.
// It is the only way identities reach generated statements.
func (t TableIdentity) Sanitize() string {
	return pgx.Identifier{t.Namespace, t.Table}.Sanitize()
}

// IsZero reports whether the identity was never resolved.
func (t TableIdentity) IsZero() bool {
	return t.Namespace == "" && t.Table == ""
}

// QuoteColumns returns the columns quoted and comma-separated.
func (c ColumnSet) QuoteColumns() string {
	var b []byte
	for i, col := range c {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, pgx.Identifier{col}.Sanitize()...)
	}
	return string(b)
}

// LoadJob is the unit of work for one source file.
// Identity and Columns stay zero when the job fails before they are known.
type LoadJob struct {
	Index    int
	Source   SourceFile
	Identity TableIdentity
	Columns  ColumnSet
}

// JobStatus is the terminal state of a LoadJob.
type JobStatus int

const (
	JobSucceeded JobStatus = iota
	JobFailed
)

func (s JobStatus) String() string {
	switch s {
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records how a LoadJob ended.
type Outcome struct {
	Status JobStatus

	// Rows is the number of rows committed. Always 0 for failed jobs.
	Rows int64

	// Err is set for failed jobs.
	Err error

	// TableCreated is true when provisioning created the table for this job.
	TableCreated bool

	// Strategy names the transfer strategy used ("copy" or "insert").
	Strategy string

	Duration time.Duration
}

// Kind returns the taxonomy name of the outcome's error.
func (o Outcome) Kind() ErrorKind {
	return KindOf(o.Err)
}

// Succeeded builds a successful outcome.
func Succeeded(rows int64) Outcome {
	return Outcome{Status: JobSucceeded, Rows: rows}
}

// Failed builds a failed outcome.
func Failed(err error) Outcome {
	return Outcome{Status: JobFailed, Err: err}
}

// JobResult pairs a LoadJob with its outcome.
type JobResult struct {
	Job     LoadJob
	Outcome Outcome
}

// RunSummary is the ordered result of one ingestion run.
// It is read-only once Run returns.
type RunSummary struct {
	RunID      uuid.UUID
	Directory  string
	Namespace  string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []JobResult
}

// Succeeded returns the number of successful jobs.
func (s *RunSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome.Status == JobSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the number of failed jobs.
func (s *RunSummary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// TotalRows returns the number of rows committed across all jobs.
func (s *RunSummary) TotalRows() int64 {
	var total int64
	for _, r := range s.Results {
		total += r.Outcome.Rows
	}
	return total
}

// Duration returns the wall-clock time of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Err returns nil when every job succeeded, otherwise an error wrapping
// ErrJobsFailed and each job's failure.
func (s *RunSummary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Outcome.Status == JobFailed {
			errs = append(errs, r.Outcome.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrJobsFailed}, errs...)...)
}
