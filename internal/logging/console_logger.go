package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

var (
	verbosePrefix = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorPrefix   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// ConsoleLogger writes log messages to stderr, or to the writer given with
// NewConsoleLoggerTo. Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	color   bool
	out     io.Writer
	mu      sync.Mutex
}

// NewConsoleLogger creates a new ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{verbose: verbose, out: w}
}

// WithColor enables colored prefixes. Intended for terminals only.
func (l *ConsoleLogger) WithColor(enabled bool) *ConsoleLogger {
	l.color = enabled
	return l
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(l.prefix("[VERBOSE]", verbosePrefix), format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(l.prefix("[ERROR]", errorPrefix), format, args)
}

func (l *ConsoleLogger) prefix(tag string, style lipgloss.Style) string {
	if l.color {
		tag = style.Render(tag)
	}
	return tag + " "
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, prefix+msg+"\n")
}

var _ pgingest.Logger = (*ConsoleLogger)(nil)
