package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

var summaryHeader = []string{"#", "FILE", "TABLE", "STATUS", "ROWS", "STRATEGY", "TIME"}

// numeric columns are right-aligned
var rightAligned = map[int]bool{0: true, 4: true}

// RenderSummary writes a table of every job in s followed by a totals line.
// Failed jobs get their error on an indented line below the row.
func RenderSummary(w io.Writer, s *pgingest.RunSummary, color bool) error {
	if s == nil {
		return nil
	}

	paint := func(style lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return style.Render(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", paint(TitleStyle, fmt.Sprintf("Ingestion run %s", s.RunID)))
	fmt.Fprintf(&b, "%s\n\n", paint(MutedStyle, fmt.Sprintf("directory %s, namespace %s", s.Directory, s.Namespace)))

	if len(s.Results) == 0 {
		b.WriteString("No source files found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	rows := make([][]string, 0, len(s.Results))
	for _, r := range s.Results {
		rows = append(rows, summaryRow(r))
	}
	widths := columnWidths(summaryHeader, rows)

	b.WriteString(paint(HeaderStyle, formatRow(summaryHeader, widths)))
	b.WriteString("\n")

	for i, r := range s.Results {
		line := formatRow(rows[i], widths)
		if r.Outcome.Status == pgingest.JobFailed {
			b.WriteString(paint(ErrorStyle, line))
			b.WriteString("\n")
			fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", widths[0]+2), paint(MutedStyle, r.Outcome.Err.Error()))
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	totals := fmt.Sprintf("%d succeeded, %d failed, %d rows in %s",
		s.Succeeded(), s.Failed(), s.TotalRows(), roundDuration(s.Duration()))
	if s.Failed() > 0 {
		b.WriteString(paint(ErrorStyle, SymbolCross+" "+totals))
	} else {
		b.WriteString(paint(SuccessStyle, SymbolCheck+" "+totals))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func summaryRow(r pgingest.JobResult) []string {
	table := "-"
	if !r.Job.Identity.IsZero() {
		table = r.Job.Identity.String()
	}

	status := SymbolCheck + " ok"
	rows := strconv.FormatInt(r.Outcome.Rows, 10)
	strategy := r.Outcome.Strategy
	if r.Outcome.Status == pgingest.JobFailed {
		status = SymbolCross + " " + string(r.Outcome.Kind())
		rows = "-"
	}
	if r.Outcome.TableCreated {
		table += " (new)"
	}
	if strategy == "" {
		strategy = "-"
	}

	return []string{
		strconv.Itoa(r.Job.Index),
		r.Job.Source.Name,
		table,
		status,
		rows,
		strategy,
		roundDuration(r.Outcome.Duration).String(),
	}
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		gap := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		if rightAligned[i] {
			padded[i] = gap + cell
		} else {
			padded[i] = cell + gap
		}
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(10 * time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Millisecond)
	default:
		return d.Round(time.Microsecond)
	}
}
