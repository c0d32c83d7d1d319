// Package diag implements the structured diagnostics described in
// spec.md §6.5 and §7: every error and warning morph emits carries a
// severity, a kind tag, an optional source position, a one-line source
// excerpt with a caret under the offending span, and — for lexer/parser
// errors on an unknown identifier — a "did you mean?" suggestion.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Severity distinguishes fatal diagnostics from warnings that let the run
// continue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Position is a 1-based line/column pair into mapping-language source.
type Position struct {
	Line   int
	Column int
}

// Diagnostic is the renderable unit for every LexError, ParseError,
// PathError, TypeError, CastError, SortError, ReadError, WriteError,
// UsageError and warning morph produces.
type Diagnostic struct {
	Severity   Severity
	Kind       string // "LexError", "ParseError", "TypeError", ...
	Message    string
	File       string // empty when there is no source file (stdin, -e)
	Pos        Position
	SourceLine string // the full line Pos.Line refers to, for the excerpt
	SpanLen    int    // width of the caret; defaults to 1 when 0
	Suggestion string // "did you mean 'lower'?" — empty when none
}

// DiagKind exposes the diagnostic's Kind to callers that only hold it
// as an error — the streaming driver uses this to decide whether
// --skip-errors may downgrade a given failure to a warning (§6.4, §7).
func (d *Diagnostic) DiagKind() string { return d.Kind }

// Error implements the error interface so a Diagnostic can be returned
// and wrapped like any other Go error.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	if d.Pos.Line > 0 {
		fmt.Fprintf(&b, " (line %d, column %d)", d.Pos.Line, d.Pos.Column)
	}
	return b.String()
}

// Render writes the full human-facing diagnostic — severity, kind,
// location, source excerpt with caret, and suggestion — to w. Color is
// applied through fatih/color, which auto-detects TTY support and the
// NO_COLOR convention on its own; callers don't need to probe isatty
// themselves.
func (d *Diagnostic) Render(w io.Writer) {
	sev := color.New(color.FgRed, color.Bold)
	if d.Severity == SeverityWarning {
		sev = color.New(color.FgYellow, color.Bold)
	}
	loc := ""
	if d.File != "" {
		loc = d.File + ":"
	}
	if d.Pos.Line > 0 {
		loc += fmt.Sprintf("%d:%d: ", d.Pos.Line, d.Pos.Column)
	}

	sev.Fprintf(w, "%s", d.Severity.String())
	fmt.Fprintf(w, "[%s]: %s%s\n", d.Kind, loc, d.Message)

	if d.SourceLine != "" && d.Pos.Column > 0 {
		fmt.Fprintf(w, "  %s\n", d.SourceLine)
		width := d.SpanLen
		if width < 1 {
			width = 1
		}
		pad := strings.Repeat(" ", d.Pos.Column-1+2)
		caret := color.New(color.FgCyan).Sprint(strings.Repeat("^", width))
		fmt.Fprintf(w, "%s%s\n", pad, caret)
	}

	if d.Suggestion != "" {
		color.New(color.FgGreen).Fprintf(w, "  hint: %s\n", d.Suggestion)
	}
}

// Sink receives diagnostics as they're produced. The production sink
// writes to stderr; tests supply a recording sink to assert on output
// without depending on terminal state — the same injectable-provider
// pattern spec.md §5 requires for the clock and environment.
type Sink interface {
	Emit(d *Diagnostic)
}

// WriterSink renders every diagnostic to an underlying io.Writer — the
// production sink, backed by os.Stderr in cmd/morph.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Emit(d *Diagnostic) { d.Render(s.W) }

// RecordingSink collects diagnostics in memory for tests.
type RecordingSink struct {
	Diagnostics []*Diagnostic
}

func (s *RecordingSink) Emit(d *Diagnostic) { s.Diagnostics = append(s.Diagnostics, d) }
