// Package diag defines the cross-cutting span and diagnostic types shared by
// every compiler stage: lexer, parser, AST lowering, evaluator, and geometry
// kernel all report into the same Bag.
package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Span is a half-open byte interval [Start, End) into the original source.
// Every CST, AST, and IR node carries one, and source[Start:End] must be the
// exact text that produced the node (whitespace-trimmed at boundaries).
type Span struct {
	Start int
	End   int
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	s := Span{Start: a.Start, End: a.End}
	if b.Start < s.Start {
		s.Start = b.Start
	}
	if b.End > s.End {
		s.End = b.End
	}
	return s
}

// Severity classifies a Diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a single stage report: a severity, a message, the span it
// concerns, and an optional remediation hint.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     Span
	Hint     string
}

// Error implements the error interface so a Diagnostic can be wrapped and
// propagated through a normal Go error chain where convenient.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Span.Start, d.Span.End, d.Severity, d.Message)
}

// MarshalJSON flattens Span into top-level start/end fields, the shape the
// host consumes: { severity, message, start, end, hint? }.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
		Start    int    `json:"start"`
		End      int    `json:"end"`
		Hint     string `json:"hint,omitempty"`
	}{
		Severity: d.Severity.String(),
		Message:  d.Message,
		Start:    d.Span.Start,
		End:      d.Span.End,
		Hint:     d.Hint,
	})
}

// FormatWithContext renders the diagnostic with a caret pointing into src.
func (d Diagnostic) FormatWithContext(src string) string {
	if d.Span.Start < 0 || d.Span.Start > len(src) {
		return d.Error()
	}
	line, col := lineCol(src, d.Span.Start)
	lines := strings.Split(src, "\n")
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", d.Severity, d.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", line, col)
	if line >= 1 && line <= len(lines) {
		sb.WriteString("   |\n")
		fmt.Fprintf(&sb, "%3d| %s\n", line, lines[line-1])
		fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	}
	if d.Hint != "" {
		fmt.Fprintf(&sb, "   = hint: %s\n", d.Hint)
	}
	return sb.String()
}

func lineCol(src string, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Bag accumulates diagnostics across an entire compile. Every stage appends
// to the same Bag rather than failing fast, so a run produces a complete
// report instead of stopping at the first error.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Addf appends a diagnostic built from a format string.
func (b *Bag) Addf(sev Severity, span Span, format string, args ...any) {
	b.Add(Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...), Span: span})
}

// Errorf appends an Error-severity diagnostic.
func (b *Bag) Errorf(span Span, format string, args ...any) {
	b.Addf(Error, span, format, args...)
}

// Warnf appends a Warning-severity diagnostic.
func (b *Bag) Warnf(span Span, format string, args ...any) {
	b.Addf(Warning, span, format, args...)
}

// Infof appends an Info-severity diagnostic.
func (b *Bag) Infof(span Span, format string, args ...any) {
	b.Addf(Info, span, format, args...)
}

// All returns every diagnostic collected so far.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics recorded.
func (b *Bag) Len() int {
	return len(b.items)
}

// Extend appends a slice of diagnostics onto this bag.
func (b *Bag) Extend(ds []Diagnostic) {
	b.items = append(b.items, ds...)
}
