// Package diag carries structured diagnostics (severity, message, source span, help text) without
// any opinion on how they are rendered - that is left to the front-end the core is embedded in.
package diag

import (
	"github.com/patt3/lc3core/internal/objfile"
)

// Severity classifies a Diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "error"
	}
}

// Range is a source span: 1-indexed lines, 0-indexed byte columns, end-exclusive. It is the same shape as
// objfile.SourceRange so diagnostics can be built directly from assembler errors.
type Range = objfile.SourceRange

// spanKind tags which shape of span a diagnostic carries.
type spanKind uint8

const (
	spanNone spanKind = iota
	spanOne
	spanTwo
	spanMany
)

// ErrSpan is a tagged variant over zero, one, two, or many source ranges, mirroring the spec's
// `One(range) | Two([range;2]) | Many(range[])` shape as a small Go value instead of an interface,
// since every case is a fixed, known set of ranges.
type ErrSpan struct {
	kind   spanKind
	one    Range
	two    [2]Range
	many   []Range
}

// NoSpan is the zero value: a diagnostic with no attached source location.
var NoSpan = ErrSpan{}

// OneSpan wraps a single range.
func OneSpan(r Range) ErrSpan { return ErrSpan{kind: spanOne, one: r} }

// TwoSpans wraps exactly two ranges, e.g. a duplicate-label error pointing at both definitions.
func TwoSpans(a, b Range) ErrSpan { return ErrSpan{kind: spanTwo, two: [2]Range{a, b}} }

// ManySpans wraps an arbitrary list of ranges.
func ManySpans(rs []Range) ErrSpan { return ErrSpan{kind: spanMany, many: rs} }

// Ranges flattens the span into a plain slice, regardless of which case it holds.
func (es ErrSpan) Ranges() []Range {
	switch es.kind {
	case spanOne:
		return []Range{es.one}
	case spanTwo:
		return []Range{es.two[0], es.two[1]}
	case spanMany:
		return append([]Range(nil), es.many...)
	default:
		return nil
	}
}

// IsZero reports whether the diagnostic carries no span.
func (es ErrSpan) IsZero() bool { return es.kind == spanNone }

// Diagnostic is the core's structured error report; rendering (color, frames, Unicode) is a
// front-end concern entirely outside this package.
type Diagnostic struct {
	Severity Severity
	Message  string
	Filename *string
	Source   *string
	Spans    ErrSpan
	Help     *string
}

// New builds an error-severity diagnostic with no span or help text.
func New(message string) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: message}
}

// WithSpan attaches a span and returns the updated diagnostic.
func (d Diagnostic) WithSpan(span ErrSpan) Diagnostic {
	d.Spans = span
	return d
}

// WithHelp attaches help text and returns the updated diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = &help
	return d
}

// WithSource attaches the filename and source text a diagnostic was produced from.
func (d Diagnostic) WithSource(filename, source string) Diagnostic {
	d.Filename = &filename
	d.Source = &source
	return d
}
