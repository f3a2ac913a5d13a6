package diag

import "fmt"

// Severity classifies a diagnostic per spec §7: Error, Warning, Note.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem, tagged with a stable error code (see
// internal/errors) and the smallest span that usefully locates it.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     Span
}

// String renders a diagnostic in the user-visible format from spec §7:
// "error: <message> at <file>:<line>:<column>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s at %s", d.Severity, d.Message, d.Span.Start)
}

// Sink accumulates diagnostics across a pipeline stage. No stage aborts on
// first error; the driver tallies severities and exits nonzero only if any
// Error-severity diagnostic was recorded.
type Sink struct {
	diags []Diagnostic
}

// NewSink creates an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Add appends a diagnostic.
func (s *Sink) Add(d Diagnostic) {
	s.diags = append(s.diags, d)
}

// Errorf records an Error-severity diagnostic at span.
func (s *Sink) Errorf(code string, span Span, format string, args ...interface{}) {
	s.Add(Diagnostic{Severity: Error, Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// Warnf records a Warning-severity diagnostic at span.
func (s *Sink) Warnf(code string, span Span, format string, args ...interface{}) {
	s.Add(Diagnostic{Severity: Warning, Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// Notef records a Note-severity diagnostic at span.
func (s *Sink) Notef(code string, span Span, format string, args ...interface{}) {
	s.Add(Diagnostic{Severity: Note, Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// Diagnostics returns every diagnostic recorded so far, in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.diags
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends another sink's diagnostics into this one, preserving order.
func (s *Sink) Merge(other *Sink) {
	s.diags = append(s.diags, other.diags...)
}
