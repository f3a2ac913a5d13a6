// Package errors provides the compiler-wide structured error-code taxonomy
// and the Report type every stage uses to hand a diagnostic through a plain
// Go error chain without losing its structure.
package errors

import (
	"encoding/json"
	"errors"

	"github.com/keilang/kei/internal/diag"
)

// Fix is a suggested remediation attached to a Report, e.g. "add a catch arm
// for NotFound".
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Report is the canonical structured error value for kei. Every component
// that wants to surface a diagnostic as a Go error builds one of these and
// wraps it with WrapReport, rather than returning fmt.Errorf ad hoc.
type Report struct {
	Schema  string         `json:"schema"` // always "kei.error/v1"
	Code    string         `json:"code"`   // e.g. SEM004, KIR002
	Phase   string         `json:"phase"`  // "lexer", "parser", "resolve", "check", "lower", "ssa", "emit", "driver"
	Message string         `json:"message"`
	Span    *diag.Span     `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As unwrapping.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error. Call sites return errors.WrapReport(r)
// to preserve structure through normal Go error propagation.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders a Report as deterministic JSON.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewGeneric wraps an arbitrary Go error from the given phase as a Report
// with the catch-all RUNTIME code, for errors that were not built with a
// specific code (host-compiler subprocess failures, I/O errors, etc.).
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  "kei.error/v1",
		Code:    "RUNTIME",
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}

// New builds a Report at the given span with no structured data.
func New(code, phase, message string, span diag.Span) *Report {
	return &Report{
		Schema:  "kei.error/v1",
		Code:    code,
		Phase:   phase,
		Message: message,
		Span:    &span,
	}
}

// WithFix attaches a suggested fix to a Report and returns it for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// WithData attaches a structured data field and returns the Report for chaining.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}
