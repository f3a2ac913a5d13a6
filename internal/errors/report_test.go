package errors

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/keilang/kei/internal/diag"
)

func TestWrapReportRoundTrip(t *testing.T) {
	span := diag.Span{Start: diag.Pos{File: "a.kei", Line: 3, Column: 5}}
	r := New(SEM003, "check", "expected i32, found string", span)
	err := WrapReport(r)

	got, ok := AsReport(err)
	if !ok {
		t.Fatalf("AsReport failed to extract report from %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("report round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapReportNil(t *testing.T) {
	if err := WrapReport(nil); err != nil {
		t.Errorf("WrapReport(nil) = %v, want nil", err)
	}
}

func TestReportErrorMessage(t *testing.T) {
	r := New(RES002, "resolve", "circular import: a -> b -> a", diag.Span{})
	err := WrapReport(r)
	want := "RES002: circular import: a -> b -> a"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWithFixAndData(t *testing.T) {
	r := New(SEM004, "check", "non-exhaustive switch", diag.Span{}).
		WithFix("add a default arm", 0.7).
		WithData("missing", []string{"Red", "Blue"})

	if r.Fix == nil || r.Fix.Suggestion != "add a default arm" {
		t.Errorf("expected fix to be attached, got %+v", r.Fix)
	}
	if r.Data["missing"] == nil {
		t.Errorf("expected data field to be attached")
	}
}
