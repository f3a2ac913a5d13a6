package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/resolve"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// checkSource resolves a single-file module tree rooted at mainFile and
// runs the checker over it, returning the sink for assertion.
func checkSource(t *testing.T, src string) *diag.Sink {
	t.Helper()
	root := t.TempDir()
	mainFile := filepath.Join(root, "src", "main.kei")
	writeFile(t, mainFile, src)

	r := resolve.New("", "")
	mods, err := r.Resolve(mainFile)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	sink := diag.NewSink()
	c := New(sink)
	c.Check(mods)
	return sink
}

func codesOf(sink *diag.Sink) []string {
	var codes []string
	for _, d := range sink.Diagnostics() {
		if d.Severity == diag.Error {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

func TestCheckBasicFuncCall(t *testing.T) {
	sink := checkSource(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}

		fn main() -> i32 {
			return add(1, 2);
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckUndeclaredName(t *testing.T) {
	sink := checkSource(t, `
		fn main() -> i32 {
			return missing();
		}
	`)
	if !sink.HasErrors() {
		t.Fatalf("expected SEM001 for undeclared name")
	}
}

func TestCheckStructMethodAndOperatorOverload(t *testing.T) {
	sink := checkSource(t, `
		struct Vec2 {
			x: f64;
			y: f64;

			fn op_add(self: Vec2, other: Vec2) -> Vec2 {
				return Vec2{x: self.x + other.x, y: self.y + other.y};
			}

			fn length(self: Vec2) -> f64 {
				return self.x;
			}
		}

		fn main() -> f64 {
			let a = Vec2{x: 1.0, y: 2.0};
			let b = Vec2{x: 3.0, y: 4.0};
			let c = a + b;
			return c.length();
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckEnumExhaustivenessMissingVariant(t *testing.T) {
	sink := checkSource(t, `
		enum Shape {
			Circle(f64),
			Rect(f64, f64),
		}

		fn area(s: Shape) -> f64 {
			switch s {
			case Circle(r):
				return r;
			}
		}
	`)
	found := false
	for _, c := range codesOf(sink) {
		if c == "SEM004" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SEM004 non-exhaustive switch, got %v", codesOf(sink))
	}
}

func TestCheckEnumExhaustiveSwitchWithDataBind(t *testing.T) {
	sink := checkSource(t, `
		enum Shape {
			Circle(f64),
			Rect(f64, f64),
		}

		fn area(s: Shape) -> f64 {
			switch s {
			case Circle(r):
				return r;
			case Rect(w, h):
				return w;
			}
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckThrowsRequiresWrapping(t *testing.T) {
	sink := checkSource(t, `
		struct NotFound {
			message: string;
		}

		fn lookup(key: string) throws NotFound {
			throw NotFound{message: key};
		}

		fn main() {
			lookup("x");
		}
	`)
	found := false
	for _, c := range codesOf(sink) {
		if c == "SEM005" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SEM005 unhandled throws obligation, got %v", codesOf(sink))
	}
}

func TestCheckCatchPanicAlwaysLegal(t *testing.T) {
	sink := checkSource(t, `
		struct NotFound {
			message: string;
		}

		fn lookup(key: string) throws NotFound {
			throw NotFound{message: key};
		}

		fn main() {
			let v = lookup("x") catch panic;
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckCatchThrowRequiresDeclaredThrows(t *testing.T) {
	sink := checkSource(t, `
		struct NotFound {
			message: string;
		}

		fn lookup(key: string) throws NotFound {
			throw NotFound{message: key};
		}

		fn main() {
			let v = lookup("x") catch throw;
		}
	`)
	found := false
	for _, c := range codesOf(sink) {
		if c == "SEM006" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SEM006 illegal catch throw, got %v", codesOf(sink))
	}
}

func TestCheckCatchThrowLegalWhenRethrown(t *testing.T) {
	sink := checkSource(t, `
		struct NotFound {
			message: string;
		}

		fn lookup(key: string) throws NotFound {
			throw NotFound{message: key};
		}

		fn relay(key: string) throws NotFound {
			let v = lookup(key) catch throw;
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckCatchClausesMustCoverAllThrowsTypes(t *testing.T) {
	sink := checkSource(t, `
		struct NotFound {
			message: string;
		}
		struct IOError {
			message: string;
		}

		fn lookup(key: string) throws NotFound, IOError {
			throw NotFound{message: key};
		}

		fn main() {
			let v = lookup("x") catch {
				NotFound e: { return; }
			};
		}
	`)
	found := false
	for _, c := range codesOf(sink) {
		if c == "SEM004" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SEM004 incomplete catch coverage, got %v", codesOf(sink))
	}
}

func TestCheckCatchClausesWithDefaultCoversRemainder(t *testing.T) {
	sink := checkSource(t, `
		struct NotFound {
			message: string;
		}
		struct IOError {
			message: string;
		}

		fn lookup(key: string) throws NotFound, IOError {
			throw NotFound{message: key};
		}

		fn main() {
			let v = lookup("x") catch {
				NotFound e: { return; }
				default: { return; }
			};
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckIntLiteralCoercionBoundaries(t *testing.T) {
	sink := checkSource(t, `
		fn f() {
			let a: u8 = 255;
			let b: i8 = -128;
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckIntLiteralOverflowRejected(t *testing.T) {
	sink := checkSource(t, `
		fn f() {
			let a: u8 = 256;
		}
	`)
	if !sink.HasErrors() {
		t.Fatalf("expected an error for u8 = 256")
	}
}

func TestCheckIntLiteralNegativeOverflowRejected(t *testing.T) {
	sink := checkSource(t, `
		fn f() {
			let a: i8 = -129;
		}
	`)
	if !sink.HasErrors() {
		t.Fatalf("expected an error for i8 = -129")
	}
}

func TestCheckConstAssignmentRejected(t *testing.T) {
	sink := checkSource(t, `
		fn f() {
			const y: i32 = 1;
			y = 2;
		}
	`)
	found := false
	for _, c := range codesOf(sink) {
		if c == "SEM007" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SEM007 assignment to const, got %v", codesOf(sink))
	}
}

func TestCheckConstGlobalDeclarationAccepted(t *testing.T) {
	sink := checkSource(t, `
		pub const MAX: i32 = 100;

		fn f() {
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors declaring a const global: %v", codesOf(sink))
	}
}

func TestCheckEmptyArrayLiteralRejected(t *testing.T) {
	sink := checkSource(t, `
		fn f() -> [i32; 0] {
			let a = [];
			return a;
		}
	`)
	found := false
	for _, c := range codesOf(sink) {
		if c == "SEM013" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SEM013 empty array literal, got %v", codesOf(sink))
	}
}

func TestCheckGenericFunctionMonomorphization(t *testing.T) {
	sink := checkSource(t, `
		fn identity[T](x: T) -> T {
			return x;
		}

		fn main() -> i32 {
			return identity(42);
		}
	`)
	if sink.HasErrors() {
		t.Errorf("unexpected errors: %v", codesOf(sink))
	}
}

func TestCheckModuleImportVisibility(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "lib.kei"), `
		pub fn exported() -> i32 {
			return 1;
		}

		fn hidden() -> i32 {
			return 2;
		}
	`)
	mainFile := filepath.Join(src, "main.kei")
	writeFile(t, mainFile, `
		import lib;

		fn main() -> i32 {
			return lib.hidden();
		}
	`)

	r := resolve.New("", "")
	mods, err := r.Resolve(mainFile)
	require.NoError(t, err, "resolve failed")
	sink := diag.NewSink()
	c := New(sink)
	c.Check(mods)

	assert.Contains(t, codesOf(sink), "RES003", "expected RES003 for access to a non-pub symbol")
}

func TestCheckModuleImportOfExportedNameSucceeds(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "lib.kei"), `
		pub fn exported() -> i32 {
			return 1;
		}
	`)
	mainFile := filepath.Join(src, "main.kei")
	writeFile(t, mainFile, `
		import lib;

		fn main() -> i32 {
			return lib.exported();
		}
	`)

	r := resolve.New("", "")
	mods, err := r.Resolve(mainFile)
	require.NoError(t, err, "resolve failed")
	sink := diag.NewSink()
	c := New(sink)
	assert.True(t, c.Check(mods), "unexpected errors: %v", codesOf(sink))
}
