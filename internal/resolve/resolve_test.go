package resolve

import (
	"os"
	"path/filepath"
	"testing"
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

func TestFindSourceRoot(t *testing.T) {
	root := t.TempDir()
	srcDir := filepath.Join(root, "proj", "src")
	mainFile := filepath.Join(srcDir, "app", "main.kei")
	writeFile(t, mainFile, "fn main() {}")

	got := findSourceRoot(mainFile)
	if got != srcDir {
		t.Errorf("findSourceRoot = %q, want %q", got, srcDir)
	}
}

func TestFindSourceRootFallsBackToFileDir(t *testing.T) {
	root := t.TempDir()
	mainFile := filepath.Join(root, "main.kei")
	writeFile(t, mainFile, "fn main() {}")

	got := findSourceRoot(mainFile)
	if got != root {
		t.Errorf("findSourceRoot = %q, want %q", got, root)
	}
}

func TestModuleName(t *testing.T) {
	srcRoot := filepath.Join("proj", "src")
	got := ModuleName(filepath.Join(srcRoot, "app", "util", "io.kei"), srcRoot)
	if got != "app.util.io" {
		t.Errorf("ModuleName = %q, want %q", got, "app.util.io")
	}
}

func TestResolveOrdersDependenciesBeforeMain(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "leaf.kei"), "fn leaf() -> i32 { return 1; }")
	writeFile(t, filepath.Join(src, "mid.kei"), "import leaf;\nfn mid() -> i32 { return leaf.leaf(); }")
	mainFile := filepath.Join(src, "main.kei")
	writeFile(t, mainFile, "import mid;\nfn main() -> i32 { return mid.mid(); }")

	r := New("", "")
	mods, err := r.Resolve(mainFile)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(mods) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(mods))
	}
	names := []string{mods[0].Name, mods[1].Name, mods[2].Name}
	if names[2] != "main" {
		t.Errorf("expected main last, got order %v", names)
	}
	if names[0] != "leaf" {
		t.Errorf("expected leaf (deepest dependency) first, got order %v", names)
	}
}

func TestResolveDetectsCycle(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "a.kei"), "import b;\nfn a() {}")
	writeFile(t, filepath.Join(src, "b.kei"), "import a;\nfn b() {}")
	mainFile := filepath.Join(src, "a.kei")

	r := New("", "")
	_, err := r.Resolve(mainFile)
	if err == nil {
		t.Fatalf("expected a cycle error")
	}
}

func TestResolveMissingImportFails(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	mainFile := filepath.Join(src, "main.kei")
	writeFile(t, mainFile, "import nope;\nfn main() {}")

	r := New("", "")
	_, err := r.Resolve(mainFile)
	if err == nil {
		t.Fatalf("expected a module-not-found error")
	}
}

func TestResolveImportPathOrder(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	deps := filepath.Join(root, "deps")
	writeFile(t, filepath.Join(deps, "widget", "mod.kei"), "fn make() {}")

	r := New(deps, "")
	r.SourceRoot = src
	got, ok := r.resolveImportPath("widget")
	if !ok {
		t.Fatalf("expected to resolve single-segment dep import")
	}
	want := filepath.Join(deps, "widget", "mod.kei")
	if got != want {
		t.Errorf("resolveImportPath = %q, want %q", got, want)
	}
}
