package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultWhenManifestAbsent(t *testing.T) {
	dir := t.TempDir()
	p, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"cc", "gcc", "clang"}
	if len(p.CC) != len(want) {
		t.Fatalf("expected default CC order %v, got %v", want, p.CC)
	}
	for i := range want {
		if p.CC[i] != want[i] {
			t.Errorf("CC[%d] = %q, want %q", i, p.CC[i], want[i])
		}
	}
}

func TestLoadParsesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := "stdlib_root: ./std\ndeps_root: ./deps\ncc: [clang, gcc]\n"
	if err := os.WriteFile(filepath.Join(dir, "kei.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.StdlibRoot != "./std" {
		t.Errorf("StdlibRoot = %q, want ./std", p.StdlibRoot)
	}
	if p.DepsRoot != "./deps" {
		t.Errorf("DepsRoot = %q, want ./deps", p.DepsRoot)
	}
	if len(p.CC) != 2 || p.CC[0] != "clang" || p.CC[1] != "gcc" {
		t.Errorf("CC = %v, want [clang gcc]", p.CC)
	}
}

func TestLoadFillsDefaultCCWhenManifestOmitsIt(t *testing.T) {
	dir := t.TempDir()
	manifest := "stdlib_root: ./std\n"
	if err := os.WriteFile(filepath.Join(dir, "kei.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.CC) != 3 || p.CC[0] != "cc" {
		t.Errorf("expected default CC fallback, got %v", p.CC)
	}
}

func TestLoadRejectsMalformedManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kei.yaml"), []byte("cc: [this is not valid yaml"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected an error parsing a malformed manifest")
	}
}

func TestResolveCLIOverridesWinOverManifest(t *testing.T) {
	p := &Project{StdlibRoot: "./manifest-std", DepsRoot: "./manifest-deps", CC: []string{"gcc"}}

	resolved := p.Resolve("./cli-std", "", []string{"clang", "cc"})
	if resolved.StdlibRoot != "./cli-std" {
		t.Errorf("expected CLI stdlib override to win, got %q", resolved.StdlibRoot)
	}
	if resolved.DepsRoot != "./manifest-deps" {
		t.Errorf("expected manifest deps root to survive an empty override, got %q", resolved.DepsRoot)
	}
	if len(resolved.CC) != 2 || resolved.CC[0] != "clang" {
		t.Errorf("expected CLI cc override to win, got %v", resolved.CC)
	}

	if p.StdlibRoot != "./manifest-std" {
		t.Errorf("Resolve should not mutate the receiver, but StdlibRoot changed to %q", p.StdlibRoot)
	}
}
