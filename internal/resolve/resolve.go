// Package resolve implements kei's module resolver (spec.md §4.2): discovery
// of the source root, derivation of dotted module names from file paths,
// import-path resolution across the source/deps/std roots, and a DFS over
// the import graph that detects cycles and emits modules in reverse
// postorder (leaves first, the main module last).
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/lexer"
	"github.com/keilang/kei/internal/parser"
)

// Module is one resolved, parsed source file plus its derived identity.
type Module struct {
	Name     string // dotted module name, e.g. "app.util.io"
	FilePath string
	File     *ast.File
	Imports  []string // dotted import paths, in source order
}

// Resolver walks a kei program's import graph starting from a main file.
type Resolver struct {
	SourceRoot string // override; auto-detected from the main file if empty
	DepsRoot   string // e.g. "deps" directory; "" disables deps lookup
	StdRoot    string // e.g. bundled stdlib directory; "" disables std lookup

	visiting map[string]bool // modules currently on the DFS stack (cycle detection)
	stack    []string        // ordered for cycle-path reporting
	done     map[string]*Module
	order    []*Module // reverse postorder as modules finish
}

// New creates a Resolver. DepsRoot/StdRoot may be left empty if unused.
func New(depsRoot, stdRoot string) *Resolver {
	return &Resolver{
		DepsRoot: depsRoot,
		StdRoot:  stdRoot,
		visiting: map[string]bool{},
		done:     map[string]*Module{},
	}
}

// Resolve parses mainFile and every module it transitively imports, and
// returns them in reverse postorder (dependency-leaves first, main last).
// It stops at the first failure: a missing file, a lexer/parser error, or an
// import cycle, matching spec.md §4.2 "Failures ... abort before type
// checking".
func (r *Resolver) Resolve(mainFile string) ([]*Module, error) {
	abs, err := filepath.Abs(mainFile)
	if err != nil {
		return nil, errors.WrapReport(errors.New(errors.RES001, "resolve", "cannot resolve main file path: "+err.Error(), diag.Span{}))
	}
	if r.SourceRoot == "" {
		r.SourceRoot = findSourceRoot(abs)
	}
	name := ModuleName(abs, r.SourceRoot)

	if err := r.visit(name, abs); err != nil {
		return nil, err
	}
	return r.order, nil
}

// findSourceRoot returns the nearest ancestor directory named "src", or the
// main file's own directory if none exists.
func findSourceRoot(mainFile string) string {
	dir := filepath.Dir(mainFile)
	for cur := dir; ; {
		if filepath.Base(cur) == "src" {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return dir
}

// ModuleName derives a file's dotted module name relative to sourceRoot per
// spec.md §4.2 point 2.
func ModuleName(filePath, sourceRoot string) string {
	rel, err := filepath.Rel(sourceRoot, filePath)
	if err != nil {
		rel = filepath.Base(filePath)
	}
	rel = strings.TrimSuffix(rel, ".kei")
	rel = filepath.ToSlash(rel)
	return strings.ReplaceAll(rel, "/", ".")
}

// dottedToPath converts "a.b.c" to "a/b/c.kei".
func dottedToPath(dotted string) string {
	return filepath.Join(strings.Split(dotted, ".")...) + ".kei"
}

// resolveImportPath tries, in order: sourceRoot/<path>.kei; depsRoot/<path>.kei;
// for a single-segment import, depsRoot/<seg>/mod.kei; stdRoot/<path>.kei.
func (r *Resolver) resolveImportPath(dotted string) (string, bool) {
	rel := dottedToPath(dotted)

	if r.SourceRoot != "" {
		if p := filepath.Join(r.SourceRoot, rel); fileExists(p) {
			return p, true
		}
	}
	if r.DepsRoot != "" {
		if p := filepath.Join(r.DepsRoot, rel); fileExists(p) {
			return p, true
		}
		if !strings.Contains(dotted, ".") {
			if p := filepath.Join(r.DepsRoot, dotted, "mod.kei"); fileExists(p) {
				return p, true
			}
		}
	}
	if r.StdRoot != "" {
		if p := filepath.Join(r.StdRoot, rel); fileExists(p) {
			return p, true
		}
	}
	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// visit performs the DFS, parsing name's file, recursing into its imports,
// and appending to r.order on the way out (postorder == dependency-first).
func (r *Resolver) visit(name, filePath string) error {
	if _, ok := r.done[name]; ok {
		return nil
	}
	if r.visiting[name] {
		return r.cycleError(name)
	}

	r.visiting[name] = true
	r.stack = append(r.stack, name)
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		delete(r.visiting, name)
	}()

	content, err := os.ReadFile(filePath)
	if err != nil {
		return errors.WrapReport(errors.New(errors.RES001, "resolve", "module file not found: "+filePath, diag.Span{}))
	}

	src := lexer.Normalize(content)
	lx := lexer.New(string(src), filePath)
	p := parser.New(lx, filePath)
	file := p.Parse()
	if p.HasErrors() {
		return &parseFailure{path: filePath, diags: p.Diagnostics()}
	}

	mod := &Module{Name: name, FilePath: filePath, File: file}
	for _, imp := range file.Imports {
		mod.Imports = append(mod.Imports, imp.Path)
		depPath, ok := r.resolveImportPath(imp.Path)
		if !ok {
			return errors.WrapReport(errors.New(errors.RES001, "resolve", "module not found: "+imp.Path, imp.Span()).
				WithData("import", imp.Path))
		}
		if err := r.visit(imp.Path, depPath); err != nil {
			return err
		}
	}

	r.done[name] = mod
	r.order = append(r.order, mod)
	return nil
}

func (r *Resolver) cycleError(name string) error {
	var sb strings.Builder
	start := 0
	for i, s := range r.stack {
		if s == name {
			start = i
			break
		}
	}
	for _, s := range r.stack[start:] {
		sb.WriteString(s)
		sb.WriteString(" → ")
	}
	sb.WriteString(name)
	return errors.WrapReport(errors.New(errors.RES002, "resolve", "circular import: "+sb.String(), diag.Span{}))
}

// parseFailure wraps the diagnostics produced by a failed parse of one
// module file so the driver can render them like any other diagnostic batch.
type parseFailure struct {
	path  string
	diags []diag.Diagnostic
}

func (f *parseFailure) Error() string {
	if len(f.diags) == 0 {
		return "parse error in " + f.path
	}
	return f.diags[0].String()
}

// Diagnostics returns every diagnostic recorded while parsing the failing module.
func (f *parseFailure) Diagnostics() []diag.Diagnostic { return f.diags }
