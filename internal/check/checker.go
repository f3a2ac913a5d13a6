package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/resolve"
	"github.com/keilang/kei/internal/types"
)

// Checker processes modules in the resolver's topological order, reusing
// earlier modules' export maps per spec.md §4.4.
type Checker struct {
	sink *diag.Sink
	ann  *Annotations

	// structTypes/enumTypes are keyed by bare declared name. Program-wide
	// uniqueness of type names (across modules) is assumed.
	structTypes map[string]*types.Type
	enumTypes   map[string]*types.Type

	moduleScopes map[string]*types.Scope             // module name -> its global scope
	exports      map[string]map[string]*types.Symbol // module name -> pub name -> symbol
	genericFuncs map[string]*genericFunc             // generic function name -> declaration + declaring scope
	genericStrs  map[string]*ast.StructDecl          // generic struct name -> declaration
}

// genericFunc pairs a generic function's declaration with the module scope
// it was declared in, so an instantiation checks its body against that
// module's globals rather than whatever scope happened to call it.
type genericFunc struct {
	decl  *ast.FuncDecl
	scope *types.Scope
}

// New creates a Checker reporting into sink.
func New(sink *diag.Sink) *Checker {
	return &Checker{
		sink:         sink,
		ann:          newAnnotations(),
		structTypes:  map[string]*types.Type{},
		enumTypes:    map[string]*types.Type{},
		moduleScopes: map[string]*types.Scope{},
		exports:      map[string]map[string]*types.Symbol{},
		genericFuncs: map[string]*genericFunc{},
		genericStrs:  map[string]*ast.StructDecl{},
	}
}

// Annotations returns the accumulated checked-AST annotation map.
func (c *Checker) Annotations() *Annotations { return c.ann }

// Check runs the two-pass checker over every module in order. It returns
// false if the sink gained any Error-severity diagnostic.
func (c *Checker) Check(modules []*resolve.Module) bool {
	for _, m := range modules {
		c.registerModule(m)
	}
	for _, m := range modules {
		c.checkModule(m)
	}
	c.ann.Structs = c.structTypes
	c.ann.Enums = c.enumTypes
	return !c.sink.HasErrors()
}

func (c *Checker) errorf(span diag.Span, code, format string, args ...interface{}) {
	c.sink.Errorf(code, span, format, args...)
}

// collectExports gathers every pub symbol a module's global scope defines.
func (c *Checker) collectExports(m *resolve.Module) map[string]*types.Symbol {
	out := map[string]*types.Symbol{}
	scope := c.moduleScopes[m.Name]
	for _, d := range m.File.Decls {
		name, isPub := declName(d)
		if !isPub {
			continue
		}
		if sym, ok := scope.LookupLocal(name); ok {
			out[name] = sym
		}
	}
	return out
}

func declName(d ast.Decl) (name string, isPub bool) {
	switch n := d.(type) {
	case *ast.FuncDecl:
		return n.Name, n.IsPub
	case *ast.StructDecl:
		return n.Name, n.IsPub
	case *ast.EnumDecl:
		return n.Name, n.IsPub
	case *ast.GlobalDecl:
		return n.Name, n.IsPub
	default:
		return "", false
	}
}

// lookupQualified resolves `module.name` against a previously checked
// module's export map, reporting RES003 if the name exists but isn't pub.
func (c *Checker) lookupQualified(module, name string, span diag.Span) (*types.Symbol, bool) {
	exp, ok := c.exports[module]
	if !ok {
		c.errorf(span, errors.RES001, "unknown module %q", module)
		return nil, false
	}
	sym, ok := exp[name]
	if !ok {
		if scope, ok2 := c.moduleScopes[module]; ok2 {
			if _, existsButPrivate := scope.LookupLocal(name); existsButPrivate {
				c.errorf(span, errors.RES003, "%q is not exported by module %q", name, module)
				return nil, false
			}
		}
		c.errorf(span, errors.SEM001, "undeclared name %q in module %q", name, module)
		return nil, false
	}
	return sym, true
}
