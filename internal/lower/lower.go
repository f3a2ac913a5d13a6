// Package lower turns a checked kei program into one merged, whole-program
// KIR module (spec.md §4.5). It walks every resolved module's declarations
// in the same register/check two-pass shape internal/check uses, consuming
// the checker's Annotations instead of re-deriving types from the AST.
package lower

import (
	"sort"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/check"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/resolve"
	"github.com/keilang/kei/internal/types"
)

// Lowerer merges every resolved module into one kir.Module. Function/method/
// generic-instantiation names are assumed program-wide unique, mirroring the
// same assumption internal/check's structTypes/enumTypes tables make; no
// module-path prefixing is applied on top of the checker's
// own mangled names.
type Lowerer struct {
	ann  *check.Annotations
	sink *diag.Sink
	out  *kir.Module

	externSeen map[string]*ast.ExternDecl
}

// New creates a Lowerer reporting into sink and consuming ann.
func New(ann *check.Annotations, sink *diag.Sink) *Lowerer {
	return &Lowerer{
		ann:        ann,
		sink:       sink,
		out:        &kir.Module{Name: "program"},
		externSeen: map[string]*ast.ExternDecl{},
	}
}

// Lower produces the merged whole-program KIR module for every resolved
// module, in the same deterministic order the checker used.
func (l *Lowerer) Lower(modules []*resolve.Module) *kir.Module {
	l.lowerTypeDecls()
	for _, m := range modules {
		l.lowerExterns(m)
	}
	for _, m := range modules {
		l.lowerGlobals(m)
	}
	l.lowerFunctions()
	return l.out
}

// lowerTypeDecls emits one TypeDecl per checker-known struct/enum, including
// monomorphized generic instantiations, sorted by name for reproducible C
// output (map iteration order is otherwise nondeterministic).
func (l *Lowerer) lowerTypeDecls() {
	names := make([]string, 0, len(l.ann.Structs)+len(l.ann.Enums))
	for name := range l.ann.Structs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l.out.Types = append(l.out.Types, &kir.TypeDecl{Name: name, Type: l.ann.Structs[name]})
	}

	names = names[:0]
	for name := range l.ann.Enums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l.out.Types = append(l.out.Types, &kir.TypeDecl{Name: name, Type: l.ann.Enums[name]})
	}
}

// lowerExterns merges one module's extern declarations into the program-wide
// extern list, deduplicating by name (spec.md §4.5 "extern deduplication")
// and reporting KIR001 on a conflicting redeclaration.
func (l *Lowerer) lowerExterns(m *resolve.Module) {
	for _, d := range m.File.Decls {
		n, ok := d.(*ast.ExternDecl)
		if !ok {
			continue
		}
		if prior, seen := l.externSeen[n.Name]; seen {
			if !l.sameExternShape(prior, n) {
				l.sink.Errorf(errors.KIR001, n.Span(), "extern %q redeclared with a conflicting signature", n.Name)
			}
			continue
		}
		l.externSeen[n.Name] = n

		if n.IsVar {
			l.out.Externs = append(l.out.Externs, &kir.Extern{Name: n.Name, IsVar: true, Sig: l.ann.ExternVarTypes[n.Name]})
			continue
		}
		l.out.Externs = append(l.out.Externs, &kir.Extern{Name: n.Name, Sig: l.ann.FuncSigs[n.Name]})
	}
}

func (l *Lowerer) sameExternShape(a, b *ast.ExternDecl) bool {
	if a.IsVar != b.IsVar || len(a.Params) != len(b.Params) {
		return false
	}
	return types.Equal(l.ann.ExternVarTypes[a.Name], l.ann.ExternVarTypes[b.Name]) ||
		types.Equal(l.ann.FuncSigs[a.Name], l.ann.FuncSigs[b.Name])
}

// lowerGlobals emits one kir.Global per module-scope let/const. Only literal
// (optionally negated) initializers get a static Init instruction; anything
// else lowers to a zero-initialized global (a fully general initializer would need a runtime init routine
// the driver calls before main, which this lowerer does not build).
func (l *Lowerer) lowerGlobals(m *resolve.Module) {
	for _, d := range m.File.Decls {
		n, ok := d.(*ast.GlobalDecl)
		if !ok {
			continue
		}
		var t *types.Type
		if n.Value != nil {
			t = l.ann.ExprTypes[n.Value]
		}
		g := &kir.Global{Name: n.Name, Type: t, IsConst: n.IsConst}
		if init := constInitInstr(n.Value, t); init != nil {
			g.Init = init
		}
		l.out.Globals = append(l.out.Globals, g)
	}
}

// constInitInstr builds a static const_* instruction for a literal (or
// unary-minus-over-literal) global initializer, or nil if expr isn't one.
func constInitInstr(expr ast.Expr, t *types.Type) kir.Instruction {
	neg := false
	for {
		if u, ok := expr.(*ast.UnaryExpr); ok && u.Op == "-" {
			neg = !neg
			expr = u.X
			continue
		}
		break
	}
	switch lit := expr.(type) {
	case *ast.IntLit:
		v := lit.Value
		if neg {
			v = -v
		}
		return &kir.ConstInt{Type: t, Value: v}
	case *ast.FloatLit:
		v := lit.Value
		if neg {
			v = -v
		}
		return &kir.ConstFloat{Type: t, Value: v}
	case *ast.BoolLit:
		return &kir.ConstBool{Value: lit.Value}
	case *ast.StringLit:
		return &kir.ConstString{Value: lit.Value}
	case *ast.NullLit:
		return &kir.ConstNull{Type: t}
	default:
		return nil
	}
}

// lowerFunctions lowers every registered function/method/generic
// instantiation body the checker recorded in Annotations.Bodies.
func (l *Lowerer) lowerFunctions() {
	names := make([]string, 0, len(l.ann.Bodies))
	for name := range l.ann.Bodies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		decl := l.ann.Bodies[name]
		sig := l.ann.FuncSigs[name]
		if sig == nil {
			continue // a method whose struct failed to register; already diagnosed upstream
		}
		l.out.Functions = append(l.out.Functions, l.lowerFunction(name, sig, decl))
	}
}
