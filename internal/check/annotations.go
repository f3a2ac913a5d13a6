// Package check is kei's semantic checker: a two-pass (register, then check)
// walk over modules in the resolver's topological order that produces
// diagnostics plus a checked-AST annotation map for the lowerer to consume.
package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/types"
)

// OpBinding records which struct method a binary/unary/index expression was
// bound to during operator overload resolution.
type OpBinding struct {
	Method     string
	StructType *types.Type
}

// Monomorphization is one concrete instantiation of a generic function or
// struct, keyed by mangled name in Annotations.Monomorphizations.
type Monomorphization struct {
	Generic string
	Args    []*types.Type
	Mangled string
}

// Annotations is the output the checker hands the lowerer: per-expression
// types, operator bindings, generic instantiation names, and per-function
// throws signatures, all keyed by AST node identity.
type Annotations struct {
	ExprTypes         map[ast.Expr]*types.Type
	OpBindings        map[ast.Expr]OpBinding
	GenericMangled    map[ast.Expr]string
	// MethodSelf marks a CallExpr whose callee resolved to a struct method
	// (as opposed to a module-qualified or plain function call), so the
	// lowerer knows to pass the receiver's address as an implicit first
	// argument. Absent/false for every other call shape.
	MethodSelf map[ast.Expr]bool
	OverloadedNames   map[string]bool
	Monomorphizations map[string]*Monomorphization
	FuncThrows        map[string][]*types.Type

	// FuncSigs maps every mangled function/method name to its full
	// checker-resolved signature, for the lowerer to consume without
	// re-deriving types from the AST.
	FuncSigs map[string]*types.Type
	// Bodies maps every mangled function/method name (including monomorphized
	// generic instantiations) to the FuncDecl the lowerer should walk to
	// produce its KIR body. Extern declarations have no entry.
	Bodies map[string]*ast.FuncDecl
	// ExternVarTypes records the element type of every `extern let` variable,
	// by name, since those never get a FuncSigs entry (they aren't callable).
	ExternVarTypes map[string]*types.Type
	// SizeofTypes records the resolved operand type of every sizeof(T)
	// expression, keyed by node, since the expression's own value type is
	// always usize regardless of what T is.
	SizeofTypes map[*ast.SizeofExpr]*types.Type
	// Structs/Enums mirror the checker's declared-name -> Type tables,
	// including monomorphized struct instantiations, keyed by mangled name.
	Structs map[string]*types.Type
	Enums   map[string]*types.Type
}

func newAnnotations() *Annotations {
	return &Annotations{
		ExprTypes:         map[ast.Expr]*types.Type{},
		OpBindings:        map[ast.Expr]OpBinding{},
		GenericMangled:    map[ast.Expr]string{},
		MethodSelf:        map[ast.Expr]bool{},
		OverloadedNames:   map[string]bool{},
		Monomorphizations: map[string]*Monomorphization{},
		FuncThrows:        map[string][]*types.Type{},
		FuncSigs:          map[string]*types.Type{},
		Bodies:            map[string]*ast.FuncDecl{},
		ExternVarTypes:    map[string]*types.Type{},
		SizeofTypes:       map[*ast.SizeofExpr]*types.Type{},
	}
}
