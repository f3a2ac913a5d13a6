// Package ast defines the surface syntax tree produced by the parser: typed
// sum types for declarations, statements, expressions, and type nodes. Every
// node carries a source span (spec.md §3 "Source location").
//
// Dispatch is by pattern match on the tag (a Go type switch), not by virtual
// method: each sum type is a marker-method interface, mirroring the
// tagged-union discipline spec.md §9 calls for over a base-class hierarchy.
package ast

import (
	"fmt"
	"strings"

	"github.com/keilang/kei/internal/diag"
)

// Node is implemented by every AST node.
type Node interface {
	Span() diag.Span
}

// Decl is a top-level or module-scoped declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement inside a function body.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// TypeNode is a type annotation as written in source (not yet resolved to a
// checker Type).
type TypeNode interface {
	Node
	typeNode()
	String() string
}

// File is one parsed source file: an optional module declaration, its
// imports, and its top-level declarations.
type File struct {
	Path    string
	Imports []*ImportDecl
	Decls   []Decl
	SpanVal diag.Span
}

func (f *File) Span() diag.Span { return f.SpanVal }

// ImportDecl is `import a.b.c;` or `import {Name1, Name2} from a.b.c;`.
type ImportDecl struct {
	Path    string   // dotted module path, e.g. "io.fs"
	Symbols []string // selective import list; empty means import the module itself
	SpanVal diag.Span
}

func (i *ImportDecl) Span() diag.Span { return i.SpanVal }

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// Param is one function/method parameter.
type Param struct {
	Name    string
	Type    TypeNode
	IsMut   bool
	IsMove  bool
	SpanVal diag.Span
}

// FuncDecl is a top-level or method function declaration.
type FuncDecl struct {
	Name       string
	TypeParams []string
	Params     []*Param
	ReturnType TypeNode // nil means void
	Throws     []string // named error struct types, in declared order
	Body       *BlockStmt
	IsPub      bool
	IsExtern   bool // `extern fn ...;` with no body
	SpanVal    diag.Span
}

func (f *FuncDecl) Span() diag.Span { return f.SpanVal }
func (f *FuncDecl) declNode()       {}

// StructDecl declares a struct with fields, methods, and optional lifecycle
// hooks (__destroy/__oncopy are ordinary methods with those reserved names).
type StructDecl struct {
	Name       string
	TypeParams []string
	Fields     []*FieldDecl
	Methods    []*FuncDecl
	IsPub      bool
	SpanVal    diag.Span
}

func (s *StructDecl) Span() diag.Span { return s.SpanVal }
func (s *StructDecl) declNode()       {}

// FieldDecl is one struct field.
type FieldDecl struct {
	Name    string
	Type    TypeNode
	SpanVal diag.Span
}

// EnumVariant is one variant of an enum: a plain C-style tag, an explicit
// constant value, or a data-carrying tuple of field types.
type EnumVariant struct {
	Name    string
	Value   Expr // explicit discriminant, or nil
	Fields  []TypeNode
	SpanVal diag.Span
}

// EnumDecl declares a C-style or data-carrying enum.
type EnumDecl struct {
	Name     string
	BaseType TypeNode // integer base type, default i32
	Variants []*EnumVariant
	IsPub    bool
	SpanVal  diag.Span
}

func (e *EnumDecl) Span() diag.Span { return e.SpanVal }
func (e *EnumDecl) declNode()       {}

// ExternDecl declares a symbol implemented in host C, with no body.
type ExternDecl struct {
	Name       string
	Params     []*Param
	ReturnType TypeNode
	IsVar      bool // extern global variable rather than function
	VarType    TypeNode
	SpanVal    diag.Span
}

func (e *ExternDecl) Span() diag.Span { return e.SpanVal }
func (e *ExternDecl) declNode()       {}

// GlobalDecl is a module-scoped `let`/`const` at top level.
type GlobalDecl struct {
	Name     string
	Type     TypeNode
	Value    Expr
	IsConst  bool
	IsPub    bool
	SpanVal  diag.Span
}

func (g *GlobalDecl) Span() diag.Span { return g.SpanVal }
func (g *GlobalDecl) declNode()       {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// BlockStmt is `{ stmt; stmt; ... }`.
type BlockStmt struct {
	Stmts   []Stmt
	SpanVal diag.Span
}

func (b *BlockStmt) Span() diag.Span { return b.SpanVal }
func (b *BlockStmt) stmtNode()       {}

// LetStmt declares a local `let`/`const` binding.
type LetStmt struct {
	Name    string
	Type    TypeNode // optional annotation
	Value   Expr
	IsConst bool
	SpanVal diag.Span
}

func (l *LetStmt) Span() diag.Span { return l.SpanVal }
func (l *LetStmt) stmtNode()       {}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	X       Expr
	SpanVal diag.Span
}

func (e *ExprStmt) Span() diag.Span { return e.SpanVal }
func (e *ExprStmt) stmtNode()       {}

// AssignStmt is `target = value;` (target is an lvalue expression).
type AssignStmt struct {
	Target  Expr
	Value   Expr
	SpanVal diag.Span
}

func (a *AssignStmt) Span() diag.Span { return a.SpanVal }
func (a *AssignStmt) stmtNode()       {}

// IfStmt is `if cond { then } else { else }`; Else is nil if absent.
type IfStmt struct {
	Cond    Expr
	Then    *BlockStmt
	Else    Stmt // *BlockStmt or *IfStmt (else-if chain), or nil
	SpanVal diag.Span
}

func (i *IfStmt) Span() diag.Span { return i.SpanVal }
func (i *IfStmt) stmtNode()       {}

// WhileStmt is `while cond { body }`.
type WhileStmt struct {
	Cond    Expr
	Body    *BlockStmt
	SpanVal diag.Span
}

func (w *WhileStmt) Span() diag.Span { return w.SpanVal }
func (w *WhileStmt) stmtNode()       {}

// ForStmt is `for name in start..end { body }` (Inclusive selects `..=`).
type ForStmt struct {
	Name      string
	Start     Expr
	End       Expr
	Inclusive bool
	Body      *BlockStmt
	SpanVal   diag.Span
}

func (f *ForStmt) Span() diag.Span { return f.SpanVal }
func (f *ForStmt) stmtNode()       {}

// SwitchCase is one `case v1, v2: body` arm, or the default arm when Values
// is empty and IsDefault is true. Binds, when non-empty, names the payload
// fields of a data-variant case.
type SwitchCase struct {
	Values    []Expr
	Binds     []string
	IsDefault bool
	Body      *BlockStmt
	SpanVal   diag.Span
}

// SwitchStmt is `switch subject { case ...: ...; default: ... }`.
type SwitchStmt struct {
	Subject Expr
	Cases   []*SwitchCase
	SpanVal diag.Span
}

func (s *SwitchStmt) Span() diag.Span { return s.SpanVal }
func (s *SwitchStmt) stmtNode()       {}

// ReturnStmt is `return expr;` (Value is nil for `return;` in a void function).
type ReturnStmt struct {
	Value   Expr
	SpanVal diag.Span
}

func (r *ReturnStmt) Span() diag.Span { return r.SpanVal }
func (r *ReturnStmt) stmtNode()       {}

// BreakStmt is `break;`.
type BreakStmt struct{ SpanVal diag.Span }

func (b *BreakStmt) Span() diag.Span { return b.SpanVal }
func (b *BreakStmt) stmtNode()       {}

// ContinueStmt is `continue;`.
type ContinueStmt struct{ SpanVal diag.Span }

func (c *ContinueStmt) Span() diag.Span { return c.SpanVal }
func (c *ContinueStmt) stmtNode()       {}

// ThrowStmt is `throw E{...};`.
type ThrowStmt struct {
	Value   Expr
	SpanVal diag.Span
}

func (t *ThrowStmt) Span() diag.Span { return t.SpanVal }
func (t *ThrowStmt) stmtNode()       {}

// DeferStmt is `defer stmt;`.
type DeferStmt struct {
	Stmt    Stmt
	SpanVal diag.Span
}

func (d *DeferStmt) Span() diag.Span { return d.SpanVal }
func (d *DeferStmt) stmtNode()       {}

// UnsafeStmt is `unsafe { body }`.
type UnsafeStmt struct {
	Body    *BlockStmt
	SpanVal diag.Span
}

func (u *UnsafeStmt) Span() diag.Span { return u.SpanVal }
func (u *UnsafeStmt) stmtNode()       {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Ident is a bare name reference, possibly a qualified module.symbol access
// when Module is non-empty.
type Ident struct {
	Module  string // "" unless this is module.symbol
	Name    string
	SpanVal diag.Span
}

func (i *Ident) Span() diag.Span { return i.SpanVal }
func (i *Ident) exprNode()       {}

// IntLit is an integer literal; Suffix is the explicit width/signedness
// suffix, or "" if none was given.
type IntLit struct {
	Value   int64
	Suffix  string
	SpanVal diag.Span
}

func (l *IntLit) Span() diag.Span { return l.SpanVal }
func (l *IntLit) exprNode()       {}

// FloatLit is a floating point literal.
type FloatLit struct {
	Value   float64
	Suffix  string
	SpanVal diag.Span
}

func (l *FloatLit) Span() diag.Span { return l.SpanVal }
func (l *FloatLit) exprNode()       {}

// StringLit is a double-quoted string literal with escapes already resolved.
type StringLit struct {
	Value   string
	SpanVal diag.Span
}

func (l *StringLit) Span() diag.Span { return l.SpanVal }
func (l *StringLit) exprNode()       {}

// BoolLit is `true`/`false`.
type BoolLit struct {
	Value   bool
	SpanVal diag.Span
}

func (l *BoolLit) Span() diag.Span { return l.SpanVal }
func (l *BoolLit) exprNode()       {}

// NullLit is the `null` literal.
type NullLit struct{ SpanVal diag.Span }

func (l *NullLit) Span() diag.Span { return l.SpanVal }
func (l *NullLit) exprNode()       {}

// ArrayLit is `[e1, e2, ...]`.
type ArrayLit struct {
	Elements []Expr
	SpanVal  diag.Span
}

func (a *ArrayLit) Span() diag.Span { return a.SpanVal }
func (a *ArrayLit) exprNode()       {}

// StructLitField is one `name: value` in a struct literal.
type StructLitField struct {
	Name  string
	Value Expr
}

// StructLit is `Name{field: value, ...}` or `Name[T]{...}` when TypeArgs is set.
type StructLit struct {
	TypeName string
	TypeArgs []TypeNode
	Fields   []*StructLitField
	SpanVal  diag.Span
}

func (s *StructLit) Span() diag.Span { return s.SpanVal }
func (s *StructLit) exprNode()       {}

// BinaryExpr is `lhs op rhs`.
type BinaryExpr struct {
	Op      string
	Left    Expr
	Right   Expr
	SpanVal diag.Span
}

func (b *BinaryExpr) Span() diag.Span { return b.SpanVal }
func (b *BinaryExpr) exprNode()       {}

// UnaryExpr is `op x` (`-`, `!`, `~`).
type UnaryExpr struct {
	Op      string
	X       Expr
	SpanVal diag.Span
}

func (u *UnaryExpr) Span() diag.Span { return u.SpanVal }
func (u *UnaryExpr) exprNode()       {}

// CallExpr is `fn(args...)`.
type CallExpr struct {
	Func     Expr
	TypeArgs []TypeNode
	Args     []Expr
	SpanVal  diag.Span
}

func (c *CallExpr) Span() diag.Span { return c.SpanVal }
func (c *CallExpr) exprNode()       {}

// FieldExpr is `x.field`.
type FieldExpr struct {
	X       Expr
	Field   string
	SpanVal diag.Span
}

func (f *FieldExpr) Span() diag.Span { return f.SpanVal }
func (f *FieldExpr) exprNode()       {}

// IndexExpr is `x[index]`.
type IndexExpr struct {
	X       Expr
	Index   Expr
	SpanVal diag.Span
}

func (i *IndexExpr) Span() diag.Span { return i.SpanVal }
func (i *IndexExpr) exprNode()       {}

// CastExpr is `x as T`.
type CastExpr struct {
	X       Expr
	Type    TypeNode
	SpanVal diag.Span
}

func (c *CastExpr) Span() diag.Span { return c.SpanVal }
func (c *CastExpr) exprNode()       {}

// SizeofExpr is `sizeof(T)`.
type SizeofExpr struct {
	Type    TypeNode
	SpanVal diag.Span
}

func (s *SizeofExpr) Span() diag.Span { return s.SpanVal }
func (s *SizeofExpr) exprNode()       {}

// MoveExpr is `move x`.
type MoveExpr struct {
	X       Expr
	SpanVal diag.Span
}

func (m *MoveExpr) Span() diag.Span { return m.SpanVal }
func (m *MoveExpr) exprNode()       {}

// CatchClause is one `ErrType [name]: { body }` arm of a `catch { ... }`
// expression, or a `default:` arm when Type is "".
type CatchClause struct {
	Type      string
	BindName  string // optional bound error variable name
	Body      *BlockStmt
	IsDefault bool
	SpanVal   diag.Span
}

// CatchKind selects which form of catch wraps a throwing call.
type CatchKind int

const (
	CatchPanic CatchKind = iota
	CatchThrow
	CatchClauses
)

// CatchExpr wraps a throwing call expression per spec.md §4.3 "Throws tracking".
type CatchExpr struct {
	Call    Expr // the wrapped call expression (must be a CallExpr)
	Kind    CatchKind
	Clauses []*CatchClause // only for CatchKind == CatchClauses
	SpanVal diag.Span
}

func (c *CatchExpr) Span() diag.Span { return c.SpanVal }
func (c *CatchExpr) exprNode()       {}

// BlockExpr allows a block to be used where an expression is expected (the
// value of the last statement, if it is an ExprStmt, is the block's value).
type BlockExpr struct {
	Block   *BlockStmt
	SpanVal diag.Span
}

func (b *BlockExpr) Span() diag.Span { return b.SpanVal }
func (b *BlockExpr) exprNode()       {}

// ---------------------------------------------------------------------------
// Type nodes
// ---------------------------------------------------------------------------

// NamedType is a reference to a primitive or nominal type by name, with
// optional generic type arguments (e.g. `Box[int]`).
type NamedType struct {
	Name    string
	Args    []TypeNode
	SpanVal diag.Span
}

func (n *NamedType) Span() diag.Span { return n.SpanVal }
func (n *NamedType) typeNode()       {}
func (n *NamedType) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", n.Name, strings.Join(parts, ", "))
}

// PtrType is `*T`.
type PtrType struct {
	Elem    TypeNode
	SpanVal diag.Span
}

func (p *PtrType) Span() diag.Span { return p.SpanVal }
func (p *PtrType) typeNode()       {}
func (p *PtrType) String() string  { return "*" + p.Elem.String() }

// ArrayType is `[T; N]`.
type ArrayType struct {
	Elem    TypeNode
	Length  int64
	SpanVal diag.Span
}

func (a *ArrayType) Span() diag.Span { return a.SpanVal }
func (a *ArrayType) typeNode()       {}
func (a *ArrayType) String() string  { return fmt.Sprintf("[%s; %d]", a.Elem.String(), a.Length) }

// SliceType is `[]T`.
type SliceType struct {
	Elem    TypeNode
	SpanVal diag.Span
}

func (s *SliceType) Span() diag.Span { return s.SpanVal }
func (s *SliceType) typeNode()       {}
func (s *SliceType) String() string  { return "[]" + s.Elem.String() }
