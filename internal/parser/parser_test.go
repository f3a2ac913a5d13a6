package parser

import (
	"testing"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/lexer"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	l := lexer.New(src, "test.kei")
	p := New(l, "test.kei")
	file := p.Parse()
	if p.HasErrors() {
		for _, d := range p.Diagnostics() {
			t.Errorf("unexpected diagnostic: %s", d)
		}
	}
	return file
}

func TestParseFuncDecl(t *testing.T) {
	file := parse(t, `
		pub fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(file.Decls))
	}
	fn, ok := file.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected *ast.FuncDecl, got %T", file.Decls[0])
	}
	if fn.Name != "add" || !fn.IsPub || len(fn.Params) != 2 {
		t.Errorf("unexpected func decl: %+v", fn)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected *ast.ReturnStmt, got %T", fn.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Errorf("expected a + b, got %#v", ret.Value)
	}
}

func TestParseGenericFunc(t *testing.T) {
	file := parse(t, `
		fn identity[T](x: T) -> T {
			return x;
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	if len(fn.TypeParams) != 1 || fn.TypeParams[0] != "T" {
		t.Errorf("expected type param T, got %v", fn.TypeParams)
	}
}

func TestParseStructDecl(t *testing.T) {
	file := parse(t, `
		pub struct Point {
			x: i32;
			y: i32;

			fn length(self: Point) -> f64 {
				return 0.0;
			}
		}
	`)
	s := file.Decls[0].(*ast.StructDecl)
	if s.Name != "Point" || len(s.Fields) != 2 || len(s.Methods) != 1 {
		t.Errorf("unexpected struct decl: %+v", s)
	}
}

func TestParseEnumDecl(t *testing.T) {
	file := parse(t, `
		enum Color {
			Red,
			Green,
			Blue = 10,
		}
	`)
	e := file.Decls[0].(*ast.EnumDecl)
	if e.Name != "Color" || len(e.Variants) != 3 {
		t.Fatalf("unexpected enum decl: %+v", e)
	}
	if e.Variants[2].Name != "Blue" {
		t.Errorf("expected Blue, got %s", e.Variants[2].Name)
	}
	lit, ok := e.Variants[2].Value.(*ast.IntLit)
	if !ok || lit.Value != 10 {
		t.Errorf("expected Blue = 10, got %#v", e.Variants[2].Value)
	}
}

func TestParseDataEnumDecl(t *testing.T) {
	file := parse(t, `
		enum Shape {
			Circle(f64),
			Rect(f64, f64),
		}
	`)
	e := file.Decls[0].(*ast.EnumDecl)
	if len(e.Variants[0].Fields) != 1 || len(e.Variants[1].Fields) != 2 {
		t.Errorf("unexpected variant fields: %+v", e.Variants)
	}
}

func TestParseExternDecl(t *testing.T) {
	file := parse(t, `
		extern fn malloc(size: usize) -> *u8;
		extern let errno: i32;
	`)
	if len(file.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(file.Decls))
	}
	fn := file.Decls[0].(*ast.ExternDecl)
	if fn.Name != "malloc" || fn.IsVar {
		t.Errorf("unexpected extern fn decl: %+v", fn)
	}
	v := file.Decls[1].(*ast.ExternDecl)
	if v.Name != "errno" || !v.IsVar {
		t.Errorf("unexpected extern var decl: %+v", v)
	}
}

func TestParseImports(t *testing.T) {
	file := parse(t, `
		module app.main;
		import io.fs;
		import {Reader, Writer} from io.stream;

		fn main() {}
	`)
	if len(file.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(file.Imports))
	}
	if file.Imports[0].Path != "io.fs" {
		t.Errorf("unexpected import path: %s", file.Imports[0].Path)
	}
	if file.Imports[1].Path != "io.stream" || len(file.Imports[1].Symbols) != 2 {
		t.Errorf("unexpected selective import: %+v", file.Imports[1])
	}
}

func TestParseIfElseIfChain(t *testing.T) {
	file := parse(t, `
		fn classify(n: i32) -> i32 {
			if n < 0 {
				return -1;
			} else if n == 0 {
				return 0;
			} else {
				return 1;
			}
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	ifStmt := fn.Body.Stmts[0].(*ast.IfStmt)
	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected else-if chain, got %T", ifStmt.Else)
	}
	if _, ok := elseIf.Else.(*ast.BlockStmt); !ok {
		t.Errorf("expected final else block, got %T", elseIf.Else)
	}
}

func TestParseIfWithStructLitConditionDisambiguation(t *testing.T) {
	// `p {` cannot be parsed as the start of a struct literal here; `{` opens
	// the if-body instead, matching how block-condition ambiguity is resolved
	// in C-family grammars with brace-delimited bodies.
	file := parse(t, `
		fn check(p: bool) -> i32 {
			if p {
				return 1;
			}
			return 0;
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	ifStmt := fn.Body.Stmts[0].(*ast.IfStmt)
	if _, ok := ifStmt.Cond.(*ast.Ident); !ok {
		t.Errorf("expected bare ident condition, got %#v", ifStmt.Cond)
	}
}

func TestParseWhileAndFor(t *testing.T) {
	file := parse(t, `
		fn loopy() {
			while true {
				break;
			}
			for i in 0..10 {
				continue;
			}
			for j in 0..=9 {
			}
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	if _, ok := fn.Body.Stmts[0].(*ast.WhileStmt); !ok {
		t.Fatalf("expected WhileStmt, got %T", fn.Body.Stmts[0])
	}
	f1 := fn.Body.Stmts[1].(*ast.ForStmt)
	if f1.Inclusive {
		t.Errorf("expected exclusive range")
	}
	f2 := fn.Body.Stmts[2].(*ast.ForStmt)
	if !f2.Inclusive {
		t.Errorf("expected inclusive range")
	}
}

func TestParseSwitchWithDataBind(t *testing.T) {
	file := parse(t, `
		fn area(s: Shape) -> f64 {
			switch s {
			case Circle(r):
				return r;
			case Rect(w, h):
				return w;
			default:
				return 0.0;
			}
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	sw := fn.Body.Stmts[0].(*ast.SwitchStmt)
	if len(sw.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(sw.Cases))
	}
	if len(sw.Cases[0].Binds) != 1 || sw.Cases[0].Binds[0] != "r" {
		t.Errorf("expected bind r, got %v", sw.Cases[0].Binds)
	}
	if !sw.Cases[2].IsDefault {
		t.Errorf("expected default case last")
	}
}

func TestParseThrowsAndCatch(t *testing.T) {
	file := parse(t, `
		fn risky() throws IOError, ParseError {
			throw IOError{message: "bad"};
		}

		fn safe() {
			let v = risky() catch {
				IOError e: { return; }
				default: { return; }
			};
		}
	`)
	risky := file.Decls[0].(*ast.FuncDecl)
	if len(risky.Throws) != 2 || risky.Throws[0] != "IOError" {
		t.Errorf("unexpected throws list: %v", risky.Throws)
	}
	throwStmt := risky.Body.Stmts[0].(*ast.ThrowStmt)
	if _, ok := throwStmt.Value.(*ast.StructLit); !ok {
		t.Errorf("expected struct literal throw value, got %#v", throwStmt.Value)
	}

	safe := file.Decls[1].(*ast.FuncDecl)
	let := safe.Body.Stmts[0].(*ast.LetStmt)
	catch, ok := let.Value.(*ast.CatchExpr)
	if !ok {
		t.Fatalf("expected CatchExpr, got %#v", let.Value)
	}
	if catch.Kind != ast.CatchClauses || len(catch.Clauses) != 2 {
		t.Errorf("unexpected catch clauses: %+v", catch.Clauses)
	}
	if catch.Clauses[0].Type != "IOError" || catch.Clauses[0].BindName != "e" {
		t.Errorf("unexpected first clause: %+v", catch.Clauses[0])
	}
	if !catch.Clauses[1].IsDefault {
		t.Errorf("expected default clause second")
	}
}

func TestParseCatchPanicAndThrow(t *testing.T) {
	file := parse(t, `
		fn a() {
			let x = risky() catch panic;
			let y = risky() catch throw;
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	c1 := fn.Body.Stmts[0].(*ast.LetStmt).Value.(*ast.CatchExpr)
	if c1.Kind != ast.CatchPanic {
		t.Errorf("expected CatchPanic, got %v", c1.Kind)
	}
	c2 := fn.Body.Stmts[1].(*ast.LetStmt).Value.(*ast.CatchExpr)
	if c2.Kind != ast.CatchThrow {
		t.Errorf("expected CatchThrow, got %v", c2.Kind)
	}
}

func TestParseStructLitExpression(t *testing.T) {
	file := parse(t, `
		fn make() -> Point {
			return Point{x: 1, y: 2};
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	lit := ret.Value.(*ast.StructLit)
	if lit.TypeName != "Point" || len(lit.Fields) != 2 {
		t.Errorf("unexpected struct literal: %+v", lit)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	file := parse(t, `
		fn calc() -> i32 {
			return 1 + 2 * 3 == 7 && !false;
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	top, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || top.Op != "&&" {
		t.Fatalf("expected top-level &&, got %#v", ret.Value)
	}
	eq, ok := top.Left.(*ast.BinaryExpr)
	if !ok || eq.Op != "==" {
		t.Fatalf("expected == on the left of &&, got %#v", top.Left)
	}
	add, ok := eq.Left.(*ast.BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("expected + at top of arithmetic, got %#v", eq.Left)
	}
	if _, ok := add.Right.(*ast.BinaryExpr); !ok {
		t.Errorf("expected * to bind tighter than +, got %#v", add.Right)
	}
}

func TestParseFieldIndexCastChain(t *testing.T) {
	file := parse(t, `
		fn chain(p: Point, xs: [i32; 4]) -> i32 {
			return xs[p.x as i32];
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	idx, ok := ret.Value.(*ast.IndexExpr)
	if !ok {
		t.Fatalf("expected IndexExpr, got %#v", ret.Value)
	}
	cast, ok := idx.Index.(*ast.CastExpr)
	if !ok {
		t.Fatalf("expected CastExpr index, got %#v", idx.Index)
	}
	if _, ok := cast.X.(*ast.FieldExpr); !ok {
		t.Errorf("expected FieldExpr operand, got %#v", cast.X)
	}
}

func TestParseMoveSizeofUnsafeDefer(t *testing.T) {
	file := parse(t, `
		fn f(buf: *u8) {
			let n = sizeof(i32);
			let owned = move buf;
			defer free(owned);
			unsafe {
				write(owned, 0u8);
			}
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	if _, ok := fn.Body.Stmts[0].(*ast.LetStmt).Value.(*ast.SizeofExpr); !ok {
		t.Errorf("expected SizeofExpr, got %#v", fn.Body.Stmts[0])
	}
	if _, ok := fn.Body.Stmts[1].(*ast.LetStmt).Value.(*ast.MoveExpr); !ok {
		t.Errorf("expected MoveExpr, got %#v", fn.Body.Stmts[1])
	}
	if _, ok := fn.Body.Stmts[2].(*ast.DeferStmt); !ok {
		t.Errorf("expected DeferStmt, got %#v", fn.Body.Stmts[2])
	}
	if _, ok := fn.Body.Stmts[3].(*ast.UnsafeStmt); !ok {
		t.Errorf("expected UnsafeStmt, got %#v", fn.Body.Stmts[3])
	}
}

func TestParseArrayAndSliceTypes(t *testing.T) {
	file := parse(t, `
		fn f(fixed: [i32; 4], dyn: []i32, p: *i32) {}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	if _, ok := fn.Params[0].Type.(*ast.ArrayType); !ok {
		t.Errorf("expected ArrayType, got %#v", fn.Params[0].Type)
	}
	if _, ok := fn.Params[1].Type.(*ast.SliceType); !ok {
		t.Errorf("expected SliceType, got %#v", fn.Params[1].Type)
	}
	if _, ok := fn.Params[2].Type.(*ast.PtrType); !ok {
		t.Errorf("expected PtrType, got %#v", fn.Params[2].Type)
	}
}

func TestParseGlobalDecl(t *testing.T) {
	file := parse(t, `
		pub const MAX: i32 = 100;
		let counter: i32 = 0;
	`)
	c := file.Decls[0].(*ast.GlobalDecl)
	if !c.IsConst || !c.IsPub || c.Name != "MAX" {
		t.Errorf("unexpected const decl: %+v", c)
	}
	g := file.Decls[1].(*ast.GlobalDecl)
	if g.IsConst || g.IsPub {
		t.Errorf("unexpected global decl: %+v", g)
	}
}

func TestParseErrorRecoveryContinuesAfterBadDecl(t *testing.T) {
	l := lexer.New(`
		fn good() -> i32 { return 1; }
		???
		fn alsoGood() -> i32 { return 2; }
	`, "test.kei")
	p := New(l, "test.kei")
	file := p.Parse()
	if !p.HasErrors() {
		t.Fatalf("expected a parse error from the garbage line")
	}
	var names []string
	for _, d := range file.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			names = append(names, fn.Name)
		}
	}
	if len(names) != 2 || names[0] != "good" || names[1] != "alsoGood" {
		t.Errorf("expected recovery to both decls, got %v", names)
	}
}

func TestParseAssignment(t *testing.T) {
	file := parse(t, `
		fn f() {
			let x: i32 = 0;
			x = x + 1;
		}
	`)
	fn := file.Decls[0].(*ast.FuncDecl)
	assign, ok := fn.Body.Stmts[1].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("expected AssignStmt, got %T", fn.Body.Stmts[1])
	}
	if _, ok := assign.Target.(*ast.Ident); !ok {
		t.Errorf("expected Ident target, got %#v", assign.Target)
	}
}
