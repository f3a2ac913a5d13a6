package main

import (
	"fmt"
	"strings"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/kir"
)

// dumpAST prints a hand-rolled indented tree of f for the --ast flag. It
// does not go through ast.Printer, which renders a whole File separately.
func dumpAST(f *ast.File) {
	for _, imp := range f.Imports {
		if len(imp.Symbols) > 0 {
			fmt.Printf("import {%s} from %s\n", strings.Join(imp.Symbols, ", "), imp.Path)
		} else {
			fmt.Printf("import %s\n", imp.Path)
		}
	}
	for _, d := range f.Decls {
		dumpDecl(d, 0)
	}
}

func indent(depth int) string { return strings.Repeat("  ", depth) }

func dumpDecl(d ast.Decl, depth int) {
	pre := indent(depth)
	switch decl := d.(type) {
	case *ast.FuncDecl:
		kind := "fn"
		if decl.IsExtern {
			kind = "extern fn"
		}
		fmt.Printf("%s%s %s(%s) %s\n", pre, kind, decl.Name, paramList(decl.Params), throwsSuffix(decl))
		if decl.Body != nil {
			dumpStmt(decl.Body, depth+1)
		}
	case *ast.StructDecl:
		fmt.Printf("%sstruct %s {\n", pre, decl.Name)
		for _, field := range decl.Fields {
			fmt.Printf("%s  %s: %s\n", pre, field.Name, field.Type)
		}
		for _, m := range decl.Methods {
			dumpDecl(m, depth+1)
		}
		fmt.Printf("%s}\n", pre)
	case *ast.EnumDecl:
		fmt.Printf("%senum %s {\n", pre, decl.Name)
		for _, v := range decl.Variants {
			fmt.Printf("%s  %s\n", pre, v.Name)
		}
		fmt.Printf("%s}\n", pre)
	case *ast.ExternDecl:
		if decl.IsVar {
			fmt.Printf("%sextern %s: %s\n", pre, decl.Name, decl.VarType)
		} else {
			fmt.Printf("%sextern fn %s(%s)\n", pre, decl.Name, paramList(decl.Params))
		}
	case *ast.GlobalDecl:
		kw := "let"
		if decl.IsConst {
			kw = "const"
		}
		fmt.Printf("%s%s %s = %s\n", pre, kw, decl.Name, exprString(decl.Value))
	default:
		fmt.Printf("%s<decl %T>\n", pre, d)
	}
}

func paramList(params []*ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	return strings.Join(parts, ", ")
}

func throwsSuffix(f *ast.FuncDecl) string {
	if len(f.Throws) == 0 {
		return ""
	}
	return "throws " + strings.Join(f.Throws, ", ")
}

func dumpStmt(s ast.Stmt, depth int) {
	pre := indent(depth)
	switch st := s.(type) {
	case *ast.BlockStmt:
		fmt.Printf("%s{\n", pre)
		for _, inner := range st.Stmts {
			dumpStmt(inner, depth+1)
		}
		fmt.Printf("%s}\n", pre)
	case *ast.LetStmt:
		kw := "let"
		if st.IsConst {
			kw = "const"
		}
		fmt.Printf("%s%s %s = %s\n", pre, kw, st.Name, exprString(st.Value))
	case *ast.ExprStmt:
		fmt.Printf("%s%s\n", pre, exprString(st.X))
	case *ast.AssignStmt:
		fmt.Printf("%s%s = %s\n", pre, exprString(st.Target), exprString(st.Value))
	case *ast.IfStmt:
		fmt.Printf("%sif %s\n", pre, exprString(st.Cond))
		dumpStmt(st.Then, depth)
		if st.Else != nil {
			fmt.Printf("%selse\n", pre)
			dumpStmt(st.Else, depth)
		}
	case *ast.WhileStmt:
		fmt.Printf("%swhile %s\n", pre, exprString(st.Cond))
		dumpStmt(st.Body, depth)
	case *ast.ForStmt:
		op := ".."
		if st.Inclusive {
			op = "..="
		}
		fmt.Printf("%sfor %s in %s%s%s\n", pre, st.Name, exprString(st.Start), op, exprString(st.End))
		dumpStmt(st.Body, depth)
	case *ast.SwitchStmt:
		fmt.Printf("%sswitch %s {\n", pre, exprString(st.Subject))
		for _, c := range st.Cases {
			if c.IsDefault {
				fmt.Printf("%s  default:\n", pre)
			} else {
				vals := make([]string, len(c.Values))
				for i, v := range c.Values {
					vals[i] = exprString(v)
				}
				fmt.Printf("%s  case %s:\n", pre, strings.Join(vals, ", "))
			}
			dumpStmt(c.Body, depth+2)
		}
		fmt.Printf("%s}\n", pre)
	case *ast.ReturnStmt:
		if st.Value == nil {
			fmt.Printf("%sreturn\n", pre)
		} else {
			fmt.Printf("%sreturn %s\n", pre, exprString(st.Value))
		}
	case *ast.BreakStmt:
		fmt.Printf("%sbreak\n", pre)
	case *ast.ContinueStmt:
		fmt.Printf("%scontinue\n", pre)
	case *ast.ThrowStmt:
		fmt.Printf("%sthrow %s\n", pre, exprString(st.Value))
	case *ast.DeferStmt:
		fmt.Printf("%sdefer\n", pre)
		dumpStmt(st.Stmt, depth+1)
	case *ast.UnsafeStmt:
		fmt.Printf("%sunsafe\n", pre)
		dumpStmt(st.Body, depth)
	default:
		fmt.Printf("%s<stmt %T>\n", pre, s)
	}
}

// exprString renders an expression as a compact single-line form; there is
// no operator-precedence round-tripping requirement here, just a readable
// debug view.
func exprString(e ast.Expr) string {
	switch x := e.(type) {
	case nil:
		return ""
	case *ast.Ident:
		if x.Module != "" {
			return x.Module + "." + x.Name
		}
		return x.Name
	case *ast.IntLit:
		if x.Suffix != "" {
			return fmt.Sprintf("%d%s", x.Value, x.Suffix)
		}
		return fmt.Sprintf("%d", x.Value)
	case *ast.FloatLit:
		return fmt.Sprintf("%v%s", x.Value, x.Suffix)
	case *ast.StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *ast.BoolLit:
		return fmt.Sprintf("%v", x.Value)
	case *ast.NullLit:
		return "null"
	case *ast.ArrayLit:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			parts[i] = exprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.StructLit:
		parts := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, exprString(f.Value))
		}
		return fmt.Sprintf("%s{%s}", x.TypeName, strings.Join(parts, ", "))
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", exprString(x.Left), x.Op, exprString(x.Right))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s%s)", x.Op, exprString(x.X))
	case *ast.CallExpr:
		parts := make([]string, len(x.Args))
		for i, a := range x.Args {
			parts[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", exprString(x.Func), strings.Join(parts, ", "))
	case *ast.FieldExpr:
		return fmt.Sprintf("%s.%s", exprString(x.X), x.Field)
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", exprString(x.X), exprString(x.Index))
	case *ast.CastExpr:
		return fmt.Sprintf("(%s as %s)", exprString(x.X), x.Type)
	case *ast.SizeofExpr:
		return fmt.Sprintf("sizeof(%s)", x.Type)
	case *ast.MoveExpr:
		return fmt.Sprintf("move %s", exprString(x.X))
	case *ast.CatchExpr:
		return fmt.Sprintf("%s catch {...}", exprString(x.Call))
	case *ast.BlockExpr:
		return "{...}"
	default:
		return fmt.Sprintf("<expr %T>", e)
	}
}

// dumpKIR prints a readable listing of m: types, externs, globals, and each
// function's blocks in source order, grounded on spec.md §4.7's own
// function-body shape (labels, one line per instruction).
func dumpKIR(m *kir.Module) {
	for _, t := range m.Types {
		fmt.Printf("type %s\n", t.Name)
	}
	for _, ex := range m.Externs {
		fmt.Printf("extern %s\n", ex.Name)
	}
	for _, g := range m.Globals {
		fmt.Printf("global %s\n", g.Name)
	}
	for _, fn := range m.Functions {
		fmt.Printf("\nfn %s(%d params) -> %s\n", fn.Name, len(fn.Params), fn.Return.String())
		for _, b := range fn.Blocks {
			fmt.Printf("%s:\n", b.ID)
			for _, phi := range b.Phis {
				fmt.Printf("    v%d = phi %v\n", phi.Dest, phi.Incoming)
			}
			for _, instr := range b.Instrs {
				fmt.Printf("    %s\n", instrString(instr))
			}
			fmt.Printf("    %s\n", termString(b.Term))
		}
	}
}

func instrString(instr kir.Instruction) string {
	return fmt.Sprintf("%T v%d", instr, instr.Dest())
}

func termString(t kir.Terminator) string {
	if t == nil {
		return "<no terminator>"
	}
	return fmt.Sprintf("%T -> %v", t, t.Successors())
}
