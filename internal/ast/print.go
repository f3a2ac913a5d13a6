package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders a File as indented text. The driver's --ast flag does not
// use it; cmd/keic prints its own tree with dumpAST.
type Printer struct {
	w     io.Writer
	depth int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.depth), fmt.Sprintf(format, args...))
}

func (p *Printer) indent(f func()) {
	p.depth++
	f()
	p.depth--
}

// PrintFile writes a full textual dump of a parsed file.
func (p *Printer) PrintFile(f *File) {
	p.line("File %s", f.Path)
	p.indent(func() {
		for _, imp := range f.Imports {
			if len(imp.Symbols) > 0 {
				p.line("import {%s} from %s", strings.Join(imp.Symbols, ", "), imp.Path)
			} else {
				p.line("import %s", imp.Path)
			}
		}
		for _, d := range f.Decls {
			p.printDecl(d)
		}
	})
}

func (p *Printer) printDecl(d Decl) {
	switch n := d.(type) {
	case *FuncDecl:
		vis := ""
		if n.IsPub {
			vis = "pub "
		}
		p.line("%sfn %s(%d params) throws %v", vis, n.Name, len(n.Params), n.Throws)
		if n.Body != nil {
			p.indent(func() { p.printStmt(n.Body) })
		}
	case *StructDecl:
		p.line("struct %s (%d fields, %d methods)", n.Name, len(n.Fields), len(n.Methods))
		p.indent(func() {
			for _, m := range n.Methods {
				p.printDecl(m)
			}
		})
	case *EnumDecl:
		p.line("enum %s (%d variants)", n.Name, len(n.Variants))
	case *ExternDecl:
		p.line("extern %s", n.Name)
	case *GlobalDecl:
		kw := "let"
		if n.IsConst {
			kw = "const"
		}
		p.line("%s %s", kw, n.Name)
	default:
		p.line("<decl %T>", d)
	}
}

func (p *Printer) printStmt(s Stmt) {
	switch n := s.(type) {
	case *BlockStmt:
		p.line("block")
		p.indent(func() {
			for _, st := range n.Stmts {
				p.printStmt(st)
			}
		})
	case *LetStmt:
		p.line("let %s", n.Name)
	case *ExprStmt:
		p.line("expr")
		p.indent(func() { p.printExpr(n.X) })
	case *AssignStmt:
		p.line("assign")
	case *IfStmt:
		p.line("if")
		p.indent(func() {
			p.printStmt(n.Then)
			if n.Else != nil {
				p.printStmt(n.Else)
			}
		})
	case *WhileStmt:
		p.line("while")
		p.indent(func() { p.printStmt(n.Body) })
	case *ForStmt:
		p.line("for %s", n.Name)
		p.indent(func() { p.printStmt(n.Body) })
	case *SwitchStmt:
		p.line("switch (%d cases)", len(n.Cases))
	case *ReturnStmt:
		p.line("return")
	case *BreakStmt:
		p.line("break")
	case *ContinueStmt:
		p.line("continue")
	case *ThrowStmt:
		p.line("throw")
	case *DeferStmt:
		p.line("defer")
	case *UnsafeStmt:
		p.line("unsafe")
		p.indent(func() { p.printStmt(n.Body) })
	default:
		p.line("<stmt %T>", s)
	}
}

func (p *Printer) printExpr(e Expr) {
	switch n := e.(type) {
	case *Ident:
		p.line("ident %s", n.Name)
	case *IntLit:
		p.line("int %d", n.Value)
	case *CallExpr:
		p.line("call (%d args)", len(n.Args))
	default:
		p.line("<expr %T>", e)
	}
}
