package ast

import (
	"bytes"
	"strings"
	"testing"

	"github.com/keilang/kei/internal/diag"
)

func TestNodeSpans(t *testing.T) {
	sp := diag.Span{Start: diag.Pos{File: "a.kei", Line: 1, Column: 1}}
	nodes := []Node{
		&FuncDecl{Name: "f", SpanVal: sp},
		&StructDecl{Name: "S", SpanVal: sp},
		&IntLit{Value: 1, SpanVal: sp},
		&BinaryExpr{Op: "+", SpanVal: sp},
	}
	for _, n := range nodes {
		if n.Span() != sp {
			t.Errorf("%T.Span() = %v, want %v", n, n.Span(), sp)
		}
	}
}

func TestTypeNodeString(t *testing.T) {
	tests := []struct {
		node TypeNode
		want string
	}{
		{&NamedType{Name: "i32"}, "i32"},
		{&NamedType{Name: "Box", Args: []TypeNode{&NamedType{Name: "i32"}}}, "Box[i32]"},
		{&PtrType{Elem: &NamedType{Name: "Node"}}, "*Node"},
		{&ArrayType{Elem: &NamedType{Name: "i32"}, Length: 7}, "[i32; 7]"},
		{&SliceType{Elem: &NamedType{Name: "u8"}}, "[]u8"},
	}
	for _, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPrinterProducesNonEmptyOutput(t *testing.T) {
	file := &File{
		Path: "main.kei",
		Decls: []Decl{
			&FuncDecl{
				Name: "main",
				Body: &BlockStmt{Stmts: []Stmt{
					&ReturnStmt{Value: &IntLit{Value: 0}},
				}},
			},
		},
	}
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFile(file)
	out := buf.String()
	if !strings.Contains(out, "fn main") {
		t.Errorf("expected output to mention fn main, got:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("expected output to mention return, got:\n%s", out)
	}
}
