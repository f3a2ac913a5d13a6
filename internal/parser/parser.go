// Package parser turns a kei token stream into an AST. It is a standard
// recursive-descent / Pratt parser: statements and declarations by
// straight-line descent, expressions by operator-precedence climbing.
package parser

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/lexer"
)

// Parser consumes tokens from a Lexer and builds an ast.File.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	diags *diag.Sink
}

// New creates a Parser reading tokens from l.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file, diags: diag.NewSink()}
	p.next()
	p.next()
	return p
}

// Diagnostics returns every diagnostic recorded while parsing, including any
// lexical diagnostics surfaced through the underlying lexer.
func (p *Parser) Diagnostics() []diag.Diagnostic {
	all := append([]diag.Diagnostic{}, p.l.Diagnostics()...)
	all = append(all, p.diags.Diagnostics()...)
	return all
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (p *Parser) HasErrors() bool {
	for _, d := range p.Diagnostics() {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) span() diag.Span {
	pos := diag.Pos{File: p.cur.File, Offset: p.cur.Offset, Line: p.cur.Line, Column: p.cur.Column}
	return diag.Span{Start: pos, End: pos}
}

func (p *Parser) spanFrom(start diag.Pos) diag.Span {
	end := diag.Pos{File: p.cur.File, Offset: p.cur.Offset, Line: p.cur.Line, Column: p.cur.Column}
	return diag.Span{Start: start, End: end}
}

func (p *Parser) curPos() diag.Pos {
	return diag.Pos{File: p.cur.File, Offset: p.cur.Offset, Line: p.cur.Line, Column: p.cur.Column}
}

func (p *Parser) errorf(code string, format string, args ...interface{}) {
	p.diags.Errorf(code, p.span(), format, args...)
}

// expect consumes the current token if it has type t, else records a PAR001
// diagnostic and leaves the cursor in place so callers can attempt recovery.
func (p *Parser) expect(t lexer.TokenType, what string) bool {
	if p.cur.Type == t {
		p.next()
		return true
	}
	p.errorf(errors.PAR001, "expected %s, got %q", what, p.cur.Literal)
	return false
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

// syncTo skips tokens until one of the given types (or EOF) to recover after
// a parse error, so the parser can keep accumulating diagnostics.
func (p *Parser) syncTo(types ...lexer.TokenType) {
	for !p.curIs(lexer.EOF) {
		for _, t := range types {
			if p.curIs(t) {
				return
			}
		}
		p.next()
	}
}

// Parse parses a full file.
func (p *Parser) Parse() *ast.File {
	start := p.curPos()
	file := &ast.File{Path: p.file}

	for !p.curIs(lexer.EOF) {
		switch {
		case p.curIs(lexer.MODULE_KW):
			p.parseModuleDecl() // module declaration is informational only; path comes from the resolver
		case p.curIs(lexer.IMPORT):
			if imp := p.parseImportDecl(); imp != nil {
				file.Imports = append(file.Imports, imp)
			}
		default:
			if d := p.parseDecl(); d != nil {
				file.Decls = append(file.Decls, d)
			} else {
				p.syncTo(lexer.FN, lexer.STRUCT, lexer.ENUM, lexer.EXTERN, lexer.LET, lexer.CONST, lexer.PUB, lexer.IMPORT, lexer.EOF)
			}
		}
	}

	file.SpanVal = p.spanFrom(start)
	return file
}

func (p *Parser) parseModuleDecl() {
	p.next() // 'module'
	for !p.curIs(lexer.SEMI) && !p.curIs(lexer.EOF) {
		p.next()
	}
	p.expect(lexer.SEMI, "';'")
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.curPos()
	p.next() // 'import'

	imp := &ast.ImportDecl{}
	if p.curIs(lexer.LBRACE) {
		p.next()
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			imp.Symbols = append(imp.Symbols, p.cur.Literal)
			p.expect(lexer.IDENT, "identifier")
			if p.curIs(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACE, "'}'")
		p.expect(lexer.FROM, "'from'")
	}
	imp.Path = p.parseDottedPath()
	p.expect(lexer.SEMI, "';'")
	imp.SpanVal = p.spanFrom(start)
	return imp
}

func (p *Parser) parseDottedPath() string {
	path := p.cur.Literal
	p.expect(lexer.IDENT, "module path")
	for p.curIs(lexer.DOT) {
		p.next()
		path += "." + p.cur.Literal
		p.expect(lexer.IDENT, "identifier")
	}
	return path
}

func (p *Parser) parseDecl() ast.Decl {
	isPub := false
	if p.curIs(lexer.PUB) {
		isPub = true
		p.next()
	}
	switch {
	case p.curIs(lexer.FN):
		return p.parseFuncDecl(isPub)
	case p.curIs(lexer.STRUCT):
		return p.parseStructDecl(isPub)
	case p.curIs(lexer.ENUM):
		return p.parseEnumDecl(isPub)
	case p.curIs(lexer.EXTERN):
		return p.parseExternDecl()
	case p.curIs(lexer.LET) || p.curIs(lexer.CONST):
		return p.parseGlobalDecl(isPub)
	default:
		p.errorf(errors.PAR003, "expected a declaration, got %q", p.cur.Literal)
		return nil
	}
}
