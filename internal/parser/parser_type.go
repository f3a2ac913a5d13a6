package parser

import (
	"strconv"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/lexer"
)

// parseType parses a type annotation: a named type (optionally generic), a
// pointer `*T`, a fixed array `[T; N]`, or a slice `[]T`.
func (p *Parser) parseType() ast.TypeNode {
	start := p.curPos()

	switch {
	case p.curIs(lexer.STAR):
		p.next()
		return &ast.PtrType{Elem: p.parseType(), SpanVal: p.spanFrom(start)}

	case p.curIs(lexer.LBRACKET):
		p.next()
		if p.curIs(lexer.RBRACKET) {
			p.next()
			return &ast.SliceType{Elem: p.parseType(), SpanVal: p.spanFrom(start)}
		}
		elem := p.parseType()
		p.expect(lexer.SEMI, "';'")
		length := int64(0)
		if p.curIs(lexer.INT) {
			n, err := strconv.ParseInt(p.cur.Literal, 0, 64)
			if err != nil {
				p.errorf(errors.PAR004, "invalid array length %q", p.cur.Literal)
			}
			length = n
			p.next()
		} else {
			p.errorf(errors.PAR004, "expected array length")
		}
		p.expect(lexer.RBRACKET, "']'")
		return &ast.ArrayType{Elem: elem, Length: length, SpanVal: p.spanFrom(start)}

	case p.curIs(lexer.IDENT):
		name := p.cur.Literal
		p.next()
		var args []ast.TypeNode
		if p.curIs(lexer.LBRACKET) {
			p.next()
			for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
				args = append(args, p.parseType())
				if p.curIs(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RBRACKET, "']'")
		}
		return &ast.NamedType{Name: name, Args: args, SpanVal: p.spanFrom(start)}

	default:
		p.errorf(errors.PAR004, "expected a type, got %q", p.cur.Literal)
		p.next()
		return &ast.NamedType{Name: "<error>", SpanVal: p.spanFrom(start)}
	}
}
