package parser

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/lexer"
)

func (p *Parser) parseTypeParams() []string {
	if !p.curIs(lexer.LBRACKET) {
		return nil
	}
	p.next()
	var params []string
	for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
		params = append(params, p.cur.Literal)
		p.expect(lexer.IDENT, "type parameter")
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACKET, "']'")
	return params
}

func (p *Parser) parseParams() []*ast.Param {
	p.expect(lexer.LPAREN, "'('")
	var params []*ast.Param
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		start := p.curPos()
		param := &ast.Param{}
		if p.curIs(lexer.MOVE) {
			param.IsMove = true
			p.next()
		}
		param.Name = p.cur.Literal
		p.expect(lexer.IDENT, "parameter name")
		p.expect(lexer.COLON, "':'")
		if p.curIs(lexer.AMP) { // `&mut T` style mutability marker before type
			param.IsMut = true
			p.next()
		}
		param.Type = p.parseType()
		param.SpanVal = p.spanFrom(start)
		params = append(params, param)
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN, "')'")
	return params
}

func (p *Parser) parseThrowsList() []string {
	if !p.curIs(lexer.THROWS) {
		return nil
	}
	p.next()
	var list []string
	for {
		list = append(list, p.cur.Literal)
		p.expect(lexer.IDENT, "error type name")
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	return list
}

func (p *Parser) parseFuncDecl(isPub bool) *ast.FuncDecl {
	start := p.curPos()
	p.next() // 'fn'

	name := p.cur.Literal
	p.expect(lexer.IDENT, "function name")

	typeParams := p.parseTypeParams()
	params := p.parseParams()

	var ret ast.TypeNode
	if p.curIs(lexer.ARROW) {
		p.next()
		ret = p.parseType()
	}

	throws := p.parseThrowsList()

	decl := &ast.FuncDecl{
		Name: name, TypeParams: typeParams, Params: params,
		ReturnType: ret, Throws: throws, IsPub: isPub,
	}

	if p.curIs(lexer.SEMI) {
		// prototype-only declaration (e.g. a struct method signature with no body)
		p.next()
	} else {
		decl.Body = p.parseBlock()
	}
	decl.SpanVal = p.spanFrom(start)
	return decl
}

func (p *Parser) parseStructDecl(isPub bool) *ast.StructDecl {
	start := p.curPos()
	p.next() // 'struct'
	name := p.cur.Literal
	p.expect(lexer.IDENT, "struct name")
	typeParams := p.parseTypeParams()

	decl := &ast.StructDecl{Name: name, TypeParams: typeParams, IsPub: isPub}

	p.expect(lexer.LBRACE, "'{'")
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.FN) {
			decl.Methods = append(decl.Methods, p.parseFuncDecl(false))
			continue
		}
		fstart := p.curPos()
		fname := p.cur.Literal
		p.expect(lexer.IDENT, "field name")
		p.expect(lexer.COLON, "':'")
		ftype := p.parseType()
		decl.Fields = append(decl.Fields, &ast.FieldDecl{Name: fname, Type: ftype, SpanVal: p.spanFrom(fstart)})
		if p.curIs(lexer.SEMI) || p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	decl.SpanVal = p.spanFrom(start)
	return decl
}

func (p *Parser) parseEnumDecl(isPub bool) *ast.EnumDecl {
	start := p.curPos()
	p.next() // 'enum'
	name := p.cur.Literal
	p.expect(lexer.IDENT, "enum name")

	decl := &ast.EnumDecl{Name: name, IsPub: isPub}
	if p.curIs(lexer.COLON) {
		p.next()
		decl.BaseType = p.parseType()
	}

	p.expect(lexer.LBRACE, "'{'")
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		vstart := p.curPos()
		variant := &ast.EnumVariant{Name: p.cur.Literal}
		p.expect(lexer.IDENT, "variant name")

		if p.curIs(lexer.LPAREN) {
			p.next()
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				variant.Fields = append(variant.Fields, p.parseType())
				if p.curIs(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN, "')'")
		} else if p.curIs(lexer.ASSIGN) {
			p.next()
			variant.Value = p.parseExpr(LOWEST)
		}
		variant.SpanVal = p.spanFrom(vstart)
		decl.Variants = append(decl.Variants, variant)
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	decl.SpanVal = p.spanFrom(start)
	return decl
}

func (p *Parser) parseExternDecl() *ast.ExternDecl {
	start := p.curPos()
	p.next() // 'extern'

	if p.curIs(lexer.LET) || p.curIs(lexer.CONST) {
		p.next()
		name := p.cur.Literal
		p.expect(lexer.IDENT, "extern variable name")
		p.expect(lexer.COLON, "':'")
		typ := p.parseType()
		p.expect(lexer.SEMI, "';'")
		return &ast.ExternDecl{Name: name, IsVar: true, VarType: typ, SpanVal: p.spanFrom(start)}
	}

	p.expect(lexer.FN, "'fn'")
	name := p.cur.Literal
	p.expect(lexer.IDENT, "extern function name")
	params := p.parseParams()
	var ret ast.TypeNode
	if p.curIs(lexer.ARROW) {
		p.next()
		ret = p.parseType()
	}
	p.expect(lexer.SEMI, "';'")
	return &ast.ExternDecl{Name: name, Params: params, ReturnType: ret, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseGlobalDecl(isPub bool) *ast.GlobalDecl {
	start := p.curPos()
	isConst := p.curIs(lexer.CONST)
	p.next() // 'let' or 'const'

	name := p.cur.Literal
	p.expect(lexer.IDENT, "name")

	var typ ast.TypeNode
	if p.curIs(lexer.COLON) {
		p.next()
		typ = p.parseType()
	}
	p.expect(lexer.ASSIGN, "'='")
	value := p.parseExpr(LOWEST)
	p.expect(lexer.SEMI, "';'")

	return &ast.GlobalDecl{Name: name, Type: typ, Value: value, IsConst: isConst, IsPub: isPub, SpanVal: p.spanFrom(start)}
}

