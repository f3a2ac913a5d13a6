package parser

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/lexer"
)

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() *ast.BlockStmt {
	start := p.curPos()
	p.expect(lexer.LBRACE, "'{'")
	blk := &ast.BlockStmt{}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if s := p.parseStmt(); s != nil {
			blk.Stmts = append(blk.Stmts, s)
		} else {
			p.syncTo(lexer.SEMI, lexer.RBRACE)
			if p.curIs(lexer.SEMI) {
				p.next()
			}
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	blk.SpanVal = p.spanFrom(start)
	return blk
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.curIs(lexer.LET) || p.curIs(lexer.CONST):
		return p.parseLetStmt()
	case p.curIs(lexer.IF):
		return p.parseIfStmt()
	case p.curIs(lexer.WHILE):
		return p.parseWhileStmt()
	case p.curIs(lexer.FOR):
		return p.parseForStmt()
	case p.curIs(lexer.SWITCH):
		return p.parseSwitchStmt()
	case p.curIs(lexer.RETURN):
		return p.parseReturnStmt()
	case p.curIs(lexer.BREAK):
		start := p.curPos()
		p.next()
		p.expect(lexer.SEMI, "';'")
		return &ast.BreakStmt{SpanVal: p.spanFrom(start)}
	case p.curIs(lexer.CONTINUE):
		start := p.curPos()
		p.next()
		p.expect(lexer.SEMI, "';'")
		return &ast.ContinueStmt{SpanVal: p.spanFrom(start)}
	case p.curIs(lexer.THROW):
		return p.parseThrowStmt()
	case p.curIs(lexer.DEFER):
		return p.parseDeferStmt()
	case p.curIs(lexer.UNSAFE):
		return p.parseUnsafeStmt()
	case p.curIs(lexer.LBRACE):
		blk := p.parseBlock()
		return &ast.ExprStmt{X: &ast.BlockExpr{Block: blk, SpanVal: blk.SpanVal}, SpanVal: blk.SpanVal}
	default:
		return p.parseSimpleStmt()
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.curPos()
	isConst := p.curIs(lexer.CONST)
	p.next() // 'let' or 'const'

	name := p.cur.Literal
	p.expect(lexer.IDENT, "binding name")

	var typ ast.TypeNode
	if p.curIs(lexer.COLON) {
		p.next()
		typ = p.parseType()
	}
	p.expect(lexer.ASSIGN, "'='")
	value := p.parseExpr(LOWEST)
	p.expect(lexer.SEMI, "';'")
	return &ast.LetStmt{Name: name, Type: typ, Value: value, IsConst: isConst, SpanVal: p.spanFrom(start)}
}

// parseSimpleStmt parses an expression statement or an assignment, which
// share a common `expr` prefix.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.curPos()
	x := p.parseExpr(LOWEST)
	if p.curIs(lexer.ASSIGN) {
		p.next()
		value := p.parseExpr(LOWEST)
		p.expect(lexer.SEMI, "';'")
		return &ast.AssignStmt{Target: x, Value: value, SpanVal: p.spanFrom(start)}
	}
	p.expect(lexer.SEMI, "';'")
	return &ast.ExprStmt{X: x, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'if'
	cond := p.parseExprNoStructLit(LOWEST)
	then := p.parseBlock()

	stmt := &ast.IfStmt{Cond: cond, Then: then}
	if p.curIs(lexer.ELSE) {
		p.next()
		if p.curIs(lexer.IF) {
			stmt.Else = p.parseIfStmt()
		} else {
			stmt.Else = p.parseBlock()
		}
	}
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'while'
	cond := p.parseExprNoStructLit(LOWEST)
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'for'
	name := p.cur.Literal
	p.expect(lexer.IDENT, "loop variable")
	p.expect(lexer.IN, "'in'")
	from := p.parseExprNoStructLit(LOWEST)

	inclusive := false
	switch {
	case p.curIs(lexer.DOTDOTEQ):
		inclusive = true
		p.next()
	case p.curIs(lexer.DOTDOT):
		p.next()
	default:
		p.errorf(errors.PAR001, "expected '..' or '..=' in for range, got %q", p.cur.Literal)
	}
	to := p.parseExprNoStructLit(LOWEST)
	body := p.parseBlock()
	return &ast.ForStmt{Name: name, Start: from, End: to, Inclusive: inclusive, Body: body, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'switch'
	subject := p.parseExprNoStructLit(LOWEST)
	p.expect(lexer.LBRACE, "'{'")

	stmt := &ast.SwitchStmt{Subject: subject}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		stmt.Cases = append(stmt.Cases, p.parseSwitchCase())
	}
	p.expect(lexer.RBRACE, "'}'")
	stmt.SpanVal = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseSwitchCase() *ast.SwitchCase {
	cstart := p.curPos()
	c := &ast.SwitchCase{}
	if p.curIs(lexer.DEFAULT) {
		c.IsDefault = true
		p.next()
	} else {
		p.expect(lexer.CASE, "'case'")
		for {
			// `Variant(a, b)` names a data-variant pattern with payload binds;
			// stop here so the LPAREN below is read as the bind list, not a call.
			if p.curIs(lexer.IDENT) && p.peekIs(lexer.LPAREN) {
				vstart := p.curPos()
				name := p.cur.Literal
				p.next()
				c.Values = append(c.Values, &ast.Ident{Name: name, SpanVal: p.spanFrom(vstart)})
				break
			}
			c.Values = append(c.Values, p.parseExpr(LOWEST))
			if p.curIs(lexer.COMMA) {
				p.next()
				continue
			}
			break
		}
		// optional data-variant payload bind: `case Pair(a, b):`
		if p.curIs(lexer.LPAREN) {
			p.next()
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				c.Binds = append(c.Binds, p.cur.Literal)
				p.expect(lexer.IDENT, "bind name")
				if p.curIs(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN, "')'")
		}
	}
	p.expect(lexer.COLON, "':'")

	body := &ast.BlockStmt{}
	bstart := p.curPos()
	for !p.curIs(lexer.CASE) && !p.curIs(lexer.DEFAULT) && !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if s := p.parseStmt(); s != nil {
			body.Stmts = append(body.Stmts, s)
		} else {
			p.syncTo(lexer.SEMI, lexer.CASE, lexer.DEFAULT, lexer.RBRACE)
			if p.curIs(lexer.SEMI) {
				p.next()
			}
		}
	}
	body.SpanVal = p.spanFrom(bstart)
	c.Body = body
	c.SpanVal = p.spanFrom(cstart)
	return c
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'return'
	var value ast.Expr
	if !p.curIs(lexer.SEMI) {
		value = p.parseExpr(LOWEST)
	}
	p.expect(lexer.SEMI, "';'")
	return &ast.ReturnStmt{Value: value, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'throw'
	value := p.parseExpr(LOWEST)
	p.expect(lexer.SEMI, "';'")
	return &ast.ThrowStmt{Value: value, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseDeferStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'defer'
	inner := p.parseStmt()
	return &ast.DeferStmt{Stmt: inner, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseUnsafeStmt() ast.Stmt {
	start := p.curPos()
	p.next() // 'unsafe'
	body := p.parseBlock()
	return &ast.UnsafeStmt{Body: body, SpanVal: p.spanFrom(start)}
}
