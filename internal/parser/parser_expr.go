package parser

import (
	"strconv"
	"strings"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/lexer"
)

// Precedence levels, lowest to highest.
const (
	LOWEST int = iota
	LOGIC_OR
	LOGIC_AND
	BIT_OR
	BIT_XOR
	BIT_AND
	EQUALITY
	RELATIONAL
	SHIFT
	ADDITIVE
	MULTIPLICATIVE
	CAST
	UNARY
	CALL_INDEX
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       LOGIC_OR,
	lexer.AND:      LOGIC_AND,
	lexer.PIPE:     BIT_OR,
	lexer.CARET:    BIT_XOR,
	lexer.AMP:      BIT_AND,
	lexer.EQ:       EQUALITY,
	lexer.NEQ:      EQUALITY,
	lexer.LT:       RELATIONAL,
	lexer.LE:       RELATIONAL,
	lexer.GT:       RELATIONAL,
	lexer.GE:       RELATIONAL,
	lexer.SHL:      SHIFT,
	lexer.SHR:      SHIFT,
	lexer.PLUS:     ADDITIVE,
	lexer.MINUS:    ADDITIVE,
	lexer.STAR:     MULTIPLICATIVE,
	lexer.SLASH:    MULTIPLICATIVE,
	lexer.PERCENT:  MULTIPLICATIVE,
	lexer.AS:       CAST,
	lexer.LPAREN:   CALL_INDEX,
	lexer.LBRACKET: CALL_INDEX,
	lexer.DOT:      CALL_INDEX,
}

// noPrec is returned for any token that cannot continue an expression (a
// statement terminator, a closing delimiter, EOF, ...). It must compare below
// every real precedence level, including LOWEST, or the precedence-climbing
// loop never terminates at those tokens.
const noPrec = -1

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return noPrec
}

// parseExpr parses an expression binding at least as tightly as minPrec,
// using standard precedence-climbing: parse a prefix/primary term, then
// repeatedly fold in infix/postfix operators whose precedence is >= minPrec.
// Struct literals (`Name{...}`) are allowed in this position.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	return p.parseExprAllowStructLit(minPrec, true)
}

// parseExprNoStructLit parses like parseExpr but forbids a bare `Name{...}`
// from being read as a struct literal — used for if/while/switch/for
// conditions and subjects, where `{` instead opens the following block.
func (p *Parser) parseExprNoStructLit(minPrec int) ast.Expr {
	return p.parseExprAllowStructLit(minPrec, false)
}

func (p *Parser) parseExprAllowStructLit(minPrec int, allowStructLit bool) ast.Expr {
	left := p.parsePrefix(allowStructLit)

	for {
		prec := p.peekPrecedence()
		if prec < minPrec {
			break
		}
		switch p.cur.Type {
		case lexer.LPAREN:
			left = p.parseCallSuffix(left, nil)
		case lexer.LBRACKET:
			left = p.parseIndexSuffix(left)
		case lexer.DOT:
			left = p.parseFieldSuffix(left)
		case lexer.AS:
			left = p.parseCastSuffix(left)
		default:
			left = p.parseBinarySuffix(left, prec)
		}
	}
	return left
}

func (p *Parser) parseBinarySuffix(left ast.Expr, prec int) ast.Expr {
	start := left.Span().Start
	op := p.cur.Literal
	p.next()
	right := p.parseExpr(prec + 1)
	return &ast.BinaryExpr{Op: op, Left: left, Right: right, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseCastSuffix(left ast.Expr) ast.Expr {
	start := left.Span().Start
	p.next() // 'as'
	typ := p.parseType()
	return &ast.CastExpr{X: left, Type: typ, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseFieldSuffix(left ast.Expr) ast.Expr {
	start := left.Span().Start
	p.next() // '.'
	field := p.cur.Literal
	p.expect(lexer.IDENT, "field name")
	return &ast.FieldExpr{X: left, Field: field, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseIndexSuffix(left ast.Expr) ast.Expr {
	start := left.Span().Start
	p.next() // '['
	idx := p.parseExpr(LOWEST)
	p.expect(lexer.RBRACKET, "']'")
	return &ast.IndexExpr{X: left, Index: idx, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseCallSuffix(fn ast.Expr, typeArgs []ast.TypeNode) ast.Expr {
	start := fn.Span().Start
	p.next() // '('
	var args []ast.Expr
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		args = append(args, p.parseExpr(LOWEST))
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN, "')'")
	call := ast.Expr(&ast.CallExpr{Func: fn, TypeArgs: typeArgs, Args: args, SpanVal: p.spanFrom(start)})

	if p.curIs(lexer.CATCH) {
		return p.parseCatchSuffix(call)
	}
	return call
}

func (p *Parser) parseCatchSuffix(call ast.Expr) ast.Expr {
	start := call.Span().Start
	p.next() // 'catch'

	ce := &ast.CatchExpr{Call: call}
	switch {
	case p.curIs(lexer.PANIC):
		p.next()
		ce.Kind = ast.CatchPanic
	case p.curIs(lexer.THROW):
		p.next()
		ce.Kind = ast.CatchThrow
	case p.curIs(lexer.LBRACE):
		ce.Kind = ast.CatchClauses
		p.next()
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			ce.Clauses = append(ce.Clauses, p.parseCatchClause())
		}
		p.expect(lexer.RBRACE, "'}'")
	default:
		p.errorf(errors.PAR001, "expected 'panic', 'throw', or '{' after catch")
	}
	ce.SpanVal = p.spanFrom(start)
	return ce
}

func (p *Parser) parseCatchClause() *ast.CatchClause {
	cstart := p.curPos()
	clause := &ast.CatchClause{}
	if p.curIs(lexer.DEFAULT) {
		clause.IsDefault = true
		p.next()
	} else {
		clause.Type = p.cur.Literal
		p.expect(lexer.IDENT, "error type name")
		if p.curIs(lexer.IDENT) {
			clause.BindName = p.cur.Literal
			p.next()
		}
	}
	p.expect(lexer.COLON, "':'")
	clause.Body = p.parseBlock()
	clause.SpanVal = p.spanFrom(cstart)
	return clause
}

// parsePrefix parses a unary prefix operator or a primary expression.
func (p *Parser) parsePrefix(allowStructLit bool) ast.Expr {
	start := p.curPos()
	switch p.cur.Type {
	case lexer.MINUS, lexer.NOT, lexer.TILDE:
		op := p.cur.Literal
		p.next()
		x := p.parseExprAllowStructLit(UNARY, allowStructLit)
		return &ast.UnaryExpr{Op: op, X: x, SpanVal: p.spanFrom(start)}

	case lexer.MOVE:
		p.next()
		x := p.parseExprAllowStructLit(UNARY, allowStructLit)
		return &ast.MoveExpr{X: x, SpanVal: p.spanFrom(start)}

	case lexer.SIZEOF:
		p.next()
		p.expect(lexer.LPAREN, "'('")
		typ := p.parseType()
		p.expect(lexer.RPAREN, "')'")
		return &ast.SizeofExpr{Type: typ, SpanVal: p.spanFrom(start)}

	case lexer.LPAREN:
		p.next()
		x := p.parseExpr(LOWEST)
		p.expect(lexer.RPAREN, "')'")
		return x

	case lexer.LBRACE:
		blk := p.parseBlock()
		return &ast.BlockExpr{Block: blk, SpanVal: blk.SpanVal}

	case lexer.LBRACKET:
		p.next()
		var elems []ast.Expr
		for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
			elems = append(elems, p.parseExpr(LOWEST))
			if p.curIs(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACKET, "']'")
		if len(elems) == 0 {
			p.errorf(errors.SEM013, "empty array literal")
		}
		return &ast.ArrayLit{Elements: elems, SpanVal: p.spanFrom(start)}

	case lexer.INT:
		lit := p.cur.Literal
		p.next()
		return p.intLit(lit, start)

	case lexer.FLOAT:
		lit := p.cur.Literal
		p.next()
		return p.floatLit(lit, start)

	case lexer.STRING:
		lit := p.cur.Literal
		p.next()
		return &ast.StringLit{Value: lit, SpanVal: p.spanFrom(start)}

	case lexer.TRUE:
		p.next()
		return &ast.BoolLit{Value: true, SpanVal: p.spanFrom(start)}

	case lexer.FALSE:
		p.next()
		return &ast.BoolLit{Value: false, SpanVal: p.spanFrom(start)}

	case lexer.NULL:
		p.next()
		return &ast.NullLit{SpanVal: p.spanFrom(start)}

	case lexer.IDENT:
		return p.parseIdentPrimary(start, allowStructLit)

	default:
		p.errorf(errors.PAR001, "unexpected token %q in expression", p.cur.Literal)
		lit := p.cur.Literal
		p.next()
		return &ast.Ident{Name: lit, SpanVal: p.spanFrom(start)}
	}
}

var numericSuffixes = []string{
	"isize", "usize",
	"i8", "i16", "i32", "i64",
	"u8", "u16", "u32", "u64",
	"f32", "f64",
}

func stripNumericSuffix(lit string) (body, suffix string) {
	for _, s := range numericSuffixes {
		if strings.HasSuffix(lit, s) && len(lit) > len(s) {
			return strings.TrimSuffix(lit, s), s
		}
	}
	return lit, ""
}

// parseIdentPrimary handles a bare identifier, a call, and a struct literal.
// `module.symbol` qualified access is lexically indistinguishable from a
// plain field access; it comes out as a FieldExpr chain here and the checker
// resolves it as a qualified access once it knows which names are module
// bindings.
func (p *Parser) parseIdentPrimary(start diag.Pos, allowStructLit bool) ast.Expr {
	name := p.cur.Literal
	p.next()

	if p.curIs(lexer.LPAREN) {
		id := ast.Expr(&ast.Ident{Name: name, SpanVal: p.spanFrom(start)})
		return p.parseCallSuffix(id, nil)
	}

	if allowStructLit && p.curIs(lexer.LBRACE) {
		return p.parseStructLitBody(name, nil, start)
	}

	return &ast.Ident{Name: name, SpanVal: p.spanFrom(start)}
}

func (p *Parser) parseStructLitBody(name string, typeArgs []ast.TypeNode, start diag.Pos) ast.Expr {
	p.next() // '{'
	lit := &ast.StructLit{TypeName: name, TypeArgs: typeArgs}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fname := p.cur.Literal
		p.expect(lexer.IDENT, "field name")
		p.expect(lexer.COLON, "':'")
		val := p.parseExpr(LOWEST)
		lit.Fields = append(lit.Fields, &ast.StructLitField{Name: fname, Value: val})
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE, "'}'")
	lit.SpanVal = p.spanFrom(start)
	return lit
}

func (p *Parser) intLit(lit string, start diag.Pos) ast.Expr {
	body, suffix := stripNumericSuffix(lit)
	n, err := strconv.ParseInt(body, 0, 64)
	if err != nil {
		p.errorf(errors.LEX004, "malformed numeric literal %q", lit)
	}
	return &ast.IntLit{Value: n, Suffix: suffix, SpanVal: p.spanFrom(start)}
}

func (p *Parser) floatLit(lit string, start diag.Pos) ast.Expr {
	body, suffix := stripNumericSuffix(lit)
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		p.errorf(errors.LEX004, "malformed numeric literal %q", lit)
	}
	return &ast.FloatLit{Value: f, Suffix: suffix, SpanVal: p.spanFrom(start)}
}
