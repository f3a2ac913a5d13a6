package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/types"
)

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
var logicalOps = map[string]bool{"&&": true, "||": true}

func (c *Checker) checkBinaryExpr(fc *funcCtx, n *ast.BinaryExpr) *types.Type {
	lt := c.checkExpr(fc, n.Left)
	rt := c.checkExpr(fc, n.Right)

	if logicalOps[n.Op] {
		if lt.Kind != types.KBool || rt.Kind != types.KBool {
			c.errorf(n.Span(), errors.SEM003, "%s requires bool operands, got %s and %s", n.Op, lt, rt)
		}
		return types.Bool
	}

	if lt.Kind == types.KStruct {
		if method, ok := lt.Methods[types.OperatorMethodName[n.Op]]; ok {
			c.ann.OpBindings[n] = OpBinding{Method: types.OperatorMethodName[n.Op], StructType: lt}
			return method.Return
		}
		if comparisonOps[n.Op] && (n.Op == "==" || n.Op == "!=") {
			return types.Bool // structural field-wise comparison; no explicit op_eq binding needed
		}
		c.errorf(n.Span(), errors.SEM003, "%s has no %s operator", lt.Name, n.Op)
		return types.Err
	}

	if comparisonOps[n.Op] {
		if !types.Equal(lt, rt) && !(lt.IsNumeric() && rt.IsNumeric()) {
			c.errorf(n.Span(), errors.SEM003, "cannot compare %s and %s", lt, rt)
		}
		return types.Bool
	}

	if !lt.IsNumeric() || !rt.IsNumeric() {
		c.errorf(n.Span(), errors.SEM003, "%s requires numeric operands, got %s and %s", n.Op, lt, rt)
		return types.Err
	}
	if !types.Equal(lt, rt) {
		c.errorf(n.Span(), errors.SEM003, "operand type mismatch: %s vs %s", lt, rt)
	}
	return lt
}

func (c *Checker) checkUnaryExpr(fc *funcCtx, n *ast.UnaryExpr) *types.Type {
	xt := c.checkExpr(fc, n.X)
	if xt.Kind == types.KStruct {
		if method, ok := xt.Methods[types.UnaryOperatorMethodName[n.Op]]; ok {
			c.ann.OpBindings[n] = OpBinding{Method: types.UnaryOperatorMethodName[n.Op], StructType: xt}
			return method.Return
		}
		c.errorf(n.Span(), errors.SEM003, "%s has no %s operator", xt.Name, n.Op)
		return types.Err
	}
	switch n.Op {
	case "!":
		if xt.Kind != types.KBool {
			c.errorf(n.Span(), errors.SEM003, "! requires a bool operand, got %s", xt)
		}
		return types.Bool
	case "-":
		if !xt.IsNumeric() {
			c.errorf(n.Span(), errors.SEM003, "unary - requires a numeric operand, got %s", xt)
		}
		return xt
	case "~":
		if xt.Kind != types.KInt {
			c.errorf(n.Span(), errors.SEM003, "~ requires an integer operand, got %s", xt)
		}
		return xt
	default:
		return types.Err
	}
}
