package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/types"
)

// checkCatchExpr checks one of the three forms that may wrap a throwing
// call per spec.md §4.3: `catch panic` (always legal), `catch throw`
// (legal only inside a function that itself declares throws, and only
// when every callee throws type is already in the caller's own throws
// list), and `catch { clauses }` (every callee throws type must be
// covered by a clause, unless a default clause is present).
func (c *Checker) checkCatchExpr(fc *funcCtx, n *ast.CatchExpr) *types.Type {
	call, ok := n.Call.(*ast.CallExpr)
	if !ok {
		c.errorf(n.Span(), errors.SEM006, "catch may only wrap a call expression")
		return c.checkExpr(fc, n.Call)
	}

	valType, throws := c.checkCallExprThrows(fc, call, true)
	c.ann.ExprTypes[call] = valType

	switch n.Kind {
	case ast.CatchPanic:
		// any throwing call may be downgraded to a panic unconditionally
	case ast.CatchThrow:
		c.checkCatchThrow(n, fc, throws)
	case ast.CatchClauses:
		c.checkCatchClauses(n, fc, throws)
	}
	return valType
}

func (c *Checker) checkCatchThrow(n *ast.CatchExpr, fc *funcCtx, throws []*types.Type) {
	if fc.fnType == nil || len(fc.fnType.ThrowsTypes) == 0 {
		c.errorf(n.Span(), errors.SEM006, "catch throw is only legal inside a function that itself declares throws")
		return
	}
	for _, t := range throws {
		if !throwsListContains(fc.fnType.ThrowsTypes, t) {
			c.errorf(n.Span(), errors.SEM006, "%s is not in this function's throws list and cannot be rethrown", t)
		}
	}
}

func (c *Checker) checkCatchClauses(n *ast.CatchExpr, fc *funcCtx, throws []*types.Type) {
	hasDefault := false
	covered := map[string]bool{}
	for _, cl := range n.Clauses {
		if cl.IsDefault {
			hasDefault = true
			continue
		}
		errType, ok := c.structTypes[cl.Type]
		if !ok {
			c.errorf(cl.SpanVal, errors.SEM001, "undeclared error type %q", cl.Type)
			continue
		}
		covered[cl.Type] = true
		clauseScope := fc.scope.NewChild()
		if cl.BindName != "" {
			clauseScope.Define(types.NewVariable(cl.BindName, errType, false, false))
		}
		clauseFc := &funcCtx{scope: clauseScope, fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag}
		c.checkBlock(clauseFc, cl.Body)
	}
	if hasDefault {
		defaultScope := fc.scope.NewChild()
		for _, cl := range n.Clauses {
			if !cl.IsDefault {
				continue
			}
			defaultFc := &funcCtx{scope: defaultScope, fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag}
			c.checkBlock(defaultFc, cl.Body)
		}
		return
	}
	for _, t := range throws {
		if !covered[t.Name] {
			c.errorf(n.Span(), errors.SEM004, "catch does not cover throws type %s", t.Name)
		}
	}
}

func throwsListContains(list []*types.Type, t *types.Type) bool {
	for _, x := range list {
		if types.Equal(x, t) {
			return true
		}
	}
	return false
}
