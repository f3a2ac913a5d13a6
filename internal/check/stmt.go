package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/types"
)

// checkBlock checks every statement in order and reports unreachable code
// once a statement diverges (returns, throws, or breaks/continues
// unconditionally). It returns whether the block as a whole diverges.
func (c *Checker) checkBlock(fc *funcCtx, b *ast.BlockStmt) bool {
	child := &funcCtx{scope: fc.scope.NewChild(), fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag}
	diverged := false
	warned := false
	for _, s := range b.Stmts {
		if diverged && !warned {
			c.sink.Warnf(errors.SEM015, s.Span(), "unreachable code")
			warned = true
		}
		if c.checkStmt(child, s) {
			diverged = true
		}
	}
	return diverged
}

// checkStmt checks one statement and reports whether it diverges (never
// falls through to the next statement in its own block).
func (c *Checker) checkStmt(fc *funcCtx, s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.LetStmt:
		c.checkLetStmt(fc, n)
		return false
	case *ast.ExprStmt:
		c.checkExprStmt(fc, n.X)
		return false
	case *ast.AssignStmt:
		c.checkAssignStmt(fc, n)
		return false
	case *ast.IfStmt:
		return c.checkIfStmt(fc, n)
	case *ast.WhileStmt:
		c.checkExpr(fc, n.Cond)
		loopCtx := &funcCtx{scope: fc.scope, fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag + 1}
		c.checkBlock(loopCtx, n.Body)
		return false
	case *ast.ForStmt:
		return c.checkForStmt(fc, n)
	case *ast.SwitchStmt:
		return c.checkSwitchStmt(fc, n)
	case *ast.ReturnStmt:
		c.checkReturnStmt(fc, n)
		return true
	case *ast.BreakStmt, *ast.ContinueStmt:
		return true
	case *ast.ThrowStmt:
		c.checkThrowStmt(fc, n)
		return true
	case *ast.DeferStmt:
		c.checkStmt(fc, n.Stmt)
		return false
	case *ast.UnsafeStmt:
		unsafeScope := fc.scope.NewChild()
		unsafeScope.SetUnsafe()
		child := &funcCtx{scope: unsafeScope, fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag}
		return c.checkBlock(child, n.Body)
	default:
		return false
	}
}

func (c *Checker) checkLetStmt(fc *funcCtx, n *ast.LetStmt) {
	var valType *types.Type
	if n.Value != nil {
		valType = c.checkExpr(fc, n.Value)
	}
	var declType *types.Type
	if n.Type != nil {
		declType = c.typeFromNode(n.Type, fc.subst)
		if n.Value != nil && !c.assignableExpr(n.Value, valType, declType) {
			c.errorf(n.Span(), errors.SEM003, "cannot assign %s to %s", valType, declType)
		}
	} else {
		declType = valType
	}
	if !fc.scope.Define(types.NewVariable(n.Name, declType, !n.IsConst, n.IsConst)) {
		c.errorf(n.Span(), errors.SEM002, "%q is already declared in this scope", n.Name)
	}
}

func (c *Checker) checkExprStmt(fc *funcCtx, e ast.Expr) {
	if call, ok := e.(*ast.CallExpr); ok {
		c.checkCallExpr(fc, call, false)
		return
	}
	c.checkExpr(fc, e)
}

func (c *Checker) checkAssignStmt(fc *funcCtx, n *ast.AssignStmt) {
	targetType := c.checkExpr(fc, n.Target)
	if ident, ok := n.Target.(*ast.Ident); ok {
		if sym, ok := fc.scope.Lookup(ident.Name); ok && sym.Kind == types.SymVariable {
			if sym.IsConst {
				c.errorf(n.Span(), errors.SEM007, "cannot assign to const %q", ident.Name)
			}
		}
	}
	valType := c.checkExpr(fc, n.Value)
	if !c.assignableExpr(n.Value, valType, targetType) {
		c.errorf(n.Span(), errors.SEM003, "cannot assign %s to %s", valType, targetType)
	}
}

func (c *Checker) checkIfStmt(fc *funcCtx, n *ast.IfStmt) bool {
	c.checkExpr(fc, n.Cond)
	thenDiverges := c.checkBlock(fc, n.Then)
	if n.Else == nil {
		return false
	}
	switch e := n.Else.(type) {
	case *ast.BlockStmt:
		return thenDiverges && c.checkBlock(fc, e)
	case *ast.IfStmt:
		return thenDiverges && c.checkIfStmt(fc, e)
	default:
		return false
	}
}

func (c *Checker) checkForStmt(fc *funcCtx, n *ast.ForStmt) bool {
	startType := c.checkExpr(fc, n.Start)
	c.checkExpr(fc, n.End)
	loopScope := fc.scope.NewChild()
	loopScope.SetLoop()
	loopScope.Define(types.NewVariable(n.Name, startType, false, false))
	loopCtx := &funcCtx{scope: loopScope, fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag + 1}
	c.checkBlock(loopCtx, n.Body)
	return false
}

func (c *Checker) checkReturnStmt(fc *funcCtx, n *ast.ReturnStmt) {
	if n.Value == nil {
		if fc.fnType != nil && fc.fnType.Return.Kind != types.KVoid {
			c.errorf(n.Span(), errors.SEM003, "missing return value for non-void function")
		}
		return
	}
	valType := c.checkExpr(fc, n.Value)
	if fc.fnType == nil {
		return
	}
	if !c.assignableExpr(n.Value, valType, fc.fnType.Return) {
		c.errorf(n.Span(), errors.SEM003, "cannot return %s from a function returning %s", valType, fc.fnType.Return)
	}
}

func (c *Checker) checkThrowStmt(fc *funcCtx, n *ast.ThrowStmt) {
	valType := c.checkExpr(fc, n.Value)
	if fc.fnType == nil {
		return
	}
	for _, t := range fc.fnType.ThrowsTypes {
		if types.Equal(t, valType) {
			return
		}
	}
	c.errorf(n.Span(), errors.SEM006, "throw of %s is not declared in the enclosing function's throws list", valType)
}

// checkSwitchStmt checks a switch's subject and every case body, reporting
// non-exhaustiveness when the subject is an enum without a default arm.
func (c *Checker) checkSwitchStmt(fc *funcCtx, n *ast.SwitchStmt) bool {
	subjType := c.checkExpr(fc, n.Subject)
	hasDefault := false
	allDiverge := true
	covered := map[string]bool{}

	for _, cs := range n.Cases {
		if cs.IsDefault {
			hasDefault = true
		}
		caseScope := fc.scope.NewChild()
		caseCtx := &funcCtx{scope: caseScope, fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag}
		if len(cs.Binds) > 0 && subjType.Kind == types.KEnum {
			if variantName, ok := dataVariantName(cs); ok {
				covered[variantName] = true
				c.bindVariantFields(caseScope, subjType, variantName, cs.Binds)
			}
		} else {
			for _, v := range cs.Values {
				if ident, ok := v.(*ast.Ident); ok && subjType.Kind == types.KEnum {
					covered[ident.Name] = true
				}
				c.checkExpr(fc, v)
			}
		}
		if !c.checkBlock(caseCtx, cs.Body) {
			allDiverge = false
		}
	}

	if subjType.Kind == types.KEnum && !hasDefault {
		for _, v := range subjType.Variants {
			if !covered[v.Name] {
				c.errorf(n.Span(), errors.SEM004, "switch on %s does not handle variant %q", subjType.Name, v.Name)
			}
		}
	}
	if subjType.Kind != types.KEnum && !hasDefault {
		// Non-enum subjects have no finite variant universe; exhaustiveness
		// only applies with an explicit default, matching an open value space.
		return false
	}
	return allDiverge
}

func dataVariantName(cs *ast.SwitchCase) (string, bool) {
	if len(cs.Values) != 1 {
		return "", false
	}
	if ident, ok := cs.Values[0].(*ast.Ident); ok {
		return ident.Name, true
	}
	return "", false
}

func (c *Checker) bindVariantFields(scope *types.Scope, enumType *types.Type, variantName string, binds []string) {
	for _, v := range enumType.Variants {
		if v.Name != variantName {
			continue
		}
		for i, b := range binds {
			if i < len(v.Fields) {
				scope.Define(types.NewVariable(b, v.Fields[i], false, false))
			}
		}
	}
}
