package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/types"
)

// checkCallExpr types a call expression. wrapped reports whether this call
// is the direct operand of a CatchExpr; an unwrapped call to a throwing
// function is a SEM005 error right here, rather than being deferred to a
// later pending-obligations pass, since the checker already has full
// context at the call site. It returns only the call's result type;
// checkCallExprThrows also returns the throws types a CatchExpr needs to
// handle.
func (c *Checker) checkCallExpr(fc *funcCtx, n *ast.CallExpr, wrapped bool) *types.Type {
	t, _ := c.checkCallExprThrows(fc, n, wrapped)
	return t
}

func (c *Checker) checkCallExprThrows(fc *funcCtx, n *ast.CallExpr, wrapped bool) (*types.Type, []*types.Type) {
	switch fn := n.Func.(type) {
	case *ast.Ident:
		return c.checkIdentCall(fc, n, fn, wrapped)
	case *ast.FieldExpr:
		return c.checkMethodCall(fc, n, fn, wrapped)
	default:
		c.checkExpr(fc, n.Func)
		for _, a := range n.Args {
			c.checkExpr(fc, a)
		}
		return types.Err, nil
	}
}

func (c *Checker) checkIdentCall(fc *funcCtx, call *ast.CallExpr, fn *ast.Ident, wrapped bool) (*types.Type, []*types.Type) {
	argTypes := make([]*types.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = c.checkExpr(fc, a)
	}
	isLiteral := func(i int) bool { return isLiteralExpr(call.Args[i]) }

	if fn.Module != "" {
		sym, ok := c.lookupQualified(fn.Module, fn.Name, fn.Span())
		if !ok {
			return types.Err, nil
		}
		return c.resolveAndBindOverload(call, sym, argTypes, isLiteral, wrapped)
	}

	if gf, isGeneric := c.genericFuncs[fn.Name]; isGeneric {
		return c.checkGenericCall(fc, call, fn.Name, gf, argTypes, wrapped)
	}

	sym, ok := fc.scope.Lookup(fn.Name)
	if !ok {
		c.errorf(fn.Span(), errors.SEM001, "undeclared function %q", fn.Name)
		return types.Err, nil
	}
	return c.resolveAndBindOverload(call, sym, argTypes, isLiteral, wrapped)
}

func (c *Checker) resolveAndBindOverload(call *ast.CallExpr, sym *types.Symbol, argTypes []*types.Type, isLiteral types.ArgIsLiteral, wrapped bool) (*types.Type, []*types.Type) {
	if sym.Kind != types.SymFunction {
		c.errorf(call.Span(), errors.SEM003, "%q is not callable", sym.Name)
		return types.Err, nil
	}
	best, ambiguous, found := types.ResolveOverload(sym.Overloads, argTypes, isLiteral)
	if !found {
		c.errorf(call.Span(), errors.SEM011, "no matching overload of %q for the given argument types", sym.Name)
		return types.Err, nil
	}
	if ambiguous {
		c.errorf(call.Span(), errors.SEM012, "ambiguous call to %q", sym.Name)
	}
	c.ann.GenericMangled[call] = best.Mangled
	c.checkThrowsObligation(call, best.Sig.ThrowsTypes, wrapped)
	return best.Sig.Return, best.Sig.ThrowsTypes
}

func (c *Checker) checkThrowsObligation(call ast.Expr, throws []*types.Type, wrapped bool) {
	if len(throws) == 0 || wrapped {
		return
	}
	c.errorf(call.Span(), errors.SEM005, "call may throw and must be wrapped in a catch expression")
}

func (c *Checker) checkMethodCall(fc *funcCtx, call *ast.CallExpr, fn *ast.FieldExpr, wrapped bool) (*types.Type, []*types.Type) {
	// `module.fn(...)` parses identically to a struct method call (FieldExpr
	// as the callee) since the parser has no notion of which bare names are
	// modules; resolve that ambiguity here before falling into struct dispatch.
	if ident, ok := fn.X.(*ast.Ident); ok && ident.Module == "" {
		if sym, ok := fc.scope.Lookup(ident.Name); ok && sym.Kind == types.SymModule {
			argTypes := make([]*types.Type, len(call.Args))
			for i, a := range call.Args {
				argTypes[i] = c.checkExpr(fc, a)
			}
			isLiteral := func(i int) bool { return isLiteralExpr(call.Args[i]) }
			calleeSym, ok := c.lookupQualified(sym.Name, fn.Field, fn.Span())
			if !ok {
				return types.Err, nil
			}
			return c.resolveAndBindOverload(call, calleeSym, argTypes, isLiteral, wrapped)
		}
	}

	baseType := c.checkExpr(fc, fn.X)
	if baseType.Kind == types.KPtr {
		baseType = baseType.Elem
	}
	if baseType.Kind != types.KStruct {
		c.errorf(fn.Span(), errors.SEM001, "no method %q on %s", fn.Field, baseType)
		for _, a := range call.Args {
			c.checkExpr(fc, a)
		}
		return types.Err, nil
	}
	method, ok := baseType.Methods[fn.Field]
	if !ok {
		c.errorf(fn.Span(), errors.SEM001, "%s has no method %q", baseType.Name, fn.Field)
		for _, a := range call.Args {
			c.checkExpr(fc, a)
		}
		return types.Err, nil
	}
	params := method.Params
	if len(params) > 0 && params[0].Name == "self" {
		params = params[1:]
	}
	if len(call.Args) != len(params) {
		c.errorf(call.Span(), errors.SEM010, "%s.%s expects %d argument(s), got %d", baseType.Name, fn.Field, len(params), len(call.Args))
	}
	for i, a := range call.Args {
		t := c.checkExpr(fc, a)
		if i < len(params) && !c.assignableExpr(a, t, params[i].Type) {
			c.errorf(a.Span(), errors.SEM003, "argument %d: cannot assign %s to %s", i+1, t, params[i].Type)
		}
	}
	mangled := baseType.Name + "_" + fn.Field
	c.ann.GenericMangled[call] = mangled
	c.ann.MethodSelf[call] = true
	c.checkThrowsObligation(call, method.ThrowsTypes, wrapped)
	return method.Return, method.ThrowsTypes
}

// checkGenericCall infers type arguments (explicit or by unifying argument
// types against the generic declaration's parameter types), then checks the
// instantiation's body in the substituted context on first use.
func (c *Checker) checkGenericCall(fc *funcCtx, call *ast.CallExpr, name string, gf *genericFunc, argTypes []*types.Type, wrapped bool) (*types.Type, []*types.Type) {
	decl := gf.decl
	subst := map[string]*types.Type{}
	if len(call.TypeArgs) > 0 {
		for i, tp := range decl.TypeParams {
			if i < len(call.TypeArgs) {
				subst[tp] = c.typeFromNode(call.TypeArgs[i], fc.subst)
			}
		}
	} else {
		for i, p := range decl.Params {
			if i >= len(argTypes) {
				break
			}
			if named, ok := p.Type.(*ast.NamedType); ok {
				if isTypeParam(decl.TypeParams, named.Name) {
					subst[named.Name] = argTypes[i]
				}
			}
		}
	}
	for _, tp := range decl.TypeParams {
		if _, ok := subst[tp]; !ok {
			c.errorf(call.Span(), errors.SEM016, "could not infer type argument %q for %q", tp, name)
			return types.Err, nil
		}
	}

	args := make([]*types.Type, len(decl.TypeParams))
	for i, tp := range decl.TypeParams {
		args[i] = subst[tp]
	}
	mangled := types.MonomorphizationName(name, args)
	c.ann.Monomorphizations[mangled] = &Monomorphization{Generic: name, Args: args, Mangled: mangled}
	c.ann.GenericMangled[call] = mangled

	sig := c.funcSigType(decl, subst)
	c.ann.FuncSigs[mangled] = sig
	c.ann.Bodies[mangled] = decl
	for i, a := range call.Args {
		if i < len(sig.Params) && !c.assignableExpr(a, argTypes[i], sig.Params[i].Type) {
			c.errorf(a.Span(), errors.SEM003, "argument %d: cannot assign %s to %s", i+1, argTypes[i], sig.Params[i].Type)
		}
	}
	c.checkThrowsObligation(call, sig.ThrowsTypes, wrapped)

	if !c.ann.OverloadedNames["__mono__"+mangled] {
		c.ann.OverloadedNames["__mono__"+mangled] = true
		c.checkFuncDecl(gf.scope, decl, subst, mangled)
	}
	return sig.Return, sig.ThrowsTypes
}

func isTypeParam(params []string, name string) bool {
	for _, p := range params {
		if p == name {
			return true
		}
	}
	return false
}
