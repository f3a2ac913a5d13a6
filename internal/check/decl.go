package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/resolve"
	"github.com/keilang/kei/internal/types"
)

// funcCtx carries the per-function state threaded through statement/
// expression checking: the current lexical scope, the enclosing function's
// signature, its mangled name (for the throws-annotation map), and (inside a
// generic instantiation) the type-parameter substitution in effect.
type funcCtx struct {
	scope   *types.Scope
	fnType  *types.Type
	mangled string
	subst   map[string]*types.Type
	loopTag int
}

// registerModule is pass 1: install every top-level declaration's type
// skeleton into the module's global scope, including struct/enum stubs
// filled in a second sub-pass so same-module forward references resolve.
// Exports are collected from that skeleton and published before imports are
// resolved, so a module processed later in the resolver's topological order
// can see an earlier module's pub symbols.
func (c *Checker) registerModule(m *resolve.Module) {
	scope := types.NewGlobalScope()
	c.moduleScopes[m.Name] = scope

	for _, d := range m.File.Decls {
		switch n := d.(type) {
		case *ast.StructDecl:
			st := &types.Type{Kind: types.KStruct, Name: n.Name}
			c.structTypes[n.Name] = st
			if len(n.TypeParams) > 0 {
				c.genericStrs[n.Name] = n
			}
		case *ast.EnumDecl:
			c.enumTypes[n.Name] = &types.Type{Kind: types.KEnum, Name: n.Name}
		}
	}

	for _, d := range m.File.Decls {
		switch n := d.(type) {
		case *ast.StructDecl:
			c.registerStructFields(n)
		case *ast.EnumDecl:
			c.registerEnum(n)
		case *ast.FuncDecl:
			c.registerFunc(scope, n, "")
		case *ast.ExternDecl:
			c.registerExtern(scope, n)
		case *ast.GlobalDecl:
			c.registerGlobal(scope, n)
		}
	}

	c.exports[m.Name] = c.collectExports(m)
	c.resolveImports(m, scope)
}

func (c *Checker) resolveImports(m *resolve.Module, scope *types.Scope) {
	for _, imp := range m.File.Imports {
		exp, ok := c.exports[imp.Path]
		if !ok {
			continue // resolver already guarantees the dependency was registered first
		}
		if len(imp.Symbols) == 0 {
			modSym := types.NewModule(imp.Path)
			modSym.Exports = exp
			scope.Define(modSym)
			continue
		}
		for _, sym := range imp.Symbols {
			s, ok := exp[sym]
			if !ok {
				c.errorf(imp.Span(), errors.RES003, "%q is not exported by module %q", sym, imp.Path)
				continue
			}
			scope.Define(s)
		}
	}
}

func (c *Checker) registerStructFields(n *ast.StructDecl) {
	st := c.structTypes[n.Name]
	if len(n.TypeParams) > 0 {
		return // generic field types are resolved per-instantiation, not here
	}
	subst := emptySubst()
	for _, f := range n.Fields {
		st.Fields = append(st.Fields, types.Field{Name: f.Name, Type: c.typeFromNode(f.Type, subst)})
	}
	for _, meth := range n.Methods {
		if meth.Name == "__destroy" {
			st.HasDtor = true
		}
		if meth.Name == "__oncopy" {
			st.HasOnCopy = true
		}
	}
	if st.Methods == nil {
		st.Methods = map[string]*types.Type{}
	}
	for _, meth := range n.Methods {
		fnType := c.funcSigType(meth, subst)
		st.Methods[meth.Name] = fnType
	}
}

func (c *Checker) registerEnum(n *ast.EnumDecl) {
	et := c.enumTypes[n.Name]
	base := types.I32
	if n.BaseType != nil {
		base = c.typeFromNode(n.BaseType, emptySubst())
	}
	et.BaseType = base
	var next int64
	for _, v := range n.Variants {
		val := next
		explicit := v.Value != nil
		if lit, ok := v.Value.(*ast.IntLit); ok {
			val = lit.Value
		}
		var fields []*types.Type
		for _, ft := range v.Fields {
			fields = append(fields, c.typeFromNode(ft, emptySubst()))
		}
		ev := types.EnumVariant{Name: v.Name, Fields: fields}
		if explicit {
			vv := val
			ev.Value = &vv
		}
		et.Variants = append(et.Variants, ev)
		next = val + 1
	}
}

func (c *Checker) funcSigType(n *ast.FuncDecl, subst map[string]*types.Type) *types.Type {
	params := make([]types.Param, len(n.Params))
	for i, p := range n.Params {
		params[i] = types.Param{Name: p.Name, Type: c.typeFromNode(p.Type, subst), IsMut: p.IsMut, IsMove: p.IsMove}
	}
	ret := types.Void
	if n.ReturnType != nil {
		ret = c.typeFromNode(n.ReturnType, subst)
	}
	var throws []*types.Type
	for _, tn := range n.Throws {
		if t, ok := c.structTypes[tn]; ok {
			throws = append(throws, t)
		}
	}
	return &types.Type{Kind: types.KFunction, Params: params, Return: ret, ThrowsTypes: throws}
}

func (c *Checker) registerFunc(scope *types.Scope, n *ast.FuncDecl, mangledPrefix string) {
	if len(n.TypeParams) > 0 {
		c.genericFuncs[n.Name] = &genericFunc{decl: n, scope: scope}
		return // generic bodies are checked per-instantiation, not here
	}
	sig := c.funcSigType(n, emptySubst())
	sym, exists := scope.LookupLocal(n.Name)
	if !exists {
		sym = &types.Symbol{Kind: types.SymFunction, Name: n.Name}
		scope.Define(sym)
	}
	mangled := mangledPrefix + n.Name
	if len(sym.Overloads) > 0 {
		mangled = types.Mangle(mangledPrefix+n.Name, sig.Params)
		c.ann.OverloadedNames[n.Name] = true
	}
	ov := &types.Overload{Sig: sig, Mangled: mangled, BodyRef: n, IsExtern: n.IsExtern}
	if !sym.AddOverload(ov) {
		c.errorf(n.Span(), errors.SEM002, "duplicate overload of %q with the same parameter types", n.Name)
		return
	}
	c.ann.FuncThrows[mangled] = sig.ThrowsTypes
	c.ann.FuncSigs[mangled] = sig
	c.ann.Bodies[mangled] = n
}

func (c *Checker) registerExtern(scope *types.Scope, n *ast.ExternDecl) {
	if n.IsVar {
		t := c.typeFromNode(n.VarType, emptySubst())
		scope.Define(types.NewVariable(n.Name, t, true, false))
		c.ann.ExternVarTypes[n.Name] = t
		return
	}
	params := make([]types.Param, len(n.Params))
	for i, p := range n.Params {
		params[i] = types.Param{Name: p.Name, Type: c.typeFromNode(p.Type, emptySubst())}
	}
	ret := types.Void
	if n.ReturnType != nil {
		ret = c.typeFromNode(n.ReturnType, emptySubst())
	}
	sig := &types.Type{Kind: types.KFunction, Params: params, Return: ret}
	sym := &types.Symbol{Kind: types.SymFunction, Name: n.Name}
	sym.AddOverload(&types.Overload{Sig: sig, Mangled: n.Name, IsExtern: true})
	scope.Define(sym)
	c.ann.FuncSigs[n.Name] = sig
}

func (c *Checker) registerGlobal(scope *types.Scope, n *ast.GlobalDecl) {
	var t *types.Type
	if n.Type != nil {
		t = c.typeFromNode(n.Type, emptySubst())
	} else {
		t = types.Err // filled precisely during the check pass once the initializer is checked
	}
	scope.Define(types.NewVariable(n.Name, t, !n.IsConst, n.IsConst))
}

// checkModule is pass 2: check every declaration's body against the
// registered skeletons, using module-scoped imports resolved in pass 1.
func (c *Checker) checkModule(m *resolve.Module) {
	scope := c.moduleScopes[m.Name]
	for _, d := range m.File.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			if len(n.TypeParams) == 0 {
				c.checkFuncDecl(scope, n, emptySubst(), n.Name)
			}
		case *ast.StructDecl:
			if len(n.TypeParams) == 0 {
				for _, meth := range n.Methods {
					c.checkMethod(scope, n, meth)
				}
			}
		case *ast.GlobalDecl:
			c.checkGlobalDecl(scope, n)
		}
	}
}

func (c *Checker) checkGlobalDecl(scope *types.Scope, n *ast.GlobalDecl) {
	fc := &funcCtx{scope: scope, subst: emptySubst()}
	var valType *types.Type
	if n.Value != nil {
		valType = c.checkExpr(fc, n.Value)
	}
	sym, _ := scope.LookupLocal(n.Name)
	if n.Type == nil {
		sym.VarType = valType
	} else if n.Value != nil && !c.assignableExpr(n.Value, valType, sym.VarType) {
		c.errorf(n.Span(), errors.SEM003, "cannot assign %s to %s", valType, sym.VarType)
	}
}

func (c *Checker) checkMethod(scope *types.Scope, sd *ast.StructDecl, meth *ast.FuncDecl) {
	st := c.structTypes[sd.Name]
	mangled := sd.Name + "_" + meth.Name
	c.ann.FuncSigs[mangled] = st.Methods[meth.Name]
	c.ann.Bodies[mangled] = meth
	c.checkFuncDecl(scope, meth, emptySubst(), mangled)
}

func (c *Checker) checkFuncDecl(scope *types.Scope, n *ast.FuncDecl, subst map[string]*types.Type, mangled string) {
	if n.IsExtern || n.Body == nil {
		return
	}
	fnType := c.funcSigType(n, subst)
	fnScope := scope.NewChild()
	fnScope.SetFunctionContext(fnType)
	for i, p := range n.Params {
		fnScope.Define(types.NewVariable(p.Name, fnType.Params[i].Type, p.IsMut, false))
	}
	fc := &funcCtx{scope: fnScope, fnType: fnType, mangled: mangled, subst: subst}
	returns := c.checkBlock(fc, n.Body)
	if fnType.Return.Kind != types.KVoid && !returns {
		c.errorf(n.Span(), errors.SEM009, "function %q does not return on all paths", n.Name)
	}
}

func (c *Checker) assignableExpr(valueExpr ast.Expr, source, target *types.Type) bool {
	if types.Assignable(source, target) {
		return true
	}
	if isLiteralExpr(valueExpr) {
		return assignableLiteralValue(valueExpr, source, target)
	}
	return false
}

func isLiteralExpr(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit, *ast.NullLit:
		return true
	case *ast.UnaryExpr:
		return n.Op == "-" && isLiteralExpr(n.X)
	default:
		return false
	}
}

func assignableLiteralValue(e ast.Expr, source, target *types.Type) bool {
	switch lit := e.(type) {
	case *ast.IntLit:
		if target.Kind == types.KInt {
			return types.IntFitsLiteral(lit.Value, target)
		}
		return target.Kind == types.KFloat
	case *ast.FloatLit:
		return target.Kind == types.KFloat
	case *ast.UnaryExpr:
		if lit.Op != "-" {
			return false
		}
		switch x := lit.X.(type) {
		case *ast.IntLit:
			if target.Kind == types.KInt {
				return types.IntFitsLiteral(-x.Value, target)
			}
			return target.Kind == types.KFloat
		case *ast.FloatLit:
			return target.Kind == types.KFloat
		default:
			return false
		}
	default:
		return false
	}
}
