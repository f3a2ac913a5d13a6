package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/types"
)

// checkExpr types an expression, recording its type in the annotation map
// and returning types.Err (never nil) on any unresolvable construct so
// callers can keep checking without special-casing failure.
func (c *Checker) checkExpr(fc *funcCtx, e ast.Expr) *types.Type {
	t := c.checkExprInner(fc, e)
	if t == nil {
		t = types.Err
	}
	c.ann.ExprTypes[e] = t
	return t
}

func (c *Checker) checkExprInner(fc *funcCtx, e ast.Expr) *types.Type {
	switch n := e.(type) {
	case *ast.IntLit:
		if n.Suffix == "" {
			return types.I32
		}
		if t, ok := types.Primitives[n.Suffix]; ok {
			return t
		}
		return types.I32
	case *ast.FloatLit:
		if n.Suffix == "f32" {
			return types.F32
		}
		return types.F64
	case *ast.StringLit:
		return types.Str
	case *ast.BoolLit:
		return types.Bool
	case *ast.NullLit:
		return types.Null
	case *ast.Ident:
		return c.checkIdent(fc, n)
	case *ast.ArrayLit:
		return c.checkArrayLit(fc, n)
	case *ast.StructLit:
		return c.checkStructLit(fc, n)
	case *ast.BinaryExpr:
		return c.checkBinaryExpr(fc, n)
	case *ast.UnaryExpr:
		return c.checkUnaryExpr(fc, n)
	case *ast.CallExpr:
		return c.checkCallExpr(fc, n, false)
	case *ast.FieldExpr:
		return c.checkFieldExpr(fc, n)
	case *ast.IndexExpr:
		return c.checkIndexExpr(fc, n)
	case *ast.CastExpr:
		c.checkExpr(fc, n.X)
		return c.typeFromNode(n.Type, fc.subst)
	case *ast.SizeofExpr:
		c.ann.SizeofTypes[n] = c.typeFromNode(n.Type, fc.subst)
		return types.USize
	case *ast.MoveExpr:
		return c.checkExpr(fc, n.X)
	case *ast.CatchExpr:
		return c.checkCatchExpr(fc, n)
	case *ast.BlockExpr:
		return c.checkBlockExpr(fc, n)
	default:
		return types.Err
	}
}

func (c *Checker) checkIdent(fc *funcCtx, n *ast.Ident) *types.Type {
	if n.Module != "" {
		sym, ok := c.lookupQualified(n.Module, n.Name, n.Span())
		if !ok {
			return types.Err
		}
		return symbolType(sym)
	}
	sym, ok := fc.scope.Lookup(n.Name)
	if !ok {
		if t, ok := types.Primitives[n.Name]; ok {
			return t
		}
		c.errorf(n.Span(), errors.SEM001, "undeclared name %q", n.Name)
		return types.Err
	}
	return symbolType(sym)
}

func symbolType(sym *types.Symbol) *types.Type {
	switch sym.Kind {
	case types.SymVariable:
		return sym.VarType
	case types.SymFunction:
		if len(sym.Overloads) == 1 {
			return sym.Overloads[0].Sig
		}
		return types.Err
	case types.SymType:
		return sym.Type
	case types.SymModule:
		return types.Module(sym.Name)
	default:
		return types.Err
	}
}

func (c *Checker) checkArrayLit(fc *funcCtx, n *ast.ArrayLit) *types.Type {
	if len(n.Elements) == 0 {
		c.errorf(n.Span(), errors.SEM013, "empty array literal")
		return types.Err
	}
	elemType := c.checkExpr(fc, n.Elements[0])
	for _, el := range n.Elements[1:] {
		t := c.checkExpr(fc, el)
		if !c.assignableExpr(el, t, elemType) {
			c.errorf(el.Span(), errors.SEM003, "array element type %s does not match %s", t, elemType)
		}
	}
	return types.Array(elemType, int64(len(n.Elements)))
}

func (c *Checker) checkStructLit(fc *funcCtx, n *ast.StructLit) *types.Type {
	stub, ok := c.structTypes[n.TypeName]
	if !ok {
		c.errorf(n.Span(), errors.SEM001, "undeclared struct type %q", n.TypeName)
		for _, f := range n.Fields {
			c.checkExpr(fc, f.Value)
		}
		return types.Err
	}

	st := stub
	if len(n.TypeArgs) > 0 {
		named := &ast.NamedType{Name: n.TypeName, Args: n.TypeArgs, SpanVal: n.SpanVal}
		st = c.instantiateIfGeneric(named, stub, fc.subst)
		c.ann.GenericMangled[n] = st.Name
	}

	seen := map[string]bool{}
	for _, f := range n.Fields {
		valType := c.checkExpr(fc, f.Value)
		seen[f.Name] = true
		fieldType, ok := structFieldType(st, f.Name)
		if !ok {
			c.errorf(n.Span(), errors.SEM001, "%s has no field %q", st.Name, f.Name)
			continue
		}
		if !c.assignableExpr(f.Value, valType, fieldType) {
			c.errorf(n.Span(), errors.SEM003, "field %q: cannot assign %s to %s", f.Name, valType, fieldType)
		}
	}
	return st
}

func structFieldType(st *types.Type, name string) (*types.Type, bool) {
	for _, f := range st.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

func (c *Checker) checkFieldExpr(fc *funcCtx, n *ast.FieldExpr) *types.Type {
	baseType := c.checkExpr(fc, n.X)
	if baseType.Kind == types.KPtr {
		baseType = baseType.Elem
	}
	switch baseType.Kind {
	case types.KStruct:
		if t, ok := structFieldType(baseType, n.Field); ok {
			return t
		}
		if n.Field == "len" {
			return types.USize
		}
		c.errorf(n.Span(), errors.SEM001, "%s has no field %q", baseType.Name, n.Field)
		return types.Err
	case types.KArray, types.KSlice:
		if n.Field == "len" {
			return types.USize
		}
		c.errorf(n.Span(), errors.SEM001, "no field %q on %s", n.Field, baseType)
		return types.Err
	case types.KModule:
		sym, ok := c.lookupQualified(baseType.Name, n.Field, n.Span())
		if !ok {
			return types.Err
		}
		return symbolType(sym)
	default:
		c.errorf(n.Span(), errors.SEM001, "no field %q on %s", n.Field, baseType)
		return types.Err
	}
}

func (c *Checker) checkIndexExpr(fc *funcCtx, n *ast.IndexExpr) *types.Type {
	baseType := c.checkExpr(fc, n.X)
	idxType := c.checkExpr(fc, n.Index)
	if baseType.Kind == types.KStruct {
		if meth, ok := baseType.Methods["op_index"]; ok {
			c.ann.OpBindings[n] = OpBinding{Method: "op_index", StructType: baseType}
			return meth.Return
		}
	}
	if !idxType.IsNumeric() {
		c.errorf(n.Span(), errors.SEM003, "index must be an integer, got %s", idxType)
	}
	switch baseType.Kind {
	case types.KArray, types.KSlice:
		return baseType.Elem
	default:
		c.errorf(n.Span(), errors.SEM003, "cannot index %s", baseType)
		return types.Err
	}
}

func (c *Checker) checkBlockExpr(fc *funcCtx, n *ast.BlockExpr) *types.Type {
	var last *types.Type = types.Void
	child := &funcCtx{scope: fc.scope.NewChild(), fnType: fc.fnType, mangled: fc.mangled, subst: fc.subst, loopTag: fc.loopTag}
	for i, s := range n.Block.Stmts {
		if i == len(n.Block.Stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				last = c.checkExpr(child, es.X)
				continue
			}
		}
		c.checkStmt(child, s)
	}
	return last
}
