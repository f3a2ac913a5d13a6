package check

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/types"
)

// typeFromNode resolves a surface TypeNode to a checker Type. subst maps
// in-scope generic parameter names to their concrete (or TypeParam skeleton)
// type, used both while registering a generic declaration and while checking
// a monomorphized instantiation.
func (c *Checker) typeFromNode(tn ast.TypeNode, subst map[string]*types.Type) *types.Type {
	if tn == nil {
		return types.Void
	}
	switch n := tn.(type) {
	case *ast.NamedType:
		if t, ok := subst[n.Name]; ok {
			return t
		}
		if t, ok := types.Primitives[n.Name]; ok {
			return t
		}
		if t, ok := c.structTypes[n.Name]; ok {
			return c.instantiateIfGeneric(n, t, subst)
		}
		if t, ok := c.enumTypes[n.Name]; ok {
			return t
		}
		c.errorf(n.Span(), errors.SEM001, "undeclared type %q", n.Name)
		return types.Err
	case *ast.PtrType:
		return types.Ptr(c.typeFromNode(n.Elem, subst))
	case *ast.ArrayType:
		return types.Array(c.typeFromNode(n.Elem, subst), n.Length)
	case *ast.SliceType:
		return types.Slice(c.typeFromNode(n.Elem, subst))
	default:
		return types.Err
	}
}

// instantiateIfGeneric monomorphizes a generic struct reference named with
// explicit type args (Box[i32]) against its stub declaration, memoizing the
// result by mangled name.
func (c *Checker) instantiateIfGeneric(n *ast.NamedType, stub *types.Type, subst map[string]*types.Type) *types.Type {
	decl, isGeneric := c.genericStrs[n.Name]
	if !isGeneric || len(n.Args) == 0 {
		return stub
	}
	args := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		args[i] = c.typeFromNode(a, subst)
	}
	mangled := types.MonomorphizationName(n.Name, args)
	if existing, ok := c.structTypes[mangled]; ok {
		return existing
	}
	localSubst := map[string]*types.Type{}
	for i, p := range decl.TypeParams {
		if i < len(args) {
			localSubst[p] = args[i]
		}
	}
	concrete := &types.Type{Kind: types.KStruct, Name: mangled}
	c.structTypes[mangled] = concrete // stub installed before field resolution to allow self-reference
	for _, f := range decl.Fields {
		concrete.Fields = append(concrete.Fields, types.Field{Name: f.Name, Type: c.typeFromNode(f.Type, localSubst)})
	}
	c.ann.Monomorphizations[mangled] = &Monomorphization{Generic: n.Name, Args: args, Mangled: mangled}
	return concrete
}

func emptySubst() map[string]*types.Type { return map[string]*types.Type{} }
