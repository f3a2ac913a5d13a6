package lower

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/check"
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// lowerExpr lowers one expression to the VarId holding its value. Struct-
// and enum-typed "values" are, throughout this package, the VarId of their
// storage address rather than a loaded register value, mirroring how a
// method receives `self` by address; real field-wise copies happen only at
// the two points that create new storage (let bindings, assignment).
func (fl *funcLower) lowerExpr(e ast.Expr) kir.VarId {
	switch n := e.(type) {
	case *ast.IntLit:
		v := fl.newVar()
		fl.emit(&kir.ConstInt{DestVar: v, Type: fl.ann.ExprTypes[n], Value: n.Value})
		return v
	case *ast.FloatLit:
		v := fl.newVar()
		fl.emit(&kir.ConstFloat{DestVar: v, Type: fl.ann.ExprTypes[n], Value: n.Value})
		return v
	case *ast.BoolLit:
		v := fl.newVar()
		fl.emit(&kir.ConstBool{DestVar: v, Value: n.Value})
		return v
	case *ast.StringLit:
		v := fl.newVar()
		fl.emit(&kir.ConstString{DestVar: v, Value: n.Value})
		return v
	case *ast.NullLit:
		v := fl.newVar()
		fl.emit(&kir.ConstNull{DestVar: v, Type: fl.ann.ExprTypes[n]})
		return v
	case *ast.Ident:
		return fl.lowerIdent(n)
	case *ast.ArrayLit:
		return fl.lowerArrayLit(n)
	case *ast.StructLit:
		st := fl.ann.ExprTypes[n]
		ptr := fl.newVar()
		fl.emit(&kir.StackAlloc{DestVar: ptr, Type: st})
		fl.fillStructLitFields(ptr, n, st)
		return ptr
	case *ast.BinaryExpr:
		return fl.lowerBinaryExpr(n)
	case *ast.UnaryExpr:
		return fl.lowerUnaryExpr(n)
	case *ast.CallExpr:
		return fl.lowerCallExpr(n)
	case *ast.FieldExpr:
		return fl.lowerFieldExpr(n)
	case *ast.IndexExpr:
		return fl.lowerIndexExpr(n)
	case *ast.CastExpr:
		v := fl.lowerExpr(n.X)
		d := fl.newVar()
		fl.emit(&kir.Cast{DestVar: d, Value: v, Target: fl.ann.ExprTypes[n]})
		return d
	case *ast.SizeofExpr:
		d := fl.newVar()
		fl.emit(&kir.Sizeof{DestVar: d, Type: fl.ann.SizeofTypes[n]})
		return d
	case *ast.MoveExpr:
		return fl.lowerMoveExpr(n)
	case *ast.CatchExpr:
		return fl.lowerCatchExpr(n)
	case *ast.BlockExpr:
		return fl.lowerBlockExpr(n)
	default:
		return 0
	}
}

func (fl *funcLower) lowerIdent(n *ast.Ident) kir.VarId {
	t := fl.ann.ExprTypes[n]
	if lv, ok := fl.locals[n.Name]; ok {
		if t.Kind == types.KStruct {
			return lv.ptr
		}
		v := fl.newVar()
		fl.emit(&kir.Load{DestVar: v, Ptr: lv.ptr, Type: t})
		return v
	}
	// a module-scope global or extern variable: GlobalRef's result is used
	// as the value directly for scalars, and as the storage address for
	// struct types, consistent with the pointer-everywhere convention.
	v := fl.newVar()
	fl.emit(&kir.GlobalRef{DestVar: v, Name: n.Name, Type: t})
	return v
}

func (fl *funcLower) lowerArrayLit(n *ast.ArrayLit) kir.VarId {
	t := fl.ann.ExprTypes[n]
	ptr := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: ptr, Type: t})
	for i, el := range n.Elements {
		v := fl.lowerExpr(el)
		idx := fl.newVar()
		fl.emit(&kir.ConstInt{DestVar: idx, Type: types.USize, Value: int64(i)})
		ep := fl.newVar()
		fl.emit(&kir.IndexPtr{DestVar: ep, Base: ptr, Index: idx, Type: t.Elem})
		if t.Elem.Kind == types.KStruct {
			fl.structCopy(ep, v, t.Elem)
		} else {
			fl.emit(&kir.Store{Ptr: ep, Value: v})
		}
	}
	return ptr
}

// fillStructLitFields fills a freshly allocated struct's fields in place,
// recursing into a nested struct literal without an intermediate copy.
func (fl *funcLower) fillStructLitFields(ptr kir.VarId, n *ast.StructLit, st *types.Type) {
	for _, slf := range n.Fields {
		ft := fieldType(st, slf.Name)
		fp := fl.newVar()
		fl.emit(&kir.FieldPtr{DestVar: fp, Base: ptr, Struct: st, Field: slf.Name, Type: ft})
		if lit, ok := slf.Value.(*ast.StructLit); ok && ft != nil && ft.Kind == types.KStruct {
			fl.fillStructLitFields(fp, lit, ft)
			continue
		}
		v := fl.lowerExpr(slf.Value)
		if ft != nil && ft.Kind == types.KStruct {
			fl.structCopy(fp, v, ft)
		} else {
			fl.emit(&kir.Store{Ptr: fp, Value: v})
		}
	}
}

func fieldType(st *types.Type, name string) *types.Type {
	for _, f := range st.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}

// lowerBinaryExpr dispatches &&/|| to a short-circuiting diamond, a bound
// struct operator to its method, an unbound struct ==/!= to a synthesized
// structural comparison (the checker allows this without recording an
// OpBindings entry), and everything else to a plain BinOp.
func (fl *funcLower) lowerBinaryExpr(n *ast.BinaryExpr) kir.VarId {
	if n.Op == "&&" || n.Op == "||" {
		return fl.lowerShortCircuit(n)
	}
	if ob, bound := fl.ann.OpBindings[n]; bound {
		return fl.lowerOperatorCall(ob, n.Left, []ast.Expr{n.Right}, fl.ann.ExprTypes[n])
	}
	lt := fl.ann.ExprTypes[n.Left]
	if (n.Op == "==" || n.Op == "!=") && lt != nil && lt.Kind == types.KStruct {
		l := fl.lowerExpr(n.Left)
		r := fl.lowerExpr(n.Right)
		return fl.structEqual(l, r, lt, n.Op == "!=")
	}
	l := fl.lowerExpr(n.Left)
	r := fl.lowerExpr(n.Right)
	d := fl.newVar()
	fl.emit(&kir.BinOp{DestVar: d, Op: n.Op, Lhs: l, Rhs: r, Type: fl.ann.ExprTypes[n], OperandType: lt})
	return d
}

// lowerShortCircuit lowers &&/|| to a header/rhs/join diamond that stores
// through a temporary, so mem2reg (not this pass) is what turns the merge
// into an SSA value; this pass never emits a Phi by hand.
func (fl *funcLower) lowerShortCircuit(n *ast.BinaryExpr) kir.VarId {
	l := fl.lowerExpr(n.Left)
	tmp := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: tmp, Type: types.Bool})
	fl.emit(&kir.Store{Ptr: tmp, Value: l})

	rhsBlock := fl.newBlock()
	joinBlock := fl.newBlock()
	if n.Op == "&&" {
		fl.cur.Term = &kir.Br{Cond: l, Then: rhsBlock.ID, Else: joinBlock.ID}
	} else {
		fl.cur.Term = &kir.Br{Cond: l, Then: joinBlock.ID, Else: rhsBlock.ID}
	}

	fl.switchTo(rhsBlock)
	r := fl.lowerExpr(n.Right)
	fl.emit(&kir.Store{Ptr: tmp, Value: r})
	fl.jumpTo(joinBlock)

	fl.switchTo(joinBlock)
	d := fl.newVar()
	fl.emit(&kir.Load{DestVar: d, Ptr: tmp, Type: types.Bool})
	return d
}

// structEqual synthesizes a field-wise comparison for a struct type with no
// explicit op_eq/op_neq, recursing into any nested struct fields. An empty
// struct compares equal (the "!=" case negates the whole result at the end).
func (fl *funcLower) structEqual(lhs, rhs kir.VarId, st *types.Type, negate bool) kir.VarId {
	var acc kir.VarId
	for i, f := range st.Fields {
		lp := fl.newVar()
		fl.emit(&kir.FieldPtr{DestVar: lp, Base: lhs, Struct: st, Field: f.Name, Type: f.Type})
		rp := fl.newVar()
		fl.emit(&kir.FieldPtr{DestVar: rp, Base: rhs, Struct: st, Field: f.Name, Type: f.Type})

		var eq kir.VarId
		if f.Type.Kind == types.KStruct {
			eq = fl.structEqual(lp, rp, f.Type, false)
		} else {
			lv := fl.newVar()
			fl.emit(&kir.Load{DestVar: lv, Ptr: lp, Type: f.Type})
			rv := fl.newVar()
			fl.emit(&kir.Load{DestVar: rv, Ptr: rp, Type: f.Type})
			eq = fl.newVar()
			fl.emit(&kir.BinOp{DestVar: eq, Op: "==", Lhs: lv, Rhs: rv, Type: types.Bool, OperandType: f.Type})
		}

		if i == 0 {
			acc = eq
			continue
		}
		nd := fl.newVar()
		fl.emit(&kir.BinOp{DestVar: nd, Op: "&&", Lhs: acc, Rhs: eq, Type: types.Bool})
		acc = nd
	}
	if len(st.Fields) == 0 {
		acc = fl.newVar()
		fl.emit(&kir.ConstBool{DestVar: acc, Value: true})
	}
	if !negate {
		return acc
	}
	nv := fl.newVar()
	fl.emit(&kir.Not{DestVar: nv, X: acc})
	return nv
}

func (fl *funcLower) lowerUnaryExpr(n *ast.UnaryExpr) kir.VarId {
	if ob, bound := fl.ann.OpBindings[n]; bound {
		return fl.lowerOperatorCall(ob, n.X, nil, fl.ann.ExprTypes[n])
	}
	x := fl.lowerExpr(n.X)
	t := fl.ann.ExprTypes[n]
	d := fl.newVar()
	switch n.Op {
	case "-":
		fl.emit(&kir.Neg{DestVar: d, X: x, Type: t})
	case "!":
		fl.emit(&kir.Not{DestVar: d, X: x})
	case "~":
		fl.emit(&kir.BitNot{DestVar: d, X: x, Type: t})
	}
	return d
}

// lowerOperatorCall dispatches a bound binary/unary struct operator to its
// method, passing the receiver by address the same way an ordinary method
// call does. Operator methods are assumed never to throw; spec.md's
// operator overloading section never mentions a throwing operator, and the
// checker's OpBindings carries no throws list to honor even if one existed.
func (fl *funcLower) lowerOperatorCall(ob check.OpBinding, selfExpr ast.Expr, argExprs []ast.Expr, resultType *types.Type) kir.VarId {
	mangled := ob.StructType.Name + "_" + ob.Method
	sig := fl.ann.FuncSigs[mangled]
	args := []kir.VarId{fl.lowerAddr(selfExpr)}
	for i, ae := range argExprs {
		pt := sig.Params[i+1].Type
		if pt.Kind == types.KStruct {
			args = append(args, fl.lowerAddr(ae))
		} else {
			args = append(args, fl.lowerExpr(ae))
		}
	}
	return fl.emitDirectCall(mangled, args, resultType)
}

func (fl *funcLower) emitDirectCall(mangled string, args []kir.VarId, resultType *types.Type) kir.VarId {
	if resultType == nil || resultType.Kind == types.KVoid {
		fl.emit(&kir.CallVoid{Func: mangled, Args: args})
		return 0
	}
	d := fl.newVar()
	fl.emit(&kir.Call{DestVar: d, Func: mangled, Args: args, Type: resultType})
	return d
}

func (fl *funcLower) emitExternCall(mangled string, args []kir.VarId, resultType *types.Type) kir.VarId {
	if resultType == nil || resultType.Kind == types.KVoid {
		fl.emit(&kir.CallExternVoid{Func: mangled, Args: args})
		return 0
	}
	d := fl.newVar()
	fl.emit(&kir.CallExtern{DestVar: d, Func: mangled, Args: args, Type: resultType})
	return d
}

func (fl *funcLower) lowerFieldExpr(n *ast.FieldExpr) kir.VarId {
	baseType := fl.ann.ExprTypes[n.X]
	elem := baseType
	if elem != nil && elem.Kind == types.KPtr {
		elem = elem.Elem
	}
	if elem != nil && (elem.Kind == types.KArray) && n.Field == "len" {
		d := fl.newVar()
		fl.emit(&kir.ConstInt{DestVar: d, Type: types.USize, Value: elem.Length})
		return d
	}

	base := fl.lowerExpr(n.X)
	ft := fl.ann.ExprTypes[n]
	fp := fl.newVar()
	fl.emit(&kir.FieldPtr{DestVar: fp, Base: base, Struct: elem, Field: n.Field, Type: ft})
	if ft != nil && ft.Kind == types.KStruct {
		return fp
	}
	v := fl.newVar()
	fl.emit(&kir.Load{DestVar: v, Ptr: fp, Type: ft})
	return v
}

func (fl *funcLower) lowerIndexExpr(n *ast.IndexExpr) kir.VarId {
	baseType := fl.ann.ExprTypes[n.X]
	if baseType != nil && baseType.Kind == types.KStruct {
		if ob, bound := fl.ann.OpBindings[n]; bound {
			return fl.lowerOperatorCall(ob, n.X, []ast.Expr{n.Index}, fl.ann.ExprTypes[n])
		}
	}
	base := fl.lowerExpr(n.X)
	idx := fl.lowerExpr(n.Index)
	fl.emitBoundsCheck(baseType, base, idx)
	et := fl.ann.ExprTypes[n]
	ep := fl.newVar()
	fl.emit(&kir.IndexPtr{DestVar: ep, Base: base, Index: idx, Type: et})
	if et != nil && et.Kind == types.KStruct {
		return ep
	}
	v := fl.newVar()
	fl.emit(&kir.Load{DestVar: v, Ptr: ep, Type: et})
	return v
}

// emitBoundsCheck only fires for statically-sized arrays: a slice's Type
// carries no runtime length in this lowering, a documented gap (DESIGN.md)
// since slices are otherwise treated as a bare element pointer.
func (fl *funcLower) emitBoundsCheck(baseType *types.Type, base, idx kir.VarId) {
	if baseType == nil || baseType.Kind != types.KArray {
		return
	}
	length := fl.newVar()
	fl.emit(&kir.ConstInt{DestVar: length, Type: types.USize, Value: baseType.Length})
	fl.emit(&kir.BoundsCheck{Index: idx, Length: length})
}

func (fl *funcLower) lowerMoveExpr(n *ast.MoveExpr) kir.VarId {
	v := fl.lowerExpr(n.X)
	if id, ok := n.X.(*ast.Ident); ok {
		fl.moved[id.Name] = true
	}
	t := fl.ann.ExprTypes[n]
	d := fl.newVar()
	fl.emit(&kir.Move{DestVar: d, Source: v, Type: t})
	return d
}

// lowerBlockExpr lowers a block used as an expression: every statement but
// a trailing bare ExprStmt lowers normally; the trailing ExprStmt's value
// (if any) becomes the block's own value.
func (fl *funcLower) lowerBlockExpr(n *ast.BlockExpr) kir.VarId {
	fl.pushFrame()
	var result kir.VarId
	stmts := n.Block.Stmts
	for i, s := range stmts {
		if fl.cur.Term != nil {
			break
		}
		if i == len(stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				result = fl.lowerExpr(es.X)
				continue
			}
		}
		fl.lowerStmt(s)
	}
	fl.popFrame(fl.cur.Term == nil)
	return result
}

// lowerAddr computes the address of an lvalue expression, spilling a
// temporary for anything that isn't already storage-backed (a global
// scalar, or any other rvalue an operator/struct-arg call site needs an
// address for).
func (fl *funcLower) lowerAddr(e ast.Expr) kir.VarId {
	switch n := e.(type) {
	case *ast.Ident:
		if lv, ok := fl.locals[n.Name]; ok {
			return lv.ptr
		}
		t := fl.ann.ExprTypes[n]
		if t != nil && t.Kind == types.KStruct {
			return fl.lowerExpr(n)
		}
		v := fl.lowerExpr(n)
		tmp := fl.newVar()
		fl.emit(&kir.StackAlloc{DestVar: tmp, Type: t})
		fl.emit(&kir.Store{Ptr: tmp, Value: v})
		return tmp
	case *ast.FieldExpr:
		baseType := fl.ann.ExprTypes[n.X]
		elem := baseType
		if elem != nil && elem.Kind == types.KPtr {
			elem = elem.Elem
		}
		base := fl.lowerExpr(n.X)
		ft := fl.ann.ExprTypes[n]
		fp := fl.newVar()
		fl.emit(&kir.FieldPtr{DestVar: fp, Base: base, Struct: elem, Field: n.Field, Type: ft})
		return fp
	case *ast.IndexExpr:
		baseType := fl.ann.ExprTypes[n.X]
		base := fl.lowerExpr(n.X)
		idx := fl.lowerExpr(n.Index)
		fl.emitBoundsCheck(baseType, base, idx)
		et := fl.ann.ExprTypes[n]
		ep := fl.newVar()
		fl.emit(&kir.IndexPtr{DestVar: ep, Base: base, Index: idx, Type: et})
		return ep
	default:
		v := fl.lowerExpr(e)
		t := fl.ann.ExprTypes[e]
		tmp := fl.newVar()
		fl.emit(&kir.StackAlloc{DestVar: tmp, Type: t})
		fl.emit(&kir.Store{Ptr: tmp, Value: v})
		return tmp
	}
}

// structCopy performs a real field-wise copy from src to dst, recursing
// into nested struct fields, then runs the struct's __oncopy hook if it
// declares one.
func (fl *funcLower) structCopy(dst, src kir.VarId, st *types.Type) {
	for _, f := range st.Fields {
		dp := fl.newVar()
		fl.emit(&kir.FieldPtr{DestVar: dp, Base: dst, Struct: st, Field: f.Name, Type: f.Type})
		sp := fl.newVar()
		fl.emit(&kir.FieldPtr{DestVar: sp, Base: src, Struct: st, Field: f.Name, Type: f.Type})
		if f.Type.Kind == types.KStruct {
			fl.structCopy(dp, sp, f.Type)
			continue
		}
		v := fl.newVar()
		fl.emit(&kir.Load{DestVar: v, Ptr: sp, Type: f.Type})
		fl.emit(&kir.Store{Ptr: dp, Value: v})
	}
	if st.HasOnCopy {
		fl.emit(&kir.OnCopy{Value: dst, StructName: st.Name})
	}
}

func (fl *funcLower) lowerCallExpr(call *ast.CallExpr) kir.VarId {
	args, mangled, isExtern, resultType := fl.prepareCall(call)
	if isExtern {
		return fl.emitExternCall(mangled, args, resultType)
	}
	return fl.emitDirectCall(mangled, args, resultType)
}

// prepareCall lowers a call's receiver (if MethodSelf marks it as a genuine
// struct method) and its arguments, and resolves the callee's mangled name,
// shared by the plain call path and the throws-aware catch path. A callee
// with no recorded Bodies entry is an extern (it can never be a method:
// methods always get a Bodies entry from checkMethod).
func (fl *funcLower) prepareCall(call *ast.CallExpr) (args []kir.VarId, mangled string, isExtern bool, resultType *types.Type) {
	mangled = fl.ann.GenericMangled[call]
	sig := fl.ann.FuncSigs[mangled]
	_, hasBody := fl.ann.Bodies[mangled]
	isExtern = !hasBody
	if sig != nil {
		resultType = sig.Return
	}

	paramOffset := 0
	if fl.ann.MethodSelf[call] {
		fe := call.Func.(*ast.FieldExpr)
		args = append(args, fl.lowerAddr(fe.X))
		paramOffset = 1
	}
	for i, a := range call.Args {
		var pt *types.Type
		if sig != nil && i+paramOffset < len(sig.Params) {
			pt = sig.Params[i+paramOffset].Type
		}
		if pt != nil && pt.Kind == types.KStruct {
			args = append(args, fl.lowerAddr(a))
		} else {
			args = append(args, fl.lowerExpr(a))
		}
	}
	return
}

// lowerCatchExpr lowers a throwing call under the error-return calling
// convention: the callee's tag/out/err triple is evaluated unconditionally,
// then dispatched per the catch form.
func (fl *funcLower) lowerCatchExpr(n *ast.CatchExpr) kir.VarId {
	call, ok := n.Call.(*ast.CallExpr)
	if !ok {
		return fl.lowerExpr(n.Call)
	}
	args, mangled, _, successType := fl.prepareCall(call)
	sig := fl.ann.FuncSigs[mangled]

	var outPtr kir.VarId
	if successType != nil && successType.Kind != types.KVoid {
		outPtr = fl.newVar()
		fl.emit(&kir.StackAlloc{DestVar: outPtr, Type: successType})
	}
	errPtr := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: errPtr, Type: types.Void})
	tag := fl.newVar()
	fl.emit(&kir.CallThrows{
		DestVar: tag, Func: mangled, Args: args,
		OutPtr: outPtr, ErrPtr: errPtr,
		SuccessType: successType, ErrorTypes: sig.ThrowsTypes,
	})

	switch n.Kind {
	case ast.CatchPanic:
		return fl.lowerCatchPanic(tag, outPtr, errPtr, successType)
	case ast.CatchThrow:
		return fl.lowerCatchThrow(tag, outPtr, errPtr, successType, sig.ThrowsTypes)
	default:
		return fl.lowerCatchClauses(n, tag, outPtr, errPtr, successType, sig.ThrowsTypes)
	}
}

func (fl *funcLower) branchOnTag(tag kir.VarId) (thenBlock, elseBlock *kir.Block) {
	zero := fl.newVar()
	fl.emit(&kir.ConstInt{DestVar: zero, Type: types.I32, Value: 0})
	cond := fl.newVar()
	fl.emit(&kir.BinOp{DestVar: cond, Op: "!=", Lhs: tag, Rhs: zero, Type: types.Bool, OperandType: types.I32})
	thenBlock = fl.newBlock()
	elseBlock = fl.newBlock()
	fl.cur.Term = &kir.Br{Cond: cond, Then: thenBlock.ID, Else: elseBlock.ID}
	return
}

func (fl *funcLower) loadCatchResult(outPtr kir.VarId, successType *types.Type) kir.VarId {
	if successType == nil || successType.Kind == types.KVoid {
		return 0
	}
	if successType.Kind == types.KStruct {
		return outPtr
	}
	v := fl.newVar()
	fl.emit(&kir.Load{DestVar: v, Ptr: outPtr, Type: successType})
	return v
}

// lowerCatchPanic aborts the process via kei_panic when the call threw.
func (fl *funcLower) lowerCatchPanic(tag kir.VarId, outPtr, errPtr kir.VarId, successType *types.Type) kir.VarId {
	panicBlock, okBlock := fl.branchOnTag(tag)

	fl.switchTo(panicBlock)
	fl.emit(&kir.CallExternVoid{Func: "kei_panic", Args: []kir.VarId{errPtr}})
	fl.cur.Term = &kir.Unreachable{}

	fl.switchTo(okBlock)
	return fl.loadCatchResult(outPtr, successType)
}

// lowerCatchThrow forwards a thrown error to this function's own caller,
// remapping the callee's tag to this function's own throws-list position
// for the matching error type (the two lists need not agree in order).
func (fl *funcLower) lowerCatchThrow(tag kir.VarId, outPtr, errPtr kir.VarId, successType *types.Type, calleeThrows []*types.Type) kir.VarId {
	rethrowBlock, okBlock := fl.branchOnTag(tag)

	fl.switchTo(rethrowBlock)
	fl.runFramesDownTo(0)
	callerTag := fl.remapThrowsTag(tag, calleeThrows, errPtr)
	fl.cur.Term = &kir.Ret{Value: callerTag}

	fl.switchTo(okBlock)
	return fl.loadCatchResult(outPtr, successType)
}

// remapThrowsTag switches on the callee's tag (1-based index into
// calleeThrows), and for each possible error type copies its payload from
// the callee's error buffer into this function's own errPtr, then stores
// this function's own matching tag into a temporary. The temporary (not a
// hand-built Phi) is what later lets mem2reg promote the merge normally.
func (fl *funcLower) remapThrowsTag(calleeTag kir.VarId, calleeThrows []*types.Type, calleeErrPtr kir.VarId) kir.VarId {
	resultSlot := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: resultSlot, Type: types.I32})

	joinBlock := fl.newBlock()
	defBlock := fl.newBlock()
	switchBlock := fl.cur

	cases := make([]kir.SwitchCase, 0, len(calleeThrows))
	for i, t := range calleeThrows {
		caseBlock := fl.newBlock()
		cases = append(cases, kir.SwitchCase{Value: int64(i + 1), Target: caseBlock.ID})

		fl.switchTo(caseBlock)
		src := fl.newVar()
		fl.emit(&kir.Cast{DestVar: src, Value: calleeErrPtr, Target: types.Ptr(t)})
		dst := fl.newVar()
		fl.emit(&kir.Cast{DestVar: dst, Value: fl.errPtr, Target: types.Ptr(t)})
		fl.structCopy(dst, src, t)
		callerIdx := throwsIndex(fl.fnType.ThrowsTypes, t) + 1
		rv := fl.newVar()
		fl.emit(&kir.ConstInt{DestVar: rv, Type: types.I32, Value: int64(callerIdx)})
		fl.emit(&kir.Store{Ptr: resultSlot, Value: rv})
		fl.cur.Term = &kir.Jump{Target: joinBlock.ID}
	}

	fl.switchTo(defBlock)
	fl.cur.Term = &kir.Unreachable{}
	switchBlock.Term = &kir.Switch{Value: calleeTag, Cases: cases, Default: defBlock.ID}

	fl.switchTo(joinBlock)
	result := fl.newVar()
	fl.emit(&kir.Load{DestVar: result, Ptr: resultSlot, Type: types.I32})
	return result
}

// lowerCatchClauses switches on the callee's tag across the catch's own
// per-type clauses (plus an optional default), binding the caught error
// value by the clause's declared name when given.
func (fl *funcLower) lowerCatchClauses(n *ast.CatchExpr, tag kir.VarId, outPtr, errPtr kir.VarId, successType *types.Type, calleeThrows []*types.Type) kir.VarId {
	errBlock, okBlock := fl.branchOnTag(tag)
	joinBlock := fl.newBlock()

	fl.switchTo(errBlock)
	defBlock := fl.newBlock()
	switchBlock := fl.cur

	cases := make([]kir.SwitchCase, 0, len(n.Clauses))
	var defaultClause *ast.CatchClause
	for _, cl := range n.Clauses {
		if cl.IsDefault {
			defaultClause = cl
			continue
		}
		errType := fl.ann.Structs[cl.Type]
		idx := throwsIndex(calleeThrows, errType) + 1
		caseBlock := fl.newBlock()
		cases = append(cases, kir.SwitchCase{Value: int64(idx), Target: caseBlock.ID})

		fl.switchTo(caseBlock)
		fl.pushFrame()
		if cl.BindName != "" {
			typed := fl.newVar()
			fl.emit(&kir.Cast{DestVar: typed, Value: errPtr, Target: types.Ptr(errType)})
			fl.locals[cl.BindName] = localVar{ptr: typed, typ: errType}
		}
		fl.lowerBlock(cl.Body)
		fl.popFrame(fl.cur.Term == nil)
		fl.jumpTo(joinBlock)
	}

	fl.switchTo(defBlock)
	if defaultClause != nil {
		fl.lowerScopedBlock(defaultClause.Body)
		fl.jumpTo(joinBlock)
	} else {
		// every declared throw is covered by a clause (the checker enforces
		// this), so an uncovered tag here can't arise at runtime.
		fl.cur.Term = &kir.Unreachable{}
	}
	switchBlock.Term = &kir.Switch{Value: tag, Cases: cases, Default: defBlock.ID}

	fl.switchTo(okBlock)
	fl.jumpTo(joinBlock)

	fl.switchTo(joinBlock)
	return fl.loadCatchResult(outPtr, successType)
}
