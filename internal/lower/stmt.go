package lower

import (
	"strconv"

	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// lowerStmt dispatches one statement. It is a no-op once the current block
// already has a terminator (dead code after a return/throw/break/continue),
// matching checkBlock's own "diverged" tracking on the checker side.
func (fl *funcLower) lowerStmt(s ast.Stmt) {
	if fl.cur.Term != nil {
		return
	}
	switch n := s.(type) {
	case *ast.BlockStmt:
		fl.lowerScopedBlock(n)
	case *ast.LetStmt:
		fl.lowerLetStmt(n)
	case *ast.ExprStmt:
		fl.lowerExpr(n.X)
	case *ast.AssignStmt:
		fl.lowerAssignStmt(n)
	case *ast.IfStmt:
		fl.lowerIfStmt(n)
	case *ast.WhileStmt:
		fl.lowerWhileStmt(n)
	case *ast.ForStmt:
		fl.lowerForStmt(n)
	case *ast.SwitchStmt:
		fl.lowerSwitchStmt(n)
	case *ast.ReturnStmt:
		fl.lowerReturnStmt(n)
	case *ast.BreakStmt:
		fl.lowerBreakStmt()
	case *ast.ContinueStmt:
		fl.lowerContinueStmt()
	case *ast.ThrowStmt:
		fl.lowerThrowStmt(n)
	case *ast.DeferStmt:
		fl.registerDefer(n.Stmt)
	case *ast.UnsafeStmt:
		fl.lowerScopedBlock(n.Body)
	}
}

// lowerBlock lowers every statement of b into the current block, without
// opening its own frame: used for a function's top-level body and for loop
// bodies, whose frame the caller already pushed (so break/continue can
// unwind to a known depth).
func (fl *funcLower) lowerBlock(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		if fl.cur.Term != nil {
			return
		}
		fl.lowerStmt(s)
	}
}

// lowerScopedBlock wraps lowerBlock with its own frame, for every nested
// block that isn't a loop body (if/else arms, unsafe blocks, switch cases).
func (fl *funcLower) lowerScopedBlock(b *ast.BlockStmt) {
	fl.pushFrame()
	fl.lowerBlock(b)
	fl.popFrame(fl.cur.Term == nil)
}

func (fl *funcLower) lowerLetStmt(n *ast.LetStmt) {
	var t *types.Type
	if n.Value != nil {
		t = fl.ann.ExprTypes[n.Value]
	} else if n.Type != nil {
		t = fl.typeFromNode(n.Type)
	}
	if t == nil {
		t = types.Void
	}
	if t.Kind == types.KStruct {
		fl.lowerStructLet(n, t)
		return
	}
	ptr := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: ptr, Type: t, Name: n.Name})
	if n.Value != nil {
		v := fl.lowerExpr(n.Value)
		fl.emit(&kir.Store{Ptr: ptr, Value: v})
	}
	fl.locals[n.Name] = localVar{ptr: ptr, typ: t}
}

// lowerStructLet installs a struct-typed local. A direct struct literal
// initializer is built straight into the new local's storage with no extra
// copy; any other initializer expression (an existing value, a call result,
// a field read) gets a real field-wise copy into fresh storage, running
// __oncopy if the struct declares one.
func (fl *funcLower) lowerStructLet(n *ast.LetStmt, st *types.Type) {
	ptr := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: ptr, Type: st, Name: n.Name})
	switch lit := n.Value.(type) {
	case *ast.StructLit:
		fl.fillStructLitFields(ptr, lit, st)
	case nil:
	default:
		src := fl.lowerExpr(n.Value)
		fl.structCopy(ptr, src, st)
	}
	fl.locals[n.Name] = localVar{ptr: ptr, typ: st}
	if st.HasDtor {
		fl.registerStructLocal(n.Name)
	}
}

// lowerAssignStmt handles `target = value;`. Struct-typed targets get a
// real field-wise copy (the checker has no write-path operator overload for
// index-assignment, so `arr[i] = v` always lowers through a plain IndexPtr,
// never an op_index_set dispatch).
func (fl *funcLower) lowerAssignStmt(n *ast.AssignStmt) {
	t := fl.ann.ExprTypes[n.Target]
	if t != nil && t.Kind == types.KStruct {
		dst := fl.lowerAddr(n.Target)
		src := fl.lowerExpr(n.Value)
		fl.structCopy(dst, src, t)
		return
	}
	v := fl.lowerExpr(n.Value)
	fl.storeScalar(n.Target, v)
}

func (fl *funcLower) storeScalar(target ast.Expr, v kir.VarId) {
	if id, ok := target.(*ast.Ident); ok {
		if lv, ok := fl.locals[id.Name]; ok {
			fl.emit(&kir.Store{Ptr: lv.ptr, Value: v})
			return
		}
		fl.emit(&kir.GlobalSet{Name: id.Name, Value: v})
		return
	}
	ptr := fl.lowerAddr(target)
	fl.emit(&kir.Store{Ptr: ptr, Value: v})
}

func (fl *funcLower) lowerIfStmt(n *ast.IfStmt) {
	cond := fl.lowerExpr(n.Cond)
	thenBlock := fl.newBlock()
	var elseBlock *kir.Block
	if n.Else != nil {
		elseBlock = fl.newBlock()
	}
	joinBlock := fl.newBlock()

	elseTarget := joinBlock.ID
	if elseBlock != nil {
		elseTarget = elseBlock.ID
	}
	fl.cur.Term = &kir.Br{Cond: cond, Then: thenBlock.ID, Else: elseTarget}

	fl.switchTo(thenBlock)
	fl.lowerScopedBlock(n.Then)
	fl.jumpTo(joinBlock)

	if elseBlock != nil {
		fl.switchTo(elseBlock)
		switch e := n.Else.(type) {
		case *ast.BlockStmt:
			fl.lowerScopedBlock(e)
		case *ast.IfStmt:
			fl.lowerIfStmt(e)
		}
		fl.jumpTo(joinBlock)
	}

	fl.switchTo(joinBlock)
}

func (fl *funcLower) lowerWhileStmt(n *ast.WhileStmt) {
	headerBlock := fl.newBlock()
	bodyBlock := fl.newBlock()
	exitBlock := fl.newBlock()
	fl.jumpTo(headerBlock)

	fl.switchTo(headerBlock)
	cond := fl.lowerExpr(n.Cond)
	fl.cur.Term = &kir.Br{Cond: cond, Then: bodyBlock.ID, Else: exitBlock.ID}

	fl.switchTo(bodyBlock)
	fl.loops = append(fl.loops, loopCtx{continueTarget: headerBlock.ID, breakTarget: exitBlock.ID, frameDepth: len(fl.frames)})
	fl.pushFrame()
	fl.lowerBlock(n.Body)
	fl.popFrame(fl.cur.Term == nil)
	fl.loops = fl.loops[:len(fl.loops)-1]
	fl.jumpTo(headerBlock)

	fl.switchTo(exitBlock)
}

// lowerForStmt desugars `for name in start..end { body }` into a counter
// local plus a header/body/increment block trio: continue jumps to the
// increment block rather than straight back to the header, so the counter
// always advances exactly once per iteration including on an early continue.
func (fl *funcLower) lowerForStmt(n *ast.ForStmt) {
	elemType := fl.ann.ExprTypes[n.Start]
	if elemType == nil {
		elemType = types.I32
	}
	startV := fl.lowerExpr(n.Start)
	ctr := fl.newVar()
	fl.emit(&kir.StackAlloc{DestVar: ctr, Type: elemType, Name: n.Name})
	fl.emit(&kir.Store{Ptr: ctr, Value: startV})
	endV := fl.lowerExpr(n.End)

	headerBlock := fl.newBlock()
	bodyBlock := fl.newBlock()
	incBlock := fl.newBlock()
	exitBlock := fl.newBlock()
	fl.jumpTo(headerBlock)

	fl.switchTo(headerBlock)
	cur := fl.newVar()
	fl.emit(&kir.Load{DestVar: cur, Ptr: ctr, Type: elemType})
	op := "<"
	if n.Inclusive {
		op = "<="
	}
	cond := fl.newVar()
	fl.emit(&kir.BinOp{DestVar: cond, Op: op, Lhs: cur, Rhs: endV, Type: types.Bool, OperandType: elemType})
	fl.cur.Term = &kir.Br{Cond: cond, Then: bodyBlock.ID, Else: exitBlock.ID}

	fl.switchTo(bodyBlock)
	fl.locals[n.Name] = localVar{ptr: ctr, typ: elemType}
	fl.loops = append(fl.loops, loopCtx{continueTarget: incBlock.ID, breakTarget: exitBlock.ID, frameDepth: len(fl.frames)})
	fl.pushFrame()
	fl.lowerBlock(n.Body)
	fl.popFrame(fl.cur.Term == nil)
	fl.loops = fl.loops[:len(fl.loops)-1]
	fl.jumpTo(incBlock)

	fl.switchTo(incBlock)
	cur2 := fl.newVar()
	fl.emit(&kir.Load{DestVar: cur2, Ptr: ctr, Type: elemType})
	one := fl.newVar()
	fl.emit(&kir.ConstInt{DestVar: one, Type: elemType, Value: 1})
	next := fl.newVar()
	fl.emit(&kir.BinOp{DestVar: next, Op: "+", Lhs: cur2, Rhs: one, Type: elemType, OperandType: elemType})
	fl.emit(&kir.Store{Ptr: ctr, Value: next})
	fl.cur.Term = &kir.Jump{Target: headerBlock.ID}

	fl.switchTo(exitBlock)
}

func (fl *funcLower) lowerBreakStmt() {
	loop := fl.loops[len(fl.loops)-1]
	fl.runFramesDownTo(loop.frameDepth)
	fl.cur.Term = &kir.Jump{Target: loop.breakTarget}
}

func (fl *funcLower) lowerContinueStmt() {
	loop := fl.loops[len(fl.loops)-1]
	fl.runFramesDownTo(loop.frameDepth)
	fl.cur.Term = &kir.Jump{Target: loop.continueTarget}
}

// lowerReturnStmt unwinds every open frame, then terminates with the shape
// matching this function's signature. A throwing function always returns a
// success tag of 0 here (the error-returning path lives in lowerThrowStmt);
// a non-throwing struct-typed return passes its storage pointer directly as
// the returned value, a deliberate ABI simplification documented in
// DESIGN.md (throwing functions instead copy into the caller-owned outPtr,
// which is the real by-value convention).
func (fl *funcLower) lowerReturnStmt(n *ast.ReturnStmt) {
	fl.runFramesDownTo(0)
	throwing := len(fl.fnType.ThrowsTypes) > 0
	if n.Value == nil {
		if throwing {
			tag := fl.newVar()
			fl.emit(&kir.ConstInt{DestVar: tag, Type: types.I32, Value: 0})
			fl.cur.Term = &kir.Ret{Value: tag}
			return
		}
		fl.cur.Term = &kir.RetVoid{}
		return
	}
	retType := fl.ann.ExprTypes[n.Value]
	v := fl.lowerExpr(n.Value)
	if throwing {
		if retType != nil && retType.Kind == types.KStruct {
			fl.structCopy(fl.outPtr, v, retType)
		} else {
			fl.emit(&kir.Store{Ptr: fl.outPtr, Value: v})
		}
		tag := fl.newVar()
		fl.emit(&kir.ConstInt{DestVar: tag, Type: types.I32, Value: 0})
		fl.cur.Term = &kir.Ret{Value: tag}
		return
	}
	fl.cur.Term = &kir.Ret{Value: v}
}

// lowerThrowStmt unwinds every open frame, copies the thrown struct's
// payload through the caller-provided errPtr (cast to the concrete error
// type, since errPtr is carried as *void), and returns the thrown type's
// 1-based position within this function's declared throws list as the tag.
func (fl *funcLower) lowerThrowStmt(n *ast.ThrowStmt) {
	fl.runFramesDownTo(0)
	errType := fl.ann.ExprTypes[n.Value]
	v := fl.lowerExpr(n.Value)
	idx := throwsIndex(fl.fnType.ThrowsTypes, errType) + 1
	typed := fl.newVar()
	fl.emit(&kir.Cast{DestVar: typed, Value: fl.errPtr, Target: types.Ptr(errType)})
	fl.structCopy(typed, v, errType)
	tag := fl.newVar()
	fl.emit(&kir.ConstInt{DestVar: tag, Type: types.I32, Value: int64(idx)})
	fl.cur.Term = &kir.Ret{Value: tag}
}

// lowerSwitchStmt lowers an enum-subject switch into a KIR Switch terminator
// keyed on the enum's tag field, and a plain-value switch (ints, strings, ...)
// into a chain of equality branches, in source order.
func (fl *funcLower) lowerSwitchStmt(n *ast.SwitchStmt) {
	subjType := fl.ann.ExprTypes[n.Subject]
	subj := fl.lowerExpr(n.Subject)
	joinBlock := fl.newBlock()

	if subjType != nil && subjType.Kind == types.KEnum {
		fl.lowerEnumSwitch(n, subjType, subj, joinBlock)
	} else {
		fl.lowerValueSwitch(n, subjType, subj, joinBlock)
	}
	fl.switchTo(joinBlock)
}

// lowerEnumSwitch reads the enum's tag once, then dispatches via a KIR
// Switch on the variant's ordinal index. A data-carrying case's binds are
// installed as locals pointing straight at the enum storage's payload
// slots (no copy): internal/emit lays every variant's payload fields out
// as flat members of the same struct, alongside the tag, rather than a
// real C union, trading memory density for construction simplicity.
func (fl *funcLower) lowerEnumSwitch(n *ast.SwitchStmt, et *types.Type, subj kir.VarId, joinBlock *kir.Block) {
	tagPtr := fl.newVar()
	fl.emit(&kir.FieldPtr{DestVar: tagPtr, Base: subj, Struct: et, Field: "tag", Type: types.I32})
	tag := fl.newVar()
	fl.emit(&kir.Load{DestVar: tag, Ptr: tagPtr, Type: types.I32})

	switchBlock := fl.cur
	cases := make([]kir.SwitchCase, 0, len(n.Cases))
	var defaultCase *ast.SwitchCase

	for _, cs := range n.Cases {
		if cs.IsDefault {
			defaultCase = cs
			continue
		}
		variantName, ok := dataVariantName(cs)
		if !ok {
			continue
		}
		idx := enumVariantIndex(et, variantName)
		caseBlock := fl.newBlock()
		cases = append(cases, kir.SwitchCase{Value: int64(idx), Target: caseBlock.ID})

		fl.switchTo(caseBlock)
		fl.pushFrame()
		variant := et.Variants[idx]
		for i, bindName := range cs.Binds {
			if i >= len(variant.Fields) {
				break
			}
			ft := variant.Fields[i]
			fp := fl.newVar()
			fl.emit(&kir.FieldPtr{DestVar: fp, Base: subj, Struct: et, Field: enumPayloadField(variantName, i), Type: ft})
			fl.locals[bindName] = localVar{ptr: fp, typ: ft}
		}
		fl.lowerBlock(cs.Body)
		fl.popFrame(fl.cur.Term == nil)
		fl.jumpTo(joinBlock)
	}

	defBlock := fl.newBlock()
	fl.switchTo(defBlock)
	if defaultCase != nil {
		fl.lowerScopedBlock(defaultCase.Body)
		fl.jumpTo(joinBlock)
	} else {
		// every variant is covered (the checker rejected a non-exhaustive
		// switch with no default), so the default arm is unreachable.
		fl.cur.Term = &kir.Unreachable{}
	}

	switchBlock.Term = &kir.Switch{Value: tag, Cases: cases, Default: defBlock.ID}
}

func (fl *funcLower) lowerValueSwitch(n *ast.SwitchStmt, subjType *types.Type, subj kir.VarId, joinBlock *kir.Block) {
	var defaultCase *ast.SwitchCase
	for _, cs := range n.Cases {
		if cs.IsDefault {
			defaultCase = cs
			continue
		}
		var cond kir.VarId
		for i, v := range cs.Values {
			val := fl.lowerExpr(v)
			eq := fl.newVar()
			fl.emit(&kir.BinOp{DestVar: eq, Op: "==", Lhs: subj, Rhs: val, Type: types.Bool, OperandType: subjType})
			if i == 0 {
				cond = eq
			} else {
				or := fl.newVar()
				fl.emit(&kir.BinOp{DestVar: or, Op: "||", Lhs: cond, Rhs: eq, Type: types.Bool})
				cond = or
			}
		}
		caseBlock := fl.newBlock()
		nextBlock := fl.newBlock()
		fl.cur.Term = &kir.Br{Cond: cond, Then: caseBlock.ID, Else: nextBlock.ID}

		fl.switchTo(caseBlock)
		fl.lowerScopedBlock(cs.Body)
		fl.jumpTo(joinBlock)

		fl.switchTo(nextBlock)
	}
	if defaultCase != nil {
		fl.lowerScopedBlock(defaultCase.Body)
	}
	fl.jumpTo(joinBlock)
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

func enumVariantIndex(et *types.Type, name string) int {
	for i, v := range et.Variants {
		if v.Name == name {
			return i
		}
	}
	return 0
}

func enumPayloadField(variant string, idx int) string {
	return variant + "_" + strconv.Itoa(idx)
}

func throwsIndex(list []*types.Type, t *types.Type) int {
	for i, x := range list {
		if x.Name == t.Name {
			return i
		}
	}
	return 0
}

// typeFromNode resolves a bare TypeNode with no generic substitution, for
// the rare `let name: T;` with no initializer expression to pull a type
// from ann.ExprTypes instead.
func (fl *funcLower) typeFromNode(tn ast.TypeNode) *types.Type {
	switch n := tn.(type) {
	case *ast.NamedType:
		if t, ok := types.Primitives[n.Name]; ok {
			return t
		}
		if t, ok := fl.ann.Structs[n.Name]; ok {
			return t
		}
		if t, ok := fl.ann.Enums[n.Name]; ok {
			return t
		}
		return types.Void
	case *ast.PtrType:
		return types.Ptr(fl.typeFromNode(n.Elem))
	case *ast.ArrayType:
		return types.Array(fl.typeFromNode(n.Elem), n.Length)
	case *ast.SliceType:
		return types.Slice(fl.typeFromNode(n.Elem))
	default:
		return types.Void
	}
}
