package lower

import (
	"github.com/keilang/kei/internal/ast"
	"github.com/keilang/kei/internal/check"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// localVar is one in-scope local: the pointer its value lives behind (every
// local is installed as a stack_alloc, per spec.md §4.5) and its type.
type localVar struct {
	ptr kir.VarId
	typ *types.Type
}

// frame is one lexical block's pending cleanup: user `defer` statements (run
// LIFO) and struct-typed locals declared directly in this block that need
// their __destroy hook run on ordinary scope exit, unless moved out first.
type frame struct {
	defers []ast.Stmt
	locals []string // struct-typed local names declared in this block, in declaration order
}

// loopCtx records a loop's jump targets and the frame depth at loop-body
// entry: break/continue only unwind frames opened since the loop started,
// never frames belonging to an enclosing scope.
type loopCtx struct {
	continueTarget string
	breakTarget    string
	frameDepth     int
}

// funcLower carries the state threaded through lowering a single function
// body: the KIR function under construction, the block currently being
// appended to, every in-scope local, the active defer/destroy frames, the
// active loop stack, and (inside a throwing function) the out/err pointers
// the error-return calling convention passes in.
type funcLower struct {
	l      *Lowerer
	ann    *check.Annotations
	sink   *diag.Sink
	fn     *kir.Function
	cur    *kir.Block
	locals map[string]localVar
	frames []*frame
	loops  []loopCtx
	moved  map[string]bool

	fnType *types.Type
	outPtr kir.VarId
	errPtr kir.VarId
}

func (fl *funcLower) newVar() kir.VarId { return fl.fn.NewVar() }

func (fl *funcLower) emit(instr kir.Instruction) { fl.cur.Instrs = append(fl.cur.Instrs, instr) }

func (fl *funcLower) newBlock() *kir.Block {
	b := &kir.Block{ID: fl.fn.NewBlockID()}
	fl.fn.AddBlock(b)
	return b
}

// switchTo moves the insertion point to b, without touching b's membership
// in fn.Blocks (it must already have been added by newBlock).
func (fl *funcLower) switchTo(b *kir.Block) { fl.cur = b }

// jumpTo terminates the current block with a Jump to target's id, unless the
// current block already has a terminator (e.g. it ended in return/throw).
func (fl *funcLower) jumpTo(target *kir.Block) {
	if fl.cur.Term == nil {
		fl.cur.Term = &kir.Jump{Target: target.ID}
	}
}

func (fl *funcLower) pushFrame() { fl.frames = append(fl.frames, &frame{}) }

// popFrame runs the top frame's cleanup (user defers LIFO, then struct
// destructors in reverse declaration order) if runCleanup, and always pops
// it off the stack.
func (fl *funcLower) popFrame(runCleanup bool) {
	f := fl.frames[len(fl.frames)-1]
	fl.frames = fl.frames[:len(fl.frames)-1]
	if runCleanup {
		fl.runFrameCleanup(f)
	}
}

func (fl *funcLower) runFrameCleanup(f *frame) {
	for i := len(f.defers) - 1; i >= 0; i-- {
		fl.lowerStmt(f.defers[i])
	}
	for i := len(f.locals) - 1; i >= 0; i-- {
		name := f.locals[i]
		if fl.moved[name] {
			continue
		}
		lv := fl.locals[name]
		if lv.typ.Kind == types.KStruct && lv.typ.HasDtor {
			fl.emit(&kir.Destroy{Value: lv.ptr, StructName: lv.typ.Name})
		}
	}
}

// runFramesDownTo runs cleanup for every open frame above (and not
// including) depth, in innermost-first order: used by break/continue
// (depth = the loop's frameDepth) and by return (depth = 0, the whole stack).
func (fl *funcLower) runFramesDownTo(depth int) {
	for i := len(fl.frames) - 1; i >= depth; i-- {
		fl.runFrameCleanup(fl.frames[i])
	}
}

func (fl *funcLower) registerDefer(stmt ast.Stmt) {
	top := fl.frames[len(fl.frames)-1]
	top.defers = append(top.defers, stmt)
}

func (fl *funcLower) registerStructLocal(name string) {
	top := fl.frames[len(fl.frames)-1]
	top.locals = append(top.locals, name)
}

// lowerFunction builds one kir.Function from decl/sig. Parameters are
// installed as locals immediately (a ParamRef read followed by a
// stack_alloc+store), matching the uniform "every local lives behind a
// pointer" discipline the rest of lowering relies on. A throwing function's
// caller-provided out/err pointers, the trailing parameters the error-return
// calling convention appends (spec.md §4.5, §6 "Error-return convention"),
// are read by ParamRef too but kept as plain values with no stack slot;
// __out is omitted when the success type is void.
func (l *Lowerer) lowerFunction(mangled string, sig *types.Type, decl *ast.FuncDecl) *kir.Function {
	retType := sig.Return
	if len(sig.ThrowsTypes) > 0 {
		retType = types.I32 // the error-return calling convention's tag, not the success type
	}
	fn := &kir.Function{Name: mangled, Return: retType}
	fl := &funcLower{
		l: l, ann: l.ann, sink: l.sink, fn: fn,
		locals: map[string]localVar{}, moved: map[string]bool{},
		fnType: sig,
	}
	entry := fl.newBlock()
	fl.switchTo(entry)

	for i, p := range decl.Params {
		pt := sig.Params[i].Type
		fn.Params = append(fn.Params, kir.Param{Name: p.Name, Type: pt})
		pv := fl.newVar()
		fl.emit(&kir.ParamRef{DestVar: pv, Index: i, Type: pt})
		ptr := fl.newVar()
		fl.emit(&kir.StackAlloc{DestVar: ptr, Type: pt, Name: p.Name})
		fl.emit(&kir.Store{Ptr: ptr, Value: pv})
		fl.locals[p.Name] = localVar{ptr: ptr, typ: pt}
	}

	if len(sig.ThrowsTypes) > 0 {
		idx := len(decl.Params)
		if sig.Return.Kind != types.KVoid {
			fn.Params = append(fn.Params, kir.Param{Name: "__out", Type: types.Ptr(sig.Return)})
			fl.outPtr = fl.newVar()
			fl.emit(&kir.ParamRef{DestVar: fl.outPtr, Index: idx, Type: types.Ptr(sig.Return)})
			idx++
		}
		fn.Params = append(fn.Params, kir.Param{Name: "__err", Type: types.Ptr(types.Void)})
		fl.errPtr = fl.newVar()
		fl.emit(&kir.ParamRef{DestVar: fl.errPtr, Index: idx, Type: types.Ptr(types.Void)})
	}

	fl.pushFrame()
	fl.lowerBlock(decl.Body)
	fl.popFrame(fl.cur.Term == nil)

	if fl.cur.Term == nil {
		fl.cur.Term = fl.implicitReturn()
	}
	return fn
}

// implicitReturn is the terminator appended when a function body falls off
// its last statement without an explicit return (legal only for a void
// success type; any other shape falling through is a checker SEM009 error
// already reported). A void non-throwing function gets RetVoid, any throwing
// function returns the success tag 0, and any other function gets
// Unreachable, which just keeps the CFG well-formed rather than
// re-diagnosing.
func (fl *funcLower) implicitReturn() kir.Terminator {
	if len(fl.fnType.ThrowsTypes) == 0 && fl.fnType.Return.Kind == types.KVoid {
		return &kir.RetVoid{}
	}
	if len(fl.fnType.ThrowsTypes) > 0 {
		tag := fl.newVar()
		fl.emit(&kir.ConstInt{DestVar: tag, Type: types.I32, Value: 0})
		return &kir.Ret{Value: tag}
	}
	return &kir.Unreachable{}
}
