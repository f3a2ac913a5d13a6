package ssa

import (
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// Mem2Reg promotes every stack slot whose address never escapes a plain
// Load/Store pair into real SSA values, inserting phi nodes at the iterated
// dominance frontier of each slot's assignments. Struct- and array-typed
// slots are never promoted: their address is threaded through FieldPtr/
// IndexPtr/structCopy/Call and so always escapes the Load/Store pattern,
// which is exactly the test this pass uses to decide promotability (no
// separate "is this a struct" check is needed).
func Mem2Reg(fn *kir.Function) {
	cfg := BuildCFG(fn)
	dom := ComputeDominance(cfg)

	slots := findPromotableSlots(fn)
	if len(slots) == 0 {
		return
	}

	phiSlot := placePhis(fn, cfg, dom, slots)
	r := &renamer{
		fn: fn, cfg: cfg, dom: dom, slots: slots, phiSlot: phiSlot,
		stacks:  map[kir.VarId][]kir.VarId{},
		replace: map[kir.VarId]kir.VarId{},
		zero:    map[kir.VarId]kir.VarId{},
	}
	children := childrenOf(dom, cfg)
	r.renameBlock(cfg.fn.Entry().ID, children)
	r.rewriteOperands()
	if len(r.pendingZeros) > 0 {
		entry := fn.Entry()
		entry.Instrs = append(append([]kir.Instruction{}, r.pendingZeros...), entry.Instrs...)
	}
}

// findPromotableSlots returns every StackAlloc'd VarId that is used solely
// as the Ptr operand of Load/Store instructions across the whole function.
func findPromotableSlots(fn *kir.Function) map[kir.VarId]*kir.StackAlloc {
	allocs := map[kir.VarId]*kir.StackAlloc{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if sa, ok := instr.(*kir.StackAlloc); ok {
				allocs[sa.DestVar] = sa
			}
		}
	}
	escaped := map[kir.VarId]bool{}
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			switch in := instr.(type) {
			case *kir.StackAlloc:
			case *kir.Load:
				markOperandsExcept(escaped, instr, in.Ptr)
			case *kir.Store:
				markOperandsExcept(escaped, instr, in.Ptr)
			default:
				for _, v := range operandsOf(instr) {
					if v != 0 {
						escaped[v] = true
					}
				}
			}
		}
	}
	out := map[kir.VarId]*kir.StackAlloc{}
	for id, sa := range allocs {
		if !escaped[id] {
			out[id] = sa
		}
	}
	return out
}

func markOperandsExcept(escaped map[kir.VarId]bool, instr kir.Instruction, exempt kir.VarId) {
	for _, v := range operandsOf(instr) {
		if v == exempt || v == 0 {
			continue
		}
		escaped[v] = true
	}
}

// operandsOf returns every VarId an instruction reads (never its Dest).
func operandsOf(instr kir.Instruction) []kir.VarId {
	switch in := instr.(type) {
	case *kir.Load:
		return []kir.VarId{in.Ptr}
	case *kir.Store:
		return []kir.VarId{in.Ptr, in.Value}
	case *kir.BinOp:
		return []kir.VarId{in.Lhs, in.Rhs}
	case *kir.Neg:
		return []kir.VarId{in.X}
	case *kir.Not:
		return []kir.VarId{in.X}
	case *kir.BitNot:
		return []kir.VarId{in.X}
	case *kir.Cast:
		return []kir.VarId{in.Value}
	case *kir.FieldPtr:
		return []kir.VarId{in.Base}
	case *kir.IndexPtr:
		return []kir.VarId{in.Base, in.Index}
	case *kir.BoundsCheck:
		return []kir.VarId{in.Index, in.Length}
	case *kir.Call:
		return in.Args
	case *kir.CallVoid:
		return in.Args
	case *kir.CallExtern:
		return in.Args
	case *kir.CallExternVoid:
		return in.Args
	case *kir.CallThrows:
		args := append([]kir.VarId{}, in.Args...)
		args = append(args, in.OutPtr, in.ErrPtr)
		return args
	case *kir.Move:
		return []kir.VarId{in.Source}
	case *kir.Destroy:
		return []kir.VarId{in.Value}
	case *kir.OnCopy:
		return []kir.VarId{in.Value}
	case *kir.GlobalSet:
		return []kir.VarId{in.Value}
	default:
		return nil
	}
}

func setOperands(instr kir.Instruction, replace map[kir.VarId]kir.VarId) {
	sub := func(v kir.VarId) kir.VarId {
		if v == 0 {
			return v
		}
		if r, ok := replace[v]; ok {
			return r
		}
		return v
	}
	switch in := instr.(type) {
	case *kir.Load:
		in.Ptr = sub(in.Ptr)
	case *kir.Store:
		in.Ptr, in.Value = sub(in.Ptr), sub(in.Value)
	case *kir.BinOp:
		in.Lhs, in.Rhs = sub(in.Lhs), sub(in.Rhs)
	case *kir.Neg:
		in.X = sub(in.X)
	case *kir.Not:
		in.X = sub(in.X)
	case *kir.BitNot:
		in.X = sub(in.X)
	case *kir.Cast:
		in.Value = sub(in.Value)
	case *kir.FieldPtr:
		in.Base = sub(in.Base)
	case *kir.IndexPtr:
		in.Base, in.Index = sub(in.Base), sub(in.Index)
	case *kir.BoundsCheck:
		in.Index, in.Length = sub(in.Index), sub(in.Length)
	case *kir.Call:
		for i, a := range in.Args {
			in.Args[i] = sub(a)
		}
	case *kir.CallVoid:
		for i, a := range in.Args {
			in.Args[i] = sub(a)
		}
	case *kir.CallExtern:
		for i, a := range in.Args {
			in.Args[i] = sub(a)
		}
	case *kir.CallExternVoid:
		for i, a := range in.Args {
			in.Args[i] = sub(a)
		}
	case *kir.CallThrows:
		for i, a := range in.Args {
			in.Args[i] = sub(a)
		}
		in.OutPtr, in.ErrPtr = sub(in.OutPtr), sub(in.ErrPtr)
	case *kir.Move:
		in.Source = sub(in.Source)
	case *kir.Destroy:
		in.Value = sub(in.Value)
	case *kir.OnCopy:
		in.Value = sub(in.Value)
	case *kir.GlobalSet:
		in.Value = sub(in.Value)
	}
}

func setTermOperands(t kir.Terminator, replace map[kir.VarId]kir.VarId) {
	sub := func(v kir.VarId) kir.VarId {
		if v == 0 {
			return v
		}
		if r, ok := replace[v]; ok {
			return r
		}
		return v
	}
	switch tt := t.(type) {
	case *kir.Br:
		tt.Cond = sub(tt.Cond)
	case *kir.Ret:
		tt.Value = sub(tt.Value)
	case *kir.Switch:
		tt.Value = sub(tt.Value)
	}
}

// placePhis runs the standard iterated-dominance-frontier phi placement for
// each promotable slot independently, returning which slot each inserted
// kir.Phi belongs to.
func placePhis(fn *kir.Function, cfg *CFG, dom *Dominance, slots map[kir.VarId]*kir.StackAlloc) map[*kir.Phi]kir.VarId {
	phiSlot := map[*kir.Phi]kir.VarId{}
	for slot, sa := range slots {
		defs := defSites(fn, slot)
		hasPhi := map[string]bool{}
		worklist := append([]string{}, defs...)
		for len(worklist) > 0 {
			b := worklist[0]
			worklist = worklist[1:]
			for _, f := range dom.Frontier(b) {
				if hasPhi[f] {
					continue
				}
				hasPhi[f] = true
				blk := cfg.Block(f)
				phi := &kir.Phi{Dest: fn.NewVar(), Type: sa.Type}
				blk.Phis = append(blk.Phis, phi)
				phiSlot[phi] = slot
				worklist = append(worklist, f)
			}
		}
	}
	return phiSlot
}

func defSites(fn *kir.Function, slot kir.VarId) []string {
	var out []string
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if st, ok := instr.(*kir.Store); ok && st.Ptr == slot {
				out = append(out, b.ID)
				break
			}
		}
	}
	return out
}

func childrenOf(dom *Dominance, cfg *CFG) map[string][]string {
	children := map[string][]string{}
	for _, id := range cfg.ReversePostorder() {
		if p := dom.Idom(id); p != "" {
			children[p] = append(children[p], id)
		}
	}
	return children
}

type renamer struct {
	fn      *kir.Function
	cfg     *CFG
	dom     *Dominance
	slots   map[kir.VarId]*kir.StackAlloc
	phiSlot map[*kir.Phi]kir.VarId

	stacks  map[kir.VarId][]kir.VarId
	replace map[kir.VarId]kir.VarId // removed Load's dest -> resolved value
	zero    map[kir.VarId]kir.VarId // slot -> a memoized zero value for reads with no reaching def

	pendingZeros []kir.Instruction // zero-value consts to prepend to the entry block once renaming finishes
}

func (r *renamer) top(slot kir.VarId) (kir.VarId, bool) {
	st := r.stacks[slot]
	if len(st) == 0 {
		return 0, false
	}
	return st[len(st)-1], true
}

func (r *renamer) resolve(v kir.VarId) kir.VarId {
	if v == 0 {
		return v
	}
	if rv, ok := r.replace[v]; ok {
		return rv
	}
	return v
}

// renameBlock processes one block's phis and instructions, pushing exactly
// the defs this block contributes onto each affected slot's stack, then
// recurses into the block's dominator-tree children, then pops its own
// pushes back off before returning to its own dominator-tree parent.
func (r *renamer) renameBlock(id string, children map[string][]string) {
	blk := r.cfg.Block(id)
	pushed := map[kir.VarId]int{}

	for _, phi := range blk.Phis {
		slot, ok := r.phiSlot[phi]
		if !ok {
			continue
		}
		r.stacks[slot] = append(r.stacks[slot], phi.Dest)
		pushed[slot]++
	}

	kept := blk.Instrs[:0:0]
	for _, instr := range blk.Instrs {
		switch in := instr.(type) {
		case *kir.StackAlloc:
			if _, ok := r.slots[in.DestVar]; ok {
				continue
			}
		case *kir.Store:
			if _, ok := r.slots[in.Ptr]; ok {
				val := r.resolve(in.Value)
				r.stacks[in.Ptr] = append(r.stacks[in.Ptr], val)
				pushed[in.Ptr]++
				continue
			}
		case *kir.Load:
			if sa, ok := r.slots[in.Ptr]; ok {
				val, has := r.top(in.Ptr)
				if !has {
					val = r.zeroFor(in.Ptr, sa)
				}
				r.replace[in.DestVar] = val
				continue
			}
		}
		kept = append(kept, instr)
	}
	blk.Instrs = kept

	for _, succ := range r.cfg.Succs(id) {
		sblk := r.cfg.Block(succ)
		for _, phi := range sblk.Phis {
			slot, ok := r.phiSlot[phi]
			if !ok {
				continue
			}
			val, has := r.top(slot)
			if !has {
				val = r.zeroFor(slot, r.slots[slot])
			}
			phi.Incoming = append(phi.Incoming, kir.PhiIncoming{Value: val, From: id})
		}
	}

	for _, c := range children[id] {
		r.renameBlock(c, children)
	}

	for slot, n := range pushed {
		st := r.stacks[slot]
		r.stacks[slot] = st[:len(st)-n]
	}
}

// zeroFor materializes (once per slot) a default value for a read with no
// reaching store, queued for the function's entry block once renaming
// finishes (see Mem2Reg). This covers a phi operand along an edge on which
// the slot was never stored (phi placement does no liveness pruning) and
// any load with no reaching store, keeping the function well-formed.
func (r *renamer) zeroFor(slot kir.VarId, sa *kir.StackAlloc) kir.VarId {
	if v, ok := r.zero[slot]; ok {
		return v
	}
	d := r.fn.NewVar()
	r.pendingZeros = append(r.pendingZeros, zeroInstr(d, sa.Type))
	r.zero[slot] = d
	return d
}

// zeroInstr builds a default-value instruction matching t's kind, for a
// slot read with no reaching store.
func zeroInstr(d kir.VarId, t *types.Type) kir.Instruction {
	switch t.Kind {
	case types.KFloat:
		return &kir.ConstFloat{DestVar: d, Type: t, Value: 0}
	case types.KBool:
		return &kir.ConstBool{DestVar: d, Value: false}
	case types.KString:
		return &kir.ConstString{DestVar: d, Value: ""}
	case types.KPtr, types.KNull:
		return &kir.ConstNull{DestVar: d, Type: t}
	default:
		return &kir.ConstInt{DestVar: d, Type: t, Value: 0}
	}
}

func (r *renamer) rewriteOperands() {
	for _, b := range r.fn.Blocks {
		for _, phi := range b.Phis {
			for i, in := range phi.Incoming {
				phi.Incoming[i].Value = r.resolve(in.Value)
			}
		}
		for _, instr := range b.Instrs {
			setOperands(instr, r.replace)
		}
		if b.Term != nil {
			setTermOperands(b.Term, r.replace)
		}
	}
}
