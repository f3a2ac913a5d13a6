package ssa

import (
	"testing"

	"github.com/keilang/kei/internal/kir"
)

func TestDeSSAInsertsCopyInEachPredecessorAndClearsPhis(t *testing.T) {
	fn, _ := diamondWithAlloc()
	Mem2Reg(fn)
	exit := fn.Block("bb3")
	if len(exit.Phis) != 1 {
		t.Fatalf("setup failed: expected one phi before de-SSA, got %d", len(exit.Phis))
	}

	DeSSA(fn)

	for _, b := range fn.Blocks {
		if len(b.Phis) != 0 {
			t.Errorf("block %s still has phis after de-SSA", b.ID)
		}
	}

	left := fn.Block("bb1")
	right := fn.Block("bb2")
	if !endsWithCastBeforeTerm(left) {
		t.Errorf("expected predecessor bb1 to gain a copy instruction before its terminator")
	}
	if !endsWithCastBeforeTerm(right) {
		t.Errorf("expected predecessor bb2 to gain a copy instruction before its terminator")
	}
}

func endsWithCastBeforeTerm(b *kir.Block) bool {
	if len(b.Instrs) == 0 {
		return false
	}
	_, ok := b.Instrs[len(b.Instrs)-1].(*kir.Cast)
	return ok
}

func TestDeSSAIsIdempotent(t *testing.T) {
	fn, _ := diamondWithAlloc()
	Mem2Reg(fn)
	DeSSA(fn)

	var counts []int
	for _, b := range fn.Blocks {
		counts = append(counts, len(b.Instrs))
	}

	DeSSA(fn)
	for i, b := range fn.Blocks {
		if len(b.Instrs) != counts[i] {
			t.Errorf("second de-SSA run changed instruction count at block %d: %d vs %d", i, len(b.Instrs), counts[i])
		}
	}
}

// TestSequentializeBreaksSwapCycle exercises the two-phi swap case directly:
// bb0 and bb1 exchange their values of %a and %b on the way into bb2, which
// requires a temporary to avoid clobbering one before the other reads it.
func TestSequentializeBreaksSwapCycle(t *testing.T) {
	fn := &kir.Function{Name: "swap", Return: nil}
	a := fn.NewVar() // 1: phi dest
	b := fn.NewVar() // 2: phi dest
	copies := []copyPair{
		{dest: a, src: b},
		{dest: b, src: a},
	}
	instrs := sequentialize(copies, fn)

	if len(instrs) != 3 {
		t.Fatalf("expected a swap to lower to 3 copies (one temporary), got %d", len(instrs))
	}
	seenDest := map[kir.VarId]bool{}
	for _, instr := range instrs {
		c, ok := instr.(*kir.Cast)
		if !ok {
			t.Fatalf("expected every sequentialized copy to be a Cast, got %T", instr)
		}
		seenDest[c.DestVar] = true
	}
	if !seenDest[a] || !seenDest[b] {
		t.Errorf("expected both original destinations %v and %v to be written", a, b)
	}
}

func TestSequentializeDropsNoOpCopies(t *testing.T) {
	fn := &kir.Function{Name: "noop", Return: nil}
	v := fn.NewVar()
	instrs := sequentialize([]copyPair{{dest: v, src: v}}, fn)
	if len(instrs) != 0 {
		t.Fatalf("expected a self-copy to be dropped entirely, got %d instructions", len(instrs))
	}
}
