package ssa

import (
	"testing"

	"github.com/keilang/kei/internal/kir"
)

// diamond builds a 4-block diamond CFG: entry branches to left/right, both
// join at exit.
//
//	entry -> left  -> exit
//	      -> right ->
func diamond() *kir.Function {
	fn := &kir.Function{Name: "diamond", Return: nil}
	entry := &kir.Block{ID: "bb0", Term: &kir.Br{Cond: 1, Then: "bb1", Else: "bb2"}}
	left := &kir.Block{ID: "bb1", Term: &kir.Jump{Target: "bb3"}}
	right := &kir.Block{ID: "bb2", Term: &kir.Jump{Target: "bb3"}}
	exit := &kir.Block{ID: "bb3", Term: &kir.Ret{}}
	fn.AddBlock(entry)
	fn.AddBlock(left)
	fn.AddBlock(right)
	fn.AddBlock(exit)
	return fn
}

func TestBuildCFGPredsAndSuccs(t *testing.T) {
	fn := diamond()
	cfg := BuildCFG(fn)

	if got := cfg.Succs("bb0"); len(got) != 2 {
		t.Fatalf("expected 2 successors of bb0, got %v", got)
	}
	preds := cfg.Preds("bb3")
	if len(preds) != 2 {
		t.Fatalf("expected 2 predecessors of bb3, got %v", preds)
	}
	if len(cfg.Preds("bb0")) != 0 {
		t.Fatalf("entry block should have no predecessors")
	}
}

func TestBuildCFGReversePostorderVisitsEntryFirst(t *testing.T) {
	fn := diamond()
	cfg := BuildCFG(fn)
	order := cfg.ReversePostorder()
	if len(order) == 0 || order[0] != "bb0" {
		t.Fatalf("expected entry block first in reverse postorder, got %v", order)
	}
	seen := map[string]bool{}
	for _, id := range order {
		if seen[id] {
			t.Fatalf("block %s appears twice in reverse postorder", id)
		}
		seen[id] = true
	}
	if len(order) != 4 {
		t.Fatalf("expected all 4 reachable blocks, got %v", order)
	}
}

func TestBuildCFGDropsUnreachableBlocks(t *testing.T) {
	fn := diamond()
	// an unreachable block with no predecessor anywhere in the CFG.
	fn.AddBlock(&kir.Block{ID: "bb4", Term: &kir.Ret{}})

	cfg := BuildCFG(fn)
	order := cfg.ReversePostorder()
	for _, id := range order {
		if id == "bb4" {
			t.Fatalf("unreachable block bb4 should not appear in reverse postorder")
		}
	}
}
