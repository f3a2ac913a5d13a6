package kir

import (
	"testing"

	"github.com/keilang/kei/internal/types"
)

func TestFunctionVarAndBlockAllocation(t *testing.T) {
	f := &Function{Name: "add", Return: types.I32}
	entry := f.NewBlockID()
	if entry != "bb0" {
		t.Errorf("expected first block id bb0, got %s", entry)
	}
	v1 := f.NewVar()
	v2 := f.NewVar()
	if v1 == v2 || !v1.Valid() || !v2.Valid() {
		t.Errorf("expected distinct valid var ids, got %v %v", v1, v2)
	}
	if VarId(0).Valid() {
		t.Errorf("expected VarId(0) to be invalid")
	}
}

func TestFunctionEntryAndBlockLookup(t *testing.T) {
	f := &Function{Name: "f"}
	b0 := &Block{ID: f.NewBlockID(), Term: &RetVoid{}}
	b1 := &Block{ID: f.NewBlockID(), Term: &RetVoid{}}
	f.AddBlock(b0)
	f.AddBlock(b1)
	if f.Entry() != b0 {
		t.Errorf("expected entry to be the first added block")
	}
	if f.Block(b1.ID) != b1 {
		t.Errorf("expected Block lookup by id to find b1")
	}
	if f.Block("missing") != nil {
		t.Errorf("expected lookup of a missing id to return nil")
	}
}

func TestInstructionDestAndTerminatorSuccessors(t *testing.T) {
	ci := &ConstInt{DestVar: 1, Type: types.I32, Value: 42}
	if ci.Dest() != 1 {
		t.Errorf("expected ConstInt.Dest() == 1")
	}
	st := &Store{Ptr: 2, Value: 1}
	if st.Dest().Valid() {
		t.Errorf("expected Store to produce no value")
	}

	br := &Br{Cond: 1, Then: "bb1", Else: "bb2"}
	succ := br.Successors()
	if len(succ) != 2 || succ[0] != "bb1" || succ[1] != "bb2" {
		t.Errorf("unexpected Br successors: %v", succ)
	}

	sw := &Switch{Value: 1, Cases: []SwitchCase{{Value: 0, Target: "bb1"}}, Default: "bb2"}
	succ = sw.Successors()
	if len(succ) != 2 || succ[1] != "bb2" {
		t.Errorf("unexpected Switch successors: %v", succ)
	}

	if (&Ret{Value: 1}).Successors() != nil {
		t.Errorf("expected Ret to have no successors")
	}
}
