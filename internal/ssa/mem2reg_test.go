package ssa

import (
	"testing"

	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// straightLineAlloc builds:
//
//	bb0: %1 = stackalloc i32; store %1, %2(=const 5); %3 = load %1; ret %3
func straightLineAlloc() *kir.Function {
	fn := &kir.Function{Name: "f", Return: types.I32}
	slot := fn.NewVar()  // 1
	five := fn.NewVar()  // 2
	loaded := fn.NewVar() // 3
	entry := &kir.Block{
		ID: "bb0",
		Instrs: []kir.Instruction{
			&kir.StackAlloc{DestVar: slot, Type: types.I32, Name: "x"},
			&kir.ConstInt{DestVar: five, Type: types.I32, Value: 5},
			&kir.Store{Ptr: slot, Value: five},
			&kir.Load{DestVar: loaded, Ptr: slot},
		},
		Term: &kir.Ret{Value: loaded},
	}
	fn.AddBlock(entry)
	return fn
}

func TestMem2RegEliminatesStackAllocLoadStore(t *testing.T) {
	fn := straightLineAlloc()
	Mem2Reg(fn)

	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			switch instr.(type) {
			case *kir.StackAlloc, *kir.Load, *kir.Store:
				t.Fatalf("mem2reg left a %T in block %s", instr, b.ID)
			}
		}
	}
	ret, ok := fn.Blocks[len(fn.Blocks)-1].Term.(*kir.Ret)
	if !ok {
		t.Fatalf("expected final terminator to be Ret")
	}
	if ret.Value == 0 {
		t.Fatalf("expected ret to carry a resolved value, got invalid VarId")
	}
}

// diamondWithAlloc builds a diamond CFG where a stack slot is stored on
// both branches with different values, so mem2reg must insert a phi at the
// join block.
func diamondWithAlloc() (*kir.Function, kir.VarId) {
	fn := &kir.Function{Name: "branchy", Return: types.I32}
	slot := fn.NewVar()
	cond := fn.NewVar()
	ten := fn.NewVar()
	twenty := fn.NewVar()
	loaded := fn.NewVar()

	entry := &kir.Block{
		ID: "bb0",
		Instrs: []kir.Instruction{
			&kir.StackAlloc{DestVar: slot, Type: types.I32, Name: "x"},
			&kir.ConstBool{DestVar: cond, Value: true},
		},
		Term: &kir.Br{Cond: cond, Then: "bb1", Else: "bb2"},
	}
	left := &kir.Block{
		ID: "bb1",
		Instrs: []kir.Instruction{
			&kir.ConstInt{DestVar: ten, Type: types.I32, Value: 10},
			&kir.Store{Ptr: slot, Value: ten},
		},
		Term: &kir.Jump{Target: "bb3"},
	}
	right := &kir.Block{
		ID: "bb2",
		Instrs: []kir.Instruction{
			&kir.ConstInt{DestVar: twenty, Type: types.I32, Value: 20},
			&kir.Store{Ptr: slot, Value: twenty},
		},
		Term: &kir.Jump{Target: "bb3"},
	}
	exit := &kir.Block{
		ID:     "bb3",
		Instrs: []kir.Instruction{&kir.Load{DestVar: loaded, Ptr: slot}},
		Term:   &kir.Ret{Value: loaded},
	}
	fn.AddBlock(entry)
	fn.AddBlock(left)
	fn.AddBlock(right)
	fn.AddBlock(exit)
	return fn, loaded
}

func TestMem2RegInsertsPhiAtJoinBlock(t *testing.T) {
	fn, _ := diamondWithAlloc()
	Mem2Reg(fn)

	exit := fn.Block("bb3")
	if exit == nil {
		t.Fatalf("exit block bb3 missing after mem2reg")
	}
	if len(exit.Phis) != 1 {
		t.Fatalf("expected exactly one phi at the join block, got %d", len(exit.Phis))
	}
	phi := exit.Phis[0]
	if len(phi.Incoming) != 2 {
		t.Fatalf("expected phi to have 2 incoming edges, got %d", len(phi.Incoming))
	}
	ret, ok := exit.Term.(*kir.Ret)
	if !ok {
		t.Fatalf("expected exit block to end in Ret")
	}
	if ret.Value != phi.Dest {
		t.Errorf("expected ret to return the phi's value (%v), got %v", phi.Dest, ret.Value)
	}
}

func TestMem2RegIsIdempotent(t *testing.T) {
	fn, _ := diamondWithAlloc()
	Mem2Reg(fn)
	firstBlockCount := len(fn.Blocks)
	var firstPhiCounts []int
	for _, b := range fn.Blocks {
		firstPhiCounts = append(firstPhiCounts, len(b.Phis))
	}

	Mem2Reg(fn)
	if len(fn.Blocks) != firstBlockCount {
		t.Fatalf("second mem2reg run changed block count: %d vs %d", len(fn.Blocks), firstBlockCount)
	}
	for i, b := range fn.Blocks {
		if len(b.Phis) != firstPhiCounts[i] {
			t.Errorf("second mem2reg run changed phi count at block %d: %d vs %d", i, len(b.Phis), firstPhiCounts[i])
		}
	}
}

func TestMem2RegLeavesStructSlotsUnpromoted(t *testing.T) {
	structType := &types.Type{Kind: types.KStruct, Name: "Point"}
	fn := &kir.Function{Name: "g", Return: types.I32}
	slot := fn.NewVar()
	fieldPtr := fn.NewVar()
	field := fn.NewVar()

	entry := &kir.Block{
		ID: "bb0",
		Instrs: []kir.Instruction{
			&kir.StackAlloc{DestVar: slot, Type: structType, Name: "p"},
			&kir.FieldPtr{DestVar: fieldPtr, Base: slot, Field: "x"},
			&kir.Load{DestVar: field, Ptr: fieldPtr},
		},
		Term: &kir.Ret{Value: field},
	}
	fn.AddBlock(entry)

	Mem2Reg(fn)

	var foundAlloc bool
	for _, instr := range fn.Blocks[0].Instrs {
		if _, ok := instr.(*kir.StackAlloc); ok {
			foundAlloc = true
		}
	}
	if !foundAlloc {
		t.Fatalf("struct-typed slot should not be promoted away (its address escapes via FieldPtr)")
	}
}
