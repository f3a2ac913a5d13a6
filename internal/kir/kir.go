// Package kir is kei's typed, basic-block intermediate representation: the
// lowerer's output and the SSA passes' input/output. Every node is a tagged
// variant dispatched by Go type switch, mirroring the surface ast package
// rather than a base-class hierarchy.
package kir

import (
	"fmt"

	"github.com/keilang/kei/internal/types"
)

// VarId is a per-function opaque local identifier. Zero is the invalid/void
// id, used by instructions and terminators that produce no value.
type VarId uint32

func (v VarId) String() string { return fmt.Sprintf("%%%d", uint32(v)) }
func (v VarId) Valid() bool    { return v != 0 }

// Module is the fully merged, whole-program KIR unit the lowerer produces
// and the emitter consumes.
type Module struct {
	Name      string
	Types     []*TypeDecl
	Externs   []*Extern
	Globals   []*Global
	Functions []*Function
}

// TypeDecl names a struct or enum type that must get a C type declaration.
type TypeDecl struct {
	Name string
	Type *types.Type
}

// Extern is a C-linkage declaration merged in from one or more modules;
// spec.md §4.5 "Extern deduplication" keeps one per name.
type Extern struct {
	Name  string
	IsVar bool
	Sig   *types.Type // Function type for a function extern; element type for a var extern
}

// Global is a module-scoped let/const lowered to a C global.
type Global struct {
	Name    string
	Type    *types.Type
	IsConst bool
	Init    Instruction // a const_* instruction producing the initial value, or nil for zero-init
}

// Param is one function parameter: a name plus its KIR type, installed as a
// local at function entry.
type Param struct {
	Name string
	Type *types.Type
}

// Function is one lowered function: a fresh VarId counter, parameters, and
// an ordered list of blocks whose first element is the entry block.
type Function struct {
	Name       string
	Params     []Param
	Return     *types.Type
	Blocks     []*Block
	nextVar    uint32
	nextBlock  int
}

// NewVar allocates a fresh VarId, unique within this function.
func (f *Function) NewVar() VarId {
	f.nextVar++
	return VarId(f.nextVar)
}

// NewBlockID allocates a fresh, stable block id of the form "bb<N>".
func (f *Function) NewBlockID() string {
	id := fmt.Sprintf("bb%d", f.nextBlock)
	f.nextBlock++
	return id
}

// AddBlock appends a block to the function, in emission order.
func (f *Function) AddBlock(b *Block) { f.Blocks = append(f.Blocks, b) }

// Block returns the block with the given id, or nil.
func (f *Function) Block(id string) *Block {
	for _, b := range f.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// Entry returns the function's entry block (the first in Blocks), or nil
// for an empty function.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Block is one basic block: phis (empty until mem2reg runs, empty again
// after de-SSA), instructions, and exactly one terminator.
type Block struct {
	ID     string
	Phis   []*Phi
	Instrs []Instruction
	Term   Terminator
}

// PhiIncoming records one predecessor's contribution to a phi: the value
// live at From's exit, and From's block id.
type PhiIncoming struct {
	Value VarId
	From  string
}

// Phi is a mem2reg-inserted merge point; Block.Phis is empty both before
// mem2reg runs and after de-SSA lowers them away.
type Phi struct {
	Dest     VarId
	Type     *types.Type
	Incoming []PhiIncoming
}

// Instruction is any destination-carrying or side-effecting operation
// within a block. Dest returns the invalid VarId (0) for instructions that
// produce no value.
type Instruction interface {
	Dest() VarId
	instrNode()
}
