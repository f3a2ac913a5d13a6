package kir

import "github.com/keilang/kei/internal/types"

// Every instruction embeds a DestVar of 0 (invalid) unless it produces a
// value, matching spec.md §3's "destination-carrying variants set a VarId".

type ConstInt struct {
	DestVar VarId
	Type    *types.Type
	Value   int64
}

func (i *ConstInt) Dest() VarId { return i.DestVar }
func (i *ConstInt) instrNode()  {}

type ConstFloat struct {
	DestVar VarId
	Type    *types.Type
	Value   float64
}

func (i *ConstFloat) Dest() VarId { return i.DestVar }
func (i *ConstFloat) instrNode()  {}

type ConstBool struct {
	DestVar VarId
	Value   bool
}

func (i *ConstBool) Dest() VarId { return i.DestVar }
func (i *ConstBool) instrNode()  {}

type ConstString struct {
	DestVar VarId
	Value   string
}

func (i *ConstString) Dest() VarId { return i.DestVar }
func (i *ConstString) instrNode()  {}

type ConstNull struct {
	DestVar VarId
	Type    *types.Type // the pointee type of the null pointer
}

func (i *ConstNull) Dest() VarId { return i.DestVar }
func (i *ConstNull) instrNode()  {}

// StackAlloc reserves storage for a local of Type, producing a Ptr(Type)
// value in DestVar.
type StackAlloc struct {
	DestVar VarId
	Type    *types.Type
	Name    string // source-level name, for readable C locals
}

func (i *StackAlloc) Dest() VarId { return i.DestVar }
func (i *StackAlloc) instrNode()  {}

type Load struct {
	DestVar VarId
	Ptr     VarId
	Type    *types.Type
}

func (i *Load) Dest() VarId { return i.DestVar }
func (i *Load) instrNode()  {}

// Store writes Value through Ptr. It produces no value.
type Store struct {
	Ptr   VarId
	Value VarId
}

func (i *Store) Dest() VarId { return 0 }
func (i *Store) instrNode()  {}

type BinOp struct {
	DestVar     VarId
	Op          string
	Lhs, Rhs    VarId
	Type        *types.Type // result type
	OperandType *types.Type // operand type, when it differs from Type (e.g. comparisons)
}

func (i *BinOp) Dest() VarId { return i.DestVar }
func (i *BinOp) instrNode()  {}

type Neg struct {
	DestVar VarId
	X       VarId
	Type    *types.Type
}

func (i *Neg) Dest() VarId { return i.DestVar }
func (i *Neg) instrNode()  {}

type Not struct {
	DestVar VarId
	X       VarId
}

func (i *Not) Dest() VarId { return i.DestVar }
func (i *Not) instrNode()  {}

type BitNot struct {
	DestVar VarId
	X       VarId
	Type    *types.Type
}

func (i *BitNot) Dest() VarId { return i.DestVar }
func (i *BitNot) instrNode()  {}

type Cast struct {
	DestVar VarId
	Value   VarId
	Target  *types.Type
}

func (i *Cast) Dest() VarId { return i.DestVar }
func (i *Cast) instrNode()  {}

type Sizeof struct {
	DestVar VarId
	Type    *types.Type
}

func (i *Sizeof) Dest() VarId { return i.DestVar }
func (i *Sizeof) instrNode()  {}

// FieldPtr computes the address of a struct field, producing Ptr(fieldType).
type FieldPtr struct {
	DestVar VarId
	Base    VarId
	Struct  *types.Type
	Field   string
	Type    *types.Type // field's type
}

func (i *FieldPtr) Dest() VarId { return i.DestVar }
func (i *FieldPtr) instrNode()  {}

// IndexPtr computes the address of array/slice element Index, producing
// Ptr(elementType).
type IndexPtr struct {
	DestVar VarId
	Base    VarId
	Index   VarId
	Type    *types.Type // element type
}

func (i *IndexPtr) Dest() VarId { return i.DestVar }
func (i *IndexPtr) instrNode()  {}

// BoundsCheck prints "index out of bounds" to stderr and aborts at runtime if
// Index >= Length. No value.
type BoundsCheck struct {
	Index  VarId
	Length VarId
}

func (i *BoundsCheck) Dest() VarId { return 0 }
func (i *BoundsCheck) instrNode()  {}

type Call struct {
	DestVar VarId
	Func    string
	Args    []VarId
	Type    *types.Type
}

func (i *Call) Dest() VarId { return i.DestVar }
func (i *Call) instrNode()  {}

type CallVoid struct {
	Func string
	Args []VarId
}

func (i *CallVoid) Dest() VarId { return 0 }
func (i *CallVoid) instrNode()  {}

type CallExtern struct {
	DestVar VarId
	Func    string
	Args    []VarId
	Type    *types.Type
}

func (i *CallExtern) Dest() VarId { return i.DestVar }
func (i *CallExtern) instrNode()  {}

type CallExternVoid struct {
	Func string
	Args []VarId
}

func (i *CallExternVoid) Dest() VarId { return 0 }
func (i *CallExternVoid) instrNode()  {}

// CallThrows invokes a throwing function under the error-return calling
// convention (spec.md §4.5): the tag is returned as DestVar; OutPtr and
// ErrPtr are stack-alloced buffers the caller owns.
type CallThrows struct {
	DestVar    VarId // i32 tag
	Func       string
	Args       []VarId
	OutPtr     VarId // valid unless SuccessType is void
	ErrPtr     VarId
	SuccessType *types.Type
	ErrorTypes  []*types.Type // the callee's declared throws list, in tag order
}

func (i *CallThrows) Dest() VarId { return i.DestVar }
func (i *CallThrows) instrNode()  {}

// Move marks Source as relocated into DestVar; the lowerer's movedVars
// tracking skips the source's destroy at scope exit.
type Move struct {
	DestVar VarId
	Source  VarId
	Type    *types.Type
}

func (i *Move) Dest() VarId { return i.DestVar }
func (i *Move) instrNode()  {}

// Destroy calls a struct's __destroy hook on Value. No value produced.
type Destroy struct {
	Value      VarId
	StructName string
}

func (i *Destroy) Dest() VarId { return 0 }
func (i *Destroy) instrNode()  {}

// OnCopy calls a struct's __oncopy hook on Value after it was stored into a
// new location by value. No value produced.
type OnCopy struct {
	Value      VarId
	StructName string
}

func (i *OnCopy) Dest() VarId { return 0 }
func (i *OnCopy) instrNode()  {}

// ParamRef reads the value of the function's Index'th incoming parameter.
// The lowerer emits exactly one per parameter at function entry. A source
// parameter's value is stored straight into that parameter's stack-alloc'd
// local (spec.md §4.5 "parameters are installed as locals"); a throwing
// function's trailing __out/__err pointers are kept as plain values.
type ParamRef struct {
	DestVar VarId
	Index   int
	Type    *types.Type
}

func (i *ParamRef) Dest() VarId { return i.DestVar }
func (i *ParamRef) instrNode()  {}

// GlobalRef reads the current value of a module-scope global or extern
// variable, named the way the emitter will declare it at C file scope.
type GlobalRef struct {
	DestVar VarId
	Name    string
	Type    *types.Type
}

func (i *GlobalRef) Dest() VarId { return i.DestVar }
func (i *GlobalRef) instrNode()  {}

// GlobalSet writes Value into a module-scope global or extern variable.
type GlobalSet struct {
	Name  string
	Value VarId
}

func (i *GlobalSet) Dest() VarId { return 0 }
func (i *GlobalSet) instrNode()  {}
