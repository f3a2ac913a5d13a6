// Package types is the checker's internal type system: a sum type over
// primitive, nominal, and structural kei types, plus the symbol table and
// lexical scope machinery the semantic checker builds on.
package types

import (
	"fmt"
	"strings"
)

// Kind tags which case of the Type sum a value holds.
type Kind int

const (
	KInt Kind = iota
	KFloat
	KBool
	KVoid
	KString
	KNull
	KCChar
	KError
	KStruct
	KEnum
	KFunction
	KPtr
	KArray
	KSlice
	KRange
	KTypeParam
	KModule
)

// Field is one struct field or enum-variant payload slot.
type Field struct {
	Name string
	Type *Type
}

// EnumVariant is one case of an Enum type: an optional explicit discriminant
// value and, for data variants, an ordered list of payload field types.
type EnumVariant struct {
	Name   string
	Value  *int64 // explicit discriminant, nil if auto-assigned
	Fields []*Type
}

// Param describes one function parameter's type-relevant attributes.
type Param struct {
	Name   string
	Type   *Type
	IsMut  bool
	IsMove bool
}

// Type is the checker's internal representation of a kei type. Exactly one
// of the Kind-tagged fields is meaningful for a given Kind, mirroring the
// source language's own tagged-union discipline.
type Type struct {
	Kind Kind

	// Int
	Bits   int
	Signed bool

	// Struct / Enum
	Name      string
	Fields    []Field
	Methods   map[string]*Type // name -> Function type
	HasDtor   bool
	HasOnCopy bool
	Variants  []EnumVariant
	BaseType  *Type // Enum's backing Int type

	// Function
	Params      []Param
	Return      *Type
	ThrowsTypes []*Type // each a Struct type, in declared order

	// Ptr / Array / Slice / Range
	Elem   *Type
	Length int64

	// TypeParam
	// Name (above) holds the parameter name.

	// Module
	// Name (above) holds the dotted module path.
}

// Canonical primitive singletons. Structs/enums/functions/ptrs/etc. are
// constructed fresh since they carry identity-relevant fields.
var (
	I8    = &Type{Kind: KInt, Bits: 8, Signed: true}
	I16   = &Type{Kind: KInt, Bits: 16, Signed: true}
	I32   = &Type{Kind: KInt, Bits: 32, Signed: true} // canonical "int"
	I64   = &Type{Kind: KInt, Bits: 64, Signed: true}
	U8    = &Type{Kind: KInt, Bits: 8, Signed: false}
	U16   = &Type{Kind: KInt, Bits: 16, Signed: false}
	U32   = &Type{Kind: KInt, Bits: 32, Signed: false}
	U64   = &Type{Kind: KInt, Bits: 64, Signed: false} // canonical "usize"
	F32   = &Type{Kind: KFloat, Bits: 32}
	F64   = &Type{Kind: KFloat, Bits: 64} // canonical "double"
	Bool  = &Type{Kind: KBool}
	Void  = &Type{Kind: KVoid}
	Str   = &Type{Kind: KString}
	Null  = &Type{Kind: KNull}
	CChar = &Type{Kind: KCChar}
	Err   = &Type{Kind: KError}
)

// ISize and USize are aliases for I64/U64 per spec.md's "usize is u64".
var (
	ISize = I64
	USize = U64
)

// Primitives maps every source-level primitive type name to its Type.
var Primitives = map[string]*Type{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64, "int": I32,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64,
	"isize": ISize, "usize": USize,
	"f32": F32, "f64": F64, "double": F64,
	"bool": Bool, "void": Void, "string": Str, "cchar": CChar,
}

func Ptr(elem *Type) *Type           { return &Type{Kind: KPtr, Elem: elem} }
func Array(elem *Type, n int64) *Type { return &Type{Kind: KArray, Elem: elem, Length: n} }
func Slice(elem *Type) *Type         { return &Type{Kind: KSlice, Elem: elem} }
func Range(elem *Type) *Type         { return &Type{Kind: KRange, Elem: elem} }
func TypeParam(name string) *Type    { return &Type{Kind: KTypeParam, Name: name} }
func Module(dotted string) *Type     { return &Type{Kind: KModule, Name: dotted} }

// IntRange returns the inclusive [min,max] representable by an Int type.
func IntRange(t *Type) (min, max int64) {
	if t.Kind != KInt {
		return 0, 0
	}
	if t.Signed {
		max = int64(1)<<(uint(t.Bits)-1) - 1
		min = -(int64(1) << (uint(t.Bits) - 1))
		return
	}
	if t.Bits >= 64 {
		return 0, 1<<63 - 1 // u64 max doesn't fit in int64; report the signed ceiling
	}
	return 0, int64(1)<<uint(t.Bits) - 1
}

// String renders a Type the way kei source would spell it, for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KInt:
		sign := "i"
		if !t.Signed {
			sign = "u"
		}
		return fmt.Sprintf("%s%d", sign, t.Bits)
	case KFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case KBool:
		return "bool"
	case KVoid:
		return "void"
	case KString:
		return "string"
	case KNull:
		return "null"
	case KCChar:
		return "cchar"
	case KError:
		return "<error>"
	case KStruct:
		return t.Name
	case KEnum:
		return t.Name
	case KFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.Type.String()
		}
		ret := "void"
		if t.Return != nil {
			ret = t.Return.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), ret)
	case KPtr:
		return "*" + t.Elem.String()
	case KArray:
		return fmt.Sprintf("[%s; %d]", t.Elem.String(), t.Length)
	case KSlice:
		return "[]" + t.Elem.String()
	case KRange:
		return "range<" + t.Elem.String() + ">"
	case KTypeParam:
		return t.Name
	case KModule:
		return "module " + t.Name
	default:
		return "?"
	}
}

// IsNumeric reports whether t is an Int or Float.
func (t *Type) IsNumeric() bool { return t.Kind == KInt || t.Kind == KFloat }

// Equal reports structural equality per spec.md §3: shape for primitives,
// name for struct/enum, substituted-shape for Function.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KInt:
		return a.Bits == b.Bits && a.Signed == b.Signed
	case KFloat:
		return a.Bits == b.Bits
	case KBool, KVoid, KString, KNull, KCChar, KError:
		return true
	case KStruct, KEnum:
		return a.Name == b.Name
	case KFunction:
		if len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i].Type, b.Params[i].Type) {
				return false
			}
		}
		return true
	case KPtr, KSlice, KRange:
		return Equal(a.Elem, b.Elem)
	case KArray:
		return a.Length == b.Length && Equal(a.Elem, b.Elem)
	case KTypeParam:
		return a.Name == b.Name
	case KModule:
		return a.Name == b.Name
	default:
		return false
	}
}

// Assignable reports whether a value of type source can be assigned to a
// variable of type target, per spec.md §4.3's non-literal assignability
// rules (literal coercion is handled separately by assignableLiteral).
func Assignable(source, target *Type) bool {
	if source.Kind == KError || target.Kind == KError {
		return true
	}
	if Equal(source, target) {
		return true
	}
	if source.Kind == KNull && target.Kind == KPtr {
		return true
	}
	return false
}

// OperatorMethodName maps a source-level operator token to the struct
// method name spec.md §4.3 "Operator overloading" binds it to.
var OperatorMethodName = map[string]string{
	"+": "op_add", "-": "op_sub", "*": "op_mul", "/": "op_div", "%": "op_mod",
	"==": "op_eq", "!=": "op_neq", "<": "op_lt", "<=": "op_le", ">": "op_gt", ">=": "op_ge",
	"&": "op_and", "|": "op_or", "^": "op_xor", "<<": "op_shl", ">>": "op_shr",
	"[]": "op_index", "[]=": "op_index_set",
}

// UnaryOperatorMethodName maps a unary operator token to its method name.
var UnaryOperatorMethodName = map[string]string{
	"-": "op_neg", "!": "op_not", "~": "op_bit_not",
}

// Mangle produces the stable overload-disambiguation suffix spec.md §4.3
// describes: "foo__i32_string" for a function foo(i32, string).
func Mangle(base string, params []Param) string {
	if len(params) == 0 {
		return base
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = sanitizeForMangle(p.Type.String())
	}
	return base + "__" + strings.Join(parts, "_")
}

// MonomorphizationName produces the mangled name for a generic instantiation
// per spec.md §4.3: "<name>_<argName>_<argName>...".
func MonomorphizationName(generic string, args []*Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = sanitizeForMangle(a.String())
	}
	return generic + "_" + strings.Join(parts, "_")
}

func sanitizeForMangle(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
