// Package emit is kei's C backend (C10): a deterministic, prose-style
// translation of a post-de-SSA kir.Module into portable C, grounded on
// spec.md §4.7 exactly (type decls, externs/globals, prototypes, one C
// local per KIR VarId, labeled blocks with a trailing `;` after the entry
// label).
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// Emit renders m as a single C translation unit.
func Emit(m *kir.Module) string {
	var b strings.Builder
	b.WriteString("/* generated by keic; do not edit */\n")
	b.WriteString("#include <stdint.h>\n#include <stddef.h>\n#include <stdbool.h>\n#include <stdio.h>\n#include <stdlib.h>\n\n")
	b.WriteString("typedef struct kei_string { const char *data; size_t len; } kei_string;\n")
	b.WriteString("int kei_string_eq(kei_string a, kei_string b);\n")
	b.WriteString("kei_string kei_string_concat(kei_string a, kei_string b);\n")
	b.WriteString("_Noreturn void kei_panic(const char *msg);\n\n")

	e := &emitter{out: &b}
	e.emitTypeDecls(m.Types)
	e.emitExterns(m.Externs)
	e.emitGlobals(m.Globals)
	e.emitPrototypes(m.Functions)
	for _, fn := range m.Functions {
		e.emitFunction(fn)
	}
	return b.String()
}

type emitter struct {
	out       *strings.Builder
	hiddenOut bool // true while emitting a function whose struct return uses the hidden-output-pointer convention
}

func (e *emitter) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.out, format, args...)
}

// ---- type declarations ----

func (e *emitter) emitTypeDecls(decls []*kir.TypeDecl) {
	for _, d := range decls {
		if d.Type.Kind == types.KEnum {
			e.emitEnumDecl(d.Name, d.Type)
		} else {
			e.emitStructDecl(d.Name, d.Type)
		}
	}
	e.printf("\n")
}

// emitStructDecl prints `struct Name { field; ... };`.
func (e *emitter) emitStructDecl(name string, t *types.Type) {
	e.printf("typedef struct %s {\n", Sanitize(name))
	for _, f := range t.Fields {
		e.printf("    %s;\n", declare(f.Type, Sanitize(f.Name)))
	}
	if len(t.Fields) == 0 {
		e.printf("    char __unused;\n")
	}
	e.printf("} %s;\n\n", Sanitize(name))
}

// emitEnumDecl prints a payload-free enum as a plain C enum, and any other
// enum as a tagged-union layout: a `tag` field plus one
// synthetic field per payload slot across every data-carrying variant
// (internal/lower's flat "<Variant>_<i>" naming, see DESIGN.md), rather
// than a real overlapping C union, trading memory density for the
// simplicity of reusing ordinary struct field access uniformly.
func (e *emitter) emitEnumDecl(name string, t *types.Type) {
	if !enumHasPayload(t) {
		e.printf("typedef enum %s {\n", Sanitize(name))
		for i, v := range t.Variants {
			val := int64(i)
			if v.Value != nil {
				val = *v.Value
			}
			e.printf("    %s_%s = %d,\n", Sanitize(name), Sanitize(v.Name), val)
		}
		e.printf("} %s;\n\n", Sanitize(name))
		return
	}
	e.printf("typedef struct %s {\n", Sanitize(name))
	e.printf("    int32_t tag;\n")
	for _, v := range t.Variants {
		for i, ft := range v.Fields {
			field := fmt.Sprintf("%s_%d", v.Name, i)
			e.printf("    %s;\n", declare(ft, Sanitize(field)))
		}
	}
	e.printf("} %s;\n\n", Sanitize(name))
}

func enumHasPayload(t *types.Type) bool {
	for _, v := range t.Variants {
		if len(v.Fields) > 0 {
			return true
		}
	}
	return false
}

// ---- externs / globals ----

func (e *emitter) emitExterns(externs []*kir.Extern) {
	for _, ex := range externs {
		if ex.IsVar {
			e.printf("extern %s;\n", declare(ex.Sig, Sanitize(ex.Name)))
			continue
		}
		e.printf("extern %s;\n", funcProto(ex.Name, ex.Sig))
	}
	if len(externs) > 0 {
		e.printf("\n")
	}
}

func (e *emitter) emitGlobals(globals []*kir.Global) {
	for _, g := range globals {
		qualifier := ""
		if g.IsConst {
			qualifier = "const "
		}
		if g.Init == nil {
			e.printf("%s%s;\n", qualifier, declare(g.Type, Sanitize(g.Name)))
			continue
		}
		e.printf("%s%s = %s;\n", qualifier, declare(g.Type, Sanitize(g.Name)), constLiteral(g.Init))
	}
	if len(globals) > 0 {
		e.printf("\n")
	}
}

func constLiteral(instr kir.Instruction) string {
	switch in := instr.(type) {
	case *kir.ConstInt:
		return fmt.Sprintf("%d", in.Value)
	case *kir.ConstFloat:
		return fmt.Sprintf("%v", in.Value)
	case *kir.ConstBool:
		if in.Value {
			return "true"
		}
		return "false"
	case *kir.ConstString:
		return fmt.Sprintf("{%s, %d}", cStringLit(in.Value), len(in.Value))
	case *kir.ConstNull:
		return "NULL"
	default:
		return "0"
	}
}

// ---- prototypes ----

func (e *emitter) emitPrototypes(fns []*kir.Function) {
	for _, fn := range fns {
		e.printf("%s;\n", funcProto(fn.Name, funcSigType(fn)))
	}
	e.printf("\n")
}

func funcSigType(fn *kir.Function) *types.Type {
	params := make([]types.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = types.Param{Name: p.Name, Type: p.Type}
	}
	return &types.Type{Kind: types.KFunction, Params: params, Return: fn.Return}
}

// structReturn reports whether sig returns a struct by value, the one case
// C can't express the way KIR's Ret terminator assumes (a bare register
// return): such a function instead takes a hidden output pointer and
// returns void, with Ret's value copied into *__ret_out before returning.
func structReturn(sig *types.Type) bool {
	return sig.Return != nil && sig.Return.Kind == types.KStruct
}

// funcProto renders `<ret> <name>(<params>)`, special-casing `main` to the
// C convention `int main(...)` per spec.md §4.7, and rewriting a struct
// return into a hidden trailing output-pointer parameter (see structReturn).
func funcProto(name string, sig *types.Type) string {
	cname := Sanitize(name)
	ret := "void"
	if sig.Return != nil {
		ret = cType(sig.Return)
	}
	hiddenOut := structReturn(sig)
	if hiddenOut {
		ret = "void"
	}
	if cname == "main" {
		ret = "int"
	}
	var params []string
	for i, p := range sig.Params {
		// always named arg<i>, matching how ParamRef reads a parameter by
		// positional Index rather than by its source-level name.
		params = append(params, declare(ptrIfStruct(p.Type), fmt.Sprintf("arg%d", i)))
	}
	if hiddenOut {
		params = append(params, declare(types.Ptr(sig.Return), "__ret_out"))
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return fmt.Sprintf("%s %s(%s)", ret, cname, strings.Join(params, ", "))
}

// ---- functions ----

func (e *emitter) emitFunction(fn *kir.Function) {
	sig := funcSigType(fn)
	e.hiddenOut = structReturn(sig)
	e.printf("%s {\n", funcProto(fn.Name, sig))
	e.emitLocals(fn)
	for i, b := range fn.Blocks {
		e.printf("%s:\n", b.ID)
		if i == 0 {
			e.printf("    ;\n") // a label must be followed by a statement in C
		}
		for _, instr := range b.Instrs {
			e.emitInstr(instr)
		}
		e.emitTerm(b.Term)
	}
	e.printf("}\n\n")
}

// emitLocals declares one C local per KIR VarId that produces a value,
// typed from the instruction that defines it, plus one backing storage
// local per StackAlloc (its pointer's pointee type) since a stack_alloc's
// destination is the *address* of a slot the function body still needs a
// place to live.
func (e *emitter) emitLocals(fn *kir.Function) {
	ids := map[kir.VarId]*types.Type{}
	var order []kir.VarId
	add := func(id kir.VarId, t *types.Type) {
		if id == 0 || t == nil {
			return
		}
		if _, ok := ids[id]; ok {
			return
		}
		ids[id] = t
		order = append(order, id)
	}
	var allocs []*kir.StackAlloc
	for _, b := range fn.Blocks {
		for _, phi := range b.Phis {
			add(phi.Dest, phi.Type)
		}
		for _, instr := range b.Instrs {
			add(instr.Dest(), instrType(instr))
			switch in := instr.(type) {
			case *kir.StackAlloc:
				allocs = append(allocs, in)
			case *kir.Call:
				if in.Type != nil && in.Type.Kind == types.KStruct {
					allocs = append(allocs, &kir.StackAlloc{DestVar: in.DestVar, Type: in.Type})
				}
			case *kir.CallExtern:
				if in.Type != nil && in.Type.Kind == types.KStruct {
					allocs = append(allocs, &kir.StackAlloc{DestVar: in.DestVar, Type: in.Type})
				}
			}
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	for _, id := range order {
		e.printf("    %s;\n", declare(ids[id], varName(id)))
	}
	for _, sa := range allocs {
		e.printf("    %s;\n", declare(sa.Type, storageName(sa.DestVar)))
	}
}

func instrType(instr kir.Instruction) *types.Type {
	switch in := instr.(type) {
	case *kir.ConstInt:
		return in.Type
	case *kir.ConstFloat:
		return in.Type
	case *kir.ConstBool:
		return types.Bool
	case *kir.ConstString:
		return types.Str
	case *kir.ConstNull:
		return types.Ptr(in.Type)
	case *kir.StackAlloc:
		return types.Ptr(in.Type)
	case *kir.Load:
		return in.Type
	case *kir.BinOp:
		return in.Type
	case *kir.Neg:
		return in.Type
	case *kir.Not:
		return types.Bool
	case *kir.BitNot:
		return in.Type
	case *kir.Cast:
		return in.Target
	case *kir.Sizeof:
		return types.USize
	case *kir.FieldPtr:
		return types.Ptr(in.Type)
	case *kir.IndexPtr:
		return types.Ptr(in.Type)
	case *kir.Call:
		return ptrIfStruct(in.Type)
	case *kir.CallExtern:
		return ptrIfStruct(in.Type)
	case *kir.CallThrows:
		return types.I32
	case *kir.Move:
		return ptrIfStruct(in.Type)
	case *kir.ParamRef:
		return ptrIfStruct(in.Type)
	case *kir.GlobalRef:
		return in.Type
	default:
		return nil
	}
}

// ptrIfStruct wraps a struct-kinded type in a Ptr, matching internal/lower's
// convention that a struct-typed "value" is always the VarId of its storage
// address, never a loaded register value.
func ptrIfStruct(t *types.Type) *types.Type {
	if t != nil && t.Kind == types.KStruct {
		return types.Ptr(t)
	}
	return t
}

func varName(id kir.VarId) string { return fmt.Sprintf("v%d", uint32(id)) }

func storageName(id kir.VarId) string { return fmt.Sprintf("v%d_storage", uint32(id)) }

func ref(id kir.VarId) string {
	if id == 0 {
		return "0"
	}
	return varName(id)
}
