package emit

import (
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// emitInstr translates one KIR instruction into a C statement. Locals are
// already declared (emitLocals), so every destination-carrying instruction
// here is a plain assignment.
func (e *emitter) emitInstr(instr kir.Instruction) {
	switch in := instr.(type) {
	case *kir.ConstInt:
		e.printf("    %s = %d;\n", ref(in.DestVar), in.Value)
	case *kir.ConstFloat:
		e.printf("    %s = %v;\n", ref(in.DestVar), in.Value)
	case *kir.ConstBool:
		e.printf("    %s = %v;\n", ref(in.DestVar), in.Value)
	case *kir.ConstString:
		e.printf("    %s = (kei_string){%s, %d};\n", ref(in.DestVar), cStringLit(in.Value), len(in.Value))
	case *kir.ConstNull:
		e.printf("    %s = NULL;\n", ref(in.DestVar))
	case *kir.StackAlloc:
		e.printf("    %s = &%s;\n", ref(in.DestVar), storageName(in.DestVar))
	case *kir.Load:
		e.printf("    %s = *%s;\n", ref(in.DestVar), ref(in.Ptr))
	case *kir.Store:
		e.printf("    *%s = %s;\n", ref(in.Ptr), ref(in.Value))
	case *kir.BinOp:
		e.emitBinOp(in)
	case *kir.Neg:
		e.printf("    %s = -%s;\n", ref(in.DestVar), ref(in.X))
	case *kir.Not:
		e.printf("    %s = !%s;\n", ref(in.DestVar), ref(in.X))
	case *kir.BitNot:
		e.printf("    %s = ~%s;\n", ref(in.DestVar), ref(in.X))
	case *kir.Cast:
		e.printf("    %s = (%s)%s;\n", ref(in.DestVar), cType(in.Target), ref(in.Value))
	case *kir.Sizeof:
		e.printf("    %s = sizeof(%s);\n", ref(in.DestVar), cType(in.Type))
	case *kir.FieldPtr:
		e.printf("    %s = &%s->%s;\n", ref(in.DestVar), ref(in.Base), Sanitize(in.Field))
	case *kir.IndexPtr:
		e.printf("    %s = &%s[%s];\n", ref(in.DestVar), ref(in.Base), ref(in.Index))
	case *kir.BoundsCheck:
		e.printf("    if (%s >= %s) { fprintf(stderr, \"index out of bounds\\n\"); abort(); }\n", ref(in.Index), ref(in.Length))
	case *kir.Call:
		e.emitCall(in.DestVar, in.Func, in.Args, in.Type)
	case *kir.CallVoid:
		e.printf("    %s(%s);\n", Sanitize(in.Func), argList(in.Args))
	case *kir.CallExtern:
		e.emitCall(in.DestVar, in.Func, in.Args, in.Type)
	case *kir.CallExternVoid:
		e.printf("    %s(%s);\n", Sanitize(in.Func), argList(in.Args))
	case *kir.CallThrows:
		e.emitCallThrows(in)
	case *kir.Move:
		e.printf("    %s = %s;\n", ref(in.DestVar), ref(in.Source))
	case *kir.Destroy:
		e.printf("    %s(%s);\n", Sanitize(in.StructName+"___destroy"), ref(in.Value))
	case *kir.OnCopy:
		e.printf("    %s(%s);\n", Sanitize(in.StructName+"___oncopy"), ref(in.Value))
	case *kir.ParamRef:
		e.printf("    %s = arg%d;\n", ref(in.DestVar), in.Index)
	case *kir.GlobalRef:
		e.printf("    %s = %s;\n", ref(in.DestVar), Sanitize(in.Name))
	case *kir.GlobalSet:
		e.printf("    %s = %s;\n", Sanitize(in.Name), ref(in.Value))
	default:
		e.printf("    /* unhandled instruction %T */\n", in)
	}
}

// emitCall renders a direct/extern call, routing a struct-valued result
// through the callee's hidden output-pointer parameter (see structReturn)
// rather than a C return value.
func (e *emitter) emitCall(dest kir.VarId, fn string, args []kir.VarId, resultType *types.Type) {
	if resultType != nil && resultType.Kind == types.KStruct {
		all := append(refAll(args), "&"+storageName(dest))
		e.printf("    %s(%s);\n", Sanitize(fn), joinArgs(all))
		e.printf("    %s = &%s;\n", ref(dest), storageName(dest))
		return
	}
	e.printf("    %s = %s(%s);\n", ref(dest), Sanitize(fn), argList(args))
}

func (e *emitter) emitBinOp(in *kir.BinOp) {
	op := in.Op
	if isStringOp(in) {
		switch op {
		case "==":
			e.printf("    %s = kei_string_eq(%s, %s);\n", ref(in.DestVar), ref(in.Lhs), ref(in.Rhs))
			return
		case "!=":
			e.printf("    %s = !kei_string_eq(%s, %s);\n", ref(in.DestVar), ref(in.Lhs), ref(in.Rhs))
			return
		case "+":
			e.printf("    %s = kei_string_concat(%s, %s);\n", ref(in.DestVar), ref(in.Lhs), ref(in.Rhs))
			return
		}
	}
	e.printf("    %s = %s %s %s;\n", ref(in.DestVar), ref(in.Lhs), op, ref(in.Rhs))
}

func isStringOp(in *kir.BinOp) bool {
	return in.OperandType != nil && in.OperandType.Kind == types.KString
}

// emitCallThrows mirrors internal/lower's lowerFunction parameter layout for
// a throwing callee: an __out pointer only when SuccessType isn't void,
// always followed by __err.
func (e *emitter) emitCallThrows(in *kir.CallThrows) {
	args := append([]string{}, refAll(in.Args)...)
	if in.SuccessType != nil && in.SuccessType.Kind != types.KVoid {
		args = append(args, ref(in.OutPtr))
	}
	args = append(args, ref(in.ErrPtr))
	e.printf("    %s = %s(%s);\n", ref(in.DestVar), Sanitize(in.Func), joinArgs(args))
}

func argList(args []kir.VarId) string {
	return joinArgs(refAll(args))
}

func refAll(args []kir.VarId) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = ref(a)
	}
	return out
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// emitTerm translates a block's terminator into C control flow.
func (e *emitter) emitTerm(t kir.Terminator) {
	switch tt := t.(type) {
	case *kir.Jump:
		e.printf("    goto %s;\n", tt.Target)
	case *kir.Br:
		e.printf("    if (%s) goto %s; else goto %s;\n", ref(tt.Cond), tt.Then, tt.Else)
	case *kir.Switch:
		e.printf("    switch (%s) {\n", ref(tt.Value))
		for _, c := range tt.Cases {
			e.printf("    case %d: goto %s;\n", c.Value, c.Target)
		}
		if tt.Default != "" {
			e.printf("    default: goto %s;\n", tt.Default)
		}
		e.printf("    }\n")
	case *kir.Ret:
		switch {
		case e.hiddenOut && tt.Value != 0:
			e.printf("    *__ret_out = *%s;\n    return;\n", ref(tt.Value))
		case tt.Value == 0:
			e.printf("    return;\n")
		default:
			e.printf("    return %s;\n", ref(tt.Value))
		}
	case *kir.RetVoid:
		e.printf("    return;\n")
	case *kir.Unreachable:
		e.printf("    abort();\n")
	default:
		e.printf("    /* unhandled terminator %T */\n", tt)
	}
}
