package emit

import (
	"fmt"
	"strings"

	"github.com/keilang/kei/internal/types"
)

// cType renders t as a bare C type name, with no declarator name attached.
// Struct/array-valued KIR operands are always some Ptr(T) at this point in
// the pipeline (internal/lower's storage-address convention), so KArray and
// KStruct appearing here directly only happens inside declare's own
// unwrapping of a Ptr — see declare below.
func cType(t *types.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case types.KInt:
		return fmt.Sprintf("int%d_t", t.Bits)
	case types.KFloat:
		if t.Bits == 32 {
			return "float"
		}
		return "double"
	case types.KBool:
		return "bool"
	case types.KVoid:
		return "void"
	case types.KString:
		return "kei_string"
	case types.KNull:
		return "void*"
	case types.KCChar:
		return "char"
	case types.KStruct, types.KEnum:
		return Sanitize(t.Name)
	case types.KPtr:
		return cType(t.Elem) + "*"
	case types.KArray:
		return cType(t.Elem)
	case types.KSlice:
		return cType(t.Elem) + "*"
	case types.KFunction:
		return "void*"
	default:
		return "void*"
	}
}

// declare renders a C declarator: `<type> <name>` for every case except a
// pointer-to-array, which needs C's `elem name[N]` array-declarator form.
func declare(t *types.Type, name string) string {
	if t != nil && t.Kind == types.KPtr && t.Elem != nil && t.Elem.Kind == types.KArray {
		return fmt.Sprintf("%s %s[%d]", cType(t.Elem.Elem), name, t.Elem.Length)
	}
	if t != nil && t.Kind == types.KArray {
		return fmt.Sprintf("%s %s[%d]", cType(t.Elem), name, t.Length)
	}
	return fmt.Sprintf("%s %s", cType(t), name)
}

// cStringLit renders a kei string literal as a C string literal, escaping
// the characters C requires.
func cStringLit(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// cKeywords collects the C reserved words that would otherwise collide with
// a sanitized kei identifier.
var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "int": true, "long": true, "register": true, "return": true,
	"short": true, "signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "inline": true, "restrict": true,
	"_Bool": true, "_Complex": true, "_Imaginary": true,
}

// Sanitize maps a kei source identifier (which may contain characters C
// forbids, such as a dotted module path) to a valid, collision-free C
// identifier.
func Sanitize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if cKeywords[out] {
		return "kei_" + out
	}
	return out
}
