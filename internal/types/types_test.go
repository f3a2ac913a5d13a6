package types

import "testing"

func TestEqualPrimitives(t *testing.T) {
	if !Equal(I32, I32) {
		t.Errorf("I32 should equal itself")
	}
	if Equal(I32, I64) {
		t.Errorf("I32 should not equal I64")
	}
	if Equal(I32, U32) {
		t.Errorf("signed/unsigned of same width must differ")
	}
}

func TestEqualStructByName(t *testing.T) {
	a := &Type{Kind: KStruct, Name: "Point", Fields: []Field{{"x", I32}}}
	b := &Type{Kind: KStruct, Name: "Point", Fields: []Field{{"x", I32}, {"y", I32}}}
	if !Equal(a, b) {
		t.Errorf("structs with the same name should be equal regardless of field list identity")
	}
}

func TestEqualFunctionBySubstitutedShape(t *testing.T) {
	f1 := &Type{Kind: KFunction, Params: []Param{{Type: I32}}, Return: Bool}
	f2 := &Type{Kind: KFunction, Params: []Param{{Type: I32}}, Return: Bool}
	f3 := &Type{Kind: KFunction, Params: []Param{{Type: I64}}, Return: Bool}
	if !Equal(f1, f2) {
		t.Errorf("expected equal function types")
	}
	if Equal(f1, f3) {
		t.Errorf("expected different function types")
	}
}

func TestAssignability(t *testing.T) {
	ptrI32 := Ptr(I32)
	cases := []struct {
		source, target *Type
		want            bool
	}{
		{I32, I32, true},
		{I32, I64, false},
		{Null, ptrI32, true},
		{Err, I32, true},
		{I32, Err, true},
		{Str, I32, false},
	}
	for _, c := range cases {
		got := Assignable(c.source, c.target)
		if got != c.want {
			t.Errorf("Assignable(%s, %s) = %v, want %v", c.source, c.target, got, c.want)
		}
	}
}

func TestIntRange(t *testing.T) {
	min, max := IntRange(I8)
	if min != -128 || max != 127 {
		t.Errorf("i8 range = [%d,%d], want [-128,127]", min, max)
	}
	min, max = IntRange(U8)
	if min != 0 || max != 255 {
		t.Errorf("u8 range = [%d,%d], want [0,255]", min, max)
	}
}

func TestIntFitsLiteral(t *testing.T) {
	if !IntFitsLiteral(127, I8) {
		t.Errorf("127 should fit i8")
	}
	if IntFitsLiteral(128, I8) {
		t.Errorf("128 should not fit i8")
	}
	if !IntFitsLiteral(200, U8) {
		t.Errorf("200 should fit u8")
	}
}

func TestMangle(t *testing.T) {
	params := []Param{{Type: I32}, {Type: Str}}
	got := Mangle("foo", params)
	want := "foo__i32_string"
	if got != want {
		t.Errorf("Mangle = %q, want %q", got, want)
	}
	if Mangle("bar", nil) != "bar" {
		t.Errorf("Mangle with no params should return the base name unchanged")
	}
}

func TestMonomorphizationName(t *testing.T) {
	got := MonomorphizationName("Box", []*Type{I32})
	if got != "Box_i32" {
		t.Errorf("got %q", got)
	}
}

func TestResolveOverloadExactVsAmbiguous(t *testing.T) {
	ov32 := &Overload{Sig: &Type{Kind: KFunction, Params: []Param{{Type: I32}}, Return: Void}}
	ov64 := &Overload{Sig: &Type{Kind: KFunction, Params: []Param{{Type: I64}}, Return: Void}}
	overloads := []*Overload{ov32, ov64}

	best, ambiguous, found := ResolveOverload(overloads, []*Type{I32}, func(int) bool { return false })
	if !found || ambiguous || best != ov32 {
		t.Errorf("expected unambiguous exact match on i32, got best=%v ambiguous=%v found=%v", best, ambiguous, found)
	}

	_, _, found = ResolveOverload(overloads, []*Type{Bool}, func(int) bool { return false })
	if found {
		t.Errorf("expected no match for bool argument")
	}
}

func TestResolveOverloadNoArityMatch(t *testing.T) {
	ov := &Overload{Sig: &Type{Kind: KFunction, Params: []Param{{Type: I32}, {Type: I32}}, Return: Void}}
	_, _, found := ResolveOverload([]*Overload{ov}, []*Type{I32}, func(int) bool { return false })
	if found {
		t.Errorf("expected arity mismatch to produce no match")
	}
}

func TestScopeDefineAndLookup(t *testing.T) {
	root := NewGlobalScope()
	sym := NewVariable("x", I32, true, false)
	if !root.Define(sym) {
		t.Fatalf("expected first definition to succeed")
	}
	if root.Define(NewVariable("x", I32, true, false)) {
		t.Errorf("expected duplicate definition in the same scope to fail")
	}

	child := root.NewChild()
	if _, ok := child.LookupLocal("x"); ok {
		t.Errorf("expected LookupLocal to not see parent scope's symbols")
	}
	if _, ok := child.Lookup("x"); !ok {
		t.Errorf("expected Lookup to walk up to the parent scope")
	}
}

func TestScopeFlagsInherit(t *testing.T) {
	root := NewGlobalScope()
	root.SetUnsafe()
	child := root.NewChild()
	if !child.IsUnsafe() {
		t.Errorf("expected child scope to inherit isUnsafe")
	}
}

func TestSymbolAddOverloadRejectsCollision(t *testing.T) {
	sym := &Symbol{Kind: SymFunction, Name: "f"}
	o1 := &Overload{Sig: &Type{Kind: KFunction, Params: []Param{{Type: I32}}, Return: Void}}
	o2 := &Overload{Sig: &Type{Kind: KFunction, Params: []Param{{Type: I32}}, Return: Bool}}
	if !sym.AddOverload(o1) {
		t.Fatalf("expected first overload to be accepted")
	}
	if sym.AddOverload(o2) {
		t.Errorf("expected collision on identical parameter tuple to be refused")
	}
}
