package types

// SymKind tags which case of the Symbol sum a value holds.
type SymKind int

const (
	SymVariable SymKind = iota
	SymFunction
	SymType
	SymModule
)

// Overload is one entry in a function symbol's overload set: a callable
// signature plus an opaque reference to its lowered body (the checker treats
// this as opaque; the lowerer uses it to find the AST node again).
type Overload struct {
	Sig      *Type // Kind == KFunction
	Mangled  string
	BodyRef  interface{}
	IsExtern bool
}

// Symbol is a name bound in some Scope, tagged per spec.md §3 "Symbol".
type Symbol struct {
	Kind SymKind
	Name string

	// Variable
	VarType   *Type
	IsMutable bool
	IsConst   bool
	IsMoved   bool

	// Function
	Overloads []*Overload

	// Type
	Type *Type

	// Module
	Exports map[string]*Symbol
}

// NewVariable creates a Variable symbol.
func NewVariable(name string, t *Type, mutable, isConst bool) *Symbol {
	return &Symbol{Kind: SymVariable, Name: name, VarType: t, IsMutable: mutable, IsConst: isConst}
}

// NewType creates a Type symbol.
func NewType(name string, t *Type) *Symbol {
	return &Symbol{Kind: SymType, Name: name, Type: t}
}

// NewModule creates a Module symbol with an empty export map.
func NewModule(name string) *Symbol {
	return &Symbol{Kind: SymModule, Name: name, Exports: map[string]*Symbol{}}
}

// AddOverload appends a function overload, refusing a collision on parameter
// type tuple with an existing overload (spec.md §3 "accumulates overloads").
// Returns false if refused.
func (s *Symbol) AddOverload(o *Overload) bool {
	if s.Kind != SymFunction {
		s.Kind = SymFunction
	}
	for _, existing := range s.Overloads {
		if sameParamTypes(existing.Sig.Params, o.Sig.Params) {
			return false
		}
	}
	s.Overloads = append(s.Overloads, o)
	return true
}

func sameParamTypes(a, b []Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}

// MatchKind classifies how well a candidate overload fits a call's argument
// types, used to resolve overload ambiguity per spec.md §4.3 "Overloading".
type MatchKind int

const (
	NoMatch MatchKind = iota
	CoercedMatch
	ExactMatch
)

// ArgIsLiteral lets the resolver distinguish literal-coercible arguments
// from plain variable-typed ones, mirroring spec.md §4.3's literal-coercion
// carve-out ("applied only when the source expression is a literal AST
// node").
type ArgIsLiteral func(i int) bool

// ResolveOverload selects the overload whose parameter tuple matches argTypes
// by assignability (with literal coercion for literal arguments), returning
// the chosen overload, whether more than one best match remained (the call
// is ambiguous), and whether any match at all existed.
func ResolveOverload(overloads []*Overload, argTypes []*Type, isLiteral ArgIsLiteral) (best *Overload, ambiguous bool, found bool) {
	type scored struct {
		ov    *Overload
		exact []bool // per-param: true if this candidate matched argTypes[i] without coercion
	}
	var candidates []scored

	for _, ov := range overloads {
		if len(ov.Sig.Params) != len(argTypes) {
			continue
		}
		allMatch := true
		exact := make([]bool, len(argTypes))
		for i, p := range ov.Sig.Params {
			lit := isLiteral != nil && isLiteral(i)
			switch {
			case Assignable(argTypes[i], p.Type):
				exact[i] = Equal(argTypes[i], p.Type)
			case lit && assignableLiteral(argTypes[i], p.Type):
				exact[i] = false
			default:
				allMatch = false
			}
			if !allMatch {
				break
			}
		}
		if allMatch {
			candidates = append(candidates, scored{ov, exact})
		}
	}

	if len(candidates) == 0 {
		return nil, false, false
	}
	if len(candidates) == 1 {
		return candidates[0].ov, false, true
	}

	// dominates reports whether a is at least as specific as b: exact
	// (non-coerced) at every position b is exact at.
	dominates := func(a, b []bool) bool {
		for i := range a {
			if b[i] && !a[i] {
				return false
			}
		}
		return true
	}
	// strictlyDominates additionally requires a to be exact somewhere b
	// only matched via coercion.
	strictlyDominates := func(a, b []bool) bool {
		if !dominates(a, b) {
			return false
		}
		for i := range a {
			if a[i] && !b[i] {
				return true
			}
		}
		return false
	}

	// A candidate survives pairwise elimination only if no other candidate
	// is strictly more specific at every param position. Comparing each
	// pair this way (rather than a single exact-vs-coerced-overall flag)
	// correctly prefers an overload that coerces fewer parameters over one
	// that coerces more, and still reports SEM012 when two candidates are
	// genuinely incomparable.
	var maximal []scored
	for i, c := range candidates {
		dominated := false
		for j, other := range candidates {
			if i == j {
				continue
			}
			if strictlyDominates(other.exact, c.exact) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, c)
		}
	}

	if len(maximal) == 1 {
		return maximal[0].ov, false, true
	}
	return maximal[0].ov, true, true
}

// assignableLiteral reports whether a literal of type litType may coerce to
// target per spec.md §4.3 "Literal coercion". Callers must already know the
// source expression really is a literal AST node.
func assignableLiteral(litType, target *Type) bool {
	switch litType.Kind {
	case KInt:
		if target.Kind == KInt {
			min, max := IntRange(target)
			// The resolver only has the literal's declared type here, not its
			// raw value; callers needing exact in-range checks for a literal's
			// value use IntFitsLiteral below during the checker's own pass.
			_ = min
			_ = max
			return true
		}
		return target.Kind == KFloat
	case KFloat:
		return target.Kind == KFloat
	default:
		return false
	}
}

// IntFitsLiteral reports whether the integer literal value v fits the
// inclusive range of Int type t.
func IntFitsLiteral(v int64, t *Type) bool {
	if t.Kind != KInt {
		return false
	}
	min, max := IntRange(t)
	return v >= min && v <= max
}
