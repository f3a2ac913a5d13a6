package ssa

import (
	"github.com/keilang/kei/internal/kir"
	"github.com/keilang/kei/internal/types"
)

// copyPair is one phi's contribution along one predecessor edge: writing
// src into dest once control reaches that predecessor.
type copyPair struct {
	dest, src kir.VarId
	typ       *types.Type
}

// DeSSA eliminates every phi by inserting, at the end of each predecessor's
// instruction list (just before its terminator), an identity cast copying
// the predecessor's incoming value into the phi's destination variable.
// Several predecessors writing the same VarId is exactly the point: after
// this pass a phi's Dest behaves like an ordinary mutable local, assigned
// on whichever branch was actually taken, the shape internal/emit expects
// ("one C local per KIR VarId").
func DeSSA(fn *kir.Function) {
	for _, b := range fn.Blocks {
		if len(b.Phis) == 0 {
			continue
		}
		byPred := map[string][]copyPair{}
		for _, phi := range b.Phis {
			for _, in := range phi.Incoming {
				byPred[in.From] = append(byPred[in.From], copyPair{dest: phi.Dest, src: in.Value, typ: phi.Type})
			}
		}
		for predID, copies := range byPred {
			pred := fn.Block(predID)
			if pred == nil {
				continue
			}
			pred.Instrs = append(pred.Instrs, sequentialize(copies, fn)...)
		}
		b.Phis = nil
	}
}

// sequentialize breaks one predecessor's parallel copy batch into a
// sequence of ordinary copies, introducing a fresh temporary wherever two
// copies interfere (one's destination is another's source) to avoid
// clobbering a value before it's been read, per spec.md §4.6's "break
// cycles/chains by introducing fresh temporaries" rule.
func sequentialize(copies []copyPair, fn *kir.Function) []kir.Instruction {
	pending := make([]copyPair, 0, len(copies))
	for _, c := range copies {
		if c.dest != c.src {
			pending = append(pending, c)
		}
	}
	var out []kir.Instruction
	for len(pending) > 0 {
		usedAsSrc := map[kir.VarId]bool{}
		for _, c := range pending {
			usedAsSrc[c.src] = true
		}

		progressed := false
		var remaining []copyPair
		for _, c := range pending {
			if !usedAsSrc[c.dest] {
				out = append(out, &kir.Cast{DestVar: c.dest, Value: c.src, Target: c.typ})
				progressed = true
				continue
			}
			remaining = append(remaining, c)
		}
		if progressed {
			pending = remaining
			continue
		}

		// every remaining copy is part of a cycle/chain: save the first
		// victim's destination to a temporary, then rewrite every other
		// pending copy that reads the victim's destination to read the
		// temporary instead, which breaks the cycle without reordering.
		victim := pending[0]
		tmp := fn.NewVar()
		out = append(out, &kir.Cast{DestVar: tmp, Value: victim.dest, Target: victim.typ})
		for i := range pending {
			if pending[i].src == victim.dest {
				pending[i].src = tmp
			}
		}
	}
	return out
}
