// Package ssa turns the lowerer's stack-slot-heavy KIR into minimal SSA form
// (mem2reg; phis are placed without liveness pruning) and back out into a register-allocatable non-SSA form
// (de-SSA), the two optimization passes spec.md's pipeline runs between
// lowering and C emission.
package ssa

import "github.com/keilang/kei/internal/kir"

// CFG is a function's control-flow graph, derived once per function from
// its Blocks slice and terminators.
type CFG struct {
	fn      *kir.Function
	preds   map[string][]string
	succs   map[string][]string
	order   []string // reverse postorder from the entry block
	indexOf map[string]int
}

// BuildCFG walks fn's blocks and terminators into a predecessor/successor
// graph plus a reverse-postorder block ordering (the traversal order every
// later pass in this package relies on for fixed-point iteration).
func BuildCFG(fn *kir.Function) *CFG {
	c := &CFG{
		fn:    fn,
		preds: map[string][]string{},
		succs: map[string][]string{},
	}
	for _, b := range fn.Blocks {
		c.preds[b.ID] = nil
		var succs []string
		if b.Term != nil {
			succs = b.Term.Successors()
		}
		c.succs[b.ID] = succs
	}
	for _, b := range fn.Blocks {
		for _, s := range c.succs[b.ID] {
			c.preds[s] = append(c.preds[s], b.ID)
		}
	}
	c.order = reversePostorder(fn.Entry().ID, c.succs)
	c.indexOf = map[string]int{}
	for i, id := range c.order {
		c.indexOf[id] = i
	}
	return c
}

func reversePostorder(entry string, succs map[string][]string) []string {
	var post []string
	visited := map[string]bool{}
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range succs[id] {
			visit(s)
		}
		post = append(post, id)
	}
	visit(entry)
	out := make([]string, len(post))
	for i, id := range post {
		out[len(post)-1-i] = id
	}
	return out
}

func (c *CFG) Preds(id string) []string { return c.preds[id] }
func (c *CFG) Succs(id string) []string { return c.succs[id] }

// ReversePostorder returns every block reachable from the entry, in reverse
// postorder. Unreachable blocks (dead code following an earlier Unreachable
// terminator) are silently dropped, matching how a block with no live
// predecessor has nothing for mem2reg to promote anyway.
func (c *CFG) ReversePostorder() []string { return c.order }

func (c *CFG) Block(id string) *kir.Block { return c.fn.Block(id) }
