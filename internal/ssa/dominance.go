package ssa

// Dominance holds a function's immediate-dominator tree and dominance
// frontiers, computed with the iterative Cooper-Harvey-Kennedy algorithm
// (A Simple, Fast Dominance Algorithm, 2001) rather than the classic
// Lengauer-Tarjan one: it needs only the reverse-postorder numbering this
// package already builds, and converges in a handful of iterations on the
// small, mostly-structured CFGs a single function body produces.
type Dominance struct {
	cfg     *CFG
	idom    map[string]string
	frontier map[string]map[string]bool
}

// ComputeDominance runs Cooper-Harvey-Kennedy over cfg.
func ComputeDominance(cfg *CFG) *Dominance {
	d := &Dominance{cfg: cfg, idom: map[string]string{}}
	order := cfg.ReversePostorder()
	if len(order) == 0 {
		return d
	}
	entry := order[0]
	d.idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, id := range order[1:] {
			preds := cfg.Preds(id)
			var newIdom string
			found := false
			for _, p := range preds {
				if _, ok := d.idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = d.intersect(newIdom, p, order)
			}
			if !found {
				continue
			}
			if d.idom[id] != newIdom {
				d.idom[id] = newIdom
				changed = true
			}
		}
	}

	d.computeFrontiers(order)
	return d
}

func (d *Dominance) intersect(a, b string, order []string) string {
	idx := map[string]int{}
	for i, id := range order {
		idx[id] = i
	}
	for a != b {
		for idx[a] > idx[b] {
			a = d.idom[a]
		}
		for idx[b] > idx[a] {
			b = d.idom[b]
		}
	}
	return a
}

func (d *Dominance) computeFrontiers(order []string) {
	d.frontier = map[string]map[string]bool{}
	for _, id := range order {
		d.frontier[id] = map[string]bool{}
	}
	for _, id := range order {
		preds := d.cfg.Preds(id)
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			runner := p
			for runner != d.idom[id] && runner != "" {
				d.frontier[runner][id] = true
				next, ok := d.idom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}
}

// Idom returns id's immediate dominator, or "" for the entry block.
func (d *Dominance) Idom(id string) string {
	if d.idom[id] == id {
		return ""
	}
	return d.idom[id]
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (d *Dominance) Dominates(a, b string) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		next := d.idom[cur]
		if next == cur || next == "" {
			return cur == a
		}
		cur = next
	}
}

// Frontier returns id's dominance frontier: every block where id's
// dominance stops, the set mem2reg uses to place phi nodes.
func (d *Dominance) Frontier(id string) []string {
	set := d.frontier[id]
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}
