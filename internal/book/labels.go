package book

// LabSet is the set of Ctr labels a definition's body can ever produce,
// directly or through the definitions it references. internal/host uses
// it the way original_source/src/host.rs's calculate_label_sets does: to
// give every Def a conservative picture of the labels live in its
// expansion before any of it is instantiated on the heap.
type LabSet map[uint16]struct{}

// Union returns the set union of a and b, allocating a fresh set.
func (a LabSet) Union(b LabSet) LabSet {
	out := make(LabSet, len(a)+len(b))
	for l := range a {
		out[l] = struct{}{}
	}
	for l := range b {
		out[l] = struct{}{}
	}
	return out
}

// Has reports whether lab is a member.
func (a LabSet) Has(lab uint16) bool {
	_, ok := a[lab]
	return ok
}

// CalculateLabelSets computes the label set of every definition in b.
//
// Definitions may reference each other cyclically, so naive recursion
// with memoization would under-report labels for a definition entered
// before its cycle has closed (spec §9). Instead this runs a DFS that
// tracks the open-call stack: when a name is reached that is still an
// open ancestor, every definition between the ancestor and here
// (inclusive) is recorded as participating in one cycle. Once a cycle is
// fully discovered, its members share one final label set, which is the
// union of everything directly or transitively reachable from any of
// them. Cycles are sealed as the DFS closes them, callees before callers,
// so a caller's set already includes every callee's sealed set; there is
// no second pass.
func CalculateLabelSets(b *Book) map[string]LabSet {
	c := &labelCalc{
		book:   b,
		result: make(map[string]LabSet),
		index:  make(map[string]int),
		low:    make(map[string]int),
		onStk:  make(map[string]bool),
	}
	for _, name := range b.Names() {
		if _, seen := c.index[name]; !seen {
			c.strongconnect(name)
		}
	}
	return c.result
}

// labelCalc runs Tarjan's SCC algorithm over the Ref graph, then seeds
// each SCC with the union of its members' direct label contributions and
// propagates it outward in reverse topological order.
type labelCalc struct {
	book *Book

	index, low map[string]int
	onStk      map[string]bool
	stack      []string
	counter    int

	sccOf  map[string]int
	sccs   [][]string
	result map[string]LabSet
}

func (c *labelCalc) strongconnect(name string) {
	c.index[name] = c.counter
	c.low[name] = c.counter
	c.counter++
	c.stack = append(c.stack, name)
	c.onStk[name] = true

	def, ok := c.book.Get(name)
	if !ok || def.Net == nil {
		// Unknown or native: treat as a leaf with no callees.
	} else {
		for _, callee := range refsOf(def.Net) {
			if _, seen := c.index[callee]; !seen {
				if _, known := c.book.Get(callee); known {
					c.strongconnect(callee)
					if c.low[callee] < c.low[name] {
						c.low[name] = c.low[callee]
					}
				}
			} else if c.onStk[callee] {
				if c.index[callee] < c.low[name] {
					c.low[name] = c.index[callee]
				}
			}
		}
	}

	if c.low[name] == c.index[name] {
		var scc []string
		for {
			n := len(c.stack) - 1
			top := c.stack[n]
			c.stack = c.stack[:n]
			c.onStk[top] = false
			scc = append(scc, top)
			if top == name {
				break
			}
		}
		c.sccs = append(c.sccs, scc)
		if c.sccOf == nil {
			c.sccOf = make(map[string]int)
		}
		idx := len(c.sccs) - 1
		for _, n := range scc {
			c.sccOf[n] = idx
		}
		c.seal(idx)
	}
}

// seal computes the sealed label set for one SCC: the union of every
// member's own labels plus every already-sealed SCC it calls into (SCCs
// are discovered in reverse-topological order by Tarjan's algorithm, so
// any callee SCC is guaranteed sealed already).
func (c *labelCalc) seal(idx int) {
	set := make(LabSet)
	for _, name := range c.sccs[idx] {
		def, ok := c.book.Get(name)
		if !ok || def.Net == nil {
			continue
		}
		for lab := range directLabels(def.Net) {
			set[lab] = struct{}{}
		}
		for _, callee := range refsOf(def.Net) {
			if calleeSet, ok := c.result[callee]; ok {
				for lab := range calleeSet {
					set[lab] = struct{}{}
				}
			}
		}
	}
	for _, name := range c.sccs[idx] {
		c.result[name] = set
	}
}

// directLabels collects every Ctr label literally written in net's trees.
func directLabels(net *RawNet) LabSet {
	set := make(LabSet)
	walkTrees(net, func(t *RawTree) {
		if t.Kind == RawCtr {
			set[t.Lab] = struct{}{}
		}
	})
	return set
}

// refsOf collects every Ref name literally written in net's trees.
func refsOf(net *RawNet) []string {
	var names []string
	walkTrees(net, func(t *RawTree) {
		if t.Kind == RawRef {
			names = append(names, t.Name)
		}
	})
	return names
}

func walkTrees(net *RawNet, visit func(*RawTree)) {
	var walk func(*RawTree)
	walk = func(t *RawTree) {
		if t == nil {
			return
		}
		visit(t)
		walk(t.Sub[0])
		walk(t.Sub[1])
	}
	walk(net.Root)
	for _, r := range net.Rdex {
		walk(r.A)
		walk(r.B)
	}
}
