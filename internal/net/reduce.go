package net

import (
	"fmt"

	"github.com/vic/ict/internal/engine"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/ptr"
)

// Reduce pops and interacts redexes from this Net's own bag until it runs
// dry or limit have been processed (limit < 0 means unbounded). It
// returns the number actually processed.
func (n *Net) Reduce(limit int) (int, error) {
	count := 0
	for limit < 0 || count < limit {
		a, b, ok := n.PopRedex()
		if !ok {
			break
		}
		if err := engine.Interact(n, a, b); err != nil {
			return count, fmt.Errorf("net: reduce: %w", err)
		}
		count++
	}
	return count, nil
}

// Expand walks the root wire looking for Refs ordinary linker-driven
// redex formation can't reach on its own (spec §4.5): at a Ctr it
// descends into both children, at a live (non-ERA) Ref it locks the cell
// and unfolds the definition in place. A reference buried inside a
// surviving constructor — never linked into by any rule, since nothing
// ever forms a redex against a Ctr's own aux wire just because it holds a
// Ref — would otherwise sit unexpanded forever. It reports whether it
// unfolded anything, so Normal knows whether another round could still
// make progress.
//
// Real concurrent expand also partitions a Ctr's two children across the
// worker pool's bit-trie (spec §4.5, §5) so sibling branches unfold in
// parallel; this Net works alone, so it walks both children itself,
// single-threaded, in the same call. See DESIGN.md for why the
// partitioning itself isn't wired up.
func (n *Net) Expand() (bool, error) {
	return n.expandAt(n.root.Loc())
}

// expandAt resolves whatever currently lives at loc: a Ctr is walked into
// both of its aux cells, a live Ref is locked and unfolded, and anything
// else (Num, Op1/Op2, Mat, an unresolved Var, or ERA) is left alone —
// it's either already in normal form or a wire reduce would already have
// turned into a redex if it could.
func (n *Net) expandAt(loc uint64) (bool, error) {
	p := n.area.Get(loc)
	switch {
	case p.Tag() == ptr.Ctr:
		w1, w2 := heap.TraverseNode(p.Loc())
		e1, err := n.expandAt(w1.Loc())
		if err != nil {
			return e1, err
		}
		e2, err := n.expandAt(w2.Loc())
		return e1 || e2, err
	case p.Tag() == ptr.Ref && !p.IsEra():
		if err := n.expandRef(loc, p); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, nil
	}
}

// expandRef locks loc — spec §4.5: "at a Ref it locks the cell (swap with
// LOCK)" — so a concurrent descent down some other branch could never
// unfold the same reference twice, then replaces it with the same
// self-referencing Var placeholder mkNode's own bootstrap uses, so the
// definition's root instruction can link straight into it.
func (n *Net) expandRef(loc uint64, ref ptr.Port) error {
	n.area.Swap(loc, ptr.LOCK)
	def := n.DefAt(ref.Loc())
	if def == nil {
		return fmt.Errorf("net: dangling reference at address %d", ref.Loc())
	}
	n.CountDref()
	self := ptr.New(ptr.Var, 0, loc)
	n.area.Set(loc, self)
	if err := n.Call(def, self); err != nil {
		return fmt.Errorf("net: expand: %w", err)
	}
	return nil
}

// RootIsRef reports whether root currently holds an unfolded Ref
// directly — a narrower check than Expand itself now performs, kept for
// callers that only care about the literal root cell.
func (n *Net) RootIsRef() bool {
	p := n.area.Get(n.root.Loc())
	return p.Tag() == ptr.Ref && !p.IsEra()
}

// Normal alternates Reduce and Expand to a fixed point: drain the redex
// bag, walk the root for any Ref still needing expansion (at any depth,
// not just the root cell itself), and repeat until a round reduces
// nothing and expands nothing (spec §6: Net::normal). maxRounds bounds
// pathological non-terminating programs; a negative value means
// unbounded.
func (n *Net) Normal(maxRounds int) error {
	for i := 0; maxRounds < 0 || i < maxRounds; i++ {
		count, err := n.Reduce(-1)
		if err != nil {
			return err
		}
		expanded, err := n.Expand()
		if err != nil {
			return err
		}
		if count == 0 && !expanded {
			return nil
		}
	}
	return fmt.Errorf("net: exceeded %d normalization rounds", maxRounds)
}
