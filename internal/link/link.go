// Package link implements the linker: link_port_port, link_wire_port and
// link_wire_wire, including the lock-free cross-thread substitution
// protocol of spec §4.2.
package link

import (
	"sync"

	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/ptr"
)

// Redexer accepts newly-formed active pairs. internal/net's Net
// implements this by pushing onto its local redex bag.
type Redexer interface {
	PushRedex(a, b ptr.Port)
}

// Linker substitutes variables and forms new active pairs against a
// shared Area. A single Linker may be used from multiple goroutines
// concurrently, as required by spec §4.2's cross-thread protocol.
type Linker struct {
	area  *heap.Area
	alloc *heap.Allocator
	redex Redexer

	// stash holds the port a "first arriver" leaves behind when it wins the
	// race to mark a cell GONE during a node-node rendezvous (step 3 of the
	// protocol). The original hvm-core encodes this within the 64-bit cell
	// itself; our Port/cell are the same width, so a side table is this
	// port's honest equivalent in Go without reusing one of the cell's own
	// bits for live data. See DESIGN.md.
	stash sync.Map // loc uint64 -> ptr.Port
}

// New builds a Linker over area, freeing consumed wires through alloc and
// publishing newly-formed redexes to redex.
func New(area *heap.Area, alloc *heap.Allocator, redex Redexer) *Linker {
	return &Linker{area: area, alloc: alloc, redex: redex}
}

// LinkPortPort links two already-owned ports; neither side is a wire to
// be freed.
func (lk *Linker) LinkPortPort(a, b ptr.Port) {
	lk.link(a, b, 0, false, 0, false)
}

// LinkWirePort links the port currently targeted by wire w against the
// owned port b. w is freed once consumed.
func (lk *Linker) LinkWirePort(w ptr.Wire, b ptr.Port) {
	a := lk.area.Get(w.Loc())
	lk.link(a, b, w, true, 0, false)
}

// LinkWireWire links the ports currently targeted by wa and wb. Both
// wires are freed once consumed.
func (lk *Linker) LinkWireWire(wa, wb ptr.Wire) {
	a := lk.area.Get(wa.Loc())
	b := lk.area.Get(wb.Loc())
	lk.link(a, b, wa, true, wb, true)
}

func (lk *Linker) link(a, b ptr.Port, wa ptr.Wire, ownA bool, wb ptr.Wire, ownB bool) {
	aVar := a.Tag() == ptr.Var
	bVar := b.Tag() == ptr.Var

	switch {
	case !aVar && !bVar:
		// Both principal: this is a brand new active pair.
		lk.redex.PushRedex(a, b)
	case aVar && !bVar:
		if wrote := lk.substitute(a, b); ownA && wrote == wa.Loc() {
			ownA = false
		}
	case !aVar && bVar:
		if wrote := lk.substitute(b, a); ownB && wrote == wb.Loc() {
			ownB = false
		}
	default:
		// Both variables: neither side has resolved to a node yet. Each
		// variable now targets the other's port directly.
		lk.area.Set(a.Loc(), b)
		lk.area.Set(b.Loc(), a)
		if ownA && a.Loc() == wa.Loc() {
			ownA = false
		}
		if ownB && b.Loc() == wb.Loc() {
			ownB = false
		}
	}

	if ownA {
		lk.alloc.HalfFree(wa.Loc())
	}
	if ownB {
		lk.alloc.HalfFree(wb.Loc())
	}
}

// substitute writes p into the cell addressed by variable v, realizing
// substitution in O(1) in the uncontended case (spec §4.2). Under
// contention it runs the four-step cross-thread protocol: spin past LOCK,
// follow and clear Red chains, rendezvous through GONE when two principal
// arrivals converge, and otherwise CAS the direct write. It returns the
// cell it actually wrote (or marked GONE/FREE), which the caller compares
// against its own wire's source before freeing that source: a variable
// seeded as a self-loop (every node's own fresh aux cell, spec §4.1) names
// itself as its own partner, so wa.Loc() and this return value coincide —
// freeing wa.Loc() in that case would free the very cell substitute just
// populated, discarding live node content the instant it's attached.
func (lk *Linker) substitute(v, p ptr.Port) uint64 {
	loc := v.Loc()
	for {
		cur := lk.area.Get(loc)
		switch {
		case ptr.IsLock(cur):
			// Another thread is mid-allocation of this cell; expected short.
			continue
		case ptr.IsGone(cur):
			if stashed, ok := lk.stash.LoadAndDelete(loc); ok {
				lk.area.Set(loc, ptr.FREE)
				lk.redex.PushRedex(stashed.(ptr.Port), p)
				return loc
			}
			// The first arriver hasn't published its stash yet.
			continue
		case ptr.IsRedir(cur):
			// The cell has moved on; follow the chain and clear it behind us.
			next := cur.Loc()
			lk.area.Set(loc, ptr.FREE)
			loc = next
		case cur.IsPrincipal():
			// Two principal ports are converging on this cell: the first to
			// swap in GONE stashes its port for the second to pick up.
			if lk.area.CAS(loc, cur, ptr.GONE) {
				lk.stash.Store(loc, p)
				return loc
			}
		default:
			// cur is a live Var (or a still-virgin cell): try the direct write.
			if lk.area.CAS(loc, cur, p) {
				return loc
			}
			// Lost the race; the cell changed underneath us, reassess.
		}
	}
}
