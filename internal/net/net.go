// Package net ties the heap, linker and book packages into Net: the
// per-computation state spec §3/§4.4 describes — a root wire, a bag of
// pending redexes, the scratch trgs array a call's instruction stream
// runs against, and the rewrite-class counters.
package net

import (
	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/link"
	"github.com/vic/ict/internal/ptr"
	"github.com/vic/ict/internal/trace"
)

// numTrgSlots sizes the per-call scratch array (spec §9: 2^16 slots is
// enough for any single definition's instruction stream, since trg ids
// are allocated one per instruction output and defs are small).
const numTrgSlots = 1 << 16

// Rewrites counts completed rewrites by class (spec §3).
type Rewrites struct {
	Anni, Comm, Eras, Dref, Oper uint64
}

// Total sums every class.
func (r Rewrites) Total() uint64 { return r.Anni + r.Comm + r.Eras + r.Dref + r.Oper }

// Add accumulates another Rewrites into r (used to fold per-thread
// counters back into a run-wide total).
func (r *Rewrites) Add(o Rewrites) {
	r.Anni += o.Anni
	r.Comm += o.Comm
	r.Eras += o.Eras
	r.Dref += o.Dref
	r.Oper += o.Oper
}

// Defs is the minimal surface Net needs from internal/host: resolve a
// Ref's address to its Def.
type Defs interface {
	DefAt(addr uint64) *book.Def
}

// Net is one thread's (or, for tiny programs, the whole computation's)
// working state: a shared Area and allocator slice, a linker wired to its
// own redex bag, and a scratch trgs array reused call after call.
type Net struct {
	area  *heap.Area
	alloc *heap.Allocator
	link  *link.Linker
	defs  Defs

	root ptr.Wire

	rdex [][2]ptr.Port
	trgs [numTrgSlots]trg

	rwts   Rewrites
	tracer *trace.Tracer
}

// New builds a Net over a thread's allocator slice. root names the cell
// this Net treats as the computation's exposed root wire; cmd/ict and the
// integration tests pass cell 1, the odd half of the reserved null node,
// the way hvm-core's heap.get_root/set_root use a fixed root cell.
func New(area *heap.Area, alloc *heap.Allocator, defs Defs, root ptr.Wire) *Net {
	n := &Net{area: area, alloc: alloc, defs: defs, root: root}
	n.link = link.New(area, alloc, n)
	return n
}

// Area, Alloc, Linker, DefAt satisfy engine.Env.
func (n *Net) Area() *heap.Area        { return n.area }
func (n *Net) Alloc() *heap.Allocator  { return n.alloc }
func (n *Net) Linker() *link.Linker    { return n.link }
func (n *Net) DefAt(addr uint64) *book.Def {
	if n.defs == nil {
		return nil
	}
	return n.defs.DefAt(addr)
}

// Root returns the wire addressing this Net's root cell.
func (n *Net) Root() ptr.Wire { return n.root }

// SetTracer attaches a tracer; pass nil to disable trace recording
// entirely (trace.Tracer's nil receiver is itself a no-op, so this is
// purely a convenience).
func (n *Net) SetTracer(t *trace.Tracer) { n.tracer = t }

// Trace implements engine.Env.
func (n *Net) Trace() *trace.Tracer { return n.tracer }

// Boot seeds the root with entry, typically a Ref to a program's main
// definition (spec §6: Net::boot(&Def)).
func (n *Net) Boot(entry ptr.Port) {
	n.area.Set(n.root.Loc(), entry)
}

// Rewrites reports this Net's rewrite counters.
func (n *Net) Rewrites() Rewrites { return n.rwts }

func (n *Net) CountAnni() { n.rwts.Anni++ }
func (n *Net) CountComm() { n.rwts.Comm++ }
func (n *Net) CountEras() { n.rwts.Eras++ }
func (n *Net) CountDref() { n.rwts.Dref++ }
func (n *Net) CountOper() { n.rwts.Oper++ }

// PushRedex implements link.Redexer: the linker hands newly-formed active
// pairs here.
func (n *Net) PushRedex(a, b ptr.Port) {
	n.rdex = append(n.rdex, [2]ptr.Port{a, b})
}

// PopRedex removes and returns one pending redex, if any.
func (n *Net) PopRedex() (ptr.Port, ptr.Port, bool) {
	l := len(n.rdex)
	if l == 0 {
		return 0, 0, false
	}
	r := n.rdex[l-1]
	n.rdex = n.rdex[:l-1]
	return r[0], r[1], true
}

// RedexLen reports how many redexes are currently pending (used by the
// parallel rebalancer, spec §5).
func (n *Net) RedexLen() int { return len(n.rdex) }

// PeekRedexes returns a copy of the currently pending redexes without
// removing them, for internal/host's Readback.
func (n *Net) PeekRedexes() [][2]ptr.Port {
	return append([][2]ptr.Port(nil), n.rdex...)
}

// StealRedexes removes and returns up to max pending redexes, for the
// parallel scheduler's surplus-sharing step (spec §5).
func (n *Net) StealRedexes(max int) [][2]ptr.Port {
	if max > len(n.rdex) {
		max = len(n.rdex)
	}
	if max == 0 {
		return nil
	}
	start := len(n.rdex) - max
	out := append([][2]ptr.Port(nil), n.rdex[start:]...)
	n.rdex = n.rdex[:start]
	return out
}

// AdoptRedexes appends externally-supplied redexes (the receiving side of
// a rebalance) onto this Net's own bag.
func (n *Net) AdoptRedexes(rs [][2]ptr.Port) {
	n.rdex = append(n.rdex, rs...)
}

// LinkPort implements book.Caller: a native hook links its result against
// the call's own incoming slot (slot 0) or, more generally, any slot it
// was handed.
func (n *Net) LinkPort(slot book.TrgID, p ptr.Port) {
	n.linkTrgPort(slot, p)
}
