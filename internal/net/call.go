package net

import (
	"fmt"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/ptr"
)

// Call instantiates def against the incoming port in (spec §4.4): either
// it runs def's native hook, or it walks def's instruction stream with
// slot 0 pre-seeded to in.
func (n *Net) Call(def *book.Def, in ptr.Port) error {
	if def.IsNative() {
		n.trgs[0] = portTrg(in)
		def.Native(n)
		return nil
	}
	n.trgs[0] = portTrg(in)
	for _, ins := range def.Net.Instr {
		if err := n.exec(ins); err != nil {
			return err
		}
	}
	for _, r := range def.Net.Rdex {
		n.linkTrgTrg(r.A, r.B)
	}
	return nil
}

func (n *Net) exec(ins book.Instruction) error {
	switch x := ins.(type) {
	case book.Set:
		n.linkTrgPort(x.T, x.P)
	case book.Link:
		n.linkTrgTrg(x.A, x.B)
	case book.MkCtr:
		return n.mkNode(ptr.Ctr, x.Lab, x.T, x.A, x.B)
	case book.MkOp2:
		return n.mkNode(ptr.Op2, uint16(x.Op), x.T, x.A, x.B)
	case book.MkOp1:
		return n.mkOp1(x.Op, x.N, x.T, x.B)
	case book.MkMat:
		return n.mkNode(ptr.Mat, 0, x.T, x.A, x.B)
	case book.Wires:
		return n.mkWires(x.AV, x.AW, x.BV, x.BW)
	default:
		return fmt.Errorf("net: unknown instruction %T", ins)
	}
	return nil
}

// linkTrgPort links the trg currently in slot t against the already
// principal port p.
func (n *Net) linkTrgPort(t book.TrgID, p ptr.Port) {
	tr := n.trgs[t]
	if tr.wire {
		n.link.LinkWirePort(tr.atWire, p)
	} else {
		n.link.LinkPortPort(tr.port, p)
	}
}

// linkTrgTrg links the trgs in slots a and b against each other,
// dispatching to the linker entrypoint matching their shapes.
func (n *Net) linkTrgTrg(a, b book.TrgID) {
	ta, tb := n.trgs[a], n.trgs[b]
	switch {
	case !ta.wire && !tb.wire:
		n.link.LinkPortPort(ta.port, tb.port)
	case ta.wire && !tb.wire:
		n.link.LinkWirePort(ta.atWire, tb.port)
	case !ta.wire && tb.wire:
		n.link.LinkWirePort(tb.atWire, ta.port)
	default:
		n.link.LinkWireWire(ta.atWire, tb.atWire)
	}
}

// mkNode creates a fresh two-aux node (Ctr, Op2 or Mat): each aux cell is
// seeded with its own self-loop (the same bootstrap engine/rules.go's
// matZero/matSucc and mkOp1 use), never the other cell's location — the
// two children a node compiles are independent, and cross-seeding them
// would make attaching the first child's value land in the second
// child's own cell, corrupting it the moment that second child attaches
// (spec §5: a racing reader never observes the transient LOCK the
// allocator stamps either way, but only a true self-loop keeps the two
// children from colliding). Slots a and b then get wire trgs into those
// cells for the instructions that follow.
func (n *Net) mkNode(tag ptr.Tag, lab uint16, t, a, b book.TrgID) error {
	loc, err := n.alloc.Alloc()
	if err != nil {
		return err
	}
	n.area.Set(loc, ptr.New(ptr.Var, 0, loc))
	n.area.Set(loc^1, ptr.New(ptr.Var, 0, loc^1))
	n.trgs[a] = wireTrg(ptr.NewWire(loc))
	n.trgs[b] = wireTrg(ptr.NewWire(loc ^ 1))
	n.linkTrgPort(t, ptr.New(tag, lab, loc))
	return nil
}

// mkOp1 creates an Op1 node embedding num as port 1's literal operand;
// port 2 is published as slot b.
func (n *Net) mkOp1(op book.Op, num uint64, t, b book.TrgID) error {
	loc, err := n.alloc.Alloc()
	if err != nil {
		return err
	}
	n.area.Set(loc, ptr.NewNum(num))
	n.area.Set(loc^1, ptr.New(ptr.Var, 0, loc^1))
	n.trgs[b] = wireTrg(ptr.NewWire(loc ^ 1))
	n.linkTrgPort(t, ptr.New(ptr.Op1, uint16(op), loc))
	return nil
}

// mkWires manufactures a free-standing, mutually-pointing wire pair and
// publishes its four endpoints: av/bv are concrete Var-port views of the
// far side (so linking the near side's built node resolves through
// immediately), aw/bw are the wires themselves.
func (n *Net) mkWires(av, aw, bv, bw book.TrgID) error {
	loc, err := n.alloc.Alloc()
	if err != nil {
		return err
	}
	n.area.Set(loc, ptr.New(ptr.Var, 0, loc^1))
	n.area.Set(loc^1, ptr.New(ptr.Var, 0, loc))
	n.trgs[av] = portTrg(ptr.New(ptr.Var, 0, loc^1))
	n.trgs[aw] = wireTrg(ptr.NewWire(loc))
	n.trgs[bv] = portTrg(ptr.New(ptr.Var, 0, loc))
	n.trgs[bw] = wireTrg(ptr.NewWire(loc ^ 1))
	return nil
}
