package host

import (
	"fmt"
	"strings"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/ptr"
)

// TreeKind discriminates the shapes Readback can produce.
type TreeKind int

const (
	TVar TreeKind = iota
	TEra
	TRef
	TNum
	TCtr
	TOp2
	TOp1
	TMat
)

// Tree is the generic, book-format-agnostic AST Readback produces from a
// live net (host.rs's ast::Tree).
type Tree struct {
	Kind TreeKind
	Name string // Var or Ref name
	Num  uint64
	Lab  uint16
	Op   book.Op
	Sub  [2]*Tree
}

// ReadNet is a readback's result: a root tree plus any redexes still
// pending (spec §6: Host.readback).
type ReadNet struct {
	Root *Tree
	Rdex [][2]*Tree
}

// Area is the minimal surface Readback needs to inspect a live heap.
type Area interface {
	Get(loc uint64) ptr.Port
}

// Readback walks a live net starting at root and turns it into a generic
// Tree, following the same conventions as
// original_source/src/host.rs's State::read_port/read_wire: Red
// redirections are transparently followed, and a Var's identity is keyed
// by the lower of the two cell locations its edge touches, so both
// directions of traversal agree on one name.
//
// Per spec §4.5's Non-goals, cyclic garbage and disconnected subnets
// cannot be read back; a viscious cycle surfaces as an unresolved Var
// reference (the same limitation host.rs documents).
func (h *Host) Readback(area Area, root ptr.Wire, rdex [][2]ptr.Port) *ReadNet {
	st := &readState{host: h, area: area, vars: make(map[uint64]int)}
	out := &ReadNet{Root: st.readWire(root)}
	for _, r := range rdex {
		out.Rdex = append(out.Rdex, [2]*Tree{st.readPort(r[0], nil), st.readPort(r[1], nil)})
	}
	return out
}

type readState struct {
	host *Host
	area Area
	vars map[uint64]int
	next int
}

func (s *readState) readWire(w ptr.Wire) *Tree {
	p := s.area.Get(w.Loc())
	return s.readPort(p, &w)
}

func (s *readState) readPort(p ptr.Port, w *ptr.Wire) *Tree {
	switch p.Tag() {
	case ptr.Var:
		key := p.Loc()
		if w != nil && w.Loc() < key {
			key = w.Loc()
		}
		id, ok := s.vars[key]
		if ok {
			delete(s.vars, key)
		} else {
			id = s.next
			s.next++
			s.vars[key] = id
		}
		return &Tree{Kind: TVar, Name: fmt.Sprintf("v%d", id)}
	case ptr.Red:
		return s.readWire(p.Wire())
	case ptr.Ref:
		if p.IsEra() {
			return &Tree{Kind: TEra}
		}
		name, _ := s.host.NameAt(p.Loc())
		return &Tree{Kind: TRef, Name: name}
	case ptr.Num:
		return &Tree{Kind: TNum, Num: p.Num()}
	case ptr.Op2:
		w1, w2 := heap.TraverseNode(p.Loc())
		return &Tree{Kind: TOp2, Op: book.Op(p.Lab()), Sub: [2]*Tree{s.readWire(w1), s.readWire(w2)}}
	case ptr.Op1:
		_, w2 := heap.TraverseNode(p.Loc())
		embedded := s.area.Get(p.Loc())
		return &Tree{Kind: TOp1, Op: book.Op(p.Lab()), Num: embedded.Num(), Sub: [2]*Tree{nil, s.readWire(w2)}}
	case ptr.Ctr:
		w1, w2 := heap.TraverseNode(p.Loc())
		return &Tree{Kind: TCtr, Lab: p.Lab(), Sub: [2]*Tree{s.readWire(w1), s.readWire(w2)}}
	case ptr.Mat:
		w1, w2 := heap.TraverseNode(p.Loc())
		return &Tree{Kind: TMat, Sub: [2]*Tree{s.readWire(w1), s.readWire(w2)}}
	default:
		return &Tree{Kind: TEra}
	}
}

// String renders t back into the textual book format's tree grammar
// (internal/book/parse.go), so a readback round-trips through ParseBook.
func (t *Tree) String() string {
	if t == nil {
		return "*"
	}
	switch t.Kind {
	case TVar:
		return t.Name
	case TEra:
		return "*"
	case TRef:
		return "@" + t.Name
	case TNum:
		return fmt.Sprintf("#%d", t.Num)
	case TCtr:
		switch t.Lab {
		case 0:
			return fmt.Sprintf("(%s %s)", t.Sub[0], t.Sub[1])
		case 1:
			return fmt.Sprintf("[%s %s]", t.Sub[0], t.Sub[1])
		default:
			return fmt.Sprintf("{%d %s %s}", t.Lab, t.Sub[0], t.Sub[1])
		}
	case TOp2:
		return fmt.Sprintf("<%s %s %s>", t.Op, t.Sub[0], t.Sub[1])
	case TOp1:
		return fmt.Sprintf("<%s #%d %s>", t.Op, t.Num, t.Sub[1])
	case TMat:
		return fmt.Sprintf("?%s %s", t.Sub[0], t.Sub[1])
	default:
		return "?"
	}
}

// String renders every redex alongside the root, in book-def-body form.
func (n *ReadNet) String() string {
	var b strings.Builder
	b.WriteString(n.Root.String())
	for _, r := range n.Rdex {
		fmt.Fprintf(&b, " & %s ~ %s", r[0], r[1])
	}
	return b.String()
}
