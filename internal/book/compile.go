package book

import (
	"fmt"

	"github.com/vic/ict/internal/ptr"
)

// ResolveRef looks up the stable Port a reference name compiles to. This
// is satisfied by internal/host's two-phase Load (spec §9: definitions
// may be cyclic, so every name must already have a stable address before
// any body is compiled).
type ResolveRef func(name string) (ptr.Port, bool)

// Compile turns a RawDef's tree(s) into an ordered Instruction stream,
// per spec §4.4. Every top-level redex is realized through the stream
// itself, so the returned DefNet.Rdex is always empty.
//
// Slot 0 is reserved for the call's incoming counterpart port (spec: "The
// call site passes its counterpart port as slot 0"). The root tree
// compiles directly against slot 0. Each additional top-level redex pair
// (def = root & a1 ~ b1 & a2 ~ b2 ...) is realized with a Wires
// instruction that manufactures a fresh, mutually-pointing wire pair, and
// compiling each side of the pair against that wire's own slot: writing a
// tree's top node there runs it through the ordinary trg-link machinery,
// which — because the two cells already point at each other — naturally
// resolves into a pushed active pair once both sides have landed,
// without needing any separate bookkeeping.
func Compile(raw *RawDef, resolve ResolveRef) (*DefNet, error) {
	c := &compiler{resolve: resolve, vars: make(map[string]TrgID), next: 1}
	if err := c.tree(raw.Net.Root, 0); err != nil {
		return nil, err
	}
	for _, r := range raw.Net.Rdex {
		av, aw, bv, bw := c.fresh(), c.fresh(), c.fresh(), c.fresh()
		c.instr = append(c.instr, Wires{AV: av, AW: aw, BV: bv, BW: bw})
		if err := c.tree(r.A, aw); err != nil {
			return nil, err
		}
		if err := c.tree(r.B, bw); err != nil {
			return nil, err
		}
	}
	for name := range c.vars {
		return nil, fmt.Errorf("book: variable %q used only once in %q (nets must be closed)", name, raw.Name)
	}
	return &DefNet{Instr: c.instr}, nil
}

type compiler struct {
	resolve ResolveRef
	vars    map[string]TrgID
	next    TrgID
	instr   []Instruction
}

func (c *compiler) fresh() TrgID {
	t := c.next
	c.next++
	return t
}

func (c *compiler) tree(t *RawTree, target TrgID) error {
	switch t.Kind {
	case RawEra:
		c.instr = append(c.instr, Set{T: target, P: ptr.ERA})
	case RawNum:
		c.instr = append(c.instr, Set{T: target, P: ptr.NewNum(t.Num)})
	case RawRef:
		p, ok := c.resolve(t.Name)
		if !ok {
			return fmt.Errorf("book: undefined reference @%s", t.Name)
		}
		c.instr = append(c.instr, Set{T: target, P: p})
	case RawVar:
		if prev, ok := c.vars[t.Name]; ok {
			delete(c.vars, t.Name)
			c.instr = append(c.instr, Link{A: prev, B: target})
		} else {
			c.vars[t.Name] = target
		}
	case RawCtr:
		a, b := c.fresh(), c.fresh()
		c.instr = append(c.instr, MkCtr{Lab: t.Lab, T: target, A: a, B: b})
		if err := c.tree(t.Sub[0], a); err != nil {
			return err
		}
		return c.tree(t.Sub[1], b)
	case RawOp2:
		a, b := c.fresh(), c.fresh()
		c.instr = append(c.instr, MkOp2{Op: Op(t.Lab), T: target, A: a, B: b})
		if err := c.tree(t.Sub[0], a); err != nil {
			return err
		}
		return c.tree(t.Sub[1], b)
	case RawOp1:
		b := c.fresh()
		c.instr = append(c.instr, MkOp1{Op: Op(t.Lab), N: t.Num, T: target, B: b})
		return c.tree(t.Sub[1], b)
	case RawMat:
		a, b := c.fresh(), c.fresh()
		c.instr = append(c.instr, MkMat{T: target, A: a, B: b})
		if err := c.tree(t.Sub[0], a); err != nil {
			return err
		}
		return c.tree(t.Sub[1], b)
	default:
		return fmt.Errorf("book: unknown tree kind %v", t.Kind)
	}
	return nil
}
