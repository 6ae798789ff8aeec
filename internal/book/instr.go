package book

import "github.com/vic/ict/internal/ptr"

// Instruction is one step of a Def's instruction stream (spec §4.4). The
// compiler that produces a Book is external to this core; this core only
// consumes the stream, executing it in order.
type Instruction interface{ isInstruction() }

// Set links the trg currently in slot T with the (already principal)
// port P.
type Set struct {
	T TrgID
	P ptr.Port
}

// Link links the trgs in slots A and B.
type Link struct{ A, B TrgID }

// MkCtr creates a fresh Ctr node of the given label, links its principal
// against slot T, and publishes its two aux ports as slots A and B.
type MkCtr struct {
	Lab  uint16
	T, A, B TrgID
}

// MkOp2 is MkCtr's counterpart for a binary numeric operator node.
type MkOp2 struct {
	Op      Op
	T, A, B TrgID
}

// MkOp1 creates an Op1 node with immediate number N embedded in port 1,
// links its principal against slot T, and publishes port 2 as slot B.
type MkOp1 struct {
	Op   Op
	N    uint64
	T, B TrgID
}

// MkMat creates a Mat node, linking its principal against slot T and
// publishing its two aux ports as A and B.
type MkMat struct {
	T, A, B TrgID
}

// Wires allocates a free-standing wire pair and publishes its four
// endpoints (two ports pointing at each other's cell, and the two wires
// themselves) as slots AV/AW and BV/BW.
type Wires struct {
	AV, AW, BV, BW TrgID
}

func (Set) isInstruction()   {}
func (Link) isInstruction()  {}
func (MkCtr) isInstruction() {}
func (MkOp2) isInstruction() {}
func (MkOp1) isInstruction() {}
func (MkMat) isInstruction() {}
func (Wires) isInstruction() {}
