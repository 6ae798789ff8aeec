// Package book holds the compiled representation a book of definitions
// is made of: Def, DefNet, Instruction, and Book itself, plus the label-set
// analysis (spec §9) and a small textual format used to write fixtures.
package book

import "github.com/vic/ict/internal/ptr"

// TrgID indexes into a call's scratch trgs array (spec §4.4, §9: sized at
// 2^16 slots per thread).
type TrgID uint16

// Native is a host-provided hook a Ref may invoke instead of instantiating
// a DefNet (spec §3: "either a native function hook or a DefNet").
type Native func(call Caller)

// Caller is the minimal surface a Native hook needs: link its incoming
// port against something it builds. internal/net.Net implements this.
type Caller interface {
	LinkPort(slot TrgID, p ptr.Port)
}

// Def is a label plus either a native hook or a DefNet.
type Def struct {
	Lab    uint16
	Labs   LabSet
	Native Native
	Net    *DefNet
}

// IsNative reports whether this Def is backed by a native hook rather
// than an instruction stream.
func (d *Def) IsNative() bool { return d.Native != nil }

// DefNet is an ordered instruction sequence describing how to instantiate
// a closed net, plus the redexes it wires up internally.
type DefNet struct {
	Instr []Instruction
	Rdex  []RdexPair
}

// RdexPair names two trg slots that become an initial redex once the
// call's instructions have run.
type RdexPair struct {
	A, B TrgID
}
