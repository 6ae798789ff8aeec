package net

import "github.com/vic/ict/internal/ptr"

// trg is the tagged union spec §4.4/§9 calls "trg": a call's scratch
// slot holds either a concrete port already in hand, or a dangling wire
// whose far end hasn't resolved yet.
type trg struct {
	wire   bool
	port   ptr.Port
	atWire ptr.Wire
}

func portTrg(p ptr.Port) trg { return trg{port: p} }
func wireTrg(w ptr.Wire) trg { return trg{wire: true, atWire: w} }
