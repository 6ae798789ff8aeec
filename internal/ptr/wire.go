package ptr

// Wire is a non-owning handle to a single heap cell: a logical undirected
// edge, physically a single cell whose contents name the far end.
type Wire uint64

// NewWire builds a wire addressing the given cell index.
func NewWire(loc uint64) Wire { return Wire(loc) }

// Loc returns the cell index this wire addresses.
func (w Wire) Loc() uint64 { return uint64(w) }

// Other returns the wire addressing the companion cell of the same node
// (the other half, per the half-bit convention described in port.go).
func (w Wire) Other() Wire { return w ^ 1 }

// Port returns the port value that addresses this wire's cell, under the
// given tag and label (used to build, e.g., the principal port of a node
// whose aux cells are w and w.Other()).
func (w Wire) Port(tag Tag, lab uint16) Port { return New(tag, lab, w.Loc()) }
