package heap

import "github.com/vic/ict/internal/ptr"

// TraverseNode returns the two wires addressing a node's auxiliary ports:
// port 1 (the left cell, at loc) and port 2 (the right cell, the other
// half). loc must be the location embedded in the node's principal port.
func TraverseNode(loc uint64) (p1, p2 ptr.Wire) {
	w := ptr.NewWire(loc)
	return w, w.Other()
}

// NodeBase returns the even (left-cell) index of the node occupying loc,
// regardless of which half loc addresses.
func NodeBase(loc uint64) uint64 { return loc &^ 1 }
