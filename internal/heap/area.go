// Package heap is the shared backing store for the runtime: a flat array
// of atomic 64-bit cells (the Area), paired up into 16-byte-aligned nodes,
// plus the per-thread slab allocator with an intrusive freelist that hands
// out disjoint slices of it (spec §3, §4.1).
package heap

import (
	"sync/atomic"

	"github.com/vic/ict/internal/ptr"
)

// Area is the single shared heap every thread allocates out of and every
// thread may read or write for linking purposes. Cell index 0 and 1 are
// permanently reserved as the "null" node and are never handed out by the
// allocator.
//
// freeHead is the shared intrusive freelist: bump allocation is
// per-thread (disjoint slices, no contention), but a rule running on any
// thread may free a node that belongs to another thread's slice (the two
// halves of an active pair rarely share an owner), so the freelist itself
// must be shared and CAS-guarded rather than thread-local.
type Area struct {
	cells    []atomic.Uint64
	freeHead atomic.Uint64
}

// NewArea allocates backing store for numNodes nodes (each node occupies
// two cells), per the Runtime API's init_heap(size).
func NewArea(numNodes int) *Area {
	if numNodes < 1 {
		numNodes = 1
	}
	return &Area{cells: make([]atomic.Uint64, (numNodes+1)*2)}
}

// Len reports the number of cells backing this area.
func (a *Area) Len() int { return len(a.cells) }

// Get reads the port currently stored at loc.
func (a *Area) Get(loc uint64) ptr.Port { return ptr.Port(a.cells[loc].Load()) }

// Set stores a port at loc.
func (a *Area) Set(loc uint64, p ptr.Port) { a.cells[loc].Store(uint64(p)) }

// CAS compare-and-swaps the cell at loc from old to new, reporting
// success.
func (a *Area) CAS(loc uint64, old, new ptr.Port) bool {
	return a.cells[loc].CompareAndSwap(uint64(old), uint64(new))
}

// Swap unconditionally stores new at loc and returns the previous value.
func (a *Area) Swap(loc uint64, new ptr.Port) ptr.Port {
	return ptr.Port(a.cells[loc].Swap(uint64(new)))
}

// GetRaw and SetRaw bypass Port interpretation entirely; the allocator
// uses them to store freelist bookkeeping (a bare next-pointer loc, not a
// meaningful port) in a just-freed cell, per spec §4.1.
func (a *Area) GetRaw(loc uint64) uint64          { return a.cells[loc].Load() }
func (a *Area) SetRaw(loc uint64, v uint64)       { a.cells[loc].Store(v) }
func (a *Area) CASRaw(loc uint64, old, new uint64) bool {
	return a.cells[loc].CompareAndSwap(old, new)
}
