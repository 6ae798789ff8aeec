package heap

import (
	"errors"

	"github.com/vic/ict/internal/ptr"
)

// ErrOOM is returned when a thread's bump cursor runs off the end of its
// slice with no freelist entries available (spec §7: heap exhaustion,
// unrecoverable for that computation).
var ErrOOM = errors.New("heap: exhausted thread slab")

// Allocator is a per-thread bump allocator over a disjoint [begin, end)
// slice (in cell indices, always even) of a shared Area, backed by that
// Area's shared intrusive freelist. Nodes are always two cells, so
// Alloc/Free work in node-sized units.
type Allocator struct {
	area  *Area
	begin uint64
	end   uint64
	next  uint64
}

// NewAllocator creates an allocator over the half-open cell range
// [begin, end) of area. begin and end must be even.
func NewAllocator(area *Area, begin, end uint64) *Allocator {
	return &Allocator{area: area, begin: begin, end: end, next: begin}
}

// Alloc reserves a fresh node and returns the location of its left cell.
// Both halves are stamped LOCK before Alloc returns, per the invariant
// that no thread may observe a half-initialized node.
func (al *Allocator) Alloc() (uint64, error) {
	for {
		head := al.area.freeHead.Load()
		if head == 0 {
			break
		}
		next := al.area.GetRaw(head)
		if al.area.freeHead.CompareAndSwap(head, next) {
			al.area.SetRaw(head, uint64(ptr.LOCK))
			al.area.SetRaw(head^1, uint64(ptr.LOCK))
			return head, nil
		}
	}
	for al.next < al.end {
		loc := al.next
		al.next += 2
		if al.area.GetRaw(loc) == 0 && al.area.GetRaw(loc^1) == 0 {
			al.area.SetRaw(loc, uint64(ptr.LOCK))
			al.area.SetRaw(loc^1, uint64(ptr.LOCK))
			return loc, nil
		}
	}
	return 0, ErrOOM
}

// HalfFree stores FREE in the given cell. If its companion half is also
// FREE, the pair is pushed onto the Area's shared freelist: the current
// head is written into the left half, then the Area's freelist head is
// CAS-ed to this pair, retrying until the push lands.
func (al *Allocator) HalfFree(loc uint64) {
	al.area.SetRaw(loc, uint64(ptr.FREE))
	other := loc ^ 1
	if al.area.GetRaw(other) != uint64(ptr.FREE) {
		return
	}
	base := NodeBase(loc)
	for {
		head := al.area.freeHead.Load()
		al.area.SetRaw(base, head)
		if al.area.freeHead.CompareAndSwap(head, base) {
			return
		}
	}
}

// Free releases both halves of a node.
func (al *Allocator) Free(loc uint64) {
	base := NodeBase(loc)
	al.HalfFree(base)
	al.HalfFree(base ^ 1)
}
