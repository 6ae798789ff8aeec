package heap

import (
	"testing"

	"github.com/vic/ict/internal/ptr"
)

func TestAllocStampsLock(t *testing.T) {
	area := NewArea(8)
	al := NewAllocator(area, 2, uint64(area.Len()))

	loc, err := al.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if ptr.Port(area.GetRaw(loc)) != ptr.LOCK || ptr.Port(area.GetRaw(loc^1)) != ptr.LOCK {
		t.Fatalf("freshly allocated node must have both halves stamped LOCK")
	}
}

func TestAllocIsDisjointAndBumps(t *testing.T) {
	area := NewArea(8)
	al := NewAllocator(area, 2, uint64(area.Len()))

	seen := make(map[uint64]bool)
	for i := 0; i < 4; i++ {
		loc, err := al.Alloc()
		if err != nil {
			t.Fatalf("Alloc #%d: %v", i, err)
		}
		if loc%2 != 0 {
			t.Fatalf("Alloc returned an odd (non-base) location %d", loc)
		}
		if seen[loc] {
			t.Fatalf("Alloc returned location %d twice", loc)
		}
		seen[loc] = true
	}
}

func TestAllocExhaustion(t *testing.T) {
	// NewArea(1) backs exactly one usable node beyond the reserved null
	// node, so the bump cursor has nowhere left to go after one Alloc.
	area := NewArea(1)
	al := NewAllocator(area, 2, uint64(area.Len()))

	if _, err := al.Alloc(); err != nil {
		t.Fatalf("first Alloc in a 1-node slice: %v", err)
	}
	if _, err := al.Alloc(); err != ErrOOM {
		t.Fatalf("second Alloc in an exhausted 1-node slice = %v, want ErrOOM", err)
	}
}

func TestFreeRecyclesThroughFreelist(t *testing.T) {
	area := NewArea(1)
	al := NewAllocator(area, 2, uint64(area.Len()))

	loc, err := al.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	al.Free(loc)

	reused, err := al.Alloc()
	if err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
	if reused != loc {
		t.Fatalf("Alloc after Free = %d, want the freed location %d back", reused, loc)
	}
}

func TestHalfFreeOnlyRecyclesWhenBothHalvesAreFree(t *testing.T) {
	area := NewArea(1)
	al := NewAllocator(area, 2, uint64(area.Len()))

	loc, err := al.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	al.HalfFree(loc) // only the left half; the right half still holds LOCK

	if _, err := al.Alloc(); err != ErrOOM {
		t.Fatalf("Alloc with one half still live = %v, want ErrOOM (pair not yet fully freed)", err)
	}

	al.HalfFree(loc ^ 1) // now both halves are FREE; the pair should recycle
	reused, err := al.Alloc()
	if err != nil {
		t.Fatalf("Alloc after both halves freed: %v", err)
	}
	if reused != loc {
		t.Fatalf("Alloc after both halves freed = %d, want %d", reused, loc)
	}
}
