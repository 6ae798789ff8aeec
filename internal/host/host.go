// Package host bridges the textual book format (internal/book) and the
// runtime (internal/net): loading a Book into addressed Defs, and
// reading a normalized Net back out into a generic tree, per
// original_source/src/host.rs's insert_book/readback.
package host

import (
	"fmt"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/ptr"
)

// Host holds the bidirectional mapping between definition names and the
// stable addresses their Refs carry (host.rs's Host.defs/Host.back).
//
// host.rs derives a Def's address from its Box's own memory address,
// which a page of Rust's allocator guarantees is stable for the Def's
// lifetime. Go gives no safe, portable way to read an object's address
// as a small integer without risking collisions against the 45-bit loc
// field once it's truncated, so Host assigns each Def a sequential index
// instead — just as stable across the run, and never reused, since
// defs are never unloaded. See DESIGN.md.
type Host struct {
	defs []*book.Def
	name []string
	byName map[string]uint64
}

// DefAt returns the Def at addr, or nil if addr is out of range. This
// satisfies net.Defs and engine.Env's DefAt.
func (h *Host) DefAt(addr uint64) *book.Def {
	if addr == 0 || addr >= uint64(len(h.defs)) {
		return nil
	}
	return h.defs[addr]
}

// NameAt returns the name a Ref address was loaded under, for Readback.
func (h *Host) NameAt(addr uint64) (string, bool) {
	if addr == 0 || addr >= uint64(len(h.name)) {
		return "", false
	}
	n := h.name[addr]
	return n, n != ""
}

// Ref returns the Port a definition's name resolves to, for booting a
// Net's root.
func (h *Host) Ref(name string) (ptr.Port, bool) {
	addr, ok := h.byName[name]
	if !ok {
		return 0, false
	}
	return ptr.New(ptr.Ref, h.defs[addr].Lab, addr), true
}

// Load converts every definition in raw into an addressed, compiled Def,
// in the two phases spec §9 and host.rs's insert_book require: first
// every name gets a stable address (so Refs compiled into any def's body
// can point at any other def, including itself or a mutual cycle),
// then every body is compiled against those now-stable addresses.
func Load(raw *book.Book) (*Host, error) {
	h := &Host{byName: make(map[string]uint64)}
	h.defs = append(h.defs, nil) // address 0 is reserved (ERA's null loc)
	h.name = append(h.name, "")

	labelSets := book.CalculateLabelSets(raw)
	names := raw.Names()

	for _, name := range names {
		rd, _ := raw.Get(name)
		addr := uint64(len(h.defs))
		h.defs = append(h.defs, &book.Def{Lab: rd.Lab, Labs: labelSets[name]})
		h.name = append(h.name, name)
		h.byName[name] = addr
	}

	resolve := func(name string) (ptr.Port, bool) { return h.Ref(name) }

	for _, name := range names {
		rd, _ := raw.Get(name)
		dn, err := book.Compile(rd, resolve)
		if err != nil {
			return nil, fmt.Errorf("host: compiling %q: %w", name, err)
		}
		h.defs[h.byName[name]].Net = dn
	}
	return h, nil
}

// RegisterNative installs a native hook under name, reserving it a fresh
// address the way a compiled definition would get one. Intended for
// host-embedding callers (spec §6), not used by the book loader itself.
func (h *Host) RegisterNative(name string, lab uint16, fn book.Native) ptr.Port {
	addr := uint64(len(h.defs))
	h.defs = append(h.defs, &book.Def{Lab: lab, Native: fn})
	h.name = append(h.name, name)
	h.byName[name] = addr
	return ptr.New(ptr.Ref, lab, addr)
}
