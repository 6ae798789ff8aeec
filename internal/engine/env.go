// Package engine implements the interaction rule table: the eight rewrite
// families spec §4.3 lists (anni2, anni1, comm22, comm12, comm02, eras,
// op2_num, op1_num, mat_zero, mat_succ) plus call dispatch for a Ref
// meeting anything that isn't itself nilary.
//
// Every rule is written against the Env interface rather than a concrete
// *net.Net, so internal/net can depend on internal/engine without the
// reverse import: engine knows nothing about Net, reduce loops or the
// parallel scheduler.
package engine

import (
	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/link"
	"github.com/vic/ict/internal/ptr"
	"github.com/vic/ict/internal/trace"
)

// Env is what a rule needs from its caller: the heap and allocator to
// build and free nodes, the linker to publish outward connections, a way
// to look up a Ref's Def and instantiate it, and the class counters spec
// §3 keeps (rwts: anni/comm/eras/dref/oper).
type Env interface {
	Area() *heap.Area
	Alloc() *heap.Allocator
	Linker() *link.Linker
	DefAt(addr uint64) *book.Def

	// Call instantiates def against the call's counterpart port in (spec
	// §4.4's expander).
	Call(def *book.Def, in ptr.Port) error

	// Trace returns this Net's tracer, or nil if tracing wasn't
	// configured; trace.Tracer's nil-and-disabled receivers are both
	// no-ops, so rules call it unconditionally.
	Trace() *trace.Tracer

	CountAnni()
	CountComm()
	CountEras()
	CountDref()
	CountOper()
}
