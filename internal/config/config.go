// Package config holds the ambient settings cmd/ict wires from pflag-backed
// cobra flags into the runtime: worker count, heap size, tracing and
// normalization bounds (SPEC_FULL.md §10). None of this is part of the
// reduction semantics; it exists purely to get a program into the runtime
// and to report on it once it's done.
package config

import (
	"fmt"

	"github.com/vic/ict/internal/parallel"
)

// Run collects the settings a single `ict run` invocation needs.
type Run struct {
	// Workers is the requested worker count; rounded up to a power of two
	// before use (spec §5's bit-trie rebalance needs one).
	Workers int
	// HeapNodes sizes the shared Area, in nodes (spec §7's init_heap(size)).
	HeapNodes int
	// Trace enables the ring-buffer rewrite trace (internal/trace).
	Trace bool
	// TraceCapacity bounds the trace ring buffer's entry count.
	TraceCapacity int
	// Quantum is how many redexes each worker reduces before rebalancing
	// (spec §5); only meaningful when Workers > 1.
	Quantum int
	// MaxRounds bounds cmd/ict's reduce/expand rounds; negative means
	// unbounded.
	MaxRounds int
	// Entry names the definition to boot from (default "main").
	Entry string
}

// Default returns the settings a bare `ict run <file>` should use.
func Default() *Run {
	return &Run{
		Workers:       1,
		HeapNodes:     1 << 20,
		Trace:         false,
		TraceCapacity: 1 << 16,
		Quantum:       64,
		MaxRounds:     -1,
		Entry:         "main",
	}
}

// WorkerCount resolves Workers to the power-of-two count the parallel pool
// actually runs, per parallel.RoundPow2.
func (r *Run) WorkerCount() int { return parallel.RoundPow2(r.Workers) }

// Validate rejects settings the runtime cannot act on.
func (r *Run) Validate() error {
	if r.HeapNodes < 1 {
		return fmt.Errorf("config: heap size must be at least 1 node")
	}
	if r.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1")
	}
	if r.Quantum < 1 {
		return fmt.Errorf("config: quantum must be at least 1")
	}
	if r.Entry == "" {
		return fmt.Errorf("config: entry name must not be empty")
	}
	return nil
}
