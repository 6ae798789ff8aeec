// Command ict loads a book, boots a definition, normalizes it (serially
// or across a worker pool) and prints the readback, the way the teacher's
// cmd/godnet prints a reduced lambda term and its stats — replacing the
// teacher's flag-free os.Args handling with cobra/pflag flags (spec §10).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/config"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/host"
	"github.com/vic/ict/internal/net"
	"github.com/vic/ict/internal/parallel"
	"github.com/vic/ict/internal/ptr"
	"github.com/vic/ict/internal/trace"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "ict",
		Short: "A parallel interaction-combinator runtime",
	}

	run := &cobra.Command{
		Use:   "run <file>",
		Short: "Load a book, normalize its entry definition, and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], cfg)
		},
	}
	flags := run.Flags()
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker count (rounded up to a power of two)")
	flags.IntVar(&cfg.HeapNodes, "heap", cfg.HeapNodes, "shared heap size, in nodes")
	flags.BoolVar(&cfg.Trace, "trace", cfg.Trace, "record a rewrite trace and print it on exit")
	flags.IntVar(&cfg.TraceCapacity, "trace-capacity", cfg.TraceCapacity, "rewrite trace ring buffer size")
	flags.IntVar(&cfg.Quantum, "quantum", cfg.Quantum, "redexes reduced per worker between rebalances")
	flags.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "normalization round limit (-1 = unbounded)")
	flags.StringVar(&cfg.Entry, "entry", cfg.Entry, "definition name to boot and normalize")

	root.AddCommand(run)
	return root
}

func runFile(path string, cfg *config.Run) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ict: reading %s: %w", path, err)
	}

	raw, err := book.ParseBook(string(src))
	if err != nil {
		return fmt.Errorf("ict: parsing %s: %w", path, err)
	}

	h, err := host.Load(raw)
	if err != nil {
		return fmt.Errorf("ict: loading book: %w", err)
	}

	entry, ok := h.Ref(cfg.Entry)
	if !ok {
		return fmt.Errorf("ict: no definition named %q", cfg.Entry)
	}

	workers := cfg.WorkerCount()
	area := heap.NewArea(cfg.HeapNodes)

	// Cells 0/1 are the reserved null node; the root wire lives at cell 1,
	// so every worker's allocator slice starts at the next node boundary.
	rootWire := ptr.NewWire(1)
	slice := (uint64(area.Len()) - 2) / uint64(workers)
	slice &^= 1 // keep slices node-aligned (even)

	var tracer *trace.Tracer
	if cfg.Trace {
		tracer = trace.New(cfg.TraceCapacity)
		tracer.Enable()
	}

	nets := make([]*net.Net, workers)
	begin := uint64(2)
	for i := 0; i < workers; i++ {
		end := begin + slice
		if i == workers-1 {
			end = uint64(area.Len())
		}
		alloc := heap.NewAllocator(area, begin, end)
		n := net.New(area, alloc, h, rootWire)
		n.SetTracer(tracer)
		nets[i] = n
		begin = end
	}

	owner := nets[0]
	owner.Boot(entry)

	start := time.Now()
	if err := normalize(nets, cfg); err != nil {
		return fmt.Errorf("ict: %w", err)
	}
	elapsed := time.Since(start)

	result := h.Readback(area, rootWire, owner.PeekRedexes())
	fmt.Println(result.String())

	printStats(nets, elapsed, tracer)
	return nil
}

// normalize drives every net to a joint fixed point: reduce (serially, or
// across a parallel.Pool when workers > 1), then let the root-owning net
// walk its own graph for any Ref still needing expansion, at any depth,
// repeating until a round's Expand unfolds nothing (every bag is already
// drained by then). This is the Reduce/Expand alternation net.Net.Normal
// uses, generalized across a worker pool per spec §5/§6.
func normalize(nets []*net.Net, cfg *config.Run) error {
	owner := nets[0]
	for round := 0; cfg.MaxRounds < 0 || round < cfg.MaxRounds; round++ {
		if err := reduceAll(nets, cfg); err != nil {
			return err
		}
		expanded, err := owner.Expand()
		if err != nil {
			return err
		}
		if !expanded {
			return nil
		}
	}
	return fmt.Errorf("exceeded %d normalization rounds", cfg.MaxRounds)
}

func reduceAll(nets []*net.Net, cfg *config.Run) error {
	if len(nets) == 1 {
		_, err := nets[0].Reduce(-1)
		return err
	}
	workers := make([]parallel.Worker, len(nets))
	for i, n := range nets {
		workers[i] = n
	}
	pool := parallel.New(workers)
	return pool.Run(context.Background(), cfg.Quantum)
}

func printStats(nets []*net.Net, elapsed time.Duration, tracer *trace.Tracer) {
	var total net.Rewrites
	for _, n := range nets {
		total.Add(n.Rewrites())
	}
	fmt.Fprintf(os.Stderr, "\nStats:\n")
	fmt.Fprintf(os.Stderr, "Time: %v\n", elapsed)
	fmt.Fprintf(os.Stderr, "Total Rewrites: %d\n", total.Total())
	if elapsed.Seconds() > 0 {
		fmt.Fprintf(os.Stderr, "Rewrites/sec: %.2f\n", float64(total.Total())/elapsed.Seconds())
	}
	fmt.Fprintf(os.Stderr, "Annihilate: %d\n", total.Anni)
	fmt.Fprintf(os.Stderr, "Commute: %d\n", total.Comm)
	fmt.Fprintf(os.Stderr, "Erase: %d\n", total.Eras)
	fmt.Fprintf(os.Stderr, "Deref: %d\n", total.Dref)
	fmt.Fprintf(os.Stderr, "Operate: %d\n", total.Oper)

	if tracer == nil {
		return
	}
	events := tracer.Snapshot()
	fmt.Fprintf(os.Stderr, "\nTrace (%d events):\n", len(events))
	for _, e := range events {
		fmt.Fprintf(os.Stderr, "%6d  %-8s  %d@%d ~ %d@%d\n", e.Step, e.Rule, e.ATag, e.ALoc, e.BTag, e.BLoc)
	}
}
