// Package parallel drives a power-of-two pool of internal/net.Net
// workers against one shared heap, rebalancing their redex bags at
// barrier-synchronized epochs (spec §5). Fatal errors (heap exhaustion,
// an unreachable interaction pair) abort the whole pool through
// golang.org/x/sync/errgroup the way the teacher's worker pool halts on
// the first hard failure, rather than leaving the others to spin
// against a net no one is fixing.
package parallel

import (
	"context"
	"math/bits"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vic/ict/internal/ptr"
)

// ShareLimit bounds how many redexes move in a single rebalance, so one
// epoch can't stall moving an enormous bag across (spec §5).
const ShareLimit = 4096

// RoundPow2 rounds n up to the nearest power of two, minimum 1 — the
// pool's worker count must be a power of two so bit-trie peer selection
// covers every worker over log2(n) epochs.
func RoundPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Worker is the minimal surface Pool needs from a net.Net: reduce its own
// bag, and report and adjust its bag size.
// Exported so callers outside this package (cmd/ict) can build a
// []Worker from concrete *net.Nets without Pool needing to import
// internal/net itself.
type Worker interface {
	Reduce(limit int) (int, error)
	RedexLen() int
	StealRedexes(max int) [][2]ptr.Port
	AdoptRedexes([][2]ptr.Port)
}

// Pool runs nets concurrently, one goroutine per net, rebalancing their
// redex bags at each epoch until every bag is simultaneously empty.
type Pool struct {
	nets     []Worker
	barrier  *barrier
	lens     []atomic.Int64
	inbox    [][][2]ptr.Port
	stopOnce sync.Once
}

// New builds a Pool over nets, whose length must already be a power of
// two (see RoundPow2).
func New(nets []Worker) *Pool {
	p := &Pool{
		nets:    nets,
		barrier: newBarrier(len(nets)),
		lens:    make([]atomic.Int64, len(nets)),
		inbox:   make([][][2]ptr.Port, len(nets)),
	}
	return p
}

// Run drives every worker to a joint fixed point: each goroutine reduces
// up to quantum redexes, then the pool synchronizes to publish bag
// lengths, picks this epoch's bit-trie peer for every worker, moves
// surplus from the fuller side of each pair, and checks whether the
// global total has reached zero. It stops at the first error from any
// worker: the failure is published before the length barrier, every
// worker leaves right after that barrier, and errgroup returns the error.
func (p *Pool) Run(ctx context.Context, quantum int) error {
	n := len(p.nets)
	logN := bits.Len(uint(n)) - 1 // n is a power of two
	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	var failed atomic.Bool

	for i := range p.nets {
		i := i
		g.Go(func() error {
			epoch := 0
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-done:
					return nil
				default:
				}

				_, err := p.nets[i].Reduce(quantum)
				if err != nil {
					failed.Store(true)
				}

				p.lens[i].Store(int64(p.nets[i].RedexLen()))
				p.barrier.Wait() // every length (and any failure) published

				if failed.Load() {
					// Every worker sees the failure after the same barrier,
					// so none is left waiting at the next one.
					return err
				}

				total := int64(0)
				for j := range p.lens {
					total += p.lens[j].Load()
				}
				if total == 0 {
					p.stopOnce.Do(func() { close(done) })
					p.barrier.Wait() // let the close land before anyone reads inbox
					return nil
				}

				if n > 1 {
					peer := peerOf(i, epoch, logN)
					mine, theirs := p.lens[i].Load(), p.lens[peer].Load()
					if mine > theirs {
						surplus := (mine - theirs) / 2
						if surplus > ShareLimit {
							surplus = ShareLimit
						}
						if surplus > 0 {
							p.inbox[peer] = p.nets[i].StealRedexes(int(surplus))
						}
					}
				}
				p.barrier.Wait() // every share published

				if p.inbox[i] != nil {
					p.nets[i].AdoptRedexes(p.inbox[i])
					p.inbox[i] = nil
				}
				p.barrier.Wait() // every adopt applied before the next Reduce

				epoch++
			}
		})
	}
	return g.Wait()
}

// peerOf computes worker i's rebalance partner for this epoch: XOR i's
// index with one bit, cycling through every bit of the index space over
// logN epochs. A worker shares directly only with its logN hypercube
// neighbours, but surplus passed on hop by hop can reach any worker within
// logN epochs (the same bit-trie technique a hypercube all-to-all exchange
// uses).
func peerOf(i, epoch, logN int) int {
	if logN <= 0 {
		return i
	}
	bit := 1 << (epoch % logN)
	return i ^ bit
}
