// Package integration exercises the full parse -> load -> reduce ->
// readback pipeline end to end and single-threaded, the way a caller
// (cmd/ict) actually drives it.
package integration

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/host"
	"github.com/vic/ict/internal/net"
	"github.com/vic/ict/internal/ptr"
)

// run parses src, loads it, normalizes @main from a fresh heap and
// returns the readback string alongside the total rewrite count.
func run(t *testing.T, src string) (string, uint64) {
	t.Helper()

	b, err := book.ParseBook(src)
	require.NoError(t, err)

	h, err := host.Load(b)
	require.NoError(t, err)

	entry, ok := h.Ref("main")
	require.True(t, ok, "book must define @main")

	area := heap.NewArea(1 << 12)
	alloc := heap.NewAllocator(area, 2, uint64(area.Len()))
	root := ptr.NewWire(1)

	n := net.New(area, alloc, h, root)
	n.Boot(entry)
	require.NoError(t, n.Normal(-1))

	rn := h.Readback(area, root, n.PeekRedexes())
	return rn.String(), n.Rewrites().Total()
}

func TestNormalizeEraMeetsEra(t *testing.T) {
	result, total := run(t, `@main = * & * ~ *`)
	require.Equal(t, "*", result)
	require.Equal(t, uint64(2), total, "one root deref plus the era/era erasure")
}

func TestNormalizeRefChainThroughEra(t *testing.T) {
	// A Ref meeting Ref (both nilary) discards both, same as Era~Era:
	// classify checks for two nilary sides before call dispatch, so @id is
	// never unfolded and @main's own deref is the only one.
	result, total := run(t, `
@id = *
@main = * & @id ~ *
`)
	require.Equal(t, "*", result)
	require.Equal(t, uint64(2), total)
}

func TestNormalizeIdentityDuplicatesSharedVariable(t *testing.T) {
	// root's own body is the pair (x x) reacting against [* root]: the two
	// Ctrs carry labels 0 and 1, so they commute (comm22). The copy of
	// (x x) that meets `*` is erased (comm02), the two [..] copies meet
	// through the shared `x` and annihilate (anni2), and the last Era~Era
	// pair is discarded (eras). root ends up holding the other (..) copy,
	// whose two aux ports are one shared variable read back under one
	// name. With @main's deref that is 5 rewrites.
	result, total := run(t, `@main = root & (x x) ~ [* root]`)
	require.Equal(t, "(v0 v0)", result)
	require.Equal(t, uint64(5), total)
}

func TestNormalizeChurchBooleanAnd(t *testing.T) {
	// Standard Church-boolean encoding: @true/@fals pick one of their two
	// aux ports, @and unfolds into a pair of applications. call() unfolds
	// a non-ERA Ref against a Ctr twice (@and, then @true); one @fals is
	// erased against a `*`, and the other ends up at the root, where
	// Expand unfolds it. With @main's own deref that is 4 derefs, plus
	// 4 anni2 and 1 eras.
	result, total := run(t, `
@true = (b (* b))
@fals = (* (b b))
@and = ((b (@fals c)) (b c))
@main = root & @and ~ (@true (@fals root))
`)
	require.Equal(t, "(* (v0 v0))", result)
	require.Equal(t, uint64(9), total)
}

func TestNormalizeArithmeticAdd(t *testing.T) {
	// <ADD second result> ~ first builds an Op2 whose principal meets
	// `first`, carrying `second` in aux1 and the output wire in aux2:
	// op2Num turns it into Op1(Add, first) ~ second, which op1Num then
	// folds into the literal result. Two genuinely separate Oper steps
	// (Op2 then Op1), not one, plus the root's own deref, accounts for
	// the total of 3.
	result, total := run(t, `@main = result & <ADD #2 result> ~ #10`)
	require.Equal(t, "#12", result)
	require.Equal(t, uint64(3), total)
}

func TestNormalizeArithmeticNot(t *testing.T) {
	result, total := run(t, `@main = result & <NOT #256 result> ~ #0`)
	require.Equal(t, fmt.Sprintf("#%d", (^uint64(256))&ptr.MaxNum), result)
	require.Equal(t, uint64(3), total)
}

func TestNormalizeArithmeticDivByZeroSaturates(t *testing.T) {
	// spec §8's worked example (`9 DIV 0` -> `#16777215`) assumes a 24-bit
	// numeric domain; this engine's Num field is 60 bits wide (DESIGN.md),
	// so division by zero saturates to the full ptr.MaxNum instead.
	result, total := run(t, `@main = result & <DIV #0 result> ~ #9`)
	require.Equal(t, fmt.Sprintf("#%d", ptr.MaxNum), result)
	require.Equal(t, uint64(3), total)
}

func TestNormalizeExpandDescendsIntoSurvivingCtr(t *testing.T) {
	// @main's own body substitutes #1 and @inert directly into the two
	// aux cells of its own root Ctr (x and y are each linked to a value,
	// not to another principal port, so neither substitution ever forms
	// a redex). Once the bag is empty, the root cell holds a live Ctr
	// whose second child is still a bare, unexpanded @inert Ref — nothing
	// short of Expand's recursive Ctr-descent can ever reach it, since no
	// rule forms a redex against a Ctr's own aux wire just because it
	// holds a Ref. Proves Expand unfolds a Ref nested under a surviving
	// Ctr, not just a Ref sitting at the literal root cell.
	result, total := run(t, `
@inert = *
@main = (x y) & x ~ #1 & y ~ @inert
`)
	require.Equal(t, "(#1 *)", result)
	require.Equal(t, uint64(2), total, "one deref for @main, one for the nested @inert")
}
