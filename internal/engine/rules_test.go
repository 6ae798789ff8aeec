package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/link"
	"github.com/vic/ict/internal/ptr"
	"github.com/vic/ict/internal/trace"
)

// capturingRedexer is the Redexer a fakeEnv's Linker publishes into.
type capturingRedexer struct {
	pairs [][2]ptr.Port
}

func (r *capturingRedexer) PushRedex(a, b ptr.Port) {
	r.pairs = append(r.pairs, [2]ptr.Port{a, b})
}

// fakeEnv is the minimal Env a rule needs, backed by a real Area/Allocator
// and Linker so the node shapes a rule builds can be inspected afterward.
type fakeEnv struct {
	area  *heap.Area
	alloc *heap.Allocator
	link  *link.Linker
	redex *capturingRedexer
	defs  map[uint64]*book.Def

	rwts Rewrites
}

func newFakeEnv(nodes int) *fakeEnv {
	area := heap.NewArea(nodes)
	alloc := heap.NewAllocator(area, 2, uint64(area.Len()))
	redex := &capturingRedexer{}
	return &fakeEnv{
		area:  area,
		alloc: alloc,
		link:  link.New(area, alloc, redex),
		redex: redex,
		defs:  map[uint64]*book.Def{},
	}
}

func (e *fakeEnv) Area() *heap.Area           { return e.area }
func (e *fakeEnv) Alloc() *heap.Allocator     { return e.alloc }
func (e *fakeEnv) Linker() *link.Linker       { return e.link }
func (e *fakeEnv) DefAt(addr uint64) *book.Def { return e.defs[addr] }
func (e *fakeEnv) Call(def *book.Def, in ptr.Port) error {
	def.Native(fakeCaller{e})
	return nil
}
func (e *fakeEnv) Trace() *trace.Tracer { return nil }
func (e *fakeEnv) CountAnni()           { e.rwts.Anni++ }
func (e *fakeEnv) CountComm()           { e.rwts.Comm++ }
func (e *fakeEnv) CountEras()           { e.rwts.Eras++ }
func (e *fakeEnv) CountDref()           { e.rwts.Dref++ }
func (e *fakeEnv) CountOper()           { e.rwts.Oper++ }

// Rewrites mirrors internal/net's per-class counters, duplicated here so
// this test package doesn't need to import internal/net.
type Rewrites struct{ Anni, Comm, Eras, Dref, Oper int }

type fakeCaller struct{ env *fakeEnv }

func (c fakeCaller) LinkPort(slot book.TrgID, p ptr.Port) {}

func TestInteractErasEraMeetsEra(t *testing.T) {
	env := newFakeEnv(1)
	require.NoError(t, Interact(env, ptr.ERA, ptr.ERA))
	require.Equal(t, 1, env.rwts.Eras)
}

func TestInteractAnni2LinksAuxThrough(t *testing.T) {
	env := newFakeEnv(4)

	aLoc, err := env.alloc.Alloc()
	require.NoError(t, err)
	bLoc, err := env.alloc.Alloc()
	require.NoError(t, err)

	// Two independent live cells standing in for the far ends of a's and
	// b's aux wires.
	farA1, err := env.alloc.Alloc()
	require.NoError(t, err)
	farB1, err := env.alloc.Alloc()
	require.NoError(t, err)

	env.area.Set(aLoc, ptr.New(ptr.Var, 0, farA1))
	env.area.Set(aLoc^1, ptr.New(ptr.Var, 0, farA1^1))
	env.area.Set(bLoc, ptr.New(ptr.Var, 0, farB1))
	env.area.Set(bLoc^1, ptr.New(ptr.Var, 0, farB1^1))
	env.area.Set(farA1, ptr.New(ptr.Var, 0, aLoc))
	env.area.Set(farB1, ptr.New(ptr.Var, 0, bLoc))

	a := ptr.New(ptr.Ctr, 3, aLoc)
	b := ptr.New(ptr.Ctr, 3, bLoc)
	require.NoError(t, Interact(env, a, b))

	require.Equal(t, 1, env.rwts.Anni)
	// aux1's far end now points directly at bux1's far end, and vice
	// versa (the two original nodes' wires spliced straight through).
	require.Equal(t, ptr.New(ptr.Var, 0, farB1), env.area.Get(farA1))
	require.Equal(t, ptr.New(ptr.Var, 0, farA1), env.area.Get(farB1))
}

func TestInteractComm02CopiesNilaryIntoBothAux(t *testing.T) {
	env := newFakeEnv(4)

	ctrLoc, err := env.alloc.Alloc()
	require.NoError(t, err)
	far1, err := env.alloc.Alloc()
	require.NoError(t, err)
	far2, err := env.alloc.Alloc()
	require.NoError(t, err)

	env.area.Set(ctrLoc, ptr.New(ptr.Var, 0, far1))
	env.area.Set(ctrLoc^1, ptr.New(ptr.Var, 0, far2))
	env.area.Set(far1, ptr.New(ptr.Var, 0, ctrLoc))
	env.area.Set(far2, ptr.New(ptr.Var, 0, ctrLoc^1))

	ctr := ptr.New(ptr.Ctr, 0, ctrLoc)
	num := ptr.NewNum(42)
	require.NoError(t, Interact(env, ctr, num))

	require.Equal(t, 1, env.rwts.Comm)
	require.Equal(t, num, env.area.Get(far1))
	require.Equal(t, num, env.area.Get(far2))
}

func TestInteractOp2NumThenOp1NumComputesAdd(t *testing.T) {
	env := newFakeEnv(4)

	op2Loc, err := env.alloc.Alloc()
	require.NoError(t, err)
	resultCell, err := env.alloc.Alloc()
	require.NoError(t, err)

	// aux1 is where the second operand arrives; aux2 carries the result
	// out to resultCell, which this test reads back directly.
	env.area.Set(op2Loc, ptr.New(ptr.Var, 0, op2Loc))
	env.area.Set(op2Loc^1, ptr.New(ptr.Var, 0, resultCell))
	env.area.Set(resultCell, ptr.New(ptr.Var, 0, op2Loc^1))

	op2 := ptr.New(ptr.Op2, uint16(book.Add), op2Loc)
	require.NoError(t, Interact(env, op2, ptr.NewNum(10)))
	require.Equal(t, 1, env.rwts.Oper)

	// op2's aux1 now holds an Op1(ADD, #10, ...) awaiting the second
	// operand; find it and feed it in.
	op1 := env.area.Get(op2Loc)
	require.Equal(t, ptr.Op1, op1.Tag())

	require.NoError(t, Interact(env, op1, ptr.NewNum(2)))
	require.Equal(t, 2, env.rwts.Oper)

	require.Equal(t, ptr.NewNum(12), env.area.Get(resultCell))
}

func TestInteractMatZeroTakesZeroBranch(t *testing.T) {
	env := newFakeEnv(4)

	matLoc, err := env.alloc.Alloc()
	require.NoError(t, err)
	zeroBranch, err := env.alloc.Alloc()
	require.NoError(t, err)

	env.area.Set(matLoc, ptr.New(ptr.Var, 0, zeroBranch))
	env.area.Set(matLoc^1, ptr.New(ptr.Var, 0, matLoc^1))
	env.area.Set(zeroBranch, ptr.New(ptr.Var, 0, matLoc))

	mat := ptr.New(ptr.Mat, 0, matLoc)
	require.NoError(t, Interact(env, mat, ptr.NewNum(0)))
	require.Equal(t, 1, env.rwts.Oper)

	got := env.area.Get(zeroBranch)
	require.Equal(t, ptr.Ctr, got.Tag(), "the zero branch must read through to Ctr(match.aux2, ERA)")
}

func TestInteractMatSuccCarriesPredecessor(t *testing.T) {
	// Three nodes set up here plus the two matSucc allocates.
	env := newFakeEnv(5)

	matLoc, err := env.alloc.Alloc()
	require.NoError(t, err)
	succBranch, err := env.alloc.Alloc()
	require.NoError(t, err)
	predOut, err := env.alloc.Alloc()
	require.NoError(t, err)

	env.area.Set(matLoc, ptr.New(ptr.Var, 0, succBranch))
	env.area.Set(matLoc^1, ptr.New(ptr.Var, 0, predOut))
	env.area.Set(succBranch, ptr.New(ptr.Var, 0, matLoc))
	env.area.Set(predOut, ptr.New(ptr.Var, 0, matLoc^1))

	mat := ptr.New(ptr.Mat, 0, matLoc)
	require.NoError(t, Interact(env, mat, ptr.NewNum(6)))
	require.Equal(t, 1, env.rwts.Oper)

	// aux1 reads through to the outer Ctr(ERA, inner successor node); its
	// second port is where the predecessor Num actually lives. predOut
	// itself only ends up holding the wire back to that cell (nothing else
	// in this isolated test links through it to pull the Num further).
	outer := env.area.Get(succBranch)
	require.Equal(t, ptr.Ctr, outer.Tag())
	inner := env.area.Get(outer.Loc() ^ 1)
	require.Equal(t, ptr.Ctr, inner.Tag())

	innerLoc := inner.Loc()
	require.Equal(t, ptr.NewNum(5), env.area.Get(innerLoc), "matSucc must embed num-1 in the inner successor node")
	require.Equal(t, ptr.New(ptr.Var, 0, predOut), env.area.Get(innerLoc^1), "the inner node's second port must wire straight through to aux2's far end")
	require.Equal(t, ptr.New(ptr.Var, 0, innerLoc^1), env.area.Get(predOut), "aux2's far end must wire back to the inner node's second port")
}
