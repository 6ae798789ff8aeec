package engine

import (
	"fmt"

	"github.com/vic/ict/internal/book"
	"github.com/vic/ict/internal/heap"
	"github.com/vic/ict/internal/ptr"
	"github.com/vic/ict/internal/trace"
)

// Interact classifies an active pair (a, b) and dispatches it to the rule
// spec §4.3's table assigns. Both ports must be principal.
func Interact(env Env, a, b ptr.Port) error {
	kind, run := classify(env, a, b)
	env.Trace().Record(trace.Event{
		Rule: kind,
		ATag: uint8(a.Tag()), ALab: a.Lab(), ALoc: a.Loc(),
		BTag: uint8(b.Tag()), BLab: b.Lab(), BLoc: b.Loc(),
	})
	return run(env, a, b)
}

type ruleFunc func(env Env, a, b ptr.Port) error

// classify picks the rule spec §4.3's table assigns to (a, b), returning
// it already oriented so the rule's own argument order matches its
// doc comment (the table is symmetric; callers needn't pre-sort).
func classify(env Env, a, b ptr.Port) (trace.Kind, ruleFunc) {
	switch {
	case a.IsNilary() && b.IsNilary():
		// Both sides are Num or Ref (ERA included): neither has aux ports
		// to match against, so the pair is simply discarded. A Ctr meeting
		// ERA is handled below instead, since ERA alone is nilary on both
		// sides of that check but still needs comm02's per-aux erasure.
		return trace.Eras, func(env Env, a, b ptr.Port) error { env.CountEras(); return nil }
	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Ref && b.IsEra():
		return trace.Comm02, func(env Env, a, b ptr.Port) error { return comm02(env, a, b) }
	case a.Tag() == ptr.Ref && b.Tag() == ptr.Ctr && a.IsEra():
		return trace.Comm02, func(env Env, a, b ptr.Port) error { return comm02(env, b, a) }
	case a.Tag() == ptr.Ref:
		return trace.Call, call
	case b.Tag() == ptr.Ref:
		return trace.Call, func(env Env, a, b ptr.Port) error { return call(env, b, a) }
	}

	switch {
	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Ctr && a.Lab() == b.Lab():
		return trace.Anni2, anni2
	case a.Tag() == ptr.Op2 && b.Tag() == ptr.Op2:
		return trace.Anni2, anni2
	case a.Tag() == ptr.Mat && b.Tag() == ptr.Mat:
		return trace.Anni2, anni2
	case a.Tag() == ptr.Op1 && b.Tag() == ptr.Op1:
		return trace.Anni1, anni1

	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Ctr:
		return trace.Comm22, comm22
	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Op2:
		return trace.Comm22, comm22
	case a.Tag() == ptr.Op2 && b.Tag() == ptr.Ctr:
		return trace.Comm22, func(env Env, a, b ptr.Port) error { return comm22(env, b, a) }
	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Mat:
		return trace.Comm22, comm22
	case a.Tag() == ptr.Mat && b.Tag() == ptr.Ctr:
		return trace.Comm22, func(env Env, a, b ptr.Port) error { return comm22(env, b, a) }

	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Op1:
		return trace.Comm12, comm12
	case a.Tag() == ptr.Op1 && b.Tag() == ptr.Ctr:
		return trace.Comm12, func(env Env, a, b ptr.Port) error { return comm12(env, b, a) }

	case a.Tag() == ptr.Ctr && b.Tag() == ptr.Num:
		return trace.Comm02, comm02
	case a.Tag() == ptr.Num && b.Tag() == ptr.Ctr:
		return trace.Comm02, func(env Env, a, b ptr.Port) error { return comm02(env, b, a) }

	case a.Tag() == ptr.Op2 && b.Tag() == ptr.Num:
		return trace.Op2Num, op2Num
	case a.Tag() == ptr.Num && b.Tag() == ptr.Op2:
		return trace.Op2Num, func(env Env, a, b ptr.Port) error { return op2Num(env, b, a) }

	case a.Tag() == ptr.Op1 && b.Tag() == ptr.Num:
		return trace.Op1Num, op1Num
	case a.Tag() == ptr.Num && b.Tag() == ptr.Op1:
		return trace.Op1Num, func(env Env, a, b ptr.Port) error { return op1Num(env, b, a) }

	case a.Tag() == ptr.Mat && b.Tag() == ptr.Num:
		return matKind(b), matNum
	case a.Tag() == ptr.Num && b.Tag() == ptr.Mat:
		return matKind(a), func(env Env, a, b ptr.Port) error { return matNum(env, b, a) }
	}

	return trace.Unknown, func(Env, ptr.Port, ptr.Port) error {
		return fmt.Errorf("engine: no rule for %s ~ %s (labs %d,%d)", a.Tag(), b.Tag(), a.Lab(), b.Lab())
	}
}

func matKind(num ptr.Port) trace.Kind {
	if num.Num() == 0 {
		return trace.MatZero
	}
	return trace.MatSucc
}

// call unfolds def's body (or runs its native hook) against the
// counterpart port other (spec §4.4). ref must be Ref-tagged.
func call(env Env, ref, other ptr.Port) error {
	def := env.DefAt(ref.Loc())
	if def == nil {
		return fmt.Errorf("engine: dangling reference at address %d", ref.Loc())
	}
	env.CountDref()
	return env.Call(def, other)
}

// anni2 handles the annihilation of two same-family, same-label principal
// nodes (Ctr~Ctr same label, Op2~Op2, Mat~Mat): their aux wires link
// straight through to each other and both nodes are discarded.
func anni2(env Env, a, b ptr.Port) error {
	aw1, aw2 := heap.TraverseNode(a.Loc())
	bw1, bw2 := heap.TraverseNode(b.Loc())
	lk := env.Linker()
	lk.LinkWireWire(aw1, bw1)
	lk.LinkWireWire(aw2, bw2)
	env.CountAnni()
	return nil
}

// anni1 handles Op1~Op1: the single real aux wire on each side links
// through; the embedded-operand halves carry no wire and are freed
// directly.
func anni1(env Env, a, b ptr.Port) error {
	_, aw2 := heap.TraverseNode(a.Loc())
	_, bw2 := heap.TraverseNode(b.Loc())
	lk := env.Linker()
	lk.LinkWireWire(aw2, bw2)
	al := env.Alloc()
	al.HalfFree(a.Loc())
	al.HalfFree(b.Loc())
	env.CountAnni()
	return nil
}

// comm22 handles two distinct-family (or distinct-label) binary principal
// nodes commuting: allocate four fresh nodes, cross-wire them into the
// standard 2x2 tensor, then link the four outward aux wires to the fresh
// nodes' principals. Both originals are freed as a side effect of those
// four links.
func comm22(env Env, a, b ptr.Port) error {
	aw1, aw2 := heap.TraverseNode(a.Loc())
	bw1, bw2 := heap.TraverseNode(b.Loc())

	al, area, lk := env.Alloc(), env.Area(), env.Linker()
	pLoc, err := al.Alloc()
	if err != nil {
		return err
	}
	qLoc, err := al.Alloc()
	if err != nil {
		return err
	}
	rLoc, err := al.Alloc()
	if err != nil {
		return err
	}
	sLoc, err := al.Alloc()
	if err != nil {
		return err
	}

	// p, q are fresh copies of a (tag/lab), destined for b's aux wires. r,
	// s are fresh copies of b, destined for a's aux wires. Every cell here
	// is exclusively ours until the LinkWirePort calls below publish the
	// four principals, so plain writes are safe.
	area.Set(pLoc, ptr.New(ptr.Var, 0, rLoc))
	area.Set(rLoc, ptr.New(ptr.Var, 0, pLoc))
	area.Set(pLoc^1, ptr.New(ptr.Var, 0, sLoc))
	area.Set(sLoc, ptr.New(ptr.Var, 0, pLoc^1))
	area.Set(qLoc, ptr.New(ptr.Var, 0, rLoc^1))
	area.Set(rLoc^1, ptr.New(ptr.Var, 0, qLoc))
	area.Set(qLoc^1, ptr.New(ptr.Var, 0, sLoc^1))
	area.Set(sLoc^1, ptr.New(ptr.Var, 0, qLoc^1))

	p := ptr.New(a.Tag(), a.Lab(), pLoc)
	q := ptr.New(a.Tag(), a.Lab(), qLoc)
	r := ptr.New(b.Tag(), b.Lab(), rLoc)
	s := ptr.New(b.Tag(), b.Lab(), sLoc)

	lk.LinkWirePort(aw1, r)
	lk.LinkWirePort(aw2, s)
	lk.LinkWirePort(bw1, p)
	lk.LinkWirePort(bw2, q)
	env.CountComm()
	return nil
}

// comm12 handles a binary node meeting a unary one (Ctr~Op1): the unary
// node is copied once per binary aux port, and a fresh copy of the binary
// node recombines the two copies' own aux wire into the unary node's
// original continuation.
func comm12(env Env, ctr, op1 ptr.Port) error {
	c1, c2 := heap.TraverseNode(ctr.Loc())
	_, opw := heap.TraverseNode(op1.Loc())

	al, area, lk := env.Alloc(), env.Area(), env.Linker()
	num := area.Get(op1.Loc())

	pLoc, err := al.Alloc()
	if err != nil {
		return err
	}
	qLoc, err := al.Alloc()
	if err != nil {
		return err
	}
	rLoc, err := al.Alloc()
	if err != nil {
		return err
	}

	area.Set(pLoc, num)
	area.Set(pLoc^1, ptr.New(ptr.Var, 0, rLoc))
	area.Set(rLoc, ptr.New(ptr.Var, 0, pLoc^1))

	area.Set(qLoc, num)
	area.Set(qLoc^1, ptr.New(ptr.Var, 0, rLoc^1))
	area.Set(rLoc^1, ptr.New(ptr.Var, 0, qLoc^1))

	p := ptr.New(ptr.Op1, op1.Lab(), pLoc)
	q := ptr.New(ptr.Op1, op1.Lab(), qLoc)
	r := ptr.New(ctr.Tag(), ctr.Lab(), rLoc)

	lk.LinkWirePort(c1, p)
	lk.LinkWirePort(c2, q)
	lk.LinkWirePort(opw, r)
	env.CountComm()
	return nil
}

// comm02 handles a binary node meeting a nilary one (Ctr~Num, Ctr~ERA):
// nilary values are freely copyable, so the same port is linked into both
// of the binary node's aux wires and nothing new is allocated. A Ctr
// meeting any other Ref is sent to call by classify, whatever the labels.
func comm02(env Env, ctr, nilary ptr.Port) error {
	c1, c2 := heap.TraverseNode(ctr.Loc())
	lk := env.Linker()
	lk.LinkWirePort(c1, nilary)
	lk.LinkWirePort(c2, nilary)
	env.CountComm()
	return nil
}

// op2Num handles a binary operator meeting its first operand: allocate an
// Op1 embedding that operand, link it into the slot awaiting the second
// operand, and link the operator's own result wire through to the Op1's
// own aux.
func op2Num(env Env, op2, num ptr.Port) error {
	a1, a2 := heap.TraverseNode(op2.Loc())
	al, area, lk := env.Alloc(), env.Area(), env.Linker()

	loc, err := al.Alloc()
	if err != nil {
		return err
	}
	area.Set(loc, num)
	area.Set(loc^1, ptr.New(ptr.Var, 0, loc^1))

	op1 := ptr.New(ptr.Op1, op2.Lab(), loc)
	lk.LinkWirePort(a1, op1)
	lk.LinkWirePort(a2, ptr.New(ptr.Var, 0, loc^1))
	env.CountOper()
	return nil
}

// op1Num handles a partially applied operator meeting its second operand:
// apply the operator, link the 60-bit wrapped result into the output
// wire, and free the node.
func op1Num(env Env, op1, num ptr.Port) error {
	al, area, lk := env.Alloc(), env.Area(), env.Linker()
	embedded := area.Get(op1.Loc())
	_, aux := heap.TraverseNode(op1.Loc())

	result := ApplyOp(book.Op(op1.Lab()), embedded.Num(), num.Num())
	lk.LinkWirePort(aux, ptr.NewNum(result))
	al.HalfFree(op1.Loc())
	env.CountOper()
	return nil
}

// matNum dispatches a numeric match against its scrutinee, per spec §4.3:
// Num(0) takes the zero branch, Num(n+1) takes the successor branch with
// n carried along.
func matNum(env Env, mat, num ptr.Port) error {
	if num.Num() == 0 {
		return matZero(env, mat)
	}
	return matSucc(env, mat, num)
}

// matZero builds Ctr(match.aux2, ERA) and links its principal into
// match.aux1: the zero case reads through aux2, the successor case is
// erased.
func matZero(env Env, mat ptr.Port) error {
	a1, a2 := heap.TraverseNode(mat.Loc())
	al, area, lk := env.Alloc(), env.Area(), env.Linker()

	loc, err := al.Alloc()
	if err != nil {
		return err
	}
	area.Set(loc^1, ptr.ERA)
	area.Set(loc, ptr.New(ptr.Var, 0, loc))
	lk.LinkWirePort(a2, ptr.New(ptr.Var, 0, loc))

	c := ptr.New(ptr.Ctr, 0, loc)
	lk.LinkWirePort(a1, c)
	env.CountOper()
	return nil
}

// matSucc builds the two-Ctr tree that erases the zero branch and routes
// the predecessor into the successor branch via match.aux2.
func matSucc(env Env, mat, num ptr.Port) error {
	a1, a2 := heap.TraverseNode(mat.Loc())
	al, area, lk := env.Alloc(), env.Area(), env.Linker()

	pred := (num.Num() - 1) & ptr.MaxNum

	inner, err := al.Alloc()
	if err != nil {
		return err
	}
	outer, err := al.Alloc()
	if err != nil {
		return err
	}

	area.Set(inner, ptr.NewNum(pred))
	area.Set(inner^1, ptr.New(ptr.Var, 0, inner^1))
	lk.LinkWirePort(a2, ptr.New(ptr.Var, 0, inner^1))

	area.Set(outer, ptr.ERA)
	area.Set(outer^1, ptr.New(ptr.Ctr, 0, inner))

	c := ptr.New(ptr.Ctr, 0, outer)
	lk.LinkWirePort(a1, c)
	env.CountOper()
	return nil
}
