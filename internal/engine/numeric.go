package engine

import "github.com/vic/ict/internal/book"
import "github.com/vic/ict/internal/ptr"

// ApplyOp evaluates op over two 60-bit operands, wrapping arithmetic and
// saturating division/modulus by zero to ptr.MaxNum (spec §4.3, §7).
//
// The worked scenario in spec §8 for NOT assumes a 24-bit legacy book and
// isn't reproduced bit-for-bit here; see DESIGN.md.
func ApplyOp(op book.Op, x, y uint64) uint64 {
	const max = ptr.MaxNum
	switch op {
	case book.Add:
		return (x + y) & max
	case book.Sub:
		return (x - y) & max
	case book.Mul:
		return (x * y) & max
	case book.Div:
		if y == 0 {
			return max
		}
		return (x / y) & max
	case book.Mod:
		if y == 0 {
			return max
		}
		return (x % y) & max
	case book.Eq:
		return boolNum(x == y)
	case book.Ne:
		return boolNum(x != y)
	case book.Lt:
		return boolNum(x < y)
	case book.Gt:
		return boolNum(x > y)
	case book.Lte:
		return boolNum(x <= y)
	case book.Gte:
		return boolNum(x >= y)
	case book.And:
		return (x & y) & max
	case book.Or:
		return (x | y) & max
	case book.Xor:
		return (x ^ y) & max
	case book.Not:
		return (^y) & max
	case book.Lsh:
		return (x << (y % ptr.NumBits)) & max
	case book.Rsh:
		return (x & max) >> (y % ptr.NumBits)
	default:
		return 0
	}
}

func boolNum(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
