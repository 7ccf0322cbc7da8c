package sim

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/sarchlab/isasem/theory"
)

// maxFoldWidth is the widest bitvector folded on literals.
const maxFoldWidth = 256

// fold evaluates an application whose operands are all literals. It reports
// false when the operator is not folded, leaving the application symbolic.
func fold(app *theory.App) (theory.Expr, bool) {
	switch app.Op {
	case theory.OpIntAdd, theory.OpIntSub, theory.OpIntMul, theory.OpIntDiv,
		theory.OpIntMod, theory.OpIntNeg, theory.OpIntLt, theory.OpIntLe,
		theory.OpIntToBV:
		return foldInt(app)
	}

	words := make([]*uint256.Int, len(app.Args))
	widths := make([]int, len(app.Args))
	for i, a := range app.Args {
		lit, ok := a.(*theory.BVLit)
		if !ok || lit.Width > maxFoldWidth {
			return nil, false
		}
		w, overflow := uint256.FromBig(lit.Value)
		if overflow {
			return nil, false
		}
		words[i] = w
		widths[i] = lit.Width
	}
	if len(words) == 0 {
		return nil, false
	}

	x, w := words[0], widths[0]
	var y *uint256.Int
	if len(words) > 1 {
		y = words[1]
	}

	switch app.Op {
	case theory.OpBVAdd:
		return bvResult(w, new(uint256.Int).Add(x, y))
	case theory.OpBVSub:
		return bvResult(w, new(uint256.Int).Sub(x, y))
	case theory.OpBVMul:
		return bvResult(w, new(uint256.Int).Mul(x, y))
	case theory.OpBVUDiv:
		if y.IsZero() {
			return bvResult(w, mask(w))
		}
		return bvResult(w, new(uint256.Int).Div(x, y))
	case theory.OpBVURem:
		if y.IsZero() {
			return bvResult(w, x)
		}
		return bvResult(w, new(uint256.Int).Mod(x, y))
	case theory.OpBVAnd:
		return bvResult(w, new(uint256.Int).And(x, y))
	case theory.OpBVOr:
		return bvResult(w, new(uint256.Int).Or(x, y))
	case theory.OpBVXor:
		return bvResult(w, new(uint256.Int).Xor(x, y))
	case theory.OpBVNot:
		return bvResult(w, new(uint256.Int).Xor(x, mask(w)))
	case theory.OpBVNeg:
		return bvResult(w, new(uint256.Int).Neg(x))
	case theory.OpBVShl:
		n, ok := shiftAmount(y, w)
		if !ok {
			return bvResult(w, new(uint256.Int))
		}
		return bvResult(w, new(uint256.Int).Lsh(x, n))
	case theory.OpBVLshr:
		n, ok := shiftAmount(y, w)
		if !ok {
			return bvResult(w, new(uint256.Int))
		}
		return bvResult(w, new(uint256.Int).Rsh(x, n))
	case theory.OpBVAshr:
		return bvResult(w, ashr(x, y, w))
	case theory.OpBVUlt:
		return theory.Bool(x.Lt(y)), true
	case theory.OpBVUle:
		return theory.Bool(!y.Lt(x)), true
	case theory.OpBVSlt:
		return theory.Bool(flipSign(x, w).Lt(flipSign(y, w))), true
	case theory.OpBVSle:
		return theory.Bool(!flipSign(y, w).Lt(flipSign(x, w))), true
	case theory.OpBVConcat:
		total := 0
		for _, wi := range widths {
			total += wi
		}
		if total > maxFoldWidth {
			return nil, false
		}
		acc := new(uint256.Int)
		for i, wi := range widths {
			acc.Lsh(acc, uint(wi))
			acc.Or(acc, words[i])
		}
		return bvResult(total, acc)
	case theory.OpBVExtract:
		lo, width := app.Indices[0], app.Indices[1]
		return bvResult(width, new(uint256.Int).Rsh(x, uint(lo)))
	case theory.OpBVZext:
		if app.Indices[0] > maxFoldWidth {
			return nil, false
		}
		return bvResult(app.Indices[0], x)
	case theory.OpBVSext:
		to := app.Indices[0]
		if to > maxFoldWidth {
			return nil, false
		}
		if !signBit(x, w) {
			return bvResult(to, x)
		}
		ext := new(uint256.Int).Xor(mask(to), mask(w))
		return bvResult(to, ext.Or(ext, x))
	case theory.OpBVToInt:
		return theory.Int(x.ToBig()), true
	case theory.OpSBVToInt:
		v := x.ToBig()
		if signBit(x, w) {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(w)))
		}
		return theory.Int(v), true
	}
	return nil, false
}

func foldInt(app *theory.App) (theory.Expr, bool) {
	vals := make([]*big.Int, len(app.Args))
	for i, a := range app.Args {
		lit, ok := a.(*theory.IntLit)
		if !ok {
			return nil, false
		}
		vals[i] = lit.Value
	}

	switch app.Op {
	case theory.OpIntAdd:
		return theory.Int(new(big.Int).Add(vals[0], vals[1])), true
	case theory.OpIntSub:
		return theory.Int(new(big.Int).Sub(vals[0], vals[1])), true
	case theory.OpIntMul:
		return theory.Int(new(big.Int).Mul(vals[0], vals[1])), true
	case theory.OpIntDiv:
		if vals[1].Sign() == 0 {
			return nil, false
		}
		return theory.Int(new(big.Int).Div(vals[0], vals[1])), true
	case theory.OpIntMod:
		if vals[1].Sign() == 0 {
			return nil, false
		}
		return theory.Int(new(big.Int).Mod(vals[0], vals[1])), true
	case theory.OpIntNeg:
		return theory.Int(new(big.Int).Neg(vals[0])), true
	case theory.OpIntLt:
		return theory.Bool(vals[0].Cmp(vals[1]) < 0), true
	case theory.OpIntLe:
		return theory.Bool(vals[0].Cmp(vals[1]) <= 0), true
	case theory.OpIntToBV:
		return theory.BV(app.Indices[0], vals[0]), true
	}
	return nil, false
}

func bvResult(w int, v *uint256.Int) (theory.Expr, bool) {
	r := new(uint256.Int).And(v, mask(w))
	return theory.BV(w, r.ToBig()), true
}

// mask returns the value with the low w bits set.
func mask(w int) *uint256.Int {
	if w >= maxFoldWidth {
		return new(uint256.Int).Not(new(uint256.Int))
	}
	m := new(uint256.Int).Lsh(uint256.NewInt(1), uint(w))
	return m.Sub(m, uint256.NewInt(1))
}

func signBit(x *uint256.Int, w int) bool {
	return !new(uint256.Int).Rsh(x, uint(w-1)).IsZero()
}

func flipSign(x *uint256.Int, w int) *uint256.Int {
	bit := new(uint256.Int).Lsh(uint256.NewInt(1), uint(w-1))
	return bit.Xor(bit, x)
}

func shiftAmount(y *uint256.Int, w int) (uint, bool) {
	if !y.IsUint64() || y.Uint64() >= uint64(w) {
		return 0, false
	}
	return uint(y.Uint64()), true
}

func ashr(x, y *uint256.Int, w int) *uint256.Int {
	neg := signBit(x, w)
	n, ok := shiftAmount(y, w)
	if !ok {
		if neg {
			return mask(w)
		}
		return new(uint256.Int)
	}
	r := new(uint256.Int).Rsh(x, n)
	if neg {
		fill := new(uint256.Int).Rsh(mask(w), n)
		fill.Xor(fill, mask(w))
		r.Or(r, fill)
	}
	return r
}
