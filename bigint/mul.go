package bigint

import "math/bits"

// Mul sets z = x*y and returns z. Schoolbook multiplication is used below
// karaMulThreshold words; Karatsuba recursion is used above it, per
// spec §4.1. x and y may alias z.
func (z *Z) Mul(x, y *Z) *Z {
	if x.IsZero() || y.IsZero() {
		return z.SetZero()
	}
	xa, ya := x.abs, y.abs
	if z == x || z == y {
		// Defensive copy in case z aliases an operand; cheap relative to
		// the multiply itself.
		xa = append([]Word(nil), xa...)
		ya = append([]Word(nil), ya...)
	}
	var out []Word
	if len(xa) < karaMulThreshold || len(ya) < karaMulThreshold {
		out = mulSchoolbook(xa, ya)
	} else {
		scratch := make([]Word, karatsubaScratchLen(len(xa), len(ya)))
		out = mulKaratsuba(xa, ya, scratch)
	}
	z.abs = out
	z.neg = x.neg != y.neg
	return z.trim()
}

// mulSchoolbook computes the O(n*m) product of two magnitudes.
func mulSchoolbook(x, y []Word) []Word {
	out := make([]Word, len(x)+len(y))
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		var carry Word
		for j, yj := range y {
			hi, lo := bits.Mul64(uint64(xi), uint64(yj))
			lo2, c1 := bits.Add64(lo, uint64(out[i+j]), 0)
			lo3, c2 := bits.Add64(lo2, uint64(carry), 0)
			out[i+j] = Word(lo3)
			carry = Word(hi) + Word(c1) + Word(c2)
		}
		out[i+len(y)] += carry
	}
	return trimWords(out)
}

func trimWords(w []Word) []Word {
	n := len(w)
	for n > 0 && w[n-1] == 0 {
		n--
	}
	return w[:n]
}

// karatsubaScratchLen returns the scratch buffer size sufficient for a
// Karatsuba multiply of an n-word by an m-word operand, so a modular
// context can allocate it once and reuse it across every mul/square on
// the same modulus (spec §9: "Karatsuba scratch reuse").
func karatsubaScratchLen(n, m int) int {
	sz := n
	if m > sz {
		sz = m
	}
	// Middle-term and recursion working space; generous but bounded
	// linearly in the operand size.
	return 4 * (sz + 1)
}

// mulKaratsuba multiplies x and y using Karatsuba recursion down to
// mulSchoolbook below karaMulThreshold. scratch is reused across
// recursive calls where it is large enough; when it is not (deeper
// recursion on an odd split), a fresh slice is allocated for that level
// only.
func mulKaratsuba(x, y []Word, scratch []Word) []Word {
	if len(x) < karaMulThreshold || len(y) < karaMulThreshold {
		return mulSchoolbook(x, y)
	}
	n := len(x)
	if len(y) > n {
		n = len(y)
	}
	half := (n + 1) / 2

	xlo, xhi := splitAt(x, half)
	ylo, yhi := splitAt(y, half)

	var sub []Word
	if len(scratch) >= karatsubaScratchLen(half, half) {
		sub = scratch
	}

	z0 := mulKaratsuba(xlo, ylo, sub)
	z2 := mulKaratsuba(xhi, yhi, sub)

	xs := addAbs(nil, xlo, xhi)
	ys := addAbs(nil, ylo, yhi)
	z1 := mulKaratsuba(xs, ys, sub)

	// z1 = z1 - z0 - z2
	z1 = subMaybeNeg(z1, z0, z2)

	out := make([]Word, len(x)+len(y))
	addShifted(out, z0, 0)
	addShifted(out, z1, half)
	addShifted(out, z2, 2*half)
	return trimWords(out)
}

func splitAt(x []Word, at int) (lo, hi []Word) {
	if at > len(x) {
		at = len(x)
	}
	lo = trimWords(append([]Word(nil), x[:at]...))
	hi = trimWords(append([]Word(nil), x[at:]...))
	return lo, hi
}

// subMaybeNeg computes z1 - z0 - z2 where all operands are known
// non-negative magnitudes and the true mathematical result is always
// >= 0 for the Karatsuba identity; implemented with plain unsigned
// subtraction against a zero-extended accumulator.
func subMaybeNeg(z1, z0, z2 []Word) []Word {
	acc := append([]Word(nil), z1...)
	acc = subWithBorrowExtend(acc, z0)
	acc = subWithBorrowExtend(acc, z2)
	return trimWords(acc)
}

func subWithBorrowExtend(acc, sub []Word) []Word {
	if len(sub) > len(acc) {
		grown := make([]Word, len(sub))
		copy(grown, acc)
		acc = grown
	}
	var borrow Word
	for i := range acc {
		var s Word
		if i < len(sub) {
			s = sub[i]
		}
		d, b := bits.Sub64(uint64(acc[i]), uint64(s), uint64(borrow))
		acc[i] = Word(d)
		borrow = Word(b)
	}
	// borrow != 0 here would indicate a negative intermediate, which
	// cannot happen for the Karatsuba z1 term given correct operands.
	return acc
}

func addShifted(out []Word, part []Word, shift int) {
	var carry Word
	i := 0
	for ; i < len(part); i++ {
		s, c := bits.Add64(uint64(out[shift+i]), uint64(part[i]), uint64(carry))
		out[shift+i] = Word(s)
		carry = Word(c)
	}
	for carry != 0 && shift+i < len(out) {
		s, c := bits.Add64(uint64(out[shift+i]), 0, uint64(carry))
		out[shift+i] = Word(s)
		carry = Word(c)
		i++
	}
}

// Square sets z = x*x and returns z. Below karaSqrThreshold words, a
// specialized schoolbook squaring is used (off-diagonal terms doubled by
// a one-bit shift, plus the diagonal squares); above it, Karatsuba
// squaring via Plumb's identity
// (ub+v)^2 = u^2*(b^2+b) + v^2*(b+1) - (u-v)^2*b
// is used, per spec §4.1.
func (z *Z) Square(x *Z) *Z {
	if x.IsZero() {
		return z.SetZero()
	}
	xa := x.abs
	if z == x {
		xa = append([]Word(nil), xa...)
	}
	var out []Word
	if len(xa) < karaSqrThreshold {
		out = squareSchoolbook(xa)
	} else {
		out = squarePlumb(xa)
	}
	z.abs = out
	z.neg = false
	return z.trim()
}

// squareSchoolbook computes x^2 by summing the off-diagonal cross terms
// (each counted twice, realized as a one-bit left shift) and adding the
// diagonal x[i]^2 terms.
func squareSchoolbook(x []Word) []Word {
	n := len(x)
	out := make([]Word, 2*n)
	// Off-diagonal terms: sum_{i<j} x[i]*x[j], accumulated once then
	// doubled via a final left shift.
	for i := 0; i < n; i++ {
		if x[i] == 0 {
			continue
		}
		var carry Word
		for j := i + 1; j < n; j++ {
			hi, lo := bits.Mul64(uint64(x[i]), uint64(x[j]))
			lo2, c1 := bits.Add64(lo, uint64(out[i+j]), 0)
			lo3, c2 := bits.Add64(lo2, uint64(carry), 0)
			out[i+j] = Word(lo3)
			carry = Word(hi) + Word(c1) + Word(c2)
		}
		out[i+n] += carry
	}
	out = shiftLeft1(out)
	// Diagonal terms: x[i]^2 added in directly.
	var carry Word
	for i := 0; i < n; i++ {
		hi, lo := bits.Mul64(uint64(x[i]), uint64(x[i]))
		lo2, c1 := bits.Add64(lo, uint64(out[2*i]), uint64(carry))
		out[2*i] = Word(lo2)
		hi2, c2 := bits.Add64(hi, uint64(out[2*i+1]), uint64(c1))
		out[2*i+1] = Word(hi2)
		carry = Word(c2)
	}
	return trimWords(out)
}

func shiftLeft1(w []Word) []Word {
	var carry Word
	for i := range w {
		nc := w[i] >> (wordBits - 1)
		w[i] = (w[i] << 1) | carry
		carry = nc
	}
	return w
}

// squarePlumb implements Karatsuba squaring via Plumb's identity,
// recursing to squareSchoolbook below karaSqrThreshold.
func squarePlumb(x []Word) []Word {
	if len(x) < karaSqrThreshold {
		return squareSchoolbook(x)
	}
	half := (len(x) + 1) / 2
	u, v := splitAt(x, half)

	u2 := squarePlumb(u)
	v2 := squarePlumb(v)

	diff := absDiff(u, v)
	d2 := squarePlumb(diff)

	// mid = u2 + v2 - d2, contributed at shift = half (this is the
	// cross term 2*u*v, derived without an extra multiply).
	mid := append([]Word(nil), u2...)
	mid = addInPlace(mid, v2)
	mid = subWithBorrowExtend(mid, d2)

	out := make([]Word, 2*len(x))
	addShifted(out, v2, 0)
	addShifted(out, mid, half)
	addShifted(out, u2, 2*half)
	return trimWords(out)
}

func addInPlace(acc, add []Word) []Word {
	if len(add) > len(acc) {
		grown := make([]Word, len(add))
		copy(grown, acc)
		acc = grown
	}
	var carry Word
	for i := range acc {
		var a Word
		if i < len(add) {
			a = add[i]
		}
		s, c := bits.Add64(uint64(acc[i]), uint64(a), uint64(carry))
		acc[i] = Word(s)
		carry = Word(c)
	}
	if carry != 0 {
		acc = append(acc, carry)
	}
	return acc
}

func absDiff(a, b []Word) []Word {
	if cmpAbs(a, b) >= 0 {
		return subAbs(nil, a, b)
	}
	return subAbs(nil, b, a)
}
