package bigint

// QuoRem sets z = x/y (truncated toward zero) and r = x - z*y, returning
// (z, r). Fatal (panics) if y == 0, matching spec §4.1/§7: "Division
// fails (fatal) if divisor is zero."
func (z *Z) QuoRem(x, y, r *Z) (*Z, *Z) {
	if y.IsZero() {
		panic("bigint: division by zero")
	}
	qa, ra := quoRemAbs(x.abs, y.abs)
	zneg := x.neg != y.neg
	rneg := x.neg
	z.abs, r.abs = qa, ra
	z.neg, r.neg = zneg, rneg
	z.trim()
	r.trim()
	return z, r
}

// Mod sets z to the non-negative representative of x mod y in
// [0, |y|), matching the elliptic-curve code's expectation (spec
// §4.1). Fatal if y == 0.
func (z *Z) Mod(x, y *Z) *Z {
	if y.IsZero() {
		panic("bigint: division by zero")
	}
	// quoRemAbs never aliases its inputs, but z may itself be y (e.g.
	// z.Mod(x, z)); capture y's magnitude before z is overwritten below.
	yAbs := y.abs
	if z == y {
		yAbs = append([]Word(nil), y.abs...)
	}
	_, ra := quoRemAbs(x.abs, y.abs)
	z.abs = ra
	z.neg = x.neg && len(ra) > 0
	z.trim()
	if z.neg {
		absY := &Z{abs: yAbs}
		z.Add(z, absY)
	}
	return z
}

// Quo sets z = x/y truncated toward zero. Fatal if y == 0.
func (z *Z) Quo(x, y *Z) *Z {
	var r Z
	z.QuoRem(x, y, &r)
	return z
}

// quoRemAbs divides the magnitudes x by y using binary long division:
// correctness-first rather than Knuth's algorithm D, since this engine
// is hand-verified rather than machine-tested.
func quoRemAbs(x, y []Word) (q, r []Word) {
	m := bitLenAbs(x)
	if m == 0 {
		return nil, nil
	}
	qWords := make([]Word, (len(x)))
	var rem []Word
	for i := m - 1; i >= 0; i-- {
		rem = shiftLeft1Grow(rem)
		if bitAt(x, i) == 1 {
			if len(rem) == 0 {
				rem = []Word{1}
			} else {
				rem[0] |= 1
			}
		}
		if cmpAbs(rem, y) >= 0 {
			rem = subAbs(rem, rem, y)
			setBit(qWords, i)
		}
	}
	return trimWords(qWords), trimWords(rem)
}

func bitLenAbs(x []Word) int {
	n := len(x)
	if n == 0 {
		return 0
	}
	top := x[n-1]
	bl := 0
	for top != 0 {
		bl++
		top >>= 1
	}
	return (n-1)*wordBits + bl
}

func bitAt(x []Word, i int) uint {
	wi := i / wordBits
	if wi >= len(x) {
		return 0
	}
	return uint((x[wi] >> uint(i%wordBits)) & 1)
}

func setBit(x []Word, i int) {
	wi := i / wordBits
	if wi >= len(x) {
		return
	}
	x[wi] |= Word(1) << uint(i%wordBits)
}

func shiftLeft1Grow(w []Word) []Word {
	if len(w) == 0 {
		return nil
	}
	out := append([]Word(nil), w...)
	var carry Word
	for i := range out {
		nc := out[i] >> (wordBits - 1)
		out[i] = (out[i] << 1) | carry
		carry = nc
	}
	if carry != 0 {
		out = append(out, carry)
	}
	return out
}

// Gcd sets z = gcd(|x|, |y|) (always non-negative) and returns z, using
// the Euclidean algorithm expressed in terms of QuoRem.
func (z *Z) Gcd(x, y *Z) *Z {
	a := new(Z).Abs(x)
	b := new(Z).Abs(y)
	var q, r Z
	for !b.IsZero() {
		q.QuoRem(a, b, &r)
		a, b = b, new(Z).Set(&r)
	}
	return z.Set(a)
}

// GcdExt sets z = gcd(a, b) and, if x, y are non-nil, sets them to
// Bezout coefficients such that a*x + b*y = z (the extended Euclidean
// algorithm spec §4.1 builds Invert on top of).
func (z *Z) GcdExt(x, y, a, b *Z) *Z {
	oldR, r := new(Z).Set(a), new(Z).Set(b)
	oldS, s := NewInt(1), NewInt(0)
	oldT, t := NewInt(0), NewInt(1)

	var q, tmp Z
	for !r.IsZero() {
		q.Quo(oldR, r)

		tmp.Mul(&q, r)
		newR := new(Z).Sub(oldR, &tmp)
		oldR, r = r, newR

		tmp.Mul(&q, s)
		newS := new(Z).Sub(oldS, &tmp)
		oldS, s = s, newS

		tmp.Mul(&q, t)
		newT := new(Z).Sub(oldT, &tmp)
		oldT, t = t, newT
	}
	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	if x != nil {
		x.Set(oldS)
	}
	if y != nil {
		y.Set(oldT)
	}
	return z.Set(oldR)
}

// Invert sets z = a^-1 mod m, 0 <= z < m, returning z and true if
// gcd(a, m) == 1; otherwise returns (z, false) and z is unmodified
// (spec §7: ArithmeticFailure — "inversion of a non-unit modulo m").
func (z *Z) Invert(a, m *Z) (*Z, bool) {
	var g, x Z
	g.GcdExt(&x, nil, a, m)
	if g.Cmp(NewInt(1)) != 0 {
		return z, false
	}
	z.Mod(&x, m)
	return z, true
}
