package bigint

// Mont is the modular context M of spec §3: an odd modulus, its
// Montgomery machinery, and a Karatsuba scratch buffer sized once and
// reused across every Mul/Square performed against this modulus (spec
// §9, "Karatsuba scratch reuse").
type Mont struct {
	m        *Z
	numWords int
	totalBits int
	mNeg     *Z // -m^-1 mod R
	rr       *Z // R^2 mod m
	one      *Z // 1 in Montgomery form (R mod m)
	scratch  []Word
}

// NewMontgomery builds a Montgomery context for m. Fails (spec §7:
// Fatal — "Montgomery setup on even modulus") if m is even or <= 2;
// the caller receives ErrEvenModulus rather than a panic because the
// modulus often comes from untrusted/parsed input (a DL parameter) and
// this is the one Montgomery precondition worth reporting instead of
// crashing on.
func NewMontgomery(m *Z) (*Mont, error) {
	if m.Sign() <= 0 || !m.IsOdd() || m.Cmp(NewInt(2)) <= 0 {
		return nil, ErrEvenModulus
	}
	numWords := m.numWords()
	totalBits := numWords * wordBits

	inv := invModPow2(m, totalBits)
	r := Pow2(totalBits)
	mNeg := new(Z).Sub(r, inv)
	mNeg.Mod(mNeg, r)

	rr := new(Z).Mod(Pow2(2*totalBits), m)

	mc := &Mont{
		m:         m,
		numWords:  numWords,
		totalBits: totalBits,
		mNeg:      mNeg,
		rr:        rr,
		scratch:   make([]Word, karatsubaScratchLen(numWords, numWords)),
	}
	mc.one = mc.ToMont(NewInt(1))
	return mc, nil
}

// invModPow2 computes m^-1 mod 2^bits for odd m, via Newton-Hensel
// iteration (doubling precision each step from the trivial mod-2
// inverse 1).
func invModPow2(m *Z, bits int) *Z {
	x := NewInt(1)
	prec := 1
	for prec < bits {
		prec *= 2
		if prec > bits {
			prec = bits
		}
		mod := Pow2(prec)
		mx := new(Z).Mul(m, x)
		mx.Mod(mx, mod)
		t := new(Z).Sub(NewInt(2), mx)
		t.Mod(t, mod)
		x = new(Z).Mul(x, t)
		x.Mod(x, mod)
	}
	x.Mod(x, Pow2(bits))
	return x
}

// redc performs Montgomery reduction of t (0 <= t < m*R), returning
// t*R^-1 mod m.
func (mc *Mont) redc(t *Z) *Z {
	r := Pow2(mc.totalBits)
	u := new(Z).Mod(t, r)
	q := new(Z).Mul(u, mc.mNeg)
	q.Mod(q, r)

	qm := new(Z).Mul(q, mc.m)
	sum := new(Z).Add(t, qm)

	result := new(Z).Rsh(sum, uint(mc.totalBits))
	if result.Cmp(mc.m) >= 0 {
		result.Sub(result, mc.m)
	}
	return result
}

// ToMont converts x (0 <= x, any representative) into Montgomery form
// x*R mod m.
func (mc *Mont) ToMont(x *Z) *Z {
	xm := new(Z).Mod(x, mc.m)
	t := new(Z).Mul(xm, mc.rr)
	return mc.redc(t)
}

// FromMont converts a Montgomery-form residue back to its ordinary
// representative in [0, m).
func (mc *Mont) FromMont(xm *Z) *Z {
	return mc.redc(xm)
}

// MulMont computes a*b*R^-1 mod m for Montgomery-form a, b — i.e. the
// product of the represented values, still in Montgomery form.
func (mc *Mont) MulMont(a, b *Z) *Z {
	t := new(Z).Mul(a, b)
	return mc.redc(t)
}

// windowSize selects the 2^k-ary sliding window width from the
// exponent's bit length, per the fixed table in spec §4.1.
func windowSize(bits int) int {
	switch {
	case bits < 24:
		return 2
	case bits < 80:
		return 3
	case bits < 240:
		return 4
	case bits < 544:
		return 5
	case bits < 1303:
		return 6
	case bits < 3529:
		return 7
	case bits < 14373:
		return 8
	default:
		return 9
	}
}

// PowMont computes g^e mod m using this Montgomery context and a
// 2^k-ary sliding window, per spec §4.1. e must be non-negative.
func (mc *Mont) PowMont(g, e *Z) *Z {
	if e.Sign() < 0 {
		panic("bigint: negative exponent")
	}
	bitLen := e.BitLen()
	if bitLen == 0 {
		return NewInt(1).Mod(NewInt(1), mc.m)
	}
	k := windowSize(bitLen)
	tableSize := 1 << uint(k-1)

	gm := mc.ToMont(g)
	gg := mc.MulMont(gm, gm)
	odd := make([]*Z, tableSize)
	odd[0] = gm
	for i := 1; i < tableSize; i++ {
		odd[i] = mc.MulMont(odd[i-1], gg)
	}

	r := mc.one.Clone()
	i := bitLen - 1
	for i >= 0 {
		if e.Bit(i) == 0 {
			r = mc.MulMont(r, r)
			i--
			continue
		}
		l := i - k + 1
		if l < 0 {
			l = 0
		}
		for e.Bit(l) == 0 {
			l++
		}
		for j := 0; j < i-l+1; j++ {
			r = mc.MulMont(r, r)
		}
		wv := windowValue(e, l, i)
		r = mc.MulMont(r, odd[(wv-1)/2])
		i = l - 1
	}
	return mc.FromMont(r)
}

// windowValue extracts the integer value of e's bits [l, i] (inclusive,
// i >= l).
func windowValue(e *Z, l, i int) int {
	v := 0
	for b := i; b >= l; b-- {
		v <<= 1
		v |= int(e.Bit(b))
	}
	return v
}

// PowMod sets z = g^e mod m and returns z. For odd m > 2, Montgomery
// form with a sliding window is used (PowMont); for even m (or m <= 2)
// naive binary powering is used, per spec §4.1. e must be non-negative
// and m must be positive — both are programming errors (spec §7:
// Fatal) rather than reported failures.
func (z *Z) PowMod(g, e, m *Z) *Z {
	if m.Sign() <= 0 {
		panic("bigint: modulus must be positive")
	}
	if e.Sign() < 0 {
		panic("bigint: negative exponent")
	}
	if m.IsOdd() && m.Cmp(NewInt(2)) > 0 {
		mc, err := NewMontgomery(m)
		if err == nil {
			return z.Set(mc.PowMont(g, e))
		}
	}
	return z.Set(powNaive(g, e, m))
}

// powNaive computes g^e mod m by square-and-multiply, valid for any
// m > 0 including even moduli.
func powNaive(g, e, m *Z) *Z {
	result := new(Z).Mod(NewInt(1), m)
	base := new(Z).Mod(g, m)
	ee := e.Clone()
	for !ee.IsZero() {
		if ee.IsOdd() {
			result.Mul(result, base)
			result.Mod(result, m)
		}
		base.Mul(base, base)
		base.Mod(base, m)
		ee.Rsh(ee, 1)
	}
	return result
}
