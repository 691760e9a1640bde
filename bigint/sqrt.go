package bigint

import "math/rand"

// Sqrt sets z to floor(sqrt(x)) via Newton iteration starting from
// 2^ceil((bitlen+2)/2), terminating when the iterate stops decreasing,
// per spec §4.1. Fatal if x is negative.
func (z *Z) Sqrt(x *Z) *Z {
	if x.Sign() < 0 {
		panic("bigint: square root of negative number")
	}
	if x.IsZero() {
		return z.SetZero()
	}
	bl := x.BitLen()
	guess := Pow2((bl + 2 + 1) / 2)
	for {
		// next = (guess + x/guess) / 2
		q := new(Z).Quo(x, guess)
		sum := new(Z).Add(guess, q)
		next := new(Z).Rsh(sum, 1)
		if next.Cmp(guess) >= 0 {
			break
		}
		guess = next
	}
	return z.Set(guess)
}

// IsPerfectSquare reports whether x is a perfect square, using modular
// filters (mod 64, 63, 65, 11) before a confirming sqrt-and-square, per
// spec §4.1.
func (x *Z) IsPerfectSquare() bool {
	if x.Sign() < 0 {
		return false
	}
	if x.IsZero() {
		return true
	}
	for _, m := range []uint64{64, 63, 65, 11} {
		var r Z
		r.Mod(x, NewUint(m))
		if !quadResidueMod(r.Uint64(), m) {
			return false
		}
	}
	s := new(Z).Sqrt(x)
	s2 := new(Z).Mul(s, s)
	return s2.Cmp(x) == 0
}

func quadResidueMod(r, m uint64) bool {
	for i := uint64(0); i < m; i++ {
		if (i * i % m) == r {
			return true
		}
	}
	return false
}

// kron2Table is (-1)^((x^2-1)/8) for odd x mod 8, indexed by x mod 8;
// even indices are unused (marked 0).
var kron2Table = [8]int{0, 1, 0, -1, 0, -1, 0, 1}

// Kronecker computes the Kronecker symbol (a/b), the generalization of
// the Jacobi symbol to even and negative b (spec §4.1: "implements the
// full symbol (including b even, negative, zero) with the standard bit
// tricks on the low three bits"), via the standard iterative algorithm
// (HAC Algorithm 2.149 / GMP's mpz_kronecker).
func Kronecker(a, b *Z) int {
	if b.IsZero() {
		if a.CmpAbs(NewInt(1)) == 0 {
			return 1
		}
		return 0
	}

	aa := a.Clone()
	n := b.Clone()

	// Strip factors of 2 from n, folding in the 2-adic contribution for
	// each one stripped.
	e := 0
	for !n.IsOdd() {
		n.Rsh(n, 1)
		e++
	}
	s := 1
	if e%2 == 1 {
		var amod8 Z
		amod8.Mod(aa, NewUint(8))
		s = kron2Table[amod8.Uint64()]
	}

	if n.Sign() < 0 {
		n.Neg(n)
		if aa.Sign() < 0 {
			s = -s
		}
	}

	aa.Mod(aa, n) // now 0 <= aa < n, n odd positive

	for {
		if aa.IsZero() {
			if n.Cmp(NewInt(1)) == 0 {
				return s
			}
			return 0
		}
		e = 0
		for !aa.IsOdd() {
			aa.Rsh(aa, 1)
			e++
		}
		if e%2 == 1 {
			var nmod8 Z
			nmod8.Mod(n, NewUint(8))
			s *= kron2Table[nmod8.Uint64()]
		}
		var amod4, nmod4 Z
		amod4.Mod(aa, NewUint(4))
		nmod4.Mod(n, NewUint(4))
		if amod4.Uint64() == 3 && nmod4.Uint64() == 3 {
			s = -s
		}
		newN := aa.Clone()
		aa.Mod(n, aa)
		n = newN
		if n.Cmp(NewInt(1)) == 0 {
			return s
		}
	}
}

// ModSqrt sets z to a square root of a modulo the odd prime p (i.e.
// z^2 == a (mod p)) and returns (z, true), or (z, false) if a is not a
// quadratic residue mod p (Kronecker(a, p) != 1), per spec §4.1.
func (z *Z) ModSqrt(a, p *Z) (*Z, bool) {
	amod := new(Z).Mod(a, p)
	if amod.IsZero() {
		return z.SetZero(), true
	}
	if Kronecker(amod, p) != 1 {
		return z, false
	}

	var r4, r8 Z
	r4.Mod(p, NewInt(4))
	if r4.Uint64() == 3 {
		e := new(Z).Add(p, NewInt(1))
		e.Rsh(e, 2)
		z.PowMod(amod, e, p)
		return z, true
	}

	r8.Mod(p, NewInt(8))
	if r8.Uint64() == 5 {
		e := new(Z).Sub(p, NewInt(5))
		e.Rsh(e, 3)
		twoA := new(Z).Lsh(amod, 1)
		t := new(Z).PowMod(twoA, e, p)
		h := new(Z).Mul(twoA, t)
		h.Mul(h, t)
		h.Mod(h, p)
		hm1 := new(Z).Sub(h, NewInt(1))
		res := new(Z).Mul(amod, t)
		res.Mul(res, hm1)
		res.Mod(res, p)
		z.Set(res)
		return z, true
	}

	// Tonelli-Shanks, with a randomized quadratic non-residue search
	// bounded at 65535 attempts, per spec §4.1.
	rnd := rand.New(rand.NewSource(1))
	var n Z
	attempts := 0
	for {
		attempts++
		if attempts > 65535 {
			return z, false
		}
		n = *randBelow(rnd, p)
		if n.Sign() == 0 {
			continue
		}
		if Kronecker(&n, p) == -1 {
			break
		}
	}

	pm1 := new(Z).Sub(p, NewInt(1))
	s := 0
	q := pm1.Clone()
	for !q.IsOdd() {
		q.Rsh(q, 1)
		s++
	}

	m := s
	c := new(Z).PowMod(&n, q, p)
	t := new(Z).PowMod(amod, q, p)
	qp1o2 := new(Z).Add(q, NewInt(1))
	qp1o2.Rsh(qp1o2, 1)
	r := new(Z).PowMod(amod, qp1o2, p)

	one := NewInt(1)
	for {
		if t.Cmp(one) == 0 {
			z.Set(r)
			return z, true
		}
		i := 0
		tt := t.Clone()
		for tt.Cmp(one) != 0 {
			tt.Mul(tt, tt)
			tt.Mod(tt, p)
			i++
			if i >= m {
				return z, false
			}
		}
		b := c.Clone()
		for j := 0; j < m-i-1; j++ {
			b.Mul(b, b)
			b.Mod(b, p)
		}
		m = i
		c = new(Z).Mul(b, b)
		c.Mod(c, p)
		t.Mul(t, c)
		t.Mod(t, p)
		r.Mul(r, b)
		r.Mod(r, p)
	}
}
