package ec2n

import "github.com/sshlab/cryptocore/bigint"

// ScalarMul returns k*p by plain binary double-and-add, most
// significant bit first. This is the general-purpose path for curves
// without subfield structure; KoblitzScalarMul is used instead for the
// Frobenius-accelerated case.
func (p *Point) ScalarMul(k *bigint.Z) *Point {
	if k.Sign() == 0 || p.IsInfinity {
		return Infinity(p.Curve)
	}
	kk := new(bigint.Z).Abs(k)
	acc := Infinity(p.Curve)
	for i := kk.BitLen() - 1; i >= 0; i-- {
		acc = acc.Double()
		if kk.Bit(i) == 1 {
			acc = acc.Add(p)
		}
	}
	if k.Sign() < 0 {
		acc = acc.Neg()
	}
	return acc
}

// tnaf computes the tau-adic NAF digits of k (an ordinary integer, i.e.
// k1=0) in Z[tau]; see tnafPair.
func tnaf(k *bigint.Z, mu int) []int {
	return tnafPair(k.Clone(), bigint.NewInt(0), mu)
}

// tnafPair computes the tau-adic NAF digits of k0 + k1*tau in Z[tau],
// where tau satisfies tau^2 - mu*tau + 2 = 0 (mu = +1 for a=1, -1 for
// a=0), per the division-by-tau recurrence of GECC Algorithm 3.74:
// while (k0,k1) != (0,0), emit u = 2 - ((k0 - 2*k1*mu) mod 4) when k0 is
// odd (0 otherwise), subtract u from k0, then divide the remaining pair
// by tau via (k0,k1) = (k1 + mu*(k0/2), -(k0/2)).
func tnafPair(k0, k1 *bigint.Z, mu int) []int {
	boundBits := k0.BitLen() + k1.BitLen()
	var digits []int

	four := bigint.NewInt(4)
	two := bigint.NewInt(2)
	muZ := bigint.NewInt(int64(mu))

	for !(k0.IsZero() && k1.IsZero()) {
		var u int
		if k0.IsOdd() {
			t := new(bigint.Z).Mul(bigint.NewInt(2), k1)
			t.Mul(t, muZ)
			t.Sub(k0, t)
			m := new(bigint.Z).Mod(t, four)
			// m is odd (k0 is odd, the subtracted term is even), so
			// m is 1 or 3 and 2-m lands directly in {-1, 1}.
			u = 2 - int(m.Int64())
			k0 = new(bigint.Z).Sub(k0, bigint.NewInt(int64(u)))
		} else {
			u = 0
		}
		digits = append(digits, u)

		half := new(bigint.Z).Quo(k0, two)
		newK0 := new(bigint.Z).Mul(muZ, half)
		newK0.Add(newK0, k1)
		newK1 := new(bigint.Z).Neg(half)
		k0, k1 = newK0, newK1

		if len(digits) > 4*(boundBits+16) {
			break // defensive bound; tau-NAF length is O(n), this is generous
		}
	}
	return digits
}

// KoblitzScalarMul returns k*p using tau-adic NAF (Solinas' method) on
// an Anomalous Binary / Koblitz curve (a in {0,1}, subfield q=1): the
// Frobenius endomorphism tau = phi acts as the recurrence root
// tau^2 - mu*tau + 2 = 0, so tau^i*p is obtained by i applications of
// Frobenius rather than point doublings, per spec §4.4. When c carries
// the UM/UMinus1 Lucas coefficients (set via SetFrobenius), k is first
// reduced modulo tau^m-1 = UM*tau - (2*UMinus1+1) before the tau-NAF
// expansion, per spec §4.4's division step.
func (p *Point) KoblitzScalarMul(k *bigint.Z) *Point {
	c := p.Curve
	if c.Subfield != 1 {
		panic("ec2n: KoblitzScalarMul requires a subfield-1 (Koblitz/Anomalous) curve")
	}
	mu := 1
	if c.A.IsZero() {
		mu = -1
	}

	var digits []int
	if c.UM != nil && c.UMinus1 != nil {
		r0, r1 := reduceTauMinusOne(k, c.UM, c.UMinus1, mu)
		digits = tnafPair(r0, r1, mu)
	} else {
		digits = tnaf(k, mu)
	}

	acc := Infinity(c)
	cur := p
	for _, d := range digits {
		switch {
		case d == 1:
			acc = acc.Add(cur)
		case d == -1:
			acc = acc.Add(cur.Neg())
		}
		cur = cur.Frobenius()
	}
	return acc
}

// reduceTauMinusOne reduces k modulo delta = tau^m-1 = um*tau -
// (2*umMinus1+1), per spec §4.4's "division of Gaussian-integer-like
// pairs (u+tau*v)/(r+tau*s) ... by the closed-form rational formulas":
// k's quotient by delta in Q(tau) is k*conj(delta)/N(delta), rounded to
// the nearest element of Z[tau]; the returned (r0,r1) is k - quotient*
// delta, a short representative in the same residue class tau^m-1
// annihilates (since every point of the m-degree subfield curve's own
// group satisfies (tau^m-1)*P = O).
func reduceTauMinusOne(k *bigint.Z, um, umMinus1 *bigint.Z, mu int) (*bigint.Z, *bigint.Z) {
	muZ := bigint.NewInt(int64(mu))
	two := bigint.NewInt(2)

	// delta = a + b*tau, a = -(2*umMinus1+1), b = um.
	a := new(bigint.Z).Mul(two, umMinus1)
	a.Add(a, bigint.NewInt(1))
	a.Neg(a)
	b := um.Clone()

	// N(delta) = a^2 + a*b*mu + 2*b^2 (norm in Z[tau], tau*conj(tau)=2,
	// tau+conj(tau)=mu).
	norm := new(bigint.Z).Mul(a, a)
	abmu := new(bigint.Z).Mul(a, b)
	abmu.Mul(abmu, muZ)
	norm.Add(norm, abmu)
	b2 := new(bigint.Z).Mul(b, b)
	b2.Mul(b2, two)
	norm.Add(norm, b2)

	// k*conj(delta), conj(delta) = (a+b*mu) - b*tau, k = k0 (k1=0):
	// real = k*(a+b*mu); tauCoeff = -k*b.
	abMu := new(bigint.Z).Mul(b, muZ)
	abMu.Add(abMu, a)
	real0 := new(bigint.Z).Mul(k, abMu)
	real1 := new(bigint.Z).Mul(k, b)
	real1.Neg(real1)

	g0 := roundedDiv(real0, norm)
	g1 := roundedDiv(real1, norm)

	// g*delta, g = g0 + g1*tau: real = g0*a - 2*g1*b;
	// tauCoeff = g0*b + g1*a + g1*b*mu.
	gDeltaReal := new(bigint.Z).Mul(g0, a)
	tmp := new(bigint.Z).Mul(g1, b)
	tmp.Mul(tmp, two)
	gDeltaReal.Sub(gDeltaReal, tmp)

	gDeltaTau := new(bigint.Z).Mul(g0, b)
	t2 := new(bigint.Z).Mul(g1, a)
	gDeltaTau.Add(gDeltaTau, t2)
	t3 := new(bigint.Z).Mul(g1, b)
	t3.Mul(t3, muZ)
	gDeltaTau.Add(gDeltaTau, t3)

	r0 := new(bigint.Z).Sub(k, gDeltaReal)
	r1 := new(bigint.Z).Neg(gDeltaTau)
	return r0, r1
}

// roundedDiv returns num/den rounded to the nearest integer (ties
// resolved away from zero); den must be positive.
func roundedDiv(num, den *bigint.Z) *bigint.Z {
	q := new(bigint.Z).Quo(num, den)
	r := new(bigint.Z).Sub(num, new(bigint.Z).Mul(q, den))
	twiceAbsR := new(bigint.Z).Abs(new(bigint.Z).Mul(bigint.NewInt(2), r))
	if twiceAbsR.Cmp(den) > 0 {
		if num.Sign() >= 0 {
			q.Add(q, bigint.NewInt(1))
		} else {
			q.Sub(q, bigint.NewInt(1))
		}
	}
	return q
}
