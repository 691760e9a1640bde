package ec2n

import (
	"math/rand"

	"github.com/sshlab/cryptocore/bigint"
	"github.com/sshlab/cryptocore/gf2n"
)

// CountSubfieldCurve computes #E(GF(2^q)) for y^2+xy=x^3+ax^2+b over
// the small field GF(2^q) (subMod), by brute-force evaluation of the
// trace identity #E = 1+2^q-t, t = Tr(a) + sum_{x != 0} Tr(x+b/x^2),
// per spec §4.4. Only practical for small q (brute force over the
// field).
func CountSubfieldCurve(subMod *gf2n.Modulus, a, b *gf2n.Elt) *bigint.Z {
	q := subMod.Deg
	t := gf2n.Trace(a)
	for v := uint64(1); v < uint64(1)<<uint(q); v++ {
		x := gf2n.NewElt(subMod).SetUint(v)
		xInv := new(gf2n.Elt).Invert(x)
		xInv2 := new(gf2n.Elt).Square(xInv)
		term := new(gf2n.Elt).Mul(b, xInv2)
		term.Add(term, x)
		t ^= gf2n.Trace(term)
	}
	twoQ := bigint.Pow2(q)
	card := new(bigint.Z).Add(bigint.NewInt(1), twoQ)
	if t == 1 {
		card.Sub(card, bigint.NewInt(1))
	}
	return card
}

// ExtendOrder computes #E(GF(2^(q*n))) from t = p+1-#E(GF(2^q)) via the
// Lucas recurrence c_i = c_{i-1}*t - 2^q*c_{i-2} (c_0=2, c_1=t), which
// gives the sum of the i-th powers of the Frobenius eigenvalues; spec
// §4.4: "expanding to #E(GF(2^(qn))) via the Lucas recurrence".
func ExtendOrder(q, n int, cardSmall *bigint.Z) *bigint.Z {
	twoQ := bigint.Pow2(q)
	t := new(bigint.Z).Add(twoQ, bigint.NewInt(1))
	t.Sub(t, cardSmall)

	c0 := bigint.NewInt(2)
	c1 := t.Clone()
	if n == 0 {
		return new(bigint.Z).Sub(bigint.Pow2(0), new(bigint.Z).Sub(c0, bigint.NewInt(2)))
	}
	ci, ciMinus1 := c1, c0
	for i := 2; i <= n; i++ {
		next := new(bigint.Z).Mul(ci, t)
		sub := new(bigint.Z).Mul(twoQ, ciMinus1)
		next.Sub(next, sub)
		ciMinus1, ci = ci, next
	}
	cn := ci
	if n == 1 {
		cn = c1
	}
	ext := bigint.Pow2(q * n)
	card := new(bigint.Z).Add(ext, bigint.NewInt(1))
	card.Sub(card, cn)
	return card
}

// EmbedElement lifts a (an element of the subfield defined by subMod)
// into the extension field defined by extMod: it builds a's minimal
// polynomial over GF(2) from its Frobenius conjugates — which, being
// Galois-stable, collapses to {0,1} coefficients — then finds a root of
// that same 0/1 polynomial inside the extension via gf2n.FindRoots. Any
// root is a valid image of the embedding, so the first one found is
// returned.
func EmbedElement(a *gf2n.Elt, extMod *gf2n.Modulus, rnd *rand.Rand) (*gf2n.Elt, error) {
	subMod := a.Modulus()
	one := gf2n.NewElt(subMod).SetUint(1)

	conjugates := []*gf2n.Elt{a.Clone()}
	cur := a.Clone()
	for {
		cur = new(gf2n.Elt).Square(cur)
		if cur.Equal(a) {
			break
		}
		conjugates = append(conjugates, cur.Clone())
	}

	minPoly := gf2n.NewPoly(subMod, []*gf2n.Elt{one})
	for _, c := range conjugates {
		linear := gf2n.NewPoly(subMod, []*gf2n.Elt{c, one})
		minPoly = gf2n.PolyMul(minPoly, linear)
	}

	extOne := gf2n.NewElt(extMod).SetUint(1)
	extZero := gf2n.NewElt(extMod)
	extCoeffs := make([]*gf2n.Elt, minPoly.Deg()+1)
	for i := range extCoeffs {
		if i <= minPoly.Deg() {
			c := minPoly.Coeff(i)
			if !c.IsZero() {
				extCoeffs[i] = extOne
				continue
			}
		}
		extCoeffs[i] = extZero
	}
	extPoly := gf2n.NewPoly(extMod, extCoeffs)

	roots := gf2n.FindRoots(extPoly, rnd)
	if len(roots) == 0 {
		return nil, ErrNoRoot
	}
	return roots[0], nil
}
