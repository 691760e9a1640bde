package ecp

import (
	"math/rand"

	"github.com/sshlab/cryptocore/bigint"
)

// movThresholdDefault is the default bound on the MOV-condition search,
// per spec §4.3.
const movThresholdDefault = 500

// VerifyParam checks the full domain-parameter validity procedure of
// spec §4.3 for curve c, base point p of order n, and cofactor h such
// that #E = h*n. movThreshold bounds the MOV-condition search; 0
// selects the default of 500.
func VerifyParam(c *Curve, p *Point, n, h *bigint.Z, movThreshold int) error {
	if movThreshold <= 0 {
		movThreshold = movThresholdDefault
	}
	rnd := rand.New(rand.NewSource(1))

	if c.P.Sign() <= 0 || !c.P.IsProbablePrime(20, rnd) {
		return &ErrInvalidParams{"p is not a positive prime"}
	}
	if n.Sign() <= 0 || !n.IsProbablePrime(20, rnd) {
		return &ErrInvalidParams{"n is not a positive prime"}
	}
	if n.Cmp(c.P) >= 0 {
		return &ErrInvalidParams{"n >= p"}
	}

	cardinality := new(bigint.Z).Mul(h, n) // #E
	rem := new(bigint.Z).Mod(cardinality, n)
	if !rem.IsZero() {
		return &ErrInvalidParams{"n does not divide #E"}
	}

	x, y := p.Affine()
	if x.Sign() < 0 || x.Cmp(c.P) >= 0 || y.Sign() < 0 || y.Cmp(c.P) >= 0 {
		return &ErrInvalidParams{"base point coordinates out of range"}
	}
	if !FastOnCurve(c, x, y) {
		return &ErrInvalidParams{"base point not on curve"}
	}

	a3 := new(bigint.Z).Mul(c.A, c.A)
	a3.Mul(a3, c.A)
	disc := new(bigint.Z).Mul(bigint.NewInt(4), a3)
	b2 := new(bigint.Z).Mul(c.B, c.B)
	disc.Add(disc, new(bigint.Z).Mul(bigint.NewInt(27), b2))
	disc.Mod(disc, c.P)
	if disc.IsZero() {
		return &ErrInvalidParams{"singular curve (discriminant is zero)"}
	}

	// Supersingularity: t = p+1-#E; reject if t^2 in {0,p,2p,3p,4p}.
	t := new(bigint.Z).Add(c.P, bigint.NewInt(1))
	t.Sub(t, cardinality)
	t2 := new(bigint.Z).Mul(t, t)
	for i := int64(0); i <= 4; i++ {
		target := new(bigint.Z).Mul(bigint.NewInt(i), c.P)
		if t2.Cmp(target) == 0 {
			return &ErrInvalidParams{"supersingular curve"}
		}
	}

	// Anomalous: #E != p and n != p (n != p already implied by n < p above).
	if cardinality.Cmp(c.P) == 0 {
		return &ErrInvalidParams{"anomalous curve (#E == p)"}
	}

	// MOV condition: p^i != 1 (mod n) for i in [1, movThreshold]. Goes
	// through uint256 when n fits in 256 bits (the common named-curve
	// case, Curve.Fast256), the same accelerated path FastEqual and
	// FastOnCurve use elsewhere in this package.
	if movConditionFails(c, n, movThreshold) {
		return &ErrInvalidParams{"MOV condition failed (small embedding degree)"}
	}

	if !p.ScalarMul(n).IsInfinity() {
		return &ErrInvalidParams{"[n]P is not the point at infinity"}
	}

	cofactorQuot := h
	for i := 0; i < 4; i++ {
		q, err := randomPoint(c, rnd)
		if err != nil {
			return err
		}
		cleared := q.ScalarMul(cofactorQuot)
		if !cleared.ScalarMul(n).IsInfinity() {
			return &ErrInvalidParams{"cofactor-cleared random point does not have order dividing n"}
		}
	}

	return nil
}

// randomPoint returns a uniformly-chosen-x point on c, retrying with a
// fresh x until RestoreY succeeds.
func randomPoint(c *Curve, rnd *rand.Rand) (*Point, error) {
	for attempt := 0; attempt < 1000; attempt++ {
		x := bigint.RandBelow(rnd, c.P)
		y, err := RestoreY(c, x, 0)
		if err == ErrNoSquareRoot {
			continue
		}
		if err != nil {
			return nil, err
		}
		return NewAffine(c, x, y)
	}
	return nil, &ErrInvalidParams{"could not find a random curve point"}
}
