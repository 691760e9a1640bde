// Package ecp implements elliptic curves over GF(p): Jacobian-projective
// scalar multiplication with a signed non-adjacent-form sliding window,
// point compression, and the curve/point/order parameter-verification
// procedure from the discrete-log-based public-key layer this module
// feeds into.
package ecp

import (
	"errors"

	"github.com/sshlab/cryptocore/bigint"
)

// ErrNotOnCurve is returned when a candidate point fails the curve
// equation.
var ErrNotOnCurve = errors.New("ecp: point not on curve")

// ErrNoSquareRoot is returned by RestoreY when x has no corresponding
// point on the curve (x^3+ax+b is a non-residue mod p).
var ErrNoSquareRoot = errors.New("ecp: x has no corresponding y")

// ErrInvalidParams is returned by VerifyParam when any domain-parameter
// check fails; the message identifies which one.
type ErrInvalidParams struct{ Reason string }

func (e *ErrInvalidParams) Error() string { return "ecp: invalid parameters: " + e.Reason }

// Curve holds the Weierstrass domain parameters y^2 = x^3+ax+b over
// GF(p), plus a Montgomery context for p so point arithmetic can use
// PowMod-style reduction throughout.
type Curve struct {
	P *bigint.Z
	A *bigint.Z
	B *bigint.Z
	N *bigint.Z // subgroup order
	G *Point    // base point

	mont *bigint.Mont

	// Fast256 enables the uint256 accelerated field-arithmetic path
	// (see fastpath.go) when P fits in 256 bits, the common case for
	// the named curves this layer is exercised with.
	Fast256 bool
}

// NewCurve builds a Curve and its Montgomery context for p. p must be an
// odd prime greater than 2, as every curve modulus in this layer is.
func NewCurve(p, a, b, n *bigint.Z) (*Curve, error) {
	mont, err := bigint.NewMontgomery(p)
	if err != nil {
		return nil, err
	}
	c := &Curve{P: p, A: a, B: b, N: n, mont: mont}
	c.Fast256 = p.BitLen() <= 256
	return c, nil
}

func (c *Curve) modP(z *bigint.Z) *bigint.Z {
	return new(bigint.Z).Mod(z, c.P)
}
