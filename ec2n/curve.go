// Package ec2n implements elliptic curves over GF(2^n):
// y^2+xy = x^3+ax^2+b in affine coordinates, the Frobenius endomorphism
// for curves defined over a small subfield, and tau-adic NAF scalar
// multiplication (the "Mueller" method).
package ec2n

import (
	"errors"

	"github.com/sshlab/cryptocore/bigint"
	"github.com/sshlab/cryptocore/gf2n"
)

// ErrNotOnCurve is returned when a candidate point fails the curve
// equation.
var ErrNotOnCurve = errors.New("ec2n: point not on curve")

// ErrNoRoot is returned by RestoreX when the input has no corresponding
// point on the curve.
var ErrNoRoot = errors.New("ec2n: no point with the given x")

// Curve holds the domain parameters of y^2+xy = x^3+ax^2+b over a fixed
// GF(2^n) modulus, plus (when defined over a small subfield) the
// Frobenius descriptors of spec §3's E2 data model:
// (Q, a, b, #E, u_m, u_{m-1}, f_c, f_q, f_k, f_n, f_a, f_b).
type Curve struct {
	Mod *gf2n.Modulus
	A   *gf2n.Elt
	B   *gf2n.Elt
	N   *bigint.Z // subgroup order, an ordinary integer

	// Subfield is f_q: the degree q such that the curve is defined over
	// GF(2^q) and lifted to GF(2^n); 0 means no subfield structure
	// (Frobenius-based multiplication is unavailable).
	Subfield int

	// FrobC is f_c: the trace coefficient c in the Frobenius minimal
	// polynomial tau^2 - c*tau + 2^Subfield = 0.
	FrobC int

	// FrobK is f_k: the embedding degree k = n/Subfield (the number of
	// Frobenius applications needed to return a point to the subfield
	// curve's own group).
	FrobK int

	// FrobN is f_n: #E(GF(2^Subfield)), the small-field curve's own
	// point count (computed via CountSubfieldCurve).
	FrobN *bigint.Z

	// FrobA, FrobB are f_a, f_b: the curve's A, B coefficients as
	// elements of the GF(2^Subfield) subfield, before embedding into
	// GF(2^n) (nil unless a subfield structure is set).
	FrobA *gf2n.Elt
	FrobB *gf2n.Elt

	// UM, UMinus1 are the Lucas-sequence coefficients u_m, u_{m-1} of
	// spec §4.4's Anomalous Binary Curve (Subfield == 1) reduction:
	// tau^m - 1 = UM*tau - (2*UMinus1 + 1), with m = FrobK. Populated
	// only for Subfield == 1 curves; nil otherwise.
	UM      *bigint.Z
	UMinus1 *bigint.Z
}

// NewCurve builds a Curve over mod with the given a, b.
func NewCurve(mod *gf2n.Modulus, a, b *gf2n.Elt) *Curve {
	return &Curve{Mod: mod, A: a, B: b}
}

// SetFrobenius populates c's subfield/Frobenius descriptors: q is the
// subfield degree, c is the trace coefficient of tau^2-c*tau+2^q=0,
// smallN is #E(GF(2^q)), and fa/fb are the subfield-native A/B
// coefficients (may be nil if not tracked). For Subfield == 1 (the
// Anomalous Binary Curve case) this also derives the Lucas-sequence
// pair UM, UMinus1 spec §4.4's tau^m-1 reduction needs, with m = n/q.
func (c *Curve) SetFrobenius(q, trace int, smallN *bigint.Z, fa, fb *gf2n.Elt) {
	c.Subfield = q
	c.FrobC = trace
	c.FrobK = c.Mod.Deg / q
	c.FrobN = smallN
	c.FrobA = fa
	c.FrobB = fb
	if q == 1 {
		c.UM, c.UMinus1 = lucasUPair(trace, c.FrobK)
	}
}

// lucasUPair returns (u_m, u_{m-1}) for the Lucas sequence
// u_0=0, u_1=1, u_i = c*u_{i-1} - 2*u_{i-2}, the coefficients of
// tau^i = u_i*tau - 2*u_{i-1} (spec §4.4, q=1 case: tau^2-c*tau+2=0).
func lucasUPair(c, m int) (*bigint.Z, *bigint.Z) {
	if m == 0 {
		return bigint.NewInt(0), bigint.NewInt(-1) // u_0=0; u_{-1} unused, placeholder
	}
	cZ := bigint.NewInt(int64(c))
	uPrev := bigint.NewInt(0) // u_0
	uCur := bigint.NewInt(1)  // u_1
	if m == 1 {
		return uCur, uPrev
	}
	for i := 2; i <= m; i++ {
		next := new(bigint.Z).Mul(cZ, uCur)
		next.Sub(next, new(bigint.Z).Mul(bigint.NewInt(2), uPrev))
		uPrev, uCur = uCur, next
	}
	return uCur, uPrev
}

// Point is an affine point on a Curve; IsInfinity marks the identity
// (binary curves have no useful projective form here since field
// inversion is cheap via the almost-inverse algorithm, per spec §4.4).
type Point struct {
	Curve      *Curve
	X, Y       *gf2n.Elt
	IsInfinity bool
}

// Infinity returns the point at infinity on c.
func Infinity(c *Curve) *Point {
	return &Point{Curve: c, IsInfinity: true}
}

// NewAffine returns the point (x, y) on c after checking the curve
// equation.
func NewAffine(c *Curve, x, y *gf2n.Elt) (*Point, error) {
	lhs := new(gf2n.Elt).Square(y)
	xy := new(gf2n.Elt).Mul(x, y)
	lhs.Add(lhs, xy)

	x2 := new(gf2n.Elt).Square(x)
	x3 := new(gf2n.Elt).Mul(x2, x)
	ax2 := new(gf2n.Elt).Mul(c.A, x2)
	rhs := new(gf2n.Elt).Add(x3, ax2)
	rhs.Add(rhs, c.B)

	if !lhs.Equal(rhs) {
		return nil, ErrNotOnCurve
	}
	return &Point{Curve: c, X: x.Clone(), Y: y.Clone()}, nil
}

// Neg returns -p = (x, x+y), per spec §4.4.
func (p *Point) Neg() *Point {
	if p.IsInfinity {
		return p
	}
	ny := new(gf2n.Elt).Add(p.X, p.Y)
	return &Point{Curve: p.Curve, X: p.X.Clone(), Y: ny}
}

// Equal reports whether p and q are the same point.
func (p *Point) Equal(q *Point) bool {
	if p.IsInfinity || q.IsInfinity {
		return p.IsInfinity == q.IsInfinity
	}
	return p.X.Equal(q.X) && p.Y.Equal(q.Y)
}

// Double returns 2*p using the standard affine doubling formula for
// y^2+xy = x^3+ax^2+b: lambda = x + y/x; x3 = lambda^2+lambda+a;
// y3 = x^2 + lambda*x3 + x3.
func (p *Point) Double() *Point {
	c := p.Curve
	if p.IsInfinity || p.X.IsZero() {
		return Infinity(c)
	}
	xInv := new(gf2n.Elt).Invert(p.X)
	lambda := new(gf2n.Elt).Mul(p.Y, xInv)
	lambda.Add(lambda, p.X)

	x3 := new(gf2n.Elt).Square(lambda)
	x3.Add(x3, lambda)
	x3.Add(x3, c.A)

	x2 := new(gf2n.Elt).Square(p.X)
	y3 := new(gf2n.Elt).Mul(lambda, x3)
	y3.Add(y3, x3)
	y3.Add(y3, x2)

	return &Point{Curve: c, X: x3, Y: y3}
}

// Add returns p+q using the standard affine addition formula.
func (p *Point) Add(q *Point) *Point {
	c := p.Curve
	if p.IsInfinity {
		return q
	}
	if q.IsInfinity {
		return p
	}
	if p.X.Equal(q.X) {
		if p.Y.Equal(q.Y) {
			return p.Double()
		}
		return Infinity(c) // q == -p
	}

	dx := new(gf2n.Elt).Add(p.X, q.X)
	dxInv := new(gf2n.Elt).Invert(dx)
	dy := new(gf2n.Elt).Add(p.Y, q.Y)
	lambda := new(gf2n.Elt).Mul(dy, dxInv)

	x3 := new(gf2n.Elt).Square(lambda)
	x3.Add(x3, lambda)
	x3.Add(x3, dx)
	x3.Add(x3, c.A)

	y3 := new(gf2n.Elt).Add(p.X, x3)
	y3.Mul(y3, lambda)
	y3.Add(y3, x3)
	y3.Add(y3, p.Y)

	return &Point{Curve: c, X: x3, Y: y3}
}

// Frobenius applies (x, y) -> (x^(2^q), y^(2^q)), the endomorphism used
// by Mueller multiplication when the curve is defined over a subfield
// GF(2^q) (spec §4.4).
func (p *Point) Frobenius() *Point {
	if p.Curve.Subfield == 0 {
		panic("ec2n: Frobenius requires a curve with a subfield set")
	}
	if p.IsInfinity {
		return p
	}
	q := uint(p.Curve.Subfield)
	fx := new(gf2n.Elt).ExpSquarings(p.X, q)
	fy := new(gf2n.Elt).ExpSquarings(p.Y, q)
	return &Point{Curve: p.Curve, X: fx, Y: fy}
}

// RestoreX recovers the affine point with the given x (or ErrNoRoot if
// none exists): the curve equation is a quadratic in y/x after dividing
// by x^2 (for x != 0): (y/x)^2 + (y/x) = x + a + b/x^2, solved by
// QuadSolve.
func RestoreX(c *Curve, x *gf2n.Elt) (*Point, error) {
	if x.IsZero() {
		// y^2 = b when x == 0.
		y, ok := sqrtGF2n(c.B)
		if !ok {
			return nil, ErrNoRoot
		}
		return &Point{Curve: c, X: x.Clone(), Y: y}, nil
	}
	xInv := new(gf2n.Elt).Invert(x)
	xInv2 := new(gf2n.Elt).Square(xInv)
	bOverX2 := new(gf2n.Elt).Mul(c.B, xInv2)
	rhs := new(gf2n.Elt).Add(x, c.A)
	rhs.Add(rhs, bOverX2)

	z, ok := gf2n.QuadSolve(rhs)
	if !ok {
		return nil, ErrNoRoot
	}
	y := new(gf2n.Elt).Mul(z, x)
	return NewAffine(c, x, y)
}

// sqrtGF2n returns the unique square root of a in characteristic 2
// (squaring is a bijection, its inverse is exponentiation by 2^(n-1)).
func sqrtGF2n(a *gf2n.Elt) (*gf2n.Elt, bool) {
	n := a.Modulus().Deg
	r := new(gf2n.Elt).ExpSquarings(a, uint(n-1))
	return r, true
}
