package ecp

import "github.com/sshlab/cryptocore/bigint"

// Point is a point on a Curve, held in Jacobian projective coordinates
// (X, Y, Z) internally where the affine point is (X/Z^2, Y/Z^3); the
// point at infinity is Z == 0. Externally, points are passed around as
// affine (x, y, z) with z in {0, 1} (spec §4.3): z=0 marks infinity.
type Point struct {
	Curve   *Curve
	X, Y, Z *bigint.Z
}

// Infinity returns the point at infinity on c.
func Infinity(c *Curve) *Point {
	return &Point{Curve: c, X: bigint.NewInt(1), Y: bigint.NewInt(1), Z: bigint.NewInt(0)}
}

// IsInfinity reports whether p is the point at infinity.
func (p *Point) IsInfinity() bool { return p.Z.IsZero() }

// NewAffine returns the Jacobian representation of the affine point
// (x, y), after checking it lies on the curve. The check itself goes
// through FastOnCurve, which takes the uint256 path for Fast256 curves
// and falls back to bigint.Z otherwise.
func NewAffine(c *Curve, x, y *bigint.Z) (*Point, error) {
	if !FastOnCurve(c, x, y) {
		return nil, ErrNotOnCurve
	}
	return &Point{Curve: c, X: x.Clone(), Y: y.Clone(), Z: bigint.NewInt(1)}, nil
}

// Affine converts p back to affine (x, y), failing only if p is the
// point at infinity (the caller should check IsInfinity first).
func (p *Point) Affine() (x, y *bigint.Z) {
	c := p.Curve
	zInv, ok := new(bigint.Z).Invert(p.Z, c.P)
	if !ok {
		panic("ecp: inverting a zero Z (point at infinity has no affine form)")
	}
	zInv2 := new(bigint.Z).Mul(zInv, zInv)
	zInv3 := new(bigint.Z).Mul(zInv2, zInv)
	x = new(bigint.Z).Mul(p.X, zInv2)
	x.Mod(x, c.P)
	y = new(bigint.Z).Mul(p.Y, zInv3)
	y.Mod(y, c.P)
	return x, y
}

// Neg returns -p (negate the y coordinate).
func (p *Point) Neg() *Point {
	if p.IsInfinity() {
		return p
	}
	c := p.Curve
	ny := new(bigint.Z).Sub(c.P, p.Y)
	ny.Mod(ny, c.P)
	return &Point{Curve: c, X: p.X.Clone(), Y: ny, Z: p.Z.Clone()}
}

// Double returns 2*p using the standard Jacobian doubling formulas.
func (p *Point) Double() *Point {
	c := p.Curve
	if p.IsInfinity() || p.Y.IsZero() {
		return Infinity(c)
	}
	mod := c.modP

	y2 := mod(new(bigint.Z).Mul(p.Y, p.Y))
	s := mod(new(bigint.Z).Mul(bigint.NewInt(4), mod(new(bigint.Z).Mul(p.X, y2))))

	x2 := mod(new(bigint.Z).Mul(p.X, p.X))
	z2 := mod(new(bigint.Z).Mul(p.Z, p.Z))
	z4 := mod(new(bigint.Z).Mul(z2, z2))
	m := mod(new(bigint.Z).Add(mod(new(bigint.Z).Mul(bigint.NewInt(3), x2)), mod(new(bigint.Z).Mul(c.A, z4))))

	x3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(m, m)), mod(new(bigint.Z).Mul(bigint.NewInt(2), s))))

	y4 := mod(new(bigint.Z).Mul(y2, y2))
	y3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(m, mod(new(bigint.Z).Sub(s, x3)))), mod(new(bigint.Z).Mul(bigint.NewInt(8), y4))))

	z3 := mod(new(bigint.Z).Mul(bigint.NewInt(2), mod(new(bigint.Z).Mul(p.Y, p.Z))))

	return &Point{Curve: c, X: x3, Y: y3, Z: z3}
}

// Add returns p+q. When q.Z == 1 the specialized mixed-addition
// formulas are used (spec §4.3: "addition has a specialised case for
// Z2=1"); otherwise the general Jacobian formulas handle arbitrary Z.
func (p *Point) Add(q *Point) *Point {
	c := p.Curve
	if p.IsInfinity() {
		return q
	}
	if q.IsInfinity() {
		return p
	}
	mod := c.modP

	if q.Z.Cmp(bigint.NewInt(1)) == 0 {
		return p.addMixed(q, mod)
	}
	return p.addGeneral(q, mod)
}

func (p *Point) addMixed(q *Point, mod func(*bigint.Z) *bigint.Z) *Point {
	c := p.Curve
	z1z1 := mod(new(bigint.Z).Mul(p.Z, p.Z))
	u2 := mod(new(bigint.Z).Mul(q.X, z1z1))
	s2 := mod(new(bigint.Z).Mul(q.Y, mod(new(bigint.Z).Mul(p.Z, z1z1))))

	if p.X.Cmp(u2) == 0 {
		if p.Y.Cmp(s2) != 0 {
			return Infinity(c)
		}
		return p.Double()
	}

	h := mod(new(bigint.Z).Sub(u2, p.X))
	hh := mod(new(bigint.Z).Mul(h, h))
	ii := mod(new(bigint.Z).Mul(bigint.NewInt(4), hh))
	j := mod(new(bigint.Z).Mul(h, ii))
	r := mod(new(bigint.Z).Mul(bigint.NewInt(2), mod(new(bigint.Z).Sub(s2, p.Y))))
	v := mod(new(bigint.Z).Mul(p.X, ii))

	x3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(r, r)), j)), mod(new(bigint.Z).Mul(bigint.NewInt(2), v))))
	y3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(r, mod(new(bigint.Z).Sub(v, x3)))), mod(new(bigint.Z).Mul(bigint.NewInt(2), mod(new(bigint.Z).Mul(p.Y, j))))))
	zTerm := mod(new(bigint.Z).Add(p.Z, h))
	z3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(zTerm, zTerm)), mod(new(bigint.Z).Add(z1z1, hh))))

	return &Point{Curve: c, X: x3, Y: y3, Z: z3}
}

func (p *Point) addGeneral(q *Point, mod func(*bigint.Z) *bigint.Z) *Point {
	c := p.Curve
	z1z1 := mod(new(bigint.Z).Mul(p.Z, p.Z))
	z2z2 := mod(new(bigint.Z).Mul(q.Z, q.Z))
	u1 := mod(new(bigint.Z).Mul(p.X, z2z2))
	u2 := mod(new(bigint.Z).Mul(q.X, z1z1))
	s1 := mod(new(bigint.Z).Mul(p.Y, mod(new(bigint.Z).Mul(q.Z, z2z2))))
	s2 := mod(new(bigint.Z).Mul(q.Y, mod(new(bigint.Z).Mul(p.Z, z1z1))))

	if u1.Cmp(u2) == 0 {
		if s1.Cmp(s2) != 0 {
			return Infinity(c)
		}
		return p.Double()
	}

	h := mod(new(bigint.Z).Sub(u2, u1))
	twoH := mod(new(bigint.Z).Mul(bigint.NewInt(2), h))
	ii := mod(new(bigint.Z).Mul(twoH, twoH))
	j := mod(new(bigint.Z).Mul(h, ii))
	r := mod(new(bigint.Z).Mul(bigint.NewInt(2), mod(new(bigint.Z).Sub(s2, s1))))
	v := mod(new(bigint.Z).Mul(u1, ii))

	x3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(r, r)), j)), mod(new(bigint.Z).Mul(bigint.NewInt(2), v))))
	y3 := mod(new(bigint.Z).Sub(mod(new(bigint.Z).Mul(r, mod(new(bigint.Z).Sub(v, x3)))), mod(new(bigint.Z).Mul(bigint.NewInt(2), mod(new(bigint.Z).Mul(s1, j))))))

	zSum := mod(new(bigint.Z).Add(p.Z, q.Z))
	zSum2 := mod(new(bigint.Z).Mul(zSum, zSum))
	z3 := mod(new(bigint.Z).Mul(mod(new(bigint.Z).Sub(mod(new(bigint.Z).Sub(zSum2, z1z1)), z2z2)), h))

	return &Point{Curve: c, X: x3, Y: y3, Z: z3}
}

// Equal reports whether p and q represent the same affine point
// (comparing cross-multiplied Jacobian coordinates so no inversion is
// needed).
func (p *Point) Equal(q *Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() == q.IsInfinity()
	}
	mod := p.Curve.modP
	z1z1 := mod(new(bigint.Z).Mul(p.Z, p.Z))
	z2z2 := mod(new(bigint.Z).Mul(q.Z, q.Z))
	lx := mod(new(bigint.Z).Mul(p.X, z2z2))
	rx := mod(new(bigint.Z).Mul(q.X, z1z1))
	if lx.Cmp(rx) != 0 {
		return false
	}
	ly := mod(new(bigint.Z).Mul(p.Y, mod(new(bigint.Z).Mul(q.Z, z2z2))))
	ry := mod(new(bigint.Z).Mul(q.Y, mod(new(bigint.Z).Mul(p.Z, z1z1))))
	return ly.Cmp(ry) == 0
}
