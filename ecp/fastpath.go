package ecp

import (
	"github.com/holiman/uint256"

	"github.com/sshlab/cryptocore/bigint"
)

// toUint256 converts z (0 <= z < 2^256) to a uint256.Int.
func toUint256(z *bigint.Z) *uint256.Int {
	buf := make([]byte, 32)
	z.FillBytes(buf)
	return new(uint256.Int).SetBytes(buf)
}

func fromUint256(u *uint256.Int) *bigint.Z {
	return new(bigint.Z).SetBytes(u.Bytes())
}

// FastEqual compares the affine forms of p and q using uint256 modular
// arithmetic instead of bigint.Z, when the curve modulus fits in 256
// bits (Curve.Fast256); the general-width Equal is used otherwise. This
// is the accelerated path for the common named curves this layer
// exercises (P-224 through P-256-class moduli), per the domain-stack
// wiring for github.com/holiman/uint256.
func (p *Point) FastEqual(q *Point) bool {
	c := p.Curve
	if !c.Fast256 {
		return p.Equal(q)
	}
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() == q.IsInfinity()
	}

	mod := toUint256(c.P)
	px, py := toUint256(p.X), toUint256(p.Y)
	pz := toUint256(p.Z)
	qx, qy := toUint256(q.X), toUint256(q.Y)
	qz := toUint256(q.Z)

	z1z1 := new(uint256.Int).MulMod(pz, pz, mod)
	z2z2 := new(uint256.Int).MulMod(qz, qz, mod)
	lx := new(uint256.Int).MulMod(px, z2z2, mod)
	rx := new(uint256.Int).MulMod(qx, z1z1, mod)
	if lx.Cmp(rx) != 0 {
		return false
	}
	ly := new(uint256.Int).MulMod(py, new(uint256.Int).MulMod(qz, z2z2, mod), mod)
	ry := new(uint256.Int).MulMod(qy, new(uint256.Int).MulMod(pz, z1z1, mod), mod)
	return ly.Cmp(ry) == 0
}

// movConditionFails reports whether c.P^i == 1 (mod n) for some i in
// [1, threshold], i.e. the embedding degree is small enough to make the
// MOV attack practical. Runs the repeated running-product loop over
// uint256 when c.Fast256 is set (c.P, and therefore n < c.P, both fit in
// 256 bits), falling back to bigint.Z otherwise.
func movConditionFails(c *Curve, n *bigint.Z, threshold int) bool {
	if !c.Fast256 {
		one := bigint.NewInt(1)
		acc := new(bigint.Z).Mod(c.P, n)
		for i := 1; i <= threshold; i++ {
			if acc.Cmp(one) == 0 {
				return true
			}
			acc.Mul(acc, c.P)
			acc.Mod(acc, n)
		}
		return false
	}

	mod := toUint256(n)
	p := toUint256(c.P)
	one := uint256.NewInt(1)
	acc := new(uint256.Int).Mod(p, mod)
	for i := 1; i <= threshold; i++ {
		if acc.Cmp(one) == 0 {
			return true
		}
		acc.MulMod(acc, p, mod)
	}
	return false
}

// FastOnCurve checks the curve equation for an affine point using
// uint256 arithmetic, for curves with Fast256 set.
func FastOnCurve(c *Curve, x, y *bigint.Z) bool {
	if !c.Fast256 {
		lhs := new(bigint.Z).Mul(y, y)
		lhs.Mod(lhs, c.P)
		x2 := new(bigint.Z).Mul(x, x)
		x3 := new(bigint.Z).Mul(x2, x)
		rhs := new(bigint.Z).Add(x3, new(bigint.Z).Mul(c.A, x))
		rhs.Add(rhs, c.B)
		rhs.Mod(rhs, c.P)
		return lhs.Cmp(rhs) == 0
	}

	mod := toUint256(c.P)
	ux, uy := toUint256(x), toUint256(y)
	ua, ub := toUint256(c.A), toUint256(c.B)

	lhs := new(uint256.Int).MulMod(uy, uy, mod)
	x2 := new(uint256.Int).MulMod(ux, ux, mod)
	x3 := new(uint256.Int).MulMod(x2, ux, mod)
	ax := new(uint256.Int).MulMod(ua, ux, mod)
	rhs := new(uint256.Int).AddMod(x3, ax, mod)
	rhs = new(uint256.Int).AddMod(rhs, ub, mod)
	return lhs.Cmp(rhs) == 0
}
