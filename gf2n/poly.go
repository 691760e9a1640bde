package gf2n

import "math/rand"

// Poly is a polynomial with coefficients in GF(2^n), used for finding
// roots of embedding polynomials when lifting a subfield curve's
// constants into an extension field (spec §4.4's curve-generation
// procedure).
//
// Invariant: c is little-endian (c[0] is the constant term) and trimmed
// so the top coefficient is nonzero; the zero polynomial is len(c)==0.
type Poly struct {
	mod *Modulus
	c   []*Elt
}

// NewPoly returns the polynomial with the given little-endian
// coefficients.
func NewPoly(mod *Modulus, coeffs []*Elt) *Poly {
	p := &Poly{mod: mod, c: append([]*Elt(nil), coeffs...)}
	return p.trim()
}

func (p *Poly) trim() *Poly {
	n := len(p.c)
	for n > 0 && p.c[n-1].IsZero() {
		n--
	}
	p.c = p.c[:n]
	return p
}

// Deg returns the degree of p, or -1 for the zero polynomial.
func (p *Poly) Deg() int { return len(p.c) - 1 }

// IsZero reports whether p is the zero polynomial.
func (p *Poly) IsZero() bool { return len(p.c) == 0 }

func (p *Poly) coeff(i int) *Elt {
	if i < 0 || i >= len(p.c) {
		return NewElt(p.mod)
	}
	return p.c[i]
}

// Coeff returns the coefficient of x^i, or zero if i is out of range.
func (p *Poly) Coeff(i int) *Elt { return p.coeff(i) }

// PolyAdd returns a+b.
func PolyAdd(a, b *Poly) *Poly {
	n := len(a.c)
	if len(b.c) > n {
		n = len(b.c)
	}
	out := make([]*Elt, n)
	for i := 0; i < n; i++ {
		out[i] = new(Elt).Add(a.coeff(i), b.coeff(i))
	}
	return (&Poly{mod: a.mod, c: out}).trim()
}

// PolyMul returns a*b via schoolbook multiplication.
func PolyMul(a, b *Poly) *Poly {
	if a.IsZero() || b.IsZero() {
		return &Poly{mod: a.mod}
	}
	out := make([]*Elt, len(a.c)+len(b.c)-1)
	for i := range out {
		out[i] = NewElt(a.mod)
	}
	for i, ai := range a.c {
		if ai.IsZero() {
			continue
		}
		for j, bj := range b.c {
			t := new(Elt).Mul(ai, bj)
			out[i+j].Add(out[i+j], t)
		}
	}
	return (&Poly{mod: a.mod, c: out}).trim()
}

// PolyDivMod returns q, r such that a = q*b + r with deg(r) < deg(b).
func PolyDivMod(a, b *Poly) (q, r *Poly) {
	if b.IsZero() {
		panic("gf2n: polynomial division by zero")
	}
	db := b.Deg()
	lcInv := new(Elt).Invert(b.c[db])

	rem := &Poly{mod: a.mod, c: append([]*Elt(nil), a.c...)}
	qlen := rem.Deg() - db + 1
	if qlen < 0 {
		qlen = 0
	}
	qc := make([]*Elt, qlen)
	for i := range qc {
		qc[i] = NewElt(a.mod)
	}
	for rem.Deg() >= db {
		shift := rem.Deg() - db
		factor := new(Elt).Mul(rem.c[rem.Deg()], lcInv)
		if shift >= 0 && shift < len(qc) {
			qc[shift].Set(factor)
		}
		for i := 0; i <= db; i++ {
			term := new(Elt).Mul(factor, b.coeff(i))
			rem.c[i+shift].Add(rem.c[i+shift], term)
		}
		rem.trim()
	}
	q = (&Poly{mod: a.mod, c: qc}).trim()
	r = rem
	return q, r
}

// PolyMod returns a mod b.
func PolyMod(a, b *Poly) *Poly {
	_, r := PolyDivMod(a, b)
	return r
}

// PolyGCD returns gcd(a, b).
func PolyGCD(a, b *Poly) *Poly {
	x, y := a, b
	for !y.IsZero() {
		x, y = y, PolyMod(x, y)
	}
	return x
}

// polyDivExact returns a/b, assuming b divides a exactly.
func polyDivExact(a, b *Poly) *Poly {
	q, _ := PolyDivMod(a, b)
	return q
}

// polyX returns the polynomial "x" over mod.
func polyX(mod *Modulus) *Poly {
	return NewPoly(mod, []*Elt{NewElt(mod), NewElt(mod).SetUint(1)})
}

// FindRoots returns every root of f in GF(2^n) (n = f's coefficient
// field degree), via gcd(x^(2^n)+x, f) to isolate the degree-1 factors
// followed by randomized equal-degree splitting using the
// characteristic-2 analogue of Cantor-Zassenhaus: instead of a Legendre
// symbol, repeated squaring mod the candidate factor builds a
// field-trace-like map whose two level sets {0,1} split the roots.
func FindRoots(f *Poly, rnd *rand.Rand) []*Elt {
	n := f.mod.Deg
	x := polyX(f.mod)
	cur := x
	for i := 0; i < n; i++ {
		cur = PolyMod(PolyMul(cur, cur), f)
	}
	g := PolyGCD(f, PolyAdd(cur, x))

	var roots []*Elt
	splitAndCollect(g, n, rnd, &roots)
	return roots
}

func splitAndCollect(g *Poly, n int, rnd *rand.Rand, roots *[]*Elt) {
	if g.Deg() <= 0 {
		return
	}
	if g.Deg() == 1 {
		inv := new(Elt).Invert(g.c[1])
		root := new(Elt).Mul(g.c[0], inv)
		*roots = append(*roots, root)
		return
	}
	for attempt := 0; attempt < 10000; attempt++ {
		r := randomPolyBelowDeg(rnd, g.mod, g.Deg())
		if r.Deg() < 0 {
			continue
		}
		t := traceSplit(r, n, g)

		h1 := PolyGCD(g, t)
		if h1.Deg() > 0 && h1.Deg() < g.Deg() {
			h2 := polyDivExact(g, h1)
			splitAndCollect(h1, n, rnd, roots)
			splitAndCollect(h2, n, rnd, roots)
			return
		}
		one := NewPoly(g.mod, []*Elt{NewElt(g.mod).SetUint(1)})
		t1 := PolyAdd(t, one)
		h1b := PolyGCD(g, t1)
		if h1b.Deg() > 0 && h1b.Deg() < g.Deg() {
			h2b := polyDivExact(g, h1b)
			splitAndCollect(h1b, n, rnd, roots)
			splitAndCollect(h2b, n, rnd, roots)
			return
		}
	}
}

func traceSplit(r *Poly, n int, g *Poly) *Poly {
	cur := PolyMod(r, g)
	acc := cur
	for i := 1; i < n; i++ {
		cur = PolyMod(PolyMul(cur, cur), g)
		acc = PolyAdd(acc, cur)
	}
	return acc
}

func randomPolyBelowDeg(rnd *rand.Rand, mod *Modulus, deg int) *Poly {
	c := make([]*Elt, deg)
	for i := range c {
		c[i] = PoorRand(rnd, mod)
	}
	return NewPoly(mod, c)
}

// PoorRand returns a non-cryptographic random field element, mirroring
// bigint.RandBits: used only for internal randomization (factorization
// splitting), never for key material.
func PoorRand(rnd *rand.Rand, mod *Modulus) *Elt {
	e := NewElt(mod)
	for i := range e.w {
		e.w[i] = Word(rnd.Uint64())
	}
	return e.mask()
}
