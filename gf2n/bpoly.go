package gf2n

// BPoly is an unreduced polynomial over GF(2): a little-endian bit
// vector with no implicit modulus, used only for modulus search
// (irreducibility testing, trinomial/pentanomial enumeration) where
// GF(2^n)'s fixed-width Elt type does not apply.
type BPoly struct {
	w []Word // trimmed: top word nonzero, or empty for the zero polynomial.
}

// NewBPolyBits returns the polynomial with 1-coefficients at the given
// exponents.
func NewBPolyBits(bitsSet []int) *BPoly {
	p := &BPoly{}
	for _, b := range bitsSet {
		p.setBit(b)
	}
	return p
}

func (p *BPoly) setBit(i int) {
	wi := i / wordBits
	for len(p.w) <= wi {
		p.w = append(p.w, 0)
	}
	p.w[wi] |= Word(1) << uint(i%wordBits)
}

func (p *BPoly) trim() *BPoly {
	n := len(p.w)
	for n > 0 && p.w[n-1] == 0 {
		n--
	}
	p.w = p.w[:n]
	return p
}

// Deg returns the degree of p, or -1 for the zero polynomial.
func (p *BPoly) Deg() int {
	return degreeVec(p.w)
}

// IsZero reports whether p is the zero polynomial.
func (p *BPoly) IsZero() bool { return len(p.w) == 0 }

// Equal reports whether p and q are the same polynomial.
func (p *BPoly) Equal(q *BPoly) bool {
	if len(p.w) != len(q.w) {
		return false
	}
	for i := range p.w {
		if p.w[i] != q.w[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of p.
func (p *BPoly) Clone() *BPoly {
	return &BPoly{w: append([]Word(nil), p.w...)}
}

// Add sets p = a+b (XOR) and returns p.
func (p *BPoly) Add(a, b *BPoly) *BPoly {
	p.w = xorWords(a.w, b.w)
	return p.trim()
}

// Mul sets p = a*b (carry-less) and returns p.
func (p *BPoly) Mul(a, b *BPoly) *BPoly {
	p.w = combMul(a.w, b.w)
	return p.trim()
}

// DivMod computes q, r such that a = q*b + r with deg(r) < deg(b), via
// schoolbook shift-and-xor long division; used only in modulus search,
// so speed is not a concern.
func DivMod(a, b *BPoly) (q, r *BPoly) {
	if b.IsZero() {
		panic("gf2n: division by zero polynomial")
	}
	db := b.Deg()
	rem := append([]Word(nil), a.w...)
	qw := make([]Word, len(a.w))
	for {
		rd := degreeVec(rem)
		if rd < db {
			break
		}
		shift := rd - db
		shifted := shiftLeftVec(b.w, shift)
		xorInPlace(rem, shifted)
		setBitVec(qw, shift)
	}
	q = &BPoly{w: qw}
	r = &BPoly{w: rem}
	return q.trim(), r.trim()
}

// Mod returns a mod b.
func Mod(a, b *BPoly) *BPoly {
	_, r := DivMod(a, b)
	return r
}

func shiftLeftVec(w []Word, bitsShift int) []Word {
	if bitsShift == 0 {
		return append([]Word(nil), w...)
	}
	wordShift := bitsShift / wordBits
	bitRem := uint(bitsShift % wordBits)
	out := make([]Word, len(w)+wordShift+1)
	for i, v := range w {
		out[i+wordShift] ^= v << bitRem
		if bitRem != 0 {
			out[i+wordShift+1] ^= v >> (wordBits - bitRem)
		}
	}
	return out
}

// Gcd returns gcd(a, b) via the Euclidean algorithm over GF(2)[x].
func Gcd(a, b *BPoly) *BPoly {
	x, y := a.Clone(), b.Clone()
	for !y.IsZero() {
		x, y = y, Mod(x, y)
	}
	return x
}

// GcdExt returns g = gcd(a,b) and s, t such that a*s + b*t = g.
func GcdExt(a, b *BPoly) (g, s, t *BPoly) {
	oldR, r := a.Clone(), b.Clone()
	oldS, sc := NewBPolyBits([]int{0}), &BPoly{}
	oldT, tc := &BPoly{}, NewBPolyBits([]int{0})

	for !r.IsZero() {
		q, rem := DivMod(oldR, r)
		oldR, r = r, rem

		qs := new(BPoly).Mul(q, sc)
		newS := new(BPoly).Add(oldS, qs)
		oldS, sc = sc, newS

		qt := new(BPoly).Mul(q, tc)
		newT := new(BPoly).Add(oldT, qt)
		oldT, tc = tc, newT
	}
	return oldR, oldS, oldT
}

// Invert returns a^-1 mod m (true) if gcd(a,m)==1, else (nil, false).
func Invert(a, m *BPoly) (*BPoly, bool) {
	g, s, _ := GcdExt(a, m)
	if g.Deg() != 0 {
		return nil, false
	}
	return Mod(s, m), true
}

// powX2ExpMod returns x^(2^k) mod f, computed by k repeated
// squarings-and-reductions starting from x.
func powX2ExpMod(x *BPoly, k int, f *BPoly) *BPoly {
	cur := x.Clone()
	for i := 0; i < k; i++ {
		sq := new(BPoly).Mul(cur, cur)
		cur = Mod(sq, f)
	}
	return cur
}

// IsIrreducible reports whether f is irreducible over GF(2), using
// Rabin's test: x^(2^deg(f)) ≡ x (mod f), and gcd(x^(2^i)+x, f) = 1 for
// i = 1..floor(deg(f)/2).
func (f *BPoly) IsIrreducible() bool {
	d := f.Deg()
	if d <= 0 {
		return false
	}
	x := NewBPolyBits([]int{1})

	full := powX2ExpMod(x, d, f)
	if !full.Equal(x) {
		return false
	}
	for i := 1; i <= d/2; i++ {
		xi := powX2ExpMod(x, i, f)
		t := new(BPoly).Add(xi, x)
		g := Gcd(t, f)
		if g.Deg() != 0 {
			return false
		}
	}
	return true
}

// FindIrreducible searches for an irreducible polynomial of degree n,
// trying trinomials x^n+x^k+1 (k from n-1 down to 1) before falling back
// to pentanomials x^n+x^k3+x^k2+x^k1+1 (k3>k2>k1), and returns the
// exponent list suitable for NewModulusFromBits. Matches the original
// library's preference for sparse trinomial moduli when one exists.
func FindIrreducible(n int) []int {
	for k := 1; k < n; k++ {
		cand := NewBPolyBits([]int{n, k, 0})
		if cand.IsIrreducible() {
			return []int{n, k, 0}
		}
	}
	for k3 := n - 1; k3 >= 3; k3-- {
		for k2 := k3 - 1; k2 >= 2; k2-- {
			for k1 := k2 - 1; k1 >= 1; k1-- {
				cand := NewBPolyBits([]int{n, k3, k2, k1, 0})
				if cand.IsIrreducible() {
					return []int{n, k3, k2, k1, 0}
				}
			}
		}
	}
	return nil
}
