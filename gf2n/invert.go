package gf2n

// Invert sets e = a^-1 in GF(2^n) and returns e. a must be nonzero.
//
// This is the "almost inverse" algorithm: maintain (f, g, b, c, k) with
// the invariants b*a ≡ f*x^k (mod m) and c*a ≡ g*x^k (mod m), f and g
// starting at a and the modulus polynomial respectively. Each iteration
// first shifts out f's trailing zero bits (dividing f, and correspondingly
// b, by x mod m, bumping k each time), then — once f's constant term is
// set — either swaps (f,b)<->(g,c) when g has lower degree, or XORs g,c
// into f,b. When f reaches 1, b is divided by x a further k times (again
// mod m) to recover a^-1 directly, one bit at a time rather than the
// word-wide-then-partial batching of the original.
func (e *Elt) Invert(a *Elt) *Elt {
	mod := a.mod
	width := mod.words

	f := make([]Word, width)
	copy(f, a.w)
	g := make([]Word, width)
	copy(g, mod.poly)
	b := make([]Word, width)
	b[0] = 1
	c := make([]Word, width)
	k := 0

	for {
		for !isZeroVec(f) && f[0]&1 == 0 {
			shiftRight1InPlace(f)
			if b[0]&1 == 0 {
				shiftRight1InPlace(b)
			} else {
				xorInPlace(b, mod.poly)
				shiftRight1InPlace(b)
			}
			k++
		}
		if degreeVec(f) == 0 {
			break
		}
		if degreeVec(f) < degreeVec(g) {
			f, g = g, f
			b, c = c, b
		}
		xorInPlace(f, g)
		xorInPlace(b, c)
	}

	for i := 0; i < k; i++ {
		divByXInPlace(b, mod)
	}

	e.mod = mod
	out := make([]Word, mod.ElemWords())
	n := len(out)
	if len(b) < n {
		n = len(b)
	}
	copy(out, b[:n])
	e.w = out
	return e
}

func isZeroVec(w []Word) bool {
	for _, x := range w {
		if x != 0 {
			return false
		}
	}
	return true
}

func degreeVec(w []Word) int {
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] != 0 {
			d := 0
			v := w[i]
			for v != 0 {
				d++
				v >>= 1
			}
			return i*wordBits + d - 1
		}
	}
	return -1
}

func shiftRight1InPlace(w []Word) {
	var carry Word
	for i := len(w) - 1; i >= 0; i-- {
		nc := w[i] & 1
		w[i] = (w[i] >> 1) | (carry << (wordBits - 1))
		carry = nc
	}
}

// divByXInPlace divides p by x modulo the field modulus: p's constant
// term must become 0 before the shift, so when it is already odd, m's
// polynomial (whose constant term is always 1 for an irreducible m) is
// XORed in first to clear it.
func divByXInPlace(p []Word, mod *Modulus) {
	if p[0]&1 != 0 {
		xorInPlace(p, mod.poly)
	}
	shiftRight1InPlace(p)
}
