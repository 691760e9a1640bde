package bigint

import "math/rand"

// smallPrimes is the table of small-prime moduli NextPrime sieves
// candidates against before committing to a full probable-primality
// test, per spec §4.1.
var smallPrimes = []uint64{
	3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67,
	71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139,
	149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
	227, 229, 233, 239, 241, 251,
}

// IsProbablePrime reports whether n is probably prime: a Fermat test to
// base 2 followed by k Miller-Rabin trials with word-sized random bases
// drawn from rnd, per spec §4.1. rnd need not be cryptographically
// strong for this use (primality testing, not secret generation).
func (n *Z) IsProbablePrime(k int, rnd *rand.Rand) bool {
	if n.Sign() <= 0 {
		return false
	}
	if n.Cmp(NewInt(2)) == 0 || n.Cmp(NewInt(3)) == 0 {
		return true
	}
	if !n.IsOdd() {
		return false
	}
	for _, p := range smallPrimes {
		pz := NewUint(p)
		if n.Cmp(pz) == 0 {
			return true
		}
		var r Z
		r.Mod(n, pz)
		if r.IsZero() {
			return false
		}
	}

	two := NewInt(2)
	if !fermatTest(n, two) {
		return false
	}
	for i := 0; i < k; i++ {
		a := randBelow(rnd, new(Z).Sub(n, NewInt(3)))
		a.Add(a, NewInt(2)) // a in [2, n-2]
		if !millerRabinWitness(n, a) {
			return false
		}
	}
	return true
}

// fermatTest reports whether a^(n-1) == 1 (mod n).
func fermatTest(n, a *Z) bool {
	nm1 := new(Z).Sub(n, NewInt(1))
	r := new(Z).PowMod(a, nm1, n)
	return r.Cmp(NewInt(1)) == 0
}

// millerRabinWitness reports whether a fails to demonstrate n composite
// (true means "n still looks prime to this witness").
func millerRabinWitness(n, a *Z) bool {
	nm1 := new(Z).Sub(n, NewInt(1))
	d := nm1.Clone()
	s := 0
	for d.IsOdd() == false {
		d.Rsh(d, 1)
		s++
	}
	x := new(Z).PowMod(a, d, n)
	one := NewInt(1)
	if x.Cmp(one) == 0 || x.Cmp(nm1) == 0 {
		return true
	}
	for i := 0; i < s-1; i++ {
		x.Mul(x, x)
		x.Mod(x, n)
		if x.Cmp(nm1) == 0 {
			return true
		}
		if x.Cmp(one) == 0 {
			return false
		}
	}
	return false
}

// randBelow returns a pseudo-random value in [0, limit) using rnd. Not
// suitable for cryptographic use (spec §9: "ssh_mp_word_rand ... is
// explicitly not cryptographically strong").
func randBelow(rnd *rand.Rand, limit *Z) *Z {
	if limit.Sign() <= 0 {
		return NewInt(0)
	}
	bl := limit.BitLen()
	for {
		cand := randBits(rnd, bl)
		if cand.Cmp(limit) < 0 {
			return cand
		}
	}
}

func randBits(rnd *rand.Rand, bits int) *Z {
	if bits <= 0 {
		return NewInt(0)
	}
	nw := (bits + wordBits - 1) / wordBits
	abs := make([]Word, nw)
	for i := range abs {
		abs[i] = Word(rnd.Uint64())
	}
	extra := nw*wordBits - bits
	if extra > 0 {
		abs[nw-1] &= wordMask >> uint(extra)
	}
	z := &Z{abs: abs}
	return z.trim()
}

// NextPrime returns the smallest probable prime strictly greater than
// start. For start with fewer than 16 bits, exhaustive trial division
// is used; otherwise a wheel of small-prime moduli is maintained and
// the candidate offset is advanced in steps of 2, bounded at
// d < 2^20, per spec §4.1.
func NextPrime(start *Z, rnd *rand.Rand) *Z {
	if start.BitLen() < 16 {
		n := new(Z).Add(start, NewInt(1))
		for !n.IsProbablePrime(20, rnd) {
			n.Add(n, NewInt(1))
		}
		return n
	}

	cand := new(Z).Add(start, NewInt(1))
	if !cand.IsOdd() {
		cand.Add(cand, NewInt(1))
	}

	mods := make([]uint64, len(smallPrimes))
	for i, p := range smallPrimes {
		var r Z
		r.Mod(cand, NewUint(p))
		mods[i] = r.Uint64()
	}

	for d := 0; d < 1<<20; d++ {
		ok := true
		for i, p := range smallPrimes {
			if mods[i] == 0 {
				ok = false
			}
			mods[i] += 2
			for mods[i] >= p {
				mods[i] -= p
			}
		}
		if ok && cand.IsProbablePrime(20, rnd) {
			return cand.Clone()
		}
		cand.Add(cand, NewInt(2))
	}
	panic("bigint: NextPrime: search bound exceeded")
}
