package dlpk

import "github.com/sshlab/cryptocore/bigint"

// PrivateKey is (P_DL, x, y) of spec §3; x is secret, y = g^x mod p is
// public. PublicKey is the same pair without x.
type PrivateKey struct {
	Params *Params
	X, Y   *bigint.Z
}

// PublicKey is the public half of a PrivateKey, sharing the same
// Params by reference.
type PublicKey struct {
	Params *Params
	Y      *bigint.Z
}

// GenerateKey draws a fresh private key under pm: x is a uniform
// exponent in [1, q), y = g^x mod p.
func GenerateKey(pm *Params) (*PrivateKey, error) {
	x, err := UniformMod(pm.Q)
	if err != nil {
		return nil, err
	}
	y := new(bigint.Z).PowMod(pm.G, x, pm.P)
	return &PrivateKey{Params: pm, X: x, Y: y}, nil
}

// Public returns the PublicKey half of k.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{Params: k.Params, Y: k.Y}
}

// Sign computes a DSA signature over digest (already reduced to the
// hash's digest length, per spec §4.5): e = digest mod q; draw (k, r' =
// g^k mod p) from the randomizer stack or fresh; r = r' mod q, retry on
// r=0; s = k^-1*(e + x*r) mod q, retry on s=0. The signature is r || s,
// each left-padded to byte_size(q).
func (priv *PrivateKey) Sign(digest []byte) ([]byte, error) {
	pm := priv.Params
	e := new(bigint.Z).SetBytes(digest)
	e.Mod(e, pm.Q)

	for {
		k, rPrime, err := pm.popRandomizer()
		if err != nil {
			return nil, err
		}
		r := new(bigint.Z).Mod(rPrime, pm.Q)
		if r.IsZero() {
			continue
		}

		kInv, ok := new(bigint.Z).Invert(k, pm.Q)
		if !ok {
			continue
		}
		xr := new(bigint.Z).Mul(priv.X, r)
		s := new(bigint.Z).Add(e, xr)
		s.Mod(s, pm.Q)
		s.Mul(s, kInv)
		s.Mod(s, pm.Q)
		if s.IsZero() {
			continue
		}

		out := make([]byte, 2*pm.qBytes)
		r.FillBytes(out[:pm.qBytes])
		s.FillBytes(out[pm.qBytes:])
		return out, nil
	}
}

// Verify checks sig against digest under pub: reject r, s outside
// (0, q); e = digest mod q; w = s^-1 mod q; u1 = e*w mod q; u2 = r*w mod
// q; v = (g^u1 * y^u2 mod p) mod q; accept iff v == r.
func (pub *PublicKey) Verify(digest, sig []byte) error {
	pm := pub.Params
	if len(sig) != 2*pm.qBytes {
		return ErrInvalidSignature
	}
	r := new(bigint.Z).SetBytes(sig[:pm.qBytes])
	s := new(bigint.Z).SetBytes(sig[pm.qBytes:])
	zero := bigint.NewInt(0)
	if r.Cmp(zero) <= 0 || r.Cmp(pm.Q) >= 0 || s.Cmp(zero) <= 0 || s.Cmp(pm.Q) >= 0 {
		return ErrInvalidSignature
	}

	e := new(bigint.Z).SetBytes(digest)
	e.Mod(e, pm.Q)

	w, ok := new(bigint.Z).Invert(s, pm.Q)
	if !ok {
		return ErrInvalidSignature
	}
	u1 := new(bigint.Z).Mul(e, w)
	u1.Mod(u1, pm.Q)
	u2 := new(bigint.Z).Mul(r, w)
	u2.Mod(u2, pm.Q)

	gu1 := new(bigint.Z).PowMod(pm.G, u1, pm.P)
	yu2 := new(bigint.Z).PowMod(pub.Y, u2, pm.P)
	v := new(bigint.Z).Mul(gu1, yu2)
	v.Mod(v, pm.P)
	v.Mod(v, pm.Q)

	if v.Cmp(r) != 0 {
		return ErrInvalidSignature
	}
	return nil
}
