package dlpk

import (
	crand "crypto/rand"

	"github.com/sshlab/cryptocore/bigint"
)

// UniformMod draws a cryptographically strong integer in [1, q) by
// rejection sampling full-width bytes against q's bit length, per
// spec §6: "the implementation must be cryptographically strong" —
// bigint's own RandBelow is explicitly unsuitable here.
func UniformMod(q *bigint.Z) (*bigint.Z, error) {
	if q.Sign() <= 0 {
		return nil, ErrInvalidParams
	}
	bitLen := q.BitLen()
	byteLen := (bitLen + 7) / 8
	var mask byte = 0xff
	if m := uint(bitLen % 8); m != 0 {
		mask = byte(1<<m) - 1
	}
	buf := make([]byte, byteLen)
	for {
		if _, err := crand.Read(buf); err != nil {
			return nil, err
		}
		buf[0] &= mask
		z := new(bigint.Z).SetBytes(buf)
		if z.Cmp(q) < 0 && !z.IsZero() {
			return z, nil
		}
	}
}

// UniformModBoundedEntropy draws a value in [1, q) from only
// entropyBytes bytes of randomness, reduced mod q: used for
// offline-precomputable randomizers where the full range of q is not
// needed, per spec §4.5 ("optionally truncated to exponent_entropy
// bytes"). entropyBytes <= 0 falls back to the full-range UniformMod.
func UniformModBoundedEntropy(q *bigint.Z, entropyBytes int) (*bigint.Z, error) {
	if entropyBytes <= 0 {
		return UniformMod(q)
	}
	buf := make([]byte, entropyBytes)
	for {
		if _, err := crand.Read(buf); err != nil {
			return nil, err
		}
		raw := new(bigint.Z).SetBytes(buf)
		k := new(bigint.Z).Mod(raw, q)
		if !k.IsZero() {
			return k, nil
		}
	}
}
