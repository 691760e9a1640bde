package dlpk

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/sshlab/cryptocore/bigint"
)

// primalityRand feeds IsProbablePrime's witness selection. Witness choice
// need not be cryptographically strong (bigint.IsProbablePrime's own
// doc comment says as much) but math/rand.Rand requires a non-nil
// instance; seed it once from the OS CSPRNG so repeated process runs
// don't share a witness sequence.
var primalityRand = rand.New(rand.NewSource(seedFromOS()))

func seedFromOS() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 1
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

// Params is the DL parameter set P_DL of spec §3: (p, g, q) with p, q
// prime and g a generator of the order-q subgroup of (Z/pZ)*. It is
// shared by reference count between every key built from it.
type Params struct {
	P, G, Q *bigint.Z

	// Name tags a predefined parameter set (tag=1 on the wire); empty
	// means the parameters were carried explicitly (tag=0).
	Name string

	// ExponentEntropy bounds the byte length of freshly drawn
	// exponents (0 means unbounded, draw the full [0, q) range).
	ExponentEntropy int

	pBytes, qBytes int

	refCount int
	stack    []randomizer

	hash uint64
}

type randomizer struct {
	K  *bigint.Z
	Gk *bigint.Z
}

// registry is the process-wide interning table of spec §4.5, keyed by a
// content hash of (p, g, q, exponent_entropy) with an equality check on
// collision (per the original's documented linear-scan-with-refcount
// semantics, backed here by a map for lookup speed rather than an O(n)
// scan).
var registry = map[uint64][]*Params{}

func paramHash(p, g, q *bigint.Z, entropy int) uint64 {
	h := fnv.New64a()
	h.Write(p.Bytes())
	h.Write([]byte{0})
	h.Write(g.Bytes())
	h.Write([]byte{0})
	h.Write(q.Bytes())
	h.Write([]byte{0, byte(entropy), byte(entropy >> 8)})
	return h.Sum64()
}

func sameParams(a *Params, p, g, q *bigint.Z, entropy int) bool {
	return a.ExponentEntropy == entropy && a.P.Cmp(p) == 0 && a.G.Cmp(g) == 0 && a.Q.Cmp(q) == 0
}

// Intern builds or finds the canonical Params for (p, g, q, name,
// exponentEntropy). A structural match against an existing registry
// entry increments its reference count and returns it, discarding the
// candidate; otherwise a new entry is created with refCount 1 and
// inserted.
//
// p and q must be prime (checked with a Miller-Rabin witness count
// fixed at 40, matching the fixed-iteration-count convention of
// bigint.NextPrime's callers) and g must lie in (1, p).
func Intern(p, g, q *bigint.Z, name string, exponentEntropy int) (*Params, error) {
	if p.Sign() <= 0 || q.Sign() <= 0 || g.Cmp(bigint.NewInt(1)) <= 0 || g.Cmp(p) >= 0 {
		return nil, ErrInvalidParams
	}
	if !p.IsProbablePrime(40, primalityRand) || !q.IsProbablePrime(40, primalityRand) {
		return nil, ErrInvalidParams
	}

	h := paramHash(p, g, q, exponentEntropy)
	for _, cand := range registry[h] {
		if sameParams(cand, p, g, q, exponentEntropy) {
			cand.refCount++
			return cand, nil
		}
	}

	pm := &Params{
		P: p.Clone(), G: g.Clone(), Q: q.Clone(),
		Name:            name,
		ExponentEntropy: exponentEntropy,
		pBytes:          p.ByteSize(),
		qBytes:          q.ByteSize(),
		refCount:        1,
		hash:            h,
	}
	registry[h] = append(registry[h], pm)
	return pm, nil
}

// Release decrements pm's reference count; at zero it is unlinked from
// the registry and its randomizer stack is cleared.
func Release(pm *Params) {
	pm.refCount--
	if pm.refCount > 0 {
		return
	}
	bucket := registry[pm.hash]
	for i, cand := range bucket {
		if cand == pm {
			registry[pm.hash] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(registry[pm.hash]) == 0 {
		delete(registry, pm.hash)
	}
	pm.stack = nil
}

// RefCount reports the current reference count, for tests and
// diagnostics.
func (pm *Params) RefCount() int { return pm.refCount }
