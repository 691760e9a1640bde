package dlpk

import "github.com/sshlab/cryptocore/bigint"

// PushRandomizer appends a precomputed (k, g^k mod p) pair to pm's LIFO
// stack, per spec §3/§4.5: applications may precompute randomizers
// offline and import them. k must be nonzero and below pm.Q; gk is not
// re-derived from k here (the caller vouches for it, matching the
// "import" half of the spec's import/generate split).
func (pm *Params) PushRandomizer(k, gk *bigint.Z) {
	pm.stack = append(pm.stack, randomizer{K: k.Clone(), Gk: gk.Clone()})
}

// popRandomizer pops the top of the stack, or draws a fresh pair via
// UniformModBoundedEntropy/PowMod if the stack is empty.
func (pm *Params) popRandomizer() (*bigint.Z, *bigint.Z, error) {
	if n := len(pm.stack); n > 0 {
		r := pm.stack[n-1]
		pm.stack = pm.stack[:n-1]
		return r.K, r.Gk, nil
	}
	k, err := UniformModBoundedEntropy(pm.Q, pm.ExponentEntropy)
	if err != nil {
		return nil, nil, err
	}
	gk := new(bigint.Z).PowMod(pm.G, k, pm.P)
	return k, gk, nil
}

// RandomizerDepth reports the number of precomputed randomizers
// currently on the stack, for tests and diagnostics.
func (pm *Params) RandomizerDepth() int { return len(pm.stack) }
