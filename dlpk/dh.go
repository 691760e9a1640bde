package dlpk

import "github.com/sshlab/cryptocore/bigint"

// Exchange holds the local half of a Diffie-Hellman exchange: the
// secret exponent k and its public value e = g^k mod p, per spec §4.5
// ("generate: produce (k, e = g^k mod p) ... return the linearised e
// and a handle holding k").
type Exchange struct {
	Params *Params
	k      *bigint.Z
	E      *bigint.Z
}

// Generate starts a DH exchange under pm, drawing k from pm's
// randomizer stack or fresh.
func Generate(pm *Params) (*Exchange, error) {
	k, e, err := pm.popRandomizer()
	if err != nil {
		return nil, err
	}
	return &Exchange{Params: pm, k: k, E: e}, nil
}

// Final computes the shared secret (peerE mod p)^k mod p, left-padded
// to byte_size(p).
func (ex *Exchange) Final(peerE *bigint.Z) []byte {
	base := new(bigint.Z).Mod(peerE, ex.Params.P)
	shared := new(bigint.Z).PowMod(base, ex.k, ex.Params.P)
	out := make([]byte, ex.Params.pBytes)
	shared.FillBytes(out)
	return out
}

// UnifiedFinal computes the unified-DH shared secret: the plain DH
// value concatenated with peerY^x mod p, where x is the caller's own
// long-term private exponent and peerY is the peer's long-term public
// value, per spec §4.5 ("additionally multiplies by peer_y^x mod p and
// concatenates both field elements").
func (ex *Exchange) UnifiedFinal(peerE *bigint.Z, x *bigint.Z, peerY *bigint.Z) []byte {
	plain := ex.Final(peerE)
	long := new(bigint.Z).PowMod(peerY, x, ex.Params.P)
	longBytes := make([]byte, ex.Params.pBytes)
	long.FillBytes(longBytes)
	return append(plain, longBytes...)
}
