// Package dlpk implements the discrete-log public-key layer: DL
// parameter interning, a per-parameter randomizer stack, DSA sign/verify,
// and Diffie-Hellman generate/final (including unified-DH), all built on
// top of bigint.Z.
package dlpk

import "errors"

var (
	// ErrInvalidParams is returned when p, g, or q fail the structural
	// checks required to build a Params (non-prime p/q, g outside
	// (1, p)).
	ErrInvalidParams = errors.New("dlpk: invalid parameters")

	// ErrInvalidSignature is returned by Verify when r or s are out of
	// range, or the recomputed v does not match r.
	ErrInvalidSignature = errors.New("dlpk: invalid signature")

	// ErrDecodeError is returned by the wire decoders on a malformed
	// buffer; the destination is left unmodified.
	ErrDecodeError = errors.New("dlpk: malformed encoding")

	// ErrZeroRandomizer is returned internally when a freshly drawn k
	// is zero; callers never see it, Sign/DH retry instead.
	ErrZeroRandomizer = errors.New("dlpk: randomizer is zero")
)
