// Package cipher implements the symmetric cipher registry of spec §4.6:
// a static name-to-descriptor table, an alias table, key
// expansion/stretching, and mode dispatch over crypto/cipher's block and
// stream primitives.
package cipher

import "errors"

var (
	// ErrUnsupported is returned by Allocate for an unknown algorithm
	// name, and by SetIV/GetIV when the mode has no IV (ECB, stream).
	ErrUnsupported = errors.New("cipher: unsupported algorithm or operation")

	// ErrKeyTooShort is returned when the supplied key is shorter than
	// the algorithm's default key size and expansion is disabled.
	ErrKeyTooShort = errors.New("cipher: key too short")

	// ErrBlockSize is returned by Transform when the input length is
	// not a multiple of the descriptor's block size.
	ErrBlockSize = errors.New("cipher: input length is not a multiple of the block size")
)
