package bigint

import "errors"

// Sentinel errors for the non-fatal failure kinds a caller must handle
// (spec §7: ArithmeticFailure, DecodeError). Division by zero, negative
// exponents to PowMod, and Montgomery setup on an even modulus are
// programming errors (spec §7: Fatal) and panic instead.
var (
	// ErrNotInvertible is returned by Invert when gcd(a, m) != 1.
	ErrNotInvertible = errors.New("bigint: value has no inverse modulo m")

	// ErrNonResidue is returned by ModSqrt when a is not a quadratic
	// residue modulo p, or the Kronecker precondition fails.
	ErrNonResidue = errors.New("bigint: not a quadratic residue")

	// ErrParse is returned by ParseText on malformed input.
	ErrParse = errors.New("bigint: malformed numeral")

	// ErrEvenModulus is returned by NewMontgomery when asked to build a
	// Montgomery context for an even or non-positive modulus.
	ErrEvenModulus = errors.New("bigint: montgomery modulus must be odd and > 2")
)
