package dlpk

import (
	"encoding/binary"

	"github.com/sshlab/cryptocore/bigint"
)

// EncodeParams serialises pm as the tagged union of spec §4.5: tag=1
// carries only the predefined name; tag=0 carries (p, g, q) as
// length-prefixed big-endian integers.
func EncodeParams(pm *Params) []byte {
	if pm.Name != "" {
		out := make([]byte, 1+4+len(pm.Name))
		out[0] = 1
		binary.BigEndian.PutUint32(out[1:], uint32(len(pm.Name)))
		copy(out[5:], pm.Name)
		return out
	}
	out := []byte{0}
	out = appendMpint(out, pm.P)
	out = appendMpint(out, pm.G)
	out = appendMpint(out, pm.Q)
	return out
}

// DecodeParams parses the wire format produced by EncodeParams. For
// tag=1 it returns a Params with only Name set (the caller must resolve
// the predefined name to (p, g, q) itself, a lookup outside this
// package's scope); for tag=0 it interns the parsed (p, g, q) with
// ExponentEntropy 0.
func DecodeParams(buf []byte) (*Params, []byte, error) {
	if len(buf) < 1 {
		return nil, nil, ErrDecodeError
	}
	tag, rest := buf[0], buf[1:]
	switch tag {
	case 1:
		if len(rest) < 4 {
			return nil, nil, ErrDecodeError
		}
		n := binary.BigEndian.Uint32(rest)
		rest = rest[4:]
		if uint32(len(rest)) < n {
			return nil, nil, ErrDecodeError
		}
		return &Params{Name: string(rest[:n])}, rest[n:], nil
	case 0:
		p, rest, err := readMpint(rest)
		if err != nil {
			return nil, nil, err
		}
		g, rest, err := readMpint(rest)
		if err != nil {
			return nil, nil, err
		}
		q, rest, err := readMpint(rest)
		if err != nil {
			return nil, nil, err
		}
		pm, err := Intern(p, g, q, "", 0)
		if err != nil {
			return nil, nil, err
		}
		return pm, rest, nil
	default:
		return nil, nil, ErrDecodeError
	}
}

// appendMpint appends a length-prefixed big-endian integer (an "mpint")
// to buf, per spec §4.5's SSH mpint convention: positive integers whose
// high bit would be set are prefixed with a zero byte, so the magnitude
// can never be mistaken for a negative two's-complement value on the
// wire.
func appendMpint(buf []byte, z *bigint.Z) []byte {
	b := z.Bytes()
	if len(b) > 0 && b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	hdr := make([]byte, 4)
	binary.BigEndian.PutUint32(hdr, uint32(len(b)))
	buf = append(buf, hdr...)
	return append(buf, b...)
}

func readMpint(buf []byte) (*bigint.Z, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, ErrDecodeError
	}
	n := binary.BigEndian.Uint32(buf)
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return nil, nil, ErrDecodeError
	}
	z := new(bigint.Z).SetBytes(buf[:n])
	return z, buf[n:], nil
}

// EncodePublicKey appends y to pm's wire header, per spec §4.5 ("Keys
// append y (public) or y, x (private)").
func EncodePublicKey(pub *PublicKey) []byte {
	out := EncodeParams(pub.Params)
	return appendMpint(out, pub.Y)
}

// EncodePrivateKey appends y, x to pm's wire header.
func EncodePrivateKey(priv *PrivateKey) []byte {
	out := EncodeParams(priv.Params)
	out = appendMpint(out, priv.Y)
	out = appendMpint(out, priv.X)
	return out
}

// DecodePublicKey parses the format produced by EncodePublicKey.
func DecodePublicKey(buf []byte) (*PublicKey, error) {
	pm, rest, err := DecodeParams(buf)
	if err != nil {
		return nil, err
	}
	y, _, err := readMpint(rest)
	if err != nil {
		return nil, err
	}
	return &PublicKey{Params: pm, Y: y}, nil
}

// DecodePrivateKey parses the format produced by EncodePrivateKey.
func DecodePrivateKey(buf []byte) (*PrivateKey, error) {
	pm, rest, err := DecodeParams(buf)
	if err != nil {
		return nil, err
	}
	y, rest, err := readMpint(rest)
	if err != nil {
		return nil, err
	}
	x, _, err := readMpint(rest)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{Params: pm, X: x, Y: y}, nil
}
