package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rc4"

	"golang.org/x/crypto/blowfish"
)

// Mode selects how a block cipher's raw block transform is chained, per
// spec §4.6's mode dispatch.
type Mode int

const (
	ModeStream Mode = iota // stream cipher or the "none" passthrough
	ModeECB
	ModeCBC
	ModeCFB
	ModeOFB
	ModeCTR
)

// Descriptor is the algorithm vtable of spec §3/§4.6:
// {name, block_bytes, default_key_bytes, ctxsize, init, transform,
// set_iv, get_iv}. newBlock/newStream stand in for ctxsize+init (Go's
// crypto/cipher constructors already allocate and initialize the
// context in one call); transform/set_iv/get_iv are supplied by the
// Instance built from this descriptor rather than stored here.
type Descriptor struct {
	Name            string
	BlockBytes      int
	DefaultKeyBytes int
	Mode            Mode

	newBlock  func(key []byte) (cipher.Block, error)
	newStream func(key []byte) (cipher.Stream, error)
}

var registry = map[string]*Descriptor{}

var aliasTable = map[string]string{
	"des":      "des-cbc",
	"3des":     "3des-cbc",
	"blowfish": "blowfish-cbc",
	"rc4":      "arcfour",
	"aes":      "aes128-cbc",
	"aes128":   "aes128-cbc",
	"aes192":   "aes192-cbc",
	"aes256":   "aes256-cbc",
}

func register(d *Descriptor) {
	registry[d.Name] = d
}

func init() {
	for _, keyBytes := range []int{16, 24, 32} {
		kb := keyBytes
		newAES := func(key []byte) (cipher.Block, error) { return aes.NewCipher(key) }
		for _, m := range []struct {
			suffix string
			mode   Mode
		}{
			{"cbc", ModeCBC}, {"cfb", ModeCFB}, {"ofb", ModeOFB},
			{"ctr", ModeCTR}, {"ecb", ModeECB},
		} {
			register(&Descriptor{
				Name:            aesName(kb) + "-" + m.suffix,
				BlockBytes:      aes.BlockSize,
				DefaultKeyBytes: kb,
				Mode:            m.mode,
				newBlock:        newAES,
			})
		}
	}

	for _, m := range []struct {
		suffix string
		mode   Mode
	}{{"cbc", ModeCBC}, {"ecb", ModeECB}} {
		register(&Descriptor{
			Name:            "des-" + m.suffix,
			BlockBytes:      des.BlockSize,
			DefaultKeyBytes: 8,
			Mode:            m.mode,
			newBlock:        func(key []byte) (cipher.Block, error) { return des.NewCipher(key) },
		})
		register(&Descriptor{
			Name:            "3des-" + m.suffix,
			BlockBytes:      des.BlockSize,
			DefaultKeyBytes: 24,
			Mode:            m.mode,
			newBlock:        func(key []byte) (cipher.Block, error) { return des.NewTripleDESCipher(key) },
		})
		register(&Descriptor{
			Name:            "blowfish-" + m.suffix,
			BlockBytes:      blowfish.BlockSize,
			DefaultKeyBytes: 16,
			Mode:            m.mode,
			newBlock:        func(key []byte) (cipher.Block, error) { return blowfish.NewCipher(key) },
		})
	}

	register(&Descriptor{
		Name:            "arcfour",
		BlockBytes:      1,
		DefaultKeyBytes: 16,
		Mode:            ModeStream,
		newStream:       func(key []byte) (cipher.Stream, error) { return rc4.NewCipher(key) },
	})

	register(&Descriptor{
		Name:            "none",
		BlockBytes:      1,
		DefaultKeyBytes: 0,
		Mode:            ModeStream,
	})
}

func aesName(keyBytes int) string {
	switch keyBytes {
	case 16:
		return "aes128"
	case 24:
		return "aes192"
	default:
		return "aes256"
	}
}

// Lookup resolves name to a Descriptor: the name table, then the alias
// table, then the name table again, per spec §4.6.
func Lookup(name string) (*Descriptor, error) {
	if d, ok := registry[name]; ok {
		return d, nil
	}
	if canonical, ok := aliasTable[name]; ok {
		if d, ok := registry[canonical]; ok {
			return d, nil
		}
	}
	return nil, ErrUnsupported
}
