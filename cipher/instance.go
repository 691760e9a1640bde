package cipher

import "crypto/cipher"

// Instance is the cipher instance of spec §3: (vtable, context). It owns
// its context state and is zeroised on Free.
type Instance struct {
	desc          *Descriptor
	forEncryption bool

	block  cipher.Block
	stream cipher.Stream

	cbcEnc cipher.BlockMode
	cbcDec cipher.BlockMode

	iv  []byte
	key []byte // retained only so Free can zeroise it
}

// Options configures Allocate beyond the raw key bytes.
type Options struct {
	// Expand enables hash-based key stretching (spec §4.6) when key is
	// shorter than the descriptor's DefaultKeyBytes.
	Expand bool
	// ExpandHash names the hashRegistry entry used for expansion;
	// defaults to "sha256".
	ExpandHash string
	// MinExpandedKeyBytes floors the expanded key length (spec §4.6:
	// "or a configured minimum (16)").
	MinExpandedKeyBytes int
	// IV seeds the instance's initial vector for chained modes; a
	// zero IV is used if nil (callers needing a random IV must supply
	// one explicitly — this package does not default to crypto/rand
	// for IVs since reuse/management is a caller-level protocol
	// concern, not this registry's).
	IV []byte
}

// Allocate builds an Instance for name using key, per spec §4.6.
func Allocate(name string, key []byte, forEncryption bool, opts Options) (*Instance, error) {
	d, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	if len(key) < d.DefaultKeyBytes {
		if !opts.Expand {
			return nil, ErrKeyTooShort
		}
		minBytes := opts.MinExpandedKeyBytes
		if minBytes < 16 {
			minBytes = 16
		}
		if d.DefaultKeyBytes > minBytes {
			minBytes = d.DefaultKeyBytes
		}
		hashName := opts.ExpandHash
		if hashName == "" {
			hashName = "sha256"
		}
		key, err = expandKey(hashName, key, minBytes)
		if err != nil {
			return nil, err
		}
	}

	inst := &Instance{desc: d, forEncryption: forEncryption, key: append([]byte(nil), key...)}

	switch {
	case d.Name == "none":
		return inst, nil
	case d.newStream != nil:
		s, err := d.newStream(key)
		if err != nil {
			return nil, err
		}
		inst.stream = s
		return inst, nil
	}

	block, err := d.newBlock(key)
	if err != nil {
		return nil, err
	}
	inst.block = block

	iv := opts.IV
	if iv == nil {
		iv = make([]byte, d.BlockBytes)
	}
	inst.rebuildChain(iv)

	return inst, nil
}

// rebuildChain (re)derives the chaining state (CBC BlockMode or stream
// XORKeyStream state) from inst.block and iv; ECB has no chaining state
// beyond the raw block cipher.
func (inst *Instance) rebuildChain(iv []byte) {
	inst.iv = append([]byte(nil), iv...)
	block := inst.block

	switch inst.desc.Mode {
	case ModeCBC:
		if inst.forEncryption {
			inst.cbcEnc = cipher.NewCBCEncrypter(block, inst.iv)
		} else {
			inst.cbcDec = cipher.NewCBCDecrypter(block, inst.iv)
		}
	case ModeCFB:
		if inst.forEncryption {
			inst.stream = cipher.NewCFBEncrypter(block, inst.iv)
		} else {
			inst.stream = cipher.NewCFBDecrypter(block, inst.iv)
		}
	case ModeOFB:
		inst.stream = cipher.NewOFB(block, inst.iv)
	case ModeCTR:
		inst.stream = cipher.NewCTR(block, inst.iv)
	}
}

// BlockBytes reports the descriptor's block size (1 for stream modes).
func (inst *Instance) BlockBytes() int { return inst.desc.BlockBytes }

// Transform encrypts or decrypts in place, per the mode the instance was
// allocated with. Block modes (all but stream/none) require
// len(buf) % BlockBytes() == 0.
func (inst *Instance) Transform(buf []byte) error {
	switch {
	case inst.desc.Name == "none":
		return nil
	case inst.desc.Mode == ModeECB:
		if len(buf)%inst.desc.BlockBytes != 0 {
			return ErrBlockSize
		}
		bs := inst.desc.BlockBytes
		for off := 0; off+bs <= len(buf); off += bs {
			if inst.forEncryption {
				inst.block.Encrypt(buf[off:off+bs], buf[off:off+bs])
			} else {
				inst.block.Decrypt(buf[off:off+bs], buf[off:off+bs])
			}
		}
		return nil
	case inst.desc.Mode == ModeCBC:
		if len(buf)%inst.desc.BlockBytes != 0 {
			return ErrBlockSize
		}
		if inst.forEncryption {
			inst.cbcEnc.CryptBlocks(buf, buf)
		} else {
			inst.cbcDec.CryptBlocks(buf, buf)
		}
		return nil
	default: // CFB, OFB, CTR, arcfour: stream modes, no block-size constraint
		inst.stream.XORKeyStream(buf, buf)
		return nil
	}
}

// SetIV replaces the instance's IV, rebuilding its chaining state from
// the already-keyed block cipher. ECB and stream-cipher-only
// descriptors (arcfour, none) have no IV, per spec §4.6.
func (inst *Instance) SetIV(iv []byte) error {
	switch inst.desc.Mode {
	case ModeECB, ModeStream:
		return ErrUnsupported
	}
	if len(iv) != inst.desc.BlockBytes {
		return ErrBlockSize
	}
	inst.rebuildChain(iv)
	return nil
}

// GetIV returns the instance's current IV, or ErrUnsupported for ECB
// and stream-cipher-only descriptors.
func (inst *Instance) GetIV() ([]byte, error) {
	switch inst.desc.Mode {
	case ModeECB, ModeStream:
		return nil, ErrUnsupported
	}
	return append([]byte(nil), inst.iv...), nil
}

// Free zeroises the instance's key and IV material.
func (inst *Instance) Free() {
	zero(inst.key)
	zero(inst.iv)
	inst.block = nil
	inst.stream = nil
	inst.cbcEnc = nil
	inst.cbcDec = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
