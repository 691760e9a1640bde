package packetwrapper

// maxFrameBytes is the fatal oversize-frame ceiling of spec §4.7: a
// length prefix claiming more than this many bytes aborts the
// connection rather than being reported as an error.
const maxFrameBytes = 100_000_000

// Config holds the in-process tuning knobs this layer exposes; there is
// no CLI/env/file configuration at this layer (spec §6).
type Config struct {
	// BufferMax is the total buffered-outgoing-bytes ceiling (spec
	// §3/§4.7: "BUFFER_MAX ~= 50000"); Send silently drops a packet
	// that would push outgoing past this.
	BufferMax int

	// AllowAfterBufferFull is the hysteresis band CanSend uses before
	// re-reporting sendable once BufferMax was hit: CanSend is true
	// iff buffered < BufferMax - AllowAfterBufferFull.
	AllowAfterBufferFull int
}

// DefaultConfig matches the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		BufferMax:            50_000,
		AllowAfterBufferFull: 4096,
	}
}
