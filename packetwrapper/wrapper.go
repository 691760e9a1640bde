package packetwrapper

import (
	"encoding/binary"
	"io"

	"github.com/sshlab/cryptocore/xlog"
)

var log = xlog.Default().Module("packetwrapper")

// Wrapper is the PacketWrapper state of spec §3: an owned transport, the
// three buffers (incoming, outgoing, outgoingPacket scratch), the state
// flags, and the callback set.
type Wrapper struct {
	transport Transport
	cfg       Config

	incoming       []byte
	outgoing       []byte
	outgoingPacket []byte

	canReceive       bool
	incomingEOF      bool
	outgoingEOF      bool
	sendBlocked      bool
	destroyPending   bool
	cannotDestroy    bool
	destroyRequested bool
	shortcircuited   bool
	eofDelivered     bool
	destroyed        bool

	shortcircuitUpStream *shortcircuitRequest

	onReceivedPacket func(pktType byte, payload []byte)
	onReceivedEOF    func()
	onCanSend        func()
}

type shortcircuitRequest struct {
	up   bool
	peer *Wrapper
}

// New wraps transport in a Wrapper with the initial state of spec §4.7:
// can_receive=true, every eof/pending/shortcircuit flag false.
func New(transport Transport, cfg Config, onReceivedPacket func(byte, []byte), onReceivedEOF func(), onCanSend func()) *Wrapper {
	w := &Wrapper{
		transport:        transport,
		cfg:              cfg,
		canReceive:       true,
		onReceivedPacket: onReceivedPacket,
		onReceivedEOF:    onReceivedEOF,
		onCanSend:        onCanSend,
	}
	transport.SetCallback(w.onReadable, w.onWritable, w.onDisconnected)
	return w
}

// Send encodes (type, payload) as u32 length||u8 type||payload and
// appends it to outgoing, unless doing so would exceed BufferMax — in
// which case the packet is silently dropped with a diagnostic log, per
// spec §4.7/§7 ("Buffer overflow on send is a silent drop"). Re-arms the
// transport's writable callback.
func (w *Wrapper) Send(pktType byte, payload []byte) {
	if w.destroyed || w.outgoingEOF {
		return
	}
	frameLen := 1 + len(payload)
	if frameLen > maxFrameBytes {
		panic("packetwrapper: outgoing frame exceeds the maximum frame size")
	}

	total := 4 + frameLen
	if len(w.outgoing)+total > w.cfg.BufferMax {
		log.Warn("dropping outgoing packet: buffer full", "type", pktType, "len", len(payload))
		return
	}

	w.outgoingPacket = w.outgoingPacket[:0]
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(frameLen))
	w.outgoingPacket = append(w.outgoingPacket, hdr[:]...)
	w.outgoingPacket = append(w.outgoingPacket, pktType)
	w.outgoingPacket = append(w.outgoingPacket, payload...)

	w.outgoing = append(w.outgoing, w.outgoingPacket...)
	w.tryWrite()
}

// SendEOF sets outgoing_eof; if outgoing is already empty the
// transport-level EOF is flushed immediately, otherwise it is deferred
// until the buffer drains.
func (w *Wrapper) SendEOF() {
	if w.destroyed || w.outgoingEOF {
		return
	}
	w.outgoingEOF = true
	if len(w.outgoing) == 0 {
		w.transport.OutputEOF()
	}
}

// CanSend reports whether more bytes may be queued without hitting
// BufferMax's hysteresis band; if false it marks send_blocked so the
// next write-drained event re-checks and fires onCanSend.
func (w *Wrapper) CanSend() bool {
	ok := len(w.outgoing) < w.cfg.BufferMax-w.cfg.AllowAfterBufferFull
	if !ok {
		w.sendBlocked = true
	}
	return ok
}

// SetCanReceive toggles receive eligibility; enabling re-arms reading.
func (w *Wrapper) SetCanReceive(flag bool) {
	w.canReceive = flag
	if flag {
		w.onReadable()
	}
}

func (w *Wrapper) readEligible() bool {
	return w.canReceive && !w.incomingEOF && !w.destroyPending && w.shortcircuitUpStream == nil
}

// onReadable is the transport's readable callback: while eligible, read
// the 4-byte header, then the body, deliver one full packet per read
// event and clear incoming; an EOF from the transport fires
// received_eof exactly once.
func (w *Wrapper) onReadable() {
	if !w.readEligible() {
		return
	}
	buf := make([]byte, 4096)
	for w.readEligible() {
		n, err := w.transport.Read(buf)
		if n > 0 {
			w.incoming = append(w.incoming, buf[:n]...)
			w.drainIncoming()
		}
		if err == ErrWouldBlock {
			return
		}
		if err == io.EOF {
			w.incomingEOF = true
			w.deliverEOF()
			return
		}
		if err != nil {
			w.onDisconnected(err)
			return
		}
		if n == 0 {
			return
		}
	}
}

// drainIncoming delivers every fully-buffered frame currently sitting in
// incoming. The consumed prefix (and the frame just dispatched) is
// trimmed from incoming before the callback runs, so a Shortcircuit
// issued from within it sees exactly the not-yet-parsed tail.
func (w *Wrapper) drainIncoming() {
	for {
		if len(w.incoming) < 4 {
			return
		}
		frameLen := binary.BigEndian.Uint32(w.incoming[:4])
		if int(frameLen) > maxFrameBytes {
			panic("packetwrapper: incoming frame exceeds the maximum frame size")
		}
		if len(w.incoming) < 4+int(frameLen) {
			return
		}
		if frameLen == 0 {
			panic("packetwrapper: incoming frame claims zero length (missing type byte)")
		}
		pktType := w.incoming[4]
		payload := append([]byte(nil), w.incoming[5:4+frameLen]...)
		w.incoming = w.incoming[4+frameLen:]

		cannotDestroy := w.cannotDestroy
		w.cannotDestroy = true
		if w.onReceivedPacket != nil {
			w.onReceivedPacket(pktType, payload)
		}
		w.cannotDestroy = cannotDestroy
		w.afterCallback()

		if w.shortcircuitUpStream != nil {
			return
		}
	}
}

func (w *Wrapper) deliverEOF() {
	if w.eofDelivered {
		return
	}
	w.eofDelivered = true
	cannotDestroy := w.cannotDestroy
	w.cannotDestroy = true
	if w.onReceivedEOF != nil {
		w.onReceivedEOF()
	}
	w.cannotDestroy = cannotDestroy
	w.afterCallback()
}

// onWritable is the transport's writable callback: drains outgoing;
// on drain-to-empty it clears send_blocked (firing onCanSend), flushes
// a deferred EOF, commits a pending shortcircuit, or performs a deferred
// destroy, per spec §4.7.
func (w *Wrapper) onWritable() {
	w.tryWrite()
}

func (w *Wrapper) tryWrite() {
	for len(w.outgoing) > 0 {
		n, err := w.transport.Write(w.outgoing)
		if n > 0 {
			w.outgoing = w.outgoing[n:]
		}
		if err == ErrWouldBlock {
			return
		}
		if err != nil {
			w.onDisconnected(err)
			return
		}
		if n == 0 {
			return
		}
	}

	if len(w.outgoing) != 0 {
		return
	}
	if w.sendBlocked {
		w.sendBlocked = false
		if w.onCanSend != nil {
			w.onCanSend()
		}
	}
	if w.outgoingEOF {
		w.transport.OutputEOF()
	}
	if w.shortcircuitUpStream != nil {
		w.commitShortcircuit()
	}
	if w.destroyPending {
		w.destroyNow()
	}
}

// onDisconnected is the transport's terminal callback: a transport
// error surfaces as a disconnect, delivered as received_eof after
// flushing whatever was already framed (spec §7: TransportDisconnect).
func (w *Wrapper) onDisconnected(err error) {
	w.incomingEOF = true
	w.deliverEOF()
}

// afterCallback honours a destroy() issued from within the callback
// that just returned, per spec §4.7's "destroys issued during a
// callback are queued".
func (w *Wrapper) afterCallback() {
	if w.destroyRequested {
		w.destroyRequested = false
		w.Destroy()
	}
}

// Destroy tears the wrapper down: if called from within a user
// callback it is queued and honoured on return; otherwise it destroys
// immediately if outgoing is empty, or defers until drained.
func (w *Wrapper) Destroy() {
	if w.destroyed || w.destroyPending {
		return
	}
	if w.cannotDestroy {
		w.destroyRequested = true
		return
	}
	if len(w.outgoing) == 0 {
		w.destroyNow()
		return
	}
	w.destroyPending = true
}

func (w *Wrapper) destroyNow() {
	w.destroyed = true
	w.destroyPending = false
	w.onReceivedPacket = nil
	w.onReceivedEOF = nil
	w.onCanSend = nil
}

// IsDestroyed reports whether destroyNow has run.
func (w *Wrapper) IsDestroyed() bool { return w.destroyed }
