package packetwrapper

// Shortcircuit implements spec §4.7's packet-forwarding shortcut: called
// from within a received_packet callback, it hands the just-parsed
// frame's remaining incoming bytes directly to peer's outgoing path (up
// == true) without re-encoding through Send, bypassing this wrapper's
// own framing for the rest of the current read event. It must be called
// from within a received_packet callback; calling it at any other time
// returns ErrShortcircuitOutsideCallback.
//
// The handoff commits immediately if this wrapper's outgoing buffer is
// already empty, otherwise it is deferred until the buffer drains so
// that already-queued bytes are not reordered behind the shortcircuited
// stream.
func (w *Wrapper) Shortcircuit(up bool, peer *Wrapper) error {
	if !w.cannotDestroy {
		return ErrShortcircuitOutsideCallback
	}
	w.shortcircuitUpStream = &shortcircuitRequest{up: up, peer: peer}
	w.shortcircuited = true
	if len(w.outgoing) == 0 {
		w.commitShortcircuit()
	}
	return nil
}

// commitShortcircuit performs the deferred splice once outgoing has
// drained: remaining unparsed bytes in incoming are handed to the peer
// wrapper's raw transport write path, and this wrapper stops reading
// its own transport until the caller re-enables it via SetCanReceive.
func (w *Wrapper) commitShortcircuit() {
	req := w.shortcircuitUpStream
	w.shortcircuitUpStream = nil
	if req == nil || req.peer == nil {
		return
	}
	if len(w.incoming) > 0 {
		req.peer.outgoing = append(req.peer.outgoing, w.incoming...)
		w.incoming = w.incoming[:0]
		req.peer.tryWrite()
	}
}
