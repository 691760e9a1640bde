// Package packetwrapper implements the length-prefixed packet framing
// state machine of spec §4.7: each frame on the wire is a 4-byte
// big-endian length (counting the type byte and payload), a 1-byte
// type, and length-1 payload bytes, framed over an abstract transport
// stream via readable/writable/disconnected callbacks rather than
// blocking I/O (the packet wrapper never itself blocks, per spec §5:
// "Arithmetic and crypto operations are strictly synchronous... only
// [C7's] transport read/write callbacks" suspend).
package packetwrapper

import "errors"

// ErrWouldBlock is returned by Transport.Read/Write when no data is
// currently available/acceptable; the wrapper waits for the
// corresponding callback to fire again.
var ErrWouldBlock = errors.New("packetwrapper: would block")

// ErrAlreadyDestroyed is returned by Send/SendEOF/Destroy after the
// wrapper has been destroyed.
var ErrAlreadyDestroyed = errors.New("packetwrapper: wrapper already destroyed")

// ErrShortcircuitOutsideCallback is returned by Shortcircuit if it is
// called outside a received_packet callback, per spec §4.7.
var ErrShortcircuitOutsideCallback = errors.New("packetwrapper: shortcircuit must be called from within a received-packet callback")
