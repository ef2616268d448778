package protocol

import "errors"

// Decode errors. Each maps to a metric label; none of them is fatal to a
// receive loop.
var (
	// ErrShortPacket is returned when a packet is smaller than its
	// declared type requires.
	ErrShortPacket = errors.New("short packet")

	// ErrBadVersion is returned on a protocol version mismatch.
	ErrBadVersion = errors.New("bad protocol version")

	// ErrBadChecksum is returned when the decision checksum does not
	// match the payload.
	ErrBadChecksum = errors.New("bad checksum")

	// ErrUnknownTag is returned for unrecognized message type tags.
	ErrUnknownTag = errors.New("unknown message tag")
)
