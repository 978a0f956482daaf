package wire

import "errors"

// Frame-level error kinds (spec §7). These are never fatal to the adapter or
// router that encounters them; they are returned so the caller can log and
// drop, or — for ErrUnknownMessage — still forward the raw bytes.
var (
	// ErrNotAFrame means the buffer did not begin with a recognized magic
	// byte, or was too short to contain a full header.
	ErrNotAFrame = errors.New("wire: not a frame")

	// ErrFailedCRC means the declared length matched but the checksum did
	// not, which usually indicates a dialect mismatch or line noise.
	ErrFailedCRC = errors.New("wire: CRC check failed")

	// ErrUnknownMessage means the envelope parsed but its message id is not
	// present in the active dialect, so the CRC could not be checked (its
	// CRC_EXTRA is unknown). UnpackFrame returns it alongside a Frame with
	// Raw populated and Decoded nil; the frame is still valid for
	// re-broadcast.
	ErrUnknownMessage = errors.New("wire: unknown message id")

	// ErrProtocolUndefined is returned to a local sender asking to pack a
	// message type the dispatcher does not recognize.
	ErrProtocolUndefined = errors.New("wire: message type not defined by dialect")

	// ErrShortPayload means the wire payload, after any V2 truncation
	// recovery, is still shorter than the field layout requires to extract
	// even its first field. This should not happen for a message whose
	// declared length matched on the wire; it exists as a defensive bound
	// for hand-rolled Unpack implementations.
	ErrShortPayload = errors.New("wire: payload shorter than minimum field size")
)
