// Package transport implements the connection adapters of spec.md §4.3/§6:
// udpin, udpout, tcpout, and serial, plus a read-only websocket mirror for
// debugging. Stream-based transports (serial, tcpout) don't deliver
// datagram-aligned frames, so they share frameDecoder, a byte-at-a-time
// resync state machine grounded on the teacher's Fusain packet decoder.
package transport

import (
	"github.com/brindlebrook/mavrelay/internal/wire"
)

type decoderState int

const (
	decodeIdle decoderState = iota
	decodeHeader
	decodePayload
	decodeCRC
)

// frameDecoder resyncs a byte stream to MAVLink frame boundaries one byte
// at a time. A malformed or interrupted frame simply drops back to
// decodeIdle and starts scanning for the next magic byte, the same
// recovery the teacher's Decoder.DecodeByte uses on a CRC mismatch or
// framing error.
type frameDecoder struct {
	dispatcher wire.Dispatcher

	state      decoderState
	raw        []byte
	headerLen  int
	payloadLen int
}

func newFrameDecoder(dispatcher wire.Dispatcher) *frameDecoder {
	return &frameDecoder{dispatcher: dispatcher}
}

func (d *frameDecoder) reset() {
	d.state = decodeIdle
	d.raw = d.raw[:0]
}

// decodeByte feeds one stream byte in. It returns (nil, nil) while a frame
// is still being accumulated, (frame, err) once a full envelope has been
// read (err is nil, ErrUnknownMessage, or ErrFailedCRC — never
// ErrNotAFrame, since the decoder only calls UnpackFrame once it has
// already validated the declared length against a real magic byte).
func (d *frameDecoder) decodeByte(b byte) (*wire.Frame, error) {
	switch d.state {
	case decodeIdle:
		switch b {
		case wire.MagicV1:
			d.raw = append(d.raw[:0], b)
			d.headerLen = 5
			d.state = decodeHeader
		case wire.MagicV2:
			d.raw = append(d.raw[:0], b)
			d.headerLen = 9
			d.state = decodeHeader
		}
		return nil, nil

	case decodeHeader:
		d.raw = append(d.raw, b)
		if len(d.raw) != 1+d.headerLen {
			return nil, nil
		}
		d.payloadLen = int(d.raw[1])
		d.state = decodePayload
		if d.payloadLen == 0 {
			d.state = decodeCRC
		}
		return nil, nil

	case decodePayload:
		d.raw = append(d.raw, b)
		if len(d.raw) == 1+d.headerLen+d.payloadLen {
			d.state = decodeCRC
		}
		return nil, nil

	case decodeCRC:
		d.raw = append(d.raw, b)
		if len(d.raw) != 1+d.headerLen+d.payloadLen+2 {
			return nil, nil
		}
		raw := append([]byte(nil), d.raw...)
		d.reset()
		frame, err := wire.UnpackFrame(raw, d.dispatcher)
		return frame, err

	default:
		d.reset()
		return nil, nil
	}
}
