package wire

import "fmt"

// Version is the MAVLink frame format, selected by the leading magic byte.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	if v == V1 {
		return "v1"
	}
	return "v2"
}

// Magic bytes identifying the frame format, exported so stream-based
// adapters (serial, tcpout) can resync a byte stream to a frame boundary
// without duplicating frame.go's internal layout knowledge.
const (
	MagicV1 byte = 0xFE
	MagicV2 byte = 0xFD
)

func magicByte(v Version) byte {
	if v == V1 {
		return MagicV1
	}
	return MagicV2
}

// TargetKind classifies how a frame's destination was derived, per spec §3.
type TargetKind int

const (
	TargetBroadcast TargetKind = iota
	TargetSystem
	TargetComponent
	TargetSystemComponent
)

// Frame is a fully parsed (or about-to-be-sent) MAVLink frame, plus its
// cached wire encoding so routers can forward it without re-serializing.
type Frame struct {
	Version         Version
	Sequence        uint8
	SourceSystem    uint8
	SourceComponent uint8
	TargetSystem    uint8
	TargetComponent uint8
	MessageID       uint32
	// Payload holds the full, pre-truncation field bytes (spec §3). For
	// frames received over V2 with trailing zero truncation, this is the
	// zero-extended form actually handed to Unpack.
	Payload  []byte
	CRCExtra uint8
	Target   TargetKind
	// Raw is the exact bytes transmitted (or to transmit), magic through
	// CRC, enabling zero-copy re-forwarding.
	Raw []byte
	// Decoded is nil when the message id was not present in the dialect
	// (ErrUnknownMessage); the frame is still valid for re-broadcast.
	Decoded Message
}

func deriveTarget(targeted bool, targetSystem, targetComponent uint8) TargetKind {
	if !targeted || (targetSystem == 0 && targetComponent == 0) {
		return TargetBroadcast
	}
	switch {
	case targetSystem != 0 && targetComponent != 0:
		return TargetSystemComponent
	case targetSystem != 0:
		return TargetSystem
	default:
		return TargetComponent
	}
}

func encodeHeader(version Version, payloadLen uint8, seq, sourceSystem, sourceComponent uint8, messageID uint32) []byte {
	if version == V1 {
		return []byte{payloadLen, seq, sourceSystem, sourceComponent, uint8(messageID)}
	}
	return []byte{
		payloadLen,
		0, // incompat_flags, always 0 in this system (no signing)
		0, // compat_flags
		seq, sourceSystem, sourceComponent,
		byte(messageID), byte(messageID >> 8), byte(messageID >> 16),
	}
}

// truncateTrailingZeros removes trailing zero bytes for V2 payload
// compaction. Per spec §4.1 this is a byte-level operation that ignores
// field boundaries: it stops at the first non-zero byte counting from the
// end, which may fall inside a multi-byte field. The first payload byte is never truncated away, even if it is zero
// (matching canonical MAVLink, e.g. pymavlink's
// `while len(payload) > 1 and payload[-1] == 0`): an all-zero HEARTBEAT
// still declares length 1, not 0.
func truncateTrailingZeros(payload []byte) []byte {
	end := len(payload)
	for end > 1 && payload[end-1] == 0 {
		end--
	}
	return payload[:end]
}

// PackFrame assembles a Frame (and its wire bytes) for a locally originated
// message. seq/sourceSystem/sourceComponent are assigned by the router
// before calling this; the frame's TargetSystem/TargetComponent are read
// from the message's own fields when Targeted() is true, otherwise both
// are 0.
func PackFrame(version Version, msg Message, crcExtra uint8, seq, sourceSystem, sourceComponent uint8) *Frame {
	full := msg.PackFields()
	wirePayload := full
	if version == V2 {
		wirePayload = truncateTrailingZeros(full)
	}

	header := encodeHeader(version, uint8(len(wirePayload)), seq, sourceSystem, sourceComponent, msg.MessageID())
	crc := X25SumSeeded(X25Sum(header), wirePayload)
	crc = X25Accumulate(crc, crcExtra)

	raw := make([]byte, 0, 1+len(header)+len(wirePayload)+2)
	raw = append(raw, magicByte(version))
	raw = append(raw, header...)
	raw = append(raw, wirePayload...)
	raw = append(raw, byte(crc), byte(crc>>8))

	var targetSystem, targetComponent uint8
	targeted := msg.Targeted()
	if targeted {
		targetSystem, targetComponent = msg.TargetIDs()
	}

	return &Frame{
		Version:         version,
		Sequence:        seq,
		SourceSystem:    sourceSystem,
		SourceComponent: sourceComponent,
		TargetSystem:    targetSystem,
		TargetComponent: targetComponent,
		MessageID:       msg.MessageID(),
		Payload:         full,
		CRCExtra:        crcExtra,
		Target:          deriveTarget(targeted, targetSystem, targetComponent),
		Raw:             raw,
		Decoded:         msg,
	}
}

// UnpackFrame validates and decodes raw bytes into a Frame using dispatcher
// to resolve the message id. See spec §4.1 for the validation order this
// follows exactly.
//
// Three outcomes:
//   - (frame, nil): fully valid and decoded.
//   - (frame, ErrUnknownMessage): valid envelope and CRC could not be
//     checked because the message id isn't in the dialect; frame.Decoded is
//     nil but frame.Raw is populated so the caller can still forward it.
//   - (nil, err): not a frame at all, or CRC failed; nothing to forward.
func UnpackFrame(raw []byte, dispatcher Dispatcher) (*Frame, error) {
	if len(raw) == 0 {
		return nil, ErrNotAFrame
	}
	switch raw[0] {
	case MagicV1:
		return unpackVersioned(V1, raw, dispatcher)
	case MagicV2:
		return unpackVersioned(V2, raw, dispatcher)
	default:
		return nil, ErrNotAFrame
	}
}

// FrameLength reports the total byte length (magic through CRC) that the
// frame starting at raw[0] declares, without checking its CRC or resolving
// its message id. Datagram-based adapters use this to isolate exactly one
// frame from a buffer that may carry trailing bytes after it (spec.md
// §4.3: UDP frames are one-per-datagram; any remainder is discarded).
func FrameLength(raw []byte) (int, error) {
	if len(raw) == 0 {
		return 0, ErrNotAFrame
	}
	var headerLen int
	switch raw[0] {
	case MagicV1:
		headerLen = 5
	case MagicV2:
		headerLen = 9
	default:
		return 0, ErrNotAFrame
	}
	minLen := 1 + headerLen + 2
	if len(raw) < minLen {
		return 0, ErrNotAFrame
	}
	return 1 + headerLen + int(raw[1]) + 2, nil
}

func unpackVersioned(version Version, raw []byte, dispatcher Dispatcher) (*Frame, error) {
	headerLen := 5
	if version == V2 {
		headerLen = 9
	}
	minLen := 1 + headerLen + 2
	if len(raw) < minLen {
		return nil, ErrNotAFrame
	}

	payloadLen := int(raw[1])
	wantLen := 1 + headerLen + payloadLen + 2
	if len(raw) != wantLen {
		return nil, ErrNotAFrame
	}

	header := raw[1 : 1+headerLen]
	payloadStart := 1 + headerLen
	wirePayload := raw[payloadStart : payloadStart+payloadLen]
	crcOffset := payloadStart + payloadLen
	receivedCRC := uint16(raw[crcOffset]) | uint16(raw[crcOffset+1])<<8

	var seq, sourceSystem, sourceComponent uint8
	var messageID uint32
	if version == V1 {
		seq, sourceSystem, sourceComponent = header[1], header[2], header[3]
		messageID = uint32(header[4])
	} else {
		seq, sourceSystem, sourceComponent = header[3], header[4], header[5]
		messageID = uint32(header[6]) | uint32(header[7])<<8 | uint32(header[8])<<16
	}

	entry, ok := dispatcher.Lookup(messageID)
	if !ok {
		return &Frame{
			Version:         version,
			Sequence:        seq,
			SourceSystem:    sourceSystem,
			SourceComponent: sourceComponent,
			MessageID:       messageID,
			Payload:         append([]byte(nil), wirePayload...),
			Target:          TargetBroadcast,
			Raw:             append([]byte(nil), raw...),
			Decoded:         nil,
		}, ErrUnknownMessage
	}

	crc := X25SumSeeded(X25Sum(header), wirePayload)
	crc = X25Accumulate(crc, entry.CRCExtra)
	if crc != receivedCRC {
		return nil, ErrFailedCRC
	}

	fullPayload := wirePayload
	if len(fullPayload) < entry.PayloadSize {
		fullPayload = make([]byte, entry.PayloadSize)
		copy(fullPayload, wirePayload)
	}

	msg, err := entry.Unpack(fullPayload)
	if err != nil {
		return nil, fmt.Errorf("wire: decode message %d: %w", messageID, err)
	}

	var targetSystem, targetComponent uint8
	targeted := msg.Targeted()
	if targeted {
		targetSystem, targetComponent = msg.TargetIDs()
	}

	return &Frame{
		Version:         version,
		Sequence:        seq,
		SourceSystem:    sourceSystem,
		SourceComponent: sourceComponent,
		TargetSystem:    targetSystem,
		TargetComponent: targetComponent,
		MessageID:       messageID,
		Payload:         fullPayload,
		CRCExtra:        entry.CRCExtra,
		Target:          deriveTarget(targeted, targetSystem, targetComponent),
		Raw:             append([]byte(nil), raw...),
		Decoded:         msg,
	}, nil
}
