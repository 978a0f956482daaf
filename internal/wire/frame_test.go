package wire

import (
	"bytes"
	"errors"
	"testing"
)

// fakeMessage is a minimal wire.Message used to test the frame codec
// without depending on any generated or hand-written dialect package.
type fakeMessage struct {
	a    uint32
	b    uint8
	tSys uint8
}

func (m *fakeMessage) MessageID() uint32         { return 42 }
func (m *fakeMessage) Targeted() bool            { return m.tSys != 0 }
func (m *fakeMessage) TargetIDs() (uint8, uint8) { return m.tSys, 0 }
func (m *fakeMessage) PackFields() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(m.a)
	buf[1] = byte(m.a >> 8)
	buf[2] = byte(m.a >> 16)
	buf[3] = byte(m.a >> 24)
	buf[4] = m.b
	return buf
}

func unpackFake(payload []byte) (Message, error) {
	if len(payload) < 5 {
		return nil, ErrShortPayload
	}
	a := uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
	return &fakeMessage{a: a, b: payload[4]}, nil
}

type fakeDispatcher struct{ entry DispatchEntry }

func (d fakeDispatcher) Lookup(id uint32) (DispatchEntry, bool) {
	if id != 42 || d.entry.Unpack == nil {
		return DispatchEntry{}, false
	}
	return d.entry, true
}

func testDispatcher() Dispatcher {
	return fakeDispatcher{entry: DispatchEntry{CRCExtra: 77, PayloadSize: 5, Unpack: unpackFake}}
}

func TestPackUnpackFrameV1(t *testing.T) {
	msg := &fakeMessage{a: 0x01020304, b: 9}
	frame := PackFrame(V1, msg, 77, 3, 240, 1)

	decoded, err := UnpackFrame(frame.Raw, testDispatcher())
	if err != nil {
		t.Fatal(err)
	}
	got := decoded.Decoded.(*fakeMessage)
	if *got != *msg {
		t.Errorf("got %+v, want %+v", got, msg)
	}
	if decoded.Sequence != 3 || decoded.SourceSystem != 240 || decoded.SourceComponent != 1 {
		t.Errorf("header fields wrong: %+v", decoded)
	}
}

func TestPackUnpackFrameV2TruncatesTrailingZeros(t *testing.T) {
	msg := &fakeMessage{a: 1, b: 0} // last byte zero, truncated away
	frame := PackFrame(V2, msg, 77, 0, 240, 1)

	wantPayloadLen := 1 // only a's low byte is nonzero
	if got := int(frame.Raw[1]); got != wantPayloadLen {
		t.Errorf("declared payload length = %d, want %d", got, wantPayloadLen)
	}

	decoded, err := UnpackFrame(frame.Raw, testDispatcher())
	if err != nil {
		t.Fatal(err)
	}
	got := decoded.Decoded.(*fakeMessage)
	if *got != *msg {
		t.Errorf("got %+v, want %+v (zero extension on decode)", got, msg)
	}
}

func TestPackUnpackFrameV2AllZeroTruncatesToOneByte(t *testing.T) {
	// §8 scenario 1: an all-zero HEARTBEAT still declares length 1, not 0 —
	// canonical MAVLink never truncates away the first payload byte.
	msg := &fakeMessage{a: 0, b: 0}
	frame := PackFrame(V2, msg, 77, 0, 240, 1)
	if got := int(frame.Raw[1]); got != 1 {
		t.Errorf("declared payload length = %d, want 1", got)
	}
	decoded, err := UnpackFrame(frame.Raw, testDispatcher())
	if err != nil {
		t.Fatal(err)
	}
	if *decoded.Decoded.(*fakeMessage) != *msg {
		t.Errorf("got %+v, want %+v", decoded.Decoded, msg)
	}
}

func TestUnpackFrameFailsCRCOnCorruption(t *testing.T) {
	msg := &fakeMessage{a: 7, b: 1}
	frame := PackFrame(V1, msg, 77, 0, 1, 1)
	corrupt := append([]byte(nil), frame.Raw...)
	corrupt[len(corrupt)-3] ^= 0xFF // flip a payload byte

	_, err := UnpackFrame(corrupt, testDispatcher())
	if !errors.Is(err, ErrFailedCRC) {
		t.Errorf("got %v, want ErrFailedCRC", err)
	}
}

func TestUnpackFrameUnknownMessageStillForwardable(t *testing.T) {
	msg := &fakeMessage{a: 7, b: 1}
	frame := PackFrame(V1, msg, 77, 0, 1, 1)

	empty := fakeDispatcher{} // Lookup always misses
	decoded, err := UnpackFrame(frame.Raw, empty)
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("got %v, want ErrUnknownMessage", err)
	}
	if decoded == nil || !bytes.Equal(decoded.Raw, frame.Raw) {
		t.Error("expected a forwardable frame with Raw populated even on unknown message id")
	}
	if decoded.Decoded != nil {
		t.Error("Decoded should be nil for an unknown message id")
	}
}

func TestUnpackFrameRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x00},
		{0xFE, 0x05, 0x00, 0x00, 0x00}, // magic + truncated header, no CRC
		{0xAA, 0xBB, 0xCC},
	}
	for _, raw := range cases {
		if _, err := UnpackFrame(raw, testDispatcher()); !errors.Is(err, ErrNotAFrame) {
			t.Errorf("raw=%v: got %v, want ErrNotAFrame", raw, err)
		}
	}
}

func TestDeriveTargetKinds(t *testing.T) {
	cases := []struct {
		targeted        bool
		sys, comp       uint8
		want            TargetKind
	}{
		{false, 0, 0, TargetBroadcast},
		{true, 0, 0, TargetBroadcast},
		{true, 5, 0, TargetSystem},
		{true, 0, 5, TargetComponent},
		{true, 5, 5, TargetSystemComponent},
	}
	for _, tc := range cases {
		if got := deriveTarget(tc.targeted, tc.sys, tc.comp); got != tc.want {
			t.Errorf("deriveTarget(%v,%d,%d) = %v, want %v", tc.targeted, tc.sys, tc.comp, got, tc.want)
		}
	}
}

func TestFrameLengthIsolatesOneFrameFromTrailingBytes(t *testing.T) {
	msg := &fakeMessage{a: 1, b: 2}
	frame := PackFrame(V1, msg, 77, 0, 1, 1)
	datagram := append(append([]byte(nil), frame.Raw...), 0xAA, 0xBB, 0xCC)

	got, err := FrameLength(datagram)
	if err != nil {
		t.Fatal(err)
	}
	if got != len(frame.Raw) {
		t.Errorf("FrameLength = %d, want %d", got, len(frame.Raw))
	}

	decoded, err := UnpackFrame(datagram[:got], testDispatcher())
	if err != nil {
		t.Fatal(err)
	}
	if *decoded.Decoded.(*fakeMessage) != *msg {
		t.Errorf("got %+v, want %+v", decoded.Decoded, msg)
	}
}

func TestFrameLengthRejectsGarbage(t *testing.T) {
	cases := [][]byte{nil, {0xAA}, {0xFE, 0x05, 0x00}}
	for _, raw := range cases {
		if _, err := FrameLength(raw); !errors.Is(err, ErrNotAFrame) {
			t.Errorf("FrameLength(%v) error = %v, want ErrNotAFrame", raw, err)
		}
	}
}

func FuzzUnpackFrame(f *testing.F) {
	msg := &fakeMessage{a: 0x11223344, b: 0x55}
	f.Add(PackFrame(V1, msg, 77, 0, 1, 1).Raw)
	f.Add(PackFrame(V2, msg, 77, 0, 1, 1).Raw)
	f.Add([]byte{0xFE})
	f.Add([]byte{0xFD, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, raw []byte) {
		// UnpackFrame must never panic on arbitrary input, regardless of
		// whether it's a valid frame.
		_, _ = UnpackFrame(raw, testDispatcher())
	})
}
