package mavcommon

import (
	"testing"

	"github.com/brindlebrook/mavrelay/internal/codegen"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

func TestEmbeddedDialectParses(t *testing.T) {
	if len(Dialect.Messages) == 0 {
		t.Fatal("embedded dialect has no messages")
	}
	if _, ok := EnumTable("MAV_TYPE"); !ok {
		t.Fatal("expected MAV_TYPE enum table")
	}
}

func TestDispatchPayloadSizeMatchesCodegen(t *testing.T) {
	byName := map[uint32]string{
		HeartbeatMessageID:             "HEARTBEAT",
		ChangeOperatorControlMessageID: "CHANGE_OPERATOR_CONTROL",
		ParamValueMessageID:            "PARAM_VALUE",
		GlobalPositionIntMessageID:     "GLOBAL_POSITION_INT",
		VfrHudMessageID:                "VFR_HUD",
		CommandLongMessageID:           "COMMAND_LONG",
		CommandAckMessageID:            "COMMAND_ACK",
	}
	for id, name := range byName {
		entry, ok := Dispatcher.Lookup(id)
		if !ok {
			t.Fatalf("%s: not in dispatch table", name)
		}
		want := mustPayloadSize(name)
		if entry.PayloadSize != want {
			t.Errorf("%s: dispatch PayloadSize=%d, codegen says %d", name, entry.PayloadSize, want)
		}
		wantCRC := mustCRCExtra(name)
		if entry.CRCExtra != wantCRC {
			t.Errorf("%s: dispatch CRCExtra=%d, codegen says %d", name, entry.CRCExtra, wantCRC)
		}
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	in := &Heartbeat{Type: 2, Autopilot: 3, BaseMode: 128, CustomMode: 0xdeadbeef, SystemStatus: 4, MavlinkVersion: 3}
	out, err := unpackHeartbeat(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*Heartbeat)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestChangeOperatorControlRoundTrip(t *testing.T) {
	in := &ChangeOperatorControl{TargetSystem: 1, ControlRequest: 1, Version: 3, Passkey: "hello"}
	out, err := unpackChangeOperatorControl(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*ChangeOperatorControl)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
	sys, comp := in.TargetIDs()
	if sys != 1 || comp != 0 {
		t.Errorf("TargetIDs() = (%d,%d), want (1,0)", sys, comp)
	}
}

func TestChangeOperatorControlPasskeyExactlyFillsField(t *testing.T) {
	in := &ChangeOperatorControl{Passkey: "0123456789012345678901234"[:25]}
	out, err := unpackChangeOperatorControl(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	if out.(*ChangeOperatorControl).Passkey != in.Passkey {
		t.Errorf("got %q, want %q", out.(*ChangeOperatorControl).Passkey, in.Passkey)
	}
}

func TestParamValueRoundTrip(t *testing.T) {
	in := &ParamValue{ParamValue: 3.14, ParamType: 9, ParamCount: 40, ParamIndex: 5, ParamID: "THR_MAX"}
	out, err := unpackParamValue(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*ParamValue)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestGlobalPositionIntRoundTrip(t *testing.T) {
	in := &GlobalPositionInt{
		TimeBootMs: 123456, Lat: -352123456, Lon: 1491234567, Alt: 50000, RelativeAlt: 1200,
		Vx: -150, Vy: 300, Vz: -20, Hdg: 9000,
	}
	out, err := unpackGlobalPositionInt(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*GlobalPositionInt)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestVfrHudRoundTrip(t *testing.T) {
	in := &VfrHud{Airspeed: 12.5, Groundspeed: 11.9, Alt: 304.2, Climb: -0.4, Heading: 270, Throttle: 65}
	out, err := unpackVfrHud(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*VfrHud)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestCommandLongRoundTrip(t *testing.T) {
	in := &CommandLong{
		Param1: 5, Param2: 10, Param3: 0, Param4: 0, Param5: -35.2, Param6: 149.1, Param7: 50,
		Command: 16, TargetSystem: 1, TargetComponent: 1, Confirmation: 0,
	}
	out, err := unpackCommandLong(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*CommandLong)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
	sys, comp := in.TargetIDs()
	if sys != 1 || comp != 1 {
		t.Errorf("TargetIDs() = (%d,%d), want (1,1)", sys, comp)
	}
}

func TestCommandAckRoundTrip(t *testing.T) {
	in := &CommandAck{Command: 400, Result: 0, Progress: 100, ResultParam2: -7, TargetSystem: 9, TargetComponent: 2}
	out, err := unpackCommandAck(in.PackFields())
	if err != nil {
		t.Fatal(err)
	}
	got := out.(*CommandAck)
	if *got != *in {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestCommandAckExtensionFieldsExcludedFromCRCExtra(t *testing.T) {
	// The hash only folds in non-extension fields (command, result); adding
	// progress/result_param2/target_system/target_component as extensions
	// must not change CRC_EXTRA relative to a message with only the
	// pre-extension fields declared.
	preExtension := Dialect.Messages[0]
	for _, m := range Dialect.Messages {
		if m.Name == "COMMAND_ACK" {
			preExtension = m
			break
		}
	}
	trimmed := preExtension
	trimmed.Fields = nil
	for _, f := range preExtension.Fields {
		if !f.IsExtension {
			trimmed.Fields = append(trimmed.Fields, f)
		}
	}
	if codegen.CRCExtra(trimmed) != codegen.CRCExtra(preExtension) {
		t.Error("CRCExtra changed when extension fields were added")
	}
}

func TestFullPayloadZeroExtensionThroughWire(t *testing.T) {
	// A V2 frame that never mentions COMMAND_ACK's extension bytes (an older
	// sender) should still decode, with the extension fields reading as
	// zero.
	msg := &CommandAck{Command: 400, Result: 0}
	full := msg.PackFields()
	truncated := full[:3] // only command + result survive, since Progress=0 too

	entry, ok := Dispatcher.Lookup(CommandAckMessageID)
	if !ok {
		t.Fatal("missing dispatch entry")
	}
	padded := make([]byte, entry.PayloadSize)
	copy(padded, truncated)

	decoded, err := entry.Unpack(padded)
	if err != nil {
		t.Fatal(err)
	}
	got := decoded.(*CommandAck)
	if got.Command != 400 || got.Result != 0 || got.Progress != 0 || got.TargetSystem != 0 {
		t.Errorf("zero-extended decode mismatch: %+v", got)
	}
}

func TestPackFrameUnpackFrameRoundTrip(t *testing.T) {
	msg := &GlobalPositionInt{TimeBootMs: 10, Lat: 1, Lon: 2, Alt: 3, RelativeAlt: 4, Vx: 5, Vy: 6, Vz: 7, Hdg: 8}
	frame := wire.PackFrame(wire.V2, msg, globalPositionIntCRCExtra, 1, 240, 1)

	decoded, err := wire.UnpackFrame(frame.Raw, Dispatcher)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := decoded.Decoded.(*GlobalPositionInt)
	if !ok {
		t.Fatalf("decoded message has wrong type: %T", decoded.Decoded)
	}
	if *got != *msg {
		t.Errorf("frame round trip mismatch: got %+v, want %+v", got, msg)
	}
}
