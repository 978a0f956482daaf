// Code generated in the shape internal/codegen/template.go would emit for
// common.xml. Field order, offsets, and struct layout follow
// internal/codegen's wire-order rule (spec-equivalent: non-extension fields
// sorted by decreasing primitive size, ties in declaration order, then
// extension fields appended in declaration order); see messages_test.go for
// the check against codegen's own computation.
package mavcommon

import (
	"encoding/binary"
	"math"

	"github.com/brindlebrook/mavrelay/internal/wire"
)

// Heartbeat is the HEARTBEAT message (id 0).
type Heartbeat struct {
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	CustomMode     uint32
	SystemStatus   uint8
	MavlinkVersion uint8
}

var heartbeatCRCExtra = mustCRCExtra("HEARTBEAT")

const HeartbeatMessageID uint32 = 0
const HeartbeatPayloadSize int = 9

func (m *Heartbeat) MessageID() uint32         { return HeartbeatMessageID }
func (m *Heartbeat) Targeted() bool            { return false }
func (m *Heartbeat) TargetIDs() (uint8, uint8) { return 0, 0 }

func (m *Heartbeat) PackFields() []byte {
	buf := make([]byte, HeartbeatPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:], m.CustomMode)
	buf[4] = m.Type
	buf[5] = m.Autopilot
	buf[6] = m.BaseMode
	buf[7] = m.SystemStatus
	buf[8] = m.MavlinkVersion
	return buf
}

func unpackHeartbeat(payload []byte) (wire.Message, error) {
	m := &Heartbeat{}
	m.CustomMode = binary.LittleEndian.Uint32(payload[0:])
	m.Type = payload[4]
	m.Autopilot = payload[5]
	m.BaseMode = payload[6]
	m.SystemStatus = payload[7]
	m.MavlinkVersion = payload[8]
	return m, nil
}

// ChangeOperatorControl is the CHANGE_OPERATOR_CONTROL message (id 5).
type ChangeOperatorControl struct {
	TargetSystem   uint8
	ControlRequest uint8
	Version        uint8
	Passkey        string
}

var changeOperatorControlCRCExtra = mustCRCExtra("CHANGE_OPERATOR_CONTROL")

const ChangeOperatorControlMessageID uint32 = 5
const ChangeOperatorControlPayloadSize int = 28

func (m *ChangeOperatorControl) MessageID() uint32 { return ChangeOperatorControlMessageID }
func (m *ChangeOperatorControl) Targeted() bool    { return true }
func (m *ChangeOperatorControl) TargetIDs() (uint8, uint8) {
	return m.TargetSystem, 0
}

func (m *ChangeOperatorControl) PackFields() []byte {
	buf := make([]byte, ChangeOperatorControlPayloadSize)
	buf[0] = m.TargetSystem
	buf[1] = m.ControlRequest
	buf[2] = m.Version
	copy(buf[3:28], []byte(m.Passkey))
	return buf
}

func unpackChangeOperatorControl(payload []byte) (wire.Message, error) {
	m := &ChangeOperatorControl{}
	m.TargetSystem = payload[0]
	m.ControlRequest = payload[1]
	m.Version = payload[2]
	m.Passkey = wire.TrimCharField(payload[3:28])
	return m, nil
}

// ParamValue is the PARAM_VALUE message (id 22).
type ParamValue struct {
	ParamValue float32
	ParamType  uint8
	ParamCount uint16
	ParamIndex uint16
	ParamID    string
}

var paramValueCRCExtra = mustCRCExtra("PARAM_VALUE")

const ParamValueMessageID uint32 = 22
const ParamValuePayloadSize int = 25

func (m *ParamValue) MessageID() uint32         { return ParamValueMessageID }
func (m *ParamValue) Targeted() bool            { return false }
func (m *ParamValue) TargetIDs() (uint8, uint8) { return 0, 0 }

func (m *ParamValue) PackFields() []byte {
	buf := make([]byte, ParamValuePayloadSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(m.ParamValue))
	binary.LittleEndian.PutUint16(buf[4:], m.ParamCount)
	binary.LittleEndian.PutUint16(buf[6:], m.ParamIndex)
	copy(buf[8:24], []byte(m.ParamID))
	buf[24] = m.ParamType
	return buf
}

func unpackParamValue(payload []byte) (wire.Message, error) {
	m := &ParamValue{}
	m.ParamValue = math.Float32frombits(binary.LittleEndian.Uint32(payload[0:]))
	m.ParamCount = binary.LittleEndian.Uint16(payload[4:])
	m.ParamIndex = binary.LittleEndian.Uint16(payload[6:])
	m.ParamID = wire.TrimCharField(payload[8:24])
	m.ParamType = payload[24]
	return m, nil
}

// GlobalPositionInt is the GLOBAL_POSITION_INT message (id 33).
type GlobalPositionInt struct {
	TimeBootMs  uint32
	Lat         int32
	Lon         int32
	Alt         int32
	RelativeAlt int32
	Vx          int16
	Vy          int16
	Vz          int16
	Hdg         uint16
}

var globalPositionIntCRCExtra = mustCRCExtra("GLOBAL_POSITION_INT")

const GlobalPositionIntMessageID uint32 = 33
const GlobalPositionIntPayloadSize int = 28

func (m *GlobalPositionInt) MessageID() uint32         { return GlobalPositionIntMessageID }
func (m *GlobalPositionInt) Targeted() bool            { return false }
func (m *GlobalPositionInt) TargetIDs() (uint8, uint8) { return 0, 0 }

func (m *GlobalPositionInt) PackFields() []byte {
	buf := make([]byte, GlobalPositionIntPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:], m.TimeBootMs)
	binary.LittleEndian.PutUint32(buf[4:], uint32(m.Lat))
	binary.LittleEndian.PutUint32(buf[8:], uint32(m.Lon))
	binary.LittleEndian.PutUint32(buf[12:], uint32(m.Alt))
	binary.LittleEndian.PutUint32(buf[16:], uint32(m.RelativeAlt))
	binary.LittleEndian.PutUint16(buf[20:], uint16(m.Vx))
	binary.LittleEndian.PutUint16(buf[22:], uint16(m.Vy))
	binary.LittleEndian.PutUint16(buf[24:], uint16(m.Vz))
	binary.LittleEndian.PutUint16(buf[26:], m.Hdg)
	return buf
}

func unpackGlobalPositionInt(payload []byte) (wire.Message, error) {
	m := &GlobalPositionInt{}
	m.TimeBootMs = binary.LittleEndian.Uint32(payload[0:])
	m.Lat = int32(binary.LittleEndian.Uint32(payload[4:]))
	m.Lon = int32(binary.LittleEndian.Uint32(payload[8:]))
	m.Alt = int32(binary.LittleEndian.Uint32(payload[12:]))
	m.RelativeAlt = int32(binary.LittleEndian.Uint32(payload[16:]))
	m.Vx = int16(binary.LittleEndian.Uint16(payload[20:]))
	m.Vy = int16(binary.LittleEndian.Uint16(payload[22:]))
	m.Vz = int16(binary.LittleEndian.Uint16(payload[24:]))
	m.Hdg = binary.LittleEndian.Uint16(payload[26:])
	return m, nil
}

// VfrHud is the VFR_HUD message (id 74).
type VfrHud struct {
	Airspeed    float32
	Groundspeed float32
	Alt         float32
	Climb       float32
	Heading     int16
	Throttle    uint16
}

var vfrHudCRCExtra = mustCRCExtra("VFR_HUD")

const VfrHudMessageID uint32 = 74
const VfrHudPayloadSize int = 20

func (m *VfrHud) MessageID() uint32         { return VfrHudMessageID }
func (m *VfrHud) Targeted() bool            { return false }
func (m *VfrHud) TargetIDs() (uint8, uint8) { return 0, 0 }

func (m *VfrHud) PackFields() []byte {
	buf := make([]byte, VfrHudPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(m.Airspeed))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(m.Groundspeed))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(m.Alt))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(m.Climb))
	binary.LittleEndian.PutUint16(buf[16:], uint16(m.Heading))
	binary.LittleEndian.PutUint16(buf[18:], m.Throttle)
	return buf
}

func unpackVfrHud(payload []byte) (wire.Message, error) {
	m := &VfrHud{}
	m.Airspeed = math.Float32frombits(binary.LittleEndian.Uint32(payload[0:]))
	m.Groundspeed = math.Float32frombits(binary.LittleEndian.Uint32(payload[4:]))
	m.Alt = math.Float32frombits(binary.LittleEndian.Uint32(payload[8:]))
	m.Climb = math.Float32frombits(binary.LittleEndian.Uint32(payload[12:]))
	m.Heading = int16(binary.LittleEndian.Uint16(payload[16:]))
	m.Throttle = binary.LittleEndian.Uint16(payload[18:])
	return m, nil
}

// CommandLong is the COMMAND_LONG message (id 76).
type CommandLong struct {
	Param1          float32
	Param2          float32
	Param3          float32
	Param4          float32
	Param5          float32
	Param6          float32
	Param7          float32
	Command         uint16
	TargetSystem    uint8
	TargetComponent uint8
	Confirmation    uint8
}

var commandLongCRCExtra = mustCRCExtra("COMMAND_LONG")

const CommandLongMessageID uint32 = 76
const CommandLongPayloadSize int = 33

func (m *CommandLong) MessageID() uint32 { return CommandLongMessageID }
func (m *CommandLong) Targeted() bool    { return true }
func (m *CommandLong) TargetIDs() (uint8, uint8) {
	return m.TargetSystem, m.TargetComponent
}

func (m *CommandLong) PackFields() []byte {
	buf := make([]byte, CommandLongPayloadSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(m.Param1))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(m.Param2))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(m.Param3))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(m.Param4))
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(m.Param5))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(m.Param6))
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(m.Param7))
	binary.LittleEndian.PutUint16(buf[28:], m.Command)
	buf[30] = m.TargetSystem
	buf[31] = m.TargetComponent
	buf[32] = m.Confirmation
	return buf
}

func unpackCommandLong(payload []byte) (wire.Message, error) {
	m := &CommandLong{}
	m.Param1 = math.Float32frombits(binary.LittleEndian.Uint32(payload[0:]))
	m.Param2 = math.Float32frombits(binary.LittleEndian.Uint32(payload[4:]))
	m.Param3 = math.Float32frombits(binary.LittleEndian.Uint32(payload[8:]))
	m.Param4 = math.Float32frombits(binary.LittleEndian.Uint32(payload[12:]))
	m.Param5 = math.Float32frombits(binary.LittleEndian.Uint32(payload[16:]))
	m.Param6 = math.Float32frombits(binary.LittleEndian.Uint32(payload[20:]))
	m.Param7 = math.Float32frombits(binary.LittleEndian.Uint32(payload[24:]))
	m.Command = binary.LittleEndian.Uint16(payload[28:])
	m.TargetSystem = payload[30]
	m.TargetComponent = payload[31]
	m.Confirmation = payload[32]
	return m, nil
}

// CommandAck is the COMMAND_ACK message (id 77). Progress, ResultParam2,
// TargetSystem, and TargetComponent are extension fields: older peers that
// only know the pre-extension layout still compute a matching CRC_EXTRA and
// can still decode the non-extension prefix.
type CommandAck struct {
	Command         uint16
	Result          uint8
	Progress        uint8
	ResultParam2    int32
	TargetSystem    uint8
	TargetComponent uint8
}

var commandAckCRCExtra = mustCRCExtra("COMMAND_ACK")

const CommandAckMessageID uint32 = 77
const CommandAckPayloadSize int = 10

func (m *CommandAck) MessageID() uint32 { return CommandAckMessageID }
func (m *CommandAck) Targeted() bool    { return true }
func (m *CommandAck) TargetIDs() (uint8, uint8) {
	return m.TargetSystem, m.TargetComponent
}

func (m *CommandAck) PackFields() []byte {
	buf := make([]byte, CommandAckPayloadSize)
	binary.LittleEndian.PutUint16(buf[0:], m.Command)
	buf[2] = m.Result
	buf[3] = m.Progress
	binary.LittleEndian.PutUint32(buf[4:], uint32(m.ResultParam2))
	buf[8] = m.TargetSystem
	buf[9] = m.TargetComponent
	return buf
}

func unpackCommandAck(payload []byte) (wire.Message, error) {
	m := &CommandAck{}
	m.Command = binary.LittleEndian.Uint16(payload[0:])
	m.Result = payload[2]
	m.Progress = payload[3]
	m.ResultParam2 = int32(binary.LittleEndian.Uint32(payload[4:]))
	m.TargetSystem = payload[8]
	m.TargetComponent = payload[9]
	return m, nil
}

var dispatch = map[uint32]wire.DispatchEntry{
	HeartbeatMessageID:              {CRCExtra: heartbeatCRCExtra, PayloadSize: HeartbeatPayloadSize, Unpack: unpackHeartbeat},
	ChangeOperatorControlMessageID:  {CRCExtra: changeOperatorControlCRCExtra, PayloadSize: ChangeOperatorControlPayloadSize, Unpack: unpackChangeOperatorControl},
	ParamValueMessageID:             {CRCExtra: paramValueCRCExtra, PayloadSize: ParamValuePayloadSize, Unpack: unpackParamValue},
	GlobalPositionIntMessageID:      {CRCExtra: globalPositionIntCRCExtra, PayloadSize: GlobalPositionIntPayloadSize, Unpack: unpackGlobalPositionInt},
	VfrHudMessageID:                 {CRCExtra: vfrHudCRCExtra, PayloadSize: VfrHudPayloadSize, Unpack: unpackVfrHud},
	CommandLongMessageID:            {CRCExtra: commandLongCRCExtra, PayloadSize: CommandLongPayloadSize, Unpack: unpackCommandLong},
	CommandAckMessageID:             {CRCExtra: commandAckCRCExtra, PayloadSize: CommandAckPayloadSize, Unpack: unpackCommandAck},
}

type dispatchTable struct{}

func (dispatchTable) Lookup(id uint32) (wire.DispatchEntry, bool) {
	e, ok := dispatch[id]
	return e, ok
}

// Dispatcher resolves message ids for the common dialect.
var Dispatcher wire.Dispatcher = dispatchTable{}
