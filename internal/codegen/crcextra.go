package codegen

import (
	"strings"

	"github.com/brindlebrook/mavrelay/internal/dialectxml"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// CRCExtra computes a message's CRC_EXTRA byte per spec §4.1: seed the X25
// accumulator with "<MESSAGE_NAME> ", then fold in "<type> " and "<field> "
// for every non-extension field in wire order, plus a single array-length
// byte for array fields. The result is the low byte XOR the high byte of
// the running checksum.
func CRCExtra(msg dialectxml.Message) uint8 {
	crc := wire.X25InitialCRC
	crc = wire.AccumulateString(crc, strings.ToUpper(msg.Name)+" ")

	for _, f := range OrderedFields(msg) {
		if f.IsExtension {
			continue
		}
		crc = wire.AccumulateString(crc, f.Type.WireName()+" ")
		crc = wire.AccumulateString(crc, f.Name+" ")
		if f.ArrayLen > 1 {
			crc = wire.X25Accumulate(crc, byte(f.ArrayLen))
		}
	}

	return byte(crc) ^ byte(crc>>8)
}

// IsTargeted reports whether a message schema carries target_system and/or
// target_component fields, which is what makes it a "targeted message" for
// routing purposes (spec §3 GLOSSARY).
func IsTargeted(msg dialectxml.Message) bool {
	for _, f := range msg.Fields {
		if f.Name == "target_system" || f.Name == "target_component" {
			return true
		}
	}
	return false
}
