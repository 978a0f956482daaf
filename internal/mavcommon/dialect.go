// Package mavcommon is the dialect shipped with mavrelay by default: a
// subset of the common MAVLink message set (HEARTBEAT, PARAM_VALUE,
// GLOBAL_POSITION_INT, COMMAND_LONG/ACK, VFR_HUD, CHANGE_OPERATOR_CONTROL)
// plus the enums they reference.
//
// The message types and their Pack/Unpack methods in messages.go are
// written in the exact shape internal/codegen's template would emit for
// this dialect's XML description (embedded below) — this package exists so
// mavrelayctl has a usable dialect without requiring a code-generation step
// at build time. CRC_EXTRA values are derived from the embedded XML during
// package variable initialization rather than hand-copied. Payload sizes
// are literal constants in messages.go; messages_test.go checks them
// against codegen's computation from the same XML, so a mistake in the
// dialect description or in the hand-written layout shows up as a test
// failure, not as a silent wrong checksum.
package mavcommon

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/brindlebrook/mavrelay/internal/codegen"
	"github.com/brindlebrook/mavrelay/internal/dialectxml"
)

//go:embed common.xml
var dialectXML []byte

// Dialect is the parsed form of common.xml, kept around for tooling
// (mavrelayctl gen, enum tables) that wants the full model rather than just
// the compiled dispatch table. It is set by a package-level initializer
// (not init()) so the CRC_EXTRA variables in messages.go, which read it
// through mustCRCExtra, are initialized after it.
var Dialect = mustParseDialect()

func mustParseDialect() *dialectxml.Dialect {
	d, err := dialectxml.Parse(bytes.NewReader(dialectXML))
	if err != nil {
		panic(fmt.Errorf("mavcommon: parse embedded dialect: %w", err))
	}
	return d
}

func mustCRCExtra(name string) uint8 {
	for _, m := range Dialect.Messages {
		if m.Name == name {
			return codegen.CRCExtra(m)
		}
	}
	panic(fmt.Sprintf("mavcommon: message %s not found in embedded dialect", name))
}

func mustPayloadSize(name string) int {
	for _, m := range Dialect.Messages {
		if m.Name == name {
			return codegen.PayloadSize(m)
		}
	}
	panic(fmt.Sprintf("mavcommon: message %s not found in embedded dialect", name))
}
