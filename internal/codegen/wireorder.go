// Package codegen turns a parsed dialectxml.Dialect into the wire-order
// layout, CRC_EXTRA constants, and enum tables the runtime codec needs, and
// can emit that as Go source for a dialect-specific package (see
// generate.go). The generator is pure: the same Dialect always yields the
// same output, which is what lets mavcommon's hand-written tables be
// checked against it in tests instead of trusted on faith.
package codegen

import (
	"sort"

	"github.com/brindlebrook/mavrelay/internal/dialectxml"
)

// OrderedFields returns a message's fields in wire order (spec §3): non
// -extension fields sorted by decreasing primitive size, ties broken by
// declaration order, followed by extension fields in declaration order.
func OrderedFields(msg dialectxml.Message) []dialectxml.Field {
	core := make([]dialectxml.Field, 0, len(msg.Fields))
	ext := make([]dialectxml.Field, 0)
	for _, f := range msg.Fields {
		if f.IsExtension {
			ext = append(ext, f)
		} else {
			core = append(core, f)
		}
	}
	sort.SliceStable(core, func(i, j int) bool {
		return core[i].Type.Size() > core[j].Type.Size()
	})
	return append(core, ext...)
}

// PayloadSize is the full (pre-truncation) wire size of a message: every
// field's primitive size times its array length, extensions included.
func PayloadSize(msg dialectxml.Message) int {
	size := 0
	for _, f := range msg.Fields {
		size += f.Type.Size() * f.ArrayLen
	}
	return size
}
