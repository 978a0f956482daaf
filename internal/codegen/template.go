package codegen

// dialectTemplateSource is the text/template body Generate executes. It is
// deliberately thin: all per-field decision-making (offsets, endian calls,
// char truncation) happens in Go in fieldcode.go, so this template only
// lays components out in source order.
const dialectTemplateSource = `// Code generated by mavrelay/internal/codegen. DO NOT EDIT.

package {{.Package}}

import (
	"encoding/binary"
	"math"

	"github.com/brindlebrook/mavrelay/internal/wire"
)

{{range .Messages}}
// {{.GoName}} is the {{.XMLName}} message (id {{.ID}}).
type {{.GoName}} struct {
{{range .Fields}}	{{.GoName}} {{.GoFieldType}}
{{end}}}

const {{.GoName}}MessageID uint32 = {{.ID}}
const {{.GoName}}CRCExtra uint8 = {{.CRCExtra}}
const {{.GoName}}PayloadSize int = {{.PayloadSize}}

func (m *{{.GoName}}) MessageID() uint32 { return {{.GoName}}MessageID }
func (m *{{.GoName}}) Targeted() bool    { return {{.Targeted}} }
func (m *{{.GoName}}) TargetIDs() (uint8, uint8) { {{.TargetIDsExpr}} }

func (m *{{.GoName}}) PackFields() []byte {
	buf := make([]byte, {{.GoName}}PayloadSize)
{{range .Fields}}	{{.PackCode}}
{{end}}	return buf
}

func unpack{{.GoName}}(payload []byte) (wire.Message, error) {
	m := &{{.GoName}}{}
{{range .Fields}}	{{.UnpackCode}}
{{end}}	return m, nil
}
{{end}}

var dispatch = map[uint32]wire.DispatchEntry{
{{range .Messages}}	{{.GoName}}MessageID: {CRCExtra: {{.GoName}}CRCExtra, PayloadSize: {{.GoName}}PayloadSize, Unpack: unpack{{.GoName}}},
{{end}}}

type dispatchTable struct{}

func (dispatchTable) Lookup(id uint32) (wire.DispatchEntry, bool) {
	e, ok := dispatch[id]
	return e, ok
}

// Dispatcher resolves message ids for this generated dialect package.
var Dispatcher wire.Dispatcher = dispatchTable{}
`
