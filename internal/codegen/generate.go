package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"
	"unicode"

	"github.com/brindlebrook/mavrelay/internal/dialectxml"
)

// fieldIR is the template-facing view of one wire-ordered field: its Go
// name/type and enough shape information to emit Put/Get calls without the
// template needing to know about dialectxml at all.
type fieldIR struct {
	GoName      string
	Primitive   dialectxml.PrimitiveType
	GoScalar    string // Go type of one element
	ArrayLen    int
	IsArray     bool
	IsChar      bool
	IsExtension bool
	Offset      int // byte offset within the full wire-order payload
}

type messageIR struct {
	GoName      string
	XMLName     string
	ID          uint32
	CRCExtra    uint8
	PayloadSize int
	Targeted    bool
	Fields      []fieldIR
}

type dialectIR struct {
	Package  string
	Messages []messageIR
}

// Generate lowers a parsed Dialect into Go source implementing wire.Message
// for every message plus a wire.Dispatcher-compatible table, using the
// given package name. It is pure: the same Dialect and package name always
// produce byte-identical output.
func Generate(d *dialectxml.Dialect, pkgName string) ([]byte, error) {
	ir := dialectIR{Package: pkgName}

	for _, msg := range d.Messages {
		ordered := OrderedFields(msg)
		fields := make([]fieldIR, 0, len(ordered))
		offset := 0
		for _, f := range ordered {
			scalar, isChar := goScalarType(f.Type)
			fields = append(fields, fieldIR{
				GoName:      exportedName(f.Name),
				Primitive:   f.Type,
				GoScalar:    scalar,
				ArrayLen:    f.ArrayLen,
				IsArray:     f.ArrayLen > 1 && !isChar,
				IsChar:      isChar,
				IsExtension: f.IsExtension,
				Offset:      offset,
			})
			offset += f.Type.Size() * f.ArrayLen
		}
		ir.Messages = append(ir.Messages, messageIR{
			GoName:      exportedName(msg.Name),
			XMLName:     msg.Name,
			ID:          msg.ID,
			CRCExtra:    CRCExtra(msg),
			PayloadSize: PayloadSize(msg),
			Targeted:    IsTargeted(msg),
			Fields:      fields,
		})
	}

	var buf bytes.Buffer
	if err := generatedTemplate.Execute(&buf, ir); err != nil {
		return nil, fmt.Errorf("codegen: execute template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		// Surface the unformatted source too; it makes the bad-template
		// diagnosis far faster than a bare gofmt parse error.
		return buf.Bytes(), fmt.Errorf("codegen: gofmt generated source: %w", err)
	}
	return formatted, nil
}

// goScalarType returns the Go element type for a primitive, and whether it
// is the char/string special case (fixed-capacity ASCII, not a [N]byte of
// individual chars).
func goScalarType(t dialectxml.PrimitiveType) (string, bool) {
	switch t {
	case dialectxml.Uint8:
		return "uint8", false
	case dialectxml.Int8:
		return "int8", false
	case dialectxml.Uint16:
		return "uint16", false
	case dialectxml.Int16:
		return "int16", false
	case dialectxml.Uint32:
		return "uint32", false
	case dialectxml.Int32:
		return "int32", false
	case dialectxml.Uint64:
		return "uint64", false
	case dialectxml.Int64:
		return "int64", false
	case dialectxml.Float:
		return "float32", false
	case dialectxml.Double:
		return "float64", false
	case dialectxml.Char:
		return "string", true
	default:
		return "uint8", false
	}
}

// exportedName turns a snake_case dialect identifier into an exported Go
// identifier, e.g. "target_system" -> "TargetSystem".
func exportedName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}

var generatedTemplate = template.Must(template.New("dialect").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).Parse(dialectTemplateSource))
