// Package dialectxml parses a MAVLink dialect XML description into the
// structured model defined by spec §3. It is a pure data-model package: it
// does not know about wire order, CRC_EXTRA, or Go code emission — that is
// codegen's job, one layer up.
package dialectxml

// PrimitiveType enumerates the scalar field types a dialect XML field can
// declare.
type PrimitiveType int

const (
	Uint8 PrimitiveType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Char
	Float
	Double
)

// Size returns the primitive's wire size in bytes.
func (t PrimitiveType) Size() int {
	switch t {
	case Uint8, Int8, Char:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float:
		return 4
	case Uint64, Int64, Double:
		return 8
	default:
		return 0
	}
}

// WireName is the type token the CRC_EXTRA hash folds in, matching the
// dialect XML's own type spelling (spec §4.1).
func (t PrimitiveType) WireName() string {
	switch t {
	case Uint8:
		return "uint8_t"
	case Int8:
		return "int8_t"
	case Uint16:
		return "uint16_t"
	case Int16:
		return "int16_t"
	case Uint32:
		return "uint32_t"
	case Int32:
		return "int32_t"
	case Uint64:
		return "uint64_t"
	case Int64:
		return "int64_t"
	case Char:
		return "char"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType maps an XML type token (e.g. "uint8_t", "float",
// "char") to a PrimitiveType. arrayLen is >1 when the token carried a
// "[n]" suffix, which the caller (parse.go) has already stripped.
func ParsePrimitiveType(name string) (PrimitiveType, bool) {
	switch name {
	case "uint8_t":
		return Uint8, true
	case "int8_t":
		return Int8, true
	case "uint16_t":
		return Uint16, true
	case "int16_t":
		return Int16, true
	case "uint32_t":
		return Uint32, true
	case "int32_t":
		return Int32, true
	case "uint64_t":
		return Uint64, true
	case "int64_t":
		return Int64, true
	case "char":
		return Char, true
	case "float":
		return Float, true
	case "double":
		return Double, true
	default:
		return 0, false
	}
}

// EnumRef names the enum a field's integer value should be decoded against.
type EnumRef struct {
	Name string
}

// Field is one message field, in declaration order as it appeared in the
// XML (wire reordering happens in codegen, not here).
type Field struct {
	Name         string
	Type         PrimitiveType
	ArrayLen     int // 1 for scalars, 2..255 for arrays
	Enum         *EnumRef
	Units        string
	IsExtension  bool
	Description  string
}

// Message is one <message> element.
type Message struct {
	ID          uint32
	Name        string
	Description string
	Fields      []Field
}

// Param is a <param> child of an enum <entry>, used by MAV_CMD-style enums.
type Param struct {
	Index       int
	Label       string
	Units       string
	Min, Max    *float64
	Description string
}

// Entry is one enum value.
type Entry struct {
	Name        string
	Value       *uint32 // nil when the XML omitted an explicit value
	Description string
	Params      []Param
}

// Enum is one <enum> element.
type Enum struct {
	Name        string
	Description string
	Entries     []Entry
}

// Dialect is the root of the parsed model (spec §3).
type Dialect struct {
	Version   uint8
	DialectID uint8
	Enums     []Enum
	Messages  []Message
}

// ResolvedEntries returns each entry's effective integer value, applying the
// "absent value is one greater than the previous entry's effective value;
// first unset entry is 0" rule from spec §3.
func (e Enum) ResolvedEntries() []ResolvedEntry {
	out := make([]ResolvedEntry, 0, len(e.Entries))
	var next uint32
	for _, entry := range e.Entries {
		value := next
		if entry.Value != nil {
			value = *entry.Value
		}
		out = append(out, ResolvedEntry{Entry: entry, Value: value})
		next = value + 1
	}
	return out
}

// ResolvedEntry pairs an Entry with its effective integer value.
type ResolvedEntry struct {
	Entry
	Value uint32
}
