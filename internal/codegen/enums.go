package codegen

import "github.com/brindlebrook/mavrelay/internal/dialectxml"

// EnumTable is the generated encode/decode pair for one enum (spec §4.1).
// Unknown decodes are not errors: the raw integer passes through, which is
// why Decode returns ok=false rather than an error — callers choose what
// "unknown" means to them.
type EnumTable struct {
	Name    string
	byName  map[string]uint32
	byValue map[uint32]string
}

// BuildEnumTable resolves an enum's entries (applying the default-value
// rule in dialectxml.Enum.ResolvedEntries) into a two-way lookup table.
func BuildEnumTable(e dialectxml.Enum) EnumTable {
	t := EnumTable{
		Name:    e.Name,
		byName:  make(map[string]uint32, len(e.Entries)),
		byValue: make(map[uint32]string, len(e.Entries)),
	}
	for _, re := range e.ResolvedEntries() {
		t.byName[re.Name] = re.Value
		t.byValue[re.Value] = re.Name
	}
	return t
}

// Encode resolves an entry name to its integer value. An unrecognized name
// is the one enum-encode case that IS an error (spec §4.1); callers surface
// that to whoever asked to pack the value.
func (t EnumTable) Encode(name string) (uint32, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// Decode resolves an integer to its entry name. ok is false for unknown
// values — not an error condition, just a signal to keep the raw integer.
func (t EnumTable) Decode(value uint32) (string, bool) {
	n, ok := t.byValue[value]
	return n, ok
}
