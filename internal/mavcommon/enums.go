package mavcommon

import "github.com/brindlebrook/mavrelay/internal/codegen"

var enumTables map[string]codegen.EnumTable

func init() {
	enumTables = make(map[string]codegen.EnumTable, len(Dialect.Enums))
	for _, e := range Dialect.Enums {
		enumTables[e.Name] = codegen.BuildEnumTable(e)
	}
}

// EnumTable returns the encode/decode table for a named enum (e.g.
// "MAV_STATE"), or false if this dialect has none by that name.
func EnumTable(name string) (codegen.EnumTable, bool) {
	t, ok := enumTables[name]
	return t, ok
}
