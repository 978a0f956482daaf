package wire

import "bytes"

// TrimCharField decodes a fixed-capacity MAVLink char array into a Go
// string: NUL-terminated if a zero byte appears, otherwise the full
// capacity is significant (spec §3: "NUL-terminated or zero-padded ASCII
// of fixed capacity").
func TrimCharField(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
