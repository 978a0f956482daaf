package codegen

import "fmt"

// GoFieldType, PackCode and UnpackCode fill in the per-field Go source fragments the
// template drops into PackFields/unpackX verbatim. Keeping this logic in Go
// rather than in template actions makes it testable and keeps the template
// itself a thin layout.
func (f fieldIR) GoFieldType() string {
	switch {
	case f.IsChar:
		return "string"
	case f.IsArray:
		return fmt.Sprintf("[%d]%s", f.ArrayLen, f.GoScalar)
	default:
		return f.GoScalar
	}
}

func (f fieldIR) PackCode() string {
	off := f.Offset
	switch {
	case f.IsChar:
		end := off + f.ArrayLen
		return fmt.Sprintf("copy(buf[%d:%d], []byte(m.%s))", off, end, f.GoName)
	case f.IsArray:
		return f.arrayPackCode()
	default:
		return f.scalarPackCode(off, fmt.Sprintf("m.%s", f.GoName))
	}
}

func (f fieldIR) UnpackCode() string {
	off := f.Offset
	switch {
	case f.IsChar:
		end := off + f.ArrayLen
		return fmt.Sprintf("m.%s = wire.TrimCharField(payload[%d:%d])", f.GoName, off, end)
	case f.IsArray:
		return f.arrayUnpackCode()
	default:
		return f.scalarUnpackCode(off)
	}
}

func (f fieldIR) scalarPackCode(off int, expr string) string {
	switch f.Primitive.Size() {
	case 1:
		return fmt.Sprintf("buf[%d] = byte(%s)", off, expr)
	case 2:
		return fmt.Sprintf("binary.LittleEndian.PutUint16(buf[%d:], uint16(%s))", off, expr)
	case 4:
		if f.GoScalar == "float32" {
			return fmt.Sprintf("binary.LittleEndian.PutUint32(buf[%d:], math.Float32bits(%s))", off, expr)
		}
		return fmt.Sprintf("binary.LittleEndian.PutUint32(buf[%d:], uint32(%s))", off, expr)
	default:
		if f.GoScalar == "float64" {
			return fmt.Sprintf("binary.LittleEndian.PutUint64(buf[%d:], math.Float64bits(%s))", off, expr)
		}
		return fmt.Sprintf("binary.LittleEndian.PutUint64(buf[%d:], uint64(%s))", off, expr)
	}
}

func (f fieldIR) scalarUnpackCode(off int) string {
	switch f.Primitive.Size() {
	case 1:
		if f.GoScalar == "int8" {
			return fmt.Sprintf("m.%s = int8(payload[%d])", f.GoName, off)
		}
		return fmt.Sprintf("m.%s = payload[%d]", f.GoName, off)
	case 2:
		if f.GoScalar == "int16" {
			return fmt.Sprintf("m.%s = int16(binary.LittleEndian.Uint16(payload[%d:]))", f.GoName, off)
		}
		return fmt.Sprintf("m.%s = binary.LittleEndian.Uint16(payload[%d:])", f.GoName, off)
	case 4:
		switch f.GoScalar {
		case "float32":
			return fmt.Sprintf("m.%s = math.Float32frombits(binary.LittleEndian.Uint32(payload[%d:]))", f.GoName, off)
		case "int32":
			return fmt.Sprintf("m.%s = int32(binary.LittleEndian.Uint32(payload[%d:]))", f.GoName, off)
		default:
			return fmt.Sprintf("m.%s = binary.LittleEndian.Uint32(payload[%d:])", f.GoName, off)
		}
	default:
		switch f.GoScalar {
		case "float64":
			return fmt.Sprintf("m.%s = math.Float64frombits(binary.LittleEndian.Uint64(payload[%d:]))", f.GoName, off)
		case "int64":
			return fmt.Sprintf("m.%s = int64(binary.LittleEndian.Uint64(payload[%d:]))", f.GoName, off)
		default:
			return fmt.Sprintf("m.%s = binary.LittleEndian.Uint64(payload[%d:])", f.GoName, off)
		}
	}
}

func (f fieldIR) arrayPackCode() string {
	sz := f.Primitive.Size()
	if sz == 1 {
		return fmt.Sprintf("copy(buf[%d:%d], m.%s[:])", f.Offset, f.Offset+f.ArrayLen, f.GoName)
	}
	elemOff := fmt.Sprintf("%d+i*%d", f.Offset, sz)
	stmt := f.scalarPackCode0(elemOff, fmt.Sprintf("m.%s[i]", f.GoName))
	return fmt.Sprintf("for i := 0; i < %d; i++ { %s }", f.ArrayLen, stmt)
}

func (f fieldIR) arrayUnpackCode() string {
	sz := f.Primitive.Size()
	if sz == 1 {
		return fmt.Sprintf("copy(m.%s[:], payload[%d:%d])", f.GoName, f.Offset, f.Offset+f.ArrayLen)
	}
	elemOff := fmt.Sprintf("%d+i*%d", f.Offset, sz)
	stmt := f.scalarUnpackCode0(elemOff, fmt.Sprintf("m.%s[i]", f.GoName))
	return fmt.Sprintf("for i := 0; i < %d; i++ { %s }", f.ArrayLen, stmt)
}

// scalarPackCode0/scalarUnpackCode0 are the array-element variants: the
// byte offset is a Go expression (e.g. "8+i*2") rather than a literal int.
func (f fieldIR) scalarPackCode0(offExpr, expr string) string {
	switch f.Primitive.Size() {
	case 1:
		return fmt.Sprintf("buf[%s] = byte(%s)", offExpr, expr)
	case 2:
		return fmt.Sprintf("binary.LittleEndian.PutUint16(buf[%s:], uint16(%s))", offExpr, expr)
	case 4:
		if f.GoScalar == "float32" {
			return fmt.Sprintf("binary.LittleEndian.PutUint32(buf[%s:], math.Float32bits(%s))", offExpr, expr)
		}
		return fmt.Sprintf("binary.LittleEndian.PutUint32(buf[%s:], uint32(%s))", offExpr, expr)
	default:
		if f.GoScalar == "float64" {
			return fmt.Sprintf("binary.LittleEndian.PutUint64(buf[%s:], math.Float64bits(%s))", offExpr, expr)
		}
		return fmt.Sprintf("binary.LittleEndian.PutUint64(buf[%s:], uint64(%s))", offExpr, expr)
	}
}

func (f fieldIR) scalarUnpackCode0(offExpr, lhs string) string {
	switch f.Primitive.Size() {
	case 1:
		if f.GoScalar == "int8" {
			return fmt.Sprintf("%s = int8(payload[%s])", lhs, offExpr)
		}
		return fmt.Sprintf("%s = payload[%s]", lhs, offExpr)
	case 2:
		if f.GoScalar == "int16" {
			return fmt.Sprintf("%s = int16(binary.LittleEndian.Uint16(payload[%s:]))", lhs, offExpr)
		}
		return fmt.Sprintf("%s = binary.LittleEndian.Uint16(payload[%s:])", lhs, offExpr)
	case 4:
		switch f.GoScalar {
		case "float32":
			return fmt.Sprintf("%s = math.Float32frombits(binary.LittleEndian.Uint32(payload[%s:]))", lhs, offExpr)
		case "int32":
			return fmt.Sprintf("%s = int32(binary.LittleEndian.Uint32(payload[%s:]))", lhs, offExpr)
		default:
			return fmt.Sprintf("%s = binary.LittleEndian.Uint32(payload[%s:])", lhs, offExpr)
		}
	default:
		switch f.GoScalar {
		case "float64":
			return fmt.Sprintf("%s = math.Float64frombits(binary.LittleEndian.Uint64(payload[%s:]))", lhs, offExpr)
		case "int64":
			return fmt.Sprintf("%s = int64(binary.LittleEndian.Uint64(payload[%s:]))", lhs, offExpr)
		default:
			return fmt.Sprintf("%s = binary.LittleEndian.Uint64(payload[%s:])", lhs, offExpr)
		}
	}
}

// TargetIDsExpr renders the body of TargetIDs() for a message.
func (m messageIR) TargetIDsExpr() string {
	if !m.Targeted {
		return "return 0, 0"
	}
	hasSys, hasComp := false, false
	for _, f := range m.Fields {
		if f.GoName == "TargetSystem" {
			hasSys = true
		}
		if f.GoName == "TargetComponent" {
			hasComp = true
		}
	}
	sys, comp := "0", "0"
	if hasSys {
		sys = "m.TargetSystem"
	}
	if hasComp {
		comp = "m.TargetComponent"
	}
	return fmt.Sprintf("return %s, %s", sys, comp)
}
