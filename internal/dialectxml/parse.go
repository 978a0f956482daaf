package dialectxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// xmlDialect and friends mirror the on-disk schema from spec §6 closely
// enough for encoding/xml to unmarshal it directly; Parse then lowers this
// into the Dialect model fields the rest of the system consumes.
type xmlDialect struct {
	XMLName  xml.Name     `xml:"mavlink"`
	Version  uint8        `xml:"version"`
	Dialect  uint8        `xml:"dialect"`
	Enums    xmlEnums     `xml:"enums"`
	Messages xmlMessages  `xml:"messages"`
}

type xmlEnums struct {
	Enum []xmlEnum `xml:"enum"`
}

type xmlEnum struct {
	Name        string     `xml:"name,attr"`
	Description string     `xml:"description"`
	Entry       []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Name        string     `xml:"name,attr"`
	Value       *string    `xml:"value,attr"`
	Description string     `xml:"description"`
	Param       []xmlParam `xml:"param"`
}

type xmlParam struct {
	Index       int     `xml:"index,attr"`
	Label       string  `xml:"label,attr"`
	Units       string  `xml:"units,attr"`
	MinValue    *string `xml:"minValue,attr"`
	MaxValue    *string `xml:"maxValue,attr"`
	Description string  `xml:",chardata"`
}

type xmlMessages struct {
	Message []xmlMessage `xml:"message"`
}

type xmlMessage struct {
	ID          uint32          `xml:"id,attr"`
	Name        string          `xml:"name,attr"`
	Description string          `xml:"description"`
	Items       []xmlMessageItem
}

// xmlMessageItem captures <field> and <extensions/> in document order,
// which plain struct-tag unmarshalling can't express (it groups elements by
// tag name, losing interleaving). UnmarshalXML below walks the raw token
// stream instead.
type xmlMessageItem struct {
	IsExtensionMarker bool
	Field             xmlField
}

type xmlField struct {
	Type        string `xml:"type,attr"`
	Name        string `xml:"name,attr"`
	Enum        string `xml:"enum,attr"`
	Units       string `xml:"units,attr"`
	Description string `xml:",chardata"`
}

// UnmarshalXML reads the id and name attributes, then walks <message>
// children in order so extension position is preserved.
func (m *xmlMessage) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			id, err := strconv.ParseUint(attr.Value, 10, 32)
			if err != nil {
				return fmt.Errorf("message id %q: %w", attr.Value, err)
			}
			m.ID = uint32(id)
		case "name":
			m.Name = attr.Value
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "description":
				var text string
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				m.Description = text
			case "field":
				var f xmlField
				if err := d.DecodeElement(&f, &t); err != nil {
					return err
				}
				m.Items = append(m.Items, xmlMessageItem{Field: f})
			case "extensions":
				if err := d.Skip(); err != nil {
					return err
				}
				m.Items = append(m.Items, xmlMessageItem{IsExtensionMarker: true})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
	return nil
}

// Parse reads a MAVLink dialect XML document and lowers it into a Dialect
// model. Enum default-value propagation is resolved lazily by
// Enum.ResolvedEntries; Parse itself only carries over what the XML stated.
func Parse(r io.Reader) (*Dialect, error) {
	var doc xmlDialect
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("dialectxml: decode: %w", err)
	}

	d := &Dialect{
		Version:   doc.Version,
		DialectID: doc.Dialect,
	}

	for _, xe := range doc.Enums.Enum {
		enum := Enum{Name: xe.Name, Description: xe.Description}
		for _, xentry := range xe.Entry {
			entry := Entry{Name: xentry.Name, Description: xentry.Description}
			if xentry.Value != nil {
				v, err := parseEnumValue(*xentry.Value)
				if err != nil {
					return nil, fmt.Errorf("dialectxml: enum %s entry %s: %w", xe.Name, xentry.Name, err)
				}
				entry.Value = &v
			}
			for _, xp := range xentry.Param {
				p := Param{
					Index:       xp.Index,
					Label:       xp.Label,
					Units:       xp.Units,
					Description: strings.TrimSpace(xp.Description),
				}
				if xp.MinValue != nil {
					if f, err := strconv.ParseFloat(*xp.MinValue, 64); err == nil {
						p.Min = &f
					}
				}
				if xp.MaxValue != nil {
					if f, err := strconv.ParseFloat(*xp.MaxValue, 64); err == nil {
						p.Max = &f
					}
				}
				entry.Params = append(entry.Params, p)
			}
			enum.Entries = append(enum.Entries, entry)
		}
		d.Enums = append(d.Enums, enum)
	}

	for _, xm := range doc.Messages.Message {
		msg := Message{ID: xm.ID, Name: xm.Name, Description: xm.Description}
		extension := false
		for _, item := range xm.Items {
			if item.IsExtensionMarker {
				extension = true
				continue
			}
			typeName, arrayLen, err := splitArrayType(item.Field.Type)
			if err != nil {
				return nil, fmt.Errorf("dialectxml: message %s field %s: %w", xm.Name, item.Field.Name, err)
			}
			prim, ok := ParsePrimitiveType(typeName)
			if !ok {
				return nil, fmt.Errorf("dialectxml: message %s field %s: unknown type %q", xm.Name, item.Field.Name, typeName)
			}
			f := Field{
				Name:        item.Field.Name,
				Type:        prim,
				ArrayLen:    arrayLen,
				Units:       item.Field.Units,
				IsExtension: extension,
				Description: strings.TrimSpace(item.Field.Description),
			}
			if item.Field.Enum != "" {
				f.Enum = &EnumRef{Name: item.Field.Enum}
			}
			msg.Fields = append(msg.Fields, f)
		}
		d.Messages = append(d.Messages, msg)
	}

	return d, nil
}

func parseEnumValue(raw string) (uint32, error) {
	raw = strings.TrimSpace(raw)
	v, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// splitArrayType turns "uint8_t[16]" into ("uint8_t", 16) and "float" into
// ("float", 1).
func splitArrayType(raw string) (string, int, error) {
	open := strings.IndexByte(raw, '[')
	if open < 0 {
		return raw, 1, nil
	}
	if !strings.HasSuffix(raw, "]") {
		return "", 0, fmt.Errorf("malformed array type %q", raw)
	}
	base := raw[:open]
	n, err := strconv.Atoi(raw[open+1 : len(raw)-1])
	if err != nil {
		return "", 0, fmt.Errorf("malformed array length in %q: %w", raw, err)
	}
	if n < 1 || n > 255 {
		return "", 0, fmt.Errorf("array length %d out of range 1..255 in %q", n, raw)
	}
	return base, n, nil
}
