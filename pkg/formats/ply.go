// Package formats provides parsers and decoders for 3D point-container
// and mesh file formats.
// PLY container header parser and record layout computation.
package formats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PLY parsing errors.
var (
	ErrMalformedHeader     = errors.New("ply: end_header not found in scan window")
	ErrUnsupportedEncoding = errors.New("ply: unsupported payload encoding")
	ErrTruncatedData       = errors.New("ply: truncated record data")
)

// headerScanWindow is the maximum number of bytes searched for the header
// terminator. Headers are textual and always precede any binary payload.
const headerScanWindow = 8192

const headerTerminator = "end_header"

// Encoding describes how the record payload is stored.
type Encoding int

const (
	EncodingASCII Encoding = iota
	EncodingBinaryLE
	EncodingBinaryBE
)

// String returns the header token for the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingBinaryLE:
		return "binary_little_endian"
	case EncodingBinaryBE:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// ScalarType is the declared type of a single property.
type ScalarType int

const (
	TypeFloat32 ScalarType = iota
	TypeFloat64
	TypeUint8
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
)

// ByteSize returns the encoded size of the scalar type in bytes.
func (t ScalarType) ByteSize() int {
	switch t {
	case TypeFloat64:
		return 8
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint8, TypeInt8:
		return 1
	default:
		return 4
	}
}

// String returns the canonical header token for the scalar type.
func (t ScalarType) String() string {
	switch t {
	case TypeFloat32:
		return "float"
	case TypeFloat64:
		return "double"
	case TypeUint8:
		return "uchar"
	case TypeInt8:
		return "char"
	case TypeUint16:
		return "ushort"
	case TypeInt16:
		return "short"
	case TypeUint32:
		return "uint"
	case TypeInt32:
		return "int"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// parseScalarType maps a header type token to a ScalarType.
// Both the classic PLY tokens and their sized aliases are accepted.
func parseScalarType(tok string) (ScalarType, bool) {
	switch tok {
	case "float", "float32":
		return TypeFloat32, true
	case "double", "float64":
		return TypeFloat64, true
	case "uchar", "uint8":
		return TypeUint8, true
	case "char", "int8":
		return TypeInt8, true
	case "ushort", "uint16":
		return TypeUint16, true
	case "short", "int16":
		return TypeInt16, true
	case "uint", "uint32":
		return TypeUint32, true
	case "int", "int32":
		return TypeInt32, true
	default:
		return TypeFloat32, false
	}
}

// Property describes one declared field of a record.
type Property struct {
	Name       string
	Type       ScalarType
	ByteOffset int

	// List properties (variable-length, e.g. face vertex indices) carry a
	// count type and do not participate in fixed record layout.
	IsList    bool
	CountType ScalarType
}

// Element is one element declaration with its ordered properties.
type Element struct {
	Name       string
	Count      int
	Properties []Property

	// ByteSize is the fixed record size, or 0 if the element contains a
	// list property and records are variable-length.
	ByteSize int
}

// HasList reports whether the element contains any list property.
func (e *Element) HasList() bool {
	for i := range e.Properties {
		if e.Properties[i].IsList {
			return true
		}
	}
	return false
}

// ContainerLayout is the parsed description of a PLY container: payload
// encoding, element declarations, and the byte layout of vertex records.
// It is computed once per file and consumed read-only.
type ContainerLayout struct {
	Encoding Encoding
	Elements []Element

	// Vertex record layout. RecordCount is the declared vertex count,
	// BytesPerRecord the fixed vertex record size, DataStart the byte
	// offset of the first payload byte.
	RecordCount    int
	BytesPerRecord int
	DataStart      int

	// Lookup by property name, built once so per-record decoding never
	// scans the property list. Duplicate names keep the last occurrence.
	vertexProps map[string]Property
}

// Property returns the vertex property descriptor with the given name.
func (l *ContainerLayout) Property(name string) (Property, bool) {
	p, ok := l.vertexProps[name]
	return p, ok
}

// HasProperty reports whether the vertex element declares the named property.
func (l *ContainerLayout) HasProperty(name string) bool {
	_, ok := l.vertexProps[name]
	return ok
}

// PropertyNames returns the vertex property names in declaration order.
func (l *ContainerLayout) PropertyNames() []string {
	v := l.VertexElement()
	if v == nil {
		return nil
	}
	names := make([]string, 0, len(v.Properties))
	for i := range v.Properties {
		names = append(names, v.Properties[i].Name)
	}
	return names
}

// VertexElement returns the vertex element declaration, or nil.
func (l *ContainerLayout) VertexElement() *Element {
	return l.Element("vertex")
}

// Element returns the named element declaration, or nil.
func (l *ContainerLayout) Element(name string) *Element {
	for i := range l.Elements {
		if l.Elements[i].Name == name {
			return &l.Elements[i]
		}
	}
	return nil
}

// ParseHeader parses the textual PLY header from the start of data and
// computes the container layout. Only the first 8 KiB are scanned; if no
// end_header terminator occurs within that window the file is rejected
// with ErrMalformedHeader.
func ParseHeader(data []byte) (*ContainerLayout, error) {
	window := data
	if len(window) > headerScanWindow {
		window = window[:headerScanWindow]
	}

	end := strings.Index(string(window), headerTerminator)
	if end < 0 {
		return nil, ErrMalformedHeader
	}

	layout := &ContainerLayout{
		Encoding:    EncodingBinaryLE,
		vertexProps: make(map[string]Property),
	}

	// Data begins past the terminator and its line ending (LF or CRLF).
	dataStart := end + len(headerTerminator)
	if dataStart < len(data) && data[dataStart] == '\r' {
		dataStart++
	}
	if dataStart < len(data) && data[dataStart] == '\n' {
		dataStart++
	}
	layout.DataStart = dataStart

	lines := strings.Split(string(window[:end]), "\n")
	for _, line := range lines {
		fields := strings.Fields(strings.TrimSuffix(line, "\r"))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				continue
			}
			switch fields[1] {
			case "ascii":
				layout.Encoding = EncodingASCII
			case "binary_little_endian":
				layout.Encoding = EncodingBinaryLE
			case "binary_big_endian":
				layout.Encoding = EncodingBinaryBE
			default:
				return nil, fmt.Errorf("%w: format %q", ErrUnsupportedEncoding, fields[1])
			}

		case "element":
			if len(fields) < 3 {
				continue
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: bad element count %q", ErrMalformedHeader, fields[2])
			}
			layout.Elements = append(layout.Elements, Element{
				Name:  fields[1],
				Count: count,
			})

		case "property":
			if len(layout.Elements) == 0 {
				// Property before any element declaration; ignore.
				continue
			}
			elem := &layout.Elements[len(layout.Elements)-1]

			if len(fields) >= 5 && fields[1] == "list" {
				countType, ok1 := parseScalarType(fields[2])
				indexType, ok2 := parseScalarType(fields[3])
				if !ok1 || !ok2 {
					continue
				}
				elem.Properties = append(elem.Properties, Property{
					Name:      fields[4],
					Type:      indexType,
					IsList:    true,
					CountType: countType,
				})
				continue
			}

			if len(fields) < 3 {
				continue
			}
			typ, ok := parseScalarType(fields[1])
			if !ok {
				continue
			}
			prop := Property{
				Name:       fields[2],
				Type:       typ,
				ByteOffset: elem.ByteSize,
			}
			elem.Properties = append(elem.Properties, prop)
			elem.ByteSize += typ.ByteSize()
		}
	}

	if v := layout.VertexElement(); v != nil {
		layout.RecordCount = v.Count
		if v.HasList() {
			v.ByteSize = 0
		}
		layout.BytesPerRecord = v.ByteSize
		for i := range v.Properties {
			if !v.Properties[i].IsList {
				// Last occurrence wins for duplicate names.
				layout.vertexProps[v.Properties[i].Name] = v.Properties[i]
			}
		}
	}

	return layout, nil
}
