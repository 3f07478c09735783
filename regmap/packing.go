package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Endianness selects the byte order of a packed value. A single tag governs
// both the inter-word order and the byte order within each word.
type Endianness int

const (
	// BigEndian packs the most significant byte first (specifier '>')
	BigEndian Endianness = iota

	// LittleEndian packs the least significant byte first (specifier '<')
	LittleEndian
)

func (e Endianness) String() string {
	if e == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// ElementType identifies the value type a register packs.
type ElementType int

const (
	TypeInt8 ElementType = iota
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64

	// TypeString is a fixed-length ASCII string; the length comes from the
	// specifier (e.g. ">16s")
	TypeString

	// TypeReserved marks a placeholder row ('#') that carries no codec.
	// Such registers exist in the map but cannot be read or written.
	TypeReserved
)

var typeNames = map[ElementType]string{
	TypeInt8:     "int8",
	TypeUint8:    "uint8",
	TypeInt16:    "int16",
	TypeUint16:   "uint16",
	TypeInt32:    "int32",
	TypeUint32:   "uint32",
	TypeInt64:    "int64",
	TypeUint64:   "uint64",
	TypeFloat32:  "float32",
	TypeFloat64:  "float64",
	TypeString:   "string",
	TypeReserved: "reserved",
}

func (t ElementType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// typeCodes is the specifier symbol table: code byte to element type and
// fixed byte width.
var typeCodes = map[byte]struct {
	typ   ElementType
	width int
}{
	'b': {TypeInt8, 1},
	'B': {TypeUint8, 1},
	'h': {TypeInt16, 2},
	'H': {TypeUint16, 2},
	'l': {TypeInt32, 4},
	'L': {TypeUint32, 4},
	'q': {TypeInt64, 8},
	'Q': {TypeUint64, 8},
	'f': {TypeFloat32, 4},
	'd': {TypeFloat64, 8},
}

// PackingSpec is a decoded packing specifier. The zero value is not valid;
// use ParsePackingSpec.
type PackingSpec struct {
	// Endianness governs inter-word and intra-word byte order
	Endianness Endianness

	// Type is the element type
	Type ElementType

	// Width is the element width in bytes. For TypeString it is the
	// declared string length.
	Width int

	// Scale and Offset transform the raw value on decode as
	// value = raw*Scale + Offset, and inversely on encode.
	Scale  float64
	Offset float64

	raw string
}

// String returns the original specifier text.
func (s PackingSpec) String() string {
	return s.raw
}

// ParsePackingSpec parses a packing specifier of the form
//
//	<endian><type>[:<scale>][:<offset>]
//
// where endian is '>' (big) or '<' (little) and type is one of the struct
// codes b B h H l L q Q f d, or <N>s for an N-byte string. The bare token
// "#" denotes a reserved placeholder row.
func ParsePackingSpec(spec string) (PackingSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "#" {
		return PackingSpec{Type: TypeReserved, Scale: 1, raw: spec}, nil
	}
	if spec == "" {
		return PackingSpec{}, fmt.Errorf("empty packing specifier")
	}

	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return PackingSpec{}, fmt.Errorf("packing specifier %q has too many fields", spec)
	}

	head := parts[0]
	if len(head) < 2 {
		return PackingSpec{}, fmt.Errorf("packing specifier %q is too short", spec)
	}

	out := PackingSpec{Scale: 1, raw: spec}
	switch head[0] {
	case '>':
		out.Endianness = BigEndian
	case '<':
		out.Endianness = LittleEndian
	default:
		return PackingSpec{}, fmt.Errorf("unknown endianness %q in packing specifier %q", head[0], spec)
	}

	code := head[1:]
	if strings.HasSuffix(code, "s") {
		width, err := strconv.Atoi(code[:len(code)-1])
		if err != nil || width <= 0 {
			return PackingSpec{}, fmt.Errorf("invalid string width in packing specifier %q", spec)
		}
		out.Type = TypeString
		out.Width = width
	} else if len(code) == 1 {
		entry, ok := typeCodes[code[0]]
		if !ok {
			return PackingSpec{}, fmt.Errorf("unknown type code %q in packing specifier %q", code, spec)
		}
		out.Type = entry.typ
		out.Width = entry.width
	} else {
		return PackingSpec{}, fmt.Errorf("unknown type code %q in packing specifier %q", code, spec)
	}

	if len(parts) > 1 {
		scale, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return PackingSpec{}, fmt.Errorf("invalid scale %q in packing specifier %q", parts[1], spec)
		}
		if scale == 0 {
			return PackingSpec{}, fmt.Errorf("scale must be non-zero in packing specifier %q", spec)
		}
		out.Scale = scale
	}
	if len(parts) > 2 {
		offset, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return PackingSpec{}, fmt.Errorf("invalid offset %q in packing specifier %q", parts[2], spec)
		}
		out.Offset = offset
	}

	if out.Type == TypeString && (out.Scale != 1 || out.Offset != 0) {
		return PackingSpec{}, fmt.Errorf("scale/offset not applicable to string type in packing specifier %q", spec)
	}

	return out, nil
}
