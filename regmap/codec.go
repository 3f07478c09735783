package regmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

func (e Endianness) byteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (t ElementType) signed() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	}
	return false
}

// floatLimits gives the encodable range per integer element type.
var floatLimits = map[ElementType][2]float64{
	TypeInt8:   {math.MinInt8, math.MaxInt8},
	TypeUint8:  {0, math.MaxUint8},
	TypeInt16:  {math.MinInt16, math.MaxInt16},
	TypeUint16: {0, math.MaxUint16},
	TypeInt32:  {math.MinInt32, math.MaxInt32},
	TypeUint32: {0, math.MaxUint32},
	TypeInt64:  {math.MinInt64, math.MaxInt64},
	TypeUint64: {0, math.MaxUint64},
}

// wordsToBytes serializes words into a byte buffer under the spec's single
// endianness tag: word order and byte order within each word both follow it.
func wordsToBytes(words []uint16, e Endianness) []byte {
	order := e.byteOrder()
	buf := make([]byte, len(words)*2)
	for i, w := range words {
		order.PutUint16(buf[i*2:], w)
	}
	return buf
}

func bytesToWords(buf []byte, e Endianness) []uint16 {
	order := e.byteOrder()
	words := make([]uint16, len(buf)/2)
	for i := range words {
		words[i] = order.Uint16(buf[i*2:])
	}
	return words
}

// Decode converts raw register words into an engineering value.
//
// Integer types with identity scaling decode to int64 or uint64 exactly.
// Float types, and any type with a scale or offset, decode to float64 as
// value = raw*Scale + Offset. Strings decode to string, terminated at the
// first NUL byte or the declared width.
func (s PackingSpec) Decode(words []uint16) (interface{}, error) {
	if s.Type == TypeReserved {
		return nil, fmt.Errorf("reserved register has no packing")
	}
	buf := wordsToBytes(words, s.Endianness)
	if len(buf) < s.Width {
		return nil, fmt.Errorf("%d words cannot hold a %d-byte %s", len(words), s.Width, s.Type)
	}
	b := buf[:s.Width]
	order := s.Endianness.byteOrder()

	switch s.Type {
	case TypeString:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return string(b), nil
	case TypeFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))*s.Scale + s.Offset, nil
	case TypeFloat64:
		return math.Float64frombits(order.Uint64(b))*s.Scale + s.Offset, nil
	}

	var u uint64
	switch s.Width {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(order.Uint16(b))
	case 4:
		u = uint64(order.Uint32(b))
	case 8:
		u = order.Uint64(b)
	}

	if s.Type.signed() {
		// sign-extend from the element width
		i := int64(u << (64 - 8*s.Width)) >> (64 - 8*s.Width)
		if s.Scale == 1 && s.Offset == 0 {
			return i, nil
		}
		return float64(i)*s.Scale + s.Offset, nil
	}
	if s.Scale == 1 && s.Offset == 0 {
		return u, nil
	}
	return float64(u)*s.Scale + s.Offset, nil
}

// Encode converts an engineering value into the raw words to write,
// inverting the scale/offset transform and padding with zero bytes up to
// wordCount words.
//
// Encoding a value that overflows the target integer type returns a
// *ValueOutOfRangeError. A string longer than the declared width is
// truncated; the truncated words are returned together with a
// *ValueTruncatedError.
func (s PackingSpec) Encode(value interface{}, wordCount uint16) ([]uint16, error) {
	if s.Type == TypeReserved {
		return nil, fmt.Errorf("reserved register has no packing")
	}
	if wordCount == 0 {
		return nil, fmt.Errorf("zero word count")
	}
	buf := make([]byte, int(wordCount)*2)
	if s.Width > len(buf) {
		return nil, fmt.Errorf("%d-byte %s does not fit in %d words", s.Width, s.Type, wordCount)
	}
	order := s.Endianness.byteOrder()

	switch s.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("cannot encode %T as %s", value, s.Type)
		}
		var truncated error
		raw := []byte(str)
		if len(raw) > s.Width {
			truncated = &ValueTruncatedError{Width: s.Width, Length: len(raw)}
			raw = raw[:s.Width]
		}
		copy(buf, raw)
		return bytesToWords(buf, s.Endianness), truncated

	case TypeFloat32:
		f, err := toFloat(value, s.Type)
		if err != nil {
			return nil, err
		}
		raw := (f - s.Offset) / s.Scale
		if math.Abs(raw) > math.MaxFloat32 {
			return nil, &ValueOutOfRangeError{Value: f, Type: s.Type}
		}
		order.PutUint32(buf, math.Float32bits(float32(raw)))

	case TypeFloat64:
		f, err := toFloat(value, s.Type)
		if err != nil {
			return nil, err
		}
		order.PutUint64(buf, math.Float64bits((f-s.Offset)/s.Scale))

	default:
		u, err := s.rawInteger(value)
		if err != nil {
			return nil, err
		}
		switch s.Width {
		case 1:
			buf[0] = byte(u)
		case 2:
			order.PutUint16(buf, uint16(u))
		case 4:
			order.PutUint32(buf, uint32(u))
		case 8:
			order.PutUint64(buf, u)
		}
	}

	return bytesToWords(buf, s.Endianness), nil
}

// rawInteger produces the two's-complement raw bits for an integer element.
// Integer inputs under identity scaling take an exact path; everything else
// goes through float64 with round-to-nearest.
func (s PackingSpec) rawInteger(value interface{}) (uint64, error) {
	lim := floatLimits[s.Type]

	if s.Scale == 1 && s.Offset == 0 {
		switch v := value.(type) {
		case int:
			return s.checkSigned(int64(v))
		case int8:
			return s.checkSigned(int64(v))
		case int16:
			return s.checkSigned(int64(v))
		case int32:
			return s.checkSigned(int64(v))
		case int64:
			return s.checkSigned(v)
		case uint:
			return s.checkUnsigned(uint64(v))
		case uint8:
			return s.checkUnsigned(uint64(v))
		case uint16:
			return s.checkUnsigned(uint64(v))
		case uint32:
			return s.checkUnsigned(uint64(v))
		case uint64:
			return s.checkUnsigned(v)
		}
	}

	f, err := toFloat(value, s.Type)
	if err != nil {
		return 0, err
	}
	raw := math.Round((f - s.Offset) / s.Scale)
	if raw < lim[0] || raw > lim[1] {
		return 0, &ValueOutOfRangeError{Value: f, Type: s.Type}
	}
	if s.Type.signed() {
		return uint64(int64(raw)), nil
	}
	return uint64(raw), nil
}

func (s PackingSpec) checkSigned(i int64) (uint64, error) {
	lim := floatLimits[s.Type]
	if s.Type == TypeUint64 {
		if i < 0 {
			return 0, &ValueOutOfRangeError{Value: float64(i), Type: s.Type}
		}
		return uint64(i), nil
	}
	if float64(i) < lim[0] || float64(i) > lim[1] {
		return 0, &ValueOutOfRangeError{Value: float64(i), Type: s.Type}
	}
	return uint64(i), nil
}

func (s PackingSpec) checkUnsigned(u uint64) (uint64, error) {
	if s.Type == TypeUint64 {
		return u, nil
	}
	lim := floatLimits[s.Type]
	if float64(u) > lim[1] {
		return 0, &ValueOutOfRangeError{Value: float64(u), Type: s.Type}
	}
	return u, nil
}

func toFloat(value interface{}, typ ElementType) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("cannot encode %T as %s", value, typ)
}
