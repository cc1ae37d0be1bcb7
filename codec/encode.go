package codec

import (
	"encoding/binary"
	"unicode/utf8"
)

// SizeKindOf reports whether a Kind has a fixed wire size or a dynamic
// (length-prefixed) one, and the fixed size when applicable.
func SizeKindOf(k Kind) (SizeKind, int) { return sizeKindOf(k) }

// Alignment returns the natural alignment of a Kind: for Fixed kinds this
// equals the fixed size (1 for the zero-size Null kind); Dynamic kinds
// report DefaultAlignment (the containing table's declared alignment
// governs their slot).
func Alignment(k Kind) int {
	sk, n := sizeKindOf(k)
	if sk == Fixed {
		if n == 0 {
			return 1
		}
		return n
	}
	return DefaultAlignment
}

// DefaultAlignment is the default dynamic-table alignment.
const DefaultAlignment = 32

// MinDynamicAlignment is the smallest alignment a dynamic-width table may
// declare.
const MinDynamicAlignment = 8

// Encode serializes v to its wire form. Dynamic kinds are prefixed with a
// u32 length by the caller (Record encoding, codec/record.go); Encode
// itself returns only the payload bytes.
func Encode(v Value) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		if v.AsBool() {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case KindInt8:
		return []byte{byte(int8(v.i64))}, nil
	case KindUint8:
		return []byte{byte(v.u64)}, nil
	case KindInt16:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(int16(v.i64)))
		return buf, nil
	case KindUint16:
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(v.u64))
		return buf, nil
	case KindInt32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(v.i64)))
		return buf, nil
	case KindUint32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(v.u64))
		return buf, nil
	case KindInt64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v.i64))
		return buf, nil
	case KindUint64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, v.u64)
		return buf, nil
	case KindDecimal:
		return encodeDecimal(v.dec)
	case KindText:
		return []byte(v.text), nil
	case KindBlob:
		return v.blob, nil
	case KindDate:
		return encodeDate(v.date), nil
	case KindDateTime:
		return encodeDateTime(v.dt), nil
	case KindPrincipal:
		buf := make([]byte, 1+len(v.principal))
		buf[0] = byte(len(v.principal))
		copy(buf[1:], v.principal)
		return buf, nil
	case KindUuid:
		return v.uuid[:], nil
	case KindJson:
		return encodeJSON(v.json)
	default:
		return nil, errDecode("Value", "unknown kind")
	}
}

// Decode parses the payload bytes for a scalar of the given kind.
func Decode(k Kind, b []byte) (Value, error) {
	switch k {
	case KindNull:
		return Null(), nil
	case KindBool:
		if len(b) != 1 {
			return Value{}, errDecodeLen("Bool", 1, len(b))
		}
		return Bool(b[0] != 0), nil
	case KindInt8:
		if len(b) != 1 {
			return Value{}, errDecodeLen("Int8", 1, len(b))
		}
		return Int8(int8(b[0])), nil
	case KindUint8:
		if len(b) != 1 {
			return Value{}, errDecodeLen("Uint8", 1, len(b))
		}
		return Uint8(b[0]), nil
	case KindInt16:
		if len(b) != 2 {
			return Value{}, errDecodeLen("Int16", 2, len(b))
		}
		return Int16(int16(binary.LittleEndian.Uint16(b))), nil
	case KindUint16:
		if len(b) != 2 {
			return Value{}, errDecodeLen("Uint16", 2, len(b))
		}
		return Uint16(binary.LittleEndian.Uint16(b)), nil
	case KindInt32:
		if len(b) != 4 {
			return Value{}, errDecodeLen("Int32", 4, len(b))
		}
		return Int32(int32(binary.LittleEndian.Uint32(b))), nil
	case KindUint32:
		if len(b) != 4 {
			return Value{}, errDecodeLen("Uint32", 4, len(b))
		}
		return Uint32(binary.LittleEndian.Uint32(b)), nil
	case KindInt64:
		if len(b) != 8 {
			return Value{}, errDecodeLen("Int64", 8, len(b))
		}
		return Int64(int64(binary.LittleEndian.Uint64(b))), nil
	case KindUint64:
		if len(b) != 8 {
			return Value{}, errDecodeLen("Uint64", 8, len(b))
		}
		return Uint64(binary.LittleEndian.Uint64(b)), nil
	case KindDecimal:
		d, err := decodeDecimal(b)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil
	case KindText:
		if !utf8.Valid(b) {
			return Value{}, errDecode("Text", "invalid UTF-8")
		}
		return Text(string(b)), nil
	case KindBlob:
		return Blob(b), nil
	case KindDate:
		d, err := decodeDate(b)
		if err != nil {
			return Value{}, err
		}
		return DateValue(d), nil
	case KindDateTime:
		t, err := decodeDateTime(b)
		if err != nil {
			return Value{}, err
		}
		return DateTime(t), nil
	case KindPrincipal:
		if len(b) < 1 {
			return Value{}, errDecode("Principal", "truncated length byte")
		}
		n := int(b[0])
		if n > MaxPrincipalLen || len(b) != 1+n {
			return Value{}, errDecode("Principal", "invalid principal length")
		}
		v, err := PrincipalValue(b[1:])
		if err != nil {
			return Value{}, err
		}
		return v, nil
	case KindUuid:
		if len(b) != 16 {
			return Value{}, errDecodeLen("Uuid", 16, len(b))
		}
		var u [16]byte
		copy(u[:], b)
		return UuidValue(u), nil
	case KindJson:
		j, err := decodeJSONValue(b)
		if err != nil {
			return Value{}, err
		}
		return JSONValue(j), nil
	default:
		return Value{}, errDecode("Value", "unknown kind")
	}
}

