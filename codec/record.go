package codec

import (
	"encoding/binary"

	"icdb/dberr"
)

// EncodeRecord serializes an ordered tuple of Values: a
// u16 column-count prefix, then for each column a 1-byte null flag
// followed — for non-null columns — by the column's encoding. Dynamic
// kinds get a u32 length prefix ahead of their payload so DecodeRecord can
// self-delimit without consulting an external schema beyond the kind list.
func EncodeRecord(kinds []Kind, values []Value) ([]byte, error) {
	if len(kinds) != len(values) {
		return nil, dberr.New(dberr.DecodeError, "record arity %d does not match schema arity %d", len(values), len(kinds))
	}
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, uint16(len(values)))

	for i, v := range values {
		if v.IsNull() {
			out = append(out, 0)
			continue
		}
		out = append(out, 1)
		payload, err := Encode(v)
		if err != nil {
			return nil, err
		}
		sk, _ := sizeKindOf(kinds[i])
		if sk == Dynamic {
			lenBuf := make([]byte, 4)
			binary.LittleEndian.PutUint32(lenBuf, uint32(len(payload)))
			out = append(out, lenBuf...)
		}
		out = append(out, payload...)
	}
	return out, nil
}

// DecodeRecord parses bytes produced by EncodeRecord back into a Value
// tuple, using kinds to know each column's wire shape.
func DecodeRecord(kinds []Kind, data []byte) ([]Value, error) {
	if len(data) < 2 {
		return nil, dberr.New(dberr.DecodeError, "record header truncated")
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	if count != len(kinds) {
		return nil, dberr.New(dberr.DecodeError, "record arity %d does not match schema arity %d", count, len(kinds))
	}
	off := 2
	values := make([]Value, count)
	for i := 0; i < count; i++ {
		if off >= len(data) {
			return nil, dberr.New(dberr.DecodeError, "record truncated at column %d", i)
		}
		nullFlag := data[off]
		off++
		if nullFlag == 0 {
			values[i] = Null()
			continue
		}
		sk, fixedLen := sizeKindOf(kinds[i])
		n := fixedLen
		if sk == Dynamic {
			if off+4 > len(data) {
				return nil, dberr.New(dberr.DecodeError, "record truncated at column %d length prefix", i)
			}
			n = int(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		if off+n > len(data) {
			return nil, dberr.New(dberr.DecodeError, "record truncated at column %d payload", i)
		}
		v, err := Decode(kinds[i], data[off:off+n])
		if err != nil {
			return nil, err
		}
		values[i] = v
		off += n
	}
	return values, nil
}
