package schema

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes a stable 64-bit hash of a TableSchema's shape, used
// by SchemaRegistry to find a table's ledger pages after a restart.
//
// Uses xxhash — already an indirect dependency via the ristretto cache —
// over a canonical byte encoding of the table name and
// each column's name/type/nullable/PK/FK shape, so two TableSchema values
// with the same columns in the same order always fingerprint identically
// regardless of in-memory representation.
func Fingerprint(s TableSchema) uint64 {
	h := xxhash.New()
	writeString(h, s.Name)
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(s.Columns)))
	h.Write(buf[0:4])
	for _, c := range s.Columns {
		writeString(h, c.Name)
		h.Write([]byte{byte(c.DataType)})
		h.Write([]byte{boolByte(c.Nullable), boolByte(c.IsPrimaryKey)})
		if c.ForeignKey != nil {
			h.Write([]byte{1})
			writeString(h, c.ForeignKey.TargetTable)
			writeString(h, c.ForeignKey.TargetColumn)
		} else {
			h.Write([]byte{0})
		}
	}
	return h.Sum64()
}

func writeString(h *xxhash.Digest, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	h.Write(lenBuf[:])
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
