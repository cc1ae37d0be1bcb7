package codec

import (
	"time"

	"icdb/dberr"
)

// MaxPrincipalLen is the largest byte length an opaque Principal identity
// may carry.
const MaxPrincipalLen = 29

// Value is a tagged scalar from a closed universe of kinds.
// It is a struct with a Kind tag rather than an interface: the universe is
// closed and known at compile time, so there is no need for dynamic
// dispatch on the hot encode/compare path.
type Value struct {
	kind      Kind
	i64       int64
	u64       uint64
	dec       Decimal
	text      string
	blob      []byte
	date      Date
	dt        time.Time
	principal []byte
	uuid      [16]byte
	json      JSON
}

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func Null() Value                        { return Value{kind: KindNull} }
func Bool(b bool) Value                  { return Value{kind: KindBool, u64: boolToU64(b)} }
func Int8(n int8) Value                  { return Value{kind: KindInt8, i64: int64(n)} }
func Int16(n int16) Value                { return Value{kind: KindInt16, i64: int64(n)} }
func Int32(n int32) Value                { return Value{kind: KindInt32, i64: int64(n)} }
func Int64(n int64) Value                { return Value{kind: KindInt64, i64: n} }
func Uint8(n uint8) Value                { return Value{kind: KindUint8, u64: uint64(n)} }
func Uint16(n uint16) Value              { return Value{kind: KindUint16, u64: uint64(n)} }
func Uint32(n uint32) Value              { return Value{kind: KindUint32, u64: uint64(n)} }
func Uint64(n uint64) Value              { return Value{kind: KindUint64, u64: n} }
func DecimalValue(d Decimal) Value       { return Value{kind: KindDecimal, dec: d} }
func Text(s string) Value                { return Value{kind: KindText, text: s} }
func Blob(b []byte) Value                { return Value{kind: KindBlob, blob: append([]byte(nil), b...)} }
func DateValue(d Date) Value             { return Value{kind: KindDate, date: d} }
func DateTime(t time.Time) Value         { return Value{kind: KindDateTime, dt: t.UTC()} }
func JSONValue(j JSON) Value             { return Value{kind: KindJson, json: j} }

func PrincipalValue(b []byte) (Value, error) {
	if len(b) > MaxPrincipalLen {
		return Value{}, dberr.New(dberr.DecodeError, "principal length %d exceeds %d", len(b), MaxPrincipalLen)
	}
	return Value{kind: KindPrincipal, principal: append([]byte(nil), b...)}, nil
}

func UuidValue(u [16]byte) Value { return Value{kind: KindUuid, uuid: u} }

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) AsBool() bool          { return v.u64 != 0 }
func (v Value) AsInt64() int64        { return v.i64 }
func (v Value) AsUint64() uint64      { return v.u64 }
func (v Value) AsDecimal() Decimal    { return v.dec }
func (v Value) AsText() string        { return v.text }
func (v Value) AsBlob() []byte        { return v.blob }
func (v Value) AsDate() Date          { return v.date }
func (v Value) AsDateTime() time.Time { return v.dt }
func (v Value) AsPrincipal() []byte   { return v.principal }
func (v Value) AsUuid() [16]byte      { return v.uuid }
func (v Value) AsJSON() JSON          { return v.json }

// Equal reports structural equality. Cross-kind comparisons (other than
// with Null) are never equal.
func (v Value) Equal(o Value) bool {
	c, err := Compare(v, o)
	return err == nil && c == 0
}
