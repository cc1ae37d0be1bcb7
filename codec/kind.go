package codec

// Kind tags the closed scalar universe a Value can hold.
// The sum type is closed and known at compile time: Value is a tagged
// struct, not an interface, so there is no dynamic dispatch on the hot
// encode/compare paths.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindDecimal
	KindText
	KindBlob
	KindDate
	KindDateTime
	KindPrincipal
	KindUuid
	KindJson
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindDecimal:
		return "Decimal"
	case KindText:
		return "Text"
	case KindBlob:
		return "Blob"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindPrincipal:
		return "Principal"
	case KindUuid:
		return "Uuid"
	case KindJson:
		return "Json"
	default:
		return "Unknown"
	}
}

// SizeKind is either a fixed number of bytes or a dynamic (length-prefixed)
// encoding.
type SizeKind uint8

const (
	Fixed SizeKind = iota
	Dynamic
)

// sizeKindOf reports the wire shape for every Kind. Dynamic
// kinds carry their own length prefix and have no inherent fixed size.
func sizeKindOf(k Kind) (SizeKind, int) {
	switch k {
	case KindNull:
		return Fixed, 0
	case KindBool, KindInt8, KindUint8:
		return Fixed, 1
	case KindInt16, KindUint16:
		return Fixed, 2
	case KindInt32, KindUint32, KindDate:
		return Fixed, 4
	case KindInt64, KindUint64, KindDateTime:
		return Fixed, 8
	case KindDecimal:
		return Fixed, DecimalSize
	case KindUuid:
		return Fixed, 16
	case KindText, KindBlob, KindPrincipal, KindJson:
		return Dynamic, 0
	default:
		return Dynamic, 0
	}
}
