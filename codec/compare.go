package codec

import (
	"bytes"
	"icdb/dberr"
)

// Compare implements a total order: Null sorts below
// all non-null values; cross-kind comparisons between two non-null values
// of different kinds are an error.
func Compare(a, b Value) (int, error) {
	if a.kind == KindNull && b.kind == KindNull {
		return 0, nil
	}
	if a.kind == KindNull {
		return -1, nil
	}
	if b.kind == KindNull {
		return 1, nil
	}
	if a.kind != b.kind {
		return 0, dberr.New(dberr.InvalidQuery, "cannot compare %s with %s", a.kind, b.kind)
	}
	switch a.kind {
	case KindBool:
		return cmpBool(a.AsBool(), b.AsBool()), nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return cmpInt64(a.i64, b.i64), nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return cmpUint64(a.u64, b.u64), nil
	case KindDecimal:
		return a.dec.Cmp(b.dec), nil
	case KindText:
		return cmpString(a.text, b.text), nil
	case KindBlob:
		return bytes.Compare(a.blob, b.blob), nil
	case KindDate:
		return cmpDate(a.date, b.date), nil
	case KindDateTime:
		switch {
		case a.dt.Before(b.dt):
			return -1, nil
		case a.dt.After(b.dt):
			return 1, nil
		default:
			return 0, nil
		}
	case KindPrincipal:
		return bytes.Compare(a.principal, b.principal), nil
	case KindUuid:
		return bytes.Compare(a.uuid[:], b.uuid[:]), nil
	case KindJson:
		return CompareJSON(a.json, b.json), nil
	default:
		return 0, dberr.New(dberr.InvalidQuery, "cannot compare values of kind %s", a.kind)
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDate(a, b Date) int {
	if a.Year != b.Year {
		return cmpInt64(int64(a.Year), int64(b.Year))
	}
	if a.Month != b.Month {
		return cmpInt64(int64(a.Month), int64(b.Month))
	}
	return cmpInt64(int64(a.Day), int64(b.Day))
}
