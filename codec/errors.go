package codec

import "icdb/dberr"

func errDecodeLen(what string, want, got int) error {
	return dberr.New(dberr.DecodeError, "%s: expected %d bytes, got %d", what, want, got)
}

func errDecode(what, reason string) error {
	return dberr.New(dberr.DecodeError, "%s: %s", what, reason)
}
