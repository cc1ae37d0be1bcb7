package codec

import "icdb/dberr"

// AlignUp rounds n up to the next multiple of alignment. alignment need
// not be a power of two — fixed-width tables declare an alignment equal
// to their exact row size, which is rarely one.
func AlignUp(n, alignment int) int {
	if alignment <= 1 {
		return n
	}
	return ((n + alignment - 1) / alignment) * alignment
}

// IsPowerOfTwo reports whether n is a power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ValidateAlignment checks that, for Dynamic-width tables, alignment is a
// power of two no smaller than MinDynamicAlignment.
func ValidateAlignment(alignment int) error {
	if alignment < MinDynamicAlignment || !IsPowerOfTwo(alignment) {
		return dberr.New(dberr.CorruptedStore, "alignment %d must be a power of two >= %d", alignment, MinDynamicAlignment)
	}
	return nil
}

// ValidateFixedAlignment checks that a fixed-width table's declared
// alignment equals its exact row size, so AlignUp never introduces
// padding for it.
func ValidateFixedAlignment(declared, rowSize int) error {
	if declared != rowSize {
		return dberr.New(dberr.CorruptedStore, "fixed-width alignment %d must equal row size %d", declared, rowSize)
	}
	return nil
}

// CheckOffsetAligned enforces that a slot written at offset o satisfies
// o%alignment==0. Violation signals
// corruption; the caller must not retry.
func CheckOffsetAligned(offset, alignment int) error {
	if alignment > 0 && offset%alignment != 0 {
		return dberr.New(dberr.OffsetNotAligned, "offset %d is not a multiple of alignment %d", offset, alignment)
	}
	return nil
}
