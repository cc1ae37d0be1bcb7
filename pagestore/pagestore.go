// Package pagestore implements the raw, byte-addressable, page-granular
// persistent memory abstraction. It is the leaf of the component stack:
// every other layer eventually reads and writes through a Store.
package pagestore

import "icdb/dberr"

// PageSize is the store's natural page size, fixed at compile time.
const PageSize = 64 * 1024

// PageID identifies a page by its 0-based index.
type PageID uint64

// Store is the contract every PageStore binding implements.
type Store interface {
	// Size reports the store's total addressable byte size.
	Size() int64
	// PageCount reports the number of allocated pages.
	PageCount() uint64
	// Grow appends `pages` fresh, zeroed pages and returns the prior page
	// count, or a dberr.InsufficientSpace error if the host rejects growth.
	Grow(pages uint64) (priorPageCount uint64, err error)
	// Read copies len(buf) bytes starting at offset into buf. Reads
	// entirely inside allocated space always succeed; any byte outside
	// range is dberr.OutOfBounds.
	Read(offset int64, buf []byte) error
	// Write copies buf into the store starting at offset. Writes entirely
	// inside allocated space always succeed; any byte outside range is
	// dberr.OutOfBounds.
	Write(offset int64, buf []byte) error
}

// PageOffset returns the byte offset of the start of page id.
func PageOffset(id PageID) int64 {
	return int64(id) * PageSize
}

func checkBounds(size int64, offset int64, n int) error {
	if offset < 0 || n < 0 {
		return dberr.New(dberr.OutOfBounds, "negative offset or length")
	}
	if offset+int64(n) > size {
		return dberr.New(dberr.OutOfBounds, "access [%d,%d) exceeds store size %d", offset, offset+int64(n), size)
	}
	return nil
}
