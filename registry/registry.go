// Package registry implements the SchemaRegistry: the mapping from a
// TableSchema's 64-bit fingerprint to its two reserved ledger pages,
// persisted in page 0 as a compact binary layout rather than
// JSON-on-disk files.
package registry

import (
	"encoding/binary"

	"icdb/dberr"
	"icdb/pagestore"
)

const (
	magic   = 0x49444253 // "IDBS"
	version = 1
	// headerSize is the fixed prefix before the entry list: magic(4) +
	// version(2) + reserved(2) + entry_count(4).
	headerSize = 12
	// entrySize is sizeof{fingerprint u64, ledger_page u64, free_segments_page u64}.
	entrySize = 24
)

// Entry maps one table's fingerprint to its ledger pages.
type Entry struct {
	Fingerprint      uint64
	LedgerPage       pagestore.PageID
	FreeSegmentsPage pagestore.PageID
}

// Registry owns page 0 of the store.
type Registry struct {
	alloc   *pagestore.Allocator
	entries []Entry
}

// Load reads page 0, verifying magic/version, and returns a Registry.
// Unknown fingerprints already present are retained for forward
// compatibility.
func Load(alloc *pagestore.Allocator) (*Registry, error) {
	buf := make([]byte, pagestore.PageSize)
	if err := alloc.Store().Read(pagestore.PageOffset(0), buf); err != nil {
		return nil, err
	}
	r := &Registry{alloc: alloc}
	gotMagic := binary.LittleEndian.Uint32(buf[0:4])
	if gotMagic == 0 {
		// freshly grown, all-zero page: initialize.
		return r, r.flush()
	}
	if gotMagic != magic {
		return nil, dberr.New(dberr.CorruptedStore, "schema registry magic mismatch: got %#x want %#x", gotMagic, magic)
	}
	gotVersion := binary.LittleEndian.Uint16(buf[4:6])
	if gotVersion != version {
		return nil, dberr.New(dberr.CorruptedStore, "schema registry version mismatch: got %d want %d", gotVersion, version)
	}
	count := binary.LittleEndian.Uint32(buf[8:12])
	maxEntries := (pagestore.PageSize - headerSize) / entrySize
	if int(count) > maxEntries {
		return nil, dberr.New(dberr.CorruptedStore, "schema registry entry_count %d exceeds page capacity %d", count, maxEntries)
	}
	off := headerSize
	for i := uint32(0); i < count; i++ {
		e := Entry{
			Fingerprint:      binary.LittleEndian.Uint64(buf[off : off+8]),
			LedgerPage:       pagestore.PageID(binary.LittleEndian.Uint64(buf[off+8 : off+16])),
			FreeSegmentsPage: pagestore.PageID(binary.LittleEndian.Uint64(buf[off+16 : off+24])),
		}
		r.entries = append(r.entries, e)
		off += entrySize
	}
	return r, nil
}

func (r *Registry) flush() error {
	buf := make([]byte, pagestore.PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], version)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(r.entries)))
	off := headerSize
	for _, e := range r.entries {
		binary.LittleEndian.PutUint64(buf[off:off+8], e.Fingerprint)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], uint64(e.LedgerPage))
		binary.LittleEndian.PutUint64(buf[off+16:off+24], uint64(e.FreeSegmentsPage))
		off += entrySize
	}
	return r.alloc.Store().Write(pagestore.PageOffset(0), buf)
}

// Entries returns every registered entry, for operator inspection.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup finds an existing entry by fingerprint.
func (r *Registry) Lookup(fingerprint uint64) (Entry, bool) {
	for _, e := range r.entries {
		if e.Fingerprint == fingerprint {
			return e, true
		}
	}
	return Entry{}, false
}

// Register adopts an existing entry for fingerprint, or allocates two
// fresh pages (ledger, free-segments) and records them.
func (r *Registry) Register(fingerprint uint64) (Entry, error) {
	if e, ok := r.Lookup(fingerprint); ok {
		return e, nil
	}
	ledgerPage, err := r.alloc.NewPage()
	if err != nil {
		return Entry{}, err
	}
	freeSegPage, err := r.alloc.NewPage()
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Fingerprint: fingerprint, LedgerPage: ledgerPage, FreeSegmentsPage: freeSegPage}
	r.entries = append(r.entries, e)
	if err := r.flush(); err != nil {
		return Entry{}, err
	}
	return e, nil
}
