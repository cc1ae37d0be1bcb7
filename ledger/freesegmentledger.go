package ledger

import (
	"encoding/binary"
	"sort"

	"icdb/dberr"
	"icdb/pagestore"
)

// segEntrySize is sizeof{page_id u64, offset u32, size u32}.
const segEntrySize = 16

// freeSegHeaderSize is sizeof{next_page u64, entry_count u32}.
const freeSegHeaderSize = 12

func freeSegCapacity() int {
	return (pagestore.PageSize - freeSegHeaderSize) / segEntrySize
}

// Segment is a reclaimable hole on a data page.
type Segment struct {
	PageID pagestore.PageID
	Offset uint32
	Size   uint32
}

// FreeSegmentLedger tracks, for one table, the reclaimable holes left
// by tombstoned rows, sorted by (page_id, offset).
type FreeSegmentLedger struct {
	alloc *pagestore.Allocator
	chain []pagestore.PageID
	segs  []Segment
}

// LoadFreeSegmentLedger reads the chain starting at headPage.
func LoadFreeSegmentLedger(alloc *pagestore.Allocator, headPage pagestore.PageID) (*FreeSegmentLedger, error) {
	fl := &FreeSegmentLedger{alloc: alloc}
	page := headPage
	for {
		buf := make([]byte, pagestore.PageSize)
		if err := alloc.Store().Read(pagestore.PageOffset(page), buf); err != nil {
			return nil, err
		}
		next := pagestore.PageID(binary.LittleEndian.Uint64(buf[0:8]))
		count := binary.LittleEndian.Uint32(buf[8:12])
		if int(count) > freeSegCapacity() {
			return nil, dberr.New(dberr.CorruptedStore, "free segment ledger entry_count %d exceeds capacity", count)
		}
		fl.chain = append(fl.chain, page)
		off := freeSegHeaderSize
		for i := uint32(0); i < count; i++ {
			s := Segment{
				PageID: pagestore.PageID(binary.LittleEndian.Uint64(buf[off : off+8])),
				Offset: binary.LittleEndian.Uint32(buf[off+8 : off+12]),
				Size:   binary.LittleEndian.Uint32(buf[off+12 : off+16]),
			}
			fl.segs = append(fl.segs, s)
			off += segEntrySize
		}
		if next == 0 {
			break
		}
		page = next
	}
	fl.sort()
	return fl, nil
}

func (fl *FreeSegmentLedger) sort() {
	sort.Slice(fl.segs, func(i, j int) bool {
		if fl.segs[i].PageID != fl.segs[j].PageID {
			return fl.segs[i].PageID < fl.segs[j].PageID
		}
		return fl.segs[i].Offset < fl.segs[j].Offset
	})
}

// flush rewrites the whole chain, growing it if segs no longer fit and
// shrinking unused trailing pages is intentionally not attempted — a
// ledger chain only grows, mirroring PageLedger.
func (fl *FreeSegmentLedger) flush() error {
	fl.sort()
	needed := (len(fl.segs) + freeSegCapacity() - 1) / freeSegCapacity()
	if needed == 0 {
		needed = 1
	}
	for len(fl.chain) < needed {
		newPage, err := fl.alloc.NewPage()
		if err != nil {
			return err
		}
		fl.chain = append(fl.chain, newPage)
	}
	idx := 0
	for ci, page := range fl.chain {
		buf := make([]byte, pagestore.PageSize)
		var next pagestore.PageID
		if ci+1 < len(fl.chain) {
			next = fl.chain[ci+1]
		}
		binary.LittleEndian.PutUint64(buf[0:8], uint64(next))
		off := freeSegHeaderSize
		var count uint32
		for count < uint32(freeSegCapacity()) && idx < len(fl.segs) {
			s := fl.segs[idx]
			binary.LittleEndian.PutUint64(buf[off:off+8], uint64(s.PageID))
			binary.LittleEndian.PutUint32(buf[off+8:off+12], s.Offset)
			binary.LittleEndian.PutUint32(buf[off+12:off+16], s.Size)
			off += segEntrySize
			count++
			idx++
		}
		binary.LittleEndian.PutUint32(buf[8:12], count)
		if err := fl.alloc.Store().Write(pagestore.PageOffset(page), buf); err != nil {
			return err
		}
	}
	return nil
}

// Reserve finds the first segment of at least size bytes, splitting off
// and keeping any remainder.
func (fl *FreeSegmentLedger) Reserve(size uint32) (Segment, bool, error) {
	for i, s := range fl.segs {
		if s.Size < size {
			continue
		}
		reserved := Segment{PageID: s.PageID, Offset: s.Offset, Size: size}
		if s.Size > size {
			remainder := Segment{PageID: s.PageID, Offset: s.Offset + size, Size: s.Size - size}
			// The caller is about to overwrite [reserved.Offset,
			// reserved.Offset+size) with a fresh row; the remainder keeps
			// whatever was on the page before. Its leading length-header
			// must read as zero so a later Scan treats it as free space
			// rather than stale payload from the row this segment was
			// carved out of.
			if err := fl.zeroHeader(remainder.PageID, remainder.Offset); err != nil {
				return Segment{}, false, err
			}
			fl.segs[i] = remainder
		} else {
			fl.segs = append(fl.segs[:i], fl.segs[i+1:]...)
		}
		if err := fl.flush(); err != nil {
			return Segment{}, false, err
		}
		return reserved, true, nil
	}
	return Segment{}, false, nil
}

func (fl *FreeSegmentLedger) zeroHeader(page pagestore.PageID, offset uint32) error {
	return fl.alloc.Store().Write(pagestore.PageOffset(page)+int64(offset), make([]byte, 2))
}

// Release inserts a freed segment, merging with any segment physically
// adjacent on the same page.
func (fl *FreeSegmentLedger) Release(page pagestore.PageID, offset, size uint32) error {
	merged := Segment{PageID: page, Offset: offset, Size: size}
	out := fl.segs[:0:0]
	for _, s := range fl.segs {
		if s.PageID != page {
			out = append(out, s)
			continue
		}
		if s.Offset+s.Size == merged.Offset {
			merged.Offset = s.Offset
			merged.Size += s.Size
			continue
		}
		if merged.Offset+merged.Size == s.Offset {
			merged.Size += s.Size
			continue
		}
		out = append(out, s)
	}
	out = append(out, merged)
	fl.segs = out
	return fl.flush()
}

// PurgePage drops every segment on page.
func (fl *FreeSegmentLedger) PurgePage(page pagestore.PageID) error {
	out := fl.segs[:0:0]
	for _, s := range fl.segs {
		if s.PageID != page {
			out = append(out, s)
		}
	}
	fl.segs = out
	return fl.flush()
}

// Segments returns the ledger's segments sorted by (page_id, offset).
func (fl *FreeSegmentLedger) Segments() []Segment {
	out := make([]Segment, len(fl.segs))
	copy(out, fl.segs)
	return out
}
