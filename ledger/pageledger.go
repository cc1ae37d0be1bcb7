// Package ledger implements PageLedger and FreeSegmentLedger: the
// per-table bookkeeping TableStore consults to place and reclaim rows,
// using a chained ledger-page format with next_page links.
package ledger

import (
	"encoding/binary"

	"icdb/dberr"
	"icdb/pagestore"
)

// pageEntrySize is sizeof{page_id u64, free_bytes u32}.
const pageEntrySize = 12

// pageLedgerHeaderSize is sizeof{next_page u64, entry_count u32}.
const pageLedgerHeaderSize = 12

func pageLedgerCapacity() int {
	return (pagestore.PageSize - pageLedgerHeaderSize) / pageEntrySize
}

// PageEntry is one (page_id, free_bytes_remaining) record.
type PageEntry struct {
	PageID     pagestore.PageID
	FreeBytes  uint32
}

// PageLedger tracks, for one table, the data pages it owns and how many
// free bytes remain at the append cursor of each.
type PageLedger struct {
	alloc    *pagestore.Allocator
	headPage pagestore.PageID
	// chain mirrors the on-disk pages this ledger spans, in order.
	chain []pagestore.PageID
	// entries is the flattened, in-order union of every chained page's
	// records; index i's containing chain page is tracked in owner[i].
	entries []PageEntry
	owner   []int
}

// LoadPageLedger reads the chain starting at headPage.
func LoadPageLedger(alloc *pagestore.Allocator, headPage pagestore.PageID) (*PageLedger, error) {
	pl := &PageLedger{alloc: alloc, headPage: headPage}
	page := headPage
	for {
		buf := make([]byte, pagestore.PageSize)
		if err := alloc.Store().Read(pagestore.PageOffset(page), buf); err != nil {
			return nil, err
		}
		next := pagestore.PageID(binary.LittleEndian.Uint64(buf[0:8]))
		count := binary.LittleEndian.Uint32(buf[8:12])
		if int(count) > pageLedgerCapacity() {
			return nil, dberr.New(dberr.CorruptedStore, "page ledger entry_count %d exceeds capacity", count)
		}
		chainIdx := len(pl.chain)
		pl.chain = append(pl.chain, page)
		off := pageLedgerHeaderSize
		for i := uint32(0); i < count; i++ {
			e := PageEntry{
				PageID:    pagestore.PageID(binary.LittleEndian.Uint64(buf[off : off+8])),
				FreeBytes: binary.LittleEndian.Uint32(buf[off+8 : off+12]),
			}
			pl.entries = append(pl.entries, e)
			pl.owner = append(pl.owner, chainIdx)
			off += pageEntrySize
		}
		if next == 0 {
			break
		}
		page = next
	}
	return pl, nil
}

func (pl *PageLedger) flushChainPage(chainIdx int) error {
	page := pl.chain[chainIdx]
	var next pagestore.PageID
	if chainIdx+1 < len(pl.chain) {
		next = pl.chain[chainIdx+1]
	}
	buf := make([]byte, pagestore.PageSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(next))
	var count uint32
	off := pageLedgerHeaderSize
	for i, e := range pl.entries {
		if pl.owner[i] != chainIdx {
			continue
		}
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.PageID))
		binary.LittleEndian.PutUint32(buf[off+8:off+12], e.FreeBytes)
		off += pageEntrySize
		count++
	}
	binary.LittleEndian.PutUint32(buf[8:12], count)
	return pl.alloc.Store().Write(pagestore.PageOffset(page), buf)
}

func (pl *PageLedger) flush() error {
	for i := range pl.chain {
		if err := pl.flushChainPage(i); err != nil {
			return err
		}
	}
	return nil
}

// appendEntry adds e to the last chain page, chaining a fresh ledger
// page if the last one is full.
func (pl *PageLedger) appendEntry(e PageEntry) error {
	lastIdx := len(pl.chain) - 1
	count := 0
	for _, o := range pl.owner {
		if o == lastIdx {
			count++
		}
	}
	if count >= pageLedgerCapacity() {
		newPage, err := pl.alloc.NewPage()
		if err != nil {
			return err
		}
		pl.chain = append(pl.chain, newPage)
		lastIdx++
		if err := pl.flushChainPage(lastIdx - 1); err != nil {
			return err
		}
	}
	pl.entries = append(pl.entries, e)
	pl.owner = append(pl.owner, lastIdx)
	return pl.flushChainPage(lastIdx)
}

// FindPageFor returns a page with at least need free bytes, allocating
// a fresh data page and appending it to the ledger if none qualifies.
func (pl *PageLedger) FindPageFor(need uint32) (pagestore.PageID, error) {
	for i := range pl.entries {
		if pl.entries[i].FreeBytes >= need {
			return pl.entries[i].PageID, nil
		}
	}
	newPage, err := pl.alloc.NewPage()
	if err != nil {
		return 0, err
	}
	if err := pl.appendEntry(PageEntry{PageID: newPage, FreeBytes: pagestore.PageSize}); err != nil {
		return 0, err
	}
	return newPage, nil
}

// AppendCursor reports page_size - free_bytes_remaining for page, the
// offset at which the next row should be appended.
func (pl *PageLedger) AppendCursor(page pagestore.PageID) (uint32, error) {
	for _, e := range pl.entries {
		if e.PageID == page {
			return pagestore.PageSize - e.FreeBytes, nil
		}
	}
	return 0, dberr.New(dberr.CorruptedStore, "page %d not present in page ledger", page)
}

// Debit reduces page's free-bytes by bytes, floored at 0, and persists.
func (pl *PageLedger) Debit(page pagestore.PageID, bytes uint32) error {
	for i := range pl.entries {
		if pl.entries[i].PageID == page {
			if bytes > pl.entries[i].FreeBytes {
				pl.entries[i].FreeBytes = 0
			} else {
				pl.entries[i].FreeBytes -= bytes
			}
			return pl.flushChainPage(pl.owner[i])
		}
	}
	return dberr.New(dberr.CorruptedStore, "page %d not present in page ledger", page)
}

// Credit increases page's free-bytes by bytes, capped at PageSize, and
// persists.
func (pl *PageLedger) Credit(page pagestore.PageID, bytes uint32) error {
	for i := range pl.entries {
		if pl.entries[i].PageID == page {
			pl.entries[i].FreeBytes += bytes
			if pl.entries[i].FreeBytes > pagestore.PageSize {
				pl.entries[i].FreeBytes = pagestore.PageSize
			}
			return pl.flushChainPage(pl.owner[i])
		}
	}
	return dberr.New(dberr.CorruptedStore, "page %d not present in page ledger", page)
}

// Pages returns the ledger's (page_id, free_bytes) entries in
// deterministic chain order, the order TableStore scans follow.
func (pl *PageLedger) Pages() []PageEntry {
	out := make([]PageEntry, len(pl.entries))
	copy(out, pl.entries)
	return out
}
