// Package table implements TableStore: the PhysicalRow
// scan/insert/update/delete path over a PageLedger and
// FreeSegmentLedger, using a length-prefixed, alignment-padded row
// stream rather than a slot-directory page format.
package table

import (
	"encoding/binary"
	"io"
	"log/slog"

	"icdb/codec"
	"icdb/ledger"
	"icdb/pagestore"
	"icdb/schema"
)

// Location pins a row to its physical slot.
type Location struct {
	Page   pagestore.PageID
	Offset uint32
	Size   uint32 // aligned slot size including the 2-byte length header
}

// Store is the write/read path for one table's physical rows.
type Store struct {
	alloc    *pagestore.Allocator
	schema   schema.TableSchema
	pages    *ledger.PageLedger
	freeSegs *ledger.FreeSegmentLedger
	log      *slog.Logger
}

// New binds a Store to a table's already-registered ledger pages. A nil
// log discards everything.
func New(alloc *pagestore.Allocator, s schema.TableSchema, pages *ledger.PageLedger, freeSegs *ledger.FreeSegmentLedger, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{alloc: alloc, schema: s, pages: pages, freeSegs: freeSegs, log: log}
}

// alignedSize rounds 2 (length header) + payload up to the table's
// alignment.
func (t *Store) alignedSize(payloadLen int) uint32 {
	return uint32(codec.AlignUp(2+payloadLen, t.schema.Alignment))
}

// encodeRow produces the PhysicalRow bytes: { len u16 LE, payload,
// zero pad } sized to a multiple of the table's alignment.
func (t *Store) encodeRow(r schema.Record) ([]byte, error) {
	payload, err := codec.EncodeRecord(t.schema.Kinds(), r.Values)
	if err != nil {
		return nil, err
	}
	slot := t.alignedSize(len(payload))
	buf := make([]byte, slot)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(payload)))
	copy(buf[2:], payload)
	return buf, nil
}

// Insert places r into a reserved free segment or, failing that, the
// append cursor of a page with sufficient room.
func (t *Store) Insert(r schema.Record) (Location, error) {
	if err := r.Validate(t.schema); err != nil {
		return Location{}, err
	}
	rowBytes, err := t.encodeRow(r)
	if err != nil {
		return Location{}, err
	}
	size := uint32(len(rowBytes))

	if seg, ok, err := t.freeSegs.Reserve(size); err != nil {
		return Location{}, err
	} else if ok {
		if err := t.writeAt(seg.PageID, seg.Offset, rowBytes); err != nil {
			return Location{}, err
		}
		return Location{Page: seg.PageID, Offset: seg.Offset, Size: size}, nil
	}

	page, err := t.pages.FindPageFor(size)
	if err != nil {
		return Location{}, err
	}
	cursor, err := t.pages.AppendCursor(page)
	if err != nil {
		return Location{}, err
	}
	if err := t.writeAt(page, cursor, rowBytes); err != nil {
		return Location{}, err
	}
	if err := t.pages.Debit(page, size); err != nil {
		return Location{}, err
	}
	return Location{Page: page, Offset: cursor, Size: size}, nil
}

func (t *Store) writeAt(page pagestore.PageID, offset uint32, rowBytes []byte) error {
	if err := codec.CheckOffsetAligned(int(offset), t.schema.Alignment); err != nil {
		return err
	}
	return t.alloc.Store().Write(pagestore.PageOffset(page)+int64(offset), rowBytes)
}

// Update rewrites loc in place if the new encoding fits the existing
// slot exactly; otherwise it tombstones loc and inserts fresh.
func (t *Store) Update(loc Location, r schema.Record) (Location, error) {
	if err := r.Validate(t.schema); err != nil {
		return Location{}, err
	}
	rowBytes, err := t.encodeRow(r)
	if err != nil {
		return Location{}, err
	}
	if uint32(len(rowBytes)) == loc.Size {
		if err := t.writeAt(loc.Page, loc.Offset, rowBytes); err != nil {
			return Location{}, err
		}
		return loc, nil
	}
	if err := t.tombstone(loc); err != nil {
		return Location{}, err
	}
	return t.Insert(r)
}

// Delete tombstones loc and releases its slot to the FreeSegmentLedger.
func (t *Store) Delete(loc Location) error {
	return t.tombstone(loc)
}

func (t *Store) tombstone(loc Location) error {
	if err := t.zeroHeaders(loc.Page, loc.Offset, loc.Size); err != nil {
		return err
	}
	// The released slot goes to the FreeSegmentLedger only. The page
	// ledger's FreeBytes tracks tail space past the append cursor; a
	// deleted slot is almost never at the tail, so crediting it back
	// here would move the cursor behind live rows that follow it.
	return t.freeSegs.Release(loc.Page, loc.Offset, loc.Size)
}

// zeroHeaders writes a zero length-header at every alignment-unit
// boundary across span, starting at offset. Scan advances one
// alignment unit at a time on a zero header, so a tombstoned or
// shrunk slot spanning more than one alignment unit must have every
// unit zeroed, not just its first two bytes, or Scan reads stale
// payload bytes from a prior occupant as a bogus length prefix.
func (t *Store) zeroHeaders(page pagestore.PageID, offset, span uint32) error {
	align := uint32(t.schema.Alignment)
	zero := make([]byte, 2)
	for o := uint32(0); o < span; o += align {
		if err := t.writeAt(page, offset+o, zero); err != nil {
			return err
		}
	}
	return nil
}

// Row pairs a decoded Record with its physical Location.
type Row struct {
	Location Location
	Record   schema.Record
}

// Scan walks every live row across the ledger's pages, in page order
// then ascending offset within a page, stopping at each page's append
// cursor.
func (t *Store) Scan() ([]Row, error) {
	var out []Row
	align := t.schema.Alignment
	for _, pe := range t.pages.Pages() {
		cursor := pagestore.PageSize - pe.FreeBytes
		off := uint32(0)
		for off < cursor {
			header := make([]byte, 2)
			if err := t.alloc.Store().Read(pagestore.PageOffset(pe.PageID)+int64(off), header); err != nil {
				return nil, err
			}
			l := binary.LittleEndian.Uint16(header)
			if l == 0 {
				off += uint32(align)
				continue
			}
			slot := uint32(codec.AlignUp(2+int(l), align))
			payload := make([]byte, l)
			if err := t.alloc.Store().Read(pagestore.PageOffset(pe.PageID)+int64(off)+2, payload); err != nil {
				return nil, err
			}
			values, err := codec.DecodeRecord(t.schema.Kinds(), payload)
			if err != nil {
				t.log.Error("record decode failed during scan", "table", t.schema.Name, "page", pe.PageID, "offset", off, "err", err)
				return nil, err
			}
			out = append(out, Row{
				Location: Location{Page: pe.PageID, Offset: off, Size: slot},
				Record:   schema.Record{Values: values},
			})
			off += slot
		}
	}
	return out, nil
}

// Schema reports the table's schema.
func (t *Store) Schema() schema.TableSchema { return t.schema }
