package ledger

import (
	"testing"

	"icdb/pagestore"
)

func newTestAllocator(t *testing.T) *pagestore.Allocator {
	t.Helper()
	alloc, err := pagestore.NewAllocator(pagestore.NewHeap())
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	return alloc
}

func newPageLedger(t *testing.T, alloc *pagestore.Allocator) *PageLedger {
	t.Helper()
	head, err := alloc.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	pl, err := LoadPageLedger(alloc, head)
	if err != nil {
		t.Fatalf("LoadPageLedger: %v", err)
	}
	return pl
}

func TestFindPageForAllocatesOnEmptyLedger(t *testing.T) {
	alloc := newTestAllocator(t)
	pl := newPageLedger(t, alloc)

	page, err := pl.FindPageFor(128)
	if err != nil {
		t.Fatalf("FindPageFor: %v", err)
	}
	cursor, err := pl.AppendCursor(page)
	if err != nil {
		t.Fatalf("AppendCursor: %v", err)
	}
	if cursor != 0 {
		t.Fatalf("fresh page append cursor = %d, want 0", cursor)
	}
}

func TestDebitCreditRoundTrip(t *testing.T) {
	alloc := newTestAllocator(t)
	pl := newPageLedger(t, alloc)
	page, err := pl.FindPageFor(64)
	if err != nil {
		t.Fatalf("FindPageFor: %v", err)
	}
	if err := pl.Debit(page, 64); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	cursor, err := pl.AppendCursor(page)
	if err != nil {
		t.Fatalf("AppendCursor: %v", err)
	}
	if cursor != 64 {
		t.Fatalf("cursor = %d, want 64", cursor)
	}
	if err := pl.Credit(page, 64); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	cursor, err = pl.AppendCursor(page)
	if err != nil {
		t.Fatalf("AppendCursor: %v", err)
	}
	if cursor != 0 {
		t.Fatalf("cursor after full credit = %d, want 0", cursor)
	}
}

func TestPageLedgerPersistsAcrossReload(t *testing.T) {
	alloc := newTestAllocator(t)
	head, err := alloc.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	pl, err := LoadPageLedger(alloc, head)
	if err != nil {
		t.Fatalf("LoadPageLedger: %v", err)
	}
	page, err := pl.FindPageFor(100)
	if err != nil {
		t.Fatalf("FindPageFor: %v", err)
	}
	if err := pl.Debit(page, 100); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	reloaded, err := LoadPageLedger(alloc, head)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	cursor, err := reloaded.AppendCursor(page)
	if err != nil {
		t.Fatalf("AppendCursor: %v", err)
	}
	if cursor != 100 {
		t.Fatalf("cursor after reload = %d, want 100", cursor)
	}
}

func newFreeSegmentLedger(t *testing.T, alloc *pagestore.Allocator) *FreeSegmentLedger {
	t.Helper()
	head, err := alloc.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	fl, err := LoadFreeSegmentLedger(alloc, head)
	if err != nil {
		t.Fatalf("LoadFreeSegmentLedger: %v", err)
	}
	return fl
}

func TestReserveMissOnEmptyLedger(t *testing.T) {
	alloc := newTestAllocator(t)
	fl := newFreeSegmentLedger(t, alloc)
	_, ok, err := fl.Reserve(32)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if ok {
		t.Fatalf("expected miss on empty free segment ledger")
	}
}

func TestReserveSplitsRemainder(t *testing.T) {
	alloc := newTestAllocator(t)
	fl := newFreeSegmentLedger(t, alloc)
	page, err := alloc.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := fl.Release(page, 0, 128); err != nil {
		t.Fatalf("Release: %v", err)
	}
	seg, ok, err := fl.Reserve(32)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !ok {
		t.Fatalf("expected hit")
	}
	if seg.Offset != 0 || seg.Size != 32 {
		t.Fatalf("got segment %+v, want offset 0 size 32", seg)
	}
	remaining := fl.Segments()
	if len(remaining) != 1 || remaining[0].Offset != 32 || remaining[0].Size != 96 {
		t.Fatalf("remainder = %+v, want single segment {offset:32 size:96}", remaining)
	}
}

func TestReleaseMergesAdjacentSegments(t *testing.T) {
	alloc := newTestAllocator(t)
	fl := newFreeSegmentLedger(t, alloc)
	page := pagestore.PageID(3)
	if err := fl.Release(page, 0, 32); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := fl.Release(page, 32, 32); err != nil {
		t.Fatalf("Release: %v", err)
	}
	segs := fl.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected segments to merge into one, got %+v", segs)
	}
	if segs[0].Offset != 0 || segs[0].Size != 64 {
		t.Fatalf("merged segment = %+v, want {offset:0 size:64}", segs[0])
	}
}

func TestPurgePageDropsOnlyThatPagesSegments(t *testing.T) {
	alloc := newTestAllocator(t)
	fl := newFreeSegmentLedger(t, alloc)
	if err := fl.Release(1, 0, 32); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := fl.Release(2, 0, 32); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := fl.PurgePage(1); err != nil {
		t.Fatalf("PurgePage: %v", err)
	}
	segs := fl.Segments()
	if len(segs) != 1 || segs[0].PageID != 2 {
		t.Fatalf("got %+v, want only page 2's segment", segs)
	}
}
