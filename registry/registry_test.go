package registry

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

func TestRegisterAllocatesPagesOnFirstUse(t *testing.T) {
	alloc := newTestAllocator(t)
	reg, err := Load(alloc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, err := reg.Register(0xABCD)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if e.LedgerPage == e.FreeSegmentsPage {
		t.Fatalf("ledger and free-segments pages must differ, got %d == %d", e.LedgerPage, e.FreeSegmentsPage)
	}
	if e.LedgerPage < 2 {
		t.Fatalf("ledger page %d collides with reserved pages 0/1", e.LedgerPage)
	}
}

func TestRegisterAdoptsExistingFingerprint(t *testing.T) {
	alloc := newTestAllocator(t)
	reg, _ := Load(alloc)
	first, err := reg.Register(42)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := reg.Register(42)
	if err != nil {
		t.Fatalf("Register again: %v", err)
	}
	if first != second {
		t.Fatalf("expected adopted entry %+v, got %+v", first, second)
	}
}

func TestRegistryPersistsAcrossLoad(t *testing.T) {
	alloc := newTestAllocator(t)
	reg, _ := Load(alloc)
	want, err := reg.Register(7)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	reloaded, err := Load(alloc)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Lookup(7)
	if !ok {
		t.Fatalf("fingerprint 7 missing after reload")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEntriesReflectsRegistrations(t *testing.T) {
	alloc := newTestAllocator(t)
	reg, _ := Load(alloc)
	if _, err := reg.Register(1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := reg.Register(2); err != nil {
		t.Fatalf("Register: %v", err)
	}
	entries := reg.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	alloc := newTestAllocator(t)
	buf := make([]byte, pagestore.PageSize)
	buf[0] = 0xFF
	if err := alloc.Store().Write(pagestore.PageOffset(0), buf); err != nil {
		t.Fatalf("seed bad page: %v", err)
	}
	if _, err := Load(alloc); err == nil {
		t.Fatalf("expected magic mismatch error")
	}
}
