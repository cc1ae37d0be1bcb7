package txn

import (
	"testing"

	"icdb/codec"
	"icdb/schema"
)

func TestPutThenReadShadowsCommitted(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	rec := schema.Record{Values: []codec.Value{codec.Int64(1), codec.Text("a")}}
	if err := m.Put(id, "alice", "users", codec.Int64(1), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ov, err := m.Read(id, "alice", "users", codec.Int64(1))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ov.Found || ov.Tombstoned {
		t.Fatalf("got %+v, want a found, non-tombstoned put", ov)
	}
}

func TestDeleteThenReadIsTombstoned(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	if err := m.Delete(id, "alice", "users", codec.Int64(1)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ov, err := m.Read(id, "alice", "users", codec.Int64(1))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ov.Found || !ov.Tombstoned {
		t.Fatalf("got %+v, want tombstoned", ov)
	}
}

func TestReadMissUnshadowedFallsThrough(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	ov, err := m.Read(id, "alice", "users", codec.Int64(99))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ov.Found {
		t.Fatalf("expected unshadowed read to report Found=false")
	}
}

func TestDrainPreservesInsertionOrder(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	for i := int64(1); i <= 3; i++ {
		rec := schema.Record{Values: []codec.Value{codec.Int64(i)}}
		if err := m.Put(id, "alice", "users", codec.Int64(i), rec); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	entries, err := m.Drain(id, "alice")
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.PrimaryKey.AsInt64() != int64(i+1) {
			t.Fatalf("entry %d = %+v, want pk %d", i, e, i+1)
		}
	}
}

func TestWrongOwnerRejected(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	if err := m.Put(id, "bob", "users", codec.Int64(1), schema.Record{}); err == nil {
		t.Fatalf("expected TransactionNotOwned")
	}
}

func TestUnknownTransactionRejected(t *testing.T) {
	m := NewManager()
	if _, err := m.Read(999, "alice", "users", codec.Int64(1)); err == nil {
		t.Fatalf("expected TransactionNotFound")
	}
}

func TestCommitInvalidatesID(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	if err := m.Commit(id, "alice"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := m.Read(id, "alice", "users", codec.Int64(1)); err == nil {
		t.Fatalf("expected committed id to be invalid")
	}
}

func TestRollbackDiscardsOverlay(t *testing.T) {
	m := NewManager()
	id := m.Begin("alice")
	rec := schema.Record{Values: []codec.Value{codec.Int64(1)}}
	if err := m.Put(id, "alice", "users", codec.Int64(1), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := m.Rollback(id, "alice"); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if _, err := m.Read(id, "alice", "users", codec.Int64(1)); err == nil {
		t.Fatalf("expected rolled-back id to be invalid")
	}
}
