// Package txn implements a per-principal, per-table overlay of pending
// writes, drained into the table store on commit and discarded on
// rollback. There is no write-ahead log: a transaction's state lives
// entirely in memory until it commits.
package txn

import (
	"sync"
	"sync/atomic"

	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
)

// Principal identifies the caller that owns a transaction.
type Principal string

// entryKind distinguishes a pending write from a pending delete.
type entryKind int

const (
	entryPut entryKind = iota
	entryTombstone
)

type entry struct {
	kind   entryKind
	pk     codec.Value
	record schema.Record
}

// overlayKey pairs a table name with a primary key's encoded bytes, so
// map lookups don't depend on codec.Value's internal representation.
type overlayKey struct {
	table string
	pk    string
}

// transaction carries one principal's pending writes across every
// table, plus insertion order for commit draining.
type transaction struct {
	id    uint64
	owner Principal

	mu      sync.Mutex
	entries map[overlayKey]entry
	order   []overlayKey
}

// Manager owns every open transaction.
type Manager struct {
	nextID uint64

	mu   sync.Mutex
	txns map[uint64]*transaction
}

func NewManager() *Manager {
	return &Manager{nextID: 1, txns: make(map[uint64]*transaction)}
}

// Begin mints a fresh transaction id for owner.
func (m *Manager) Begin(owner Principal) uint64 {
	id := atomic.AddUint64(&m.nextID, 1) - 1
	t := &transaction{id: id, owner: owner, entries: make(map[overlayKey]entry)}
	m.mu.Lock()
	m.txns[id] = t
	m.mu.Unlock()
	return id
}

func (m *Manager) lookupOwned(id uint64, owner Principal) (*transaction, error) {
	m.mu.Lock()
	t, ok := m.txns[id]
	m.mu.Unlock()
	if !ok {
		return nil, dberr.New(dberr.TransactionNotFound, "transaction %d not found", id)
	}
	if t.owner != owner {
		return nil, dberr.New(dberr.TransactionNotOwned, "transaction %d is not owned by this caller", id)
	}
	return t, nil
}

func encodeKey(v codec.Value) string {
	b, err := codec.Encode(v)
	if err != nil {
		return v.Kind().String()
	}
	return string(b)
}

// Put stages a write to table's pk slot under id.
func (m *Manager) Put(id uint64, owner Principal, table string, pk codec.Value, r schema.Record) error {
	t, err := m.lookupOwned(id, owner)
	if err != nil {
		return err
	}
	key := overlayKey{table: table, pk: encodeKey(pk)}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; !exists {
		t.order = append(t.order, key)
	}
	t.entries[key] = entry{kind: entryPut, pk: pk, record: r}
	return nil
}

// Delete stages a tombstone for table's pk slot under id.
func (m *Manager) Delete(id uint64, owner Principal, table string, pk codec.Value) error {
	t, err := m.lookupOwned(id, owner)
	if err != nil {
		return err
	}
	key := overlayKey{table: table, pk: encodeKey(pk)}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; !exists {
		t.order = append(t.order, key)
	}
	t.entries[key] = entry{kind: entryTombstone, pk: pk}
	return nil
}

// Overlay is what Read() and commit-draining need to know about a
// staged slot.
type Overlay struct {
	Tombstoned bool
	Record     schema.Record
	Found      bool
}

// Read resolves table's pk slot against id's overlay: a Put shadows
// committed state, a Tombstone hides it, and an absent entry reports
// Found=false so the caller falls through to committed state.
func (m *Manager) Read(id uint64, owner Principal, table string, pk codec.Value) (Overlay, error) {
	t, err := m.lookupOwned(id, owner)
	if err != nil {
		return Overlay{}, err
	}
	key := overlayKey{table: table, pk: encodeKey(pk)}
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return Overlay{Found: false}, nil
	}
	if e.kind == entryTombstone {
		return Overlay{Found: true, Tombstoned: true}, nil
	}
	return Overlay{Found: true, Record: e.record}, nil
}

// DrainEntry is one overlay slot handed to the commit applier, in the
// transaction's insertion order.
type DrainEntry struct {
	Table      string
	PrimaryKey codec.Value
	Tombstoned bool
	Record     schema.Record
}

// Drain returns id's overlay entries in insertion order without
// mutating transaction state, so the caller (db facade) can apply them
// and re-run integrity checks before deciding to Commit or Rollback.
func (m *Manager) Drain(id uint64, owner Principal) ([]DrainEntry, error) {
	t, err := m.lookupOwned(id, owner)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DrainEntry, 0, len(t.order))
	for _, key := range t.order {
		e := t.entries[key]
		out = append(out, DrainEntry{
			Table:      key.table,
			PrimaryKey: e.pk,
			Tombstoned: e.kind == entryTombstone,
			Record:     e.record,
		})
	}
	return out, nil
}

// Commit finalizes id, invalidating it. The caller must have already
// applied Drain's entries to the table store and re-validated integrity
//; Commit itself only retires the transaction id.
func (m *Manager) Commit(id uint64, owner Principal) error {
	_, err := m.lookupOwned(id, owner)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.txns, id)
	m.mu.Unlock()
	return nil
}

// Rollback discards id's overlay.
func (m *Manager) Rollback(id uint64, owner Principal) error {
	_, err := m.lookupOwned(id, owner)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.txns, id)
	m.mu.Unlock()
	return nil
}
