// Package db implements the Database facade: ACL gate, per-table
// dispatch, and transaction routing, exposed as direct Go method calls
// rather than through a bytecode VM or request parser. It is the only
// layer that holds every registered schema.TableSchema simultaneously,
// so it supplies the query.Lookup, integrity.Lookup, and
// integrity.ReferrersOf closures those packages take as parameters
// instead of importing table/registry directly.
package db

import (
	"context"
	"errors"
	"log/slog"

	"icdb/acl"
	"icdb/codec"
	"icdb/dberr"
	"icdb/hooks"
	"icdb/ledger"
	"icdb/pagestore"
	"icdb/registry"
	"icdb/schema"
	"icdb/table"
	"icdb/txn"
)

// tableEntry bundles one declared table's store with its schema.
type tableEntry struct {
	schema schema.TableSchema
	store  *table.Store
}

// Database is the top-level facade: ACL + every table's TableStore +
// the shared TransactionManager. log is the component logger every
// constructor below is threaded from, one sub-logger per concern, the
// way mjl--mox threads its component loggers.
type Database struct {
	alloc *pagestore.Allocator
	cache *pagestore.CachedStore
	acl   *acl.Gate
	txns  *txn.Manager
	log   *slog.Logger

	tables map[string]*tableEntry
	order  []string
}

// Open wires a PageStore into a ready-to-use Database: it loads the
// SchemaRegistry and ACL from pages 0/1, registers every declared
// schema (adopting existing ledger pages or allocating fresh ones),
// and seeds the ACL with initialPrincipals on first
// startup (an empty existing ACL is topped up; a non-empty one is left
// alone, since the ACL already persisted is authoritative). With
// WithPageCacheSize, every page read/write is routed through a
// CachedStore sitting in front of store.
func Open(store pagestore.Store, schemas []schema.TableSchema, initialPrincipals []string, opts ...Option) (*Database, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var cache *pagestore.CachedStore
	if o.pageCacheSize > 0 {
		c, err := pagestore.NewCachedStore(store, o.pageCacheSize)
		if err != nil {
			return nil, err
		}
		cache = c
		store = c
	}

	alloc, err := pagestore.NewAllocator(store)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(alloc)
	if err != nil {
		return nil, err
	}
	gate, err := acl.Load(store)
	if err != nil {
		return nil, err
	}
	if len(gate.List()) == 0 {
		for _, p := range initialPrincipals {
			if err := gate.Add(p); err != nil {
				return nil, err
			}
		}
	}

	log := o.logger.With("component", "db")
	d := &Database{alloc: alloc, cache: cache, acl: gate, txns: txn.NewManager(), log: log, tables: make(map[string]*tableEntry)}
	tableLog := o.logger.With("component", "table")
	for _, s := range schemas {
		if s.IsFixedWidth() {
			want := s.FixedRowAlignment()
			if s.Alignment == 0 {
				s.Alignment = want
			} else if err := codec.ValidateFixedAlignment(s.Alignment, want); err != nil {
				return nil, err
			}
		} else {
			if s.Alignment == 0 {
				s.Alignment = o.defaultAlignment
			}
			if err := codec.ValidateAlignment(s.Alignment); err != nil {
				return nil, err
			}
		}
		s.Fingerprint = schema.Fingerprint(s)
		entry, err := reg.Register(s.Fingerprint)
		if err != nil {
			return nil, err
		}
		pages, err := ledger.LoadPageLedger(alloc, entry.LedgerPage)
		if err != nil {
			return nil, err
		}
		freeSegs, err := ledger.LoadFreeSegmentLedger(alloc, entry.FreeSegmentsPage)
		if err != nil {
			return nil, err
		}
		st := table.New(alloc, s, pages, freeSegs, tableLog.With("table", s.Name))
		d.tables[s.Name] = &tableEntry{schema: s, store: st}
		d.order = append(d.order, s.Name)
	}
	log.Info("opened", "tables", len(d.tables))
	return d, nil
}

// Close releases the page cache's background resources, if one was
// configured via WithPageCacheSize. It is a no-op otherwise.
func (d *Database) Close() {
	if d.cache != nil {
		d.cache.Close()
	}
}

func (d *Database) table(name string) (*tableEntry, error) {
	te, ok := d.tables[name]
	if !ok {
		return nil, dberr.New(dberr.UnknownTable, "unknown table %q", name)
	}
	return te, nil
}

// logResult logs err at a level keyed off its dberr.Kind: Corruption is
// an Error, ResourceExhaustion a Warn, CallerError a Debug (expected,
// routine rejections). A nil err is not logged.
func (d *Database) logResult(op string, err error, args ...any) {
	if err == nil {
		return
	}
	var de *dberr.Error
	level := slog.LevelDebug
	if errors.As(err, &de) {
		switch de.Kind {
		case dberr.Corruption:
			level = slog.LevelError
		case dberr.ResourceExhaustion:
			level = slog.LevelWarn
		}
	}
	args = append([]any{"op", op, "err", err}, args...)
	d.log.Log(context.Background(), level, "operation failed", args...)
}

// AclAdd grants principal access, gated by the ACL check on caller
// (while the list is empty, every caller passes it).
func (d *Database) AclAdd(caller, principal string) error {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("AclAdd", err, "caller", caller)
		return err
	}
	if err := d.acl.Add(principal); err != nil {
		d.logResult("AclAdd", err, "caller", caller, "principal", principal)
		return err
	}
	d.log.Info("acl add", "caller", caller, "principal", principal)
	return nil
}

// AclRemove revokes principal's access.
func (d *Database) AclRemove(caller, principal string) error {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("AclRemove", err, "caller", caller)
		return err
	}
	if err := d.acl.Remove(principal); err != nil {
		d.logResult("AclRemove", err, "caller", caller, "principal", principal)
		return err
	}
	d.log.Info("acl remove", "caller", caller, "principal", principal)
	return nil
}

// AclList returns every allowed principal.
func (d *Database) AclList(caller string) ([]string, error) {
	if err := d.acl.Check(caller); err != nil {
		return nil, err
	}
	return d.acl.List(), nil
}

// BeginTransaction mints a fresh transaction id owned by caller.
func (d *Database) BeginTransaction(caller string) (uint64, error) {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("BeginTransaction", err, "caller", caller)
		return 0, err
	}
	id := d.txns.Begin(txn.Principal(caller))
	d.log.Info("transaction begin", "caller", caller, "txn", id)
	return id, nil
}

// Rollback discards a transaction's overlay.
func (d *Database) Rollback(id uint64, caller string) error {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("Rollback", err, "caller", caller, "txn", id)
		return err
	}
	if err := d.txns.Rollback(id, txn.Principal(caller)); err != nil {
		d.logResult("Rollback", err, "caller", caller, "txn", id)
		return err
	}
	d.log.Info("transaction rollback", "caller", caller, "txn", id)
	return nil
}

func encodeKey(v codec.Value) string {
	b, err := codec.Encode(v)
	if err != nil {
		return v.Kind().String()
	}
	return string(b)
}

func applySanitizersAndValidators(te *tableEntry, r schema.Record) (schema.Record, error) {
	out := r.Clone()
	for i, col := range te.schema.Columns {
		if out.Values[i].IsNull() {
			continue
		}
		v, err := hooks.Run(col.Sanitizers, col.Validators, out.Values[i])
		if err != nil {
			return schema.Record{}, err
		}
		out.Values[i] = v
	}
	return out, nil
}
