package db

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
	"icdb/txn"
)

// Commit drains id's overlay, re-validates foreign keys against the
// final merged state (the checks deferred at op-time against other
// pending writes in the same transaction), and on success applies
// every entry to its table store in insertion order before retiring
// the id. A validation failure leaves every table untouched and rolls
// back the overlay, returning CommitConflict.
//
// Multi-entry atomicity stops at validate-then-apply: once validation
// passes, entries are written one at a time with no further undo log.
// A single host message's writes are assumed atomic at the page-store
// boundary already; this package doesn't re-implement that internally.
func (d *Database) Commit(id uint64, caller string) error {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("Commit", err, "caller", caller, "txn", id)
		return err
	}
	principal := txn.Principal(caller)
	entries, err := d.txns.Drain(id, principal)
	if err != nil {
		d.logResult("Commit", err, "caller", caller, "txn", id)
		return err
	}

	final, err := d.finalMergedState(entries)
	if err != nil {
		d.logResult("Commit", err, "caller", caller, "txn", id)
		return err
	}
	if err := d.validateFinalState(entries, final); err != nil {
		_ = d.txns.Rollback(id, principal)
		err = dberr.Wrap(dberr.CommitConflict, err, "commit validation failed")
		d.logResult("Commit", err, "caller", caller, "txn", id)
		return err
	}

	for _, e := range entries {
		if err := d.applyDrainEntry(e); err != nil {
			d.logResult("Commit", err, "caller", caller, "txn", id)
			return err
		}
	}
	if err := d.txns.Commit(id, principal); err != nil {
		d.logResult("Commit", err, "caller", caller, "txn", id)
		return err
	}
	d.log.Info("transaction commit", "caller", caller, "txn", id, "entries", len(entries))
	return nil
}

func (d *Database) finalMergedState(entries []txn.DrainEntry) (map[string]map[string]schema.Record, error) {
	touched := make(map[string]struct{})
	for _, e := range entries {
		touched[e.Table] = struct{}{}
	}
	final := make(map[string]map[string]schema.Record, len(touched))
	for name := range touched {
		te, err := d.table(name)
		if err != nil {
			return nil, err
		}
		rows, err := te.store.Scan()
		if err != nil {
			return nil, err
		}
		m := make(map[string]schema.Record, len(rows))
		for _, row := range rows {
			m[encodeKey(row.Record.PrimaryKey(te.schema))] = row.Record
		}
		final[name] = m
	}
	for _, e := range entries {
		m := final[e.Table]
		key := encodeKey(e.PrimaryKey)
		if e.Tombstoned {
			delete(m, key)
		} else {
			m[key] = e.Record
		}
	}
	return final, nil
}

func (d *Database) validateFinalState(entries []txn.DrainEntry, final map[string]map[string]schema.Record) error {
	for _, e := range entries {
		if e.Tombstoned {
			continue
		}
		te, err := d.table(e.Table)
		if err != nil {
			return err
		}
		for _, col := range te.schema.Columns {
			if col.ForeignKey == nil {
				continue
			}
			idx := te.schema.ColumnIndex(col.Name)
			v := e.Record.Values[idx]
			if v.IsNull() {
				continue
			}
			if !d.fkTargetExists(col.ForeignKey.TargetTable, col.ForeignKey.TargetColumn, v, final) {
				return dberr.New(dberr.BrokenForeignKeyReference, "column %q on %q references a missing row in %q", col.Name, e.Table, col.ForeignKey.TargetTable)
			}
		}
	}
	return nil
}

// fkTargetExists checks whether any row in targetTable has targetColumn
// equal to v, preferring the transaction's final state for that table
// (if the transaction touched it) and falling back to committed state
// otherwise.
func (d *Database) fkTargetExists(targetTable, targetColumn string, v codec.Value, final map[string]map[string]schema.Record) bool {
	te, err := d.table(targetTable)
	if err != nil {
		return false
	}
	idx := te.schema.ColumnIndex(targetColumn)
	if idx < 0 {
		return false
	}
	if m, ok := final[targetTable]; ok {
		for _, r := range m {
			if r.Values[idx].Equal(v) {
				return true
			}
		}
		return false
	}
	rows, err := te.store.Scan()
	if err != nil {
		return false
	}
	for _, row := range rows {
		if row.Record.Values[idx].Equal(v) {
			return true
		}
	}
	return false
}

// applyDrainEntry writes one drained overlay entry to its table's
// physical store, in the role of insert, in-place/resize update, or
// delete depending on whether the PK is currently present.
func (d *Database) applyDrainEntry(e txn.DrainEntry) error {
	te, err := d.table(e.Table)
	if err != nil {
		return err
	}
	loc, _, found, err := findLocation(te, e.PrimaryKey)
	if err != nil {
		return err
	}
	if e.Tombstoned {
		if found {
			return te.store.Delete(loc)
		}
		return nil
	}
	if found {
		_, err := te.store.Update(loc, e.Record)
		return err
	}
	_, err = te.store.Insert(e.Record)
	return err
}
