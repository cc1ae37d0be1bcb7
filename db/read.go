package db

import (
	"icdb/codec"
	"icdb/integrity"
	"icdb/query"
	"icdb/schema"
	"icdb/table"
	"icdb/txn"
)

// overlayFor returns the drained overlay entries for a transaction,
// scoped to one table, or nil if txID is nil (no active transaction).
func (d *Database) overlayFor(tableName string, txID *uint64, caller string) ([]txn.DrainEntry, error) {
	if txID == nil {
		return nil, nil
	}
	all, err := d.txns.Drain(*txID, txn.Principal(caller))
	if err != nil {
		return nil, err
	}
	var out []txn.DrainEntry
	for _, e := range all {
		if e.Table == tableName {
			out = append(out, e)
		}
	}
	return out, nil
}

// mergedView returns table's committed rows (with physical Location)
// overlaid with the transaction's pending writes, keyed by encoded PK.
func (d *Database) mergedView(tableName string, txID *uint64, caller string) (map[string]schema.Record, map[string]table.Location, error) {
	te, err := d.table(tableName)
	if err != nil {
		return nil, nil, err
	}
	rows, err := te.store.Scan()
	if err != nil {
		return nil, nil, err
	}
	records := make(map[string]schema.Record, len(rows))
	locations := make(map[string]table.Location, len(rows))
	for _, row := range rows {
		key := encodeKey(row.Record.PrimaryKey(te.schema))
		records[key] = row.Record
		locations[key] = row.Location
	}
	overlay, err := d.overlayFor(tableName, txID, caller)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range overlay {
		key := encodeKey(e.PrimaryKey)
		if e.Tombstoned {
			delete(records, key)
			continue
		}
		records[key] = e.Record
	}
	return records, locations, nil
}

// mergedRows flattens mergedView into a slice, for query execution.
func (d *Database) mergedRows(tableName string, txID *uint64, caller string) ([]schema.Record, error) {
	records, _, err := d.mergedView(tableName, txID, caller)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Record, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	return out, nil
}

// existsInTable reports whether pk is present in table's merged view.
func (d *Database) existsInTable(tableName string, pk codec.Value, txID *uint64, caller string) (bool, error) {
	records, _, err := d.mergedView(tableName, txID, caller)
	if err != nil {
		return false, err
	}
	_, ok := records[encodeKey(pk)]
	return ok, nil
}

// rowsWhereColumnEqualsTx scans table's merged view for rows whose
// named column equals target — the primitive integrity.Lookup and
// query.Lookup are built from.
func (d *Database) rowsWhereColumnEqualsTx(tableName, column string, target codec.Value, txID *uint64, caller string) ([]schema.Record, error) {
	te, err := d.table(tableName)
	if err != nil {
		return nil, err
	}
	idx := te.schema.ColumnIndex(column)
	if idx < 0 {
		return nil, nil
	}
	records, _, err := d.mergedView(tableName, txID, caller)
	if err != nil {
		return nil, err
	}
	var out []schema.Record
	for _, r := range records {
		if r.Values[idx].Equal(target) {
			out = append(out, r)
		}
	}
	return out, nil
}

// integrityLookupTx builds an integrity.Lookup scoped to one
// transaction context (or the committed state when txID is nil).
func (d *Database) integrityLookupTx(txID *uint64, caller string) integrity.Lookup {
	return func(tableName, column string, target codec.Value) ([]schema.Record, error) {
		return d.rowsWhereColumnEqualsTx(tableName, column, target, txID, caller)
	}
}

// referrersOf resolves every (table, column) pair across the whole
// database whose foreign key points at tableName — the concrete
// ReferrersOf this package supplies to integrity.Plan/PKChangeCascade,
// since only Database holds every registered schema at once.
func (d *Database) referrersOf(tableName string) ([]integrity.Referrer, error) {
	var out []integrity.Referrer
	for _, name := range d.order {
		te := d.tables[name]
		for _, col := range te.schema.ReferencingColumns(tableName) {
			out = append(out, integrity.Referrer{Table: te.schema, Column: col})
		}
	}
	return out, nil
}

// queryLookupTx builds a query.Lookup scoped to one transaction
// context, for eager-load ("with") resolution.
func (d *Database) queryLookupTx(txID *uint64, caller string) query.Lookup {
	return func(tableName string, pks []codec.Value) ([]schema.Record, schema.TableSchema, error) {
		te, err := d.table(tableName)
		if err != nil {
			return nil, schema.TableSchema{}, err
		}
		records, _, err := d.mergedView(tableName, txID, caller)
		if err != nil {
			return nil, schema.TableSchema{}, err
		}
		want := make(map[string]struct{}, len(pks))
		for _, pk := range pks {
			want[encodeKey(pk)] = struct{}{}
		}
		var out []schema.Record
		for key, r := range records {
			if _, ok := want[key]; ok {
				out = append(out, r)
			}
		}
		return out, te.schema, nil
	}
}

// Select runs a query against table's merged view (committed rows plus
// any overlay from txID), gated by the ACL.
func (d *Database) Select(caller, tableName string, q query.Query, txID *uint64) (query.Result, error) {
	if err := d.acl.Check(caller); err != nil {
		return query.Result{}, err
	}
	te, err := d.table(tableName)
	if err != nil {
		return query.Result{}, err
	}
	rows, err := d.mergedRows(tableName, txID, caller)
	if err != nil {
		return query.Result{}, err
	}
	return query.Execute(te.schema, rows, q, d.queryLookupTx(txID, caller))
}
