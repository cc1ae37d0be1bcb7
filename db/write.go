package db

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/integrity"
	"icdb/query"
	"icdb/schema"
	"icdb/table"
	"icdb/txn"
)

// UpdateRequest names the existing row (by its current primary key) and
// the full replacement record, which may itself carry a changed primary
// key.
type UpdateRequest struct {
	PrimaryKey codec.Value
	Values     schema.Record
}

func findLocation(te *tableEntry, pk codec.Value) (table.Location, schema.Record, bool, error) {
	rows, err := te.store.Scan()
	if err != nil {
		return table.Location{}, schema.Record{}, false, err
	}
	for _, row := range rows {
		if row.Record.PrimaryKey(te.schema).Equal(pk) {
			return row.Location, row.Record, true, nil
		}
	}
	return table.Location{}, schema.Record{}, false, nil
}

// Insert validates, sanitizes, and stores r into table, gated by the
// ACL, routed through the transaction overlay if txID is non-nil.
func (d *Database) Insert(caller, tableName string, r schema.Record, txID *uint64) error {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("Insert", err, "caller", caller, "table", tableName)
		return err
	}
	te, err := d.table(tableName)
	if err != nil {
		d.logResult("Insert", err, "caller", caller, "table", tableName)
		return err
	}
	sanitized, err := applySanitizersAndValidators(te, r)
	if err != nil {
		d.logResult("Insert", err, "caller", caller, "table", tableName)
		return err
	}
	guard := integrity.New(te.schema, d.integrityLookupTx(txID, caller))
	if err := guard.CheckRequiredFields(sanitized); err != nil {
		d.logResult("Insert", err, "caller", caller, "table", tableName)
		return err
	}
	if err := sanitized.Validate(te.schema); err != nil {
		d.logResult("Insert", err, "caller", caller, "table", tableName)
		return err
	}
	err = guard.CheckInsert(sanitized, func(pk codec.Value) (bool, error) {
		return d.existsInTable(tableName, pk, txID, caller)
	})
	if err != nil {
		d.logResult("Insert", err, "caller", caller, "table", tableName)
		return err
	}
	if txID != nil {
		err = d.txns.Put(*txID, txn.Principal(caller), tableName, sanitized.PrimaryKey(te.schema), sanitized)
		d.logResult("Insert", err, "caller", caller, "table", tableName, "txn", *txID)
		return err
	}
	_, err = te.store.Insert(sanitized)
	d.logResult("Insert", err, "caller", caller, "table", tableName)
	return err
}

// Update replaces the row identified by req.PrimaryKey with
// req.Values, cascading a primary-key change to every referencing row
//.
func (d *Database) Update(caller, tableName string, req UpdateRequest, txID *uint64) error {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("Update", err, "caller", caller, "table", tableName)
		return err
	}
	te, err := d.table(tableName)
	if err != nil {
		d.logResult("Update", err, "caller", caller, "table", tableName)
		return err
	}
	sanitized, err := applySanitizersAndValidators(te, req.Values)
	if err != nil {
		return err
	}
	guard := integrity.New(te.schema, d.integrityLookupTx(txID, caller))
	if err := guard.CheckRequiredFields(sanitized); err != nil {
		return err
	}
	if err := sanitized.Validate(te.schema); err != nil {
		return err
	}
	newPK := sanitized.PrimaryKey(te.schema)
	pkChanged := !newPK.Equal(req.PrimaryKey)

	if pkChanged {
		exists, err := d.existsInTable(tableName, newPK, txID, caller)
		if err != nil {
			return err
		}
		if exists {
			return dberr.New(dberr.PrimaryKeyConflict, "primary key %v already exists in %q", newPK, tableName)
		}
	}

	if err := guard.CheckUpdate(sanitized); err != nil {
		return err
	}

	var repoints []integrity.RepointAction
	if pkChanged {
		repoints, err = integrity.PKChangeCascade(tableName, req.PrimaryKey, newPK, d.referrersOf, d.integrityLookupTx(txID, caller))
		if err != nil {
			return err
		}
	}

	if txID != nil {
		err = d.applyUpdateOverlay(caller, *txID, tableName, req.PrimaryKey, sanitized, pkChanged, repoints)
		d.logResult("Update", err, "caller", caller, "table", tableName, "txn", *txID)
		return err
	}
	err = d.applyUpdateDirect(te, req.PrimaryKey, sanitized, pkChanged, repoints)
	d.logResult("Update", err, "caller", caller, "table", tableName)
	return err
}

func (d *Database) applyUpdateOverlay(caller string, txID uint64, tableName string, oldPK codec.Value, sanitized schema.Record, pkChanged bool, repoints []integrity.RepointAction) error {
	principal := txn.Principal(caller)
	te, err := d.table(tableName)
	if err != nil {
		return err
	}
	newPK := sanitized.PrimaryKey(te.schema)
	if pkChanged {
		if err := d.txns.Delete(txID, principal, tableName, oldPK); err != nil {
			return err
		}
	}
	if err := d.txns.Put(txID, principal, tableName, newPK, sanitized); err != nil {
		return err
	}
	return d.applyRepoints(repoints, &txID, caller)
}

func (d *Database) applyUpdateDirect(te *tableEntry, oldPK codec.Value, sanitized schema.Record, pkChanged bool, repoints []integrity.RepointAction) error {
	loc, _, found, err := findLocation(te, oldPK)
	if err != nil {
		return err
	}
	if !found {
		return dberr.New(dberr.ValidationFailed, "row with primary key %v not found in %q", oldPK, te.schema.Name)
	}
	if pkChanged {
		if err := te.store.Delete(loc); err != nil {
			return err
		}
		if _, err := te.store.Insert(sanitized); err != nil {
			return err
		}
	} else {
		if _, err := te.store.Update(loc, sanitized); err != nil {
			return err
		}
	}
	return d.applyRepoints(repoints, nil, "")
}

// applyRepoints rewrites the FK column named by each RepointAction to
// its NewValue, through the overlay when txID is non-nil.
func (d *Database) applyRepoints(actions []integrity.RepointAction, txID *uint64, caller string) error {
	for _, a := range actions {
		te, err := d.table(a.Table)
		if err != nil {
			return err
		}
		idx := te.schema.ColumnIndex(a.Column)
		if idx < 0 {
			continue
		}
		if txID != nil {
			records, _, err := d.mergedView(a.Table, txID, caller)
			if err != nil {
				return err
			}
			rec, ok := records[encodeKey(a.PrimaryKey)]
			if !ok {
				continue
			}
			rec = rec.Clone()
			rec.Values[idx] = a.NewValue
			if err := d.txns.Put(*txID, txn.Principal(caller), a.Table, a.PrimaryKey, rec); err != nil {
				return err
			}
			continue
		}
		loc, rec, found, err := findLocation(te, a.PrimaryKey)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		rec = rec.Clone()
		rec.Values[idx] = a.NewValue
		if _, err := te.store.Update(loc, rec); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes every row in table matching filter (every row, if
// filter is nil), applying behavior to every referencing row found
// along the way. Returns the number of rows removed from tableName
// itself — cascaded deletions and Break null-outs on other tables are
// not counted.
func (d *Database) Delete(caller, tableName string, behavior integrity.DeleteBehavior, filter *query.Filter, txID *uint64) (int, error) {
	if err := d.acl.Check(caller); err != nil {
		d.logResult("Delete", err, "caller", caller, "table", tableName)
		return 0, err
	}
	te, err := d.table(tableName)
	if err != nil {
		d.logResult("Delete", err, "caller", caller, "table", tableName)
		return 0, err
	}
	rows, err := d.mergedRows(tableName, txID, caller)
	if err != nil {
		return 0, err
	}
	var pks []codec.Value
	for _, r := range rows {
		if filter != nil {
			ok, err := filter.Matches(te.schema, r)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
		}
		pks = append(pks, r.PrimaryKey(te.schema))
	}
	if len(pks) == 0 {
		return 0, nil
	}

	actions, err := integrity.Plan(tableName, pks, behavior, d.referrersOf, d.integrityLookupTx(txID, caller))
	if err != nil {
		d.logResult("Delete", err, "caller", caller, "table", tableName)
		return 0, err
	}

	affected := 0
	for _, a := range actions {
		if a.NullColumn != "" {
			if err := d.applyRepoints([]integrity.RepointAction{{Table: a.Table, PrimaryKey: a.PrimaryKey, Column: a.NullColumn, NewValue: codec.Null()}}, txID, caller); err != nil {
				d.logResult("Delete", err, "caller", caller, "table", tableName)
				return affected, err
			}
			continue
		}
		if err := d.deleteRow(a.Table, a.PrimaryKey, txID, caller); err != nil {
			d.logResult("Delete", err, "caller", caller, "table", tableName)
			return affected, err
		}
		if a.Table == tableName {
			affected++
		}
	}
	d.log.Info("delete", "caller", caller, "table", tableName, "affected", affected)
	return affected, nil
}

func (d *Database) deleteRow(tableName string, pk codec.Value, txID *uint64, caller string) error {
	if txID != nil {
		return d.txns.Delete(*txID, txn.Principal(caller), tableName, pk)
	}
	te, err := d.table(tableName)
	if err != nil {
		return err
	}
	loc, _, found, err := findLocation(te, pk)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return te.store.Delete(loc)
}
