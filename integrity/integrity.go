// Package integrity enforces PK uniqueness, FK existence, PK-change
// cascade, and delete-behavior enforcement (Restrict/Cascade/Break).
//
// Lookup is a function value rather than an interface method on some
// fetcher type, so this package never imports the table package
// directly.
package integrity

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
)

// Lookup resolves rows of a named table: given a table and column,
// return every record whose value in that column equals target.
type Lookup func(table, column string, target codec.Value) ([]schema.Record, error)

// Guard enforces PK/FK invariants for one table, consulting Lookup to
// reach other tables.
type Guard struct {
	schema schema.TableSchema
	lookup Lookup
}

func New(s schema.TableSchema, lookup Lookup) *Guard {
	return &Guard{schema: s, lookup: lookup}
}

// CheckRequiredFields rejects a record carrying Null in any
// non-nullable column, distinctly from the generic kind-mismatch
// invariant schema.Record.Validate enforces, and ahead of PK/FK
// checks — the Go analogue of the Rust integrity layer's
// check_non_nullable_fields running before anything else.
func (g *Guard) CheckRequiredFields(r schema.Record) error {
	for i, col := range g.schema.Columns {
		if !col.Nullable && r.Values[i].IsNull() {
			return dberr.New(dberr.MissingNonNullableField, "missing non-nullable field %s", col.Name)
		}
	}
	return nil
}

// CheckInsert enforces required fields, then PK uniqueness, then FK
// existence for every non-null FK column.
func (g *Guard) CheckInsert(r schema.Record, existingByPK func(codec.Value) (bool, error)) error {
	if err := g.CheckRequiredFields(r); err != nil {
		return err
	}
	pk := r.PrimaryKey(g.schema)
	exists, err := existingByPK(pk)
	if err != nil {
		return err
	}
	if exists {
		return dberr.New(dberr.PrimaryKeyConflict, "primary key %v already exists in %q", pk, g.schema.Name)
	}
	return g.checkForeignKeys(r)
}

// CheckUpdate re-validates required fields then FK columns; PK-change
// cascade is handled by the caller (db), which calls PKChangeCascade
// to learn which rows need re-addressing.
func (g *Guard) CheckUpdate(r schema.Record) error {
	if err := g.CheckRequiredFields(r); err != nil {
		return err
	}
	return g.checkForeignKeys(r)
}

func (g *Guard) checkForeignKeys(r schema.Record) error {
	for _, col := range g.schema.Columns {
		if col.ForeignKey == nil {
			continue
		}
		idx := g.schema.ColumnIndex(col.Name)
		v := r.Values[idx]
		if v.IsNull() {
			continue
		}
		rows, err := g.lookup(col.ForeignKey.TargetTable, col.ForeignKey.TargetColumn, v)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return dberr.New(dberr.BrokenForeignKeyReference, "column %q references missing row %v in %q", col.Name, v, col.ForeignKey.TargetTable)
		}
	}
	return nil
}
