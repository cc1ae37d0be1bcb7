// Package schema defines the shapes the storage engine consumes from its
// (out-of-scope) codegen layer: ColumnDef, TableSchema, and Record.
package schema

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/hooks"
)

// ForeignKey names the table/column a ColumnDef references.
type ForeignKey struct {
	TargetTable  string
	TargetColumn string
}

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name         string
	DataType     codec.Kind
	Nullable     bool
	IsPrimaryKey bool
	ForeignKey   *ForeignKey
	Sanitizers   []hooks.Sanitizer
	Validators   []hooks.Validator
}

// TableSchema describes a statically declared table.
type TableSchema struct {
	Name            string
	Fingerprint     uint64
	Columns         []ColumnDef
	PrimaryKeyIndex int
	Alignment       int
}

// ColumnIndex returns the position of a named column, or -1.
func (s TableSchema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by name.
func (s TableSchema) Column(name string) (ColumnDef, bool) {
	i := s.ColumnIndex(name)
	if i < 0 {
		return ColumnDef{}, false
	}
	return s.Columns[i], true
}

// Kinds extracts the positional Kind list codec.EncodeRecord/DecodeRecord
// need.
func (s TableSchema) Kinds() []codec.Kind {
	kinds := make([]codec.Kind, len(s.Columns))
	for i, c := range s.Columns {
		kinds[i] = c.DataType
	}
	return kinds
}

// IsFixedWidth reports whether every column encodes to a constant
// number of bytes — a Fixed-size kind with no nullability — so every
// record has the same on-wire length and the table's alignment can
// equal that length exactly, with no padding.
func (s TableSchema) IsFixedWidth() bool {
	for _, c := range s.Columns {
		if c.Nullable {
			return false
		}
		if sk, _ := codec.SizeKindOf(c.DataType); sk != codec.Fixed {
			return false
		}
	}
	return true
}

// FixedRowAlignment returns the alignment a fixed-width schema must
// declare: the constant PhysicalRow size, i.e. the 2-byte slot length
// header plus the Record's own 2-byte column-count prefix plus, per
// column, a 1-byte null flag and the column's fixed payload size.
func (s TableSchema) FixedRowAlignment() int {
	payload := 2
	for _, c := range s.Columns {
		_, n := codec.SizeKindOf(c.DataType)
		payload += 1 + n
	}
	return 2 + payload
}

// PrimaryKeyColumn returns the schema's primary-key column definition.
func (s TableSchema) PrimaryKeyColumn() ColumnDef {
	return s.Columns[s.PrimaryKeyIndex]
}

// ReferencingColumns returns every column across the schema whose foreign
// key points at targetTable.
func (s TableSchema) ReferencingColumns(targetTable string) []ColumnDef {
	var out []ColumnDef
	for _, c := range s.Columns {
		if c.ForeignKey != nil && c.ForeignKey.TargetTable == targetTable {
			out = append(out, c)
		}
	}
	return out
}

// Record is an ordered tuple of Values positionally matching a
// TableSchema's columns.
type Record struct {
	Values []codec.Value
}

// Validate enforces Record's structural invariants:
// (a) arity equals schema arity, (b) each Value's kind matches its
// column's data type or is Null on a nullable column, (c) the primary-key
// Value is never Null.
func (r Record) Validate(s TableSchema) error {
	if len(r.Values) != len(s.Columns) {
		return dberr.New(dberr.ValidationFailed, "record has %d values, schema %q has %d columns", len(r.Values), s.Name, len(s.Columns))
	}
	for i, col := range s.Columns {
		v := r.Values[i]
		if v.IsNull() {
			if !col.Nullable {
				return dberr.New(dberr.ValidationFailed, "column %q is not nullable", col.Name)
			}
			if col.IsPrimaryKey {
				return dberr.New(dberr.ValidationFailed, "primary key column %q cannot be null", col.Name)
			}
			continue
		}
		if v.Kind() != col.DataType {
			return dberr.New(dberr.ValidationFailed, "column %q expects %s, got %s", col.Name, col.DataType, v.Kind())
		}
	}
	return nil
}

// PrimaryKey extracts the primary-key Value from a Record.
func (r Record) PrimaryKey(s TableSchema) codec.Value {
	return r.Values[s.PrimaryKeyIndex]
}

// Get returns the Value for a named column.
func (r Record) Get(s TableSchema, name string) (codec.Value, bool) {
	i := s.ColumnIndex(name)
	if i < 0 {
		return codec.Value{}, false
	}
	return r.Values[i], true
}

// Clone deep-copies the Record's Value slice.
func (r Record) Clone() Record {
	out := make([]codec.Value, len(r.Values))
	copy(out, r.Values)
	return Record{Values: out}
}
