package query

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
)

// Select picks either every column or a named subset. The primary key
// is always retained even when not requested.
type Select struct {
	all     bool
	columns map[string]struct{}
}

// SelectAll requests every column.
func SelectAll() Select { return Select{all: true} }

// SelectColumns requests a named subset.
func SelectColumns(names ...string) Select {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return Select{columns: set}
}

// Query is the full QueryEngine request shape.
type Query struct {
	Select  Select
	Filter  *Filter
	OrderBy []OrderTerm
	Limit   *uint64
	Offset  *uint64
	With    []string
}

// Lookup resolves, for a referenced (foreign-key target) table, the set of rows whose
// primary key is in pks — mirroring the ForeignFetcher indirection
// integrity.Lookup uses, so this package never imports table directly.
type Lookup func(table string, pks []codec.Value) ([]schema.Record, schema.TableSchema, error)

// Result carries the primary rows plus any eager-loaded auxiliary
// tables, keyed by table name.
type Result struct {
	Rows []schema.Record
	Aux  map[string][]schema.Record
}

// Execute runs rows (already merged with any transaction overlay)
// through filter, stable sort, pagination, projection, and eager-load.
func Execute(s schema.TableSchema, rows []schema.Record, q Query, lookup Lookup) (Result, error) {
	if q.Filter != nil {
		if err := checkColumns(s, q.Filter.Columns()); err != nil {
			return Result{}, err
		}
	}
	for _, term := range q.OrderBy {
		if s.ColumnIndex(term.Column) < 0 {
			return Result{}, dberr.New(dberr.UnknownColumn, "unknown column %q", term.Column)
		}
	}

	matched := make([]schema.Record, 0, len(rows))
	for _, r := range rows {
		if q.Filter == nil {
			matched = append(matched, r)
			continue
		}
		ok, err := q.Filter.Matches(s, r)
		if err != nil {
			return Result{}, err
		}
		if ok {
			matched = append(matched, r)
		}
	}

	if len(q.OrderBy) > 0 {
		if err := stableSort(s, matched, q.OrderBy); err != nil {
			return Result{}, err
		}
	}

	if q.Offset != nil {
		off := *q.Offset
		if off >= uint64(len(matched)) {
			matched = nil
		} else {
			matched = matched[off:]
		}
	}
	if q.Limit != nil && uint64(len(matched)) > *q.Limit {
		matched = matched[:*q.Limit]
	}

	projected := make([]schema.Record, len(matched))
	for i, r := range matched {
		projected[i] = project(s, r, q.Select)
	}

	result := Result{Rows: projected}
	if len(q.With) > 0 && lookup != nil {
		aux, err := eagerLoad(s, matched, q.With, lookup)
		if err != nil {
			return Result{}, err
		}
		result.Aux = aux
	}
	return result, nil
}

func checkColumns(s schema.TableSchema, names []string) error {
	for _, n := range names {
		if s.ColumnIndex(n) < 0 {
			return dberr.New(dberr.UnknownColumn, "unknown column %q", n)
		}
	}
	return nil
}

// project applies column selection, always retaining the primary key.
func project(s schema.TableSchema, r schema.Record, sel Select) schema.Record {
	if sel.all || sel.columns == nil {
		return r.Clone()
	}
	out := make([]codec.Value, len(s.Columns))
	for i, col := range s.Columns {
		if i == s.PrimaryKeyIndex {
			out[i] = r.Values[i]
			continue
		}
		if _, ok := sel.columns[col.Name]; ok {
			out[i] = r.Values[i]
			continue
		}
		out[i] = codec.Null()
	}
	return schema.Record{Values: out}
}

// eagerLoad resolves, for every target table named in with, the rows
// whose PK appears among the referenced foreign-key values of rows.
func eagerLoad(s schema.TableSchema, rows []schema.Record, with []string, lookup Lookup) (map[string][]schema.Record, error) {
	aux := make(map[string][]schema.Record, len(with))
	for _, target := range with {
		refCols := s.ReferencingColumns(target)
		if len(refCols) == 0 {
			aux[target] = nil
			continue
		}
		seen := make(map[string]struct{})
		var pks []codec.Value
		for _, r := range rows {
			for _, col := range refCols {
				idx := s.ColumnIndex(col.Name)
				v := r.Values[idx]
				if v.IsNull() {
					continue
				}
				key, err := codec.Encode(v)
				if err != nil {
					return nil, err
				}
				if _, ok := seen[string(key)]; ok {
					continue
				}
				seen[string(key)] = struct{}{}
				pks = append(pks, v)
			}
		}
		targetRows, _, err := lookup(target, pks)
		if err != nil {
			return nil, err
		}
		aux[target] = targetRows
	}
	return aux, nil
}
