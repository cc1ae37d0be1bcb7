// Package query implements filter and JSON-filter evaluation, LIKE
// matching, stable multi-column ordering, pagination, column
// projection, and eager-load over already-decoded records.
package query

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
)

// CompareOp enumerates the comparison operators Filter.Compare carries.
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Filter is the recursive FilterExpr sum type.
type Filter struct {
	kind filterKind

	column  string
	op      CompareOp
	value   codec.Value
	list    []codec.Value
	pattern string
	json    JsonFilter

	left  *Filter
	right *Filter
}

type filterKind int

const (
	fCompare filterKind = iota
	fIn
	fLike
	fIsNull
	fNotNull
	fJSON
	fAnd
	fOr
	fNot
)

func Compare(column string, op CompareOp, v codec.Value) Filter {
	return Filter{kind: fCompare, column: column, op: op, value: v}
}

func EqFilter(column string, v codec.Value) Filter { return Compare(column, Eq, v) }
func NeFilter(column string, v codec.Value) Filter { return Compare(column, Ne, v) }
func LtFilter(column string, v codec.Value) Filter { return Compare(column, Lt, v) }
func LeFilter(column string, v codec.Value) Filter { return Compare(column, Le, v) }
func GtFilter(column string, v codec.Value) Filter { return Compare(column, Gt, v) }
func GeFilter(column string, v codec.Value) Filter { return Compare(column, Ge, v) }

func In(column string, values []codec.Value) Filter {
	return Filter{kind: fIn, column: column, list: values}
}

func Like(column, pattern string) Filter {
	return Filter{kind: fLike, column: column, pattern: pattern}
}

func IsNull(column string) Filter  { return Filter{kind: fIsNull, column: column} }
func NotNull(column string) Filter { return Filter{kind: fNotNull, column: column} }

func Json(column string, jf JsonFilter) Filter {
	return Filter{kind: fJSON, column: column, json: jf}
}

func And(a, b Filter) Filter { return Filter{kind: fAnd, left: &a, right: &b} }
func Or(a, b Filter) Filter  { return Filter{kind: fOr, left: &a, right: &b} }
func Not(a Filter) Filter    { return Filter{kind: fNot, left: &a} }

// Matches evaluates the filter against a decoded record.
func (f Filter) Matches(s schema.TableSchema, r schema.Record) (bool, error) {
	switch f.kind {
	case fCompare:
		v, ok := r.Get(s, f.column)
		if !ok {
			return false, dberr.New(dberr.UnknownColumn, "unknown column %q", f.column)
		}
		if v.IsNull() {
			return false, nil
		}
		cmp, err := codec.Compare(v, f.value)
		if err != nil {
			return false, err
		}
		switch f.op {
		case Eq:
			return cmp == 0, nil
		case Ne:
			return cmp != 0, nil
		case Lt:
			return cmp < 0, nil
		case Le:
			return cmp <= 0, nil
		case Gt:
			return cmp > 0, nil
		case Ge:
			return cmp >= 0, nil
		}
		return false, dberr.New(dberr.InvalidQuery, "unknown comparison operator")
	case fIn:
		v, ok := r.Get(s, f.column)
		if !ok {
			return false, dberr.New(dberr.UnknownColumn, "unknown column %q", f.column)
		}
		if v.IsNull() {
			return false, nil
		}
		for _, cand := range f.list {
			cmp, err := codec.Compare(v, cand)
			if err != nil {
				return false, err
			}
			if cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	case fLike:
		v, ok := r.Get(s, f.column)
		if !ok {
			return false, dberr.New(dberr.UnknownColumn, "unknown column %q", f.column)
		}
		if v.IsNull() {
			return false, nil
		}
		if v.Kind() != codec.KindText {
			return false, dberr.New(dberr.InvalidQuery, "LIKE operator can only be applied to Text values")
		}
		return matchLike(v.AsText(), f.pattern)
	case fIsNull:
		v, ok := r.Get(s, f.column)
		if !ok {
			return false, dberr.New(dberr.UnknownColumn, "unknown column %q", f.column)
		}
		return v.IsNull(), nil
	case fNotNull:
		v, ok := r.Get(s, f.column)
		if !ok {
			return false, dberr.New(dberr.UnknownColumn, "unknown column %q", f.column)
		}
		return !v.IsNull(), nil
	case fJSON:
		v, ok := r.Get(s, f.column)
		if !ok {
			return false, dberr.New(dberr.UnknownColumn, "unknown column %q", f.column)
		}
		if v.Kind() != codec.KindJson {
			return false, dberr.New(dberr.InvalidQuery, "column %q is not a Json type", f.column)
		}
		return f.json.Matches(v.AsJSON())
	case fAnd:
		l, err := f.left.Matches(s, r)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return f.right.Matches(s, r)
	case fOr:
		l, err := f.left.Matches(s, r)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return f.right.Matches(s, r)
	case fNot:
		v, err := f.left.Matches(s, r)
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	return false, dberr.New(dberr.InvalidQuery, "unknown filter kind")
}

// Columns returns every column name this filter references, for
// UnknownColumn validation ahead of a scan.
func (f Filter) Columns() []string {
	switch f.kind {
	case fAnd, fOr:
		return append(f.left.Columns(), f.right.Columns()...)
	case fNot:
		return f.left.Columns()
	default:
		return []string{f.column}
	}
}
