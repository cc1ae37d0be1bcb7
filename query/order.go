package query

import (
	"sort"

	"icdb/codec"
	"icdb/schema"
)

// Direction is an ORDER BY column's sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderTerm is one (column, direction) pair of an ORDER BY clause.
type OrderTerm struct {
	Column    string
	Direction Direction
}

// stableSort orders rows by every term as a single compound comparator,
// left to right, using sort.SliceStable. Spec.md §4.7 explicitly forbids
// the "documented bug from 0.4.0": resorting sequentially by each column
// in turn, which loses the stability of earlier columns. A single
// compound comparator is the only way to honor all terms at once.
func stableSort(s schema.TableSchema, rows []schema.Record, terms []OrderTerm) error {
	var firstErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range terms {
			a, _ := rows[i].Get(s, term.Column)
			b, _ := rows[j].Get(s, term.Column)
			cmp, err := codec.Compare(a, b)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if cmp == 0 {
				continue
			}
			if term.Direction == Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return firstErr
}
