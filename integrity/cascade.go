package integrity

import "icdb/codec"

// RepointAction describes one referencing row whose FK column must be
// rewritten to follow a primary-key change: every referencing row in
// every referencing table is updated in the same operation to the new
// PK value.
type RepointAction struct {
	Table      string
	PrimaryKey codec.Value
	Column     string
	NewValue   codec.Value
}

// PKChangeCascade finds every row, in every table with a foreign key
// into table, that currently points at oldPK, and returns the set of
// column rewrites needed to repoint them at newPK.
func PKChangeCascade(table string, oldPK, newPK codec.Value, referrersOf ReferrersOf, lookup Lookup) ([]RepointAction, error) {
	referrers, err := referrersOf(table)
	if err != nil {
		return nil, err
	}
	var actions []RepointAction
	for _, ref := range referrers {
		rows, err := lookup(ref.Table.Name, ref.Column.Name, oldPK)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			actions = append(actions, RepointAction{
				Table:      ref.Table.Name,
				PrimaryKey: row.PrimaryKey(ref.Table),
				Column:     ref.Column.Name,
				NewValue:   newPK,
			})
		}
	}
	return actions, nil
}
