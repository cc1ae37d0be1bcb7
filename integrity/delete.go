package integrity

import (
	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
)

// DeleteBehavior selects how a delete handles rows in other tables that
// reference the deleted primary key.
type DeleteBehavior int

const (
	// Restrict fails the delete if any referencing row survives.
	Restrict DeleteBehavior = iota
	// Cascade deletes every referencing row first, recursively.
	Cascade
	// Break nulls out nullable FK columns on referencing rows, or fails
	// if the column is not nullable.
	Break
)

// Referrer describes one table that can reference another via a
// foreign key, and the operations Plan needs to act on it.
type Referrer struct {
	Table  schema.TableSchema
	Column schema.ColumnDef
}

// ReferrersOf resolves every (table, column) pair across the database
// whose foreign key points at table — the Go analogue of the Rust
// TableSchema registry scan dbms.rs's delete() relies on to find
// dependents. The db facade, which holds every registered schema,
// supplies this by scanning its own registry.
type ReferrersOf func(table string) ([]Referrer, error)

// Action is one step of a resolved delete plan: delete a row outright,
// or null out one of its FK columns.
type Action struct {
	Table      string
	PrimaryKey codec.Value
	NullColumn string // set only for a Break null-out action
}

// deleteFrame is one node awaiting expansion (its referrers not yet
// looked up) or, once processing is set, awaiting its own Action
// being recorded after every node it pushed has been popped.
type deleteFrame struct {
	table      string
	pk         codec.Value
	processing bool
}

// Plan walks the reference graph depth-first with an explicit stack,
// starting from the rows being deleted from rootTable, applying
// behavior at every level, and returns the ordered sequence of
// actions to perform (deepest first, so executing them in order never
// leaves a dangling reference mid-plan). Cycle detection uses a
// (table, pk) visited set keyed the same way regardless of how many
// reference paths reach a node.
func Plan(rootTable string, rootPKs []codec.Value, behavior DeleteBehavior, referrersOf ReferrersOf, lookup Lookup) ([]Action, error) {
	visited := make(map[string]struct{})
	var actions []Action

	for _, rootPK := range rootPKs {
		stack := []deleteFrame{{table: rootTable, pk: rootPK}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.processing {
				stack = stack[:len(stack)-1]
				actions = append(actions, Action{Table: top.table, PrimaryKey: top.pk})
				continue
			}

			key := top.table + "\x00" + string(mustEncode(top.pk))
			if _, ok := visited[key]; ok {
				// Already fully handled via another reference path (or
				// already on this path, meaning a cycle) — pop outright
				// rather than recording a second Action for it.
				stack = stack[:len(stack)-1]
				continue
			}
			visited[key] = struct{}{}
			stack[len(stack)-1].processing = true

			referrers, err := referrersOf(top.table)
			if err != nil {
				return nil, err
			}
			for _, ref := range referrers {
				rows, err := lookup(ref.Table.Name, ref.Column.Name, top.pk)
				if err != nil {
					return nil, err
				}
				if len(rows) == 0 {
					continue
				}
				switch behavior {
				case Restrict:
					return nil, dberr.New(dberr.ForeignKeyConstraintViolation, "table %q still references %q via %q", ref.Table.Name, top.table, ref.Column.Name)
				case Cascade:
					for _, row := range rows {
						refPK := row.PrimaryKey(ref.Table)
						stack = append(stack, deleteFrame{table: ref.Table.Name, pk: refPK})
					}
				case Break:
					if !ref.Column.Nullable {
						return nil, dberr.New(dberr.ForeignKeyConstraintViolation, "column %q on %q is not nullable, cannot break reference", ref.Column.Name, ref.Table.Name)
					}
					for _, row := range rows {
						refPK := row.PrimaryKey(ref.Table)
						actions = append(actions, Action{Table: ref.Table.Name, PrimaryKey: refPK, NullColumn: ref.Column.Name})
					}
				}
			}
		}
	}
	return actions, nil
}

func mustEncode(v codec.Value) []byte {
	b, err := codec.Encode(v)
	if err != nil {
		return []byte(v.Kind().String())
	}
	return b
}
