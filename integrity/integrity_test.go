package integrity

import (
	"testing"

	"icdb/codec"
	"icdb/dberr"
	"icdb/schema"
)

func usersSchema() schema.TableSchema {
	return schema.TableSchema{
		Name: "users",
		Columns: []schema.ColumnDef{
			{Name: "id", DataType: codec.KindInt64, IsPrimaryKey: true},
		},
		PrimaryKeyIndex: 0,
	}
}

func postsSchema() schema.TableSchema {
	return schema.TableSchema{
		Name: "posts",
		Columns: []schema.ColumnDef{
			{Name: "id", DataType: codec.KindInt64, IsPrimaryKey: true},
			{Name: "author_id", DataType: codec.KindInt64, Nullable: true, ForeignKey: &schema.ForeignKey{TargetTable: "users", TargetColumn: "id"}},
		},
		PrimaryKeyIndex: 0,
	}
}

func TestCheckInsertRejectsBrokenForeignKey(t *testing.T) {
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		return nil, nil
	}
	g := New(postsSchema(), lookup)
	rec := schema.Record{Values: []codec.Value{codec.Int64(1), codec.Int64(99)}}
	if err := g.CheckInsert(rec, func(codec.Value) (bool, error) { return false, nil }); err == nil {
		t.Fatalf("expected BrokenForeignKeyReference")
	}
}

func TestCheckInsertRejectsPKConflict(t *testing.T) {
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		return []schema.Record{{Values: []codec.Value{target}}}, nil
	}
	g := New(usersSchema(), lookup)
	rec := schema.Record{Values: []codec.Value{codec.Int64(1)}}
	err := g.CheckInsert(rec, func(codec.Value) (bool, error) { return true, nil })
	if err == nil {
		t.Fatalf("expected PrimaryKeyConflict")
	}
}

func TestCheckRequiredFieldsRejectsNullOnNonNullableColumn(t *testing.T) {
	s := usersSchema()
	s.Columns = append(s.Columns, schema.ColumnDef{Name: "email", DataType: codec.KindText})
	g := New(s, nil)
	rec := schema.Record{Values: []codec.Value{codec.Int64(1), codec.Null()}}
	err := g.CheckRequiredFields(rec)
	if err == nil {
		t.Fatalf("expected MissingNonNullableField")
	}
	if !dberr.Is(err, dberr.MissingNonNullableField) {
		t.Fatalf("got %v, want MissingNonNullableField", err)
	}
}

func TestCheckInsertRejectsMissingFieldBeforePKCheck(t *testing.T) {
	s := usersSchema()
	s.Columns = append(s.Columns, schema.ColumnDef{Name: "email", DataType: codec.KindText})
	g := New(s, nil)
	rec := schema.Record{Values: []codec.Value{codec.Int64(1), codec.Null()}}
	existingCalled := false
	err := g.CheckInsert(rec, func(codec.Value) (bool, error) {
		existingCalled = true
		return false, nil
	})
	if err == nil {
		t.Fatalf("expected MissingNonNullableField")
	}
	if !dberr.Is(err, dberr.MissingNonNullableField) {
		t.Fatalf("got %v, want MissingNonNullableField", err)
	}
	if existingCalled {
		t.Fatalf("PK existence check should not run once a required field is missing")
	}
}

func TestCheckInsertAllowsNullForeignKey(t *testing.T) {
	g := New(postsSchema(), nil)
	rec := schema.Record{Values: []codec.Value{codec.Int64(1), codec.Null()}}
	if err := g.CheckInsert(rec, func(codec.Value) (bool, error) { return false, nil }); err != nil {
		t.Fatalf("null FK should skip existence check: %v", err)
	}
}

func TestPlanRestrictFailsWhenReferenced(t *testing.T) {
	referrers := func(table string) ([]Referrer, error) {
		return []Referrer{{Table: postsSchema(), Column: postsSchema().Columns[1]}}, nil
	}
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		return []schema.Record{{Values: []codec.Value{codec.Int64(1), target}}}, nil
	}
	_, err := Plan("users", []codec.Value{codec.Int64(1)}, Restrict, referrers, lookup)
	if err == nil {
		t.Fatalf("expected ForeignKeyConstraintViolation")
	}
}

func TestPlanCascadeOrdersDependentsFirst(t *testing.T) {
	referrers := func(table string) ([]Referrer, error) {
		if table == "users" {
			return []Referrer{{Table: postsSchema(), Column: postsSchema().Columns[1]}}, nil
		}
		return nil, nil
	}
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		if table == "posts" {
			return []schema.Record{{Values: []codec.Value{codec.Int64(5), target}}}, nil
		}
		return nil, nil
	}
	actions, err := Plan("users", []codec.Value{codec.Int64(1)}, Cascade, referrers, lookup)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(actions))
	}
	if actions[0].Table != "posts" || actions[1].Table != "users" {
		t.Fatalf("expected dependent deleted before root, got %+v", actions)
	}
}

func TestPlanBreakNullsNullableColumn(t *testing.T) {
	referrers := func(table string) ([]Referrer, error) {
		return []Referrer{{Table: postsSchema(), Column: postsSchema().Columns[1]}}, nil
	}
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		return []schema.Record{{Values: []codec.Value{codec.Int64(5), target}}}, nil
	}
	actions, err := Plan("users", []codec.Value{codec.Int64(1)}, Break, referrers, lookup)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 2 || actions[0].NullColumn != "author_id" {
		t.Fatalf("expected a null-out action for author_id, got %+v", actions)
	}
}

func TestPlanBreakFailsOnNonNullableColumn(t *testing.T) {
	nonNullablePosts := postsSchema()
	nonNullablePosts.Columns[1].Nullable = false
	referrers := func(table string) ([]Referrer, error) {
		return []Referrer{{Table: nonNullablePosts, Column: nonNullablePosts.Columns[1]}}, nil
	}
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		return []schema.Record{{Values: []codec.Value{codec.Int64(5), target}}}, nil
	}
	if _, err := Plan("users", []codec.Value{codec.Int64(1)}, Break, referrers, lookup); err == nil {
		t.Fatalf("expected ForeignKeyConstraintViolation for non-nullable break")
	}
}

func TestPlanDetectsCycles(t *testing.T) {
	referrers := func(table string) ([]Referrer, error) {
		return []Referrer{{Table: usersSchema(), Column: schema.ColumnDef{Name: "id", Nullable: true}}}, nil
	}
	calls := 0
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		calls++
		if calls > 10 {
			t.Fatalf("cycle detection failed to terminate")
		}
		return []schema.Record{{Values: []codec.Value{target}}}, nil
	}
	actions, err := Plan("users", []codec.Value{codec.Int64(1)}, Cascade, referrers, lookup)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions for a self-referencing row, want exactly 1 — a visited (table, pk) must not be re-expanded or re-recorded", len(actions))
	}
	if calls != 1 {
		t.Fatalf("lookup called %d times, want exactly 1 — an already-visited node must be popped without expanding its referrers again", calls)
	}
}

func TestPKChangeCascadeFindsReferencers(t *testing.T) {
	referrers := func(table string) ([]Referrer, error) {
		return []Referrer{{Table: postsSchema(), Column: postsSchema().Columns[1]}}, nil
	}
	lookup := func(table, column string, target codec.Value) ([]schema.Record, error) {
		return []schema.Record{{Values: []codec.Value{codec.Int64(5), target}}}, nil
	}
	actions, err := PKChangeCascade("users", codec.Int64(1), codec.Int64(2), referrers, lookup)
	if err != nil {
		t.Fatalf("PKChangeCascade: %v", err)
	}
	if len(actions) != 1 || actions[0].NewValue.AsInt64() != 2 {
		t.Fatalf("got %+v, want one repoint to pk 2", actions)
	}
}
