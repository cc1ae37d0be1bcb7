package query

import (
	"strings"
	"testing"
	"time"

	"icdb/codec"
	"icdb/schema"
)

func testSchema() schema.TableSchema {
	return schema.TableSchema{
		Name: "users",
		Columns: []schema.ColumnDef{
			{Name: "id", DataType: codec.KindInt64, IsPrimaryKey: true},
			{Name: "name", DataType: codec.KindText, Nullable: true},
			{Name: "age", DataType: codec.KindInt64, Nullable: true},
		},
		PrimaryKeyIndex: 0,
	}
}

func rec(id int64, name string, age int64) schema.Record {
	return schema.Record{Values: []codec.Value{codec.Int64(id), codec.Text(name), codec.Int64(age)}}
}

func TestFilterEqMatches(t *testing.T) {
	s := testSchema()
	f := EqFilter("name", codec.Text("alice"))
	ok, err := f.Matches(s, rec(1, "alice", 30))
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = f.Matches(s, rec(1, "bob", 30))
	if err != nil || ok {
		t.Fatalf("expected no match, got ok=%v err=%v", ok, err)
	}
}

func TestFilterAndOrNot(t *testing.T) {
	s := testSchema()
	f := And(GeFilter("age", codec.Int64(18)), Not(EqFilter("name", codec.Text("bob"))))
	ok, err := f.Matches(s, rec(1, "alice", 30))
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	ok, err = f.Matches(s, rec(2, "bob", 30))
	if err != nil || ok {
		t.Fatalf("expected bob excluded, got ok=%v err=%v", ok, err)
	}
}

func TestFilterUnknownColumn(t *testing.T) {
	s := testSchema()
	f := EqFilter("nope", codec.Int64(1))
	if _, err := f.Matches(s, rec(1, "a", 1)); err == nil {
		t.Fatalf("expected UnknownColumn error")
	}
}

func TestLikeBasicWildcards(t *testing.T) {
	cases := []struct {
		text, pattern string
		want          bool
	}{
		{"alice", "al%", true},
		{"alice", "%ice", true},
		{"alice", "a_ice", true},
		{"alice", "a__ce", true},
		{"alice", "bob", false},
		{"100%", "100%%", true},
		{"1000", "100%%", false},
		{"", "%", true},
		{"", "_", false},
	}
	for _, c := range cases {
		got, err := matchLike(c.text, c.pattern)
		if err != nil {
			t.Fatalf("matchLike(%q,%q): %v", c.text, c.pattern, err)
		}
		if got != c.want {
			t.Errorf("matchLike(%q,%q) = %v, want %v", c.text, c.pattern, got, c.want)
		}
	}
}

func TestLikeMatchingAllocatesNothing(t *testing.T) {
	text := strings.Repeat("ab", 200) + "tail"
	pattern := strings.Repeat("a_%", 30) + "tail"
	allocs := testing.AllocsPerRun(100, func() {
		if _, err := matchLike(text, pattern); err != nil {
			t.Fatalf("matchLike: %v", err)
		}
	})
	if allocs != 0 {
		t.Fatalf("matchLike allocated %v times per call, want 0 — auxiliary memory must be bounded by a constant independent of pattern/input length", allocs)
	}
}

func TestLikeManyStarsStaysLinear(t *testing.T) {
	pattern := strings.Repeat("a%", 40) + "zzz"
	text := strings.Repeat("a", 5000)

	done := make(chan struct{})
	var got bool
	var err error
	go func() {
		got, err = matchLike(text, pattern)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("matchLike(%d-char text, %d-op pattern) did not return within 2s: naive backtracking would blow up here", len(text), len(pattern))
	}
	if err != nil {
		t.Fatalf("matchLike: %v", err)
	}
	if got {
		t.Fatalf("pattern requiring trailing %q against an all-'a' text should not match", "zzz")
	}
}

func TestLikeManyStarsMatchesWhenSatisfiable(t *testing.T) {
	pattern := strings.Repeat("a%", 40) + "end"
	text := strings.Repeat("a", 4997) + "end"
	got, err := matchLike(text, pattern)
	if err != nil {
		t.Fatalf("matchLike: %v", err)
	}
	if !got {
		t.Fatalf("expected pattern %q to match text ending in %q", pattern, "end")
	}
}

func TestJSONContainsObjectSubset(t *testing.T) {
	haystack := codec.NewJSON(map[string]any{"a": 1.0, "b": 2.0})
	needle := codec.NewJSON(map[string]any{"a": 1.0})
	jf := Contains(needle)
	ok, err := jf.Matches(haystack)
	if err != nil || !ok {
		t.Fatalf("expected containment, got ok=%v err=%v", ok, err)
	}
}

func TestJSONContainsArrayOrderIndependent(t *testing.T) {
	haystack := codec.NewJSON([]any{1.0, 2.0, 3.0})
	needle := codec.NewJSON([]any{3.0, 1.0})
	ok, err := Contains(needle).Matches(haystack)
	if err != nil || !ok {
		t.Fatalf("expected order-independent containment, got ok=%v err=%v", ok, err)
	}
}

func TestJSONExtractEq(t *testing.T) {
	j := codec.NewJSON(map[string]any{"user": map[string]any{"name": "Alice"}})
	ok, err := Extract("user.name", JsonCmpEq(codec.Text("Alice"))).Matches(j)
	if err != nil || !ok {
		t.Fatalf("expected extract match, got ok=%v err=%v", ok, err)
	}
}

func TestJSONExtractMissingPathIsNull(t *testing.T) {
	j := codec.NewJSON(map[string]any{"a": 1.0})
	ok, err := Extract("missing", JsonCmpIsNull()).Matches(j)
	if err != nil || !ok {
		t.Fatalf("expected missing path to match IsNull, got ok=%v err=%v", ok, err)
	}
	ok, err = Extract("missing", JsonCmpEq(codec.Int64(1))).Matches(j)
	if err != nil || ok {
		t.Fatalf("expected missing path to fail Eq, got ok=%v err=%v", ok, err)
	}
}

func TestJSONPathRejectsInvalidSyntax(t *testing.T) {
	cases := []string{"", "a.", ".a", "a..b", "a[", "a[]", "a[-1]", "a[x]"}
	for _, p := range cases {
		if _, err := parseJSONPath(p); err == nil {
			t.Errorf("parseJSONPath(%q): expected error", p)
		}
	}
}

func TestJSONHasKey(t *testing.T) {
	j := codec.NewJSON(map[string]any{"items": []any{1.0, 2.0}})
	ok, err := HasKey("items[1]").Matches(j)
	if err != nil || !ok {
		t.Fatalf("expected HasKey match, got ok=%v err=%v", ok, err)
	}
	ok, err = HasKey("items[5]").Matches(j)
	if err != nil || ok {
		t.Fatalf("expected HasKey miss, got ok=%v err=%v", ok, err)
	}
}

func TestExecuteFilterSortPaginate(t *testing.T) {
	s := testSchema()
	rows := []schema.Record{
		rec(3, "carol", 25),
		rec(1, "alice", 40),
		rec(2, "bob", 25),
	}
	limit := uint64(1)
	offset := uint64(1)
	q := Query{
		Filter:  filterPtr(GeFilter("age", codec.Int64(20))),
		OrderBy: []OrderTerm{{Column: "age", Direction: Asc}, {Column: "name", Direction: Asc}},
		Offset:  &offset,
		Limit:   &limit,
		Select:  SelectAll(),
	}
	res, err := Execute(s, rows, q, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(res.Rows))
	}
	if res.Rows[0].Values[1].AsText() != "carol" {
		t.Fatalf("got %q, want carol", res.Rows[0].Values[1].AsText())
	}
}

func TestExecuteProjectionKeepsPrimaryKey(t *testing.T) {
	s := testSchema()
	rows := []schema.Record{rec(1, "alice", 30)}
	q := Query{Select: SelectColumns("name")}
	res, err := Execute(s, rows, q, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := res.Rows[0]
	if got.Values[0].AsInt64() != 1 {
		t.Fatalf("primary key dropped by projection: %+v", got)
	}
	if !got.Values[2].IsNull() {
		t.Fatalf("unselected column not nulled out: %+v", got)
	}
}

func filterPtr(f Filter) *Filter { return &f }
