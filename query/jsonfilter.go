package query

import (
	"math/big"
	"strconv"
	"strings"

	"icdb/codec"
	"icdb/dberr"
)

// JsonCmp compares an extracted JSON primitive against a target, or
// checks its nullness.
type JsonCmp struct {
	kind jsonCmpKind
	v    codec.Value
	list []codec.Value
}

type jsonCmpKind int

const (
	cmpEq jsonCmpKind = iota
	cmpNe
	cmpGt
	cmpLt
	cmpGe
	cmpLe
	cmpIn
	cmpIsNull
	cmpNotNull
)

func JsonCmpEq(v codec.Value) JsonCmp     { return JsonCmp{kind: cmpEq, v: v} }
func JsonCmpNe(v codec.Value) JsonCmp     { return JsonCmp{kind: cmpNe, v: v} }
func JsonCmpGt(v codec.Value) JsonCmp     { return JsonCmp{kind: cmpGt, v: v} }
func JsonCmpLt(v codec.Value) JsonCmp     { return JsonCmp{kind: cmpLt, v: v} }
func JsonCmpGe(v codec.Value) JsonCmp     { return JsonCmp{kind: cmpGe, v: v} }
func JsonCmpLe(v codec.Value) JsonCmp     { return JsonCmp{kind: cmpLe, v: v} }
func JsonCmpIn(vs []codec.Value) JsonCmp  { return JsonCmp{kind: cmpIn, list: vs} }
func JsonCmpIsNull() JsonCmp              { return JsonCmp{kind: cmpIsNull} }
func JsonCmpNotNull() JsonCmp             { return JsonCmp{kind: cmpNotNull} }

// matches reports whether the comparator holds for an extracted value:
// if the path was absent, only IsNull matches; every other comparator
// fails to match.
func (c JsonCmp) matches(extracted codec.Value, found bool) (bool, error) {
	if !found {
		return c.kind == cmpIsNull, nil
	}
	if c.kind == cmpIsNull {
		return extracted.IsNull(), nil
	}
	if c.kind == cmpNotNull {
		return !extracted.IsNull(), nil
	}
	if extracted.IsNull() {
		return false, nil
	}
	if c.kind == cmpIn {
		for _, cand := range c.list {
			cmp, err := codec.Compare(extracted, cand)
			if err != nil {
				return false, err
			}
			if cmp == 0 {
				return true, nil
			}
		}
		return false, nil
	}
	cmp, err := codec.Compare(extracted, c.v)
	if err != nil {
		return false, err
	}
	switch c.kind {
	case cmpEq:
		return cmp == 0, nil
	case cmpNe:
		return cmp != 0, nil
	case cmpGt:
		return cmp > 0, nil
	case cmpLt:
		return cmp < 0, nil
	case cmpGe:
		return cmp >= 0, nil
	case cmpLe:
		return cmp <= 0, nil
	}
	return false, dberr.New(dberr.InvalidQuery, "unknown JSON comparison operator")
}

// JsonFilter is the recursive sum type for filtering a Json column.
type JsonFilter struct {
	kind    jsonFilterKind
	pattern codec.JSON
	path    string
	cmp     JsonCmp
}

type jsonFilterKind int

const (
	jfContains jsonFilterKind = iota
	jfExtract
	jfHasKey
)

func Contains(pattern codec.JSON) JsonFilter {
	return JsonFilter{kind: jfContains, pattern: pattern}
}

func Extract(path string, cmp JsonCmp) JsonFilter {
	return JsonFilter{kind: jfExtract, path: path, cmp: cmp}
}

func HasKey(path string) JsonFilter {
	return JsonFilter{kind: jfHasKey, path: path}
}

// Matches evaluates the filter against a Json value.
func (f JsonFilter) Matches(j codec.JSON) (bool, error) {
	switch f.kind {
	case jfContains:
		return jsonContains(j.Raw(), f.pattern.Raw()), nil
	case jfExtract:
		segments, err := parseJSONPath(f.path)
		if err != nil {
			return false, err
		}
		extracted, found := extractAtPath(j.Raw(), segments)
		var v codec.Value
		if found {
			v = jsonRawToValue(extracted)
		}
		return f.cmp.matches(v, found)
	case jfHasKey:
		segments, err := parseJSONPath(f.path)
		if err != nil {
			return false, err
		}
		_, found := extractAtPath(j.Raw(), segments)
		return found, nil
	}
	return false, dberr.New(dberr.InvalidQuery, "unknown JSON filter kind")
}

// jsonContains implements PostgreSQL @> style structural containment:
// every key/element of needle must be present and equal (recursively)
// in haystack.
func jsonContains(haystack, needle any) bool {
	switch n := needle.(type) {
	case map[string]any:
		h, ok := haystack.(map[string]any)
		if !ok {
			return false
		}
		for k, nv := range n {
			hv, ok := h[k]
			if !ok || !jsonContains(hv, nv) {
				return false
			}
		}
		return true
	case []any:
		h, ok := haystack.([]any)
		if !ok {
			return false
		}
		for _, ne := range n {
			found := false
			for _, he := range h {
				if jsonContains(he, ne) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		if h, ok := haystack.([]any); ok {
			for _, he := range h {
				if jsonContains(he, needle) {
					return true
				}
			}
			return false
		}
		return jsonPrimitiveEqual(haystack, needle)
	}
}

func jsonPrimitiveEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		return false
	}
}

// pathSegment is one step of a dot/bracket JSON path.
type pathSegment struct {
	key      string
	isIndex  bool
	index    int
}

// parseJSONPath parses "a.b[0].c" style paths, rejecting empty path,
// trailing dot, empty/negative/non-numeric bracket contents, and
// unclosed brackets with InvalidQuery.
func parseJSONPath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, dberr.New(dberr.InvalidQuery, "empty JSON path")
	}
	var segments []pathSegment
	var current strings.Builder
	runes := []rune(path)
	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, pathSegment{key: current.String()})
			current.Reset()
		}
	}
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.':
			if current.Len() == 0 && len(segments) == 0 {
				return nil, dberr.New(dberr.InvalidQuery, "JSON path cannot start with '.'")
			}
			flush()
			if i+1 >= len(runes) {
				return nil, dberr.New(dberr.InvalidQuery, "JSON path cannot end with '.'")
			}
			if runes[i+1] == '.' {
				return nil, dberr.New(dberr.InvalidQuery, "JSON path cannot have consecutive '.'")
			}
		case '[':
			flush()
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				return nil, dberr.New(dberr.InvalidQuery, "unclosed bracket in JSON path")
			}
			idxStr := string(runes[i+1 : j])
			if idxStr == "" {
				return nil, dberr.New(dberr.InvalidQuery, "empty brackets in JSON path")
			}
			if strings.HasPrefix(idxStr, "-") {
				return nil, dberr.New(dberr.InvalidQuery, "negative array index in JSON path")
			}
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, dberr.New(dberr.InvalidQuery, "invalid array index %q in JSON path", idxStr)
			}
			segments = append(segments, pathSegment{isIndex: true, index: idx})
			i = j
		case ']':
			return nil, dberr.New(dberr.InvalidQuery, "unexpected ']' in JSON path")
		default:
			current.WriteRune(runes[i])
		}
	}
	flush()
	if len(segments) == 0 {
		return nil, dberr.New(dberr.InvalidQuery, "empty JSON path")
	}
	return segments, nil
}

// extractAtPath walks raw following segments, grounded on
// json_filter/extract.rs's extract_at_path.
func extractAtPath(raw any, segments []pathSegment) (any, bool) {
	current := raw
	for _, seg := range segments {
		if seg.isIndex {
			arr, ok := current.([]any)
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return nil, false
			}
			current = arr[seg.index]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[seg.key]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}

// jsonRawToValue projects an extracted JSON primitive to a codec.Value.
func jsonRawToValue(raw any) codec.Value {
	switch v := raw.(type) {
	case nil:
		return codec.Null()
	case bool:
		return codec.Bool(v)
	case float64:
		if v == float64(int64(v)) {
			return codec.Int64(int64(v))
		}
		return codec.DecimalValue(floatToDecimal(v))
	case string:
		return codec.Text(v)
	case []any, map[string]any:
		return codec.JSONValue(codec.NewJSON(v))
	default:
		return codec.Null()
	}
}

// floatToDecimal projects a non-integer JSON number onto the engine's
// Decimal scalar, keeping at most MaxDecimalDigits digits of its plain
// decimal form (leading zeros included): excess fractional digits are
// truncated, and integer digits past the limit read as zero.
func floatToDecimal(v float64) codec.Decimal {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	var digits string
	var scale int
	if dot < 0 {
		digits = s
		scale = 0
	} else {
		digits = s[:dot] + s[dot+1:]
		scale = len(s) - dot - 1
	}
	if len(digits) > codec.MaxDecimalDigits {
		trim := len(digits) - codec.MaxDecimalDigits
		drop := min(trim, scale)
		digits = digits[:codec.MaxDecimalDigits] + strings.Repeat("0", trim-drop)
		scale -= drop
	}
	mantissa, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return codec.NewDecimal(0, 0)
	}
	return codec.Decimal{Mantissa: mantissa, Scale: uint8(scale), Negative: neg && mantissa.Sign() != 0}
}
