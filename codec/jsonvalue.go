package codec

import (
	"encoding/json"
	"sort"
)

// JSON is an owned JSON DOM value.
// Ordering follows a fixed hierarchy (Null < Bool < Number < String <
// Array < Object, recursing element/key wise), since the internal JSON
// order is otherwise unspecified.
type JSON struct {
	raw any // nil, bool, float64, string, []any, map[string]any
}

func NewJSON(v any) JSON { return JSON{raw: normalizeJSON(v)} }

func (j JSON) Raw() any { return j.raw }

func (j JSON) IsNull() bool { return j.raw == nil }

func normalizeJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = normalizeJSON(vv)
		}
		return m
	case []any:
		arr := make([]any, len(t))
		for i, vv := range t {
			arr[i] = normalizeJSON(vv)
		}
		return arr
	default:
		return v
	}
}

func jsonOrderClass(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	case []any:
		return 4
	case map[string]any:
		return 5
	default:
		return 6
	}
}

// CompareJSON implements the total order documented in SPEC_FULL.md.
func CompareJSON(a, b JSON) int {
	return compareJSONRaw(a.raw, b.raw)
}

func compareJSONRaw(a, b any) int {
	ca, cb := jsonOrderClass(a), jsonOrderClass(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case 0:
		return 0
	case 1:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case 2:
		av, bv := a.(float64), b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case 3:
		av, bv := a.(string), b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case 4:
		av, bv := a.([]any), b.([]any)
		n := len(av)
		if len(bv) < n {
			n = len(bv)
		}
		for i := 0; i < n; i++ {
			if c := compareJSONRaw(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return len(av) - len(bv)
	case 5:
		av, bv := a.(map[string]any), b.(map[string]any)
		ak, bk := sortedKeys(av), sortedKeys(bv)
		n := len(ak)
		if len(bk) < n {
			n = len(bk)
		}
		for i := 0; i < n; i++ {
			if ak[i] != bk[i] {
				if ak[i] < bk[i] {
					return -1
				}
				return 1
			}
			if c := compareJSONRaw(av[ak[i]], bv[bk[i]]); c != 0 {
				return c
			}
		}
		return len(ak) - len(bk)
	default:
		return 0
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeJSON(j JSON) ([]byte, error) {
	return json.Marshal(j.raw)
}

func decodeJSONValue(b []byte) (JSON, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return JSON{}, errDecode("Json", err.Error())
	}
	return JSON{raw: normalizeJSON(v)}, nil
}
