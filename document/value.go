// Package document models JSON documents as plain Go values: nil, bool,
// numbers, string, []any and map[string]any. Numbers parsed from text are kept
// as json.Number so that their lexical form decides whether they are integers
// or reals.
package document

import (
	"math"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind is the JSON type of a document value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindInteger
	KindReal
	KindString
	KindArray
	KindObject
)

// String returns the JSON Schema name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindReal:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// KindOf classifies a document value.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	case json.Number:
		if _, ok := numberInteger(x); ok {
			return KindInteger
		}
		if _, err := strconv.ParseFloat(string(x), 64); err == nil {
			return KindReal
		}
		return KindInvalid
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return KindInteger
	case uint64:
		if x > math.MaxInt64 {
			return KindReal
		}
		return KindInteger
	case float32, float64:
		return KindReal
	default:
		return KindInvalid
	}
}

// IsNumber reports whether v is an integer or a real.
func IsNumber(v any) bool {
	k := KindOf(v)
	return k == KindInteger || k == KindReal
}

// Integer returns the value of an integer-kinded number.
func Integer(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		return numberInteger(x)
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

// Number returns the value of any number as a float64.
func Number(v any) (float64, bool) {
	if i, ok := Integer(v); ok {
		return float64(i), true
	}
	switch x := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint:
		return float64(x), true
	}
	return 0, false
}

// Integral returns the value of a number that holds an integral value, which
// includes reals such as 2.0.
func Integral(v any) (int64, bool) {
	if i, ok := Integer(v); ok {
		return i, true
	}
	f, ok := Number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func numberInteger(n json.Number) (int64, bool) {
	s := string(n)
	if strings.ContainsAny(s, ".eE") {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Equal compares two document values. Numbers compare by value, so 1 and 1.0
// are equal.
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}

// Compare imposes a total order on document values: null < booleans <
// numbers < strings < arrays < objects, then by content.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		return 0
	case 1:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case 2:
		return compareNumbers(a, b)
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		x, y := a.([]any), b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		return compareInts(len(x), len(y))
	case 5:
		x, y := a.(map[string]any), b.(map[string]any)
		kx, ky := SortedKeys(x), SortedKeys(y)
		for i := 0; i < len(kx) && i < len(ky); i++ {
			if c := strings.Compare(kx[i], ky[i]); c != 0 {
				return c
			}
			if c := Compare(x[kx[i]], y[ky[i]]); c != 0 {
				return c
			}
		}
		return compareInts(len(kx), len(ky))
	}
	return 0
}

func rank(v any) int {
	switch KindOf(v) {
	case KindNull:
		return 0
	case KindBoolean:
		return 1
	case KindInteger, KindReal:
		return 2
	case KindString:
		return 3
	case KindArray:
		return 4
	case KindObject:
		return 5
	}
	return 6
}

func compareNumbers(a, b any) int {
	ia, aok := Integer(a)
	ib, bok := Integer(b)
	if aok && bok {
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	}
	fa, _ := Number(a)
	fb, _ := Number(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortedKeys returns the keys of an object in ascending byte order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep-copies a document value. Scalars are shared.
func Clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// SortUnique sorts values by Compare and drops duplicates, keeping the first
// of each run of equal values.
func SortUnique(values []any) []any {
	out := make([]any, len(values))
	copy(out, values)
	sort.SliceStable(out, func(i, j int) bool { return Compare(out[i], out[j]) < 0 })
	result := out[:0]
	for i, v := range out {
		if i > 0 && Compare(result[len(result)-1], v) == 0 {
			continue
		}
		result = append(result, v)
	}
	return result
}

// HasDuplicates reports whether any two values compare equal.
func HasDuplicates(values []any) bool {
	for i := range values {
		for j := i + 1; j < len(values); j++ {
			if Equal(values[i], values[j]) {
				return true
			}
		}
	}
	return false
}

// Index returns the position of the first element equal to v, or -1.
func Index(values []any, v any) int {
	for i, e := range values {
		if Equal(e, v) {
			return i
		}
	}
	return -1
}
