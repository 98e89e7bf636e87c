package scenario

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/odvcencio/livestate/state"
)

type mapOp func(v, arg any) any

type combineOp func(a, b any) any

var mapOps = map[string]mapOp{
	"identity": func(v, _ any) any { return v },
	"add":      add,
	"concat":   func(v, arg any) any { return fmt.Sprint(v) + fmt.Sprint(arg) },
	"upper":    func(v, _ any) any { return strings.ToUpper(fmt.Sprint(v)) },
	"len":      func(v, _ any) any { return utf8.RuneCountInString(fmt.Sprint(v)) },
	"dup":      func(v, _ any) any { return []any{v, v} },
	"parity": func(v, _ any) any {
		n, ok := toInt(v)
		if !ok {
			return "nan"
		}
		if n%2 == 0 {
			return "even"
		}
		return "odd"
	},
}

var combineOps = map[string]combineOp{
	"pair": func(a, b any) any { return [2]any{a, b} },
	"sum":  func(a, b any) any { return add(a, b) },
	"join": func(a, b any) any { return fmt.Sprint(a) + fmt.Sprint(b) },
}

var expectedErrors = map[string]error{
	"passive": state.ErrPassiveUpdate,
}

// MapOps returns the names of the supported map operations.
func MapOps() []string {
	return sortedKeys(mapOps)
}

// CombineOps returns the names of the supported combine operations.
func CombineOps() []string {
	return sortedKeys(combineOps)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// add sums numbers and concatenates anything else.
func add(a, b any) any {
	ai, aInt := toInt(a)
	bi, bInt := toInt(b)
	if aInt && bInt {
		return ai + bi
	}
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		return af + bf
	}
	return fmt.Sprint(a) + fmt.Sprint(b)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// normalize maps values onto the shapes yaml.v3 decodes into, so expected
// and actual values compare structurally.
func normalize(v any) any {
	switch v := v.(type) {
	case nil, string, bool:
		return v
	case [2]any:
		return []any{normalize(v[0]), normalize(v[1])}
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = normalize(v[i])
		}
		return out
	default:
		if f, ok := toFloat(v); ok {
			return f
		}
		return fmt.Sprint(v)
	}
}
