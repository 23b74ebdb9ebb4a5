package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// numericColumns returns the result columns whose non-null values are all
// int64 or float64, with at least one such value.
func numericColumns(rs *core.ResultSet) []string {
	var cols []string
	for _, col := range rs.Columns {
		if isNumericColumn(rs.Column(col)) {
			cols = append(cols, col)
		}
	}
	return cols
}

func isNumericColumn(values []any) bool {
	seen := false
	for _, v := range values {
		switch v.(type) {
		case nil:
		case int64, float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// toFloat converts a normalized numeric value.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// numbers returns the non-null values of a numeric column.
func numbers(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// valueKey identifies a value by type and content so that 1, 1.0 and "1"
// stay distinct.
type valueKey struct {
	kind  string
	value string
}

func keyOf(v any) valueKey {
	return valueKey{kind: kindOf(v), value: label(v)}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "text"
	case bool:
		return "bool"
	case int64:
		return "integer"
	case float64:
		return "float"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// keyLabels names each key by its label. Keys whose labels coincide, such
// as null and the text "null", get their kind appended: "null (text)".
func keyLabels[V any](keys map[valueKey]V) map[valueKey]string {
	byLabel := make(map[string]int, len(keys))
	for k := range keys {
		byLabel[k.value]++
	}

	out := make(map[valueKey]string, len(keys))
	for k := range keys {
		if byLabel[k.value] > 1 {
			out[k] = k.value + " (" + k.kind + ")"
			continue
		}
		out[k] = k.value
	}
	return out
}

// label renders a normalized value as a map key. Null renders as "null".
func label(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
