package analysis

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapgate/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultAggregateFunction is used when no function is named.
const DefaultAggregateFunction = "sum"

// aggregator reduces the aggregate column values of one group.
type aggregator struct {
	numeric bool
	fn      func(values []any) any
}

var aggregators = map[string]aggregator{
	"sum":     {numeric: true, fn: aggSum},
	"mean":    {numeric: true, fn: aggMean},
	"median":  {numeric: true, fn: func(v []any) any { return median(numbers(v)) }},
	"std":     {numeric: true, fn: aggStd},
	"var":     {numeric: true, fn: aggVar},
	"prod":    {numeric: true, fn: aggProd},
	"min":     {fn: aggMin},
	"max":     {fn: aggMax},
	"count":   {fn: aggCount},
	"size":    {fn: func(v []any) any { return int64(len(v)) }},
	"nunique": {fn: aggNUnique},
	"first":   {fn: aggFirst},
	"last":    {fn: aggLast},
}

// SupportedFunctions lists the aggregate function names, "avg" excluded.
func SupportedFunctions() []string {
	return []string{"sum", "mean", "median", "min", "max", "count", "size", "nunique", "std", "var", "prod", "first", "last"}
}

// Aggregate groups rows by params.GroupBy and reduces params.AggregateColumn
// with params.AggregateFunction. Groups form by exact value equality; a null
// group value forms its own group keyed "null". Groups whose keys print
// alike are told apart by kind, as in "1 (integer)" and "1 (text)".
func Aggregate(rs *core.ResultSet, params Params) (map[string]any, error) {
	if params.GroupBy == "" || params.AggregateColumn == "" {
		return nil, fmt.Errorf("%w: aggregation requires group_by and aggregate_column", core.ErrMissingParameter)
	}

	name := strings.ToLower(strings.TrimSpace(params.AggregateFunction))
	switch name {
	case "":
		name = DefaultAggregateFunction
	case "avg":
		name = "mean"
	}
	agg, ok := aggregators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s, avg)", core.ErrUnsupportedFunction,
			params.AggregateFunction, strings.Join(SupportedFunctions(), ", "))
	}

	for _, col := range []string{params.GroupBy, params.AggregateColumn} {
		if !rs.HasColumn(col) {
			return nil, core.BadRequestf("column %q not found in result", col)
		}
	}

	groups := map[valueKey][]any{}
	for _, row := range rs.Rows {
		key := keyOf(row[params.GroupBy])
		groups[key] = append(groups[key], row[params.AggregateColumn])
	}
	labels := keyLabels(groups)

	out := make(map[string]any, len(groups))
	for key, values := range groups {
		if agg.numeric {
			if err := requireNumeric(values, name, params.AggregateColumn); err != nil {
				return nil, err
			}
		}
		v, err := apply(agg, values, name, params.AggregateColumn)
		if err != nil {
			return nil, err
		}
		out[labels[key]] = v
	}
	return out, nil
}

func requireNumeric(values []any, fn, col string) error {
	for _, v := range values {
		switch v.(type) {
		case nil, int64, float64:
		default:
			return core.BadRequestf("aggregate function %s requires numeric values, column %q has %T", fn, col, v)
		}
	}
	return nil
}

// apply runs an aggregator. min and max reject groups mixing numbers and
// text.
func apply(agg aggregator, values []any, fn, col string) (any, error) {
	if fn == "min" || fn == "max" {
		if err := requireComparable(values, fn, col); err != nil {
			return nil, err
		}
	}
	return agg.fn(values), nil
}

// requireComparable accepts groups that are all numeric or all strings.
func requireComparable(values []any, fn, col string) error {
	var numeric, text bool
	for _, v := range values {
		switch v.(type) {
		case nil:
		case int64, float64:
			numeric = true
		case string:
			text = true
		default:
			return core.BadRequestf("aggregate function %s cannot order %T values in column %q", fn, v, col)
		}
	}
	if numeric && text {
		return core.BadRequestf("aggregate function %s cannot compare numbers and text in column %q", fn, col)
	}
	return nil
}

func allInts(values []any) bool {
	for _, v := range values {
		if _, ok := v.(float64); ok {
			return false
		}
	}
	return true
}

func aggSum(values []any) any {
	if allInts(values) {
		var total int64
		for _, v := range values {
			if i, ok := v.(int64); ok {
				total += i
			}
		}
		return total
	}
	return floats.Sum(numbers(values))
}

func aggProd(values []any) any {
	if allInts(values) {
		total := int64(1)
		for _, v := range values {
			if i, ok := v.(int64); ok {
				total *= i
			}
		}
		return total
	}
	return floats.Prod(numbers(values))
}

func aggMean(values []any) any {
	xs := numbers(values)
	if len(xs) == 0 {
		return nil
	}
	return stat.Mean(xs, nil)
}

func aggStd(values []any) any {
	xs := numbers(values)
	if len(xs) < 2 {
		return nil
	}
	return stat.StdDev(xs, nil)
}

func aggVar(values []any) any {
	xs := numbers(values)
	if len(xs) < 2 {
		return nil
	}
	return stat.Variance(xs, nil)
}

func aggMin(values []any) any { return pick(values, less) }
func aggMax(values []any) any { return pick(values, func(a, b any) bool { return less(b, a) }) }

// pick returns the non-null value that is better than every other one.
func pick(values []any, better func(a, b any) bool) any {
	var best any
	for _, v := range values {
		if v == nil {
			continue
		}
		if best == nil || better(v, best) {
			best = v
		}
	}
	return best
}

func less(a, b any) bool {
	if sa, ok := a.(string); ok {
		sb, _ := b.(string)
		return sa < sb
	}
	fa, _ := toFloat(a)
	fb, _ := toFloat(b)
	return fa < fb
}

func aggCount(values []any) any {
	var n int64
	for _, v := range values {
		if v != nil {
			n++
		}
	}
	return n
}

func aggNUnique(values []any) any {
	seen := map[valueKey]struct{}{}
	for _, v := range values {
		if v != nil {
			seen[keyOf(v)] = struct{}{}
		}
	}
	return int64(len(seen))
}

func aggFirst(values []any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func aggLast(values []any) any {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			return values[i]
		}
	}
	return nil
}
