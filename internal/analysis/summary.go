package analysis

import (
	"slices"
	"sort"

	"github.com/leapstack-labs/leapgate/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// mostCommonLimit is the number of entries reported in most_common.
const mostCommonLimit = 3

// Summary describes every column. Numeric columns get
// {min, max, mean, median, std}; all others get
// {unique_values, most_common}.
func Summary(rs *core.ResultSet) map[string]any {
	out := make(map[string]any, len(rs.Columns))
	for _, col := range rs.Columns {
		values := rs.Column(col)
		if isNumericColumn(values) {
			out[col] = numericSummary(values)
		} else {
			out[col] = categoricalSummary(values)
		}
	}
	return out
}

func numericSummary(values []any) map[string]any {
	xs := numbers(values)
	minV, maxV := extremes(values)

	var std any
	if len(xs) >= 2 {
		std = stat.StdDev(xs, nil)
	}

	return map[string]any{
		"min":    minV,
		"max":    maxV,
		"mean":   stat.Mean(xs, nil),
		"median": median(xs),
		"std":    std,
	}
}

// extremes returns the smallest and largest non-null numeric values in
// their original representation.
func extremes(values []any) (minV, maxV any) {
	var lo, hi float64
	for _, v := range values {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		if minV == nil || f < lo {
			minV, lo = v, f
		}
		if maxV == nil || f > hi {
			maxV, hi = v, f
		}
	}
	return minV, maxV
}

// median averages the two middle values for even counts. Empty input
// yields nil.
func median(xs []float64) any {
	if len(xs) == 0 {
		return nil
	}
	sorted := slices.Clone(xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func categoricalSummary(values []any) map[string]any {
	type tally struct {
		value any
		count int64
		first int
	}

	counts := map[valueKey]*tally{}
	for i, v := range values {
		if v == nil {
			continue
		}
		k := keyOf(v)
		if t, ok := counts[k]; ok {
			t.count++
			continue
		}
		counts[k] = &tally{value: v, count: 1, first: i}
	}

	ranked := make([]*tally, 0, len(counts))
	for _, t := range counts {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	labels := keyLabels(counts)
	mostCommon := make(map[string]any, mostCommonLimit)
	for _, t := range ranked[:min(mostCommonLimit, len(ranked))] {
		mostCommon[labels[keyOf(t.value)]] = t.count
	}

	return map[string]any{
		"unique_values": int64(len(counts)),
		"most_common":   mostCommon,
	}
}
