package analysis

import (
	"github.com/leapstack-labs/leapgate/pkg/core"
	"gonum.org/v1/gonum/stat"
)

// Correlation returns the Pearson correlation matrix of the numeric columns
// as a symmetric map. Each pair uses only the rows where both values are
// present; the diagonal is exactly 1. Pairs with fewer than two shared
// observations, or where either side has zero variance, are nil.
func Correlation(rs *core.ResultSet) map[string]any {
	cols := numericColumns(rs)
	values := make(map[string][]any, len(cols))
	for _, col := range cols {
		values[col] = rs.Column(col)
	}

	out := make(map[string]any, len(cols))
	matrix := make(map[string]map[string]any, len(cols))
	for _, col := range cols {
		matrix[col] = make(map[string]any, len(cols))
		out[col] = matrix[col]
	}

	for i, a := range cols {
		for _, b := range cols[i:] {
			r := pearson(values[a], values[b])
			if a == b && r != nil {
				r = 1.0
			}
			matrix[a][b] = r
			matrix[b][a] = r
		}
	}
	return out
}

func pearson(a, b []any) any {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(a))
	for i := range a {
		x, okX := toFloat(a[i])
		y, okY := toFloat(b[i])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return nil
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return nil
	}
	return stat.Correlation(xs, ys, nil)
}
