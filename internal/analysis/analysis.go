// Package analysis computes lightweight statistics over query results:
// per-column summaries, a Pearson correlation matrix, and group-by
// aggregation.
//
// Inputs are normalized before any computation and results are normalized
// again before they are returned, so every value in an analysis result is
// safe to serialize.
package analysis

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/normalize"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Mode selects the analysis to run.
type Mode string

// Analysis modes.
const (
	ModeSummary     Mode = "summary"
	ModeCorrelation Mode = "correlation"
	ModeAggregation Mode = "aggregation"
)

// Params configures aggregation. Other modes ignore it.
type Params struct {
	GroupBy           string `json:"group_by"`
	AggregateColumn   string `json:"aggregate_column"`
	AggregateFunction string `json:"aggregate_function"`
}

// ParseMode resolves a user supplied mode name. Empty means summary.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeSummary, nil
	case ModeSummary, ModeCorrelation, ModeAggregation:
		return m, nil
	default:
		return "", core.BadRequestf("unsupported analysis type %q", s)
	}
}

// Analyze runs mode over rs. An empty result fails with core.ErrNoData
// before anything else is checked.
func Analyze(rs *core.ResultSet, mode Mode, params Params) (map[string]any, error) {
	if rs.Len() == 0 {
		return nil, fmt.Errorf("%w: query returned no rows to analyze", core.ErrNoData)
	}

	rs = normalize.NormalizeRows(rs)

	var (
		result map[string]any
		err    error
	)
	switch mode {
	case ModeSummary, "":
		result = Summary(rs)
	case ModeCorrelation:
		result = Correlation(rs)
	case ModeAggregation:
		result, err = Aggregate(rs, params)
	default:
		return nil, core.BadRequestf("unsupported analysis type %q", mode)
	}
	if err != nil {
		return nil, err
	}

	out, _ := normalize.Normalize(result).(map[string]any)
	return out, nil
}
