package render

import (
	"fmt"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// ChartData is chart-ready series derived from a result: labels come from the
// first column and values from the second.
type ChartData struct {
	Type    string           `json:"type"`
	Labels  []string         `json:"labels"`
	Values  []any            `json:"values"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
	Title   string           `json:"title"`
}

// Chart builds ChartData from a normalized result.
func Chart(rs *core.ResultSet, opts Options) (*ChartData, error) {
	if len(rs.Rows) == 0 {
		return nil, fmt.Errorf("%w: query returned no rows to chart", core.ErrNoData)
	}
	if len(rs.Columns) < 2 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInsufficientColumns, len(rs.Columns))
	}

	labelCol, valueCol := rs.Columns[0], rs.Columns[1]

	chart := &ChartData{
		Type:    opts.ChartType,
		Labels:  make([]string, len(rs.Rows)),
		Values:  make([]any, len(rs.Rows)),
		Columns: rs.Columns,
		Data:    rs.Rows,
		Title:   opts.Title,
	}
	if chart.Type == "" {
		chart.Type = DefaultChartType
	}
	if chart.Title == "" {
		chart.Title = DefaultChartTitle
	}

	for i, row := range rs.Rows {
		chart.Labels[i] = label(row[labelCol])
		chart.Values[i] = row[valueCol]
	}
	return chart, nil
}

// label stringifies a label value. Null renders as "null".
func label(v any) string {
	if v == nil {
		return "null"
	}
	s, err := Cell(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
