// Package render turns a result set into one of the gateway's output
// formats: tabular JSON, a CSV attachment, or chart-ready series.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapgate/internal/normalize"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Format selects an output representation.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatChart Format = "chart"
)

// Chart defaults.
const (
	DefaultChartType  = "bar"
	DefaultChartTitle = "Data Visualization"
)

// Options tunes rendering.
type Options struct {
	// ChartType is passed through to ChartData.Type. Defaults to "bar".
	ChartType string

	// Title is passed through to ChartData.Title.
	Title string

	// Now stamps the CSV filename. Defaults to time.Now.
	Now func() time.Time
}

// Output is a rendered result.
type Output struct {
	Format      Format
	ContentType string

	// Filename is set for attachments (csv).
	Filename string

	// Payload holds the raw body for attachments.
	Payload []byte

	// Data holds the JSON document for json and chart output, and for
	// command results in every format.
	Data map[string]any
}

// ParseFormat resolves a user supplied format name. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatChart:
		return f, nil
	default:
		return "", core.BadRequestf("unsupported output format %q", s)
	}
}

// Render normalizes rs and renders it as format.
//
// A command result renders as {"message": "<n> rows affected"} regardless of
// the requested format.
func Render(rs *core.ResultSet, format Format, opts Options) (*Output, error) {
	if rs == nil {
		rs = &core.ResultSet{}
	}
	if rs.Command {
		return &Output{
			Format:      FormatJSON,
			ContentType: "application/json",
			Data:        map[string]any{"message": fmt.Sprintf("%d rows affected", rs.RowsAffected)},
		}, nil
	}

	rs = normalize.NormalizeRows(rs)

	switch format {
	case FormatJSON, "":
		return &Output{
			Format:      FormatJSON,
			ContentType: "application/json",
			Data:        map[string]any{"results": rs.Rows},
		}, nil
	case FormatCSV:
		payload, err := CSV(rs)
		if err != nil {
			return nil, err
		}
		return &Output{
			Format:      FormatCSV,
			ContentType: "text/csv",
			Filename:    CSVFilename(opts.now()),
			Payload:     payload,
		}, nil
	case FormatChart:
		chart, err := Chart(rs, opts)
		if err != nil {
			return nil, err
		}
		return &Output{
			Format:      FormatChart,
			ContentType: "application/json",
			Data:        map[string]any{"chart_data": chart},
		}, nil
	default:
		return nil, core.BadRequestf("unsupported output format %q", format)
	}
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
