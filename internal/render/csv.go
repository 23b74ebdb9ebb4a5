package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapgate/pkg/core"
)

// CSV writes rs as comma separated text with a header row.
//
// The frame is rs.Columns. A row lacking a frame column gets an empty
// field; keys a row carries beyond the frame are dropped. A result with no
// columns yields empty text.
func CSV(rs *core.ResultSet) ([]byte, error) {
	if len(rs.Columns) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(rs.Columns); err != nil {
		return nil, err
	}

	record := make([]string, len(rs.Columns))
	for _, row := range rs.Rows {
		for i, col := range rs.Columns {
			cell, err := Cell(row[col])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			record[i] = cell
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFilename returns query_result_<YYYYMMDD_HHMMSS>.csv for t.
func CSVFilename(t time.Time) string {
	return "query_result_" + t.Format("20060102_150405") + ".csv"
}

// Cell formats a normalized value as text. Null is empty, numbers use the
// shortest form that round-trips, and nested values are JSON.
func Cell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return formatFloat(x), nil
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// formatFloat writes x positionally when 1e-4 <= |x| < 1e16 and in
// exponent form otherwise.
func formatFloat(x float64) string {
	if a := math.Abs(x); a == 0 || (a >= 1e-4 && a < 1e16) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
