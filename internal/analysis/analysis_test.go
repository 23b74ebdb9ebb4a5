package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesRows() *core.ResultSet {
	return &core.ResultSet{
		Columns: []string{"region", "sales", "units"},
		Rows: []map[string]any{
			{"region": "east", "sales": decimal.RequireFromString("100.50"), "units": int64(1)},
			{"region": "east", "sales": decimal.RequireFromString("50.25"), "units": int64(2)},
			{"region": "west", "sales": decimal.RequireFromString("200.00"), "units": int64(3)},
			{"region": nil, "sales": decimal.RequireFromString("10"), "units": nil},
		},
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeSummary, false},
		{"summary", ModeSummary, false},
		{"Correlation", ModeCorrelation, false},
		{"aggregation", ModeAggregation, false},
		{"regression", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_NoData(t *testing.T) {
	empty := &core.ResultSet{Columns: []string{"a"}, Rows: []map[string]any{}}

	for _, mode := range []Mode{ModeSummary, ModeCorrelation, ModeAggregation, Mode("bogus")} {
		t.Run(string(mode), func(t *testing.T) {
			_, err := Analyze(empty, mode, Params{})
			assert.ErrorIs(t, err, core.ErrNoData)
		})
	}
}

func TestAnalyze_UnknownMode(t *testing.T) {
	_, err := Analyze(salesRows(), Mode("bogus"), Params{})
	assert.ErrorIs(t, err, core.ErrBadRequest)
}

func TestAnalyze_Summary(t *testing.T) {
	result, err := Analyze(salesRows(), ModeSummary, Params{})
	require.NoError(t, err)

	sales := result["sales"].(map[string]any)
	assert.InDelta(t, 10.0, sales["min"], 1e-9)
	assert.InDelta(t, 200.0, sales["max"], 1e-9)
	assert.InDelta(t, 90.1875, sales["mean"], 1e-9)
	assert.InDelta(t, 75.375, sales["median"], 1e-9)
	assert.InDelta(t, 82.0369263909044, sales["std"], 1e-9)

	units := result["units"].(map[string]any)
	assert.Equal(t, int64(1), units["min"])
	assert.Equal(t, int64(3), units["max"])
	assert.InDelta(t, 2.0, units["median"], 1e-9)

	region := result["region"].(map[string]any)
	assert.Equal(t, int64(2), region["unique_values"])
	assert.Equal(t, map[string]any{"east": int64(2), "west": int64(1)}, region["most_common"])
}

func TestAnalyze_SummarySingleRow(t *testing.T) {
	rs := &core.ResultSet{
		Columns: []string{"x"},
		Rows:    []map[string]any{{"x": decimal.RequireFromString("4.5")}},
	}

	result, err := Analyze(rs, ModeSummary, Params{})
	require.NoError(t, err)

	x := result["x"].(map[string]any)
	assert.Nil(t, x["std"])
	assert.Equal(t, 4.5, x["min"])
	assert.Equal(t, 4.5, x["max"])
	assert.Equal(t, 4.5, x["mean"])
	assert.Equal(t, 4.5, x["median"])
}

func TestAnalyze_SummaryCategoricalKinds(t *testing.T) {
	day := core.Date{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rs := &core.ResultSet{
		Columns: []string{"flag", "day", "empty", "word"},
		Rows: []map[string]any{
			{"flag": true, "day": day, "empty": nil, "word": "b"},
			{"flag": false, "day": day, "empty": nil, "word": "a"},
			{"flag": true, "day": nil, "empty": nil, "word": "c"},
			{"flag": true, "day": nil, "empty": nil, "word": "d"},
		},
	}

	result, err := Analyze(rs, ModeSummary, Params{})
	require.NoError(t, err)

	flag := result["flag"].(map[string]any)
	assert.Equal(t, int64(2), flag["unique_values"])
	assert.Equal(t, map[string]any{"true": int64(3), "false": int64(1)}, flag["most_common"])

	assert.Equal(t, map[string]any{"unique_values": int64(1), "most_common": map[string]any{"2024-01-01": int64(2)}}, result["day"])
	assert.Equal(t, map[string]any{"unique_values": int64(0), "most_common": map[string]any{}}, result["empty"])

	// ties keep first occurrence
	assert.Equal(t, map[string]any{"b": int64(1), "a": int64(1), "c": int64(1)}, result["word"].(map[string]any)["most_common"])
}

func TestAnalyze_Correlation(t *testing.T) {
	rs := &core.ResultSet{
		Columns: []string{"x", "y", "z", "flat", "name"},
		Rows: []map[string]any{
			{"x": int64(1), "y": 2.0, "z": int64(3), "flat": int64(7), "name": "a"},
			{"x": int64(2), "y": 4.0, "z": int64(2), "flat": int64(7), "name": "b"},
			{"x": int64(3), "y": 6.0, "z": int64(1), "flat": int64(7), "name": "c"},
			{"x": int64(4), "y": nil, "z": int64(0), "flat": int64(7), "name": "d"},
		},
	}

	result, err := Analyze(rs, ModeCorrelation, Params{})
	require.NoError(t, err)

	require.Len(t, result, 4, "only numeric columns")
	assert.NotContains(t, result, "name")

	cols := []string{"x", "y", "z"}
	for _, a := range cols {
		row := result[a].(map[string]any)
		assert.Equal(t, 1.0, row[a], "diagonal of %s", a)
		for _, b := range cols {
			assert.Equal(t, row[b], result[b].(map[string]any)[a], "symmetry %s/%s", a, b)
		}
	}

	assert.InDelta(t, 1.0, result["x"].(map[string]any)["y"], 1e-12)
	assert.InDelta(t, -1.0, result["x"].(map[string]any)["z"], 1e-12)
	assert.Nil(t, result["flat"].(map[string]any)["flat"])
	assert.Nil(t, result["flat"].(map[string]any)["x"])
}

func TestAnalyze_AggregationExample(t *testing.T) {
	rs := &core.ResultSet{
		Columns: []string{"region", "sales"},
		Rows: []map[string]any{
			{"region": "east", "sales": decimal.RequireFromString("100.50")},
			{"region": "east", "sales": decimal.RequireFromString("50.25")},
		},
	}

	result, err := Analyze(rs, ModeAggregation, Params{GroupBy: "region", AggregateColumn: "sales", AggregateFunction: "sum"})
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"east": 150.75}`, string(data))
}

func TestAnalyze_AggregationFunctions(t *testing.T) {
	tests := []struct {
		fn   string
		want map[string]any
	}{
		{"", map[string]any{"east": 150.75, "west": 200.0, "null": 10.0}},
		{"mean", map[string]any{"east": 75.375, "west": 200.0, "null": 10.0}},
		{"median", map[string]any{"east": 75.375, "west": 200.0, "null": 10.0}},
		{"min", map[string]any{"east": 50.25, "west": 200.0, "null": 10.0}},
		{"max", map[string]any{"east": 100.5, "west": 200.0, "null": 10.0}},
		{"count", map[string]any{"east": int64(2), "west": int64(1), "null": int64(1)}},
		{"size", map[string]any{"east": int64(2), "west": int64(1), "null": int64(1)}},
		{"nunique", map[string]any{"east": int64(2), "west": int64(1), "null": int64(1)}},
		{"first", map[string]any{"east": 100.5, "west": 200.0, "null": 10.0}},
		{"last", map[string]any{"east": 50.25, "west": 200.0, "null": 10.0}},
		{"prod", map[string]any{"east": 5050.125, "west": 200.0, "null": 10.0}},
		{"std", map[string]any{"east": 35.532115754624016, "west": nil, "null": nil}},
		{"var", map[string]any{"east": 1262.53125, "west": nil, "null": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			result, err := Analyze(salesRows(), ModeAggregation, Params{GroupBy: "region", AggregateColumn: "sales", AggregateFunction: tt.fn})
			require.NoError(t, err)
			require.Len(t, result, len(tt.want))
			for k, want := range tt.want {
				if want == nil {
					assert.Nil(t, result[k], "group %s", k)
					continue
				}
				assert.InDelta(t, want, result[k], 1e-9, "group %s", k)
			}
		})
	}
}

func TestAnalyze_AvgEqualsMean(t *testing.T) {
	avg, err := Analyze(salesRows(), ModeAggregation, Params{GroupBy: "region", AggregateColumn: "sales", AggregateFunction: "avg"})
	require.NoError(t, err)
	mean, err := Analyze(salesRows(), ModeAggregation, Params{GroupBy: "region", AggregateColumn: "sales", AggregateFunction: "mean"})
	require.NoError(t, err)
	assert.Equal(t, mean, avg)
}

func TestAnalyze_AggregationIntegerSum(t *testing.T) {
	result, err := Analyze(salesRows(), ModeAggregation, Params{GroupBy: "region", AggregateColumn: "units"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"east": int64(3), "west": int64(3), "null": int64(0)}, result)
}

func TestAnalyze_AggregationErrors(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"missing group_by", Params{AggregateColumn: "sales"}, core.ErrMissingParameter},
		{"missing aggregate_column", Params{GroupBy: "region"}, core.ErrMissingParameter},
		{"unsupported function", Params{GroupBy: "region", AggregateColumn: "sales", AggregateFunction: "mode"}, core.ErrUnsupportedFunction},
		{"unknown group column", Params{GroupBy: "country", AggregateColumn: "sales"}, core.ErrBadRequest},
		{"unknown aggregate column", Params{GroupBy: "region", AggregateColumn: "profit"}, core.ErrBadRequest},
		{"numeric function over text", Params{GroupBy: "units", AggregateColumn: "region", AggregateFunction: "sum"}, core.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(salesRows(), ModeAggregation, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnalyze_AggregationTextFunctions(t *testing.T) {
	result, err := Analyze(salesRows(), ModeAggregation, Params{GroupBy: "units", AggregateColumn: "region", AggregateFunction: "max"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "east", "2": "east", "3": "west", "null": nil}, result)
}

func TestAnalyze_AggregationKeysThatPrintAlike(t *testing.T) {
	rs := &core.ResultSet{
		Columns: []string{"k", "v"},
		Rows: []map[string]any{
			{"k": nil, "v": int64(1)},
			{"k": "null", "v": int64(100)},
			{"k": int64(1), "v": int64(20)},
			{"k": "1", "v": int64(30)},
			{"k": "east", "v": int64(5)},
		},
	}

	for range 5 {
		result, err := Analyze(rs, ModeAggregation, Params{GroupBy: "k", AggregateColumn: "v"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"null (null)": int64(1),
			"null (text)": int64(100),
			"1 (integer)": int64(20),
			"1 (text)":    int64(30),
			"east":        int64(5),
		}, result)
	}
}

func TestAnalyze_SummaryValuesThatPrintAlike(t *testing.T) {
	rs := &core.ResultSet{
		Columns: []string{"k"},
		Rows: []map[string]any{
			{"k": "1"},
			{"k": int64(1)},
			{"k": "1"},
			{"k": "null"},
			{"k": nil},
		},
	}

	result, err := Analyze(rs, ModeSummary, Params{})
	require.NoError(t, err)

	k := result["k"].(map[string]any)
	assert.Equal(t, int64(3), k["unique_values"])
	assert.Equal(t, map[string]any{"1 (text)": int64(2), "1 (integer)": int64(1), "null": int64(1)}, k["most_common"])
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	rs := salesRows()
	_, err := Analyze(rs, ModeSummary, Params{})
	require.NoError(t, err)

	_, ok := rs.Rows[0]["sales"].(decimal.Decimal)
	assert.True(t, ok)
}
