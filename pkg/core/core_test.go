package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectConfig_FormatPlaceholder(t *testing.T) {
	pg := &DialectConfig{Placeholder: PlaceholderDollar}
	q := &DialectConfig{Placeholder: PlaceholderQuestion}

	assert.Equal(t, "$1", pg.FormatPlaceholder(1))
	assert.Equal(t, "$12", pg.FormatPlaceholder(12))
	assert.Equal(t, "?", q.FormatPlaceholder(3))
}

func TestDialectConfig_QuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		dialect  DialectConfig
		input    string
		expected string
	}{
		{"default double quote", DialectConfig{}, "orders", `"orders"`},
		{"embedded quote", DialectConfig{}, `we"ird`, `"we""ird"`},
		{"backtick", DialectConfig{Identifiers: IdentifierConfig{Quote: "`"}}, "order", "`order`"},
		{"bracket", DialectConfig{Identifiers: IdentifierConfig{Quote: "[", QuoteEnd: "]", Escape: "]]"}}, "a]b", "[a]]b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.QuoteIdentifier(tt.input))
		})
	}
}

func TestDialectConfig_QuoteQualified(t *testing.T) {
	d := &DialectConfig{}
	assert.Equal(t, `"public"."users"`, d.QuoteQualified("public.users"))
	assert.Equal(t, `"users"`, d.QuoteQualified("users"))
}

func TestResultSet_Column(t *testing.T) {
	rs := &ResultSet{
		Columns: []string{"region", "sales"},
		Rows: []map[string]any{
			{"region": "east", "sales": 1},
			{"region": "west"},
		},
	}

	assert.Equal(t, []any{"east", "west"}, rs.Column("region"))
	assert.Equal(t, []any{1, nil}, rs.Column("sales"))
	assert.True(t, rs.HasColumn("sales"))
	assert.False(t, rs.HasColumn("profit"))
	assert.Equal(t, 2, rs.Len())

	var empty *ResultSet
	assert.Equal(t, 0, empty.Len())
}

func TestDate_String(t *testing.T) {
	d := Date{time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-03-09", d.String())
}

func TestStoreError(t *testing.T) {
	cause := errors.New("syntax error at or near \"SELEC\"")

	err := NewStoreError("execute", cause)
	require.Error(t, err)
	assert.Equal(t, "execute: syntax error at or near \"SELEC\"", err.Error())
	assert.ErrorIs(t, err, cause)

	var se *StoreError
	require.ErrorAs(t, fmt.Errorf("query: %w", err), &se)
	assert.Equal(t, "execute", se.Op)

	// already wrapped errors are not wrapped twice
	assert.Same(t, err, NewStoreError("other", err))
	assert.NoError(t, NewStoreError("execute", nil))
}

func TestBadRequestf(t *testing.T) {
	err := BadRequestf("missing field %q", "sql")
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, `bad request: missing field "sql"`, err.Error())
}
