package core

import (
	"context"
	"time"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection.
	Close() error

	// Execute runs a single SQL statement and returns its result set.
	// Statements that do not produce rows yield a command result.
	Execute(ctx context.Context, sql string) (*ResultSet, error)

	// ListTables returns the tables and views of the default namespace.
	ListTables(ctx context.Context) ([]string, error)

	// GetTableMetadata retrieves columns, keys and the row estimate for a table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// SampleRows returns up to limit rows from a table.
	SampleRows(ctx context.Context, table string, limit int) (*ResultSet, error)

	// DialectConfig returns the static dialect configuration.
	DialectConfig() *DialectConfig
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default_value"`
	Position int     `json:"-"`
}

// ForeignKey describes a single-column foreign key reference.
type ForeignKey struct {
	Column           string `json:"column_name"`
	ReferencedTable  string `json:"foreign_table"`
	ReferencedColumn string `json:"foreign_column"`
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema      string
	Name        string
	Columns     []Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey

	// RowCount is the catalog's row estimate, nil when the catalog has none.
	RowCount *int64
}

// ResultSet is the outcome of executing one SQL statement.
type ResultSet struct {
	// Columns is the column order reported by the store. It matches the key
	// order of the first row and is representative for all rows.
	Columns []string

	// Rows maps column name to value, one map per row.
	Rows []map[string]any

	// Command is true when the statement produced no row set.
	Command bool

	// RowsAffected is reported by commands (INSERT, UPDATE, DELETE, DDL).
	RowsAffected int64
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Column returns the values of a column in row order.
// Rows lacking the column contribute nil.
func (r *ResultSet) Column(name string) []any {
	values := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = row[name]
	}
	return values
}

// HasColumn reports whether name is one of the result columns.
func (r *ResultSet) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Date is a calendar date without time of day. Adapters produce it for
// DATE columns so that it renders as YYYY-MM-DD rather than a timestamp.
type Date struct {
	time.Time
}

// DateLayout is the ISO-8601 calendar date layout.
const DateLayout = "2006-01-02"

// String returns the ISO-8601 representation of the date.
func (d Date) String() string {
	return d.Format(DateLayout)
}
