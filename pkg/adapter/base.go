package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/shopspring/decimal"
)

// ValueConverter adjusts a scanned driver value using its column type.
type ValueConverter func(ct *sql.ColumnType, v any) any

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Execute and SampleRows implementations plus information_schema
// helpers.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger

	// Convert runs after ConvertValue for driver-specific types.
	Convert ValueConverter
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Execute runs a statement. Row-producing statements are scanned into a
// ResultSet; everything else runs through ExecContext and reports the number
// of affected rows.
func (b *BaseSQLAdapter) Execute(ctx context.Context, sqlStr string) (*core.ResultSet, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	if !ReturnsRows(sqlStr) {
		res, err := b.DB.ExecContext(ctx, sqlStr)
		if err != nil {
			return nil, core.NewStoreError("failed to execute SQL", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			b.logger().Debug("driver does not report affected rows", "error", err)
			affected = 0
		}
		return &core.ResultSet{Command: true, RowsAffected: affected}, nil
	}

	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, core.NewStoreError("failed to execute query", err)
	}
	defer func() { _ = rows.Close() }()

	rs, err := b.ScanRows(rows)
	if err != nil {
		return nil, core.NewStoreError("failed to read query result", err)
	}
	return rs, nil
}

// ScanRows reads every row into a ResultSet, applying ConvertValue and the
// adapter's Convert hook to each value.
func (b *BaseSQLAdapter) ScanRows(rows *sql.Rows) (*core.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	rs := &core.ResultSet{
		Columns: cols,
		Rows:    make([]map[string]any, 0),
	}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := ConvertValue(types[i], values[i])
			if b.Convert != nil {
				val = b.Convert(types[i], val)
			}
			row[col] = val
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// ConvertValue maps driver values to the types the normalizer understands:
// NUMERIC/DECIMAL text becomes decimal.Decimal, DATE timestamps become
// core.Date and remaining []byte values become strings.
func ConvertValue(ct *sql.ColumnType, v any) any {
	typeName := ""
	if ct != nil {
		typeName = strings.ToUpper(ct.DatabaseTypeName())
	}

	switch val := v.(type) {
	case []byte:
		if isDecimalType(typeName) {
			if d, err := decimal.NewFromString(string(val)); err == nil {
				return d
			}
		}
		return string(val)
	case string:
		if isDecimalType(typeName) {
			if d, err := decimal.NewFromString(val); err == nil {
				return d
			}
		}
		return val
	case time.Time:
		if typeName == "DATE" {
			return core.Date{Time: val}
		}
		return val
	default:
		return v
	}
}

func isDecimalType(typeName string) bool {
	return strings.HasPrefix(typeName, "NUMERIC") || strings.HasPrefix(typeName, "DECIMAL")
}

// SampleRowsCommon fetches up to limit rows of an already quoted table name.
func (b *BaseSQLAdapter) SampleRowsCommon(ctx context.Context, quotedTable string, limit int) (*core.ResultSet, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quotedTable, limit) //nolint:gosec // table name is quoted by the dialect
	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, core.NewStoreError("failed to sample rows", err)
	}
	defer func() { _ = rows.Close() }()

	return b.ScanRows(rows)
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *core.DialectConfig) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// ListTablesCommon lists tables and views of a schema via information_schema.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, schema string, d *core.DialectConfig) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // Placeholders are safe - they come from DialectConfig.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s
		ORDER BY table_name
	`, d.FormatPlaceholder(1))

	rows, err := b.DB.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, core.NewStoreError("failed to list tables", err)
	}
	defer func() { _ = rows.Close() }()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetColumnsCommon reads column metadata from information_schema.columns
// with dialect-appropriate placeholders.
func (b *BaseSQLAdapter) GetColumnsCommon(ctx context.Context, schema, table string, d *core.DialectConfig) ([]core.Column, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // Placeholders are safe - they come from DialectConfig.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, core.NewStoreError("failed to query column metadata", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		var dflt sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &dflt, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		if dflt.Valid {
			col.Default = &dflt.String
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return columns, nil
}

// GetForeignKeysCommon reads single-column foreign keys through the
// information_schema constraint views.
func (b *BaseSQLAdapter) GetForeignKeysCommon(ctx context.Context, schema, table string, d *core.DialectConfig) ([]core.ForeignKey, error) {
	//nolint:gosec // Placeholders are safe - they come from DialectConfig.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			kcu.column_name,
			ccu.table_name,
			ccu.column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = %s AND tc.table_name = %s
		ORDER BY kcu.ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, core.NewStoreError("failed to query foreign keys", err)
	}
	defer func() { _ = rows.Close() }()

	fks := []core.ForeignKey{}
	for rows.Next() {
		var fk core.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// RowEstimate runs a catalog query returning a single nullable count.
// No row, or a NULL count, means the catalog has no estimate.
func (b *BaseSQLAdapter) RowEstimate(ctx context.Context, query string, args ...any) (*int64, error) {
	var n sql.NullInt64
	err := b.DB.QueryRowContext(ctx, query, args...).Scan(&n)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, core.NewStoreError("failed to read row estimate", err)
	}
	if !n.Valid {
		return nil, nil
	}
	return &n.Int64, nil
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
