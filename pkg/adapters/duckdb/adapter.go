// Package duckdb provides a DuckDB database adapter for leapgate.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
)

var dialectConfig = &core.DialectConfig{
	Name: "duckdb",
	Identifiers: core.IdentifierConfig{
		Quote:  `"`,
		Escape: `""`,
	},
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			Logger:  logger,
			Convert: convertValue,
		},
	}
}

// DialectConfig returns the static dialect configuration.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return dialectConfig
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = ":memory:"
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return fmt.Errorf("invalid duckdb params: %w", err)
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return core.NewStoreError("failed to open duckdb connection", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.NewStoreError("failed to ping duckdb", err)
	}

	// Session state (settings, loaded extensions) lives on the connection.
	db.SetMaxOpenConns(1)

	if err := a.applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return err
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// applyParams installs extensions, applies settings and creates secrets.
func (a *Adapter) applyParams(ctx context.Context, db *sql.DB, params *Params) error {
	for _, ext := range params.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		for _, stmt := range []string{"INSTALL " + ext, "LOAD " + ext} {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return core.NewStoreError(fmt.Sprintf("failed to load extension %s", ext), err)
			}
		}
	}

	for key, value := range params.Settings {
		stmt := fmt.Sprintf("SET %s = '%s'", key, strings.ReplaceAll(value, "'", "''"))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return core.NewStoreError(fmt.Sprintf("failed to apply setting %s", key), err)
		}
	}

	for _, secret := range params.Secrets {
		if _, err := db.ExecContext(ctx, buildCreateSecretSQL(secret)); err != nil {
			return core.NewStoreError(fmt.Sprintf("failed to create %s secret", secret.Type), err)
		}
	}
	return nil
}

// buildCreateSecretSQL renders a CREATE SECRET statement for a secret config.
func buildCreateSecretSQL(s SecretConfig) string {
	parts := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		parts = append(parts, "PROVIDER "+s.Provider)
	}
	if s.Region != "" {
		parts = append(parts, fmt.Sprintf("REGION '%s'", s.Region))
	}
	if scope := formatScope(s.Scope); scope != "" {
		parts = append(parts, "SCOPE "+scope)
	}
	if s.KeyID != "" {
		parts = append(parts, fmt.Sprintf("KEY_ID '%s'", s.KeyID))
	}
	if s.Secret != "" {
		parts = append(parts, fmt.Sprintf("SECRET '%s'", s.Secret))
	}
	if s.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("ENDPOINT '%s'", s.Endpoint))
	}
	if s.URLStyle != "" {
		parts = append(parts, fmt.Sprintf("URL_STYLE '%s'", s.URLStyle))
	}
	if s.UseSSL != nil {
		parts = append(parts, fmt.Sprintf("USE_SSL %t", *s.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(parts, ",\n    ") + "\n)"
}

// formatScope accepts a single path or a list of paths.
func formatScope(scope any) string {
	switch v := scope.(type) {
	case string:
		if v == "" {
			return ""
		}
		return fmt.Sprintf("'%s'", v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = fmt.Sprintf("'%s'", s)
		}
		return "(" + strings.Join(quoted, ", ") + ")"
	case []any:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = fmt.Sprintf("'%v'", s)
		}
		return "(" + strings.Join(quoted, ", ") + ")"
	default:
		return ""
	}
}

// convertValue maps go-duckdb specific values onto normalizer types.
func convertValue(ct *sql.ColumnType, v any) any {
	switch val := v.(type) {
	case duckdb.Decimal:
		if val.Value == nil {
			return nil
		}
		return decimal.NewFromBigInt(val.Value, -int32(val.Scale))
	case *big.Int:
		if val == nil {
			return nil
		}
		return decimal.NewFromBigInt(val, 0)
	case duckdb.UUID:
		return uuid.UUID(val).String()
	case *duckdb.UUID:
		if val == nil {
			return nil
		}
		return uuid.UUID(*val).String()
	case duckdb.Interval:
		return map[string]any{"months": val.Months, "days": val.Days, "micros": val.Micros}
	case string:
		if ct != nil && strings.EqualFold(ct.DatabaseTypeName(), "UUID") && len(val) == 16 {
			if id, err := uuid.FromBytes([]byte(val)); err == nil {
				return id.String()
			}
		}
		return val
	default:
		return v
	}
}

func (a *Adapter) schema() string {
	if a.Cfg.Schema != "" {
		return a.Cfg.Schema
	}
	return dialectConfig.DefaultSchema
}

// ListTables returns the tables and views of the configured schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, a.schema(), dialectConfig)
}

// GetTableMetadata retrieves columns, keys and the row estimate for a table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := adapter.ParseQualifiedName(table, &core.DialectConfig{DefaultSchema: a.schema()})

	columns, err := a.GetColumnsCommon(ctx, schema, tableName, dialectConfig)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, core.NewStoreError("failed to describe table", fmt.Errorf("table %s not found", table))
	}

	pks, fks, err := a.constraints(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}

	rowCount, err := a.RowEstimate(ctx, `
		SELECT estimated_size
		FROM duckdb_tables()
		WHERE schema_name = ? AND table_name = ?
	`, schema, tableName)
	if err != nil {
		a.Logger.Debug("row estimate unavailable", slog.String("table", table), slog.Any("error", err))
	}

	return &adapter.Metadata{
		Schema:      schema,
		Name:        tableName,
		Columns:     columns,
		PrimaryKeys: pks,
		ForeignKeys: fks,
		RowCount:    rowCount,
	}, nil
}

// constraints reads primary and foreign keys from duckdb_constraints().
// Only single-column foreign keys are reported.
func (a *Adapter) constraints(ctx context.Context, schema, table string) ([]string, []core.ForeignKey, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT
			constraint_type,
			array_to_string(constraint_column_names, ','),
			coalesce(referenced_table, ''),
			coalesce(array_to_string(referenced_column_names, ','), '')
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name = ?
			AND constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')
		ORDER BY constraint_index
	`, schema, table)
	if err != nil {
		return nil, nil, core.NewStoreError("failed to query constraints", err)
	}
	defer func() { _ = rows.Close() }()

	pks := []string{}
	fks := []core.ForeignKey{}
	for rows.Next() {
		var kind, cols, refTable, refCols string
		if err := rows.Scan(&kind, &cols, &refTable, &refCols); err != nil {
			return nil, nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		switch kind {
		case "PRIMARY KEY":
			pks = append(pks, strings.Split(cols, ",")...)
		case "FOREIGN KEY":
			local, remote := strings.Split(cols, ","), strings.Split(refCols, ",")
			if len(local) != 1 || len(remote) != 1 {
				continue
			}
			fks = append(fks, core.ForeignKey{Column: local[0], ReferencedTable: refTable, ReferencedColumn: remote[0]})
		}
	}
	return pks, fks, rows.Err()
}

// SampleRows returns up to limit rows from a table.
func (a *Adapter) SampleRows(ctx context.Context, table string, limit int) (*adapter.ResultSet, error) {
	return a.SampleRowsCommon(ctx, dialectConfig.QuoteQualified(table), limit)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
