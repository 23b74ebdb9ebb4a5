// Package postgres provides a PostgreSQL database adapter for leapgate.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

var dialectConfig = &core.DialectConfig{
	Name: "postgres",
	Identifiers: core.IdentifierConfig{
		Quote:  `"`,
		Escape: `""`,
	},
	DefaultSchema: "public",
	Placeholder:   core.PlaceholderDollar,
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectConfig returns the static dialect configuration.
func (a *Adapter) DialectConfig() *core.DialectConfig {
	return dialectConfig
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return core.NewStoreError("failed to open postgres connection", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.NewStoreError("failed to ping postgres", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if app, ok := cfg.Options["application_name"]; ok {
		dsn += fmt.Sprintf(" application_name=%s", app)
	}

	return dsn
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

// GetTableMetadata retrieves columns, keys and the planner's row estimate
// for a table.
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

	pks, err := a.primaryKeys(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}

	fks, err := a.GetForeignKeysCommon(ctx, schema, tableName, dialectConfig)
	if err != nil {
		return nil, err
	}

	rowCount, err := a.RowEstimate(ctx, `
		SELECT n_live_tup
		FROM pg_stat_user_tables
		WHERE schemaname = $1 AND relname = $2
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

// primaryKeys reads the primary key columns from pg_index in key order.
func (a *Adapter) primaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	regclass := pgx.Identifier{schema, table}.Sanitize()

	rows, err := a.DB.QueryContext(ctx, `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a
			ON a.attrelid = i.indrelid
			AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass
			AND i.indisprimary
		ORDER BY array_position(i.indkey, a.attnum)
	`, regclass)
	if err != nil {
		return nil, core.NewStoreError("failed to query primary keys", err)
	}
	defer func() { _ = rows.Close() }()

	pks := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		pks = append(pks, name)
	}
	return pks, rows.Err()
}

// SampleRows returns up to limit rows from a table.
func (a *Adapter) SampleRows(ctx context.Context, table string, limit int) (*adapter.ResultSet, error) {
	schema, tableName := adapter.ParseQualifiedName(table, &core.DialectConfig{DefaultSchema: a.schema()})
	return a.SampleRowsCommon(ctx, pgx.Identifier{schema, tableName}.Sanitize(), limit)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
