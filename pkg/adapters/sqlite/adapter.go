// Package sqlite provides a SQLite database adapter for leapgate backed by
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

var dialectConfig = &core.DialectConfig{
	Name: "sqlite",
	Identifiers: core.IdentifierConfig{
		Quote:  `"`,
		Escape: `""`,
	},
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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

// Connect opens the database file. Foreign key enforcement is on unless
// options.foreign_keys is "off".
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildSQLiteDSN(cfg)

	a.Logger.Debug("connecting to sqlite", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return core.NewStoreError("failed to open sqlite connection", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.NewStoreError("failed to ping sqlite", err)
	}

	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildSQLiteDSN turns the configured path and options into a modernc DSN.
func buildSQLiteDSN(cfg adapter.Config) string {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = ":memory:"
	}

	q := url.Values{}
	if cfg.Options["foreign_keys"] != "off" {
		q.Add("_pragma", "foreign_keys(1)")
	}
	if timeout, ok := cfg.Options["busy_timeout"]; ok {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%s)", timeout))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// ListTables returns user tables and views ordered by name.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
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

// GetTableMetadata reads columns and keys through PRAGMA table_info and
// PRAGMA foreign_key_list. The row estimate comes from sqlite_stat1 and is
// only present after ANALYZE.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	columns, pks, err := a.tableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, core.NewStoreError("failed to describe table", fmt.Errorf("table %s not found", table))
	}

	fks, err := a.foreignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	rowCount, err := a.rowEstimate(ctx, table)
	if err != nil {
		a.Logger.Debug("row estimate unavailable", slog.String("table", table), slog.Any("error", err))
	}

	return &adapter.Metadata{
		Schema:      dialectConfig.DefaultSchema,
		Name:        table,
		Columns:     columns,
		PrimaryKeys: pks,
		ForeignKeys: fks,
		RowCount:    rowCount,
	}, nil
}

func (a *Adapter) tableInfo(ctx context.Context, table string) ([]core.Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", dialectConfig.QuoteIdentifier(table))
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, core.NewStoreError("failed to query column metadata", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	pkOrder := map[int]string{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			col              core.Column
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0
		if dflt.Valid {
			col.Default = &dflt.String
		}
		if pk > 0 {
			pkOrder[pk] = col.Name
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	pks := make([]string, 0, len(pkOrder))
	for i := 1; i <= len(pkOrder); i++ {
		pks = append(pks, pkOrder[i])
	}
	return columns, pks, nil
}

func (a *Adapter) foreignKeys(ctx context.Context, table string) ([]core.ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", dialectConfig.QuoteIdentifier(table))
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, core.NewStoreError("failed to query foreign keys", err)
	}
	defer func() { _ = rows.Close() }()

	fks := []core.ForeignKey{}
	for rows.Next() {
		var (
			id, seq                   int
			refTable, from            string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, core.ForeignKey{Column: from, ReferencedTable: refTable, ReferencedColumn: to.String})
	}
	return fks, rows.Err()
}

// rowEstimate reads the leading row count of the table's sqlite_stat1 entry.
func (a *Adapter) rowEstimate(ctx context.Context, table string) (*int64, error) {
	var exists int
	err := a.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_stat1'`).Scan(&exists)
	if err != nil || exists == 0 {
		return nil, err
	}

	return a.RowEstimate(ctx, `
		SELECT CAST(substr(stat, 1, instr(stat || ' ', ' ') - 1) AS INTEGER)
		FROM sqlite_stat1
		WHERE tbl = ?
		LIMIT 1
	`, table)
}

// SampleRows returns up to limit rows from a table.
func (a *Adapter) SampleRows(ctx context.Context, table string, limit int) (*adapter.ResultSet, error) {
	return a.SampleRowsCommon(ctx, dialectConfig.QuoteIdentifier(table), limit)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
