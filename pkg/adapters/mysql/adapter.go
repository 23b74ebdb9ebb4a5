// Package mysql provides a MySQL database adapter for leapgate.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

var dialectConfig = &core.DialectConfig{
	Name: "mysql",
	Identifiers: core.IdentifierConfig{
		Quote:  "`",
		Escape: "``",
	},
	Placeholder: core.PlaceholderQuestion,
}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return core.NewStoreError("failed to open mysql connection", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return core.NewStoreError("failed to ping mysql", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN. DATE and DATETIME values are
// parsed into time.Time. Unknown options are passed through as DSN params.
func buildMySQLDSN(cfg adapter.Config) (string, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true

	for key, value := range cfg.Options {
		switch key {
		case "timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				return "", fmt.Errorf("invalid mysql timeout %q: %w", value, err)
			}
			mc.Timeout = d
		case "tls":
			mc.TLSConfig = value
		default:
			if mc.Params == nil {
				mc.Params = map[string]string{}
			}
			mc.Params[key] = value
		}
	}
	return mc.FormatDSN(), nil
}

func (a *Adapter) schema() string {
	if a.Cfg.Schema != "" {
		return a.Cfg.Schema
	}
	return a.Cfg.Database
}

// ListTables returns the tables and views of the configured database.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, a.schema(), dialectConfig)
}

// GetTableMetadata retrieves columns, keys and the TABLE_ROWS estimate.
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

	pks, fks, err := a.keys(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}

	rowCount, err := a.RowEstimate(ctx, `
		SELECT TABLE_ROWS
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
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

// keys reads primary and foreign key columns from KEY_COLUMN_USAGE.
func (a *Adapter) keys(ctx context.Context, schema, table string) ([]string, []core.ForeignKey, error) {
	rows, err := a.DB.QueryContext(ctx, `
		SELECT
			CONSTRAINT_NAME,
			COLUMN_NAME,
			COALESCE(REFERENCED_TABLE_NAME, ''),
			COALESCE(REFERENCED_COLUMN_NAME, '')
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
			AND (CONSTRAINT_NAME = 'PRIMARY' OR REFERENCED_TABLE_NAME IS NOT NULL)
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION
	`, schema, table)
	if err != nil {
		return nil, nil, core.NewStoreError("failed to query key columns", err)
	}
	defer func() { _ = rows.Close() }()

	pks := []string{}
	fks := []core.ForeignKey{}
	for rows.Next() {
		var constraint, column, refTable, refColumn string
		if err := rows.Scan(&constraint, &column, &refTable, &refColumn); err != nil {
			return nil, nil, fmt.Errorf("failed to scan key column: %w", err)
		}
		if constraint == "PRIMARY" {
			pks = append(pks, column)
			continue
		}
		fks = append(fks, core.ForeignKey{Column: column, ReferencedTable: refTable, ReferencedColumn: refColumn})
	}
	return pks, fks, rows.Err()
}

// SampleRows returns up to limit rows from a table.
func (a *Adapter) SampleRows(ctx context.Context, table string, limit int) (*adapter.ResultSet, error) {
	return a.SampleRowsCommon(ctx, dialectConfig.QuoteQualified(table), limit)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
