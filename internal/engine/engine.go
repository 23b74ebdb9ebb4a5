// Package engine runs gateway requests against the configured store.
//
// Every request gets its own adapter: it is created from the registry,
// connected, used for a single round trip and closed before the request
// returns, on every path.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapgate/internal/analysis"
	"github.com/leapstack-labs/leapgate/internal/normalize"
	"github.com/leapstack-labs/leapgate/internal/render"
	"github.com/leapstack-labs/leapgate/internal/schema"
	"github.com/leapstack-labs/leapgate/pkg/adapter"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Engine executes queries, schema lookups and analyses.
type Engine struct {
	dbConfig   adapter.Config
	logger     *slog.Logger
	newAdapter func(adapter.Config, *slog.Logger) (adapter.Adapter, error)
	now        func() time.Time
}

// Config holds engine configuration.
type Config struct {
	// Target is the store connection configuration.
	Target adapter.Config

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The adapter type must be registered; no
// connection is made until a request runs.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Target.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	if !adapter.IsRegistered(cfg.Target.Type) {
		return nil, &adapter.UnknownAdapterError{Type: cfg.Target.Type, Available: adapter.ListAdapters()}
	}

	logger.Debug("initializing engine", "adapter_type", cfg.Target.Type)

	return &Engine{
		dbConfig:   cfg.Target,
		logger:     logger,
		newAdapter: adapter.NewAdapter,
		now:        time.Now,
	}, nil
}

// Dialect returns the configured adapter type.
func (e *Engine) Dialect() string {
	return strings.ToLower(e.dbConfig.Type)
}

// withAdapter connects a fresh adapter, runs fn and closes the adapter.
func (e *Engine) withAdapter(ctx context.Context, fn func(adapter.Adapter) error) error {
	db, err := e.newAdapter(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create database adapter: %w", err)
	}

	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			e.logger.WarnContext(ctx, "failed to close database connection", "error", err)
		}
	}()

	return fn(db)
}

// Execute runs sql and returns the raw result.
func (e *Engine) Execute(ctx context.Context, sql string) (*core.ResultSet, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, core.BadRequestf("sql is required")
	}

	var rs *core.ResultSet
	err := e.withAdapter(ctx, func(db adapter.Adapter) error {
		start := time.Now()
		var err error
		rs, err = db.Execute(ctx, sql)
		if err != nil {
			return err
		}
		e.logger.DebugContext(ctx, "statement executed",
			"rows", rs.Len(),
			"command", rs.Command,
			"duration", time.Since(start))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// QueryRequest is a query to run and render.
type QueryRequest struct {
	SQL       string
	Format    render.Format
	ChartType string
	Title     string
}

// Query executes the request's SQL and renders the result.
func (e *Engine) Query(ctx context.Context, req QueryRequest) (*render.Output, error) {
	format, err := render.ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}

	rs, err := e.Execute(ctx, req.SQL)
	if err != nil {
		return nil, err
	}

	return render.Render(rs, format, render.Options{
		ChartType: req.ChartType,
		Title:     req.Title,
		Now:       e.now,
	})
}

// QueryRows executes sql and returns normalized rows for CLI rendering.
func (e *Engine) QueryRows(ctx context.Context, sql string) (*core.ResultSet, error) {
	rs, err := e.Execute(ctx, sql)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizeRows(rs), nil
}

// Schema describes one table, or every table when table is empty.
func (e *Engine) Schema(ctx context.Context, table string, includeSample bool) ([]schema.TableDescriptor, error) {
	var tables []schema.TableDescriptor
	err := e.withAdapter(ctx, func(db adapter.Adapter) error {
		var err error
		tables, err = schema.NewIntrospector(db, e.logger).Describe(ctx, strings.TrimSpace(table), includeSample)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// Tables lists the tables and views of the default namespace.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	var tables []string
	err := e.withAdapter(ctx, func(db adapter.Adapter) error {
		var err error
		tables, err = db.ListTables(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// AnalyzeRequest is a query whose result is analyzed.
type AnalyzeRequest struct {
	SQL    string
	Mode   analysis.Mode
	Params analysis.Params
}

// Analyze executes the request's SQL and analyzes the result.
func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (map[string]any, error) {
	mode, err := analysis.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	rs, err := e.Execute(ctx, req.SQL)
	if err != nil {
		return nil, err
	}

	return analysis.Analyze(rs, mode, req.Params)
}
