// Package schema describes the tables of a store: columns, keys, an
// approximate row count and, on request, a few sample rows.
package schema

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapgate/internal/normalize"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// SampleLimit is the maximum number of sample rows per table.
const SampleLimit = 5

// Catalog is the part of an adapter the introspector needs.
type Catalog interface {
	ListTables(ctx context.Context) ([]string, error)
	GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error)
	SampleRows(ctx context.Context, table string, limit int) (*core.ResultSet, error)
}

// TableDescriptor is the serialized description of one table.
type TableDescriptor struct {
	Name        string            `json:"name"`
	Columns     []core.Column     `json:"columns"`
	PrimaryKeys []string          `json:"primary_keys"`
	ForeignKeys []core.ForeignKey `json:"foreign_keys"`

	// RowCount is the catalog's estimate; nil when there is none.
	RowCount *int64 `json:"row_count"`

	// SampleData is nil unless samples were requested. A failed sample is an
	// empty, non-nil slice.
	SampleData []map[string]any `json:"sample_data,omitzero"`
}

// Introspector builds table descriptors from a Catalog.
type Introspector struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewIntrospector creates an Introspector. A nil logger discards output.
func NewIntrospector(catalog Catalog, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Introspector{catalog: catalog, logger: logger}
}

// Describe returns descriptors for every table of the default namespace, or
// for table alone when it is non-empty. Sample failures never fail the call.
func (i *Introspector) Describe(ctx context.Context, table string, includeSample bool) ([]TableDescriptor, error) {
	names := []string{table}
	if table == "" {
		var err error
		names, err = i.catalog.ListTables(ctx)
		if err != nil {
			return nil, err
		}
	}

	tables := make([]TableDescriptor, 0, len(names))
	for _, name := range names {
		desc, err := i.describeTable(ctx, name, includeSample)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *desc)
	}
	return tables, nil
}

func (i *Introspector) describeTable(ctx context.Context, table string, includeSample bool) (*TableDescriptor, error) {
	meta, err := i.catalog.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, err
	}

	desc := &TableDescriptor{
		Name:        meta.Name,
		Columns:     meta.Columns,
		PrimaryKeys: meta.PrimaryKeys,
		ForeignKeys: meta.ForeignKeys,
		RowCount:    meta.RowCount,
	}
	if desc.Name == "" {
		desc.Name = table
	}
	if desc.Columns == nil {
		desc.Columns = []core.Column{}
	}
	if desc.PrimaryKeys == nil {
		desc.PrimaryKeys = []string{}
	}
	if desc.ForeignKeys == nil {
		desc.ForeignKeys = []core.ForeignKey{}
	}

	if includeSample {
		desc.SampleData = i.sample(ctx, table)
	}
	return desc, nil
}

// sample fetches up to SampleLimit normalized rows. Errors are logged and
// yield an empty slice.
func (i *Introspector) sample(ctx context.Context, table string) []map[string]any {
	rs, err := i.catalog.SampleRows(ctx, table, SampleLimit)
	if err != nil {
		i.logger.DebugContext(ctx, "sample rows unavailable", slog.String("table", table), slog.Any("error", err))
		return []map[string]any{}
	}

	if rs.Len() == 0 {
		return []map[string]any{}
	}
	return normalize.NormalizeRows(rs).Rows
}
