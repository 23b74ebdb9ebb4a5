package commands

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapgate/internal/schema"
	"github.com/leapstack-labs/leapgate/pkg/core"
	"github.com/spf13/cobra"
)

// SchemaOptions holds options for the schema command.
type SchemaOptions struct {
	Format string
	Sample bool
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema [table]",
		Short: "Describe tables of the target",
		Long: `Describe the columns, keys and row estimate of one table, or of every
table in the target's default namespace.`,
		Example: `  leapgate schema
  leapgate schema orders --sample
  leapgate schema orders --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			var table string
			if len(args) == 1 {
				table = args[0]
			}

			tables, err := cmdCtx.Engine.Schema(cmd.Context(), table, opts.Sample)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch strings.ToLower(opts.Format) {
			case "json":
				return renderJSON(w, map[string]any{"tables": tables})
			case "yaml":
				return renderDocumentYAML(w, map[string]any{"tables": tables})
			case "", "table":
				renderSchemaText(w, tables)
				return nil
			default:
				return fmt.Errorf("unsupported format %q (expected table, json or yaml)", opts.Format)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&opts.Sample, "sample", false, "Include up to 5 sample rows per table")

	return cmd
}

// renderSchemaText prints one block per table.
func renderSchemaText(w io.Writer, tables []schema.TableDescriptor) {
	if len(tables) == 0 {
		_, _ = fmt.Fprintln(w, "(no tables)")
		return
	}

	for i, desc := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}

		title := "Table: " + desc.Name
		if desc.RowCount != nil {
			title += fmt.Sprintf(" (~%d rows)", *desc.RowCount)
		}
		_, _ = fmt.Fprintln(w, title)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default", "Key"})
		for _, col := range desc.Columns {
			t.AppendRow(table.Row{col.Name, col.Type, nullable(col), defaultValue(col), columnKey(desc, col.Name)})
		}
		t.Render()

		if desc.SampleData != nil {
			_, _ = fmt.Fprintln(w, "Sample:")
			cols := make([]string, len(desc.Columns))
			for j, col := range desc.Columns {
				cols[j] = col.Name
			}
			_ = renderTable(w, &core.ResultSet{Columns: cols, Rows: desc.SampleData})
		}
	}
}

func nullable(col core.Column) string {
	if col.Nullable {
		return "YES"
	}
	return "NO"
}

func defaultValue(col core.Column) string {
	if col.Default == nil {
		return ""
	}
	return *col.Default
}

func columnKey(desc schema.TableDescriptor, column string) string {
	var keys []string
	if slices.Contains(desc.PrimaryKeys, column) {
		keys = append(keys, "PK")
	}
	for _, fk := range desc.ForeignKeys {
		if fk.Column == column {
			keys = append(keys, fmt.Sprintf("FK -> %s.%s", fk.ReferencedTable, fk.ReferencedColumn))
		}
	}
	return strings.Join(keys, ", ")
}
