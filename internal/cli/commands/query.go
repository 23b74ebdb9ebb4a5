package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/cli/config"
	"github.com/leapstack-labs/leapgate/internal/engine"
	"github.com/leapstack-labs/leapgate/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// stdinIsTerminal reports whether stdin is an interactive terminal.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format    string
	Input     string
	ChartType string
	Title     string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Execute SQL against the target",
		Long: `Execute a SQL statement against the configured target and print the result.

Statements that return rows are printed in the selected format. Other
statements report the number of affected rows.

When invoked without arguments and stdin is a terminal, enters interactive
REPL mode.`,
		Example: `  # Execute SQL directly
  leapgate query "SELECT * FROM orders LIMIT 10"

  # Output as CSV
  leapgate query "SELECT region, sum(amount) FROM orders GROUP BY 1" --format csv

  # Chart-ready series
  leapgate query "SELECT day, revenue FROM daily" --format chart --chart-type line

  # Read SQL from a file or a pipe
  leapgate query --input report.sql
  cat report.sql | leapgate query

  # Interactive mode
  leapgate query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: "+strings.Join(config.OutputFormats, ", ")+" (default: output setting)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.ChartType, "chart-type", render.DefaultChartType, "Chart type passed through in chart output")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Chart title passed through in chart output")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	format, err := resolveFormat(opts.Format, cmdCtx.Cfg)
	if err != nil {
		return err
	}
	opts.Format = format

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !stdinIsTerminal():
		// Read from stdin (piped input)
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, opts)
	}

	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Engine, sqlQuery, opts)
}

// resolveFormat picks the flag value, falling back to the configured output.
func resolveFormat(flag string, cfg *config.Config) (string, error) {
	format := strings.ToLower(strings.TrimSpace(flag))
	if format == "" && cfg != nil {
		format = strings.ToLower(cfg.OutputFormat)
	}
	if format == "" {
		format = config.DefaultOutput
	}
	if format == "markdown" {
		format = "md"
	}
	if !slices.Contains(config.OutputFormats, format) {
		return "", fmt.Errorf("unsupported format %q (expected one of %s)", flag, strings.Join(config.OutputFormats, ", "))
	}
	return format, nil
}

// executeAndRender runs sqlQuery and prints the result. json, csv and chart
// go through the gateway renderer so they match the HTTP responses; the
// terminal formats print normalized rows.
func executeAndRender(ctx context.Context, w io.Writer, eng *engine.Engine, sqlQuery string, opts *QueryOptions) error {
	switch opts.Format {
	case "json", "csv", "chart":
		out, err := eng.Query(ctx, engine.QueryRequest{
			SQL:       sqlQuery,
			Format:    render.Format(opts.Format),
			ChartType: opts.ChartType,
			Title:     opts.Title,
		})
		if err != nil {
			return err
		}
		if out.Format == render.FormatCSV {
			_, err := w.Write(out.Payload)
			return err
		}
		return renderJSON(w, out.Data)
	default:
		rs, err := eng.QueryRows(ctx, sqlQuery)
		if err != nil {
			return err
		}
		return renderRows(w, rs, opts.Format)
	}
}
