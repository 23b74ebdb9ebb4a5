package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/analysis"
	"github.com/leapstack-labs/leapgate/internal/engine"
	"github.com/spf13/cobra"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Type   string
	Format string
	Input  string
	analysis.Params
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [SQL]",
		Short: "Run summary, correlation or aggregation analysis on a query",
		Long: `Execute a query and analyze its result.

  summary      per-column statistics (default)
  correlation  Pearson correlation matrix of the numeric columns
  aggregation  group rows by a column and aggregate another one`,
		Example: `  leapgate analyze "SELECT * FROM orders"
  leapgate analyze "SELECT price, qty FROM orders" --type correlation
  leapgate analyze "SELECT region, amount FROM orders" --type aggregation \
    --group-by region --column amount --function mean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			sqlQuery := strings.Join(args, " ")
			if sqlQuery == "" && opts.Input != "" {
				content, err := os.ReadFile(opts.Input)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				sqlQuery = string(content)
			}

			result, err := cmdCtx.Engine.Analyze(cmd.Context(), engine.AnalyzeRequest{
				SQL:    sqlQuery,
				Mode:   analysis.Mode(opts.Type),
				Params: opts.Params,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch strings.ToLower(opts.Format) {
			case "yaml":
				return renderDocumentYAML(w, map[string]any{"analysis": result})
			case "", "json":
				return renderJSON(w, map[string]any{"analysis": result})
			default:
				return fmt.Errorf("unsupported format %q (expected json or yaml)", opts.Format)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", string(analysis.ModeSummary), "Analysis type: summary, correlation, aggregation")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "json", "Output format: json, yaml")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringVar(&opts.GroupBy, "group-by", "", "Grouping column (aggregation)")
	cmd.Flags().StringVar(&opts.AggregateColumn, "column", "", "Aggregated column (aggregation)")
	cmd.Flags().StringVar(&opts.AggregateFunction, "function", analysis.DefaultAggregateFunction,
		"Aggregate function: "+strings.Join(analysis.SupportedFunctions(), ", "))

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(analysis.ModeSummary), string(analysis.ModeCorrelation), string(analysis.ModeAggregation)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("function", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return analysis.SupportedFunctions(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
