package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapgate/internal/api"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		Long: `Start the HTTP gateway for the configured target.

Endpoints:
  POST /query     execute SQL, respond with json, csv or chart data
  GET  /schema    describe tables (table_name, include_sample)
  POST /analyze   summary, correlation or aggregation analysis
  GET  /healthz   liveness`,
		Example: `  leapgate serve
  leapgate serve --port 8080 --cors-origin http://localhost:5173
  LEAPGATE_TARGET__TYPE=sqlite LEAPGATE_TARGET__DATABASE=shop.db leapgate serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srvCfg := cmdCtx.Cfg.Server
			server := api.NewServer(api.Config{
				Gateway:           cmdCtx.Engine,
				Port:              srvCfg.Port,
				CORSOrigins:       srvCfg.CORSOrigins,
				RateLimit:         srvCfg.RateLimit,
				RateBurst:         srvCfg.RateBurst,
				ReadHeaderTimeout: srvCfg.ReadHeaderTimeout,
				Logger:            cmdCtx.Logger,
			})

			cmdCtx.Logger.Info("gateway target",
				"type", cmdCtx.Engine.Dialect(),
				"database", cmdCtx.Cfg.Target.Database,
				"environment", cmdCtx.Cfg.Environment)

			return server.Serve(ctx)
		},
	}

	cmd.Flags().Int("port", 0, "HTTP port (default 3001)")
	cmd.Flags().StringSlice("cors-origin", nil, "Allowed CORS origin (repeatable, default all)")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second (0 disables limiting)")
	cmd.Flags().Int("rate-burst", 0, "Burst size for the rate limiter")

	return cmd
}
