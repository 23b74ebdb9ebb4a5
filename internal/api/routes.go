package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/leapstack-labs/leapgate/internal/engine"
	"github.com/leapstack-labs/leapgate/internal/render"
	"github.com/leapstack-labs/leapgate/internal/schema"
)

// Gateway is the request pipeline behind the HTTP handlers.
type Gateway interface {
	Query(ctx context.Context, req engine.QueryRequest) (*render.Output, error)
	Schema(ctx context.Context, table string, includeSample bool) ([]schema.TableDescriptor, error)
	Analyze(ctx context.Context, req engine.AnalyzeRequest) (map[string]any, error)
}

// RouteOptions configures the middleware stack.
type RouteOptions struct {
	CORSOrigins []string
	RateLimit   float64
	RateBurst   int
	Logger      *slog.Logger
}

// SetupRoutes registers the gateway routes on router.
func SetupRoutes(router chi.Router, gw Gateway, opts RouteOptions) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(
		requestID,
		requestLogger(logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
			MaxAge:         300,
		}),
	)

	handlers := NewHandlers(gw, logger)

	router.Get("/healthz", handlers.Health)

	router.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(rateLimit(opts.RateLimit, opts.RateBurst))
		}
		r.Post("/query", handlers.Query)     // Execute SQL and render
		r.Get("/schema", handlers.Schema)    // Describe tables
		r.Post("/analyze", handlers.Analyze) // Summary, correlation, aggregation
	})
}
