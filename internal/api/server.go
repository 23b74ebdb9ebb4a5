// Package api serves the gateway over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// DefaultPort is the port the gateway listens on when none is configured.
const DefaultPort = 3001

// Server is the HTTP front of the gateway.
type Server struct {
	gateway           Gateway
	port              int
	corsOrigins       []string
	rateLimit         float64
	rateBurst         int
	readHeaderTimeout time.Duration
	logger            *slog.Logger
}

// Config holds configuration for the HTTP server.
type Config struct {
	Gateway Gateway
	Port    int

	// CORSOrigins lists allowed origins. Empty allows every origin.
	CORSOrigins []string

	// RateLimit is the sustained requests per second. Zero disables limiting.
	RateLimit float64
	RateBurst int

	ReadHeaderTimeout time.Duration
	Logger            *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := cfg.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		gateway:           cfg.Gateway,
		port:              port,
		corsOrigins:       cfg.CORSOrigins,
		rateLimit:         cfg.RateLimit,
		rateBurst:         cfg.RateBurst,
		readHeaderTimeout: timeout,
		logger:            logger,
	}
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	SetupRoutes(r, s.gateway, RouteOptions{
		CORSOrigins: s.corsOrigins,
		RateLimit:   s.rateLimit,
		RateBurst:   s.rateBurst,
		Logger:      s.logger,
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting gateway", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down gateway...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
