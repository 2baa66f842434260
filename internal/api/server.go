package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/txreport/txreport/internal/pipeline"
)

const (
	runTTL          = 24 * time.Hour
	runCleanup      = time.Hour
	shutdownTimeout = 10 * time.Second
)

// Runner processes one month. *pipeline.Processor satisfies it.
type Runner interface {
	ProcessMonth(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

// Options configures a Server.
type Options struct {
	DefaultInput  string
	Output        string
	RatePerSecond float64
	Burst         int
}

// Server exposes the report pipeline over HTTP.
type Server struct {
	runner  Runner
	opts    Options
	log     zerolog.Logger
	runs    *cache.Cache
	limiter *rate.Limiter
	router  chi.Router
}

// NewServer builds the router. A non-positive RatePerSecond disables rate
// limiting.
func NewServer(runner Runner, opts Options, log zerolog.Logger) *Server {
	s := &Server{
		runner: runner,
		opts:   opts,
		log:    log,
		runs:   cache.New(runTTL, runCleanup),
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)
	r.Post("/run", s.handleRun)
	r.Get("/runs/{id}", s.handleGetRun)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on host:port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
