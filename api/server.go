// Package api provides the HTTP REST API server for fairprice.
//
// It exposes the valuation engine over JSON, values symbols from the
// configured fact source, and streams completed valuations over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"

	"github.com/seenimoa/fairprice/internal/config"
	"github.com/seenimoa/fairprice/internal/datasource"
	"github.com/seenimoa/fairprice/internal/infra"
	"github.com/seenimoa/fairprice/internal/logging"
	"github.com/seenimoa/fairprice/internal/valuation"
	"github.com/seenimoa/fairprice/pkg/utils"
)

// Version is reported by the health endpoint; set by the CLI.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	src      datasource.FactSource
	defaults valuation.Params
	validate *validator.Validate
	limiter  *infra.ClientLimiter
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// src may be nil, in which case symbol lookups answer 503.
func NewServer(cfg *config.Config, src datasource.FactSource) (*Server, error) {
	defaults, err := cfg.Valuation.Params()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		src:      src,
		defaults: defaults,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  infra.NewClientLimiter(cfg.API.RateLimit, cfg.API.RateBurst),
		wsHub:    NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server with graceful shutdown on SIGINT/SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.wsHub.Run(ctx)
	go s.janitor(ctx, janitorInterval)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

const (
	janitorInterval = time.Minute
	// Clients idle this long lose their rate-limit bucket.
	limiterIdle = 10 * time.Minute
)

// cleaner is implemented by fact sources that hold expiring state.
type cleaner interface {
	Cleanup()
}

// janitor periodically drops expired cache entries and idle rate-limit
// buckets until ctx is done.
func (s *Server) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() {
	if c, ok := s.src.(cleaner); ok {
		c.Cleanup()
	}
	s.limiter.Prune(limiterIdle)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.Middleware)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Valuation
			r.Post("/valuation", s.handleValuation)
			r.Post("/valuation/history", s.handleHistory)
			r.Post("/valuation/batch", s.handleBatch)
			r.Get("/valuation/{symbol}", s.handleSymbolValuation)

			// Configuration
			r.Get("/config/keys", s.handleGetConfigKeys)
		})

		// WebSocket feed of completed valuations
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Helpers
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var upstream *datasource.UpstreamDataError
	switch {
	case errors.Is(err, valuation.ErrInvalidParams), errors.Is(err, utils.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, valuation.ErrMissingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datasource.ErrSymbolNotFound):
		return http.StatusNotFound
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeError(w, status, err.Error())
}
