// Package server exposes the retrieval services over a thin JSON HTTP API.
// No decision logic lives here; handlers validate input, call a service,
// and map errors to status codes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/saucier-dev/saucier/internal/metrics"
)

// Services is the set of orchestrators the server fronts.
type Services struct {
	Search SearchAPI
	Ingest IngestAPI
	Answer AnswerAPI
	Chat   ChatAPI
}

// Server wraps the HTTP server with lifecycle management.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New builds the router and wires the handlers.
func New(addr string, svcs Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{svcs: svcs, logger: logger, stats: metrics.NewCollector()}

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))

	r.HandleFunc("/recipes/search/{query}", h.searchRecipes).Methods(http.MethodGet)
	r.HandleFunc("/recipes/count", h.countRecipes).Methods(http.MethodGet)
	r.HandleFunc("/recipes/{key}", h.getRecipe).Methods(http.MethodGet)
	r.HandleFunc("/recipes", h.listRecipes).Methods(http.MethodGet)
	r.HandleFunc("/recipes", h.createRecipes).Methods(http.MethodPost)
	r.HandleFunc("/chat", h.answer).Methods(http.MethodPost)
	r.HandleFunc("/converse", h.converse).Methods(http.MethodPost)
	r.HandleFunc("/stats", h.statsSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down HTTP server")
		return s.http.Shutdown(shutdownCtx)
	}
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
