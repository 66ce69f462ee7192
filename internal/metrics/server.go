package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
)

// Server serves /metrics on its own port so scraping bypasses API middleware
type Server struct {
	server *http.Server
	port   int
	logger *logging.Logger
}

// NewServer creates a new metrics server
func NewServer(port int, logger *logging.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      Handler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		port:   port,
		logger: logger,
	}
}

// Handler returns the mux served by the metrics server
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Infof("Starting metrics server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down metrics server...")
	return s.server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
