package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/county-graph-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunStatus reports batch progress to the HTTP endpoints.
type RunStatus interface {
	sharedobs.ReadinessChecker
	LastReport() (pipeline.Report, bool)
}

// Server exposes health, readiness, run report and metrics endpoints while a
// batch runs.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /report and /metrics routes.
func NewServer(addr string, status RunStatus, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(status))
	mux.HandleFunc("GET /report", handleReport(status))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// reportBody is the /report response.
type reportBody struct {
	Records     int `json:"records"`
	UnknownKind int `json:"unknown_kind"`
	Dates       int `json:"dates"`
	Loaded      int `json:"loaded"`
	Failed      int `json:"failed"`
}

func handleReport(status RunStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report, ok := status.LastReport()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"status": "no run finished yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, reportBody{
			Records:     report.Records,
			UnknownKind: report.UnknownKind,
			Dates:       report.Dates,
			Loaded:      report.Loaded,
			Failed:      report.Failed,
		})
	}
}
