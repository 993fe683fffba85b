// Package dash serves the APE metrics dashboard: an embedded single-page UI,
// a JSON query API over the loaded records, plot/preview file serving, CSV
// export, and a ZIP download of the plot folder.
package dash

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"apedash/internal/logging"
	"apedash/internal/results"
)

// Config wires a Server.
type Config struct {
	// DatasetName labels the dataset in /api/meta (file path or run name).
	DatasetName string
	Records     []results.Record
	PlotsDir    string
	PreviewsDir string
	SubtagOrder []string
	Logger      *slog.Logger
}

// Server is the dashboard HTTP server. It is read-only over the records
// loaded at construction; handlers share no mutable state.
type Server struct {
	cfg     Config
	log     *slog.Logger
	metrics *httpMetrics
	mux     *http.ServeMux
}

// New builds a Server with all routes registered.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.New("dash")
	}
	if len(cfg.SubtagOrder) == 0 {
		cfg.SubtagOrder = results.DefaultSubtagOrder
	}
	s := &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		metrics: newHTTPMetrics(),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /api/meta", s.apiMeta)
	s.handle("GET /api/records", s.apiRecords)
	s.handle("GET /api/summary", s.apiSummary)
	s.handle("GET /api/chart", s.apiChart)
	s.handle("GET /api/export.csv", s.exportCSV)
	s.handle("GET /api/plots.zip", s.plotsZip)
	s.handle("GET /plots/{name}", s.servePlot)
	s.handle("GET /previews/{name}", s.servePreview)
	s.handle("GET /healthz", s.healthz)
	s.mux.Handle("GET /metrics", s.metrics.handler())
	s.mux.Handle("GET /", http.FileServerFS(staticFS()))
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

// Handler returns the full route table, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown", slog.Any("err", err))
		}
	}()

	err := srv.ListenAndServe()
	<-done
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
