package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// Submitter queues jobs for background execution.
type Submitter interface {
	Submit(job *domain.IngestJob) error
}

// Ports aggregates what the HTTP API serves.
type Ports struct {
	// Catalog is required.
	Catalog driving.CatalogService

	// Jobs accepts uploads. Without it the ingest routes answer 503.
	Jobs Submitter

	// OCR rebuilds OCR. Optional.
	OCR driving.OCRService

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// ErrMissingCatalog is returned when no catalog service is provided.
var ErrMissingCatalog = errors.New("httpapi: catalog service is required")

// Server serves the HTTP API.
type Server struct {
	ports     Ports
	uploadDir string
	maxUpload int64
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload caps the size of an upload request body in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// NewServer creates the API. Uploaded files are written below uploadDir.
func NewServer(ports Ports, uploadDir string, opts ...Option) (*Server, error) {
	if ports.Catalog == nil {
		return nil, ErrMissingCatalog
	}
	s := &Server{
		ports:     ports,
		uploadDir: uploadDir,
		maxUpload: 4 << 30,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.ports.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.ports.Metrics)
	}

	r.Route("/volumes", func(r chi.Router) {
		r.Get("/", s.handleListVolumes)
		r.Get("/{pid}", s.handleGetVolume)
		r.Get("/{pid}/pages", s.handleListPages)
		r.Post("/{pid}/ocr", s.handleVolumeOCR)
	})
	r.Get("/pages/{pid}/words", s.handleListWords)
	r.Post("/pages/{pid}/ocr", s.handlePageOCR)
	r.Get("/jobs", s.handleListJobs)

	r.Post("/ingest", s.handleIngest)
	r.Post("/ingest/cloud", s.handleIngestCloud)

	if s.ports.MCP != nil {
		r.Handle("/mcp", s.ports.MCP)
		r.Handle("/mcp/*", s.ports.MCP)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		).Debug("http request")
	})
}
