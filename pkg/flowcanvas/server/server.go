// Package server exposes a canvas.Session over HTTP.
//
// Every route speaks JSON. Edit routes mirror the rendering collaborator's
// callbacks (change batches, connections, drops, key presses) and the
// /events routes publish widget intents on the session bus.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/canvas"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultMaxUploadBytes bounds the multipart body of an upload.
const DefaultMaxUploadBytes = 32 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxUploadBytes bounds upload request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithMetricsReader serves the metrics collected by reader on GET /metrics.
func WithMetricsReader(reader *sdkmetric.ManualReader) Option {
	return func(s *Server) { s.metrics = reader }
}

// Server holds the chi router and the session it serves.
type Server struct {
	router    chi.Router
	session   *canvas.Session
	logger    *slog.Logger
	maxUpload int64
	metrics   *sdkmetric.ManualReader
}

// NewServer creates a Server with all routes configured.
func NewServer(session *canvas.Session, opts ...Option) *Server {
	s := &Server{
		session:   session,
		logger:    slog.Default(),
		maxUpload: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/toolbar", s.handleToolbar)
	r.Get("/graph", s.handleGraph)
	r.Get("/nodes/{nodeID}", s.handleNode)

	r.Post("/nodes", s.handleAddNode)
	r.Post("/drop", s.handleDrop)
	r.Post("/changes/nodes", s.handleNodeChanges)
	r.Post("/changes/edges", s.handleEdgeChanges)
	r.Post("/connect", s.handleConnect)
	r.Post("/selection/delete", s.handleDeleteSelected)
	r.Post("/undo", s.handleUndo)
	r.Post("/redo", s.handleRedo)
	r.Post("/keys", s.handleKey)

	r.Route("/events", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/update-config", s.handleUpdateConfig)
		r.Post("/run-from-start", s.handleRunFromStart)
		r.Post("/run-node", s.handleRunNode)
		r.Post("/analysis", s.handleAnalysis)
	})

	r.Get("/log", s.handleLog)
	r.Get("/runtime", s.handleRuntime)
	r.Get("/runs", s.handleRuns)
	r.Get("/runs/{runID}", s.handleRun)
	if s.metrics != nil {
		r.Get("/metrics", s.handleMetrics)
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler by delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", float64(time.Since(start).Microseconds())/1000,
		)
	})
}
