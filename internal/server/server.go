// Package server exposes the schedule service over HTTP with chi.
//
// Routes:
//
//	GET       /health
//	GET       /api/v1/pdf/health
//	GET|POST  /api/v1/pdf/export-pdf/{scheduleID}
//	POST      /api/v1/pdf/upload-pdf
//	GET       /api/v1/projects?limit=100&offset=0
//	GET       /api/v1/projects/{projectID}
//	GET       /api/v1/projects/{projectID}/latest-schedule
//	GET       /api/v1/projects/{projectID}/schedules
//
// Errors are JSON objects of the form {"detail": "..."}.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/fonts"
	"github.com/gaurav-prasanna/schedpdf/internal/store"
)

// Service is the schedule behaviour the handlers call.
type Service interface {
	Export(ctx context.Context, scheduleID string) ([]byte, string, error)
	Import(ctx context.Context, projectID string, raw []byte) (*core.ScheduleDocument, error)
	FontStatus() fonts.Font
}

// Projects reads stored projects and their schedule versions.
type Projects interface {
	ListProjects(ctx context.Context, limit, offset int) ([]store.Project, error)
	GetProject(ctx context.Context, id string) (*store.Project, error)
	LatestSchedule(ctx context.Context, projectID string) (*core.ScheduleDocument, error)
	ListSchedules(ctx context.Context, projectID string) ([]store.ScheduleSummary, error)
}

// Options configures a Server.
type Options struct {
	AllowedOrigins   []string
	MaxFileSize      int64
	AllowedFileTypes []string
	Logger           *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 10 << 20
	}
	if len(o.AllowedFileTypes) == 0 {
		o.AllowedFileTypes = []string{"application/pdf"}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Server holds the HTTP handlers.
type Server struct {
	svc      Service
	projects Projects
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Server.
func New(svc Service, projects Projects, opts Options) *Server {
	opts.defaults()
	return &Server{
		svc:      svc,
		projects: projects,
		opts:     opts,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(corsHandler(s.opts.AllowedOrigins))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pdf", func(r chi.Router) {
			r.Get("/health", s.handlePDFHealth)
			r.Get("/export-pdf/{scheduleID}", s.handleExport)
			r.Post("/export-pdf/{scheduleID}", s.handleExport)
			r.Post("/upload-pdf", s.handleUpload)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Get("/{projectID}", s.handleGetProject)
			r.Get("/{projectID}/latest-schedule", s.handleLatestSchedule)
			r.Get("/{projectID}/schedules", s.handleListSchedules)
		})
	})
	return r
}

// logRequests logs one line per request after it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// corsHandler allows cross-origin requests from origins. With "*" any origin
// may call the API but credentials are never allowed.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           600,
	})
}

func (s *Server) allowedType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	for _, t := range s.opts.AllowedFileTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}
