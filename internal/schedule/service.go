// Package schedule composes the store, the PDF renderer and the extraction
// pipeline into the operations the HTTP server and CLI expose.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/extract"
	"github.com/gaurav-prasanna/schedpdf/core/fonts"
	"github.com/gaurav-prasanna/schedpdf/core/render"
	"github.com/gaurav-prasanna/schedpdf/internal/store"
)

// Repository is the persistence the service needs.
type Repository interface {
	GetProject(ctx context.Context, id string) (*store.Project, error)
	SaveSchedule(ctx context.Context, projectID string, items []core.ScheduleItem) (*core.ScheduleDocument, error)
	LoadDocument(ctx context.Context, scheduleID string) (*core.ScheduleDocument, error)
}

// Service exports and imports schedules.
type Service struct {
	repo     Repository
	renderer *render.PDFRenderer
	pipeline *extract.Pipeline
	resolver *fonts.Resolver
	logger   *slog.Logger
}

// Config holds the service's collaborators. Nil fields get defaults: a
// resolver over fonts.DefaultCandidates, a renderer using its result and a
// pipeline logging to Logger.
type Config struct {
	Resolver *fonts.Resolver
	Renderer *render.PDFRenderer
	Pipeline *extract.Pipeline
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Resolver == nil {
		c.Resolver = fonts.NewResolver(nil)
	}
	if c.Renderer == nil {
		c.Renderer = render.NewPDFRenderer(c.Resolver.Resolve(), render.WithLogger(c.Logger))
	}
	if c.Pipeline == nil {
		c.Pipeline = extract.New(extract.WithLogger(c.Logger))
	}
}

// New creates a Service over repo.
func New(repo Repository, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		repo:     repo,
		renderer: cfg.Renderer,
		pipeline: cfg.Pipeline,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
}

// Export renders the stored schedule as a PDF. It returns the document bytes
// and the attachment filename. Unknown ids yield core.ErrDocumentNotFound;
// rendering failures a *render.GenerationError.
func (s *Service) Export(ctx context.Context, scheduleID string) ([]byte, string, error) {
	doc, err := s.repo.LoadDocument(ctx, scheduleID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.renderer.Render(*doc)
	if err != nil {
		s.logger.Error("pdf export failed", "schedule_id", scheduleID, "error", err)
		return nil, "", err
	}
	return data, s.renderer.Filename(*doc), nil
}

// Document returns the stored schedule.
func (s *Service) Document(ctx context.Context, scheduleID string) (*core.ScheduleDocument, error) {
	return s.repo.LoadDocument(ctx, scheduleID)
}

// Import reads a schedule out of raw and saves it as the project's next
// version. The project is checked before the document is parsed, so an
// unknown project is reported even for unreadable uploads.
func (s *Service) Import(ctx context.Context, projectID string, raw []byte) (*core.ScheduleDocument, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	items, err := s.pipeline.Extract(raw)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.SaveSchedule(ctx, projectID, items)
	if err != nil {
		return nil, fmt.Errorf("saving extracted schedule: %w", err)
	}
	s.logger.Info("schedule imported",
		"project_id", projectID, "schedule_id", doc.ScheduleID, "version", doc.Version, "items", len(doc.Items))
	return doc, nil
}

// FontStatus reports the font the renderer embeds.
func (s *Service) FontStatus() fonts.Font {
	return s.renderer.Font()
}

// PDFRenderer returns the renderer Export uses.
func (s *Service) PDFRenderer() *render.PDFRenderer {
	return s.renderer
}

// Reprobe resolves the font again and hands the result to the renderer.
func (s *Service) Reprobe() fonts.Font {
	return s.renderer.Reprobe(s.resolver)
}
