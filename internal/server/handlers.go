package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/extract"
	"github.com/gaurav-prasanna/schedpdf/internal/store"
)

// multipartOverhead is the room left above MaxFileSize for the other form
// fields and part headers.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePDFHealth(w http.ResponseWriter, r *http.Request) {
	font := s.svc.FontStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        "pdf",
		"status":         "healthy",
		"font_available": font.Available(),
		"font_path":      font.Name(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scheduleID")

	data, filename, err := s.svc.Export(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrDocumentNotFound):
		jsonErr(w, "schedule not found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("export failed", "schedule_id", id, "error", err)
		jsonErr(w, "pdf generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type uploadResponse struct {
	Status      string `json:"status"`
	ScheduleID  string `json:"schedule_id"`
	Version     int    `json:"version"`
	ItemsCount  int    `json:"items_count"`
	ProjectName string `json:"project_name"`
	UploadedAt  string `json:"uploaded_at"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonErr(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonErr(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	projectID := r.FormValue("project_id")
	if projectID == "" {
		jsonErr(w, "project_id is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		jsonErr(w, "pdf file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !s.allowedType(header.Header.Get("Content-Type")) {
		jsonErr(w, "only PDF files are accepted", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, s.opts.MaxFileSize+1))
	if err != nil {
		jsonErr(w, "could not read upload", http.StatusBadRequest)
		return
	}
	if int64(len(raw)) > s.opts.MaxFileSize {
		jsonErr(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := s.svc.Import(r.Context(), projectID, raw)
	var xerr *extract.ExtractionError
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		jsonErr(w, "project not found", http.StatusNotFound)
		return
	case errors.As(err, &xerr):
		s.logger.Warn("upload rejected",
			"project_id", projectID, "filename", header.Filename, "reason", xerr.Reason, "error", err)
		jsonErr(w, "could not read schedule from document", http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Error("upload failed", "project_id", projectID, "error", err)
		jsonErr(w, "upload failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Status:      "success",
		ScheduleID:  doc.ScheduleID,
		Version:     doc.Version,
		ItemsCount:  len(doc.Items),
		ProjectName: doc.ProjectInfo.ProjectName,
		UploadedAt:  s.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

const defaultPageSize = 100

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err == nil && limit == 0 {
		err = errors.New("limit must be a positive integer")
	}
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadRequest)
		return
	}

	projects, err := s.projects.ListProjects(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("listing projects failed", "error", err)
		jsonErr(w, "listing projects failed", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []store.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	project, err := s.projects.GetProject(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		jsonErr(w, "project not found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("loading project failed", "project_id", id, "error", err)
		jsonErr(w, "loading project failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleLatestSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	doc, err := s.projects.LatestSchedule(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		jsonErr(w, "project not found", http.StatusNotFound)
		return
	case errors.Is(err, core.ErrDocumentNotFound):
		jsonErr(w, "no schedule found for project", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("loading latest schedule failed", "project_id", id, "error", err)
		jsonErr(w, "loading schedule failed", http.StatusInternalServerError)
		return
	}
	if doc.Items == nil {
		doc.Items = []core.ScheduleItem{}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	schedules, err := s.projects.ListSchedules(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrProjectNotFound):
		jsonErr(w, "project not found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("listing schedules failed", "project_id", id, "error", err)
		jsonErr(w, "listing schedules failed", http.StatusInternalServerError)
		return
	}
	if schedules == nil {
		schedules = []store.ScheduleSummary{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

// queryInt reads a non-negative integer query parameter, or def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"detail": msg})
}
