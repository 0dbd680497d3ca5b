package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/extract"
	"github.com/gaurav-prasanna/schedpdf/core/fonts"
	"github.com/gaurav-prasanna/schedpdf/core/render"
	"github.com/gaurav-prasanna/schedpdf/internal/schedule"
	"github.com/gaurav-prasanna/schedpdf/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	srv     *httptest.Server
	store   *store.Store
	project *store.Project
	doc     *core.ScheduleDocument
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.OpenMemory(t)
	svc := schedule.New(st, schedule.Config{
		Resolver: fonts.NewResolver([]string{"/nonexistent/font.ttf"}),
		Logger:   quiet,
	})

	p, err := st.CreateProject(ctx, core.ProjectInfo{ProjectNumber: 1024, ProjectName: "Riverside Office"})
	require.NoError(t, err)
	doc, err := st.SaveSchedule(ctx, p.ID, []core.ScheduleItem{
		{ProcessName: "Foundation", Status: core.StatusCompleted},
		{ProcessName: "Framing", OrderIndex: 1, Status: core.StatusInProgress},
	})
	require.NoError(t, err)

	opts.Logger = quiet
	srv := httptest.NewServer(New(svc, st, opts).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: st, project: p, doc: doc}
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func uploadRequest(t *testing.T, url, projectID, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if projectID != "" {
		require.NoError(t, mw.WriteField("project_id", projectID))
	}
	if data != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="pdf"; filename="schedule.pdf"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/v1/pdf/upload-pdf", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})

	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])

	resp, err = http.Get(f.srv.URL + "/api/v1/pdf/health")
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, false, body["font_available"])
	assert.Equal(t, "system_default", body["font_path"])
	assert.Equal(t, "healthy", body["status"])
}

func TestExport(t *testing.T) {
	f := newFixture(t, Options{})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req, err := http.NewRequest(method, f.srv.URL+"/api/v1/pdf/export-pdf/"+f.doc.ScheduleID, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, method)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		want := fmt.Sprintf("attachment; filename=schedule_1024_v1_%s.pdf", time.Now().Format("20060102"))
		assert.Equal(t, want, resp.Header.Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	}

	resp, err := http.Get(f.srv.URL + "/api/v1/pdf/export-pdf/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "schedule not found", decode(t, resp)["detail"])
}

func TestUpload(t *testing.T) {
	f := newFixture(t, Options{})

	pdf, err := render.NewPDFRenderer(fonts.Font{}, render.WithLogger(quiet)).Render(*f.doc)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(uploadRequest(t, f.srv.URL, f.project.ID, "application/pdf", pdf))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["version"])
	assert.Equal(t, float64(2), body["items_count"])
	assert.Equal(t, "Riverside Office", body["project_name"])
	assert.NotEmpty(t, body["schedule_id"])
	assert.NotEmpty(t, body["uploaded_at"])

	v, err := f.store.LatestVersion(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestUpload_Errors(t *testing.T) {
	f := newFixture(t, Options{MaxFileSize: 64})
	small := []byte("%PDF-1.4 broken")

	tests := []struct {
		name        string
		projectID   string
		contentType string
		data        []byte
		code        int
		detail      string
	}{
		{"wrong type", f.project.ID, "text/plain", small, http.StatusBadRequest, "only PDF files are accepted"},
		{"missing file", f.project.ID, "", nil, http.StatusBadRequest, "pdf file is required"},
		{"missing project id", "", "application/pdf", small, http.StatusBadRequest, "project_id is required"},
		{"unknown project", "nope", "application/pdf", small, http.StatusNotFound, "project not found"},
		{"too large", f.project.ID, "application/pdf", bytes.Repeat([]byte("x"), 65), http.StatusRequestEntityTooLarge, "file too large"},
		{"unreadable", f.project.ID, "application/pdf", small, http.StatusBadRequest, "could not read schedule from document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.DefaultClient.Do(uploadRequest(t, f.srv.URL, tt.projectID, tt.contentType, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, tt.detail, decode(t, resp)["detail"])
		})
	}
}

func TestProjectsAndSchedules(t *testing.T) {
	f := newFixture(t, Options{})

	resp, err := http.Get(f.srv.URL + "/api/v1/projects")
	require.NoError(t, err)
	var projects []store.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
	resp.Body.Close()
	require.Len(t, projects, 1)
	assert.Equal(t, 1024, projects[0].Info.ProjectNumber)

	resp, err = http.Get(f.srv.URL + "/api/v1/projects/" + f.project.ID + "/schedules")
	require.NoError(t, err)
	var schedules []store.ScheduleSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&schedules))
	resp.Body.Close()
	require.Len(t, schedules, 1)
	assert.Equal(t, f.doc.ScheduleID, schedules[0].ID)
	assert.Equal(t, 2, schedules[0].ItemCount)

	resp, err = http.Get(f.srv.URL + "/api/v1/projects/nope/schedules")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetProject(t *testing.T) {
	f := newFixture(t, Options{})

	resp, err := http.Get(f.srv.URL + "/api/v1/projects/" + f.project.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var project store.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&project))
	resp.Body.Close()
	assert.Equal(t, f.project.ID, project.ID)
	assert.Equal(t, "Riverside Office", project.Info.ProjectName)

	resp, err = http.Get(f.srv.URL + "/api/v1/projects/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "project not found", decode(t, resp)["detail"])
}

func TestLatestSchedule(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	v2, err := f.store.SaveSchedule(ctx, f.project.ID, []core.ScheduleItem{
		{ProcessName: "Roofing", OrderIndex: 1},
		{ProcessName: "Siding", OrderIndex: 0},
	})
	require.NoError(t, err)

	resp, err := http.Get(f.srv.URL + "/api/v1/projects/" + f.project.ID + "/latest-schedule")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc core.ScheduleDocument
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	resp.Body.Close()
	assert.Equal(t, v2.ScheduleID, doc.ScheduleID)
	assert.Equal(t, 2, doc.Version)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Siding", doc.Items[0].ProcessName)

	empty, err := f.store.CreateProject(ctx, core.ProjectInfo{ProjectNumber: 7, ProjectName: "Empty"})
	require.NoError(t, err)

	tests := []struct {
		name, projectID, detail string
	}{
		{"unknown project", "nope", "project not found"},
		{"no schedule", empty.ID, "no schedule found for project"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(f.srv.URL + "/api/v1/projects/" + tt.projectID + "/latest-schedule")
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, tt.detail, decode(t, resp)["detail"])
		})
	}
}

func TestListProjects_Paging(t *testing.T) {
	f := newFixture(t, Options{})
	second, err := f.store.CreateProject(context.Background(), core.ProjectInfo{ProjectNumber: 2048, ProjectName: "Harbor Depot"})
	require.NoError(t, err)

	list := func(query string) []store.Project {
		t.Helper()
		resp, err := http.Get(f.srv.URL + "/api/v1/projects" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var projects []store.Project
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&projects))
		return projects
	}

	all := list("")
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	page := list("?limit=1&offset=1")
	require.Len(t, page, 1)
	assert.Equal(t, f.project.ID, page[0].ID)

	assert.Empty(t, list("?offset=5"))

	for _, query := range []string{"?limit=0", "?limit=-1", "?limit=ten", "?offset=-2"} {
		resp, err := http.Get(f.srv.URL + "/api/v1/projects" + query)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		resp.Body.Close()
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, Options{AllowedOrigins: []string{"https://app.example.com"}})

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/v1/pdf/upload-pdf", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	req, err = http.NewRequest(http.MethodGet, f.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardNeverAllowsCredentials(t *testing.T) {
	f := newFixture(t, Options{AllowedOrigins: []string{"*"}})

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/v1/projects", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DisabledWithoutOrigins(t *testing.T) {
	f := newFixture(t, Options{})

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/v1/projects", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

type failingService struct{ err error }

func (f failingService) Export(context.Context, string) ([]byte, string, error) {
	return nil, "", f.err
}

func (f failingService) Import(context.Context, string, []byte) (*core.ScheduleDocument, error) {
	return nil, f.err
}

func (f failingService) FontStatus() fonts.Font { return fonts.Font{} }

func TestExport_GenerationFailure(t *testing.T) {
	svc := failingService{err: &render.GenerationError{Cause: errors.New("boom")}}
	srv := httptest.NewServer(New(svc, store.OpenMemory(t), Options{Logger: quiet}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/pdf/export-pdf/any")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "pdf generation failed", decode(t, resp)["detail"])
}

func TestUpload_ExtractionReasonIsNotLeaked(t *testing.T) {
	svc := failingService{err: &extract.ExtractionError{Reason: extract.ErrNoTable}}
	srv := httptest.NewServer(New(svc, store.OpenMemory(t), Options{Logger: quiet}).Handler())
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL, "p", "application/pdf", []byte("%PDF-")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "could not read schedule from document", decode(t, resp)["detail"])
}
