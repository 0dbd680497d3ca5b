// Package render — HTML renderer.
// Produces a standalone HTML preview of a schedule: the same title, info block
// and table as the PDF page, as markup. The table is plain <table>/<tr>/<th>/<td>
// so the HTML source in core/extract can read it back.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/gaurav-prasanna/schedpdf/core"
)

var htmlTemplate = template.Must(template.New("schedule").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<ul class="project-info">
{{- range .Info}}
<li>{{.}}</li>
{{- end}}
</ul>
<table class="schedule">
<thead>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type htmlPage struct {
	Title  string
	Info   []string
	Header []string
	Rows   [][]string
}

// HTMLRenderer renders a schedule as an HTML document.
type HTMLRenderer struct {
	now func() time.Time
}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{now: time.Now}
}

// Render returns the HTML preview of doc.
func (r *HTMLRenderer) Render(doc core.ScheduleDocument) ([]byte, error) {
	created := doc.CreatedDate
	if created.IsZero() {
		created = r.now()
	}
	l := labels{}
	rows := tableRows(doc.Items, l)

	page := htmlPage{
		Title:  doc.ProjectInfo.ProjectName,
		Info:   l.info(doc.ProjectInfo, created.Format("2006/01/02")),
		Header: rows[0],
		Rows:   rows[1:],
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("executing HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
