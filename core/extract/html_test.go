package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/extract"
	"github.com/gaurav-prasanna/schedpdf/core/render"
)

func TestHTMLRoundTrip(t *testing.T) {
	doc := sampleDocument()
	data, err := render.NewHTMLRenderer().Render(doc)
	require.NoError(t, err)
	assert.Equal(t, extract.FormatHTML, extract.Detect(data))

	items, err := extract.New(extract.WithLogger(quiet)).Extract(data)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Foundation", items[0].ProcessName)
	assert.Equal(t, core.StatusCompleted, items[0].Status)
	assert.Equal(t, core.StatusDelayed, items[1].Status)
	assert.Equal(t, "Framing", items[2].ProcessName)
	assert.Equal(t, 2, items[2].OrderIndex)
}

func TestHTMLSource_Tables(t *testing.T) {
	page := `<html><body>
<script>var x = "<table><tr><td>no</td></tr></table>";</script>
<table id="outer">
  <tr><th>Process</th><th>Status</th></tr>
  <tr><td> Dig </td><td>
    <table><tr><td>nested</td></tr></table>
  </td></tr>
</table>
<table></table>
</body></html>`

	src, err := extract.OpenHTML([]byte(page))
	require.NoError(t, err)
	require.Equal(t, 1, src.PageCount())

	grids, err := src.Tables(1)
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Len(t, grids[0], 2)
	assert.Equal(t, []string{"Process", "Status"}, grids[0][0])
	assert.Equal(t, "Dig", grids[0][1][0])
	assert.Equal(t, core.Grid{{"nested"}}, grids[1])

	_, err = src.Tables(2)
	assert.Error(t, err)
}

func TestHTMLSource_EmptyBody(t *testing.T) {
	src, err := extract.OpenHTML([]byte("<html><body>   </body></html>"))
	require.NoError(t, err)
	assert.Equal(t, 0, src.PageCount())

	_, err = extract.New(extract.WithLogger(quiet)).ExtractSource(src)
	assert.ErrorIs(t, err, extract.ErrNoPages)
}

func TestHTMLSource_NoTable(t *testing.T) {
	src, err := extract.OpenHTML([]byte("<html><body><p>hello</p></body></html>"))
	require.NoError(t, err)

	_, err = extract.New(extract.WithLogger(quiet)).ExtractSource(src)
	assert.ErrorIs(t, err, extract.ErrNoTable)
}
