package extract_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/dates"
	"github.com/gaurav-prasanna/schedpdf/core/extract"
	"github.com/gaurav-prasanna/schedpdf/core/fonts"
	"github.com/gaurav-prasanna/schedpdf/core/render"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleDocument() core.ScheduleDocument {
	return core.ScheduleDocument{
		ScheduleID: "3f6c1c8e-2f0b-4d7e-9c43-1a2b3c4d5e6f",
		Version:    2,
		ProjectInfo: core.ProjectInfo{
			ProjectNumber:        1024,
			ProjectName:          "Riverside Office",
			ConstructionLocation: "Osaka",
		},
		Items: []core.ScheduleItem{
			{
				ProcessName: "Framing", OrderIndex: 2,
				PlannedStart: dates.MustOf(2025, time.March, 1).Ptr(),
				Status:       core.StatusNotStarted,
			},
			{
				ProcessName: "Foundation", OrderIndex: 0,
				PlannedStart: dates.MustOf(2025, time.February, 10).Ptr(),
				PlannedEnd:   dates.MustOf(2025, time.February, 25).Ptr(),
				ActualStart:  dates.MustOf(2025, time.February, 11).Ptr(),
				ActualEnd:    dates.MustOf(2025, time.February, 24).Ptr(),
				Assignee:     "Sato",
				Status:       core.StatusCompleted,
				Remarks:      "on time",
			},
			{
				ProcessName: "Scaffolding", OrderIndex: 1,
				PlannedStart: dates.MustOf(2025, time.February, 20).Ptr(),
				ActualStart:  dates.MustOf(2025, time.February, 22).Ptr(),
				Assignee:     "Kato",
				Status:       core.StatusDelayed,
			},
		},
		CreatedDate: time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPDFRoundTrip(t *testing.T) {
	doc := sampleDocument()
	data, err := render.NewPDFRenderer(fonts.Font{}, render.WithLogger(quiet)).Render(doc)
	require.NoError(t, err)

	src, err := extract.OpenPDF(data)
	require.NoError(t, err)
	assert.Equal(t, 1, src.PageCount())

	items, err := extract.New(extract.WithLogger(quiet)).Extract(data)
	require.NoError(t, err)
	require.Len(t, items, 3)

	names := []string{items[0].ProcessName, items[1].ProcessName, items[2].ProcessName}
	assert.Equal(t, []string{"Foundation", "Scaffolding", "Framing"}, names)

	for i, item := range items {
		assert.Equal(t, i, item.OrderIndex)
	}

	found := items[0]
	assert.Equal(t, dates.MustOf(2025, time.February, 10).Ptr(), found.PlannedStart)
	assert.Equal(t, dates.MustOf(2025, time.February, 25).Ptr(), found.PlannedEnd)
	assert.Equal(t, dates.MustOf(2025, time.February, 11).Ptr(), found.ActualStart)
	assert.Equal(t, dates.MustOf(2025, time.February, 24).Ptr(), found.ActualEnd)
	assert.Equal(t, "Sato", found.Assignee)
	assert.Equal(t, core.StatusCompleted, found.Status)
	assert.Equal(t, "on time", found.Remarks)

	assert.Equal(t, core.StatusDelayed, items[1].Status)
	assert.Nil(t, items[1].PlannedEnd)
	assert.Equal(t, core.StatusNotStarted, items[2].Status)
	assert.Empty(t, items[2].Assignee)
}

func TestPDFRoundTrip_EmbeddedFont(t *testing.T) {
	font := fonts.NewResolver(nil).Resolve()
	if !font.Available() {
		t.Skip("no TrueType font installed")
	}
	r := render.NewPDFRenderer(font, render.WithLogger(quiet))
	if !r.Font().Available() {
		t.Skip("installed font cannot be embedded")
	}

	doc := sampleDocument()
	doc.ProjectInfo.ProjectName = "北浜オフィス新築工事"
	doc.Items[0].ProcessName = "内装"
	doc.Items[1].ProcessName = "基礎工事"
	doc.Items[1].Assignee = "佐藤組"
	doc.Items[1].Remarks = "雨天順延"
	doc.Items[2].ProcessName = "Café ü (ok)"

	data, err := r.Render(doc)
	require.NoError(t, err)

	items, err := extract.New(extract.WithLogger(quiet)).Extract(data)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "基礎工事", items[0].ProcessName)
	assert.Equal(t, "佐藤組", items[0].Assignee)
	assert.Equal(t, "雨天順延", items[0].Remarks)
	assert.Equal(t, dates.MustOf(2025, time.February, 24).Ptr(), items[0].ActualEnd)
	assert.Equal(t, "Café ü (ok)", items[1].ProcessName)
	assert.Equal(t, "内装", items[2].ProcessName)

	statuses := []core.Status{items[0].Status, items[1].Status, items[2].Status}
	assert.Equal(t, []core.Status{core.StatusCompleted, core.StatusDelayed, core.StatusNotStarted}, statuses)
}

func TestOpenPDF_Garbage(t *testing.T) {
	_, err := extract.OpenPDF([]byte("%PDF-1.4 this is not really a pdf"))
	assert.Error(t, err)

	_, err = extract.New(extract.WithLogger(quiet)).Extract([]byte("%PDF-1.4 this is not really a pdf"))
	assert.ErrorIs(t, err, extract.ErrUnreadable)
}
