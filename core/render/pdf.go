// Package render — PDF renderer.
// Lays a schedule out on a single fixed-size page using gofpdf: project title,
// a four-line info block and a ruled table with fixed column widths and row
// height. Pagination and text wrapping are intentionally not supported.
package render

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/fonts"
	"github.com/jung-kurt/gofpdf"
)

// embeddedFamily is the family name the resolved TrueType font is registered under.
const embeddedFamily = "schedule"

// fontCheckText mixes the scripts a schedule page draws.
const fontCheckText = "工程名 完了 Aa 09/"

// GenerationError reports that a document could not be rendered. No partial
// output accompanies it.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return "pdf generation failed: " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// PDFRenderer renders schedule documents as single-page PDFs.
type PDFRenderer struct {
	mu     sync.RWMutex
	font   fonts.Font
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a PDFRenderer.
type Option func(*PDFRenderer)

// WithClock sets the time source used for filenames and undated documents.
func WithClock(now func() time.Time) Option {
	return func(r *PDFRenderer) { r.now = now }
}

// WithLogger sets the renderer's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *PDFRenderer) { r.logger = l }
}

// NewPDFRenderer creates a PDFRenderer that embeds font. A zero Font selects
// the built-in Helvetica, which cannot draw CJK text; page labels then switch
// to their Latin wording.
func NewPDFRenderer(font fonts.Font, opts ...Option) *PDFRenderer {
	r := &PDFRenderer{
		font:   font,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.font = r.usable(font)
	return r
}

// usable returns font if gofpdf can embed it and draw with it, or the zero
// Font otherwise. Either way the outcome is logged.
func (r *PDFRenderer) usable(font fonts.Font) fonts.Font {
	if !font.Available() {
		r.logger.Warn("no TrueType font resolved, using Helvetica; CJK glyphs will not render")
		return fonts.Font{}
	}
	if err := checkFont(font.Path); err != nil {
		r.logger.Warn("font cannot be embedded, using Helvetica; CJK glyphs will not render",
			"font", font.Path, "error", err)
		return fonts.Font{}
	}
	return font
}

// checkFont renders a throwaway page with the font at path.
func checkFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pdf := gofpdf.New("P", "pt", "A4", "")
	if err := registerFont(pdf, data); err != nil {
		return err
	}
	pdf.AddPage()
	pdf.Text(marginLeft, marginTop, fontCheckText)
	return pdf.Output(io.Discard)
}

// registerFont adds data as the embedded family and selects it. gofpdf only
// prints parse failures, so selecting the family is what surfaces them.
func registerFont(pdf *gofpdf.Fpdf, data []byte) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parsing font: %v", p)
		}
	}()
	pdf.AddUTF8FontFromBytes(embeddedFamily, "", data)
	pdf.SetFont(embeddedFamily, "", tableFontSize)
	if pdf.Err() {
		err = pdf.Error()
		pdf.ClearError()
	}
	return err
}

// Font returns the font the renderer embeds.
func (r *PDFRenderer) Font() fonts.Font {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.font
}

// Reprobe runs res again and switches to its result. A resolved file that
// cannot be embedded leaves the renderer on Helvetica.
func (r *PDFRenderer) Reprobe(res *fonts.Resolver) fonts.Font {
	font := r.usable(res.Resolve())
	r.mu.Lock()
	r.font = font
	r.mu.Unlock()
	r.logger.Info("font re-probed", "font", font.Name())
	return font
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// Filename returns schedule_{project_number}_v{version}_{YYYYMMDD}.pdf, dated
// by the renderer clock.
func (r *PDFRenderer) Filename(doc core.ScheduleDocument) string {
	return Filename(doc, r.now(), r.Extension())
}

// Render lays doc out and returns the PDF bytes. Items are drawn sorted by
// OrderIndex whatever order they arrive in.
func (r *PDFRenderer) Render(doc core.ScheduleDocument) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &GenerationError{Cause: fmt.Errorf("panic: %v", p)}
		}
	}()

	created := doc.CreatedDate
	if created.IsZero() {
		created = r.now()
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(doc.ProjectInfo.ProjectName, true)
	pdf.SetCreator("schedpdf", false)

	f := r.loadFace(pdf)
	pdf.AddPage()

	y := drawTitle(pdf, f, doc.ProjectInfo.ProjectName, marginTop)
	y = drawInfo(pdf, f, f.labels.info(doc.ProjectInfo, created.Format("2006/01/02")), y)
	rows := tableRows(doc.Items, f.labels)
	bottom := drawTable(pdf, f, rows, y)
	if bottom > pageHeight {
		r.logger.Warn("schedule table overflows the page",
			"schedule_id", doc.ScheduleID, "rows", len(rows)-1, "bottom", bottom)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &GenerationError{Cause: err}
	}

	r.logger.Info("pdf generated",
		"schedule_id", doc.ScheduleID, "bytes", buf.Len(), "items", len(doc.Items), "font", f.family)
	return buf.Bytes(), nil
}

// face is the font setup for one document.
type face struct {
	family string
	bold   string // style for the title and header row
	encode func(string) string
	labels labels
}

// loadFace registers the resolved TrueType font, or selects Helvetica when
// there is none or it can no longer be loaded.
func (r *PDFRenderer) loadFace(pdf *gofpdf.Fpdf) face {
	font := r.Font()
	if font.Available() {
		data, err := os.ReadFile(font.Path)
		if err == nil {
			err = registerFont(pdf, data)
		}
		if err == nil {
			return face{
				family: embeddedFamily,
				encode: func(s string) string { return s },
			}
		}
		r.logger.Warn("loading font failed, using Helvetica", "font", font.Path, "error", err)
	}
	return face{
		family: "Helvetica",
		bold:   "B",
		encode: pdf.UnicodeTranslatorFromDescriptor(""),
		labels: labels{latin: true},
	}
}

// drawTitle writes the project name and returns the baseline of the first info line.
func drawTitle(pdf *gofpdf.Fpdf, f face, title string, y float64) float64 {
	pdf.SetFont(f.family, f.bold, titleFontSize)
	pdf.SetTextColor(colorAccent.r, colorAccent.g, colorAccent.b)
	pdf.Text(marginLeft, y, f.encode(title))
	return y + titleGap
}

// drawInfo writes the info lines and returns the table's top edge.
func drawInfo(pdf *gofpdf.Fpdf, f face, lines []string, y float64) float64 {
	pdf.SetFont(f.family, "", infoFontSize)
	pdf.SetTextColor(colorText.r, colorText.g, colorText.b)
	for _, line := range lines {
		pdf.Text(marginLeft, y, f.encode(line))
		y += infoLineHeight
	}
	return y + tableGap
}

// drawTable draws rows (header first) as a ruled grid whose top-left corner is
// (marginLeft, top) and returns the table's bottom edge.
func drawTable(pdf *gofpdf.Fpdf, f face, rows [][]string, top float64) float64 {
	left := marginLeft
	width := tableWidth()
	height := float64(len(rows)) * rowHeight

	pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	pdf.SetTextColor(colorText.r, colorText.g, colorText.b)

	for i, row := range rows {
		rowTop := top + float64(i)*rowHeight
		rowBottom := rowTop + rowHeight

		style := ""
		if i == 0 {
			pdf.SetFillColor(colorHeaderBG.r, colorHeaderBG.g, colorHeaderBG.b)
			pdf.Rect(left, rowTop, width, rowHeight, "F")
			style = f.bold
		}

		pdf.SetLineWidth(ruleWidth)
		if i < len(rows)-1 {
			pdf.Line(left, rowBottom, left+width, rowBottom)
		}

		pdf.SetFont(f.family, style, tableFontSize)
		x := left
		for col, w := range columnWidths {
			right := x + w
			if col < len(columnWidths)-1 {
				pdf.Line(right, rowTop, right, rowBottom)
			}
			if col < len(row) && row[col] != "" {
				pdf.Text(x+cellInset, rowTop+(rowHeight+cellInset)/2, f.encode(row[col]))
			}
			x = right
		}
	}

	pdf.SetLineWidth(tableBorderWidth)
	pdf.Rect(left, top, width, height, "D")
	return top + height
}
