// Package extract — PDF source.
// Opens a PDF with pdfcpu and finds ruled tables on its pages by scanning
// each page's content stream.
package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// PDFSource is a parsed PDF document.
type PDFSource struct {
	ctx *model.Context
	// type0 holds the resource names of composite fonts. Strings shown with
	// them are two-byte codes, which this package reads as UTF-16BE.
	type0 map[string]bool
}

// OpenPDF parses raw as a PDF document.
func OpenPDF(raw []byte) (*PDFSource, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &PDFSource{ctx: ctx, type0: type0FontNames(ctx)}, nil
}

// PageCount returns the number of pages.
func (s *PDFSource) PageCount() int {
	return s.ctx.PageCount
}

// Tables returns the ruled tables on page pageNr (1-based).
func (s *PDFSource) Tables(pageNr int) ([]core.Grid, error) {
	if pageNr < 1 || pageNr > s.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range 1..%d", pageNr, s.ctx.PageCount)
	}
	r, err := pdfcpu.ExtractPageContent(s.ctx, pageNr)
	if err != nil {
		return nil, fmt.Errorf("reading content of page %d: %w", pageNr, err)
	}
	if r == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading content of page %d: %w", pageNr, err)
	}

	content, err := scanContent(data)
	if err != nil {
		return nil, fmt.Errorf("scanning content of page %d: %w", pageNr, err)
	}
	for i := range content.runs {
		content.runs[i].text = s.decode(content.runs[i].font, content.runs[i].raw)
	}
	return locateGrids(content), nil
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func (s *PDFSource) decode(font string, raw []byte) string {
	var dec *encoding.Decoder
	if s.type0[font] {
		dec = utf16BE.NewDecoder()
	} else {
		dec = charmap.Windows1252.NewDecoder()
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// type0FontNames collects the names under which Type0 fonts appear in any
// resource dictionary of the document. Names are not scoped per page; a
// document that binds one name to different font kinds on different pages
// decodes as if every binding were Type0.
func type0FontNames(ctx *model.Context) map[string]bool {
	names := map[string]bool{}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		var d types.Dict
		switch o := entry.Object.(type) {
		case types.Dict:
			d = o
		case types.StreamDict:
			d = o.Dict
		default:
			continue
		}
		for _, fonts := range fontDicts(ctx, d) {
			for name, obj := range fonts {
				if isType0(ctx, obj) {
					names[name] = true
				}
			}
		}
	}
	return names
}

// fontDicts returns the /Font dictionaries of d, read directly or through an
// inline /Resources entry.
func fontDicts(ctx *model.Context, d types.Dict) []types.Dict {
	var out []types.Dict
	if f := derefDict(ctx, d, "Font"); f != nil {
		out = append(out, f)
	}
	if res, ok := d.Find("Resources"); ok {
		if rd, ok := res.(types.Dict); ok {
			if f := derefDict(ctx, rd, "Font"); f != nil {
				out = append(out, f)
			}
		}
	}
	return out
}

func derefDict(ctx *model.Context, d types.Dict, key string) types.Dict {
	obj, ok := d.Find(key)
	if !ok {
		return nil
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil
	}
	out, _ := obj.(types.Dict)
	return out
}

func isType0(ctx *model.Context, obj types.Object) bool {
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return false
	}
	fd, ok := obj.(types.Dict)
	if !ok {
		return false
	}
	st, ok := fd.Find("Subtype")
	if !ok {
		return false
	}
	name, ok := st.(types.Name)
	return ok && name == "Type0"
}
