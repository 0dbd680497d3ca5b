// Package extract — HTML source.
// Reads schedule tables out of HTML markup with goquery: every <table> is a
// candidate grid, its <tr> elements are rows and their <th>/<td> children are
// cells. An HTML document is one page.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/schedpdf/core"
)

// noiseSelectors are removed before the page is read; they never hold
// schedule content.
var noiseSelectors = []string{"script", "style", "noscript", "template"}

// HTMLSource is a parsed HTML document.
type HTMLSource struct {
	doc *goquery.Document
}

// OpenHTML parses raw as an HTML document.
func OpenHTML(raw []byte) (*HTMLSource, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	return &HTMLSource{doc: doc}, nil
}

// PageCount is 1 when the body has any text or table, 0 otherwise.
func (s *HTMLSource) PageCount() int {
	body := s.doc.Find("body")
	if strings.TrimSpace(body.Text()) == "" && body.Find("table").Length() == 0 {
		return 0
	}
	return 1
}

// Tables returns every table with at least one row, in document order.
// Rows of nested tables belong to the nested table only.
func (s *HTMLSource) Tables(pageNr int) ([]core.Grid, error) {
	if pageNr != 1 || s.PageCount() == 0 {
		return nil, fmt.Errorf("page %d out of range 1..%d", pageNr, s.PageCount())
	}

	var grids []core.Grid
	s.doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var grid core.Grid
		table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
			return tr.Closest("table").IsSelection(table)
		}).Each(func(_ int, tr *goquery.Selection) {
			var row []string
			tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				row = append(row, strings.TrimSpace(cell.Text()))
			})
			grid = append(grid, row)
		})
		if len(grid) > 0 {
			grids = append(grids, grid)
		}
	})
	return grids, nil
}
