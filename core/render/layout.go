// Package render — fixed page geometry and the table row model shared by
// every renderer.
package render

import (
	"fmt"
	"sort"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/dates"
)

// Page geometry, in points.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	marginLeft = 40.0
	marginTop  = 50.0

	titleFontSize = 18.0
	infoFontSize  = 12.0
	tableFontSize = 8.0

	titleGap       = 30.0 // title baseline to first info line
	infoLineHeight = 20.0
	tableGap       = 15.0 // last info line to table top

	rowHeight = 40.0
	cellInset = 4.0

	tableBorderWidth = 2.0
	ruleWidth        = 1.0
)

type rgb struct{ r, g, b int }

var (
	colorText     = rgb{0, 0, 0}
	colorAccent   = rgb{26, 77, 179}
	colorHeaderBG = rgb{230, 230, 230}
	colorBorder   = rgb{51, 51, 51}
)

// columnWidths holds one width per core.Fields() entry.
var columnWidths = []float64{80, 50, 50, 50, 50, 60, 45, 120}

func init() {
	if n := len(core.Fields()); len(columnWidths) != n {
		panic(fmt.Sprintf("render: %d column widths for %d table fields", len(columnWidths), n))
	}
}

func tableWidth() float64 {
	var w float64
	for _, cw := range columnWidths {
		w += cw
	}
	return w
}

// labels is the wording of everything on the page that is not user data.
type labels struct {
	latin bool
}

func (l labels) header() []string {
	fields := core.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		if l.latin {
			out[i] = f.LatinLabel()
		} else {
			out[i] = f.Label()
		}
	}
	return out
}

func (l labels) status(s core.Status) string {
	if l.latin {
		return s.LatinLabel()
	}
	return s.Label()
}

func (l labels) info(info core.ProjectInfo, created string) []string {
	unset := "未設定"
	if l.latin {
		unset = "Unset"
	}
	location := info.ConstructionLocation
	if location == "" {
		location = unset
	}
	company := info.ConstructionCompany
	if company == "" {
		company = unset
	}
	if l.latin {
		return []string{
			fmt.Sprintf("Project No.: %d", info.ProjectNumber),
			"Location: " + location,
			"Company: " + company,
			"Created: " + created,
		}
	}
	return []string{
		fmt.Sprintf("プロジェクト番号: %d", info.ProjectNumber),
		"工事場所: " + location,
		"施工会社: " + company,
		"作成日: " + created,
	}
}

// sortedItems returns a copy of items ordered by OrderIndex. Equal indexes keep
// their input order.
func sortedItems(items []core.ScheduleItem) []core.ScheduleItem {
	out := append([]core.ScheduleItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out
}

// tableRows builds the header row followed by one row per item in display
// order. Missing optional values are empty strings.
func tableRows(items []core.ScheduleItem, l labels) [][]string {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, l.header())
	for _, item := range sortedItems(items) {
		rows = append(rows, []string{
			item.ProcessName,
			dates.FormatShort(item.PlannedStart),
			dates.FormatShort(item.PlannedEnd),
			dates.FormatShort(item.ActualStart),
			dates.FormatShort(item.ActualEnd),
			item.Assignee,
			l.status(item.Status),
			item.Remarks,
		})
	}
	return rows
}
