package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/gaurav-prasanna/schedpdf/core"
)

// ruleTolerance is how far apart, in points, two coordinates may be and
// still count as the same rule.
const ruleTolerance = 1.0

// minTableSide skips hairline and degenerate rectangles.
const minTableSide = 4.0

// locateGrids finds ruled tables in page content. Every stroked rectangle is
// a candidate table; stroked lines that are vertical or horizontal and lie
// strictly inside it split it into columns and rows. Each text run is placed
// in the cell containing its starting point. Grids are returned in the order
// their outer rectangles were painted, rows top to bottom.
func locateGrids(c *pageContent) []core.Grid {
	var grids []core.Grid
	for _, r := range c.rects {
		if r.w < minTableSide || r.h < minTableSide {
			continue
		}
		xs, ys := splits(r, c.lines)
		grid := make(core.Grid, len(ys)-1)
		for i := range grid {
			grid[i] = make([]string, len(xs)-1)
		}
		for _, run := range c.runs {
			if run.x < r.x-ruleTolerance || run.x > r.right()+ruleTolerance ||
				run.y < r.y-ruleTolerance || run.y > r.top()+ruleTolerance {
				continue
			}
			row := bandIndex(ys, run.y, true)
			col := bandIndex(xs, run.x, false)
			text := strings.TrimSpace(run.text)
			if text == "" {
				continue
			}
			if grid[row][col] != "" {
				grid[row][col] += " "
			}
			grid[row][col] += text
		}
		grids = append(grids, grid)
	}
	return grids
}

// splits returns the column boundaries of r left to right and its row
// boundaries top to bottom, outer edges included.
func splits(r rect, lines []segment) (xs, ys []float64) {
	xs = []float64{r.x, r.right()}
	ys = []float64{r.y, r.top()}
	for _, l := range lines {
		switch {
		case math.Abs(l.x1-l.x2) <= ruleTolerance:
			x := (l.x1 + l.x2) / 2
			lo, hi := math.Min(l.y1, l.y2), math.Max(l.y1, l.y2)
			if x > r.x+ruleTolerance && x < r.right()-ruleTolerance &&
				hi > r.y+ruleTolerance && lo < r.top()-ruleTolerance {
				xs = append(xs, x)
			}
		case math.Abs(l.y1-l.y2) <= ruleTolerance:
			y := (l.y1 + l.y2) / 2
			lo, hi := math.Min(l.x1, l.x2), math.Max(l.x1, l.x2)
			if y > r.y+ruleTolerance && y < r.top()-ruleTolerance &&
				hi > r.x+ruleTolerance && lo < r.right()-ruleTolerance {
				ys = append(ys, y)
			}
		}
	}
	xs = dedupe(xs)
	ys = dedupe(ys)
	for i, j := 0, len(ys)-1; i < j; i, j = i+1, j-1 {
		ys[i], ys[j] = ys[j], ys[i]
	}
	return xs, ys
}

// dedupe sorts v ascending and merges values within ruleTolerance.
func dedupe(v []float64) []float64 {
	sort.Float64s(v)
	out := v[:1]
	for _, x := range v[1:] {
		if x-out[len(out)-1] > ruleTolerance {
			out = append(out, x)
		}
	}
	return out
}

// bandIndex returns the band of bounds that contains v. Bounds are ascending,
// or descending when desc is set; values outside clamp to the first or last
// band.
func bandIndex(bounds []float64, v float64, desc bool) int {
	last := len(bounds) - 2
	for i := 0; i < last; i++ {
		next := bounds[i+1]
		if (!desc && v < next) || (desc && v > next) {
			return i
		}
	}
	return last
}
