// Package extract rebuilds schedule items from uploaded documents.
//
// A document is opened as a core.Source (PDF or HTML), the largest table on
// its first page is taken as the schedule, and each data row becomes a
// core.ScheduleItem. Structural problems (no pages, no table, too few rows,
// nothing usable) fail with an *ExtractionError. Problems inside a cell never
// fail: an unreadable date is left unset and an unknown status becomes
// core.StatusNotStarted.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/dates"
	"github.com/gaurav-prasanna/schedpdf/core/normalize"
)

// Reasons carried by ExtractionError.
var (
	ErrNoPages          = errors.New("no pages")
	ErrNoTable          = errors.New("no table detected")
	ErrInsufficientRows = errors.New("insufficient rows")
	ErrNoValidRows      = errors.New("no valid schedule data")
	ErrUnreadable       = errors.New("unreadable document")
)

// ExtractionError reports that no schedule could be read from a document.
// Reason is one of the Err* values of this package; Cause, when set, is the
// underlying parser or locator error.
type ExtractionError struct {
	Reason error
	Cause  error
}

func (e *ExtractionError) Error() string {
	msg := "could not read schedule from document: " + e.Reason.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

// Format is a document type the pipeline can open.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatHTML:
		return "html"
	}
	return "unknown"
}

// Detect sniffs the document type of raw.
func Detect(raw []byte) Format {
	if strings.HasPrefix(string(raw[:min(len(raw), 1024)]), "%PDF-") {
		return FormatPDF
	}
	if strings.HasPrefix(http.DetectContentType(raw), "text/html") {
		return FormatHTML
	}
	return FormatUnknown
}

// Open parses raw with the source matching its detected format.
func Open(raw []byte) (core.Source, error) {
	switch f := Detect(raw); f {
	case FormatPDF:
		return OpenPDF(raw)
	case FormatHTML:
		return OpenHTML(raw)
	default:
		return nil, fmt.Errorf("unsupported document type %s", http.DetectContentType(raw))
	}
}

// Pipeline turns documents into schedule items. It holds no per-document
// state and is safe for concurrent use.
type Pipeline struct {
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Extract opens raw and reads its schedule items.
func (p *Pipeline) Extract(raw []byte) ([]core.ScheduleItem, error) {
	src, err := Open(raw)
	if err != nil {
		return nil, &ExtractionError{Reason: ErrUnreadable, Cause: err}
	}
	return p.ExtractSource(src)
}

// ExtractSource reads schedule items from the first page of src. Items come
// back in row order with OrderIndex 0, 1, 2... over the rows kept.
func (p *Pipeline) ExtractSource(src core.Source) ([]core.ScheduleItem, error) {
	if src.PageCount() < 1 {
		return nil, &ExtractionError{Reason: ErrNoPages}
	}

	grids, err := src.Tables(1)
	if err != nil {
		return nil, &ExtractionError{Reason: ErrUnreadable, Cause: err}
	}
	if len(grids) == 0 {
		return nil, &ExtractionError{Reason: ErrNoTable}
	}

	table := grids[0]
	for _, g := range grids[1:] {
		if len(g) > len(table) {
			table = g
		}
	}
	if len(table) < 2 {
		return nil, &ExtractionError{Reason: ErrInsufficientRows}
	}

	var items []core.ScheduleItem
	for i, row := range table[1:] {
		item, ok := itemFromRow(row)
		if !ok {
			p.logger.Debug("skipping schedule row", "row", i+1, "cells", len(row))
			continue
		}
		item.OrderIndex = len(items)
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, &ExtractionError{Reason: ErrNoValidRows}
	}

	p.logger.Info("schedule extracted",
		"tables", len(grids), "rows", len(table)-1, "items", len(items))
	return items, nil
}

// itemFromRow converts one data row. Rows without a process name are not
// items.
func itemFromRow(row []string) (core.ScheduleItem, bool) {
	cell := func(f core.Field) string {
		if int(f) < len(row) {
			return strings.TrimSpace(row[f])
		}
		return ""
	}
	date := func(f core.Field) *dates.Date {
		d, ok := dates.Parse(cell(f))
		if !ok {
			return nil
		}
		return d.Ptr()
	}

	name := cell(core.FieldProcessName)
	if name == "" {
		return core.ScheduleItem{}, false
	}
	return core.ScheduleItem{
		ProcessName:  name,
		PlannedStart: date(core.FieldPlannedStart),
		PlannedEnd:   date(core.FieldPlannedEnd),
		ActualStart:  date(core.FieldActualStart),
		ActualEnd:    date(core.FieldActualEnd),
		Assignee:     cell(core.FieldAssignee),
		Status:       normalize.Status(cell(core.FieldStatus)),
		Remarks:      cell(core.FieldRemarks),
	}, true
}
