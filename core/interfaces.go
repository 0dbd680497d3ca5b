// Package core defines the schedule document model and the interfaces
// between the document engine's stages.
// Each stage (render, extract) is a clean, testable interface; persistence and
// transport live outside core and only exchange these values.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/gaurav-prasanna/schedpdf/core/dates"
)

// Errors surfaced by collaborators that look schedules and projects up.
var (
	ErrDocumentNotFound = errors.New("schedule not found")
	ErrProjectNotFound  = errors.New("project not found")
)

// ScheduleItem is one row of a schedule: a named process with planned and
// actual date ranges.
type ScheduleItem struct {
	ProcessName  string      `json:"process_name"`
	PlannedStart *dates.Date `json:"planned_start_date"`
	PlannedEnd   *dates.Date `json:"planned_end_date"`
	ActualStart  *dates.Date `json:"actual_start_date"`
	ActualEnd    *dates.Date `json:"actual_end_date"`
	Assignee     string      `json:"assignee,omitempty"`
	Status       Status      `json:"status"`
	Remarks      string      `json:"remarks,omitempty"`
	OrderIndex   int         `json:"order_index"`
}

// ProjectInfo is the project header printed above the schedule table.
type ProjectInfo struct {
	ProjectNumber        int    `json:"project_number"`
	ProjectName          string `json:"project_name"`
	ConstructionLocation string `json:"construction_location,omitempty"`
	ConstructionCompany  string `json:"construction_company,omitempty"`
}

// ScheduleDocument is one version of a project's schedule.
// It is a value: whoever builds it hands it over and keeps no reference.
//
// CreatedDate is when the version was saved; documents loaded from the store
// always carry it and the PDF info line prints that date. The zero value
// means "not stored yet" and renderers print the render date instead.
type ScheduleDocument struct {
	ScheduleID  string         `json:"schedule_id"`
	Version     int            `json:"version"`
	ProjectInfo ProjectInfo    `json:"project_info"`
	Items       []ScheduleItem `json:"schedule_items"`
	CreatedDate time.Time      `json:"created_date"`
}

// Renderer converts a schedule document into a final output format.
type Renderer interface {
	Render(doc ScheduleDocument) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".pdf", ".md").
	Extension() string
}

// Grid is a table found on a page: rows of cell text, row 0 first.
// Rows may have different lengths.
type Grid [][]string

// Source is an opened document whose pages can be searched for tables.
// Tables is the table-locator capability: it returns every candidate grid on
// the given 1-based page, in the locator's enumeration order.
type Source interface {
	PageCount() int
	Tables(pageNr int) ([]Grid, error)
}

// FetchResult holds a remote document and its response metadata.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves a document from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
