// Package render — JSON renderer.
// Serializes the schedule document with items in display order, dates as
// YYYY-MM-DD and statuses as their canonical keys.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/schedpdf/core"
)

// JSONRenderer produces structured JSON output from a schedule document.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals doc as indented JSON.
func (r *JSONRenderer) Render(doc core.ScheduleDocument) ([]byte, error) {
	doc.Items = sortedItems(doc.Items)
	if doc.Items == nil {
		doc.Items = []core.ScheduleItem{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
