// Package output writes rendered schedules to disk.
// Filenames come from the renderer (e.g. schedule_1024_v2_20250201.pdf) and
// are flattened to a single safe path element inside the output directory.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Write stores data under name in the output directory and returns the path
// written. An existing file of the same name is replaced.
func (w *Writer) Write(name string, data []byte) (string, error) {
	name = sanitize(name)
	if name == "" {
		return "", fmt.Errorf("empty output filename")
	}
	path := filepath.Join(w.OutputDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// sanitize replaces path separators and other unsafe characters with
// underscores. Letters of any script, digits, '.', '-' and '_' are kept;
// a leading dot is dropped so the result is never hidden or relative.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch {
		case ch == '.' || ch == '-' || ch == '_':
			b.WriteRune(ch)
		case ch == '/' || ch == '\\' || ch < ' ':
			b.WriteRune('_')
		case (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch > 0x7f:
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
