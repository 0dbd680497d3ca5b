package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.Write("schedule_1024_v2_20250201.pdf", []byte("%PDF-"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "schedule_1024_v2_20250201.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(got))
}

func TestWriter_RejectsEmptyName(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = w.Write("..", nil)
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"schedule_1_v1_20250101.pdf": "schedule_1_v1_20250101.pdf",
		"../../etc/passwd":           "_.._etc_passwd",
		"工程表 v2.md":                  "工程表_v2.md",
		".hidden":                    "hidden",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitize(in), in)
	}
}
