package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	second := filepath.Join(dir, "second.ttf")
	third := filepath.Join(dir, "third.ttf")
	require.NoError(t, os.WriteFile(second, []byte("ttf"), 0o644))
	require.NoError(t, os.WriteFile(third, []byte("ttf"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.ttf"), 0o755))

	r := NewResolver([]string{
		filepath.Join(dir, "missing.ttf"),
		filepath.Join(dir, "dir.ttf"),
		second,
		third,
	})

	font := r.Resolve()
	assert.True(t, font.Available())
	assert.Equal(t, second, font.Path)
	assert.Equal(t, second, font.Name())
	assert.Equal(t, font, r.Resolve(), "probing again gives the same answer")
}

func TestResolve_NoneFound(t *testing.T) {
	r := NewResolver([]string{filepath.Join(t.TempDir(), "nope.ttf")})
	font := r.Resolve()
	assert.False(t, font.Available())
	assert.Equal(t, "system_default", font.Name())
}

func TestResolve_SeesFilesystemChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.ttf")
	r := NewResolver([]string{path})
	assert.False(t, r.Resolve().Available())

	require.NoError(t, os.WriteFile(path, []byte("ttf"), 0o644))
	assert.Equal(t, path, r.Resolve().Path)
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(nil)
	assert.Equal(t, DefaultCandidates(), r.Candidates())

	c := r.Candidates()
	c[0] = "changed"
	assert.NotEqual(t, "changed", r.Candidates()[0])
}
