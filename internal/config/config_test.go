package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "schedpdf.db", cfg.Database.Path)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"application/pdf"}, cfg.Upload.AllowedFileTypes)
	assert.Empty(t, cfg.Fonts.Candidates)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedpdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
database:
  path: /var/lib/schedpdf/data.db
server:
  addr: ":9000"
  allowed_origins:
    - https://a.example.com
    - https://b.example.com
  write_timeout: 1m
upload:
  max_file_size: 2048
fonts:
  candidates: ["/fonts/a.ttf", "/fonts/b.ttf"]
`), 0o644))

	t.Setenv("SCHEDPDF_SERVER_ADDR", ":9100")
	t.Setenv("SCHEDPDF_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/lib/schedpdf/data.db", cfg.Database.Path)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, int64(2048), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"/fonts/a.ttf", "/fonts/b.ttf"}, cfg.Fonts.Candidates)
}

func TestLoad_CommaSeparatedOrigins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedpdf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  allowed_origins: "https://a.example.com, https://b.example.com"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveUploadLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCHEDPDF_UPLOAD_MAX_FILE_SIZE", "0")
	_, err := Load("")
	assert.Error(t, err)
}
