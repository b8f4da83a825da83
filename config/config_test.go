package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/markergen/output"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 400, cfg.Tags.Size)
	assert.Equal(t, 2, cfg.Tags.Border)
	assert.Equal(t, filepath.Join("assets", "markers"), cfg.Tags.OutputDir)
	assert.Equal(t, filepath.Join("assets", "markers-qr"), cfg.QR.OutputDir)
	assert.Equal(t, output.PNG, cfg.OutputFormat())
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
tags:
  output_dir: out/tags
  size: 800
  border: 1
qr:
  output_dir: out/qr
format: tiff
manifest: false
serve:
  port: 9000
  read_timeout: 5s
log_level: debug
`)

	cfg, err := Load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, "out/tags", cfg.Tags.OutputDir)
	assert.Equal(t, 800, cfg.Tags.Size)
	assert.Equal(t, 1, cfg.Tags.Border)
	assert.Equal(t, "tag36h11", cfg.Tags.Family, "unset keys keep defaults")
	assert.Equal(t, "out/qr", cfg.QR.OutputDir)
	assert.Equal(t, output.TIFF, cfg.OutputFormat())
	assert.False(t, cfg.Manifest)
	assert.Empty(t, cfg.ManifestPath())
	assert.Equal(t, 9000, cfg.Serve.Port)
	assert.Equal(t, 5*time.Second, cfg.Serve.ReadTimeout.Duration)
	assert.Equal(t, 60*time.Second, cfg.Serve.WriteTimeout.Duration)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "serve:\n  read_timeout: soon\n")
	_, err := Load(path, filepath.Join(dir, ".env"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MARKERGEN_TAG_SIZE", "200")
	t.Setenv("MARKERGEN_TAG_BORDER", "0")
	t.Setenv("MARKERGEN_FORMAT", "bmp")
	t.Setenv("MARKERGEN_MANIFEST", "no")
	t.Setenv("MARKERGEN_PORT", "not-a-number")

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Tags.Size)
	assert.Equal(t, 0, cfg.Tags.Border)
	assert.Equal(t, output.BMP, cfg.OutputFormat())
	assert.False(t, cfg.Manifest)
	assert.Equal(t, 8556, cfg.Serve.Port, "unparsable values are ignored")
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "MARKERGEN_QR_DIR=from-dotenv\nMARKERGEN_LOG_LEVEL=warn\n")
	t.Setenv("MARKERGEN_LOG_LEVEL", "error")
	t.Cleanup(func() { os.Unsetenv("MARKERGEN_QR_DIR") })

	cfg, err := Load(filepath.Join(dir, "missing.yaml"), envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.QR.OutputDir)
	assert.Equal(t, "error", cfg.LogLevel, "real environment wins over .env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero size", func(c *Config) { c.Tags.Size = 0 }},
		{"negative border", func(c *Config) { c.Tags.Border = -1 }},
		{"empty tag dir", func(c *Config) { c.Tags.OutputDir = "" }},
		{"empty qr dir", func(c *Config) { c.QR.OutputDir = "" }},
		{"bad format", func(c *Config) { c.Format = "gif" }},
		{"bad port", func(c *Config) { c.Serve.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnsureDataDir(t *testing.T) {
	cfg := Defaults()
	cfg.DataDir = filepath.Join(t.TempDir(), "state")
	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "manifest.db"), cfg.ManifestPath())
}
