package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/analyze"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"./..."}, cfg.Patterns)
	assert.Equal(t, analyze.DefaultMarkerPath, cfg.MarkerPackage)
	assert.Equal(t, ".g.go", cfg.FileSuffix)
	assert.True(t, cfg.Comments)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "automap.yaml", `
patterns: ["./store/...", "./warehouse"]
file_suffix: _map.go
warnings_as_errors: true
jobs: 4
tags: [integration]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"./store/...", "./warehouse"}, cfg.Patterns)
	assert.Equal(t, "_map.go", cfg.FileSuffix)
	assert.True(t, cfg.WarningsAsErrors)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, []string{"-tags=integration"}, cfg.BuildFlags())
	// Unset keys keep their defaults.
	assert.True(t, cfg.Comments)
	assert.Equal(t, filepath.Join(dir, ".automap.manifest"), cfg.ManifestPath())
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "automap.toml", `
patterns = ["./..."]
marker_package = "example.com/mapper/automap"
comments = false
manifest = ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example.com/mapper/automap", cfg.MarkerPackage)
	assert.False(t, cfg.Comments)
	assert.Empty(t, cfg.ManifestPath())
	assert.Nil(t, cfg.BuildFlags())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "automap.json", `{}`))
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(writeFile(t, dir, "bad.yaml", "file_suffix: .txt\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_suffix")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	path := writeFile(t, dir, "automap.toml", "")
	assert.Equal(t, path, Find(dir))

	path = writeFile(t, dir, "automap.yaml", "")
	assert.Equal(t, path, Find(dir))
}
