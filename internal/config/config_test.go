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

	assert.Equal(t, "http://localhost:3000/import-filtered-data", cfg.Importer.ImportURL())
	assert.Equal(t, "http://localhost:3000/health", cfg.Importer.HealthURL())
	assert.Equal(t, 3, cfg.Importer.MaxAttempts)
	assert.Equal(t, 300*time.Second, cfg.Importer.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Importer.PacingDelay)
	assert.Equal(t, "2025-06-29", cfg.Importer.StartDate)
	assert.Len(t, cfg.Importer.Catalog, 10)
	assert.Equal(t, "buildings", cfg.Importer.Catalog[0].Name)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
importer:
  server_url: http://importer:8080/
  max_attempts: 5
  pacing_delay: 250ms
  catalog:
    - id: "1"
      name: alpha
      glyph: "A"
      description: first
    - id: "2"
      name: beta
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://importer:8080/import-filtered-data", cfg.Importer.ImportURL())
	assert.Equal(t, 5, cfg.Importer.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Importer.PacingDelay)
	require.Len(t, cfg.Importer.Catalog, 2)
	assert.Equal(t, "alpha", cfg.Importer.Catalog[0].Name)
	assert.Equal(t, "beta", cfg.Importer.Catalog[1].Name)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_MAX_ATTEMPTS", "7")
	t.Setenv("IMPORT_SERVER_URL", "http://example.test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Importer.MaxAttempts)
	assert.Equal(t, "http://example.test/health", cfg.Importer.HealthURL())
}

func TestLoad_RejectsUnboundedAttempts(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_MAX_ATTEMPTS", "64")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "importer.max_attempts")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero attempts", func(c *Config) { c.Importer.MaxAttempts = 0 }},
		{"too many attempts", func(c *Config) { c.Importer.MaxAttempts = MaxAttemptsLimit + 1 }},
		{"bad start date", func(c *Config) { c.Importer.StartDate = "June 29" }},
		{"missing url", func(c *Config) { c.Importer.ServerURL = "" }},
		{"duplicate id", func(c *Config) {
			c.Importer.Catalog = append(c.Importer.Catalog, c.Importer.Catalog[0])
		}},
		{"storage without bucket", func(c *Config) { c.Storage.Enabled = true }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			cfg, err := Load("")
			require.NoError(t, err)

			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
