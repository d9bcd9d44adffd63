package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendStudio, cfg.Model.Backend)
	assert.Equal(t, DefaultModel, cfg.Model.Name)
	assert.Equal(t, 1, cfg.Pipeline.PageConcurrency)
	assert.Zero(t, cfg.Pipeline.PageTimeout)
	assert.False(t, cfg.FirestoreEnabled())
}

func TestLoadWithoutAPIKeyIsNotAnError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Model.APIKey)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
server:
  port: "9090"
  request_timeout: 30s
model:
  name: gemini-1.5-pro
pipeline:
  page_concurrency: 2
  page_timeout: 45s
storage:
  results_bucket: from-file
  firestore_database: jobs-file
  default_formats: [model, qty]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("RESULTS_BUCKET", "from-env")
	t.Setenv("PAGE_CONCURRENCY", "4")
	t.Setenv("FIRESTORE_DATABASE", "jobs-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "gemini-1.5-pro", cfg.Model.Name)
	assert.Equal(t, 4, cfg.Pipeline.PageConcurrency)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.PageTimeout)
	assert.Equal(t, "from-env", cfg.Storage.ResultsBucket)
	assert.Equal(t, "jobs-env", cfg.Storage.FirestoreDatabase)
	assert.Equal(t, []string{"model", "qty"}, cfg.Storage.DefaultFormats)
}

func TestDefaultFormatsFromEnv(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "comma list", raw: "model, qty ,name", want: []string{"model", "qty", "name"}},
		{name: "json array", raw: `["型番","数量"]`, want: []string{"型番", "数量"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEFAULT_FORMATS", tt.raw)
			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Storage.DefaultFormats)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Model.Backend = "openai" }, wantErr: true},
		{name: "vertex without project", mutate: func(c *Config) { c.Model.Backend = BackendVertex }, wantErr: true},
		{name: "vertex with project", mutate: func(c *Config) {
			c.Model.Backend = BackendVertex
			c.Model.ProjectID = "proj"
		}},
		{name: "zero concurrency", mutate: func(c *Config) { c.Pipeline.PageConcurrency = 0 }, wantErr: true},
		{name: "empty model", mutate: func(c *Config) { c.Model.Name = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvHelpersFallBackOnMalformedValues(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_DURATION", "soon")

	assert.Equal(t, 7, GetEnvInt("SOME_INT", 7))
	assert.Equal(t, time.Minute, GetEnvDuration("SOME_DURATION", time.Minute))
	assert.Equal(t, "x", GetEnv("UNSET_VARIABLE_FOR_TEST", "x"))
}
