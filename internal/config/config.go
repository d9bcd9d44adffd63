// Package config loads service configuration from an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendStudio = "studio"
	BackendVertex = "vertex"

	DefaultModel = "gemini-2.0-flash-thinking-exp-01-21"
)

// Config holds all configuration for the extraction service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Model    ModelConfig    `yaml:"model"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig holds settings for the standalone HTTP server.
type ServerConfig struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// ModelConfig selects and configures the Gemini backend.
type ModelConfig struct {
	Backend   string `yaml:"backend"`
	APIKey    string `yaml:"api_key"`
	Name      string `yaml:"name"`
	ProjectID string `yaml:"project_id"`
	Region    string `yaml:"region"`
}

// PipelineConfig controls how pages of one request are processed.
type PipelineConfig struct {
	PageConcurrency int           `yaml:"page_concurrency"`
	PageTimeout     time.Duration `yaml:"page_timeout"`
}

// StorageConfig holds the optional job ledger and result archive settings.
type StorageConfig struct {
	FirestoreCollection string   `yaml:"firestore_collection"`
	FirestoreDatabase   string   `yaml:"firestore_database"`
	ResultsBucket       string   `yaml:"results_bucket"`
	DefaultFormats      []string `yaml:"default_formats"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 10 * time.Minute,
			MaxUploadBytes: 32 << 20,
		},
		Model: ModelConfig{
			Backend: BackendStudio,
			Name:    DefaultModel,
			Region:  "us-central1",
		},
		Pipeline: PipelineConfig{
			PageConcurrency: 1,
		},
	}
}

// Load reads the YAML file at path (if any), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.Server.Port = GetEnv("PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = GetEnvDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.MaxUploadBytes = int64(GetEnvInt("MAX_UPLOAD_BYTES", int(cfg.Server.MaxUploadBytes)))

	cfg.Model.Backend = strings.ToLower(GetEnv("GEMINI_BACKEND", cfg.Model.Backend))
	cfg.Model.APIKey = GetEnv("GEMINI_API_KEY", cfg.Model.APIKey)
	cfg.Model.Name = GetEnv("GEMINI_MODEL", cfg.Model.Name)
	cfg.Model.ProjectID = GetEnv("PROJECT_ID", cfg.Model.ProjectID)
	cfg.Model.Region = GetEnv("VERTEX_AI_REGION", cfg.Model.Region)

	cfg.Pipeline.PageConcurrency = GetEnvInt("PAGE_CONCURRENCY", cfg.Pipeline.PageConcurrency)
	cfg.Pipeline.PageTimeout = GetEnvDuration("PAGE_TIMEOUT", cfg.Pipeline.PageTimeout)

	cfg.Storage.FirestoreCollection = GetEnv("FIRESTORE_COLLECTION", cfg.Storage.FirestoreCollection)
	cfg.Storage.FirestoreDatabase = GetEnv("FIRESTORE_DATABASE", cfg.Storage.FirestoreDatabase)
	cfg.Storage.ResultsBucket = GetEnv("RESULTS_BUCKET", cfg.Storage.ResultsBucket)
	if raw := GetEnv("DEFAULT_FORMATS", ""); raw != "" {
		formats, err := splitList(raw)
		if err != nil {
			return fmt.Errorf("DEFAULT_FORMATS: %w", err)
		}
		cfg.Storage.DefaultFormats = formats
	}
	return nil
}

// Validate checks settings that would otherwise fail at the first request.
// A missing API key is deliberately not an error: model calls fail per page instead.
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case BackendStudio:
	case BackendVertex:
		if c.Model.ProjectID == "" || c.Model.Region == "" {
			return fmt.Errorf("PROJECT_ID and VERTEX_AI_REGION must be set for the vertex backend")
		}
	default:
		return fmt.Errorf("unknown GEMINI_BACKEND %q", c.Model.Backend)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("GEMINI_MODEL must not be empty")
	}
	if c.Pipeline.PageConcurrency < 1 {
		return fmt.Errorf("PAGE_CONCURRENCY must be at least 1, got %d", c.Pipeline.PageConcurrency)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// FirestoreEnabled reports whether extraction jobs are recorded in Firestore.
func (c *Config) FirestoreEnabled() bool {
	return c.Storage.FirestoreCollection != "" && c.Model.ProjectID != ""
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt reads an integer variable, keeping the fallback when unset or malformed.
func GetEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration reads a time.ParseDuration value, keeping the fallback when unset or malformed.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

// splitList accepts either a YAML/JSON flow sequence (["a","b"]) or a comma separated list.
func splitList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
