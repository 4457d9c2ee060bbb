// Package config loads service configuration from an optional YAML file and
// the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lexportal/storage"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Generator GeneratorConfig `yaml:"generator"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// APIConfig holds the remote API endpoints
type APIConfig struct {
	PersistenceURL string        `yaml:"persistence_url"`
	AIURL          string        `yaml:"ai_url"`
	Timeout        time.Duration `yaml:"timeout"`
	AITimeout      time.Duration `yaml:"ai_timeout"`
	// LookupRetries is the number of extra attempts for transient lookup failures
	LookupRetries *int          `yaml:"lookup_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
}

// Retries returns the configured lookup retries
func (a APIConfig) Retries() int {
	if a.LookupRetries == nil {
		return 2
	}
	return *a.LookupRetries
}

// GeneratorConfig selects the analysis generation backend
type GeneratorConfig struct {
	Backend      string `yaml:"backend"` // "remote" or "gemini"
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
}

// WorkflowConfig holds view workflow settings
type WorkflowConfig struct {
	PersistTimeout time.Duration `yaml:"persist_timeout"`
	ViewCapacity   int           `yaml:"view_capacity"`
	// RunRetention is how long finished runs are kept in the ledger.
	// Negative disables pruning.
	RunRetention time.Duration `yaml:"run_retention"`
}

// DatabaseConfig holds the optional run ledger database
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds export storage settings
type StorageConfig struct {
	Type         string `yaml:"type"`
	LocalPath    string `yaml:"local_path"`
	S3Bucket     string `yaml:"s3_bucket"`
	S3Region     string `yaml:"s3_region"`
	S3Prefix     string `yaml:"s3_prefix"`
	AWSAccessKey string `yaml:"-"`
	AWSSecretKey string `yaml:"-"`
}

// Backend converts to the storage package configuration
func (s StorageConfig) Backend() storage.StorageConfig {
	return storage.StorageConfig{
		Type:         storage.StorageType(s.Type),
		LocalPath:    s.LocalPath,
		S3Bucket:     s.S3Bucket,
		S3Region:     s.S3Region,
		S3Prefix:     s.S3Prefix,
		AWSAccessKey: s.AWSAccessKey,
		AWSSecretKey: s.AWSSecretKey,
	}
}

// Load reads the config file at path when path is non-empty, applies
// environment overrides and then defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that cannot work
func (c *Config) Validate() error {
	switch c.Generator.Backend {
	case "remote", "gemini":
	default:
		return fmt.Errorf("unknown generator backend: %q", c.Generator.Backend)
	}
	if c.Generator.Backend == "gemini" && c.Generator.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for the gemini generator")
	}
	if c.API.Retries() < 0 {
		return fmt.Errorf("api.lookup_retries must not be negative")
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("PERSISTENCE_API_URL", &cfg.API.PersistenceURL)
	str("AI_API_URL", &cfg.API.AIURL)
	str("GENERATOR_BACKEND", &cfg.Generator.Backend)
	str("GEMINI_API_KEY", &cfg.Generator.GeminiAPIKey)
	str("GEMINI_MODEL", &cfg.Generator.GeminiModel)
	str("DATABASE_URL", &cfg.Database.URL)
	str("STORAGE_TYPE", &cfg.Storage.Type)
	str("STORAGE_LOCAL_PATH", &cfg.Storage.LocalPath)
	str("AWS_S3_BUCKET", &cfg.Storage.S3Bucket)
	str("AWS_REGION", &cfg.Storage.S3Region)
	str("AWS_ACCESS_KEY_ID", &cfg.Storage.AWSAccessKey)
	str("AWS_SECRET_ACCESS_KEY", &cfg.Storage.AWSSecretKey)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("LOOKUP_RETRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOOKUP_RETRIES %q: %w", v, err)
		}
		cfg.API.LookupRetries = &n
	}
	if v, ok := lookup("RUN_RETENTION"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RUN_RETENTION %q: %w", v, err)
		}
		cfg.Workflow.RunRetention = d
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		cfg.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, origin)
			}
		}
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	return nil
}
