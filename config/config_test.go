package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
api:
  persistence_url: "https://store.example.com/api"
  timeout: 10s
  lookup_retries: 0
workflow:
  persist_timeout: 45s
storage:
  type: s3
  s3_bucket: exports
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://store.example.com/api", cfg.API.PersistenceURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 0, cfg.API.Retries())
	assert.Equal(t, 45*time.Second, cfg.Workflow.PersistTimeout)
	assert.Equal(t, "exports", cfg.Storage.Backend().S3Bucket)
	assert.Equal(t, "remote", cfg.Generator.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.API.Retries())
	assert.Equal(t, 30*time.Second, cfg.Workflow.PersistTimeout)
	assert.Equal(t, 1024, cfg.Workflow.ViewCapacity)
	assert.Equal(t, 720*time.Hour, cfg.Workflow.RunRetention)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: 1}}
	err := applyEnv(&cfg, envMap(map[string]string{
		"PORT":                "7070",
		"PERSISTENCE_API_URL": " https://p.example.com ",
		"LOOKUP_RETRIES":      "4",
		"ALLOWED_ORIGINS":     "https://a.example.com, https://b.example.com,",
		"DEBUG":               "true",
		"GENERATOR_BACKEND":   "gemini",
		"GEMINI_API_KEY":      "k",
		"AWS_S3_BUCKET":       "bucket",
		"RUN_RETENTION":       "-1s",
	}))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://p.example.com", cfg.API.PersistenceURL)
	assert.Equal(t, 4, cfg.API.Retries())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "bucket", cfg.Storage.S3Bucket)
	assert.Equal(t, -time.Second, cfg.Workflow.RunRetention)

	ApplyDefaults(&cfg)
	assert.Equal(t, -time.Second, cfg.Workflow.RunRetention)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvInvalid(t *testing.T) {
	for _, env := range []map[string]string{
		{"PORT": "eighty"},
		{"LOOKUP_RETRIES": "many"},
		{"DEBUG": "maybe"},
		{"RUN_RETENTION": "a month"},
	} {
		var cfg Config
		assert.Error(t, applyEnv(&cfg, envMap(env)))
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	ApplyDefaults(&cfg)

	cfg.Generator.Backend = "gemini"
	assert.Error(t, cfg.Validate())

	cfg.Generator.GeminiAPIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Generator.Backend = "other"
	assert.Error(t, cfg.Validate())

	n := -1
	cfg.Generator.Backend = "remote"
	cfg.API.LookupRetries = &n
	assert.Error(t, cfg.Validate())
}
