package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.API.PersistenceURL == "" {
		cfg.API.PersistenceURL = "http://localhost:5000/api"
	}
	if cfg.API.AIURL == "" {
		cfg.API.AIURL = "http://localhost:8000"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.AITimeout == 0 {
		cfg.API.AITimeout = 5 * time.Minute
	}
	if cfg.API.RetryBackoff == 0 {
		cfg.API.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Generator.Backend == "" {
		cfg.Generator.Backend = "remote"
	}
	if cfg.Generator.GeminiModel == "" {
		cfg.Generator.GeminiModel = "gemini-1.5-pro"
	}
	if cfg.Workflow.PersistTimeout == 0 {
		cfg.Workflow.PersistTimeout = 30 * time.Second
	}
	if cfg.Workflow.ViewCapacity == 0 {
		cfg.Workflow.ViewCapacity = 1024
	}
	if cfg.Workflow.RunRetention == 0 {
		cfg.Workflow.RunRetention = 30 * 24 * time.Hour
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./storage/exports"
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = "us-east-1"
	}
}
