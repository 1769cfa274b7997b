package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Port:             "8081",
		SQLiteDBPath:     filepath.Join(t.TempDir(), "drinklog.db"),
		LogLevel:         "info",
		LogFormat:        "json",
		SummaryCacheSize: 64,
		SummaryCacheTTL:  30 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid config with s3",
			mutate: func(c *Config) { c.S3Bucket = "photos"; c.S3Region = "ap-northeast-2"; c.S3Domain = "https://img.example.com" },
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty db path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "s3 bucket without domain",
			mutate:      func(c *Config) { c.S3Bucket = "photos"; c.S3Domain = "" },
			wantErr:     true,
			errorString: "S3 domain cannot be empty",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
		{
			name:        "cache size too small",
			mutate:      func(c *Config) { c.SummaryCacheSize = 0 },
			wantErr:     true,
			errorString: "invalid summary cache size 0",
		},
		{
			name:        "cache TTL too small",
			mutate:      func(c *Config) { c.SummaryCacheTTL = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid summary cache TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error %q does not contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Errorf("default port = %s, want 8081", cfg.Port)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("default log format = %s, want json", cfg.LogFormat)
	}
	if cfg.SummaryCacheTTL != 30*time.Second {
		t.Errorf("default cache TTL = %v, want 30s", cfg.SummaryCacheTTL)
	}
}
