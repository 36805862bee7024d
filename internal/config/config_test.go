package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != "openai" {
		t.Errorf("Default provider = %s, want openai", cfg.Provider)
	}
	if len(cfg.Formats) != 2 || cfg.Formats[0] != "txt" || cfg.Formats[1] != "srt" {
		t.Errorf("Default formats = %v, want [txt srt]", cfg.Formats)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		wantSecs int64
		wantErr  bool
	}{
		{"30m", 1800, false},
		{"24h", 86400, false},
		{"7d", 604800, false},
		{"1h", 3600, false},
		{"invalid", 0, true},
		{"10s", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dur, err := ParseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDuration(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if err == nil && int64(dur.Seconds()) != tt.wantSecs {
				t.Errorf("ParseDuration(%s) = %v, want %d seconds", tt.input, dur, tt.wantSecs)
			}
		})
	}
}

func TestConfig_Save_Load(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Provider = "whispercpp"
	cfg.Whisper.ModelPath = "/models/ggml-base.bin"
	cfg.Keys.OpenAI = "sk-secret"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if strings.Contains(string(data), "sk-secret") {
		t.Error("API keys must not be written to the config file")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Provider != "whispercpp" {
		t.Errorf("Loaded provider = %s, want whispercpp", loaded.Provider)
	}
	if loaded.Whisper.ModelPath != "/models/ggml-base.bin" {
		t.Errorf("Loaded model path = %s", loaded.Whisper.ModelPath)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %s, want %s", cfg.Server.Addr, DefaultAddr)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative chunk minutes", func(c *Config) { c.Chunking.Minutes = -1 }},
		{"zero chunk concurrency", func(c *Config) { c.Chunking.Concurrency = 0 }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"zero max concurrent", func(c *Config) { c.Server.MaxConcurrent = 0 }},
		{"negative cache size", func(c *Config) { c.Server.CacheSize = -1 }},
		{"bad cache ttl", func(c *Config) { c.Server.CacheTTL = "forever" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAppDir(t *testing.T) {
	dir := AppDir()
	if dir == "" {
		t.Error("AppDir() returned empty string")
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".transcriber")
	if dir != expected {
		t.Errorf("AppDir() = %s, want %s", dir, expected)
	}
}
