package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider      = "openai"
	DefaultAddr          = "127.0.0.1:8501"
	DefaultMaxUploadMB   = 200
	DefaultMaxConcurrent = 2
	DefaultCacheSize     = 64
	DefaultCacheTTL      = "24h"
	DefaultLogLevel      = "info"
)

// Config represents the application configuration
type Config struct {
	Provider    string            `yaml:"provider"`
	Model       string            `yaml:"model"`
	Language    string            `yaml:"language"`
	Formats     []string          `yaml:"formats"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Server      ServerConfig      `yaml:"server"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface"`
	Paths       PathsConfig       `yaml:"paths"`

	// API keys are read from the environment only and never saved
	Keys Keys `yaml:"-"`
}

// ChunkingConfig controls splitting long audio before upload
type ChunkingConfig struct {
	Minutes     int `yaml:"minutes"` // 0 disables chunking
	Concurrency int `yaml:"concurrency"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	CacheSize     int    `yaml:"cache_size"`
	CacheTTL      string `yaml:"cache_ttl"`
	LogLevel      string `yaml:"log_level"`
}

// WhisperConfig locates a local whisper.cpp install
type WhisperConfig struct {
	Binary    string `yaml:"binary"`
	ModelPath string `yaml:"model_path"`
}

// HuggingFaceConfig points at a hosted inference endpoint
type HuggingFaceConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// PathsConfig holds custom binary overrides
type PathsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// Keys holds provider credentials
type Keys struct {
	OpenAI      string
	Gemini      string
	HuggingFace string
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Provider: DefaultProvider,
		Formats:  []string{"txt", "srt"},
		Chunking: ChunkingConfig{
			Minutes:     0,
			Concurrency: 3,
		},
		Server: ServerConfig{
			Addr:          DefaultAddr,
			MaxUploadMB:   DefaultMaxUploadMB,
			MaxConcurrent: DefaultMaxConcurrent,
			CacheSize:     DefaultCacheSize,
			CacheTTL:      DefaultCacheTTL,
			LogLevel:      DefaultLogLevel,
		},
	}
}

// AppDir returns the application directory (~/.transcriber)
func AppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".transcriber"
	}
	return filepath.Join(home, ".transcriber")
}

// ConfigPath returns the default config file path
func ConfigPath() string {
	return filepath.Join(AppDir(), "config.yaml")
}

// Load reads config from file, returns default if not exists
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes config to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate applies defaults and rejects out-of-range values
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"txt", "srt"}
	}
	if c.Chunking.Minutes < 0 {
		return fmt.Errorf("config: chunking.minutes must be >= 0, got %d", c.Chunking.Minutes)
	}
	if c.Chunking.Concurrency < 1 {
		return fmt.Errorf("config: chunking.concurrency must be >= 1, got %d", c.Chunking.Concurrency)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("config: server.max_upload_mb must be >= 1, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.MaxConcurrent < 1 {
		return fmt.Errorf("config: server.max_concurrent must be >= 1, got %d", c.Server.MaxConcurrent)
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("config: server.cache_size must be >= 0, got %d", c.Server.CacheSize)
	}
	if _, err := c.CacheTTL(); err != nil {
		return fmt.Errorf("config: server.cache_ttl: %w", err)
	}
	return nil
}

// CacheTTL returns the server cache TTL as a duration
func (c *Config) CacheTTL() (time.Duration, error) {
	return ParseDuration(c.Server.CacheTTL)
}

// APIKey returns the credential for a provider, empty if none is needed
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.Keys.OpenAI
	case "gemini":
		return c.Keys.Gemini
	case "huggingface":
		return c.Keys.HuggingFace
	default:
		return ""
	}
}

var durationPattern = regexp.MustCompile(`^(\d+)(m|h|d)$`)

// ParseDuration parses duration strings like "30m", "24h", "7d"
func ParseDuration(s string) (time.Duration, error) {
	matches := durationPattern.FindStringSubmatch(s)
	if len(matches) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s (use format like 30m, 24h, 7d)", s)
	}

	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	switch unit {
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}
