package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Loader assembles configuration from the YAML file, an optional .env file
// and the process environment, in increasing order of precedence. Tests can
// override Lookup to inject deterministic maps.
type Loader struct {
	ConfigPath string
	DotEnvPath string
	Lookup     func(string) (string, bool)
}

// Load reads every source and validates the result.
func (l Loader) Load() (*Config, error) {
	path := l.ConfigPath
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	lookup, err := l.lookup()
	if err != nil {
		return nil, err
	}

	overrideString(lookup, "TRANSCRIBER_PROVIDER", &cfg.Provider)
	overrideString(lookup, "TRANSCRIBER_MODEL", &cfg.Model)
	overrideString(lookup, "TRANSCRIBER_LANGUAGE", &cfg.Language)
	overrideString(lookup, "TRANSCRIBER_ADDR", &cfg.Server.Addr)
	overrideString(lookup, "TRANSCRIBER_LOG_LEVEL", &cfg.Server.LogLevel)
	overrideString(lookup, "TRANSCRIBER_FFMPEG_PATH", &cfg.Paths.FFmpeg)
	overrideString(lookup, "TRANSCRIBER_FFPROBE_PATH", &cfg.Paths.FFprobe)
	overrideString(lookup, "TRANSCRIBER_WHISPER_BIN", &cfg.Whisper.Binary)
	overrideString(lookup, "TRANSCRIBER_WHISPER_MODEL", &cfg.Whisper.ModelPath)
	overrideString(lookup, "TRANSCRIBER_HF_ENDPOINT", &cfg.HuggingFace.Endpoint)
	if err := overrideInt(lookup, "TRANSCRIBER_MAX_CONCURRENT", &cfg.Server.MaxConcurrent); err != nil {
		return nil, err
	}

	overrideString(lookup, "OPENAI_API_KEY", &cfg.Keys.OpenAI)
	overrideString(lookup, "GEMINI_API_KEY", &cfg.Keys.Gemini)
	overrideString(lookup, "HF_TOKEN", &cfg.Keys.HuggingFace)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// environment first, then values from the .env file
func (l Loader) lookup() (func(string) (string, bool), error) {
	env := l.Lookup
	if env == nil {
		env = os.LookupEnv
	}

	dotenvPath := l.DotEnvPath
	if dotenvPath == "" {
		dotenvPath = ".env"
	}

	values, err := godotenv.Read(dotenvPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", dotenvPath, err)
		}
		values = nil
	}

	return func(key string) (string, bool) {
		if v, ok := env(key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	*target = n
	return nil
}
