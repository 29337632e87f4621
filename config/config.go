// Package config loads application settings from defaults, an optional
// config.yaml, a .env file, and environment variables. Environment
// variables always win.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sheetpilot/internal/answer"
	"sheetpilot/internal/registry"
	"sheetpilot/internal/sheet"
)

// DefaultConfigFile is read from the working directory unless CONFIG_FILE
// points somewhere else.
const DefaultConfigFile = "config.yaml"

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Uploads UploadsConfig `yaml:"uploads"`
	Answer  AnswerConfig  `yaml:"answer"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
	// MasterKey, when non-empty, gates the /api routes behind a shared
	// secret. Empty means the API is open, which is the default.
	MasterKey string `yaml:"master_key"`
}

// GeminiConfig holds Gemini-specific configuration. APIKey may be empty at
// startup; it is only required once an answer request reaches the provider.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// UploadsConfig controls where uploaded workbooks are kept.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// AnswerConfig bounds how much filtered data reaches the model.
type AnswerConfig struct {
	MaxRows         int `yaml:"max_rows"`
	MaxOutputTokens int `yaml:"max_output_tokens"`
}

// CacheConfig selects the filter-result cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"`
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL returns the configured cache lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MetricsConfig gates the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from the optional config file and environment.
func Load() (*Config, error) {
	// A missing .env is fine; variables already exported take precedence
	// over the file either way.
	_ = godotenv.Load()

	cfg := buildDefaultConfig()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
		},
		Uploads: UploadsConfig{
			Dir: registry.DefaultDir,
		},
		Answer: AnswerConfig{
			MaxRows:         sheet.DefaultMaxRows,
			MaxOutputTokens: answer.DefaultMaxOutputTokens,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLSeconds: 86400,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	// Placeholders are expanded over the whole document so values like
	// "${PORT:-3000}" work anywhere in the file.
	if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString substitutes ${VAR} and ${VAR:-default} placeholders from the
// environment. A ${VAR} with no default and no non-empty value is left as-is
// so the gap stays visible in the loaded config.
func expandString(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name, hasDefault, fallback := groups[1], groups[2] != "", groups[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return fallback
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	overrideString("PORT", &cfg.Server.Port)
	overrideString("SHEETPILOT_MASTER_KEY", &cfg.Server.MasterKey)
	overrideString("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	overrideString("GEMINI_MODEL", &cfg.Gemini.Model)
	overrideString("GEMINI_BASE_URL", &cfg.Gemini.BaseURL)
	overrideString("UPLOAD_DIR", &cfg.Uploads.Dir)
	overrideString("CACHE_BACKEND", &cfg.Cache.Backend)
	overrideString("REDIS_URL", &cfg.Cache.RedisURL)
	overrideString("LOG_LEVEL", &cfg.Logging.Level)

	if err := overrideInt("MAX_ROWS", &cfg.Answer.MaxRows); err != nil {
		return err
	}
	if err := overrideInt("MAX_OUTPUT_TOKENS", &cfg.Answer.MaxOutputTokens); err != nil {
		return err
	}
	if err := overrideInt("CACHE_TTL", &cfg.Cache.TTLSeconds); err != nil {
		return err
	}
	if err := overrideBool("METRICS_ENABLED", &cfg.Metrics.Enabled); err != nil {
		return err
	}
	return nil
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func overrideBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	*dst = b
	return nil
}
