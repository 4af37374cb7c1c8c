// Package config loads the layoutgen.yml file used by the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/layoutgen/prompt"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Config represents the top-level layoutgen.yml configuration
type Config struct {
	Parallelism    int          `yaml:"parallelism"`     // Concurrent slot requests per batch (default 3)
	Provider       string       `yaml:"provider"`        // openai, anthropic or mock
	Model          string       `yaml:"model,omitempty"` // Provider model id, empty selects the adapter default
	Temperature    *float64     `yaml:"temperature,omitempty"`
	MaxTokens      int64        `yaml:"max_tokens,omitempty"`
	MaxGenerations int          `yaml:"max_generations"` // Batches per panel (0 = unlimited)
	Instruction    string       `yaml:"instruction,omitempty"`
	RateLimit      RateLimit    `yaml:"rate_limit"`
	Redis          *Redis       `yaml:"redis,omitempty"`
	S3             *S3          `yaml:"s3,omitempty"`
	Preview        Preview      `yaml:"preview"`
	Log            Log          `yaml:"log"`
	Prompts        prompt.Types `yaml:"prompts,omitempty"` // Per attachment type overrides
}

// RateLimit paces model calls. RPS 0 disables pacing.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Redis enables the Redis session store.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	Prefix   string        `yaml:"prefix,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// S3 enables the S3 preview store.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// Preview controls screenshot rendering.
type Preview struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

// Log controls the logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used without a config file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Parallelism == 0 {
		c.Parallelism = 3
	}
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = c.Parallelism
	}
	if c.Redis != nil {
		if c.Redis.Prefix == "" {
			c.Redis.Prefix = "layoutgen"
		}
		if c.Redis.TTL == 0 {
			c.Redis.TTL = 24 * time.Hour
		}
	}
	if c.Preview.Width == 0 {
		c.Preview.Width = 1200
	}
	if c.Preview.Height == 0 {
		c.Preview.Height = 800
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be >= 1, got %d", c.Parallelism)
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("invalid provider: %s (must be 'openai', 'anthropic' or 'mock')", c.Provider)
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", *c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens)
	}
	if c.MaxGenerations < 0 {
		return fmt.Errorf("max_generations must be >= 0 (0 = unlimited), got %d", c.MaxGenerations)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must be >= 0, got %g", c.RateLimit.RPS)
	}
	if c.Redis != nil && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is configured")
	}
	if c.S3 != nil && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3 is configured")
	}
	if c.Preview.Width < 1 || c.Preview.Height < 1 {
		return fmt.Errorf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %s (must be 'debug', 'info', 'warn' or 'error')", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format: %s (must be 'text' or 'json')", c.Log.Format)
	}

	return nil
}

// Parse decodes, defaults and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Load reads and validates layoutgen.yml from the specified path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}
