package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "layoutgen.yml")

	validConfig := `parallelism: 4
provider: anthropic
model: claude-3-5-sonnet-20241022
temperature: 0.2
max_generations: 5
rate_limit:
  rps: 2
redis:
  addr: localhost:6379
  ttl: 30m
s3:
  bucket: previews
  endpoint: http://localhost:9000
  path_style: true
preview:
  enabled: true
log:
  level: debug
  format: json
prompts:
  json:
    placeholder: "Describe the changes"
    suggestions:
      - text: "Dark mode version of"
`
	require.NoError(t, os.WriteFile(configPath, []byte(validConfig), 0o644))

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 4, config.Parallelism)
	assert.Equal(t, ProviderAnthropic, config.Provider)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.2, *config.Temperature, 1e-9)
	assert.Equal(t, 5, config.MaxGenerations)
	assert.Equal(t, 4, config.RateLimit.Burst)
	require.NotNil(t, config.Redis)
	assert.Equal(t, 30*time.Minute, config.Redis.TTL)
	assert.Equal(t, "layoutgen", config.Redis.Prefix)
	require.NotNil(t, config.S3)
	assert.True(t, config.S3.PathStyle)
	assert.True(t, config.Preview.Enabled)
	assert.Equal(t, 1200, config.Preview.Width)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "Describe the changes", config.Prompts["json"].Placeholder)
	require.Len(t, config.Prompts["json"].Suggestions, 1)
	assert.Equal(t, "Dark mode version of", config.Prompts["json"].Suggestions[0].Text)
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 3, c.Parallelism)
	assert.Equal(t, ProviderOpenAI, c.Provider)
	assert.Equal(t, "info", c.Log.Level)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.S3)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/layoutgen.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("parallelism: [unclosed"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative parallelism", "parallelism: -1", "parallelism must be >= 1"},
		{"unknown provider", "provider: cohere", "invalid provider"},
		{"temperature", "temperature: 3", "temperature must be between 0 and 2"},
		{"max generations", "max_generations: -2", "max_generations must be >= 0"},
		{"rate limit", "rate_limit:\n  rps: -1", "rate_limit.rps must be >= 0"},
		{"redis without addr", "redis:\n  prefix: x", "redis.addr is required"},
		{"s3 without bucket", "s3:\n  region: eu-central-1", "s3.bucket is required"},
		{"log level", "log:\n  level: trace", "invalid log.level"},
		{"log format", "log:\n  format: xml", "invalid log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
