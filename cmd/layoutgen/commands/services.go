package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"html"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hupe1980/layoutgen"
	"github.com/hupe1980/layoutgen/artifact"
	artifacts3 "github.com/hupe1980/layoutgen/artifact/s3"
	"github.com/hupe1980/layoutgen/config"
	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/logging"
	"github.com/hupe1980/layoutgen/model"
	"github.com/hupe1980/layoutgen/model/anthropic"
	"github.com/hupe1980/layoutgen/model/openai"
	"github.com/hupe1980/layoutgen/preview"
	"github.com/hupe1980/layoutgen/prompt"
	"github.com/hupe1980/layoutgen/session"
	sessionredis "github.com/hupe1980/layoutgen/session/redis"
)

// loadConfig reads --config or falls back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// services bundles everything a command needs and how to release it.
type services struct {
	gen      *layoutgen.LayoutGen
	logger   logging.Logger
	closers  []func() error
	prompts  prompt.Types
	sessions core.SessionStore
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Failed to release resource", "error", err.Error())
		}
	}
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, false).WithComponent("cli")
	s := &services{logger: logger, prompts: mergePrompts(cfg.Prompts)}

	m, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	s.sessions = session.NewInMemoryStore()
	if cfg.Redis != nil {
		store := sessionredis.NewStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, func(o *sessionredis.Options) {
			o.Prefix = cfg.Redis.Prefix
			o.TTL = cfg.Redis.TTL
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, store.Close)
		s.sessions = store
	}

	var artifacts core.ArtifactStore = artifact.NewInMemoryStore()
	if cfg.S3 != nil {
		store, err := artifacts3.New(ctx, artifacts3.Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		artifacts = store
	}

	var renderer core.Renderer
	if cfg.Preview.Enabled {
		r, err := preview.NewRenderer(func(o *preview.Options) {
			o.Width = cfg.Preview.Width
			o.Height = cfg.Preview.Height
			o.Logger = logger
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, r.Close)
		renderer = r
	}

	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	s.gen, err = layoutgen.New(func(o *layoutgen.Options) {
		o.Parallelism = cfg.Parallelism
		o.MaxGenerations = cfg.MaxGenerations
		o.Model = m
		o.Instruction = cfg.Instruction
		o.RateLimiter = limiter
		o.Renderer = renderer
		o.SessionStore = s.sessions
		o.ArtifactStore = artifacts
		o.Logger = logger
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderMock:
		return mockModel(), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// mockModel answers every prompt with a minimal section, for offline runs.
func mockModel() model.Model {
	m := model.NewMockModel("mock")
	m.SetFallback(func(req model.Request) (string, error) {
		var text string
		if len(req.Contents) > 0 {
			text = req.Contents[len(req.Contents)-1].Text()
		}
		raw, err := json.Marshal(map[string]any{
			"id":       "section",
			"label":    text,
			"html":     "<section><h2>" + html.EscapeString(text) + "</h2></section>",
			"template": map[string]any{"elType": "container", "title": text},
		})
		return string(raw), err
	})
	return m
}

func mergePrompts(overrides prompt.Types) prompt.Types {
	types := prompt.DefaultTypes()
	for k, v := range overrides {
		types[k] = v
	}
	return types
}
