// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"fmt"
	"time"

	"mail-genie/internal/agent"
	"mail-genie/internal/agent/executor"
	"mail-genie/internal/agent/planner"
	"mail-genie/internal/agent/prompts"
	"mail-genie/internal/agent/tools"
	"mail-genie/internal/model"
	"mail-genie/internal/model/llm"
	"mail-genie/pkg/config"
	"mail-genie/pkg/log"
	"mail-genie/pkg/secrets"
)

// Bootstrap 统一初始化：供 api 与 cli 复用，避免在 cmd 内装配管线
type Bootstrap struct {
	Config  *config.Config
	Logger  *log.Logger
	Secrets secrets.Store
	Models  *model.Registry
	Prompts *prompts.Set
	Planner planner.Planner
	Tools   *tools.Toolset
	Agent   *agent.Agent
	Compose *ComposeService
}

type bootstrapOptions struct {
	completer llm.Completer
	logger    *log.Logger
}

// Option Bootstrap 可选项
type Option func(*bootstrapOptions)

// WithCompleter 所有 prompt 使用给定的补全服务，不再按 model 配置构建
func WithCompleter(c llm.Completer) Option {
	return func(o *bootstrapOptions) {
		o.completer = c
	}
}

// WithLogger 使用给定 Logger 代替按 log 配置创建
func WithLogger(l *log.Logger) Option {
	return func(o *bootstrapOptions) {
		o.logger = l
	}
}

// NewBootstrap 根据配置创建 Bootstrap（Logger/Secrets/Models/Prompts/Agent）
func NewBootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*Bootstrap, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	var o bootstrapOptions
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		l, err := log.NewLogger(&log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		logger = l
	}

	store, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Vault: secrets.VaultConfig{
			Address:    cfg.Secrets.Vault.Address,
			Token:      cfg.Secrets.Vault.Token,
			PathPrefix: cfg.Secrets.Vault.PathPrefix,
		},
		File: secrets.FileConfig{Dir: cfg.Secrets.Dir},
	})
	if err != nil {
		return nil, fmt.Errorf("init secret store: %w", err)
	}

	models, err := buildModels(ctx, cfg, store, o.completer)
	if err != nil {
		return nil, fmt.Errorf("init models: %w", err)
	}

	set, err := prompts.Load(cfg.Genie.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	p, err := newPlanner(cfg.Genie.Planner, models, set)
	if err != nil {
		return nil, err
	}
	ts, err := tools.NewToolset(models.ForPrompt, set)
	if err != nil {
		return nil, fmt.Errorf("init tools: %w", err)
	}
	runner := agent.New(p, executor.New(ts, logger), agent.WithLogger(logger))

	timeout, err := parseDuration(cfg.API.Timeout)
	if err != nil {
		return nil, fmt.Errorf("api.timeout: %w", err)
	}
	compose := NewComposeService(runner, ComposeOptions{
		MinGoalLength: cfg.MinGoalLength(),
		Timeout:       timeout,
		Logger:        logger,
	})

	logger.Info("mail genie ready", "planner", plannerName(cfg.Genie.Planner), "models", models.Keys())
	return &Bootstrap{
		Config:  cfg,
		Logger:  logger,
		Secrets: store,
		Models:  models,
		Prompts: set,
		Planner: p,
		Tools:   ts,
		Agent:   runner,
		Compose: compose,
	}, nil
}

// Close 释放日志文件等资源
func (b *Bootstrap) Close() error {
	if b == nil {
		return nil
	}
	return b.Logger.Close()
}

func buildModels(ctx context.Context, cfg *config.Config, store secrets.Store, override llm.Completer) (*model.Registry, error) {
	if override != nil {
		r := model.NewRegistry()
		r.Register("override.default", override)
		r.SetDefault("override.default")
		return r, nil
	}
	retry, err := retryPolicy(cfg.Retry)
	if err != nil {
		return nil, err
	}
	return model.BuildFromConfig(ctx, cfg, model.BuildOptions{
		Secrets:     store,
		RateLimiter: rateLimiter(cfg.RateLimits),
		Retry:       retry,
	})
}

func newPlanner(kind string, models *model.Registry, set *prompts.Set) (planner.Planner, error) {
	switch plannerName(kind) {
	case "rule":
		return planner.NewRulePlanner(), nil
	case "llm":
		c, err := models.ForPrompt(prompts.Planner)
		if err != nil {
			return nil, fmt.Errorf("init planner: %w", err)
		}
		return planner.NewLLMPlanner(c, set)
	default:
		return nil, fmt.Errorf("unsupported planner %q (want llm or rule)", kind)
	}
}

func plannerName(kind string) string {
	if kind == "" {
		return "llm"
	}
	return kind
}

func rateLimiter(cfg config.RateLimitsConfig) *llm.LLMRateLimiter {
	limits := make(map[string]llm.LLMLimitConfig, len(cfg.LLM))
	for provider, c := range cfg.LLM {
		limits[provider] = llm.LLMLimitConfig{
			TokensPerMinute:   c.TokensPerMinute,
			RequestsPerMinute: c.RequestsPerMinute,
			MaxConcurrent:     c.MaxConcurrent,
		}
	}
	return llm.NewLLMRateLimiter(limits, nil)
}

func retryPolicy(cfg config.RetryConfig) (llm.RetryPolicy, error) {
	initial, err := parseDuration(cfg.InitialInterval)
	if err != nil {
		return llm.RetryPolicy{}, fmt.Errorf("retry.initial_interval: %w", err)
	}
	maxInterval, err := parseDuration(cfg.MaxInterval)
	if err != nil {
		return llm.RetryPolicy{}, fmt.Errorf("retry.max_interval: %w", err)
	}
	return llm.RetryPolicy{MaxAttempts: cfg.MaxAttempts, InitialInterval: initial, MaxInterval: maxInterval}, nil
}

// parseDuration 空字符串返回 0
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
