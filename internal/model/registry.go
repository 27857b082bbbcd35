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

package model

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mail-genie/internal/model/llm"
	"mail-genie/pkg/config"
	"mail-genie/pkg/secrets"
)

// Registry 补全服务注册表，key 为 provider.model_key；支持按 prompt 名绑定不同模型
type Registry struct {
	mu         sync.RWMutex
	completers map[string]llm.Completer
	broken     map[string]error // 构建失败的 key，Get 时返回原因
	defaultKey string
	bindings   map[string]string // prompt -> key
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		completers: make(map[string]llm.Completer),
		broken:     make(map[string]error),
		bindings:   make(map[string]string),
	}
}

// Register 注册补全服务
func (r *Registry) Register(key string, c llm.Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completers[key] = c
	delete(r.broken, key)
}

// Get 按 key 获取补全服务
func (r *Registry) Get(key string) (llm.Completer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.completers[key]; ok {
		return c, nil
	}
	if err, ok := r.broken[key]; ok {
		return nil, fmt.Errorf("completion model %s unavailable: %w", key, err)
	}
	return nil, fmt.Errorf("completion model not registered: %s", key)
}

// SetDefault 设置默认 key
func (r *Registry) SetDefault(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultKey = key
}

// Bind 为某个 prompt 指定模型 key
func (r *Registry) Bind(prompt, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[prompt] = key
}

// Default 获取默认补全服务
func (r *Registry) Default() (llm.Completer, error) {
	r.mu.RLock()
	key := r.defaultKey
	r.mu.RUnlock()
	if key == "" {
		return nil, fmt.Errorf("no default completion model configured (model.defaults.llm)")
	}
	return r.Get(key)
}

// ForPrompt 获取 prompt 绑定的补全服务，未绑定时返回默认
func (r *Registry) ForPrompt(prompt string) (llm.Completer, error) {
	r.mu.RLock()
	key, ok := r.bindings[prompt]
	r.mu.RUnlock()
	if !ok {
		return r.Default()
	}
	return r.Get(key)
}

// Keys 返回已注册的 key（有序）
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.completers))
	for k := range r.completers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseKey 解析 provider.model_key
func ParseKey(key string) (provider, modelKey string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("model key 格式应为 provider.model_key，如 gemini.flash，当前: %q", key)
	}
	return parts[0], parts[1], nil
}

// BuildOptions BuildFromConfig 的可选依赖
type BuildOptions struct {
	Secrets     secrets.Store
	RateLimiter *llm.LLMRateLimiter
	Retry       llm.RetryPolicy
}

// BuildFromConfig 为 model.llm.providers 中每个模型创建补全服务并注册。
// 单个模型构建失败只记录在注册表中；默认模型或被 prompt 绑定的模型失败时返回错误。
func BuildFromConfig(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Registry, error) {
	r := NewRegistry()
	for provider, pc := range cfg.Model.LLM.Providers {
		apiKey, keyErr := secrets.Resolve(ctx, opts.Secrets, pc.APIKey)
		var timeout time.Duration
		if pc.Timeout != "" {
			d, err := time.ParseDuration(pc.Timeout)
			if err != nil {
				return nil, fmt.Errorf("provider %s: invalid timeout %q: %w", provider, pc.Timeout, err)
			}
			timeout = d
		}
		for modelKey, mi := range pc.Models {
			key := provider + "." + modelKey
			if keyErr != nil {
				r.broken[key] = keyErr
				continue
			}
			c, err := llm.NewCompleter(ctx, llm.Settings{
				Provider:    provider,
				Type:        pc.Type,
				Model:       mi.Name,
				APIKey:      apiKey,
				BaseURL:     pc.BaseURL,
				Timeout:     timeout,
				Temperature: mi.Temperature,
				MaxTokens:   mi.MaxTokens,
			})
			if err != nil {
				r.broken[key] = err
				continue
			}
			r.Register(key, llm.Wrap(c, opts.RateLimiter, opts.Retry))
		}
	}

	if d := cfg.Model.Defaults.LLM; d != "" {
		if _, _, err := ParseKey(d); err != nil {
			return nil, err
		}
		r.SetDefault(d)
		if _, err := r.Get(d); err != nil {
			return nil, err
		}
	}
	for prompt, key := range cfg.Genie.PromptModels {
		if _, err := r.Get(key); err != nil {
			return nil, fmt.Errorf("prompt %s: %w", prompt, err)
		}
		r.Bind(prompt, key)
	}
	return r, nil
}
