// Copyright 2026 fanjia1024
// Tests for model registry

package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-genie/internal/model/llm/llmtest"
	"mail-genie/pkg/config"
	"mail-genie/pkg/secrets"
)

func TestGet_NotRegistered(t *testing.T) {
	_, err := NewRegistry().Get("gemini.none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestForPrompt_FallsBackToDefault(t *testing.T) {
	r := NewRegistry()
	def := llmtest.New("default")
	alt := llmtest.New("alt")
	r.Register("gemini.flash", def)
	r.Register("ollama.llama", alt)
	r.SetDefault("gemini.flash")
	r.Bind("translate", "ollama.llama")

	c, err := r.ForPrompt("planner")
	require.NoError(t, err)
	assert.Same(t, def, c)

	c, err = r.ForPrompt("translate")
	require.NoError(t, err)
	assert.Same(t, alt, c)

	assert.Equal(t, []string{"gemini.flash", "ollama.llama"}, r.Keys())
}

func TestDefault_NotConfigured(t *testing.T) {
	_, err := NewRegistry().Default()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.defaults.llm")
}

func TestParseKey(t *testing.T) {
	p, m, err := ParseKey("gemini.flash_2")
	require.NoError(t, err)
	assert.Equal(t, "gemini", p)
	assert.Equal(t, "flash_2", m)

	for _, bad := range []string{"", "gemini", ".flash", "gemini."} {
		_, _, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func modelConfig() *config.Config {
	return &config.Config{
		Model: config.ModelConfig{
			Defaults: config.DefaultsConfig{LLM: "gemini.flash"},
			LLM: config.LLMConfig{Providers: map[string]config.ProviderConfig{
				"gemini": {
					APIKey: "secret:gemini_key",
					Models: map[string]config.ModelInfo{"flash": {Name: "gemini-2.0-flash"}},
				},
				"local": {
					Type:   "ollama",
					Models: map[string]config.ModelInfo{"llama": {Name: "llama3.1"}},
				},
				"claude": {
					Models: map[string]config.ModelInfo{"sonnet": {Name: "claude-sonnet-4-5"}},
				},
			}},
		},
	}
}

func TestBuildFromConfig(t *testing.T) {
	ctx := context.Background()
	store := secrets.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "gemini_key", "k-1"))

	cfg := modelConfig()
	cfg.Genie.PromptModels = map[string]string{"proofread": "local.llama"}

	r, err := BuildFromConfig(ctx, cfg, BuildOptions{Secrets: store})
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini.flash", "local.llama"}, r.Keys())

	c, err := r.ForPrompt("proofread")
	require.NoError(t, err)
	assert.Equal(t, "local", c.Provider())

	// claude 未配置 api_key，构建失败但不影响其他模型
	_, err = r.Get("claude.sonnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestBuildFromConfig_DefaultUnavailable(t *testing.T) {
	_, err := BuildFromConfig(context.Background(), modelConfig(), BuildOptions{Secrets: secrets.NewMemoryStore()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini_key")
}

func TestBuildFromConfig_BadBinding(t *testing.T) {
	ctx := context.Background()
	store := secrets.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "gemini_key", "k-1"))
	cfg := modelConfig()
	cfg.Genie.PromptModels = map[string]string{"tone": "nope.none"}

	_, err := BuildFromConfig(ctx, cfg, BuildOptions{Secrets: store})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt tone")
}
