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

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Genie      GenieConfig      `mapstructure:"genie"`
	Model      ModelConfig      `mapstructure:"model"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Retry      RetryConfig      `mapstructure:"retry"`
}

// GenieConfig 邮件生成管线配置
type GenieConfig struct {
	Planner       string            `mapstructure:"planner"`         // llm | rule，空则 llm
	PromptsDir    string            `mapstructure:"prompts_dir"`     // 提示词覆盖目录（<name>.yaml），空则使用内置模板
	MinGoalLength int               `mapstructure:"min_goal_length"` // <=0 时默认 10
	PromptModels  map[string]string `mapstructure:"prompt_models"`   // prompt 名 -> provider.model_key，未配置的使用 model.defaults.llm
}

// RateLimitsConfig 限流配置（LLM + HTTP 入口）
type RateLimitsConfig struct {
	LLM map[string]LLMRateLimitConfig `mapstructure:"llm"`
}

// LLMRateLimitConfig 单个 LLM Provider 的限流配置
type LLMRateLimitConfig struct {
	TokensPerMinute   int     `mapstructure:"tokens_per_minute"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
}

// RetryConfig 结构化补全调用的重试策略；MaxAttempts<=1 表示不重试
type RetryConfig struct {
	MaxAttempts     int    `mapstructure:"max_attempts"`
	InitialInterval string `mapstructure:"initial_interval"` // 如 "500ms"
	MaxInterval     string `mapstructure:"max_interval"`     // 如 "5s"
}

// APIConfig API 服务配置
type APIConfig struct {
	Port       int              `mapstructure:"port"`
	Host       string           `mapstructure:"host"`
	Timeout    string           `mapstructure:"timeout"` // 单次 compose 请求的上限，空则不限制
	CORS       CORSConfig       `mapstructure:"cors"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	Auth          bool   `mapstructure:"auth"`
	RateLimit     bool   `mapstructure:"rate_limit"`
	RateLimitRPS  int    `mapstructure:"rate_limit_rps"`
	JWTKey        string `mapstructure:"jwt_key"`
	JWTTimeout    string `mapstructure:"jwt_timeout"`     // 如 "1h"
	JWTMaxRefresh string `mapstructure:"jwt_max_refresh"` // 如 "1h"
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	Type    string               `mapstructure:"type"` // 后端类型；空则与 provider 名相同
	APIKey  string               `mapstructure:"api_key"`
	BaseURL string               `mapstructure:"base_url"`
	Timeout string               `mapstructure:"timeout"`
	Models  map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultsConfig 默认模型配置
type DefaultsConfig struct {
	LLM string `mapstructure:"llm"` // provider.model_key，如 gemini.flash
}

// SecretsConfig secret 存储配置；api_key 形如 "secret:<key>" 时从该存储解析
type SecretsConfig struct {
	Provider string      `mapstructure:"provider"` // env | memory | file | vault
	Vault    VaultConfig `mapstructure:"vault"`
	Dir      string      `mapstructure:"dir"` // provider 为 file 时的挂载目录，默认 /run/secrets
}

// VaultConfig Vault 连接配置
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configPath, err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// replaceEnvVars 替换 api_key 中的 ${VAR} 引用
func replaceEnvVars(config *Config) {
	for provider, providerConfig := range config.Model.LLM.Providers {
		if strings.HasPrefix(providerConfig.APIKey, "$") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(providerConfig.APIKey, "}"), "${")
			envVar = strings.TrimPrefix(envVar, "$")
			if val := os.Getenv(envVar); val != "" {
				providerConfig.APIKey = val
				config.Model.LLM.Providers[provider] = providerConfig
			}
		}
	}
}

// LoadWithModel 加载 path 并合并同目录下的 model.yaml；model.yaml 缺失时仅记录日志
func LoadWithModel(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	modelPath := filepath.Join(filepath.Dir(path), "model.yaml")
	if abs, errAbs := filepath.Abs(path); errAbs == nil {
		modelPath = filepath.Join(filepath.Dir(abs), "model.yaml")
	}
	modelCfg, err := LoadConfig(modelPath)
	if err == nil {
		cfg.Model = modelCfg.Model
	} else {
		log.Printf("[config] model config %q not loaded, completion providers unavailable: %v", modelPath, err)
	}
	return cfg, nil
}

// MinGoalLength 返回目标文本的最小长度
func (c *Config) MinGoalLength() int {
	if c == nil || c.Genie.MinGoalLength <= 0 {
		return 10
	}
	return c.Genie.MinGoalLength
}
