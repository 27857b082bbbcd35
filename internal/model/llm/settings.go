package llm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

const defaultTimeout = 60 * time.Second

// Settings 单个后端的连接与默认生成参数
type Settings struct {
	Provider    string // provider 名（配置中的 key），用于限流与指标
	Type        string // 后端类型：gemini | openai | openai_compat | qwen | anthropic | claude | ollama | eino
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

func (s Settings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

// merge 请求级选项覆盖默认值，零值表示沿用默认
func (s Settings) merge(o Options) Options {
	out := Options{Model: s.Model, Temperature: s.Temperature, MaxTokens: s.MaxTokens}
	if o.Model != "" {
		out.Model = o.Model
	}
	if o.Temperature > 0 {
		out.Temperature = o.Temperature
	}
	if o.MaxTokens > 0 {
		out.MaxTokens = o.MaxTokens
	}
	return out
}

func providerName(s Settings, fallback string) string {
	if s.Provider != "" {
		return s.Provider
	}
	return fallback
}

// schemaInstruction 给不支持原生 schema 约束的后端追加的 system 提示
func schemaInstruction(s *jsonschema.Schema) (string, error) {
	m := SchemaMap(s)
	if m == nil {
		return "Respond only with a single JSON object.", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal output schema: %w", err)
	}
	return "Respond only with a single JSON object that conforms to this JSON Schema:\n" + string(b), nil
}
