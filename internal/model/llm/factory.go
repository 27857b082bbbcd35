package llm

import (
	"context"
	"fmt"
)

// NewCompleter 按 Settings.Type 创建补全后端；Type 为空时按 Provider 名推断
func NewCompleter(ctx context.Context, s Settings) (Completer, error) {
	t := s.Type
	if t == "" {
		t = s.Provider
	}
	switch t {
	case "gemini", "google":
		return NewGeminiCompleter(s)
	case "openai":
		return NewOpenAICompleter(s)
	case "openai_compat", "qwen":
		return NewOpenAICompatCompleter(s)
	case "anthropic", "claude":
		return NewClaudeCompleter(s)
	case "ollama":
		return NewOllamaCompleter(s)
	case "eino":
		return NewEinoCompleter(ctx, s)
	default:
		return nil, fmt.Errorf("unsupported completion backend %q (provider %q)", t, s.Provider)
	}
}

// Wrap 按固定顺序套上装饰器：指标/追踪 → 重试 → 限流 → 后端。
// 限流在重试之内，每次尝试都重新申请许可。
func Wrap(c Completer, limiter *LLMRateLimiter, policy RetryPolicy) Completer {
	var out Completer = c
	if limiter != nil {
		out = NewRateLimitedCompleter(out, limiter)
	}
	if policy.MaxAttempts > 1 {
		out = NewRetryingCompleter(out, policy)
	}
	return NewInstrumentedCompleter(out)
}
