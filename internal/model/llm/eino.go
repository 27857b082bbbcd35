package llm

import (
	"context"
	"fmt"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoCompleter 基于 eino ChatModel 的后端；schema 以 system 提示给出，从回复文本中提取 JSON
type EinoCompleter struct {
	settings Settings
	model    model.BaseChatModel
}

// NewEinoCompleter 使用 eino-ext OpenAI ChatModel 创建后端
func NewEinoCompleter(ctx context.Context, s Settings) (*EinoCompleter, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("eino provider api_key 未配置")
	}
	if s.Model == "" {
		s.Model = "gpt-4o-mini"
	}
	chatModel, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		Model:   s.Model,
		APIKey:  s.APIKey,
		BaseURL: s.BaseURL,
		Timeout: s.timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("创建 OpenAI ChatModel failed: %w", err)
	}
	return NewEinoCompleterWithModel(s, chatModel), nil
}

// NewEinoCompleterWithModel 包装任意 eino ChatModel
func NewEinoCompleterWithModel(s Settings, m model.BaseChatModel) *EinoCompleter {
	return &EinoCompleter{settings: s, model: m}
}

// Provider 返回提供商名称
func (c *EinoCompleter) Provider() string { return providerName(c.settings, "eino") }

// Complete 实现 Completer
func (c *EinoCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	opts := c.settings.merge(req.Options)
	hint, err := schemaInstruction(req.Schema)
	if err != nil {
		return nil, err
	}
	msgs := make([]*schema.Message, 0, len(req.Messages)+1)
	msgs = append(msgs, schema.SystemMessage(hint))
	for _, m := range req.Messages {
		if m != nil {
			msgs = append(msgs, m)
		}
	}

	var callOpts []model.Option
	if opts.Model != "" {
		callOpts = append(callOpts, model.WithModel(opts.Model))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, model.WithTemperature(float32(opts.Temperature)))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxTokens))
	}

	reply, err := c.model.Generate(ctx, msgs, callOpts...)
	if err != nil {
		return nil, requestFailed(c.Provider(), err)
	}
	out := &Response{}
	if reply == nil {
		return out, nil
	}
	if reply.ResponseMeta != nil && reply.ResponseMeta.Usage != nil {
		out.Usage = Usage{
			InputTokens:  reply.ResponseMeta.Usage.PromptTokens,
			OutputTokens: reply.ResponseMeta.Usage.CompletionTokens,
		}
	}
	out.Output = ExtractJSON(reply.Content)
	return out, nil
}
