package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAICompleter 使用官方 openai-go SDK，response_format 为 json_schema
type OpenAICompleter struct {
	settings Settings
	client   openai.Client
}

// NewOpenAICompleter 创建 OpenAI 后端
func NewOpenAICompleter(s Settings) (*OpenAICompleter, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("openai api_key 未配置")
	}
	if s.Model == "" {
		s.Model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithRequestTimeout(s.timeout()),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &OpenAICompleter{settings: s, client: openai.NewClient(opts...)}, nil
}

// Provider 返回提供商名称
func (c *OpenAICompleter) Provider() string { return providerName(c.settings, "openai") }

// Complete 实现 Completer
func (c *OpenAICompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	opts := c.settings.merge(req.Options)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case schema.Assistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: msgs,
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Name,
					Schema: SchemaMap(req.Schema),
					Strict: openai.Bool(false),
				},
			},
		}
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, requestFailed(c.Provider(), err)
	}

	out := &Response{Usage: Usage{
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}}
	if len(completion.Choices) == 0 {
		return out, nil
	}
	msg := completion.Choices[0].Message
	if msg.Refusal != "" {
		return out, nil
	}
	out.Output = ExtractJSON(msg.Content)
	return out, nil
}
