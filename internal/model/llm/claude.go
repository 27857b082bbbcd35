package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/schema"
)

const claudeDefaultMaxTokens = 4096

// ClaudeCompleter 使用 anthropic-sdk-go，以强制工具调用获取结构化输出：
// 工具的 input_schema 即输出 schema，工具入参即结果
type ClaudeCompleter struct {
	settings Settings
	client   anthropic.Client
}

// NewClaudeCompleter 创建 Anthropic 后端
func NewClaudeCompleter(s Settings) (*ClaudeCompleter, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("anthropic api_key 未配置")
	}
	if s.Model == "" {
		s.Model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithRequestTimeout(s.timeout()),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &ClaudeCompleter{settings: s, client: anthropic.NewClient(opts...)}, nil
}

// Provider 返回提供商名称
func (c *ClaudeCompleter) Provider() string { return providerName(c.settings, "anthropic") }

// Complete 实现 Completer
func (c *ClaudeCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	opts := c.settings.merge(req.Options)
	system, rest := splitMessages(req.Messages)

	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		if m.Role == schema.Assistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	toolName := toolNameFor(req.Name)
	inputSchema := anthropic.ToolInputSchemaParam{}
	if m := SchemaMap(req.Schema); m != nil {
		inputSchema.Properties = m["properties"]
		inputSchema.Required = stringList(m["required"])
	}
	params.Tools = []anthropic.ToolUnionParam{anthropic.ToolUnionParamOfTool(inputSchema, toolName)}
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: toolName},
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, requestFailed(c.Provider(), err)
	}

	out := &Response{Usage: Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}}
	for _, block := range msg.Content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok && toolUse.Name == toolName {
			out.Output = toolUse.Input
			break
		}
	}
	return out, nil
}

func toolNameFor(prompt string) string {
	if prompt == "" {
		return "emit_output"
	}
	return "emit_" + prompt
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
