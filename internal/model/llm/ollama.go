package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaCompleter 本地 Ollama 模型，format 字段直接使用输出 schema
type OllamaCompleter struct {
	settings Settings
	client   *api.Client
}

// NewOllamaCompleter 创建 Ollama 后端
func NewOllamaCompleter(s Settings) (*OllamaCompleter, error) {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if s.Model == "" {
		s.Model = "llama3.1:latest"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	httpClient := &http.Client{Timeout: s.timeout()}
	return &OllamaCompleter{settings: s, client: api.NewClient(parsedURL, httpClient)}, nil
}

// Provider 返回提供商名称
func (c *OllamaCompleter) Provider() string { return providerName(c.settings, "ollama") }

// Complete 实现 Completer
func (c *OllamaCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	opts := c.settings.merge(req.Options)

	msgs := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		msgs = append(msgs, api.Message{Role: string(m.Role), Content: m.Content})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    opts.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
	}
	if m := SchemaMap(req.Schema); m != nil {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal output schema: %w", err)
		}
		chatReq.Format = json.RawMessage(b)
	}
	options := map[string]any{}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(options) > 0 {
		chatReq.Options = options
	}

	var content strings.Builder
	out := &Response{}
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			out.Usage = Usage{InputTokens: resp.PromptEvalCount, OutputTokens: resp.EvalCount}
		}
		return nil
	})
	if err != nil {
		return nil, requestFailed(c.Provider(), err)
	}
	out.Output = ExtractJSON(content.String())
	return out, nil
}
