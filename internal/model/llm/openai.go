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

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
)

// OpenAICompatCompleter 任意 OpenAI 兼容 /chat/completions 端点（如 Qwen/DashScope、vLLM），
// 使用 response_format=json_object，schema 以 system 提示形式给出
type OpenAICompatCompleter struct {
	settings Settings
	baseURL  string
	client   *resty.Client
}

// NewOpenAICompatCompleter 创建 OpenAI 兼容后端；BaseURL 为空时用 OPENAI_BASE_URL 或官方地址
func NewOpenAICompatCompleter(s Settings) (*OpenAICompatCompleter, error) {
	if s.Model == "" {
		s.Model = "gpt-4o-mini"
	}
	baseURL := strings.TrimRight(s.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			baseURL = strings.TrimRight(envURL, "/")
		}
	}

	client := resty.New()
	client.SetTimeout(s.timeout())

	return &OpenAICompatCompleter{settings: s, baseURL: baseURL, client: client}, nil
}

// Provider 返回提供商名称
func (c *OpenAICompatCompleter) Provider() string { return providerName(c.settings, "openai_compat") }

// Complete 实现 Completer
func (c *OpenAICompatCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	opts := c.settings.merge(req.Options)
	hint, err := schemaInstruction(req.Schema)
	if err != nil {
		return nil, err
	}

	messages := []map[string]string{{"role": "system", "content": hint}}
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		messages = append(messages, map[string]string{"role": string(m.Role), "content": m.Content})
	}

	request := map[string]interface{}{
		"model":           opts.Model,
		"messages":        messages,
		"response_format": map[string]string{"type": "json_object"},
	}
	if opts.Temperature > 0 {
		request["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		request["max_tokens"] = opts.MaxTokens
	}

	r := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request)
	if c.settings.APIKey != "" {
		r.SetHeader("Authorization", "Bearer "+c.settings.APIKey)
	}
	response, err := r.Post(c.baseURL + "/chat/completions")
	if err != nil {
		return nil, requestFailed(c.Provider(), err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, statusFailed(c.Provider(), response.StatusCode(), response.String())
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return nil, requestFailed(c.Provider(), fmt.Errorf("decode response: %w", err))
	}

	out := &Response{Usage: Usage{InputTokens: result.Usage.PromptTokens, OutputTokens: result.Usage.CompletionTokens}}
	if len(result.Choices) > 0 {
		out.Output = ExtractJSON(result.Choices[0].Message.Content)
	}
	return out, nil
}
