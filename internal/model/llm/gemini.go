package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/go-resty/resty/v2"
)

// GeminiCompleter 通过 generateContent REST 接口调用 Gemini，使用 responseSchema 约束输出
type GeminiCompleter struct {
	settings Settings
	baseURL  string
	client   *resty.Client
}

// NewGeminiCompleter 创建 Gemini 补全后端
func NewGeminiCompleter(s Settings) (*GeminiCompleter, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("gemini api_key 未配置")
	}
	if s.Model == "" {
		s.Model = "gemini-2.0-flash"
	}
	baseURL := strings.TrimRight(s.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	client := resty.New()
	client.SetTimeout(s.timeout())

	return &GeminiCompleter{settings: s, baseURL: baseURL, client: client}, nil
}

// Provider 返回提供商名称
func (c *GeminiCompleter) Provider() string { return providerName(c.settings, "gemini") }

// Complete 实现 Completer
func (c *GeminiCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	opts := c.settings.merge(req.Options)
	system, msgs := splitMessages(req.Messages)

	contents := make([]map[string]interface{}, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == schema.Assistant {
			role = "model"
		}
		contents = append(contents, map[string]interface{}{
			"role":  role,
			"parts": []map[string]interface{}{{"text": m.Content}},
		})
	}

	genCfg := map[string]interface{}{
		"responseMimeType": "application/json",
	}
	if rs := GeminiSchema(req.Schema); rs != nil {
		genCfg["responseSchema"] = rs
	}
	if opts.Temperature > 0 {
		genCfg["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		genCfg["maxOutputTokens"] = opts.MaxTokens
	}

	body := map[string]interface{}{
		"contents":         contents,
		"generationConfig": genCfg,
	}
	if system != "" {
		body["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{{"text": system}},
		}
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", c.settings.APIKey).
		SetBody(body).
		Post(c.baseURL + "/models/" + opts.Model + ":generateContent")
	if err != nil {
		return nil, requestFailed(c.Provider(), err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, statusFailed(c.Provider(), response.StatusCode(), response.String())
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return nil, requestFailed(c.Provider(), fmt.Errorf("decode response: %w", err))
	}

	out := &Response{Usage: Usage{
		InputTokens:  result.UsageMetadata.PromptTokenCount,
		OutputTokens: result.UsageMetadata.CandidatesTokenCount,
	}}
	if len(result.Candidates) == 0 {
		return out, nil
	}
	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	out.Output = ExtractJSON(text.String())
	return out, nil
}
