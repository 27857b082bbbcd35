package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftRequest() *Request {
	return &Request{
		Name: "draft",
		Messages: []*schema.Message{
			schema.SystemMessage("You are an AI email assistant."),
			schema.UserMessage("User Goal: ask for a day off"),
		},
		Schema: SchemaFor[emailOut](),
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestGeminiCompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "k-1", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"subject\":\"Day off\",\"body\":\"Hi\"}"}]}}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8}}`)
	}))
	defer srv.Close()

	c, err := NewGeminiCompleter(Settings{APIKey: "k-1", Model: "gemini-test", BaseURL: srv.URL, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider())

	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"Day off","body":"Hi"}`, string(resp.Output))
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 8}, resp.Usage)

	gen := body["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Equal(t, 0.3, gen["temperature"])
	rs := gen["responseSchema"].(map[string]any)
	assert.NotContains(t, rs, "additionalProperties")
	sys := body["systemInstruction"].(map[string]any)
	assert.Equal(t, "You are an AI email assistant.", sys["parts"].([]any)[0].(map[string]any)["text"])
	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].(map[string]any)["role"])
}

func TestGeminiCompleter_NoCandidatesIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c, err := NewGeminiCompleter(Settings{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.True(t, resp.Absent())
}

func TestGeminiCompleter_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"quota"}}`)
	}))
	defer srv.Close()

	c, err := NewGeminiCompleter(Settings{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), draftRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAICompatCompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k-2", r.Header.Get("Authorization"))
		body = decodeBody(t, r)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"`+"```json\\n{\\\"subject\\\":\\\"S\\\",\\\"body\\\":\\\"B\\\"}\\n```"+`"}}],"usage":{"prompt_tokens":3,"completion_tokens":4}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAICompatCompleter(Settings{Provider: "qwen", APIKey: "k-2", Model: "qwen-plus", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, "qwen", c.Provider())

	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"S","body":"B"}`, string(resp.Output))
	assert.Equal(t, "qwen-plus", body["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].(map[string]any)["content"], "JSON Schema")
}

func TestOpenAICompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"subject\":\"S\",\"body\":\"B\"}"}}],
			"usage":{"prompt_tokens":5,"completion_tokens":6,"total_tokens":11}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAICompleter(Settings{APIKey: "k-3", Model: "gpt-test", BaseURL: srv.URL + "/v1/", MaxTokens: 256})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"S","body":"B"}`, string(resp.Output))
	assert.Equal(t, Usage{InputTokens: 5, OutputTokens: 6}, resp.Usage)

	rf := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "draft", js["name"])
	assert.EqualValues(t, 256, body["max_completion_tokens"])
}

func TestClaudeCompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"tool_use","id":"tu_1","name":"emit_draft","input":{"subject":"S","body":"B"}}],
			"stop_reason":"tool_use","usage":{"input_tokens":7,"output_tokens":9}}`)
	}))
	defer srv.Close()

	c, err := NewClaudeCompleter(Settings{APIKey: "k-4", Model: "claude-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"S","body":"B"}`, string(resp.Output))
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 9}, resp.Usage)

	choice := body["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, "emit_draft", choice["name"])
	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	schemaIn := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Contains(t, schemaIn["properties"], "subject")
	assert.EqualValues(t, claudeDefaultMaxTokens, body["max_tokens"])
	system := body["system"].([]any)
	assert.Equal(t, "You are an AI email assistant.", system[0].(map[string]any)["text"])
}

func TestClaudeCompleter_TextOnlyIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_2","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"I cannot help"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	c, err := NewClaudeCompleter(Settings{APIKey: "k", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.True(t, resp.Absent())
}

func TestOllamaCompleter(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llama-test","message":{"role":"assistant","content":"{\"subject\":\"S\",\"body\":\"B\"}"},"done":true,"prompt_eval_count":3,"eval_count":4}`+"\n")
	}))
	defer srv.Close()

	c, err := NewOllamaCompleter(Settings{Model: "llama-test", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"S","body":"B"}`, string(resp.Output))
	assert.Equal(t, Usage{InputTokens: 3, OutputTokens: 4}, resp.Usage)
	assert.Equal(t, false, body["stream"])
	format := body["format"].(map[string]any)
	assert.Equal(t, "object", format["type"])
}

type fakeChatModel struct {
	reply *schema.Message
	input []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{f.reply}), nil
}

func TestEinoCompleter(t *testing.T) {
	reply := schema.AssistantMessage("Sure! {\"subject\":\"S\",\"body\":\"B\"}", nil)
	reply.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 2, CompletionTokens: 3}}
	cm := &fakeChatModel{reply: reply}
	c := NewEinoCompleterWithModel(Settings{Provider: "eino"}, cm)

	resp, err := c.Complete(context.Background(), draftRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"S","body":"B"}`, string(resp.Output))
	assert.Equal(t, Usage{InputTokens: 2, OutputTokens: 3}, resp.Usage)
	require.Len(t, cm.input, 3)
	assert.Equal(t, schema.System, cm.input[0].Role)
	assert.Contains(t, cm.input[0].Content, "JSON Schema")
}
