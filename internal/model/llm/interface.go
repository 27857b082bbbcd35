package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"
)

// Completer 结构化补全服务：给定消息与输出 schema，返回符合 schema 的 JSON（可能缺失）
type Completer interface {
	// Complete 发起一次补全；输出缺失时 Response.Output 为空而不是返回 error
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Provider 返回提供商名称
	Provider() string
}

// Options 生成选项
type Options struct {
	Model       string  `json:"model,omitempty"` // 为空时使用后端默认模型
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Request 一次结构化补全请求
type Request struct {
	Name     string // prompt 名，用于日志、指标与错误信息
	Messages []*schema.Message
	Schema   *jsonschema.Schema
	Options  Options
}

// Response 补全结果
type Response struct {
	Output json.RawMessage
	Usage  Usage
}

// Usage token 用量（后端未返回时为 0）
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Absent 输出是否缺失：nil、空白或 JSON null
func (r *Response) Absent() bool {
	if r == nil {
		return true
	}
	out := bytes.TrimSpace(r.Output)
	return len(out) == 0 || bytes.Equal(out, []byte("null"))
}

// MissingOutputError 补全调用成功但没有结构化输出
type MissingOutputError struct {
	Prompt string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("completion %q returned no structured output", e.Prompt)
}

// splitMessages 拆出 system 文本与其余对话消息，供只接受单独 system 字段的后端使用
func splitMessages(msgs []*schema.Message) (string, []*schema.Message) {
	var system string
	rest := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == schema.System {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// messagesText 将消息列表合并为单一字符串，用于 token 估算
func messagesText(msgs []*schema.Message) string {
	total := 0
	for _, m := range msgs {
		if m != nil {
			total += len(m.Content)
		}
	}
	buf := make([]byte, 0, total)
	for _, m := range msgs {
		if m != nil {
			buf = append(buf, m.Content...)
		}
	}
	return string(buf)
}

// RequestError 调用补全后端失败：网络错误、非 2xx 状态或响应无法解析。
// 消息中不包含请求 URL（部分后端的 URL 带凭证）。
type RequestError struct {
	Provider string
	Status   int    // HTTP 状态码；网络错误时为 0
	Detail   string // 响应体摘要，仅用于日志
	Err      error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status > 0 && e.Detail != "":
		return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Status, e.Detail)
	case e.Status > 0:
		return fmt.Sprintf("%s API returned status %d", e.Provider, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %s", e.Provider, withoutURL(e.Err))
	default:
		return e.Provider + " request failed"
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// withoutURL 去掉 *url.Error 中的请求地址，只保留操作与底层原因
func withoutURL(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Op + ": " + ue.Err.Error()
	}
	return err.Error()
}

// requestFailed 包装后端调用错误；ctx 取消或超时保持可被 errors.Is 识别
func requestFailed(provider string, err error) error {
	return &RequestError{Provider: provider, Err: err}
}

// statusFailed 非 2xx 响应
func statusFailed(provider string, status int, body string) error {
	const maxDetail = 512
	if len(body) > maxDetail {
		body = body[:maxDetail] + "..."
	}
	return &RequestError{Provider: provider, Status: status, Detail: body}
}
