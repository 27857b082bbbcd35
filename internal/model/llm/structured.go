package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
)

// OutputDecodeError 结构化输出存在但无法解码为目标类型
type OutputDecodeError struct {
	Prompt string
	Err    error
}

func (e *OutputDecodeError) Error() string {
	return fmt.Sprintf("decode %q output: %v", e.Prompt, e.Err)
}

func (e *OutputDecodeError) Unwrap() error { return e.Err }

// Structured 渲染 prompt 模板、以 T 的 schema 发起补全并解码输出。
// 输出缺失返回 *MissingOutputError；缺少 required 字段或无法解码返回 *OutputDecodeError；调用失败原样返回。
func Structured[T any](ctx context.Context, c Completer, name string, tmpl prompt.ChatTemplate, vars map[string]any) (*T, error) {
	msgs, err := tmpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("render prompt %q: %w", name, err)
	}
	outSchema := SchemaFor[T]()
	resp, err := c.Complete(ctx, &Request{
		Name:     name,
		Messages: msgs,
		Schema:   outSchema,
	})
	if err != nil {
		return nil, err
	}
	if resp.Absent() {
		return nil, &MissingOutputError{Prompt: name}
	}
	if err := CheckRequired(outSchema, resp.Output); err != nil {
		return nil, &OutputDecodeError{Prompt: name, Err: err}
	}
	var out T
	if err := json.Unmarshal(resp.Output, &out); err != nil {
		return nil, &OutputDecodeError{Prompt: name, Err: err}
	}
	return &out, nil
}
