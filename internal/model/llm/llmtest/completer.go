// Package llmtest 提供按 prompt 名脚本化的 Completer，供各层单元测试使用
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"

	"mail-genie/internal/model/llm"
)

// Reply 一次脚本化应答；Err 非空时返回错误，Output 为空表示输出缺失
type Reply struct {
	Output string
	Err    error
}

// JSON 将 v 编码为应答
func JSON(v any) Reply {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Output: string(b)}
}

// Absent 输出缺失的应答
func Absent() Reply { return Reply{} }

// Fail 返回错误的应答
func Fail(err error) Reply { return Reply{Err: err} }

// Call 一次被记录的调用
type Call struct {
	Name     string
	Messages []*schema.Message
	Schema   *jsonschema.Schema
}

// Completer 脚本化补全服务；同一 prompt 的应答按顺序消费，最后一个会被重复使用
type Completer struct {
	provider string

	mu      sync.Mutex
	replies map[string][]Reply
	calls   []Call
}

// New 创建脚本化 Completer
func New(provider string) *Completer {
	return &Completer{provider: provider, replies: make(map[string][]Reply)}
}

// On 为 prompt 追加应答
func (c *Completer) On(name string, replies ...Reply) *Completer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[name] = append(c.replies[name], replies...)
	return c
}

// Provider 实现 llm.Completer
func (c *Completer) Provider() string { return c.provider }

// Complete 实现 llm.Completer
func (c *Completer) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Name: req.Name, Messages: req.Messages, Schema: req.Schema})
	queue := c.replies[req.Name]
	if len(queue) == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("llmtest: no reply scripted for prompt %q", req.Name)
	}
	reply := queue[0]
	if len(queue) > 1 {
		c.replies[req.Name] = queue[1:]
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &llm.Response{Output: json.RawMessage(reply.Output)}, nil
}

// Calls 返回已记录的调用
func (c *Completer) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallNames 按顺序返回被调用的 prompt 名
func (c *Completer) CallNames() []string {
	calls := c.Calls()
	names := make([]string, len(calls))
	for i, call := range calls {
		names[i] = call.Name
	}
	return names
}

// UserText 返回第 i 次调用中 user 消息的文本
func (c *Completer) UserText(i int) string {
	calls := c.Calls()
	if i < 0 || i >= len(calls) {
		return ""
	}
	var out string
	for _, m := range calls[i].Messages {
		if m != nil && m.Role == schema.User {
			out += m.Content
		}
	}
	return out
}
