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
	"time"

	"mail-genie/pkg/metrics"
)

// RateLimitedCompleter 包装任意 Completer，在真实调用前后执行限流控制。
type RateLimitedCompleter struct {
	inner       Completer
	rateLimiter *LLMRateLimiter
}

// NewRateLimitedCompleter 创建带限流的补全服务。rateLimiter 为 nil 时退化为直接调用。
func NewRateLimitedCompleter(inner Completer, rateLimiter *LLMRateLimiter) *RateLimitedCompleter {
	return &RateLimitedCompleter{inner: inner, rateLimiter: rateLimiter}
}

// Provider 返回底层 Completer 的提供商名称。
func (c *RateLimitedCompleter) Provider() string { return c.inner.Provider() }

// Complete 实现 Completer，调用前等待许可，调用后释放并发 slot 并记录实际用量。
func (c *RateLimitedCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	if c.rateLimiter == nil {
		return c.inner.Complete(ctx, req)
	}
	provider := c.inner.Provider()
	estimated := estimateTokens(messagesText(req.Messages), req.Options.MaxTokens)
	start := time.Now()
	if err := c.rateLimiter.Wait(ctx, provider, estimated); err != nil {
		return nil, err
	}
	metrics.RateLimitWait.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	defer c.rateLimiter.Release(provider)

	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	used := resp.Usage.InputTokens + resp.Usage.OutputTokens
	if used == 0 {
		used = estimated
	}
	c.rateLimiter.RecordTokenUsage(provider, used)
	return resp, nil
}

// estimateTokens 粗略估算请求的 token 数（4 字符 ≈ 1 token）。
func estimateTokens(text string, maxTokens int) int {
	estimated := len(text) / 4
	if maxTokens > 0 {
		estimated += maxTokens
	}
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}
