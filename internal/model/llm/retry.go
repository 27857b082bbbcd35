package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy 补全调用的重试策略；MaxAttempts<=1 表示只调用一次
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RetryingCompleter 对传输层失败做有界指数退避重试（带抖动）。
// 输出缺失不是传输失败，原样返回；context 取消或超时立即停止。
type RetryingCompleter struct {
	inner  Completer
	policy RetryPolicy
}

// NewRetryingCompleter 创建带重试的补全服务
func NewRetryingCompleter(inner Completer, policy RetryPolicy) *RetryingCompleter {
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = 500 * time.Millisecond
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = 5 * time.Second
	}
	return &RetryingCompleter{inner: inner, policy: policy}
}

// Provider 返回底层 Completer 的提供商名称
func (c *RetryingCompleter) Provider() string { return c.inner.Provider() }

// Complete 实现 Completer
func (c *RetryingCompleter) Complete(ctx context.Context, req *Request) (*Response, error) {
	if c.policy.MaxAttempts <= 1 {
		return c.inner.Complete(ctx, req)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.policy.InitialInterval
	eb.MaxInterval = c.policy.MaxInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.policy.MaxAttempts-1)), ctx)

	var resp *Response
	op := func() error {
		r, err := c.inner.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			var missing *MissingOutputError
			if errors.As(err, &missing) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return resp, nil
}
