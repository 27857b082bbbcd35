package llm

import (
	"context"
	"errors"
	"time"

	"mail-genie/pkg/metrics"
	"mail-genie/pkg/tracing"
)

// InstrumentedCompleter 为每次补全记录耗时、失败原因与 llm.complete span
type InstrumentedCompleter struct {
	inner Completer
}

// NewInstrumentedCompleter 包装 Completer
func NewInstrumentedCompleter(inner Completer) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner}
}

// Provider 返回底层 Completer 的提供商名称
func (c *InstrumentedCompleter) Provider() string { return c.inner.Provider() }

// Complete 实现 Completer
func (c *InstrumentedCompleter) Complete(ctx context.Context, req *Request) (resp *Response, err error) {
	provider := c.inner.Provider()
	ctx, span := tracing.StartCompletionSpan(ctx, req.Name, provider)
	start := time.Now()
	defer func() {
		metrics.CompletionDuration.WithLabelValues(req.Name, provider).Observe(time.Since(start).Seconds())
		switch {
		case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			metrics.CompletionErrorsTotal.WithLabelValues(req.Name, "canceled").Inc()
		case err != nil:
			metrics.CompletionErrorsTotal.WithLabelValues(req.Name, "transport").Inc()
		case resp.Absent():
			metrics.CompletionErrorsTotal.WithLabelValues(req.Name, "missing_output").Inc()
		}
		tracing.EndSpan(span, err)
	}()
	return c.inner.Complete(ctx, req)
}
