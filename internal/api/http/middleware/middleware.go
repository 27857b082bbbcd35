package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"mail-genie/pkg/log"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// Options 中间件配置
type Options struct {
	AllowOrigins []string // 为空时允许任意来源
	RateLimitRPS int      // <=0 时不限流
	Logger       *log.Logger
}

// Middleware 中间件管理器
type Middleware struct {
	origins map[string]bool
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewMiddleware 创建新的中间件管理器
func NewMiddleware(opts Options) *Middleware {
	m := &Middleware{logger: opts.Logger}
	if m.logger == nil {
		m.logger = log.Discard()
	}
	for _, o := range opts.AllowOrigins {
		if o == "*" {
			m.origins = nil
			break
		}
		if m.origins == nil {
			m.origins = make(map[string]bool)
		}
		m.origins[o] = true
	}
	if opts.RateLimitRPS > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitRPS)
	}
	return m
}

// CORS CORS 中间件
func (m *Middleware) CORS() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		origin := string(c.GetHeader("Origin"))
		switch {
		case m.origins == nil:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && m.origins[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if string(c.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}
		c.Next(ctx)
	}
}

// RequestID 读取或生成 X-Request-ID，写回响应头，并把带 request_id 的 Logger 放入 context
func (m *Middleware) RequestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		ctx = log.WithContext(ctx, m.logger.With("request_id", id))
		c.Next(ctx)
	}
}

// AccessLog 请求日志
func (m *Middleware) AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		m.logger.Info("http request",
			"request_id", c.GetString("request_id"),
			"method", string(c.Method()),
			"path", string(c.Path()),
			"status", c.Response.StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// RateLimit 进程级请求限流；未配置 rps 时直接放行
func (m *Middleware) RateLimit() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if m.limiter != nil && !m.limiter.Allow() {
			c.AbortWithStatusJSON(consts.StatusTooManyRequests, map[string]any{
				"success": false,
				"message": "Too many requests, please try again later.",
			})
			return
		}
		c.Next(ctx)
	}
}
