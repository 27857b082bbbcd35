package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
)

// IdentityKey token 中的调用方标识字段
const IdentityKey = "sub"

// NewJWTAuth 创建只做校验的 JWT 中间件；token 由 IssueToken 或外部签发
func NewJWTAuth(key []byte, timeout, maxRefresh time.Duration) (*jwt.HertzJWTMiddleware, error) {
	return jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "mail-genie",
		Key:         key,
		Timeout:     timeout,
		MaxRefresh:  maxRefresh,
		IdentityKey: IdentityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if subject, ok := data.(string); ok {
				return jwt.MapClaims{IdentityKey: subject}
			}
			return jwt.MapClaims{}
		},
		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			return nil, jwt.ErrFailedAuthentication
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]any{"success": false, "message": message})
		},
	})
}

// IssueToken 为 subject 签发 token
func IssueToken(mw *jwt.HertzJWTMiddleware, subject string) (string, time.Time, error) {
	return mw.TokenGenerator(subject)
}
