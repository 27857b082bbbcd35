package api

import (
	"time"

	"github.com/hertz-contrib/jwt"

	"mail-genie/internal/api/http/middleware"
	"mail-genie/pkg/config"
)

// NewJWTFromConfig 按 api.middleware 配置创建 JWT 中间件；时长无效或为空时为 1h
func NewJWTFromConfig(cfg *config.Config) (*jwt.HertzJWTMiddleware, error) {
	mwCfg := cfg.API.Middleware
	return middleware.NewJWTAuth(
		[]byte(mwCfg.JWTKey),
		parseDuration(mwCfg.JWTTimeout, time.Hour),
		parseDuration(mwCfg.JWTMaxRefresh, time.Hour),
	)
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
