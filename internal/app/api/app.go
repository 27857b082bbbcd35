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

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	"github.com/hertz-contrib/obs-opentelemetry/provider"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"mail-genie/internal/api/http"
	"mail-genie/internal/api/http/middleware"
	"mail-genie/internal/app"
	"mail-genie/pkg/config"
	"mail-genie/pkg/log"
)

// otelProviderShutdown 用于优雅关闭时关闭 OpenTelemetry provider
type otelProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// App API 应用（装配 HTTP Router、Handler、Middleware）
type App struct {
	bootstrap    *app.Bootstrap
	router       *http.Router
	hertz        *server.Hertz
	otelProvider otelProviderShutdown
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap, version string) (*App, error) {
	if bootstrap == nil || bootstrap.Compose == nil {
		return nil, fmt.Errorf("bootstrap is not initialized")
	}
	cfg := bootstrap.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	handler := http.NewHandler(bootstrap.Compose, bootstrap.Logger)
	handler.SetVersion(version)

	rps := 0
	if cfg.API.Middleware.RateLimit {
		rps = cfg.API.Middleware.RateLimitRPS
	}
	var origins []string
	if cfg.API.CORS.Enable {
		origins = cfg.API.CORS.AllowOrigins
	}
	mw := middleware.NewMiddleware(middleware.Options{
		AllowOrigins: origins,
		RateLimitRPS: rps,
		Logger:       bootstrap.Logger,
	})
	router := http.NewRouter(handler, mw)

	if cfg.API.Middleware.Auth {
		if cfg.API.Middleware.JWTKey == "" {
			return nil, fmt.Errorf("api.middleware.auth is enabled but jwt_key is empty")
		}
		jwtAuth, err := NewJWTFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("init jwt: %w", err)
		}
		router.SetJWT(jwtAuth)
		bootstrap.Logger.Info("JWT 认证已启用")
	}

	return &App{bootstrap: bootstrap, router: router}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"；阻塞直到服务停止
func (a *App) Run(addr string) error {
	cfg := a.bootstrap.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 配置对齐
	var output io.Writer = os.Stdout
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = f
	}
	levelVar := &slog.LevelVar{}
	levelVar.Set(log.ParseLevel(cfg.Log.Level))
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))

	var opts []hertzconfig.Option
	if tracing := cfg.Monitoring.Tracing; tracing.Enable {
		serviceName := tracing.ServiceName
		if serviceName == "" {
			serviceName = "mail-genie"
		}
		exportEndpoint := tracing.ExportEndpoint
		if exportEndpoint == "" {
			exportEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		if exportEndpoint != "" {
			popts := []provider.Option{
				provider.WithServiceName(serviceName),
				provider.WithExportEndpoint(exportEndpoint),
			}
			if tracing.Insecure {
				popts = append(popts, provider.WithInsecure())
			}
			a.otelProvider = provider.NewOpenTelemetryProvider(popts...)
			tracerOpt, tcfg := hertztracing.NewServerTracer()
			opts = append(opts, tracerOpt)
			a.router.Use(hertztracing.ServerMiddleware(tcfg))
			a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", exportEndpoint)
		} else {
			a.bootstrap.Logger.Warn("tracing enabled without export endpoint, skipped")
		}
	}
	if cfg.API.Timeout != "" {
		if d, err := time.ParseDuration(cfg.API.Timeout); err == nil && d > 0 {
			// 管线超时之外留出写响应的时间
			opts = append(opts, server.WithWriteTimeout(d+10*time.Second))
		}
	}

	a.hertz = a.router.Build(addr, opts...)
	return a.hertz.Run()
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.otelProvider != nil {
		_ = a.otelProvider.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	return a.bootstrap.Close()
}
