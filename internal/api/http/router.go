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

package http

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/hertz-contrib/jwt"

	"mail-genie/internal/api/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	handler    *Handler
	middleware *middleware.Middleware
	jwt        *jwt.HertzJWTMiddleware
	global     []app.HandlerFunc
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, mw *middleware.Middleware) *Router {
	return &Router{handler: handler, middleware: mw}
}

// SetJWT 启用 /api/compose 的 JWT 校验
func (r *Router) SetJWT(mw *jwt.HertzJWTMiddleware) {
	r.jwt = mw
}

// Use 追加全局中间件（如链路追踪），须在 Build 之前调用
func (r *Router) Use(handlers ...app.HandlerFunc) {
	r.global = append(r.global, handlers...)
}

// Build 创建 Hertz 实例并注册所有路由
func (r *Router) Build(addr string, opts ...config.Option) *server.Hertz {
	opts = append([]config.Option{server.WithHostPorts(addr)}, opts...)
	h := server.Default(opts...)
	r.Register(h)
	return h
}

// Register 在已有 Hertz 实例上注册中间件与路由
func (r *Router) Register(h *server.Hertz) {
	h.Use(r.global...)
	h.Use(r.middleware.RequestID(), r.middleware.AccessLog(), r.middleware.CORS())

	h.GET("/metrics", r.handler.Metrics)

	api := h.Group("/api")
	api.GET("/health", r.handler.HealthCheck)
	api.GET("/tools", r.handler.ListTools)

	compose := []app.HandlerFunc{r.middleware.RateLimit()}
	if r.jwt != nil {
		compose = append(compose, r.jwt.MiddlewareFunc())
	}
	compose = append(compose, r.handler.Compose)
	api.POST("/compose", compose...)
}
