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
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"mail-genie/internal/agent/tools"
	appsvc "mail-genie/internal/app"
	"mail-genie/pkg/log"
	"mail-genie/pkg/metrics"
)

// Composer 邮件生成服务；app.ComposeService 实现该接口
type Composer interface {
	Compose(ctx context.Context, req appsvc.ComposeRequest) appsvc.Result
}

// Handler HTTP 处理器
type Handler struct {
	composer Composer
	logger   *log.Logger
	version  string
	started  time.Time
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(composer Composer, logger *log.Logger) *Handler {
	return &Handler{composer: composer, logger: logger, version: "dev", started: time.Now()}
}

// SetVersion 设置 /api/health 中返回的版本号
func (h *Handler) SetVersion(v string) {
	h.version = v
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "mail-genie",
		"version":   h.version,
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// ListTools 已知工具及说明
func (h *Handler) ListTools(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]any{"tools": tools.Describe()})
}

// Compose 生成邮件：200 成功，400 请求无效，422 管线失败；响应体均为 Result
func (h *Handler) Compose(ctx context.Context, c *app.RequestContext) {
	var req appsvc.ComposeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, appsvc.Result{Success: false, Message: "Invalid request body."})
		return
	}
	if h.composer == nil {
		c.JSON(consts.StatusServiceUnavailable, appsvc.Result{Success: false, Message: appsvc.MessageGeneric})
		return
	}
	res := h.composer.Compose(ctx, req)
	switch {
	case res.Success:
		c.JSON(consts.StatusOK, res)
	case errors.Is(res.Err, appsvc.ErrValidation):
		c.JSON(consts.StatusBadRequest, res)
	default:
		c.JSON(consts.StatusUnprocessableEntity, res)
	}
}

// Metrics Prometheus 文本格式
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		log.FromContext(ctx, h.logger).Error("write metrics", "error", err)
		c.String(consts.StatusInternalServerError, err.Error())
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
