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

// Package agent 邮件生成管线：规划 → 执行 → 组装结果
package agent

import (
	"context"
	"fmt"
	"time"

	"mail-genie/internal/agent/executor"
	"mail-genie/internal/agent/planner"
	"mail-genie/pkg/log"
	"mail-genie/pkg/metrics"
	"mail-genie/pkg/tracing"
)

// Output 管线输出：最终邮件与计划中每一步的展示文本
type Output struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	Plan    []string `json:"plan"`
}

// Agent 入口：持有 Planner 与 Executor；不保存请求状态，可并发使用
type Agent struct {
	planner  planner.Planner
	executor *executor.Executor
	logger   *log.Logger
	observer executor.Observer
}

// AgentOption 可选配置
type AgentOption func(*Agent)

// WithLogger 设置默认 Logger（context 中的 Logger 优先）
func WithLogger(l *log.Logger) AgentOption {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithObserver 额外接收每一步的 StepEvent
func WithObserver(o executor.Observer) AgentOption {
	return func(a *Agent) {
		a.observer = o
	}
}

// New 创建 Agent
func New(p planner.Planner, exec *executor.Executor, opts ...AgentOption) *Agent {
	a := &Agent{planner: p, executor: exec}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run 执行一次完整管线；任一阶段失败立即返回
func (a *Agent) Run(ctx context.Context, goal string) (out *Output, err error) {
	if a.planner == nil || a.executor == nil {
		return nil, fmt.Errorf("agent is not configured: planner and executor are required")
	}
	start := time.Now()
	logger := log.FromContext(ctx, a.logger)
	ctx, span := tracing.StartPipelineSpan(ctx, len(goal))
	defer func() {
		tracing.EndSpan(span, err)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
		metrics.PipelineTotal.WithLabelValues(status).Inc()
	}()

	plan, err := a.planner.Plan(ctx, goal)
	if err != nil {
		logger.Warn("planning failed", "error", err)
		return nil, err
	}
	labels := plan.Labels()
	logger.Info("plan ready", "steps", len(labels), "plan", labels, "rationale", plan.Rationale)

	content, err := a.executor.ExecuteObserved(ctx, plan, goal, func(ev executor.StepEvent) {
		logger.Info("step finished", "index", ev.Index, "step", ev.Label, "tool", ev.Tool,
			"status", string(ev.Status), "duration_ms", ev.Duration.Milliseconds())
		if a.observer != nil {
			a.observer(ev)
		}
	})
	if err != nil {
		return nil, err
	}
	logger.Info("email generated", "duration_ms", time.Since(start).Milliseconds())
	return &Output{Subject: content.Subject, Body: content.Body, Plan: labels}, nil
}
