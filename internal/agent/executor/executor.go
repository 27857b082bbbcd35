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

package executor

import (
	"context"
	"fmt"
	"time"

	"mail-genie/internal/agent/planner"
	"mail-genie/internal/agent/tools"
	"mail-genie/internal/model/llm"
	"mail-genie/pkg/errors"
	"mail-genie/pkg/log"
	"mail-genie/pkg/metrics"
	"mail-genie/pkg/tracing"
)

// Tools 执行器依赖的邮件工具；tools.Toolset 实现该接口
type Tools interface {
	Draft(ctx context.Context, goal string) (tools.EmailContent, error)
	Tune(ctx context.Context, content tools.EmailContent, tone string) (tools.EmailContent, error)
	Translate(ctx context.Context, content tools.EmailContent, language string) (tools.EmailContent, error)
	Proofread(ctx context.Context, content tools.EmailContent) (tools.EmailContent, error)
}

// StepStatus 步骤执行状态
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
)

// StepEvent 单步执行记录
type StepEvent struct {
	Index    int           `json:"index"`
	Label    string        `json:"label"`
	Tool     string        `json:"tool"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Observer 接收每一步的 StepEvent
type Observer func(StepEvent)

// StepError 步骤失败；执行立即停止
type StepError struct {
	Label string
	Err   error
}

func (e *StepError) Error() string {
	return "Error executing step \"" + e.Label + "\": " + e.Err.Error()
}

func (e *StepError) Unwrap() error { return e.Err }

// PublicMessage 对调用方可见的步骤错误；后端调用失败等内部原因只给出概括描述
func (e *StepError) PublicMessage() string {
	return "Error executing step \"" + e.Label + "\": " + publicCause(e.Err)
}

func publicCause(err error) string {
	var (
		arg     *StepArgumentError
		missing *llm.MissingOutputError
		decode  *llm.OutputDecodeError
		request *llm.RequestError
	)
	switch {
	case errors.As(err, &arg):
		return arg.Error()
	case errors.As(err, &missing):
		return missing.Error()
	case errors.As(err, &decode):
		return decode.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case errors.Is(err, context.Canceled):
		return "The request was canceled."
	case errors.As(err, &request):
		if request.Status > 0 {
			return fmt.Sprintf("The %s model service returned status %d.", request.Provider, request.Status)
		}
		return fmt.Sprintf("The %s model service could not be reached.", request.Provider)
	}
	if msg, ok := errors.PublicMessage(err); ok {
		return msg
	}
	return "An unexpected error occurred."
}

// StepArgumentError 步骤缺少必需参数
type StepArgumentError struct {
	Tool     string
	Argument string
}

func (e *StepArgumentError) Error() string {
	switch e.Tool {
	case tools.KindTone:
		return "Tone adjustment step is missing the '" + e.Argument + "' argument."
	case tools.KindTranslate:
		return "Translation step is missing the '" + e.Argument + "' argument."
	default:
		return fmt.Sprintf("%s step is missing the '%s' argument.", e.Tool, e.Argument)
	}
}

// unknownToolLabel 跳过步骤的指标标签；模型给出的工具名只写日志
const unknownToolLabel = "unknown"

// Executor 按计划顺序对邮件内容做左折叠；无状态，可并发使用
type Executor struct {
	tools  Tools
	logger *log.Logger
}

// New 创建 Executor；logger 为 nil 时使用 context 中的 Logger 或丢弃输出
func New(t Tools, logger *log.Logger) *Executor {
	return &Executor{tools: t, logger: logger}
}

// Execute 依次执行计划中的所有步骤，初始内容为空
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan, goal string) (tools.EmailContent, error) {
	return e.ExecuteObserved(ctx, plan, goal, nil)
}

// ExecuteObserved 同 Execute，并将每一步的 StepEvent 交给 observe
func (e *Executor) ExecuteObserved(ctx context.Context, plan *planner.Plan, goal string, observe Observer) (tools.EmailContent, error) {
	var content tools.EmailContent
	if plan == nil {
		return content, nil
	}
	logger := log.FromContext(ctx, e.logger)
	emit := func(ev StepEvent) {
		if observe != nil {
			observe(ev)
		}
	}

	for i, step := range plan.Steps {
		if step.Action == nil {
			step.Action = planner.Unknown{}
		}
		tool := step.Action.Tool()
		if _, ok := step.Action.(planner.Unknown); ok {
			logger.Warn("skipping step with unknown tool", "index", i, "step", step.Label, "tool", tool)
			metrics.StepSkippedTotal.WithLabelValues(unknownToolLabel).Inc()
			emit(StepEvent{Index: i, Label: step.Label, Tool: tool, Status: StatusSkipped})
			continue
		}

		start := time.Now()
		stepCtx, span := tracing.StartStepSpan(ctx, i, step.Label, tool)
		next, err := e.apply(stepCtx, content, step.Action, goal)
		tracing.EndSpan(span, err)
		elapsed := time.Since(start)
		metrics.StepDuration.WithLabelValues(tool).Observe(elapsed.Seconds())

		if err != nil {
			emit(StepEvent{Index: i, Label: step.Label, Tool: tool, Status: StatusFailed, Duration: elapsed, Err: err})
			logger.Error("step failed", "index", i, "step", step.Label, "tool", tool,
				"duration_ms", elapsed.Milliseconds(), "error", err)
			return tools.EmailContent{}, &StepError{Label: step.Label, Err: err}
		}
		content = next
		emit(StepEvent{Index: i, Label: step.Label, Tool: tool, Status: StatusOK, Duration: elapsed})
		logger.Debug("step done", "index", i, "step", step.Label, "tool", tool, "duration_ms", elapsed.Milliseconds())
	}
	return content, nil
}

func (e *Executor) apply(ctx context.Context, content tools.EmailContent, action planner.Action, goal string) (tools.EmailContent, error) {
	if err := ctx.Err(); err != nil {
		return content, err
	}
	switch a := action.(type) {
	case planner.Draft:
		g := a.Goal
		if g == "" {
			g = goal
		}
		return e.tools.Draft(ctx, g)
	case planner.Tone:
		if a.DesiredTone == "" {
			return content, &StepArgumentError{Tool: tools.KindTone, Argument: "desiredTone"}
		}
		return e.tools.Tune(ctx, content, a.DesiredTone)
	case planner.Translate:
		if a.TargetLanguage == "" {
			return content, &StepArgumentError{Tool: tools.KindTranslate, Argument: "targetLanguage"}
		}
		return e.tools.Translate(ctx, content, a.TargetLanguage)
	case planner.Proofread:
		return e.tools.Proofread(ctx, content)
	default:
		return content, fmt.Errorf("unsupported step action %T", action)
	}
}
